package outage

import (
	"fmt"
	"time"
)

func cellOf(v any) Cell {
	switch x := v.(type) {
	case nil:
		return Empty()
	case Cell:
		return x
	case string:
		if x == "" {
			return Empty()
		}
		return Text(x)
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case time.Time:
		return Time(x)
	default:
		return Text(fmt.Sprint(x))
	}
}
