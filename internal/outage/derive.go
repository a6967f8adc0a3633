package outage

import (
	"math"

	"siteoutage/pkg/contracts/domain"
)

const (
	minutesPerDay = 1440
	// freeOutageDays are not billed.
	freeOutageDays = 4
)

// derive computes the overlap and penalty fields for one site. 2G and 4G
// downtime are assumed to coincide up to the smaller total; no interval
// arithmetic is done. Rounding is applied per output field only.
func derive(site string, downtime2G, downtime4G, penaltyRate float64) domain.SiteOutage {
	// Query.PenaltyRate reaches AggregateSource unparsed.
	if penaltyRate < 0 || math.IsNaN(penaltyRate) || math.IsInf(penaltyRate, 0) {
		penaltyRate = 0
	}

	common := math.Min(downtime2G, downtime4G)
	only2G := downtime2G - common
	only4G := downtime4G - common
	totalMin := only2G + only4G
	totalDay := totalMin / minutesPerDay
	category := math.Max(0, totalDay-freeOutageDays)

	return domain.SiteOutage{
		Site:           site,
		Downtime2G:     round2(downtime2G),
		Downtime4G:     round2(downtime4G),
		CommonOutage:   round2(common),
		Only2G:         round2(only2G),
		Only4G:         round2(only4G),
		TotalOutageMin: round2(totalMin),
		TotalOutageDay: round2(totalDay),
		Category:       round2(category),
		Penalty:        round2(category * penaltyRate),
	}
}

// round2 rounds to two decimals, halves away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
