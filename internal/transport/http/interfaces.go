package http

import (
	"context"

	"siteoutage/internal/services"
)

// OutageServiceInterface defines the aggregation operation the upload
// handler depends on.
type OutageServiceInterface interface {
	Aggregate(ctx context.Context, req services.AggregateRequest) (*services.AggregateResult, error)
}

// FormValidator validates decoded request forms.
type FormValidator interface {
	ValidateStruct(s interface{}) error
}
