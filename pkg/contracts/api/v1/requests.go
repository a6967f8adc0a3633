// Package api contains the HTTP contract of the site outage service.
// Version v1 represents the current stable API version.
package api

// AggregateForm holds the text fields of an aggregation upload. The workbook
// itself travels in the multipart part named "file".
type AggregateForm struct {
	// SiteList is a JSON array of site ids, e.g. ["ABC01","ABC02"].
	SiteList    string `form:"siteList" validate:"required"`
	StartDate   string `form:"startDate" validate:"required,outagedate"`
	EndDate     string `form:"endDate" validate:"required,outagedate"`
	PenaltyRate string `form:"penaltyRate"`
	Format      string `form:"format" validate:"omitempty,oneof=json csv xlsx"`
}

// Form field and part names of the upload endpoint.
const (
	FieldFile        = "file"
	FieldSiteList    = "siteList"
	FieldStartDate   = "startDate"
	FieldEndDate     = "endDate"
	FieldPenaltyRate = "penaltyRate"
	FieldFormat      = "format"
)

// HeaderDocumentDigest carries the hex BLAKE2b-256 digest of the uploaded
// workbook on aggregation responses.
const HeaderDocumentDigest = "X-Document-Digest"
