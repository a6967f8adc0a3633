// Package errors renders failures as RFC 7807 problem documents.
//
// ErrorHandler.ErrorToProblem maps domain and service errors onto HTTP
// statuses: invalid input and bad dates become 400, unreadable workbooks
// 422, oversized uploads 413, a saturated aggregator 503 and expired
// request contexts 504. Anything else is reported as a 500 without
// leaking the underlying error text.
package errors
