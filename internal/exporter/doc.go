// Package exporter encodes site outage records as JSON, CSV or XLSX.
//
// All tabular encodings share the Headers column order. The "no matching
// data" sentinel is written as a single error column holding the message.
package exporter
