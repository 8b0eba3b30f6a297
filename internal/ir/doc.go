// Package ir provides the scalar value and field-kind vocabulary shared by
// every layer of esquery.
//
// This package contains leaf types only. All other internal packages import
// ir; ir imports nothing internal.
//
// Key design constraints:
//   - Value is a sealed union: String, Long, Double, Bool, Date
//   - Values marshal to the JSON type the search backend expects for the
//     field (dates as RFC 3339 strings)
//   - Strings built through NewString are NFC-normalized
//   - FieldKind decides whether a field needs its ".keyword" companion for
//     exact comparison, sorting and bucketing
package ir
