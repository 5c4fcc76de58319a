// Package report exports device placements as tables.
//
// The location table lists one [Row] per placement. It is written as an
// XLSX workbook ([WriteLocationsXLSX]) or CSV ([WriteCSV]) and can be read
// back with [ReadXLSX] and [ReadCSV]. Numbers are stored with full float64
// precision, so a write followed by a read reproduces every category,
// station and coordinate exactly. Display rounding is applied through cell
// number formats only.
//
// The bill of materials is written with [WriteBOMXLSX]. [WriteGeoJSON]
// exports device points and the centerline for GIS tools, and
// [WriteSQLite] appends a run to an asset register database.
package report
