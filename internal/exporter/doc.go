// Package exporter serializes loaded dataset tables for download, as
// CSV with a UTF-8 BOM for Excel compatibility or as native XLSX
// workbooks.
package exporter
