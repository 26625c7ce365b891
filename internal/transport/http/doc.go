// Package http contains the chi HTTP handlers for the dashboard API:
// section views, the dataset explorer, downloads, and health probes.
// Errors are rendered as RFC 7807 problem details via internal/errors.
package http
