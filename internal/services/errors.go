package services

import "errors"

// Service-level sentinel errors, mapped to API errors at the transport
// layer.
var (
	ErrUnknownSection = errors.New("unknown dashboard section")
	ErrUnknownDataset = errors.New("unknown dataset")
	ErrBadQuery       = errors.New("invalid query parameters")
)
