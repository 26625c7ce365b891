// Package services holds the business logic behind the HTTP handlers:
// dashboard section assembly, dataset explorer queries, and health
// reporting. Services depend on the dataset loader and analytics
// primitives and return contract types from pkg/contracts/domain.
package services
