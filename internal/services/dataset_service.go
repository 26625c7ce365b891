package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"cityscope/internal/config"
	"cityscope/internal/dataset"
	"cityscope/internal/exporter"
	"cityscope/pkg/contracts/domain"
)

// Download formats supported by Export
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// DatasetService backs the data explorer: catalogue listing, paged row
// access, column profiles, and downloads.
type DatasetService struct {
	loader      *dataset.Loader
	logger      *slog.Logger
	validate    *validator.Validate
	maxPageSize int
}

// NewDatasetService creates a dataset explorer service
func NewDatasetService(loader *dataset.Loader, cfg config.Dashboard, logger *slog.Logger) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetService{
		loader:      loader,
		logger:      logger,
		validate:    validator.New(),
		maxPageSize: cfg.MaxPageSize,
	}
}

// List returns the catalogue of registered datasets with availability
func (s *DatasetService) List(ctx context.Context) []domain.DatasetInfo {
	infos := make([]domain.DatasetInfo, 0, len(dataset.Registry))
	for _, desc := range dataset.Registry {
		info := domain.DatasetInfo{
			ID:      desc.ID,
			Title:   desc.Title,
			File:    desc.File,
			Columns: len(desc.Fields),
		}
		tbl, err := s.loader.Get(ctx, desc.ID)
		if err != nil {
			info.Error = err.Error()
		} else {
			info.Available = true
			info.Rows = tbl.NumRows()
		}
		infos = append(infos, info)
	}
	return infos
}

// Rows returns one validated page of raw dataset rows
func (s *DatasetService) Rows(ctx context.Context, id string, query domain.TableQuery) (*domain.TablePage, error) {
	if query.Limit == 0 {
		query.Limit = 50
	}
	if query.Order == "" {
		query.Order = "asc"
	}
	if query.Limit > s.maxPageSize {
		return nil, fmt.Errorf("%w: limit exceeds maximum of %d", ErrBadQuery, s.maxPageSize)
	}
	if err := s.validate.Struct(query); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadQuery, err)
	}

	tbl, err := s.loader.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if query.Sort != "" && !tbl.HasColumn(query.Sort) {
		return nil, fmt.Errorf("%w: unknown sort column %q", ErrBadQuery, query.Sort)
	}

	return &domain.TablePage{
		Dataset: id,
		Columns: tbl.Desc().FieldNames(),
		Rows:    tbl.Page(query.Offset, query.Limit, query.Sort, query.Order),
		Total:   tbl.NumRows(),
		Offset:  query.Offset,
		Limit:   query.Limit,
	}, nil
}

// Columns profiles every column of a dataset
func (s *DatasetService) Columns(ctx context.Context, id string) ([]domain.ColumnProfile, error) {
	tbl, err := s.loader.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return tbl.Profiles(), nil
}

// Export writes a full dataset to w in the requested format and returns
// the suggested filename.
func (s *DatasetService) Export(ctx context.Context, id, format string, w io.Writer) (string, error) {
	tbl, err := s.loader.Get(ctx, id)
	if err != nil {
		return "", err
	}

	switch format {
	case FormatCSV, "":
		return id + ".csv", exporter.WriteCSV(w, tbl)
	case FormatXLSX:
		return id + ".xlsx", exporter.WriteExcel(w, tbl)
	default:
		return "", fmt.Errorf("%w: unsupported format %q", ErrBadQuery, format)
	}
}
