package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"cityscope/internal/dataset"
	apierrors "cityscope/internal/errors"
	"cityscope/internal/services"
	"cityscope/pkg/contracts/domain"
)

// DatasetHandler serves the data explorer endpoints
type DatasetHandler struct {
	service      *services.DatasetService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(service *services.DatasetService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "dataset")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dataset explorer routes
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/", h.ListDatasets)
	r.Route("/{id}", func(r chi.Router) {
		r.Use(h.DatasetCtx)
		r.Get("/", h.GetRows)
		r.Get("/columns", h.GetColumns)
		r.Get("/download", h.Download)
	})
	return r
}

// DatasetCtx validates the dataset id before any sub-route runs
func (h *DatasetHandler) DatasetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, ok := dataset.Lookup(id); !ok {
			h.errorHandler.HandleError(w, r, apierrors.NotFoundError("dataset "+id))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListDatasets handles GET /api/datasets
func (h *DatasetHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"datasets": h.service.List(r.Context()),
	})
}

// GetRows handles GET /api/datasets/{id} with limit, offset, sort and
// order query parameters.
func (h *DatasetHandler) GetRows(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	query, err := parseTableQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	page, err := h.service.Rows(r.Context(), id, query)
	if err != nil {
		h.handleDatasetError(w, r, id, err)
		return
	}
	render.JSON(w, r, page)
}

// GetColumns handles GET /api/datasets/{id}/columns
func (h *DatasetHandler) GetColumns(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	profiles, err := h.service.Columns(r.Context(), id)
	if err != nil {
		h.handleDatasetError(w, r, id, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"dataset": id,
		"columns": profiles,
	})
}

// Download handles GET /api/datasets/{id}/download?format=csv|xlsx
func (h *DatasetHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format := r.URL.Query().Get("format")

	switch format {
	case "", services.FormatCSV:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	case services.FormatXLSX:
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	default:
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", "format must be csv or xlsx"))
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+"."+orDefault(format, services.FormatCSV)))

	if _, err := h.service.Export(r.Context(), id, format, w); err != nil {
		// headers may already be sent, reset them if the dataset failed to load
		w.Header().Del("Content-Disposition")
		h.handleDatasetError(w, r, id, err)
		return
	}
}

func (h *DatasetHandler) handleDatasetError(w http.ResponseWriter, r *http.Request, id string, err error) {
	var loadErr *dataset.LoadError
	switch {
	case errors.As(err, &loadErr):
		h.errorHandler.HandleError(w, r, apierrors.DatasetUnavailableError(id, err))
	case errors.Is(err, services.ErrBadQuery):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("query", err.Error()))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}

func parseTableQuery(r *http.Request) (domain.TableQuery, error) {
	var query domain.TableQuery
	q := r.URL.Query()

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return query, apierrors.ErrValidation("limit", "limit must be an integer")
		}
		query.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return query, apierrors.ErrValidation("offset", "offset must be an integer")
		}
		query.Offset = offset
	}
	query.Sort = q.Get("sort")
	query.Order = q.Get("order")
	return query, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
