package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "cityscope/internal/errors"
	"cityscope/internal/services"
	"cityscope/pkg/contracts/domain"
)

// DashboardHandler serves the render-ready dashboard section views
type DashboardHandler struct {
	service      *services.DashboardService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service *services.DashboardService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "dashboard")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/overview", h.GetOverview)
	r.Get("/{section}", h.GetSection)
	return r
}

// GetOverview handles GET /api/dashboard/overview
func (h *DashboardHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Overview(r.Context()))
}

// GetSection handles GET /api/dashboard/{section}. The crime section
// accepts optional year and crime_type query filters.
func (h *DashboardHandler) GetSection(w http.ResponseWriter, r *http.Request) {
	section := chi.URLParam(r, "section")
	if !domain.ValidSection(section) {
		h.errorHandler.HandleError(w, r, apierrors.ErrSectionNotFound)
		return
	}

	filter, err := parseCrimeFilter(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	view, err := h.service.Section(r.Context(), domain.Section(section), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "section build failed",
			slog.String("section", section),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

func parseCrimeFilter(r *http.Request) (services.CrimeFilter, error) {
	var filter services.CrimeFilter
	if raw := r.URL.Query().Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return filter, apierrors.ErrValidation("year", "year must be an integer")
		}
		filter.Year = year
	}
	filter.CrimeType = r.URL.Query().Get("crime_type")
	return filter, nil
}
