package services

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"cityscope/internal/dataset"
)

// HealthService reports process and dataset health
type HealthService struct {
	version   string
	buildTime string
	dataDir   string
	loader    *dataset.Loader
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus is the health endpoint payload
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Datasets  map[string]string      `json:"datasets,omitempty"`
}

// VersionInfo is the version endpoint payload
type VersionInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// NewHealthService creates a health service
func NewHealthService(version, buildTime, dataDir string, loader *dataset.Loader, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		buildTime: buildTime,
		dataDir:   dataDir,
		loader:    loader,
		startTime: time.Now(),
		logger:    logger,
	}
}

// Health reports overall status: healthy when every dataset loads,
// degraded when some are missing, unhealthy when none load.
func (s *HealthService) Health(ctx context.Context) *HealthStatus {
	status := s.loader.Status(ctx)
	datasets := make(map[string]string, len(status))
	var available int
	for id, err := range status {
		if err == nil {
			datasets[id] = "ok"
			available++
		} else {
			datasets[id] = err.Error()
		}
	}

	overall := "healthy"
	switch {
	case available == 0:
		overall = "unhealthy"
	case available < len(status):
		overall = "degraded"
	}

	return &HealthStatus{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Version:   s.version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Runtime: map[string]interface{}{
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
		Datasets: datasets,
	}
}

// Ready reports whether the service can serve traffic. The data
// directory must exist; individual dataset files may still be missing.
func (s *HealthService) Ready(ctx context.Context) error {
	if _, err := os.Stat(s.dataDir); err != nil {
		s.logger.WarnContext(ctx, "readiness check failed",
			slog.String("data_dir", s.dataDir),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}

// Version returns build and runtime version details
func (s *HealthService) Version() *VersionInfo {
	return &VersionInfo{
		Version:   s.version,
		BuildTime: s.buildTime,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}
