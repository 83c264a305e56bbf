package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"sales-dashboard/internal/analytics"
	"sales-dashboard/internal/ingest"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/store"
)

var ErrDatasetNotFound = store.ErrNotFound

// Dashboard ingests sales files into the dataset store and serves their
// aggregated views.
type Dashboard struct {
	store     *store.Store
	parser    *ingest.Parser
	snapshots *store.Snapshots
	metrics   *observability.Metrics
	logger    *slog.Logger
	startedAt time.Time
}

func NewDashboard(st *store.Store, parser *ingest.Parser, snapshots *store.Snapshots, metrics *observability.Metrics, logger *slog.Logger) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NewMetrics()
	}
	return &Dashboard{
		store:     st,
		parser:    parser,
		snapshots: snapshots,
		metrics:   metrics,
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Upload parses an uploaded file and stores it as a new dataset. Files that
// parse to no rows are still stored; their dashboards report the empty
// status.
func (s *Dashboard) Upload(ctx context.Context, filename string, r io.Reader) (*store.Dataset, error) {
	ctx, span := observability.StartSpan(ctx, "dashboard.upload")
	logger := observability.LoggerFrom(ctx, s.logger)
	defer span.Finish(logger)
	span.SetTag("filename", filename)

	rows, err := s.parser.Parse(ctx, filename, r)
	if err != nil {
		span.SetError(err)
		s.metrics.ObserveUpload("rejected", 0)
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	ds := s.store.Put(filepath.Base(filename), rows)
	s.metrics.ObserveUpload("accepted", len(rows))

	logger.Info("dataset uploaded",
		"dataset_id", ds.ID,
		"filename", ds.Name,
		"records", ds.Records,
	)
	return ds, nil
}

// ParseRows parses a file without storing it.
func (s *Dashboard) ParseRows(ctx context.Context, filename string, r io.Reader) ([]*models.SalesRecord, error) {
	rows, err := s.parser.Parse(ctx, filename, r)
	if err != nil {
		s.metrics.ObserveUpload("rejected", 0)
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	s.metrics.ObserveUpload("parsed", len(rows))
	return rows, nil
}

// LoadSeed ingests a file from disk, reusing the on-disk snapshot when it is
// newer than the file.
func (s *Dashboard) LoadSeed(ctx context.Context, path string) (*store.Dataset, error) {
	start := time.Now()

	if s.snapshots != nil {
		if rows, err := s.snapshots.Load(path); err == nil {
			ds := s.store.Put(filepath.Base(path), rows)
			s.logger.Info("seed dataset loaded from snapshot",
				"dataset_id", ds.ID,
				"records", ds.Records,
			)
			return ds, nil
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer file.Close()

	ds, err := s.Upload(ctx, path, file)
	if err != nil {
		return nil, err
	}

	if s.snapshots != nil {
		if err := s.snapshots.Save(path, ds.Rows()); err != nil {
			s.logger.Warn("failed to save seed snapshot", "error", err)
		}
	}

	duration := time.Since(start)
	s.logger.Info("seed dataset loaded",
		"dataset_id", ds.ID,
		"records", ds.Records,
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(ds.Records)/max(duration.Seconds(), 1e-9)),
	)
	return ds, nil
}

// Dashboard returns the aggregated view of a stored dataset. Datasets whose
// rows yield no usable data return the dashboard together with its
// ErrNoData or ErrInvalidFormat.
func (s *Dashboard) Dashboard(ctx context.Context, id string, g models.Granularity) (*models.Dashboard, error) {
	ds, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	dashboard := ds.Dashboard(g, func(rows []*models.SalesRecord, g models.Granularity) *models.Dashboard {
		return s.Aggregate(ctx, rows, g)
	})
	return dashboard, dashboard.Err()
}

// Aggregate runs the pipeline over rows and records timing and outcome.
func (s *Dashboard) Aggregate(ctx context.Context, rows []*models.SalesRecord, g models.Granularity) *models.Dashboard {
	return s.observe(ctx, g, func() *models.Dashboard {
		return analytics.Aggregate(rows, g)
	})
}

// AggregateJSON runs the pipeline over an untrusted JSON document.
func (s *Dashboard) AggregateJSON(ctx context.Context, raw []byte, g models.Granularity) *models.Dashboard {
	return s.observe(ctx, g, func() *models.Dashboard {
		return analytics.AggregateJSON(raw, g)
	})
}

func (s *Dashboard) observe(ctx context.Context, g models.Granularity, run func() *models.Dashboard) *models.Dashboard {
	ctx, span := observability.StartSpan(ctx, "dashboard.aggregate")
	logger := observability.LoggerFrom(ctx, s.logger)

	start := time.Now()
	dashboard := run()
	elapsed := time.Since(start)

	span.SetTag("granularity", string(dashboard.Granularity))
	span.SetTag("status", string(dashboard.Status))
	if err := dashboard.Err(); err != nil {
		span.SetError(err)
	}
	span.Finish(logger)

	s.metrics.ObserveAggregation(string(dashboard.Granularity), string(dashboard.Status), elapsed)
	logger.Debug("dataset aggregated",
		"requested_granularity", g,
		"status", dashboard.Status,
		"records", dashboard.RecordCount,
		"duration", elapsed,
	)
	return dashboard
}

// Rows returns the parsed rows of a stored dataset.
func (s *Dashboard) Rows(id string) ([]*models.SalesRecord, error) {
	ds, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	return ds.Rows(), nil
}

func (s *Dashboard) Dataset(id string) (*store.Dataset, error) {
	return s.store.Get(id)
}

func (s *Dashboard) Datasets() []*store.Dataset {
	return s.store.List()
}

func (s *Dashboard) Delete(id string) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	s.logger.Info("dataset deleted", "dataset_id", id)
	return nil
}

// Stats reports store occupancy for the admin endpoint.
func (s *Dashboard) Stats() map[string]any {
	datasets := s.store.List()

	records := 0
	cached := 0
	for _, ds := range datasets {
		records += ds.Records
		cached += ds.Cached()
	}

	return map[string]any{
		"datasets":          len(datasets),
		"record_count":      records,
		"cached_dashboards": cached,
		"uptime":            time.Since(s.startedAt).Round(time.Second).String(),
	}
}

// IsNotFound reports whether err means the dataset does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDatasetNotFound)
}
