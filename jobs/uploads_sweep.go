package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/storefront-labs/storefront/internal/jobs"
	"github.com/storefront-labs/storefront/internal/platform/uploads"
)

// DefaultSweepGrace keeps freshly written files out of the sweep while their
// create request may still be running.
const DefaultSweepGrace = time.Hour

// ImageURLLister returns every image URL a product row references.
type ImageURLLister interface {
	ReferencedImageURLs(ctx context.Context) ([]string, error)
}

// SweepStore enumerates and removes stored images. *uploads.Store satisfies it.
type SweepStore interface {
	List() ([]uploads.Entry, error)
	ListThumbnails() ([]uploads.Entry, error)
	Resolve(url string) (uploads.File, bool)
	Remove(f uploads.File) error
}

// UploadsSweepJob deletes image files that no product references, such as
// files left behind when the process died between writing and compensating.
type UploadsSweepJob struct {
	Lister  ImageURLLister
	Store   SweepStore
	Grace   time.Duration
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewUploadsSweepJob wires dependencies for the sweep handler.
func NewUploadsSweepJob(lister ImageURLLister, store SweepStore, grace time.Duration, logger *slog.Logger, metrics *jobmetrics.Metrics) *UploadsSweepJob {
	return &UploadsSweepJob{
		Lister:  lister,
		Store:   store,
		Grace:   grace,
		Logger:  logger,
		Metrics: metrics,
		clock:   time.Now,
	}
}

// Handle processes sweep tasks.
func (j *UploadsSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Lister == nil || j.Store == nil {
		return errors.New("uploads sweep: handler not configured")
	}
	var payload UploadsSweepPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("uploads sweep: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	tracker := j.metrics().Track(TaskUploadsSweep)
	removed, err := j.Sweep(ctx)
	j.metrics().AddFiles(TaskUploadsSweep, "removed", removed)
	return tracker.End(err)
}

// Sweep removes unreferenced files older than the grace period, then
// thumbnails whose source image is gone, and returns how many were deleted.
func (j *UploadsSweepJob) Sweep(ctx context.Context) (int, error) {
	logger := j.logger()

	urls, err := j.Lister.ReferencedImageURLs(ctx)
	if err != nil {
		return 0, fmt.Errorf("uploads sweep: list references: %w", err)
	}
	referenced := make(map[string]struct{}, len(urls))
	for _, url := range urls {
		if file, ok := j.Store.Resolve(url); ok {
			referenced[file.Name] = struct{}{}
		}
	}

	entries, err := j.Store.List()
	if err != nil {
		return 0, err
	}

	grace := j.Grace
	if grace <= 0 {
		grace = DefaultSweepGrace
	}
	cutoff := j.now().Add(-grace)

	thumbs, err := j.Store.ListThumbnails()
	if err != nil {
		return 0, err
	}

	removed := 0
	var errs []error
	sources := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		sources[entry.Name] = struct{}{}
		if _, ok := referenced[entry.Name]; ok {
			continue
		}
		if entry.ModTime.After(cutoff) {
			continue
		}
		if err := j.Store.Remove(entry.File); err != nil {
			logger.Error("remove orphaned image", slog.String("file", entry.Name), slog.Any("error", err))
			errs = append(errs, err)
			continue
		}
		removed++
	}

	// A thumbnail job that finishes after its product was deleted leaves a
	// thumbnail without a source image.
	for _, thumb := range thumbs {
		if _, ok := sources[thumb.Name]; ok {
			continue
		}
		if _, ok := referenced[thumb.Name]; ok {
			continue
		}
		if thumb.ModTime.After(cutoff) {
			continue
		}
		if err := j.Store.Remove(thumb.File); err != nil {
			logger.Error("remove orphaned thumbnail", slog.String("file", thumb.Name), slog.Any("error", err))
			errs = append(errs, err)
			continue
		}
		removed++
	}

	logger.Info("uploads sweep completed",
		slog.Int("scanned", len(entries)+len(thumbs)),
		slog.Int("referenced", len(referenced)),
		slog.Int("removed", removed))
	return removed, errors.Join(errs...)
}

func (j *UploadsSweepJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskUploadsSweep))
	}
	return slog.Default().With(slog.String("job", TaskUploadsSweep))
}

func (j *UploadsSweepJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *UploadsSweepJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now()
}
