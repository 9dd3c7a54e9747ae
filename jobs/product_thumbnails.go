package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/storefront-labs/storefront/internal/jobs"
	"github.com/storefront-labs/storefront/internal/platform/uploads"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// DefaultThumbnailSize bounds the width and height of generated thumbnails.
const DefaultThumbnailSize = 320

// ThumbnailStore locates stored images and their thumbnails. *uploads.Store
// satisfies it.
type ThumbnailStore interface {
	Resolve(url string) (uploads.File, bool)
	ThumbnailPath(f uploads.File) string
}

// ProductThumbnailsJob renders a thumbnail next to every stored product image.
type ProductThumbnailsJob struct {
	Store   ThumbnailStore
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Size    int
}

// NewProductThumbnailsJob wires dependencies for the thumbnail handler.
func NewProductThumbnailsJob(store ThumbnailStore, logger *slog.Logger, metrics *jobmetrics.Metrics) *ProductThumbnailsJob {
	return &ProductThumbnailsJob{Store: store, Logger: logger, Metrics: metrics, Size: DefaultThumbnailSize}
}

// Handle processes product thumbnail tasks. Images whose source file is gone
// or whose format cannot be encoded are skipped.
func (j *ProductThumbnailsJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Store == nil {
		return errors.New("product thumbnails: handler not configured")
	}
	var payload ProductThumbnailsPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("product thumbnails: decode payload: %v: %w", err, asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskProductThumbnails)
	var resultErr error
	defer func() {
		_ = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int64("product_id", payload.ProductID))
	written := 0
	for _, url := range payload.ImageURLs {
		if err := ctx.Err(); err != nil {
			resultErr = err
			return resultErr
		}
		file, ok := j.Store.Resolve(url)
		if !ok {
			logger.Warn("skip unresolvable image", slog.String("url", url))
			continue
		}
		done, err := j.render(file)
		if err != nil {
			resultErr = err
			logger.Error("render thumbnail", slog.String("file", file.Name), slog.Any("error", err))
			return resultErr
		}
		if done {
			written++
		}
	}

	j.metrics().AddFiles(TaskProductThumbnails, "thumbnail", written)
	logger.Info("thumbnails rendered", slog.Int("count", written))
	return resultErr
}

// render writes the thumbnail of file. It reports false when the image was
// skipped.
func (j *ProductThumbnailsJob) render(file uploads.File) (bool, error) {
	format, err := imaging.FormatFromFilename(file.Name)
	if err != nil {
		j.logger().Info("skip unsupported thumbnail format", slog.String("file", file.Name))
		return false, nil
	}
	src, err := imaging.Open(file.Path, imaging.AutoOrientation(true))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			j.logger().Warn("skip missing image", slog.String("file", file.Name))
			return false, nil
		}
		return false, err
	}

	size := j.Size
	if size <= 0 {
		size = DefaultThumbnailSize
	}
	thumb := imaging.Fit(src, size, size, imaging.Lanczos)

	dst := j.Store.ThumbnailPath(file)
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".thumb-*")
	if err != nil {
		return false, err
	}
	defer os.Remove(tmp.Name())
	if err := imaging.Encode(tmp, thumb, format); err != nil {
		_ = tmp.Close()
		return false, err
	}
	if err := tmp.Close(); err != nil {
		return false, err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return false, err
	}
	return true, nil
}

func (j *ProductThumbnailsJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskProductThumbnails))
	}
	return slog.Default().With(slog.String("job", TaskProductThumbnails))
}

func (j *ProductThumbnailsJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
