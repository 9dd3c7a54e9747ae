package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskProductThumbnails renders thumbnails for the images of a new product.
	TaskProductThumbnails = "product:thumbnails"
	// TaskUploadsSweep removes image files no product references.
	TaskUploadsSweep = "uploads:sweep"
)

// ProductThumbnailsPayload lists the stored image URLs of one product.
type ProductThumbnailsPayload struct {
	ProductID int64    `json:"product_id"`
	ImageURLs []string `json:"image_urls"`
}

// UploadsSweepPayload carries no options; the grace period is worker
// configuration.
type UploadsSweepPayload struct{}

// NewProductThumbnailsTask constructs an Asynq task.
func NewProductThumbnailsTask(productID int64, imageURLs []string) (*asynq.Task, error) {
	data, err := json.Marshal(ProductThumbnailsPayload{ProductID: productID, ImageURLs: imageURLs})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProductThumbnails, data), nil
}

// NewUploadsSweepTask constructs the periodic sweep task.
func NewUploadsSweepTask() (*asynq.Task, error) {
	data, err := json.Marshal(UploadsSweepPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskUploadsSweep, data), nil
}
