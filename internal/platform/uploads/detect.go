package uploads

import (
	"errors"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// ErrUnsupportedType is returned for content that is not an accepted image.
var ErrUnsupportedType = errors.New("unsupported image type")

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DetectImage sniffs r and returns the canonical extension for an accepted
// image type.
func DetectImage(r io.Reader) (string, error) {
	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return "", err
	}
	for m := mtype; m != nil; m = m.Parent() {
		if ext, ok := imageExtensions[m.String()]; ok {
			return ext, nil
		}
	}
	return "", ErrUnsupportedType
}
