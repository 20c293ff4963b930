package storage

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	apperrors "go-fog-detector/internal/errors"
	"go-fog-detector/pkg/validation"
)

// ImageDecoder turns raw uploaded bytes into an image.
type ImageDecoder interface {
	Decode(data []byte) (image.Image, error)
}

// StdImageDecoder decodes JPEG, PNG and GIF uploads with the standard
// library codecs.
type StdImageDecoder struct{}

// NewStdImageDecoder creates an upload decoder.
func NewStdImageDecoder() ImageDecoder {
	return &StdImageDecoder{}
}

// Decode parses the image bytes. Malformed or empty input yields a decode
// error that maps to a client-side failure.
func (d *StdImageDecoder) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, apperrors.NewDecodeError("empty image payload", nil)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewDecodeError("could not decode image file", err)
	}

	bounds := img.Bounds()
	if err := validation.ValidateImageBounds(bounds.Dx(), bounds.Dy()); err != nil {
		return nil, apperrors.NewDecodeError("unsupported image geometry ("+format+")", err)
	}
	return img, nil
}
