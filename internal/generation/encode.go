package generation

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"

	"photofx/internal/domain"
)

// EncodeJPEG encodes img at the given quality (1-100). Any failure is an
// *domain.EncodingError.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if img == nil {
		return nil, &domain.EncodingError{Err: errors.New("no image")}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &domain.EncodingError{Err: errors.New("empty image bounds")}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, &domain.EncodingError{Err: err}
	}
	return buf.Bytes(), nil
}
