// Package media validates photos uploaded by citizens and employees.
package media

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const DefaultMaxImageBytes int64 = 4 * 1024 * 1024

var (
	ErrMissingImage     = errors.New("image is required")
	ErrImageTooLarge    = errors.New("image is too large")
	ErrUnsupportedImage = errors.New("file is not a supported image")
)

// Image is a validated photo with its sniffed MIME type.
type Image struct {
	Data      []byte
	MIMEType  string
	Extension string
}

// Validator checks photo size and content type.
type Validator struct {
	maxBytes int64
}

func NewValidator(maxBytes int64) *Validator {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &Validator{maxBytes: maxBytes}
}

func (v *Validator) MaxBytes() int64 {
	return v.maxBytes
}

// Read consumes at most one byte past the limit so oversized uploads are
// rejected without buffering them whole.
func (v *Validator) Read(r io.Reader) (Image, error) {
	if r == nil {
		return Image{}, ErrMissingImage
	}
	data, err := io.ReadAll(io.LimitReader(r, v.maxBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("read image: %w", err)
	}
	return v.Validate(data)
}

func (v *Validator) Validate(data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, ErrMissingImage
	}
	if int64(len(data)) > v.maxBytes {
		return Image{}, ErrImageTooLarge
	}
	return Detect(data)
}

// Detect sniffs the content type without size checks. It is used for
// photos that were already accepted once, such as a stored original.
func Detect(data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, ErrMissingImage
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return Image{}, ErrUnsupportedImage
	}
	ext := strings.TrimPrefix(mt.Extension(), ".")
	if ext == "" {
		ext = "img"
	}
	return Image{
		Data:      data,
		MIMEType:  baseMIME(mt.String()),
		Extension: ext,
	}, nil
}

func baseMIME(value string) string {
	if i := strings.Index(value, ";"); i >= 0 {
		return strings.TrimSpace(value[:i])
	}
	return value
}
