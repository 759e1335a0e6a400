package media

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestValidatePNG(t *testing.T) {
	img, err := NewValidator(1024).Validate(pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, "png", img.Extension)
	assert.Equal(t, pngHeader, img.Data)
}

func TestValidateRejectsEmpty(t *testing.T) {
	_, err := NewValidator(1024).Validate(nil)
	assert.ErrorIs(t, err, ErrMissingImage)

	_, err = NewValidator(1024).Read(nil)
	assert.ErrorIs(t, err, ErrMissingImage)
}

func TestValidateRejectsText(t *testing.T) {
	_, err := NewValidator(1024).Validate([]byte("just some plain text, not a photo"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestReadRejectsOversized(t *testing.T) {
	data := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 64)...)

	_, err := NewValidator(32).Read(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrImageTooLarge)

	img, err := NewValidator(int64(len(data))).Read(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, img.Data, len(data))
}

func TestDefaultLimit(t *testing.T) {
	assert.Equal(t, DefaultMaxImageBytes, NewValidator(0).MaxBytes())
}
