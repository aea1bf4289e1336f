package compose

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"

	"github.com/gridbooth/gridbooth/pkg/errors"
)

// JPEGQuality is the fixed encoder quality for composite output.
// Kiosk prints always encode at 95; quality is not a request parameter.
const JPEGQuality = 95

// EncodeJPEG serializes an image as JPEG at the kiosk print quality.
// Identical pixels encode to identical bytes for a given encoder build.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncodeFailed, err, "encode jpeg")
	}
	return buf.Bytes(), nil
}

// EncodePNG serializes an image losslessly. Used for debugging sinks and
// overlay intermediates; the composite contract output is JPEG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncodeFailed, err, "encode png")
	}
	return buf.Bytes(), nil
}
