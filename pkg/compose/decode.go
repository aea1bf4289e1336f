package compose

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sync"

	// Registered decoders. The kiosk camera produces JPEG; PNG, GIF and BMP
	// cover uploads from guests' phones.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"

	"github.com/gridbooth/gridbooth/pkg/errors"
)

// Photo is one source image for a composite. Exactly one field is set:
// Data holds an encoded image, Image an already decoded one.
type Photo struct {
	Data  []byte      `json:"-"`
	Image image.Image `json:"-"`
}

// DecodeError reports which photo in a request failed to decode.
// Index recovers the position from a wrapped error chain.
type DecodeError struct {
	Index int
	Err   error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("photo %d: %v", e.Index, e.Err)
}

// Unwrap returns the underlying decoder error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Index returns the position of the photo whose decode failed, or -1 when
// err did not originate from a photo decode.
func Index(err error) int {
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Index
	}
	return -1
}

// DecodeAll decodes every photo concurrently and returns the images in
// request order. All decodes complete before DecodeAll returns, so result
// slot i always holds photo i regardless of which goroutine finished first.
//
// The first failing photo (lowest index) aborts the whole request with a
// DECODE_FAILED error carrying a *DecodeError; there is no partial result.
// Cancelling ctx abandons the request after the in-flight decodes drain.
func DecodeAll(ctx context.Context, photos []Photo) ([]image.Image, error) {
	imgs := make([]image.Image, len(photos))
	errs := make([]error, len(photos))

	var wg sync.WaitGroup
	for i, p := range photos {
		if p.Image != nil {
			imgs[i] = p.Image
			continue
		}
		if len(p.Data) == 0 {
			errs[i] = fmt.Errorf("no image data")
			continue
		}

		wg.Add(1)
		go func(i int, data []byte) {
			defer wg.Done()
			img, _, err := image.Decode(bytes.NewReader(data))
			if err != nil {
				errs[i] = err
				return
			}
			imgs[i] = img
		}(i, p.Data)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, err := range errs {
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeDecodeFailed, &DecodeError{Index: i, Err: err}, "decode photo %d", i)
		}
	}
	return imgs, nil
}

// Aspects returns the width/height ratio of each image, in order.
// The aspect-preserve planner consumes these to size the uniform cell.
func Aspects(imgs []image.Image) []float64 {
	out := make([]float64, len(imgs))
	for i, img := range imgs {
		b := img.Bounds()
		out[i] = float64(b.Dx()) / float64(b.Dy())
	}
	return out
}
