package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
)

// ErrDecode reports that the input bytes could not be parsed as a raster
// image. It is the fatal input-decode failure of the pipeline: no partial
// result exists when it is returned.
var ErrDecode = errors.New("image could not be decoded")

// Decode parses raw image bytes into an image.Image.
//
// Supported formats are PNG, JPEG, and GIF. The bytes typically arrive from
// an upload or a URL fetch; Decode is the only stage that touches the raw
// encoding, everything downstream works on pixels.
//
// Returns an error wrapping ErrDecode if the bytes are not a decodable image
// or decode to zero dimensions.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("%w: image has zero dimensions", ErrDecode)
	}

	return img, nil
}
