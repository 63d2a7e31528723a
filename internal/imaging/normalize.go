package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
)

// Mode selects the normalization chain for a localization strategy.
type Mode int

const (
	// ModeShape prepares the image for circular bubble detection: flat
	// Gaussian smoothing followed by a global Otsu threshold. Assumes
	// reasonably uniform illumination.
	ModeShape Mode = iota

	// ModeGrid prepares the image for grid-block contour detection: an
	// edge-preserving bilateral filter followed by a locally adaptive
	// threshold, so printed box borders of varying contrast survive under
	// uneven lighting.
	ModeGrid
)

// NormalizeOptions carries the normalization tunables. Zero values select
// the defaults noted per field.
type NormalizeOptions struct {
	Mode Mode

	// BlurRadius is the Gaussian smoothing radius for ModeShape. Default 2.
	BlurRadius float64 `yaml:"blurRadius"`

	// BilateralRadius is the window radius of the edge-preserving filter
	// for ModeGrid. Default 4 (a 9x9 window).
	BilateralRadius int `yaml:"bilateralRadius"`

	// BilateralSigmaSpace and BilateralSigmaColor control how quickly the
	// bilateral weights fall off with distance and intensity difference.
	// Defaults 75 and 75.
	BilateralSigmaSpace float64 `yaml:"bilateralSigmaSpace"`
	BilateralSigmaColor float64 `yaml:"bilateralSigmaColor"`

	// AdaptiveBlockSize is the neighborhood size of the adaptive threshold
	// for ModeGrid. Must be odd. Default 11.
	AdaptiveBlockSize int `yaml:"adaptiveBlockSize"`

	// AdaptiveBias is subtracted from the neighborhood mean before
	// comparison. Default 2.
	AdaptiveBias float64 `yaml:"adaptiveBias"`
}

func (o NormalizeOptions) withDefaults() NormalizeOptions {
	if o.BlurRadius == 0 {
		o.BlurRadius = 2
	}
	if o.BilateralRadius == 0 {
		o.BilateralRadius = 4
	}
	if o.BilateralSigmaSpace == 0 {
		o.BilateralSigmaSpace = 75
	}
	if o.BilateralSigmaColor == 0 {
		o.BilateralSigmaColor = 75
	}
	if o.AdaptiveBlockSize == 0 {
		o.AdaptiveBlockSize = 11
	}
	if o.AdaptiveBlockSize%2 == 0 {
		o.AdaptiveBlockSize++
	}
	if o.AdaptiveBias == 0 {
		o.AdaptiveBias = 2
	}
	return o
}

// Normalize converts a raw color image into the binary measurement surface
// used by all downstream stages.
//
// The output polarity convention is fixed: marked (dark on paper) content is
// foreground with value 255, background is 0. Detection and scoring rely on
// this convention.
//
// Normalize is pure: it never mutates its input and identical pixels with
// identical options yield identical output.
func Normalize(img image.Image, opts NormalizeOptions) *image.Gray {
	opts = opts.withDefaults()
	gray := ToGray(img)

	switch opts.Mode {
	case ModeGrid:
		smoothed := bilateralFilter(gray, opts.BilateralRadius,
			opts.BilateralSigmaSpace, opts.BilateralSigmaColor)
		return adaptiveBinarize(smoothed, opts.AdaptiveBlockSize, opts.AdaptiveBias)
	default:
		smoothed := gray
		if opts.BlurRadius > 0 {
			smoothed = flattenToGray(blur.Gaussian(gray, opts.BlurRadius))
		}
		return BinarizeOtsu(smoothed)
	}
}

// ToGray converts any image to single-channel intensity.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	return flattenToGray(imaging.Grayscale(img))
}

// flattenToGray copies an already gray-valued image into *image.Gray by
// taking the red channel. Valid only when R == G == B for every pixel.
func flattenToGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			out.SetGray(x, y, grayColor(uint8(r>>8)))
		}
	}
	return out
}

// BinarizeOtsu binarizes a grayscale image with a global histogram threshold
// and inverted polarity: pixels at or below the Otsu threshold (ink) become
// foreground 255, lighter pixels become 0.
func BinarizeOtsu(gray *image.Gray) *image.Gray {
	threshold := otsuThreshold(histogram(gray))

	bounds := gray.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if gray.GrayAt(x, y).Y <= threshold {
				out.SetGray(x, y, grayColor(255))
			}
		}
	}
	return out
}

// histogram counts intensity occurrences over the whole image.
func histogram(gray *image.Gray) [256]uint {
	var hist [256]uint
	bounds := gray.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[gray.GrayAt(x, y).Y]++
		}
	}
	return hist
}

// otsuThreshold picks the intensity level that maximizes between-class
// variance of the histogram.
// https://en.wikipedia.org/wiki/Otsu%27s_method
func otsuThreshold(hist [256]uint) uint8 {
	var total, sum1 uint
	for i, hv := range hist {
		total += hv
		sum1 += uint(i) * hv
	}

	var sumB, wB uint
	best := 0
	max := 0.0
	for i := 0; i < 256; i++ {
		wB += hist[i]
		sumB += uint(i) * hist[i]

		wF := total - wB
		if wB == 0 || wF == 0 {
			continue
		}
		mB := float64(sumB) / float64(wB)
		mF := float64(sum1-sumB) / float64(wF)
		val := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)

		// Strict comparison: across the empty-bin plateau between the two
		// classes the variance is flat, and the threshold must stay at the
		// top of the dark class, not drift up to the bright one.
		if val > max {
			best = i
			max = val
		}
	}
	return uint8(best)
}

// adaptiveBinarize thresholds each pixel against the Gaussian-weighted mean
// of its blockSize neighborhood minus bias, with inverted polarity (darker
// than local surroundings becomes foreground 255). Robust to illumination
// that varies across the sheet.
func adaptiveBinarize(gray *image.Gray, blockSize int, bias float64) *image.Gray {
	bounds := gray.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	radius := blockSize / 2

	// Sigma follows the usual ksize-derived rule so the kernel fills the
	// block without clipping its tails.
	sigma := 0.3*(float64(blockSize-1)*0.5-1) + 0.8
	kernel := gaussianKernel(radius, sigma)

	out := image.NewGray(bounds)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sum, weight float64
			for ky := -radius; ky <= radius; ky++ {
				for kx := -radius; kx <= radius; kx++ {
					px := clamp(x+kx, 0, width-1)
					py := clamp(y+ky, 0, height-1)
					w := kernel[ky+radius][kx+radius]
					sum += w * float64(gray.GrayAt(px+bounds.Min.X, py+bounds.Min.Y).Y)
					weight += w
				}
			}

			local := sum/weight - bias
			if float64(gray.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y) <= local {
				out.SetGray(x+bounds.Min.X, y+bounds.Min.Y, grayColor(255))
			}
		}
	}
	return out
}

// bilateralFilter smooths sensor noise while preserving edges: each pixel is
// replaced by a neighborhood average weighted by both spatial distance and
// intensity difference, so pixels across a printed border contribute little.
func bilateralFilter(gray *image.Gray, radius int, sigmaSpace, sigmaColor float64) *image.Gray {
	bounds := gray.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	spatial := gaussianKernel(radius, sigmaSpace)

	// Range weights depend only on the intensity delta; precompute all 256.
	var rangeWeight [256]float64
	for d := 0; d < 256; d++ {
		rangeWeight[d] = math.Exp(-float64(d*d) / (2 * sigmaColor * sigmaColor))
	}

	out := image.NewGray(bounds)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			center := gray.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y

			var sum, weight float64
			for ky := -radius; ky <= radius; ky++ {
				for kx := -radius; kx <= radius; kx++ {
					px := clamp(x+kx, 0, width-1)
					py := clamp(y+ky, 0, height-1)
					v := gray.GrayAt(px+bounds.Min.X, py+bounds.Min.Y).Y

					d := int(center) - int(v)
					if d < 0 {
						d = -d
					}
					w := spatial[ky+radius][kx+radius] * rangeWeight[d]
					sum += w * float64(v)
					weight += w
				}
			}

			out.SetGray(x+bounds.Min.X, y+bounds.Min.Y,
				grayColor(uint8(math.Round(sum/weight))))
		}
	}
	return out
}

// gaussianKernel builds a (2*radius+1)² unnormalized Gaussian kernel.
func gaussianKernel(radius int, sigma float64) [][]float64 {
	size := 2*radius + 1
	kernel := make([][]float64, size)
	for ky := 0; ky < size; ky++ {
		kernel[ky] = make([]float64, size)
		for kx := 0; kx < size; kx++ {
			dy := float64(ky - radius)
			dx := float64(kx - radius)
			kernel[ky][kx] = math.Exp(-(dx*dx + dy*dy) / (2 * sigma * sigma))
		}
	}
	return kernel
}

func grayColor(v uint8) color.Gray {
	return color.Gray{Y: v}
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
