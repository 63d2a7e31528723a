package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/gradeworks/omr-engine/internal/detection"
	"github.com/gradeworks/omr-engine/internal/omr"
)

// PoolOptions bounds the classification fan-out.
type PoolOptions struct {
	// Workers is the maximum number of in-flight remote calls. Default 5.
	Workers int

	// Timeout applies to each row independently; a timed-out row degrades
	// to an error verdict without touching its siblings. Default 15s.
	Timeout time.Duration

	// MaxRowWidth caps the cropped row image width; wider crops are scaled
	// down before upload. Default 800.
	MaxRowWidth int

	// Pad expands each row crop by this many pixels on every side so bubble
	// outlines clipped by tight bounds stay visible. Default 6.
	Pad int
}

func (o PoolOptions) withDefaults() PoolOptions {
	if o.Workers <= 0 {
		o.Workers = 5
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.MaxRowWidth <= 0 {
		o.MaxRowWidth = 800
	}
	if o.Pad == 0 {
		o.Pad = 6
	}
	return o
}

// DecodeRows classifies every located row through the remote service, in
// parallel, and returns exactly questions verdicts in question order.
//
// Rows are dispatched to a bounded worker pool; each worker writes its
// verdict into the slot keyed by question number, so no ordering or locking
// depends on completion order. A failed or timed-out row yields an error
// verdict for that question only; there is no cancellation cascade beyond
// the caller's own context.
func DecodeRows(ctx context.Context, src image.Image, rows []detection.Row, questions int, client *Client, opts PoolOptions) []omr.Verdict {
	opts = opts.withDefaults()

	verdicts := make([]omr.Verdict, questions)

	var group errgroup.Group
	group.SetLimit(opts.Workers)

	for q := 1; q <= questions; q++ {
		q := q

		if q-1 >= len(rows) || len(rows[q-1].Regions) == 0 {
			verdicts[q-1] = omr.Verdict{
				QuestionNumber: q,
				Notes:          "Row not detected",
			}
			continue
		}

		encoded, err := encodeRowCrop(src, rows[q-1], opts)
		if err != nil {
			verdicts[q-1] = errorVerdict(q, err)
			continue
		}

		group.Go(func() error {
			rowCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
			defer cancel()

			result, err := client.Classify(rowCtx, &Request{
				QuestionNumber: q,
				ImageBase64:    encoded,
			})
			if err != nil {
				verdicts[q-1] = errorVerdict(q, err)
				return nil
			}

			verdicts[q-1] = omr.Verdict{
				QuestionNumber: q,
				SelectedOption: result.SelectedOption,
				Confidence:     result.Confidence,
				Notes:          "Classified remotely",
			}
			return nil
		})
	}

	// Workers never return errors; Wait only fences the fan-out.
	_ = group.Wait()

	return verdicts
}

// encodeRowCrop extracts the padded bounding box of a row from the source
// image and returns it as base64 PNG, downscaled when wider than the
// configured cap.
func encodeRowCrop(src image.Image, row detection.Row, opts PoolOptions) (string, error) {
	rect := row.Bounds().Inset(-opts.Pad).Intersect(src.Bounds())
	if rect.Empty() {
		return "", fmt.Errorf("row bounds outside image")
	}

	crop := imaging.Crop(src, rect)
	if crop.Bounds().Dx() > opts.MaxRowWidth {
		crop = imaging.Resize(crop, opts.MaxRowWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, crop); err != nil {
		return "", fmt.Errorf("failed to encode row crop: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func errorVerdict(q int, err error) omr.Verdict {
	return omr.Verdict{
		QuestionNumber: q,
		Notes:          fmt.Sprintf("Classification failed: %v", err),
	}
}
