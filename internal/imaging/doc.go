// Package imaging decodes raw answer-sheet bytes and normalizes them into
// the binary measurement surface the rest of the pipeline works on.
//
// Normalization converts to single-channel intensity, suppresses scan noise,
// and binarizes. The chain differs per localization strategy (see Mode): flat
// Gaussian smoothing plus a global Otsu threshold when bubbles are detected
// by shape, or an edge-preserving bilateral filter plus a locally adaptive
// threshold when the layout grid is inferred from printed borders.
//
// # Polarity Convention
//
// Binarized output always maps marked (dark on paper) content to foreground
// value 255 and everything else to 0. Every downstream consumer, from
// contour finding and Hough voting to fill scoring, assumes this convention.
//
// # Error Handling
//
// Decode is the only fallible operation; it wraps ErrDecode for undecodable
// or zero-dimension inputs. Normalization itself is total and pure: it
// allocates its output and never mutates the source image.
package imaging
