// Package omr decodes a photographed or scanned multiple-choice answer sheet
// into one verdict per question.
//
// The pipeline flows strictly downstream:
//
//	raw image -> normalized binary -> candidate regions -> organized rows
//	          -> per-slot fill scores -> per-row verdicts -> sheet result
//
// DecodeSheet drives the whole chain; LocateRows exposes the localization
// half for callers that score rows differently, such as the remote
// classifier path.
//
// # Determinism
//
// Every stage is single-threaded, synchronous, and pure with respect to its
// inputs. Identical pixels with an identical Config always produce identical
// verdicts.
//
// # Failure Model
//
// Only two conditions abort a sheet: undecodable input (caught before this
// package, see imaging.ErrDecode) and a localizer that finds nothing at all
// (ErrNoRegions). Everything else, such as a missing, short, empty, or
// over-marked row, is absorbed into the per-question Verdict fields, so the
// result is always shaped to the requested question count.
package omr
