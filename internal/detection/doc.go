// Package detection locates candidate answer regions on a normalized
// answer-sheet image and organizes them into question rows.
//
// Two interchangeable localization strategies share one output contract,
// a list of Regions organized into Rows:
//
//   - Shape strategy: DetectCircles finds individual bubbles with a Hough
//     circle transform, and GroupRows clusters them into rows by vertical
//     position. Tolerant of irregular bubble placement, sensitive to
//     print-quality noise.
//   - Grid strategy: DetectGridBlocks finds bordered answer blocks by contour
//     analysis (FallbackBlock substitutes a fixed crop when none qualifies),
//     and PartitionBlock slices the chosen block into rows and cells by
//     arithmetic division. Assumes strict grid regularity, needs no per-bubble
//     shapes.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// # Input Convention
//
// Detection functions take a binarized *image.Gray produced by the imaging
// package, where marked (dark on paper) content is foreground with value 255.
// Both strategies are pure: identical pixels and parameters yield identical
// regions.
//
// # Performance Considerations
//
// The Hough transform iterates every boundary pixel for every candidate
// radius and is the most expensive stage of the pipeline. Tight
// MinRadius/MaxRadius bounds matched to the scan resolution keep it fast.
package detection
