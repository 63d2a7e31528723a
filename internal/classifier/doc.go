// Package classifier implements the remote-recognition path: instead of
// measuring pixel fill densities, each located question row is cropped and
// sent to an external classification service.
//
// The remote service is treated as an opaque collaborator with a fixed
// request/response contract (Request, Classification). Rows fan out to a
// bounded worker pool; verdicts land in slots keyed by question number, so
// the result order never depends on network completion order. Per-row
// failures and timeouts degrade to per-question error verdicts and never
// abort sibling rows.
package classifier
