// Package server wraps the decoding engine in a small HTTP service.
//
// Two endpoints are exposed:
//
//   - POST /process-omr decodes a sheet fetched by URL and returns one
//     verdict per expected question (see ProcessRequest/ProcessResponse).
//   - GET /health reports liveness.
//
// All responses carry permissive CORS headers. The error contract follows
// the pipeline's taxonomy: undecodable input, fetch failures, and empty
// localization are client-visible 400s with an {"error": ...} envelope;
// anything unexpected is a 500. Row-level degradations never surface as
// HTTP errors; they are encoded in the per-question verdicts.
package server
