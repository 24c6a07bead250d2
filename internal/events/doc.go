// Package events carries answer lifecycle notifications out of the pipeline.
//
// The pipeline emits an AnswerEvent at each terminal point of a request (completed,
// served from cache, degraded to the safe default, failed). Handlers registered on an
// EventEmitter observe those events without the pipeline knowing about them; the server
// wires a logging handler and a Counter that backs the status endpoint.
package events
