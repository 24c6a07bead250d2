// Package api exposes the answer pipeline over HTTP. Handlers decode and validate
// requests, hand them to the pipeline under the authenticated caller's identity, and
// translate pipeline errors into status codes without leaking internal details.
package api
