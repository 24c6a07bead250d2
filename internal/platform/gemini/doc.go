// Package gemini implements generation.Provider on top of the Google Gen AI SDK.
//
// System messages become the request's system instruction, user and assistant turns
// become user and model contents, and JSON mode constrains the response MIME type to
// application/json. API errors with retryable status codes are reported as
// generation.ErrTransientFailure so the upstream retry policy can repeat them.
package gemini
