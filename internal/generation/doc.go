// Package generation defines the boundary between the answer pipeline and external
// LLM providers. It holds the provider contract (Provider, Request, Message) and the
// error taxonomy shared by every stage that touches model output, so that callers can
// dispatch on failures with errors.Is without importing any concrete adapter.
//
// Concrete providers live under internal/platform (gemini, openai) and are composed
// with rate limiting, circuit breaking and retries by the upstream package.
package generation
