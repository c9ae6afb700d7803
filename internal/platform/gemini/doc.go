// Package gemini provides an implementation of the generation.Generator
// interface backed by Google's Gemini API (google.golang.org/genai).
//
// The generator renders the per-content-type prompt, asks the model for a
// JSON reply and returns the raw text. Transient API failures are retried
// with exponential backoff and jitter; safety blocks and empty replies are
// permanent and returned immediately.
package gemini
