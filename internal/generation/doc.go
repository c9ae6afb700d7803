// Package generation defines the content generator collaborator used to
// produce candidate questions and budget simulations with an LLM. It owns
// the prompt templates, the extraction of JSON from model replies and the
// request and report types of generation jobs. The Gemini implementation
// of Generator lives in internal/platform/gemini.
package generation
