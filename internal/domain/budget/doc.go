// Package budget implements the consistency rules of budget simulations.
//
// A single pure function, Validate, checks that the essential expenses of
// a candidate expense set fit within a monthly income. Every mutation path
// (direct edits, nested formset submissions, bulk imports) calls it with
// the full expense set that would exist after the mutation; callers are
// responsible for assembling that set, including for simulations that
// have not been persisted yet. Score reuses the same summation to grade a
// learner's selection and reports the outcome as data instead of an error.
package budget
