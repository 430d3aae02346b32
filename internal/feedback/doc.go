// Package feedback turns untrusted model output into bounded feedback records.
//
// Language models are asked for strict JSON but routinely return scores on
// the wrong scale, missing or mistyped fields, extra entries, or scores far
// too generous for speech that is not the target sentence. This package owns
// the deterministic part of the pipeline:
//
//   - [NormalizeScore] maps any raw score onto an integer in [0, 100].
//   - [Sanitize] decodes a model object field by field, substituting defaults
//     for anything missing or mistyped.
//   - [Guard] caps the overall score by target-match and identity signals.
//   - [NormalizeText] does the same job for writing feedback.
//
// Records built here never fail on malformed fields. The only error surfaced
// is a syntactically invalid JSON document.
package feedback
