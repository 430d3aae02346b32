package feedback

// Guard thresholds.
const (
	// ConfidenceThreshold is the minimum English confidence at which a
	// target-sentence attempt keeps its score uncapped.
	ConfidenceThreshold = 50

	// UnverifiedCeiling is the highest overall score an attempt can get when
	// it is not confirmed to be the target sentence spoken in English.
	UnverifiedCeiling = 20
)

// Guard computes the final overall score from the model's own signals.
//
// A missing overall score becomes 0. A known target-match score caps the
// overall score. Unless the model confirmed the target sentence and did not
// report English confidence below [ConfidenceThreshold], the score is capped
// at [UnverifiedCeiling]. The result is always within [0, 100].
func Guard(aiOverall, targetMatch, englishConfidence *int, isTargetSentence bool) int {
	var base int
	switch {
	case aiOverall == nil:
		base = 0
	case targetMatch == nil:
		base = *aiOverall
	default:
		base = min(*aiOverall, *targetMatch)
	}

	verified := isTargetSentence && (englishConfidence == nil || *englishConfidence >= ConfidenceThreshold)
	if !verified {
		base = min(base, UnverifiedCeiling)
	}
	return clamp(base)
}
