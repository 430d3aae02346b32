package feedback

// AnalysisMode tags every pronunciation record. It names the inputs the
// feedback was derived from and is the same for both generation paths.
const AnalysisMode = "audio_transcription_timing"

// Default texts.
const (
	DefaultSummary          = "Feedback is not available."
	DefaultConsonantComment = "No consonant-specific feedback."
	DefaultVowelComment     = "No vowel-specific feedback."
	DefaultStressComment    = "No stress-specific feedback."

	// NoAnalysis is used for every comment of a fallback record.
	NoAnalysis = "No analysis."

	// SpeechNotDetectedSummary is the summary returned when transcription
	// produced no text.
	SpeechNotDetectedSummary = "Speech was not detected clearly. Please try again."
)

// Limits on list fields. Longer lists are truncated, never rejected.
const (
	MaxIssues = 5
	MaxTips   = 5
)

// Issue is a single mispronunciation the model reported.
type Issue struct {
	Expected string `json:"expected"`
	Heard    string `json:"heard"`
	Advice   string `json:"advice"`
}

// Pronunciation is the feedback record returned for one spoken attempt.
// Optional scores are nil when unknown and encode as JSON null.
type Pronunciation struct {
	OverallScore        int      `json:"overallScore"`
	AITimingScore       *int     `json:"aiTimingScore"`
	TargetMatchScore    *int     `json:"targetMatchScore"`
	EnglishConfidence   *int     `json:"englishConfidence"`
	IsTargetSentence    bool     `json:"isTargetSentence"`
	Summary             string   `json:"summary"`
	ConsonantComment    string   `json:"consonantComment"`
	VowelComment        string   `json:"vowelComment"`
	StressComment       string   `json:"stressComment"`
	PronunciationIssues []Issue  `json:"pronunciationIssues"`
	PracticeTips        []string `json:"practiceTips"`
	TargetText          string   `json:"targetText"`
	TranscribedText     string   `json:"transcribedText"`
	AnalysisMode        string   `json:"analysisMode"`

	// WordAccuracy and PhoneticAccuracy come from local text alignment of
	// TranscribedText against TargetText. They never influence OverallScore.
	WordAccuracy     *int `json:"wordAccuracy"`
	PhoneticAccuracy *int `json:"phoneticAccuracy"`
}

// Fallback returns a fresh record with zero score, unknown optional scores
// and placeholder texts.
func Fallback(targetText string) *Pronunciation {
	return &Pronunciation{
		Summary:             DefaultSummary,
		ConsonantComment:    NoAnalysis,
		VowelComment:        NoAnalysis,
		StressComment:       NoAnalysis,
		PronunciationIssues: []Issue{},
		PracticeTips:        []string{},
		TargetText:          targetText,
		AnalysisMode:        AnalysisMode,
	}
}

// SpeechNotDetected returns the fallback record for a blank transcription.
func SpeechNotDetected(targetText string) *Pronunciation {
	p := Fallback(targetText)
	p.Summary = SpeechNotDetectedSummary
	return p
}

// NoContent returns the fallback record for a generation call that produced
// no content. The transcript is kept so the learner still sees what was heard.
func NoContent(targetText, transcribedText string) *Pronunciation {
	p := Fallback(targetText)
	p.TranscribedText = transcribedText
	return p
}

// Build assembles the final record from a sanitized model assessment.
// The model's transcription wins over transcript when it is non-empty.
func Build(a Assessment, targetText, transcript string) *Pronunciation {
	transcribed := a.TranscribedText
	if transcribed == "" {
		transcribed = transcript
	}
	return &Pronunciation{
		OverallScore:        Guard(a.OverallScore, a.TargetMatchScore, a.EnglishConfidence, a.IsTargetSentence),
		AITimingScore:       a.AITimingScore,
		TargetMatchScore:    a.TargetMatchScore,
		EnglishConfidence:   a.EnglishConfidence,
		IsTargetSentence:    a.IsTargetSentence,
		Summary:             a.Summary,
		ConsonantComment:    a.ConsonantComment,
		VowelComment:        a.VowelComment,
		StressComment:       a.StressComment,
		PronunciationIssues: a.Issues,
		PracticeTips:        a.Tips,
		TargetText:          targetText,
		TranscribedText:     transcribed,
		AnalysisMode:        AnalysisMode,
	}
}
