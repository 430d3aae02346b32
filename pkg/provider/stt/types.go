package stt

import "time"

// Response formats understood by the transcription providers.
const (
	FormatJSON        = "json"
	FormatVerboseJSON = "verbose_json"
)

// Request describes one transcription attempt.
type Request struct {
	// Audio is the complete encoded recording (webm, wav, mp3, m4a, ...).
	Audio []byte

	// Filename is forwarded as the multipart file name. Backends use its
	// extension to sniff the container when ContentType is missing.
	Filename string

	// ContentType is the MIME type reported by the uploader. May be empty.
	ContentType string

	// Language is the ISO-639-1 recognition hint (e.g., "en"). Empty lets the
	// backend auto-detect.
	Language string

	// Model overrides the provider's configured model for this attempt.
	Model string

	// ResponseFormat is [FormatJSON] or [FormatVerboseJSON]. Empty means
	// [FormatJSON].
	ResponseFormat string

	// WordTimestamps asks for word-level timing. Only meaningful together with
	// [FormatVerboseJSON].
	WordTimestamps bool
}

// Transcript is the result of a transcription.
type Transcript struct {
	// Text is the transcribed speech content. May be empty.
	Text string

	// Language is the language reported by the backend, if any.
	Language string

	// Duration is the length of the recording, if reported.
	Duration time.Duration

	// Words contains per-word timing when requested and supported. May be nil.
	Words []WordDetail
}

// WordDetail holds per-word timing reported by STT providers that support it.
type WordDetail struct {
	Word  string
	Start time.Duration
	End   time.Duration
}
