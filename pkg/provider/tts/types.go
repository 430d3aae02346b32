package tts

// Output formats.
const (
	FormatMP3 = "mp3"
	FormatWAV = "wav"
)

// VoiceProfile selects the voice used for synthesis.
type VoiceProfile struct {
	// ID is the provider-specific voice identifier (e.g., "alloy").
	ID string

	// SpeedFactor scales speaking rate. Zero means the provider default.
	SpeedFactor float64
}

// Request describes one synthesis call.
type Request struct {
	// Text is the content to speak.
	Text string

	// Voice overrides the provider's configured voice when Voice.ID is set.
	Voice VoiceProfile

	// Instructions are free-form delivery hints for models that support them.
	// Empty means the provider's configured default.
	Instructions string

	// Format is the desired container. Empty means [FormatMP3].
	Format string
}

// Speech is a synthesized clip.
type Speech struct {
	// Audio is the encoded clip.
	Audio []byte

	// ContentType is the MIME type of Audio (e.g., "audio/mpeg").
	ContentType string
}

// ContentTypeFor returns the MIME type for a Format value.
func ContentTypeFor(format string) string {
	switch format {
	case FormatWAV:
		return "audio/wav"
	default:
		return "audio/mpeg"
	}
}
