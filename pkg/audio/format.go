package audio

import "strings"

// Container format names accepted by audio-capable chat models.
const (
	FormatWAV  = "wav"
	FormatMP3  = "mp3"
	FormatM4A  = "m4a"
	FormatWebM = "webm"
)

// InputFormat maps a MIME type to the container format declared alongside
// inline audio. Matching is by substring and case-insensitive. Browsers record
// webm by default, so anything unrecognised is reported as webm.
func InputFormat(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "wav"):
		return FormatWAV
	case strings.Contains(ct, "mp3"), strings.Contains(ct, "mpeg"):
		return FormatMP3
	case strings.Contains(ct, "m4a"), strings.Contains(ct, "mp4"):
		return FormatM4A
	default:
		return FormatWebM
	}
}

// DefaultFilename returns a filename with an extension matching the clip's
// format, for uploads that arrive without one.
func DefaultFilename(contentType string) string {
	return "recording." + InputFormat(contentType)
}
