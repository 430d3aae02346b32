package audio

// Clip is a single uploaded recording as received from a learner.
type Clip struct {
	// Data holds the encoded audio bytes exactly as uploaded.
	Data []byte

	// ContentType is the MIME type declared by the client (e.g. "audio/webm").
	// It may be empty.
	ContentType string

	// Filename is the multipart filename. Transcription APIs use its
	// extension to sniff the container format.
	Filename string
}

// Empty reports whether the clip carries no audio bytes.
func (c Clip) Empty() bool { return len(c.Data) == 0 }

// Format returns the short container name for the clip's content type.
// See [InputFormat].
func (c Clip) Format() string { return InputFormat(c.ContentType) }
