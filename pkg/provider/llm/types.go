package llm

// Message represents a single message in an LLM conversation.
type Message struct {
	// Role is one of "system", "user" or "assistant".
	Role string

	// Content is the text content of the message.
	Content string

	// Audio, when non-nil, is sent alongside Content as an inline audio part.
	// Only "user" messages may carry audio.
	Audio *AudioInput
}

// AudioInput is an inline audio attachment of a user message.
type AudioInput struct {
	// Data is the raw (not yet base64 encoded) audio payload.
	Data []byte

	// Format is the container hint understood by the backend: "wav", "mp3",
	// "m4a" or "webm".
	Format string
}

// ModelCapabilities describes what an LLM model supports.
type ModelCapabilities struct {
	// ContextWindow is the maximum token count for input + output.
	ContextWindow int

	// MaxOutputTokens is the maximum tokens the model can generate in one completion.
	MaxOutputTokens int

	// SupportsAudioInput indicates the model accepts inline audio parts.
	SupportsAudioInput bool

	// SupportsJSONMode indicates the backend can enforce a JSON object reply.
	SupportsJSONMode bool
}
