package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrWong99/elocute/internal/observe"
)

// Client-facing messages.
const (
	MsgMissingAPIKey       = "OPENAI_API_KEY is not set."
	MsgUseMultipart        = "Use multipart/form-data with targetText and audio."
	MsgTargetRequired      = "targetText is required."
	MsgAudioRequired       = "audio file is required."
	MsgBodyTooLarge        = "Request body is too large."
	MsgInvalidJSON         = "Request body must be valid JSON."
	MsgSelectedRequired    = "selectedText is required."
	MsgTextRequired        = "text is required."
	MsgPronunciationFailed = "Failed to analyze pronunciation from audio."
	MsgTextFailed          = "Failed to analyze selected text."
	MsgSpeechFailed        = "Failed to generate speech."
)

// apiError is the JSON error body.
type apiError struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// fail writes an apiError. 5xx responses are logged with err.
func fail(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	body := apiError{Error: msg}
	if err != nil {
		body.Detail = err.Error()
	}
	if status >= http.StatusInternalServerError {
		observe.Logger(r.Context()).Warn("request failed",
			"path", r.URL.Path,
			"status", status,
			"error", msg,
			"err", err,
		)
	}
	writeJSON(w, status, body)
}

// badBody maps a body read error to a 400: oversized bodies get
// [MsgBodyTooLarge], everything else msg.
func badBody(w http.ResponseWriter, r *http.Request, msg string, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		fail(w, r, http.StatusBadRequest, MsgBodyTooLarge, err)
		return
	}
	fail(w, r, http.StatusBadRequest, msg, err)
}

// writeJSON encodes v as JSON and writes it with the given status code. On
// encoding failure it falls back to a 500 response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error."}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// text is a JSON string field that also accepts numbers and booleans (kept
// verbatim) and null (empty).
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = text(s)
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v.(type) {
	case nil:
		*t = ""
	case float64, bool:
		*t = text(data)
	default:
		return errors.New("expected a string")
	}
	return nil
}
