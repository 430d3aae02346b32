package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/MrWong99/elocute/pkg/audio"
	"github.com/MrWong99/elocute/pkg/provider/tts"
)

// ── pronunciation ──────────────────────────────────────────────────────────

// PronunciationFeedback handles POST /api/pronunciation-feedback.
func (s *Server) PronunciationFeedback(w http.ResponseWriter, r *http.Request) {
	if s.assessor == nil {
		fail(w, r, http.StatusInternalServerError, MsgMissingAPIKey, nil)
		return
	}
	if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		fail(w, r, http.StatusBadRequest, MsgUseMultipart, nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		badBody(w, r, MsgUseMultipart, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	target := strings.TrimSpace(r.FormValue("targetText"))
	if target == "" {
		fail(w, r, http.StatusBadRequest, MsgTargetRequired, nil)
		return
	}

	clip, err := readClip(r)
	if err != nil {
		badBody(w, r, MsgAudioRequired, err)
		return
	}

	rec, err := s.assessor.Assess(r.Context(), target, clip)
	if err != nil {
		fail(w, r, http.StatusInternalServerError, MsgPronunciationFailed, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

var errEmptyAudio = errors.New("audio file is empty")

// readClip loads the "audio" part of a parsed multipart form.
func readClip(r *http.Request) (audio.Clip, error) {
	f, fh, err := r.FormFile("audio")
	if err != nil {
		return audio.Clip{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return audio.Clip{}, err
	}
	if len(data) == 0 {
		return audio.Clip{}, errEmptyAudio
	}
	return audio.Clip{
		Data:        data,
		ContentType: fh.Header.Get("Content-Type"),
		Filename:    fh.Filename,
	}, nil
}

// ── writing ────────────────────────────────────────────────────────────────

type textFeedbackRequest struct {
	FullText     text `json:"fullText"`
	SelectedText text `json:"selectedText"`
}

// TextFeedback handles POST /api/text-feedback.
func (s *Server) TextFeedback(w http.ResponseWriter, r *http.Request) {
	if s.reviewer == nil {
		fail(w, r, http.StatusInternalServerError, MsgMissingAPIKey, nil)
		return
	}

	var req textFeedbackRequest
	if err := s.decode(w, r, &req); err != nil {
		badBody(w, r, MsgInvalidJSON, err)
		return
	}
	full := strings.TrimSpace(string(req.FullText))
	selected := strings.TrimSpace(string(req.SelectedText))
	if selected == "" {
		fail(w, r, http.StatusBadRequest, MsgSelectedRequired, nil)
		return
	}

	res, err := s.reviewer.Review(r.Context(), full, selected)
	if err != nil {
		fail(w, r, http.StatusInternalServerError, MsgTextFailed, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ── speech ─────────────────────────────────────────────────────────────────

type ttsRequest struct {
	Text text `json:"text"`
}

// TTS handles POST /api/tts.
func (s *Server) TTS(w http.ResponseWriter, r *http.Request) {
	if s.speech == nil {
		fail(w, r, http.StatusInternalServerError, MsgMissingAPIKey, nil)
		return
	}

	var req ttsRequest
	if err := s.decode(w, r, &req); err != nil {
		badBody(w, r, MsgInvalidJSON, err)
		return
	}
	sentence := strings.TrimSpace(string(req.Text))
	if sentence == "" {
		fail(w, r, http.StatusBadRequest, MsgTextRequired, nil)
		return
	}

	ctx, cancel := s.upstream(r.Context())
	defer cancel()
	speech, err := s.speech.Synthesize(ctx, tts.Request{Text: sentence, Format: tts.FormatMP3})
	if err == nil && (speech == nil || len(speech.Audio) == 0) {
		err = errors.New("empty audio response")
	}
	if err != nil {
		fail(w, r, http.StatusInternalServerError, MsgSpeechFailed, err)
		return
	}

	contentType := speech.ContentType
	if contentType == "" {
		contentType = tts.ContentTypeFor(tts.FormatMP3)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(speech.Audio)
}

// decode reads one JSON object from the size-limited request body.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	return json.NewDecoder(r.Body).Decode(dst)
}
