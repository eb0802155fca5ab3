package speech

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"nammaraitha-backend/internal/service/speech"
	"nammaraitha-backend/pkg/response"
)

// maxAudioSize caps transcription uploads at 10 MB
const maxAudioSize = 10 << 20

// Handler handles speech HTTP requests
type Handler struct {
	recognizer  *speech.Recognizer
	synthesizer *speech.Synthesizer
}

// NewHandler creates a new speech handler
func NewHandler(recognizer *speech.Recognizer, synthesizer *speech.Synthesizer) *Handler {
	return &Handler{
		recognizer:  recognizer,
		synthesizer: synthesizer,
	}
}

// SpeakRequest represents text-to-speech request body
type SpeakRequest struct {
	Text     string `json:"text" binding:"required"`
	Language string `json:"language"`
}

// MuteRequest toggles text-to-speech muting
type MuteRequest struct {
	Muted *bool `json:"muted" binding:"required"`
}

// Availability reports whether voice input can be offered
// GET /v1/speech/availability
func (h *Handler) Availability(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"recognition_available": h.recognizer.Available(),
	})
}

// Transcribe runs one recording through the transcription provider
// POST /v1/speech/transcribe?language=kn (audio bytes in body)
func (h *Handler) Transcribe(c *gin.Context) {
	lang := c.DefaultQuery("language", "en")

	if err := h.recognizer.Start(lang); err != nil {
		if errors.Is(err, speech.ErrRecognizerUnavailable) {
			response.Error(c, http.StatusServiceUnavailable, "SPEECH_UNAVAILABLE", "Speech recognition unavailable")
			return
		}
		response.Conflict(c, "A recording is already in progress")
		return
	}

	audio, err := io.ReadAll(io.LimitReader(c.Request.Body, maxAudioSize+1))
	if err != nil {
		h.recognizer.Cancel()
		response.InternalError(c, "Failed to read audio")
		return
	}
	if len(audio) == 0 || len(audio) > maxAudioSize {
		h.recognizer.Cancel()
		response.ValidationError(c, "audio body must be between 1 byte and 10MB")
		return
	}

	if err := h.recognizer.Write(audio); err != nil {
		h.recognizer.Cancel()
		response.InternalError(c, "Failed to buffer audio")
		return
	}

	transcript, err := h.recognizer.Stop(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusBadGateway, "TRANSCRIPTION_FAILED", "Failed to transcribe audio")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"transcript": transcript})
}

// Speak voices text; returns immediately
// POST /v1/speech/speak
func (h *Handler) Speak(c *gin.Context) {
	var req SpeakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	h.synthesizer.Speak(req.Text, req.Language)
	response.Success(c, http.StatusAccepted, gin.H{"message": "Speaking"})
}

// StopSpeaking cancels the in-progress utterance
// POST /v1/speech/speak/stop
func (h *Handler) StopSpeaking(c *gin.Context) {
	h.synthesizer.Stop()
	response.Success(c, http.StatusOK, gin.H{"message": "Stopped"})
}

// SetMuted toggles text-to-speech muting
// PUT /v1/speech/mute
func (h *Handler) SetMuted(c *gin.Context) {
	var req MuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	h.synthesizer.SetMuted(*req.Muted)
	response.Success(c, http.StatusOK, gin.H{"muted": *req.Muted})
}
