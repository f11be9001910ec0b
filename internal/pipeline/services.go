package pipeline

import (
	"fmt"

	"podask/internal/ai"
	"podask/internal/stt"
	"podask/internal/tts"
)

// Services is the bundle of engine handles built at startup. A nil field
// means the engine failed to initialize or is disabled.
type Services struct {
	STT stt.Provider
	LLM ai.Generator
	TTS tts.Synthesizer
}

// Ready fails fast when an engine the request cannot do without is absent.
func (s Services) Ready() error {
	if s.STT == nil {
		return ErrSTTUnavailable
	}
	if s.LLM == nil {
		return ErrLLMUnavailable
	}
	return nil
}

const (
	statusUnavailable = "unavailable"
	statusConnected   = "connected"
)

// Health is the body of GET /health.
type Health struct {
	Status        string `json:"status"`
	Transcription string `json:"transcription"`
	Generation    string `json:"generation"`
	Synthesis     string `json:"synthesis"`
	Storage       string `json:"storage"`
	Deployment    string `json:"deployment"`
}

// Health reports which engines are usable. Status is "ready" when questions
// can be answered, with or without audio.
func (s Services) Health(deployment, storage string) Health {
	h := Health{
		Status:        "ready",
		Transcription: statusUnavailable,
		Generation:    statusUnavailable,
		Synthesis:     statusUnavailable,
		Storage:       storage,
		Deployment:    deployment,
	}
	if s.STT != nil {
		h.Transcription = fmt.Sprintf("loaded (%s)", s.STT.Model())
	}
	if s.LLM != nil {
		h.Generation = statusConnected
	}
	if s.TTS != nil {
		h.Synthesis = statusConnected
	}
	if s.Ready() != nil {
		h.Status = "degraded"
	}
	return h
}
