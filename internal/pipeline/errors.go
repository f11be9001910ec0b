package pipeline

import (
	"errors"
	"net/http"
)

// Kind classifies pipeline failures.
type Kind int

const (
	KindInternal Kind = iota
	KindUnavailable
	KindBadInput
	KindTranscription
	KindGeneration
	KindSynthesis
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "service_unavailable"
	case KindBadInput:
		return "bad_input"
	case KindTranscription:
		return "transcription_failed"
	case KindGeneration:
		return "generation_failed"
	case KindSynthesis:
		return "synthesis_failed"
	default:
		return "internal_error"
	}
}

// Status is the HTTP status reported for the kind. Transcription failures
// are client errors: the audio could not be understood.
func (k Kind) Status() int {
	switch k {
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindBadInput, KindTranscription:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a pipeline failure with a message safe to show to the caller.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	ErrSTTUnavailable = &Error{Kind: KindUnavailable, Message: "Speech recognition unavailable"}
	ErrLLMUnavailable = &Error{Kind: KindUnavailable, Message: "AI response unavailable"}
	ErrNoAudio        = &Error{Kind: KindBadInput, Message: "No audio file provided"}
	ErrQuestionShort  = &Error{Kind: KindBadInput, Message: "Question too short. Please speak clearly."}
)

func newError(kind Kind, prefix string, err error) *Error {
	return &Error{Kind: kind, Message: prefix + ": " + err.Error(), Err: err}
}

// KindOf reports the Kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}
