package model

import (
	"time"

	"github.com/google/uuid"
)

// Exchange is one answered question, serialized as the /ask-question body.
type Exchange struct {
	ID         uuid.UUID `json:"-"`
	Question   string    `json:"question"`
	Response   string    `json:"response"`
	AudioURL   *string   `json:"audio_url"`
	Confidence float64   `json:"confidence"`
	Deployment string    `json:"deployment"`
	CreatedAt  time.Time `json:"-"`
}
