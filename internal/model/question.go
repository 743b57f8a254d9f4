package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Question represents a single question-bank entry.
type Question struct {
	ID            uuid.UUID       `json:"id"`
	Subject       string          `json:"subject"`
	QuestionText  string          `json:"question_text"`
	Options       json.RawMessage `json:"options"`
	CorrectAnswer string          `json:"correct_answer"`
	CreatedBy     *uuid.UUID      `json:"created_by,omitempty"`
}

// QuestionForStudent is a question without the correct answer, sent to students.
type QuestionForStudent struct {
	ID           uuid.UUID       `json:"id"`
	QuestionText string          `json:"question_text"`
	Options      json.RawMessage `json:"options"`
	OrderNum     int             `json:"order_num"`
}

// ForStudent strips the answer key.
func (q Question) ForStudent(order int) QuestionForStudent {
	return QuestionForStudent{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		Options:      q.Options,
		OrderNum:     order,
	}
}
