// Package scoring grades submitted answers against an exam's answer key.
package scoring

import (
	"github.com/google/uuid"
	"github.com/stemsi/exproctor/internal/model"
)

// Outcome is the graded result of one submission.
type Outcome struct {
	Score      int `json:"score"`
	TotalMarks int `json:"total_marks"`
}

// Score grades answers against questions, which must come from the server-side
// store and never from the client. Each question is worth one mark; answers are
// compared with exact string equality. A question without an answer counts as
// wrong, and answers for questions outside the exam are ignored. When a
// question id is answered more than once, the first entry wins.
func Score(questions []model.Question, answers []model.AnswerEntry) Outcome {
	submitted := make(map[uuid.UUID]string, len(answers))
	for _, a := range answers {
		if _, seen := submitted[a.QuestionID]; !seen {
			submitted[a.QuestionID] = a.SubmittedAnswer
		}
	}

	out := Outcome{TotalMarks: len(questions)}
	for _, q := range questions {
		if ans, ok := submitted[q.ID]; ok && ans == q.CorrectAnswer {
			out.Score++
		}
	}
	return out
}
