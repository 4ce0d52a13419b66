package domain

import (
	"time"

	"github.com/google/uuid"
)

// GradeRecord is one immutable entry in the per-student grade log. Records are
// never updated or deleted; aggregates are recomputed from the full log.
type GradeRecord struct {
	ID        uuid.UUID
	StudentID string
	TaskName  string
	Score     float64
	Feedback  string
	CreatedAt time.Time
}

// ClampScore forces a score into [0, 100]. Out-of-range values are clamped
// rather than rejected.
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// ScoreMCQ grades answers against the assignment questions and returns a
// percentage in [0, 100]. Answers beyond the question count are ignored.
func ScoreMCQ(questions []MCQQuestion, answers []string) float64 {
	if len(questions) == 0 {
		return 0
	}
	correct := 0
	for i, q := range questions {
		if i >= len(answers) {
			break
		}
		if answers[i] == q.CorrectAnswer {
			correct++
		}
	}
	return float64(correct) / float64(len(questions)) * 100
}
