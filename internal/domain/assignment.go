package domain

import (
	"time"

	"github.com/google/uuid"
)

type Assignment struct {
	ID          uuid.UUID
	Title       string
	Description string
	Type        AssignmentType
	DueDate     time.Time
	ClassID     string
	StudentIDs  []string
	CreatedBy   string
	CreatedAt   time.Time
	Questions   []MCQQuestion
}

// MCQQuestion is one multiple-choice question. CorrectAnswer must be a member
// of Options.
type MCQQuestion struct {
	Question      string
	Options       []string
	CorrectAnswer string
}

type AssignmentType string

const (
	AssignmentTypeUnspecified AssignmentType = "UNSPECIFIED"
	AssignmentTypeWritten     AssignmentType = "WRITTEN"
	AssignmentTypeMCQ         AssignmentType = "MCQ"
	AssignmentTypeTest        AssignmentType = "TEST"
	AssignmentTypeOther       AssignmentType = "OTHER"
)

type AssignmentFilter struct {
	ClassID   string
	CreatedBy string
}

// AssignedToAll reports whether the assignment targets the whole class rather
// than an explicit list of students.
func (a *Assignment) AssignedToAll() bool {
	return len(a.StudentIDs) == 0
}

// AssignedTo reports whether the given student should see this assignment.
func (a *Assignment) AssignedTo(studentID string) bool {
	if a.AssignedToAll() {
		return true
	}
	for _, id := range a.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}
