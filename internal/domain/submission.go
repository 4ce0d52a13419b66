package domain

import (
	"time"

	"github.com/google/uuid"
)

// Submission holds one student's recorded work for one assignment. There is at
// most one row per (assignment, student); a resubmission overwrites the prior
// one.
type Submission struct {
	ID           uuid.UUID
	AssignmentID uuid.UUID
	StudentID    string
	Status       SubmissionStatus
	SubmittedAt  *time.Time
	Answers      []string
	ResponseText *string
	Grade        *float64
	Feedback     *string
	CreatedAt    time.Time
	EditedAt     time.Time
}

type SubmissionStatus string

const (
	SubmissionStatusNotStarted SubmissionStatus = "NOT_STARTED"
	SubmissionStatusSubmitted  SubmissionStatus = "SUBMITTED"
	SubmissionStatusOverdue    SubmissionStatus = "OVERDUE"
	SubmissionStatusGraded     SubmissionStatus = "GRADED"
)

// DeriveStatus computes the display status for a submission against its
// assignment at the given time. OVERDUE is never stored; it exists only as the
// result of this derivation. A submitted or graded submission keeps its stored
// status no matter how late it was.
func DeriveStatus(assignment *Assignment, submission *Submission, now time.Time) SubmissionStatus {
	if submission == nil || submission.Status == SubmissionStatusNotStarted {
		if now.After(assignment.DueDate) {
			return SubmissionStatusOverdue
		}
		return SubmissionStatusNotStarted
	}
	if submission.Status == SubmissionStatusGraded {
		return SubmissionStatusGraded
	}
	return SubmissionStatusSubmitted
}
