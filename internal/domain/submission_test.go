package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"classwork_service/internal/domain"
)

func TestDeriveStatus(t *testing.T) {
	due := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	assignment := &domain.Assignment{DueDate: due}
	beforeDue := due.Add(-time.Hour)
	afterDue := due.Add(time.Hour)

	tests := []struct {
		name       string
		submission *domain.Submission
		now        time.Time
		want       domain.SubmissionStatus
	}{
		{
			name:       "no submission before due date",
			submission: nil,
			now:        beforeDue,
			want:       domain.SubmissionStatusNotStarted,
		},
		{
			name:       "no submission after due date",
			submission: nil,
			now:        afterDue,
			want:       domain.SubmissionStatusOverdue,
		},
		{
			name:       "not started after due date",
			submission: &domain.Submission{Status: domain.SubmissionStatusNotStarted},
			now:        afterDue,
			want:       domain.SubmissionStatusOverdue,
		},
		{
			name:       "not started exactly at due date",
			submission: nil,
			now:        due,
			want:       domain.SubmissionStatusNotStarted,
		},
		{
			name:       "submitted before due date",
			submission: &domain.Submission{Status: domain.SubmissionStatusSubmitted},
			now:        beforeDue,
			want:       domain.SubmissionStatusSubmitted,
		},
		{
			name:       "late submission is never overdue",
			submission: &domain.Submission{Status: domain.SubmissionStatusSubmitted},
			now:        afterDue,
			want:       domain.SubmissionStatusSubmitted,
		},
		{
			name:       "graded stays graded",
			submission: &domain.Submission{Status: domain.SubmissionStatusGraded},
			now:        afterDue,
			want:       domain.SubmissionStatusGraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.DeriveStatus(assignment, tt.submission, tt.now)
			assert.Equal(t, tt.want, got)
		})
	}
}
