package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"classwork_service/internal/domain"
)

type SubmissionRepository struct {
	db *sql.DB
}

type SubmissionRepositoryInterface interface {
	Upsert(ctx context.Context, submission *domain.Submission) error
	GetByAssignmentAndStudent(ctx context.Context, assignmentID uuid.UUID, studentID string) (*domain.Submission, error)
	ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]*domain.Submission, error)
	MarkGraded(ctx context.Context, assignmentID uuid.UUID, studentID string, grade float64, feedback string) error
}

func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Upsert writes a submission with last-write-wins semantics: one row per
// (assignment, student), a resubmission replaces the prior answers and text.
func (r *SubmissionRepository) Upsert(ctx context.Context, submission *domain.Submission) error {
	query := `
		INSERT INTO submissions
			(id, assignment_id, student_id, status, submitted_at, answers, response_text, created_at, edited_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (assignment_id, student_id) DO UPDATE SET
			status        = EXCLUDED.status,
			submitted_at  = EXCLUDED.submitted_at,
			answers       = EXCLUDED.answers,
			response_text = EXCLUDED.response_text,
			edited_at     = EXCLUDED.edited_at
		RETURNING id, created_at
	`

	id, err := uuid.NewV7()
	if err != nil {
		return err
	}

	var answers []byte
	if submission.Answers != nil {
		answers, err = json.Marshal(submission.Answers)
		if err != nil {
			return fmt.Errorf("failed to marshal answers: %w", err)
		}
	}

	now := time.Now().UTC()
	err = r.db.QueryRowContext(ctx, query,
		id,
		submission.AssignmentID,
		submission.StudentID,
		submission.Status,
		submission.SubmittedAt,
		nullableJSON(answers),
		submission.ResponseText,
		now,
		now,
	).Scan(&submission.ID, &submission.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert submission: %w", classifyStoreErr(err))
	}

	submission.EditedAt = now
	return nil
}

func (r *SubmissionRepository) GetByAssignmentAndStudent(ctx context.Context, assignmentID uuid.UUID, studentID string) (*domain.Submission, error) {
	query := `
		SELECT id, assignment_id, student_id, status, submitted_at, answers, response_text, grade, feedback, created_at, edited_at
		FROM submissions
		WHERE assignment_id = $1 AND student_id = $2
	`

	submission, err := scanSubmission(r.db.QueryRowContext(ctx, query, assignmentID, studentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", classifyStoreErr(err))
	}

	return submission, nil
}

func (r *SubmissionRepository) ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]*domain.Submission, error) {
	query := `
		SELECT id, assignment_id, student_id, status, submitted_at, answers, response_text, grade, feedback, created_at, edited_at
		FROM submissions
		WHERE assignment_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", classifyStoreErr(err))
	}
	defer func() { _ = rows.Close() }()

	var submissions []*domain.Submission
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		submissions = append(submissions, submission)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return submissions, nil
}

func (r *SubmissionRepository) MarkGraded(ctx context.Context, assignmentID uuid.UUID, studentID string, grade float64, feedback string) error {
	query := `
		UPDATE submissions
		SET status = $1, grade = $2, feedback = $3, edited_at = $4
		WHERE assignment_id = $5 AND student_id = $6
	`

	result, err := r.db.ExecContext(ctx, query,
		domain.SubmissionStatusGraded,
		grade,
		feedback,
		time.Now().UTC(),
		assignmentID,
		studentID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark submission graded: %w", classifyStoreErr(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func scanSubmission(row rowScanner) (*domain.Submission, error) {
	var (
		s       domain.Submission
		status  string
		answers []byte
	)

	if err := row.Scan(
		&s.ID,
		&s.AssignmentID,
		&s.StudentID,
		&status,
		&s.SubmittedAt,
		&answers,
		&s.ResponseText,
		&s.Grade,
		&s.Feedback,
		&s.CreatedAt,
		&s.EditedAt,
	); err != nil {
		return nil, err
	}

	s.Status = domain.ToSubmissionStatus(status)
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &s.Answers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
		}
	}

	return &s, nil
}
