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

type AssignmentRepository struct {
	db *sql.DB
}

type AssignmentRepositoryInterface interface {
	Create(ctx context.Context, assignment *domain.Assignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error)
	ListByFilter(ctx context.Context, filter domain.AssignmentFilter) ([]*domain.Assignment, int, error)
	FindDueSoon(ctx context.Context, window time.Duration) ([]*domain.Assignment, error)
}

func NewAssignmentRepository(db *sql.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) Create(ctx context.Context, assignment *domain.Assignment) error {
	query := `
		INSERT INTO assignments
			(id, class_id, created_by, title, description, type, due_date, due_at, student_ids, questions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate UUID: %w", err)
	}

	studentIDs, err := json.Marshal(assignment.StudentIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal student ids: %w", err)
	}

	var questions []byte
	if assignment.Type == domain.AssignmentTypeMCQ {
		questions, err = json.Marshal(assignment.Questions)
		if err != nil {
			return fmt.Errorf("failed to marshal questions: %w", err)
		}
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, query,
		id,
		assignment.ClassID,
		assignment.CreatedBy,
		assignment.Title,
		assignment.Description,
		assignment.Type,
		domain.EncodeDueDate(assignment.DueDate),
		assignment.DueDate.UTC(),
		studentIDs,
		nullableJSON(questions),
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", classifyStoreErr(err))
	}

	assignment.ID = id
	assignment.CreatedAt = now
	return nil
}

func (r *AssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	query := `
		SELECT id, class_id, created_by, title, description, type, due_date, student_ids, questions, created_at
		FROM assignments
		WHERE id = $1
	`

	assignment, err := scanAssignment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if errors.Is(err, domain.ErrInvalidDueDate) {
			return nil, fmt.Errorf("assignment %s: %w", id, err)
		}
		return nil, fmt.Errorf("failed to get assignment: %w", classifyStoreErr(err))
	}

	return assignment, nil
}

// ListByFilter returns assignments for a class, optionally narrowed to one
// creator, newest first. Rows whose legacy due date does not normalize are
// skipped; the second return value reports how many were dropped.
func (r *AssignmentRepository) ListByFilter(ctx context.Context, filter domain.AssignmentFilter) ([]*domain.Assignment, int, error) {
	query := `
		SELECT id, class_id, created_by, title, description, type, due_date, student_ids, questions, created_at
		FROM assignments
		WHERE class_id = $1
	`
	args := []interface{}{filter.ClassID}

	if filter.CreatedBy != "" {
		query += " AND created_by = $2"
		args = append(args, filter.CreatedBy)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query assignments: %w", classifyStoreErr(err))
	}
	defer func() { _ = rows.Close() }()

	var assignments []*domain.Assignment
	skipped := 0
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidDueDate) {
				skipped++
				continue
			}
			return nil, 0, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, assignment)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return assignments, skipped, nil
}

// FindDueSoon returns assignments whose normalized due date falls between now
// and now+window. Rows written by this service carry an indexed due_at and
// are filtered in SQL; legacy imported rows have due_at NULL and are
// normalized and filtered in Go.
func (r *AssignmentRepository) FindDueSoon(ctx context.Context, window time.Duration) ([]*domain.Assignment, error) {
	query := `
		SELECT id, class_id, created_by, title, description, type, due_date, student_ids, questions, created_at
		FROM assignments
		WHERE due_at IS NULL OR (due_at > $1 AND due_at <= $2)
		ORDER BY created_at DESC
	`

	now := time.Now().UTC()
	deadline := now.Add(window)

	rows, err := r.db.QueryContext(ctx, query, now, deadline)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", classifyStoreErr(err))
	}
	defer func() { _ = rows.Close() }()

	var assignments []*domain.Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidDueDate) {
				continue
			}
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		if assignment.DueDate.After(now) && !assignment.DueDate.After(deadline) {
			assignments = append(assignments, assignment)
		}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return assignments, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAssignment(row rowScanner) (*domain.Assignment, error) {
	var (
		a          domain.Assignment
		typ        string
		dueDate    []byte
		studentIDs []byte
		questions  []byte
	)

	if err := row.Scan(
		&a.ID,
		&a.ClassID,
		&a.CreatedBy,
		&a.Title,
		&a.Description,
		&typ,
		&dueDate,
		&studentIDs,
		&questions,
		&a.CreatedAt,
	); err != nil {
		return nil, err
	}

	a.Type = domain.ToAssignmentType(typ)

	due, err := domain.NormalizeDueDate(dueDate)
	if err != nil {
		return nil, err
	}
	a.DueDate = due

	if err := json.Unmarshal(studentIDs, &a.StudentIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal student ids: %w", err)
	}
	if len(questions) > 0 {
		if err := json.Unmarshal(questions, &a.Questions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal questions: %w", err)
		}
	}

	return &a, nil
}

func nullableJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
