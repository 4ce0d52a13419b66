package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"classwork_service/internal/domain"
)

type GradeRepository struct {
	db *sql.DB
}

type GradeRepositoryInterface interface {
	Append(ctx context.Context, record *domain.GradeRecord) error
	ListByStudent(ctx context.Context, studentID string) ([]*domain.GradeRecord, error)
	ListByStudentMatching(ctx context.Context, studentID, taskMatch string) ([]*domain.GradeRecord, error)
}

func NewGradeRepository(db *sql.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// Append inserts a grade record. The log is append-only: there is no update
// or delete path for grade_records anywhere in this service.
func (r *GradeRepository) Append(ctx context.Context, record *domain.GradeRecord) error {
	query := `
		INSERT INTO grade_records (id, student_id, task_name, score, feedback, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	id, err := uuid.NewV7()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, query,
		id,
		record.StudentID,
		record.TaskName,
		record.Score,
		record.Feedback,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to append grade record: %w", classifyStoreErr(err))
	}

	record.ID = id
	record.CreatedAt = now
	return nil
}

func (r *GradeRepository) ListByStudent(ctx context.Context, studentID string) ([]*domain.GradeRecord, error) {
	query := `
		SELECT id, student_id, task_name, score, feedback, created_at
		FROM grade_records
		WHERE student_id = $1
		ORDER BY created_at
	`

	return r.queryRecords(ctx, query, studentID)
}

// ListByStudentMatching filters the log by case-insensitive substring on the
// task name, e.g. "long answer" or "quiz". LIKE metacharacters in the match
// string are treated literally.
func (r *GradeRepository) ListByStudentMatching(ctx context.Context, studentID, taskMatch string) ([]*domain.GradeRecord, error) {
	query := `
		SELECT id, student_id, task_name, score, feedback, created_at
		FROM grade_records
		WHERE student_id = $1 AND task_name ILIKE '%' || $2 || '%'
		ORDER BY created_at
	`

	return r.queryRecords(ctx, query, studentID, escapeLike(taskMatch))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *GradeRepository) queryRecords(ctx context.Context, query string, args ...interface{}) ([]*domain.GradeRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query grade records: %w", classifyStoreErr(err))
	}
	defer func() { _ = rows.Close() }()

	var records []*domain.GradeRecord
	for rows.Next() {
		var rec domain.GradeRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.StudentID,
			&rec.TaskName,
			&rec.Score,
			&rec.Feedback,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan grade record: %w", err)
		}
		records = append(records, &rec)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return records, nil
}
