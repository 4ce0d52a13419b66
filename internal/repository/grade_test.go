package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classwork_service/internal/repository"
)

var gradeColumns = []string{"id", "student_id", "task_name", "score", "feedback", "created_at"}

func TestGradeRepositoryListByStudentMatching(t *testing.T) {
	t.Run("matching rows come back in insertion order", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		now := time.Now().UTC()
		rows := sqlmock.NewRows(gradeColumns).
			AddRow(uuid.New().String(), "s1", "Quiz 1", 80.0, "ok", now.Add(-time.Hour)).
			AddRow(uuid.New().String(), "s1", "Quiz 2", 90.0, "better", now)

		mock.ExpectQuery(`FROM grade_records`).
			WithArgs("s1", "quiz").
			WillReturnRows(rows)

		repo := repository.NewGradeRepository(db)
		records, err := repo.ListByStudentMatching(context.Background(), "s1", "quiz")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "Quiz 1", records[0].TaskName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("pattern metacharacters reach the query escaped", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM grade_records`).
			WithArgs("s1", `50\% quiz\_a\\b`).
			WillReturnRows(sqlmock.NewRows(gradeColumns))

		repo := repository.NewGradeRepository(db)
		records, err := repo.ListByStudentMatching(context.Background(), "s1", `50% quiz_a\b`)
		require.NoError(t, err)
		assert.Empty(t, records)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
