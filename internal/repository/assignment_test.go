package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classwork_service/internal/domain"
	"classwork_service/internal/repository"
)

var assignmentColumns = []string{
	"id", "class_id", "created_by", "title", "description",
	"type", "due_date", "student_ids", "questions", "created_at",
}

func TestAssignmentRepositoryCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewAssignmentRepository(db)
	dueDate := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO assignments`).
		WithArgs(
			sqlmock.AnyArg(),
			"class-1",
			"t1",
			"Essay",
			"Write one page",
			string(domain.AssignmentTypeWritten),
			domain.EncodeDueDate(dueDate),
			dueDate,
			[]byte(`["s1","s2"]`),
			nil,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assignment := &domain.Assignment{
		Title:       "Essay",
		Description: "Write one page",
		Type:        domain.AssignmentTypeWritten,
		DueDate:     dueDate,
		ClassID:     "class-1",
		CreatedBy:   "t1",
		StudentIDs:  []string{"s1", "s2"},
	}
	require.NoError(t, repo.Create(context.Background(), assignment))
	assert.NotEqual(t, uuid.Nil, assignment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryFindDueSoon(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewAssignmentRepository(db)
	now := time.Now().UTC()

	soonID := uuid.New()
	rows := sqlmock.NewRows(assignmentColumns).
		AddRow(
			soonID.String(), "class-1", "t1", "Due soon", "",
			string(domain.AssignmentTypeWritten),
			[]byte(fmt.Sprintf(`{"seconds": %d, "nanoseconds": 0}`, now.Add(30*time.Minute).Unix())),
			[]byte(`[]`), nil, now.Add(-time.Hour),
		).
		// Legacy row with no due_at: the query returns it, the window
		// filter here drops it.
		AddRow(
			uuid.New().String(), "class-1", "t1", "Due later", "",
			string(domain.AssignmentTypeWritten),
			[]byte(fmt.Sprintf(`{"seconds": %d, "nanoseconds": 0}`, now.Add(72*time.Hour).Unix())),
			[]byte(`[]`), nil, now.Add(-time.Hour),
		).
		// Legacy row whose due date does not normalize is skipped.
		AddRow(
			uuid.New().String(), "class-1", "t1", "Broken", "",
			string(domain.AssignmentTypeWritten),
			[]byte(`"not a date"`),
			[]byte(`[]`), nil, now.Add(-time.Hour),
		)

	mock.ExpectQuery(`due_at IS NULL OR \(due_at > \$1 AND due_at <= \$2\)`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	found, err := repo.FindDueSoon(context.Background(), time.Hour)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, soonID, found[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
