package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"classwork_service/internal/domain"
	"classwork_service/internal/repository"
	"classwork_service/internal/service"
	"classwork_service/internal/watch"
)

// memSubmissionRepo keeps submissions in a map so tests can observe the
// last-write-wins upsert behavior end to end.
type memSubmissionRepo struct {
	subs map[string]*domain.Submission
}

func newMemSubmissionRepo() *memSubmissionRepo {
	return &memSubmissionRepo{subs: make(map[string]*domain.Submission)}
}

func (r *memSubmissionRepo) key(assignmentID uuid.UUID, studentID string) string {
	return assignmentID.String() + "/" + studentID
}

func (r *memSubmissionRepo) Upsert(_ context.Context, submission *domain.Submission) error {
	k := r.key(submission.AssignmentID, submission.StudentID)
	if existing, ok := r.subs[k]; ok {
		submission.ID = existing.ID
		submission.CreatedAt = existing.CreatedAt
	} else {
		submission.ID = uuid.New()
		submission.CreatedAt = time.Now()
	}
	submission.EditedAt = time.Now()
	copied := *submission
	r.subs[k] = &copied
	return nil
}

func (r *memSubmissionRepo) GetByAssignmentAndStudent(_ context.Context, assignmentID uuid.UUID, studentID string) (*domain.Submission, error) {
	if sub, ok := r.subs[r.key(assignmentID, studentID)]; ok {
		copied := *sub
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memSubmissionRepo) ListByAssignment(_ context.Context, assignmentID uuid.UUID) ([]*domain.Submission, error) {
	var out []*domain.Submission
	for _, sub := range r.subs {
		if sub.AssignmentID == assignmentID {
			copied := *sub
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memSubmissionRepo) MarkGraded(_ context.Context, assignmentID uuid.UUID, studentID string, grade float64, feedback string) error {
	sub, ok := r.subs[r.key(assignmentID, studentID)]
	if !ok {
		return repository.ErrNotFound
	}
	sub.Status = domain.SubmissionStatusGraded
	sub.Grade = &grade
	sub.Feedback = &feedback
	return nil
}

func mcqAssignment(id uuid.UUID, due time.Time) *domain.Assignment {
	return &domain.Assignment{
		ID:      id,
		Title:   "Fractions quiz",
		Type:    domain.AssignmentTypeMCQ,
		DueDate: due,
		ClassID: "class-1",
		Questions: []domain.MCQQuestion{
			{Question: "Q1", Options: []string{"A", "B", "C"}, CorrectAnswer: "B"},
			{Question: "Q2", Options: []string{"A", "B", "C"}, CorrectAnswer: "A"},
		},
	}
}

func TestSubmitMCQ(t *testing.T) {
	assignmentID := uuid.New()
	assignment := mcqAssignment(assignmentID, time.Now().Add(time.Hour))

	newService := func(subRepo repository.SubmissionRepositoryInterface) service.SubmissionServiceInterface {
		assignmentRepo := new(MockAssignmentRepo)
		assignmentRepo.On("GetByID", mock.Anything, assignmentID).Return(assignment, nil)
		return service.NewSubmissionService(subRepo, assignmentRepo, watch.NewHub())
	}

	t.Run("success", func(t *testing.T) {
		repo := newMemSubmissionRepo()
		svc := newService(repo)

		sub, err := svc.SubmitMCQ(studentCtx("s1", "class-1"), assignmentID, []string{"B", "A"})
		require.NoError(t, err)
		assert.Equal(t, domain.SubmissionStatusSubmitted, sub.Status)
		require.NotNil(t, sub.SubmittedAt)
		assert.Equal(t, []string{"B", "A"}, sub.Answers)
	})

	t.Run("resubmission replaces answers", func(t *testing.T) {
		repo := newMemSubmissionRepo()
		svc := newService(repo)
		ctx := studentCtx("s1", "class-1")

		_, err := svc.SubmitMCQ(ctx, assignmentID, []string{"B", "A"})
		require.NoError(t, err)
		_, err = svc.SubmitMCQ(ctx, assignmentID, []string{"C", "C"})
		require.NoError(t, err)

		subs, err := repo.ListByAssignment(context.Background(), assignmentID)
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, []string{"C", "C"}, subs[0].Answers)
	})

	t.Run("wrong answer count", func(t *testing.T) {
		svc := newService(newMemSubmissionRepo())
		_, err := svc.SubmitMCQ(studentCtx("s1", "class-1"), assignmentID, []string{"B"})
		assert.ErrorIs(t, err, service.ErrIncompleteAnswers)
	})

	t.Run("blank answer", func(t *testing.T) {
		svc := newService(newMemSubmissionRepo())
		_, err := svc.SubmitMCQ(studentCtx("s1", "class-1"), assignmentID, []string{"B", "  "})
		assert.ErrorIs(t, err, service.ErrIncompleteAnswers)
	})

	t.Run("teacher cannot submit", func(t *testing.T) {
		svc := newService(newMemSubmissionRepo())
		_, err := svc.SubmitMCQ(teacherCtx("t1", "class-1"), assignmentID, []string{"B", "A"})
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("student from another class denied", func(t *testing.T) {
		svc := newService(newMemSubmissionRepo())
		_, err := svc.SubmitMCQ(studentCtx("s1", "class-2"), assignmentID, []string{"B", "A"})
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("graded submission cannot be resubmitted", func(t *testing.T) {
		repo := newMemSubmissionRepo()
		svc := newService(repo)
		ctx := studentCtx("s1", "class-1")

		_, err := svc.SubmitMCQ(ctx, assignmentID, []string{"B", "A"})
		require.NoError(t, err)
		require.NoError(t, repo.MarkGraded(context.Background(), assignmentID, "s1", 100, "good"))

		_, err = svc.SubmitMCQ(ctx, assignmentID, []string{"C", "C"})
		assert.ErrorIs(t, err, service.ErrAlreadyGraded)
	})

	t.Run("submitting late still works", func(t *testing.T) {
		pastDue := mcqAssignment(assignmentID, time.Now().Add(-time.Hour))
		assignmentRepo := new(MockAssignmentRepo)
		assignmentRepo.On("GetByID", mock.Anything, assignmentID).Return(pastDue, nil)
		svc := service.NewSubmissionService(newMemSubmissionRepo(), assignmentRepo, watch.NewHub())

		sub, err := svc.SubmitMCQ(studentCtx("s1", "class-1"), assignmentID, []string{"B", "A"})
		require.NoError(t, err)
		assert.Equal(t, domain.SubmissionStatusSubmitted, sub.Status)
	})
}

func TestSubmitResponse(t *testing.T) {
	assignmentID := uuid.New()
	assignment := &domain.Assignment{
		ID:      assignmentID,
		Title:   "Essay",
		Type:    domain.AssignmentTypeWritten,
		DueDate: time.Now().Add(time.Hour),
		ClassID: "class-1",
	}

	newService := func() service.SubmissionServiceInterface {
		assignmentRepo := new(MockAssignmentRepo)
		assignmentRepo.On("GetByID", mock.Anything, assignmentID).Return(assignment, nil)
		return service.NewSubmissionService(newMemSubmissionRepo(), assignmentRepo, watch.NewHub())
	}

	t.Run("success trims text", func(t *testing.T) {
		svc := newService()
		sub, err := svc.SubmitResponse(studentCtx("s1", "class-1"), assignmentID, "  my essay  ")
		require.NoError(t, err)
		require.NotNil(t, sub.ResponseText)
		assert.Equal(t, "my essay", *sub.ResponseText)
	})

	t.Run("blank text rejected", func(t *testing.T) {
		svc := newService()
		_, err := svc.SubmitResponse(studentCtx("s1", "class-1"), assignmentID, "   ")
		assert.ErrorIs(t, err, service.ErrValidation)
	})
}

func TestGetStatus(t *testing.T) {
	assignmentID := uuid.New()

	setup := func(due time.Time, existing *domain.Submission) service.SubmissionServiceInterface {
		assignment := mcqAssignment(assignmentID, due)
		assignmentRepo := new(MockAssignmentRepo)
		assignmentRepo.On("GetByID", mock.Anything, assignmentID).Return(assignment, nil)

		subRepo := new(MockSubmissionRepo)
		if existing != nil {
			subRepo.On("GetByAssignmentAndStudent", mock.Anything, assignmentID, "s1").Return(existing, nil)
		} else {
			subRepo.On("GetByAssignmentAndStudent", mock.Anything, assignmentID, "s1").Return(nil, repository.ErrNotFound)
		}

		return service.NewSubmissionService(subRepo, assignmentRepo, watch.NewHub())
	}

	t.Run("missing submission past due derives overdue", func(t *testing.T) {
		svc := setup(time.Now().Add(-time.Hour), nil)
		status, err := svc.GetStatus(studentCtx("s1", "class-1"), assignmentID, "s1")
		require.NoError(t, err)
		assert.Equal(t, domain.SubmissionStatusOverdue, status)
	})

	t.Run("missing submission before due derives not started", func(t *testing.T) {
		svc := setup(time.Now().Add(time.Hour), nil)
		status, err := svc.GetStatus(studentCtx("s1", "class-1"), assignmentID, "s1")
		require.NoError(t, err)
		assert.Equal(t, domain.SubmissionStatusNotStarted, status)
	})

	t.Run("submitted stays submitted past due", func(t *testing.T) {
		svc := setup(time.Now().Add(-time.Hour), &domain.Submission{Status: domain.SubmissionStatusSubmitted})
		status, err := svc.GetStatus(studentCtx("s1", "class-1"), assignmentID, "s1")
		require.NoError(t, err)
		assert.Equal(t, domain.SubmissionStatusSubmitted, status)
	})

	t.Run("student cannot read another student's status", func(t *testing.T) {
		svc := setup(time.Now().Add(time.Hour), nil)
		_, err := svc.GetStatus(studentCtx("s2", "class-1"), assignmentID, "s1")
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("teacher from another class denied", func(t *testing.T) {
		svc := setup(time.Now().Add(time.Hour), nil)
		_, err := svc.GetStatus(teacherCtx("t9", "class-2"), assignmentID, "s1")
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})
}

func TestListSubmissions(t *testing.T) {
	assignmentID := uuid.New()
	assignment := mcqAssignment(assignmentID, time.Now().Add(time.Hour))
	assignment.CreatedBy = "t1"

	t.Run("teacher lists all", func(t *testing.T) {
		assignmentRepo := new(MockAssignmentRepo)
		assignmentRepo.On("GetByID", mock.Anything, assignmentID).Return(assignment, nil)
		subRepo := new(MockSubmissionRepo)
		subRepo.On("ListByAssignment", mock.Anything, assignmentID).
			Return([]*domain.Submission{{StudentID: "s1"}, {StudentID: "s2"}}, nil)

		svc := service.NewSubmissionService(subRepo, assignmentRepo, watch.NewHub())
		subs, err := svc.ListSubmissions(teacherCtx("t1", "class-1"), assignmentID)
		require.NoError(t, err)
		assert.Len(t, subs, 2)
	})

	t.Run("student denied", func(t *testing.T) {
		svc := service.NewSubmissionService(new(MockSubmissionRepo), new(MockAssignmentRepo), watch.NewHub())
		_, err := svc.ListSubmissions(studentCtx("s1", "class-1"), assignmentID)
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})
}

func TestWatchSubmissions(t *testing.T) {
	assignmentID := uuid.New()
	assignment := mcqAssignment(assignmentID, time.Now().Add(time.Hour))
	assignment.CreatedBy = "t1"

	setup := func(hub *watch.Hub) service.SubmissionServiceInterface {
		assignmentRepo := new(MockAssignmentRepo)
		assignmentRepo.On("GetByID", mock.Anything, assignmentID).Return(assignment, nil)
		return service.NewSubmissionService(new(MockSubmissionRepo), assignmentRepo, hub)
	}

	t.Run("creator receives published events", func(t *testing.T) {
		hub := watch.NewHub()
		svc := setup(hub)

		ch, err := svc.WatchSubmissions(teacherCtx("t1", "class-1"), assignmentID)
		require.NoError(t, err)

		hub.Publish(watch.Event{
			Topic: watch.SubmissionsTopic(assignmentID),
			Kind:  watch.KindSubmissionGraded,
		})

		select {
		case ev := <-ch:
			assert.Equal(t, watch.KindSubmissionGraded, ev.Kind)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	})

	t.Run("student denied", func(t *testing.T) {
		svc := setup(watch.NewHub())
		_, err := svc.WatchSubmissions(studentCtx("s1", "class-1"), assignmentID)
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("teacher from another class denied", func(t *testing.T) {
		svc := setup(watch.NewHub())
		_, err := svc.WatchSubmissions(teacherCtx("t9", "class-2"), assignmentID)
		assert.ErrorIs(t, err, service.ErrPermissionDenied)
	})

	t.Run("anonymous is not logged in", func(t *testing.T) {
		svc := setup(watch.NewHub())
		_, err := svc.WatchSubmissions(context.Background(), assignmentID)
		assert.ErrorIs(t, err, service.ErrNotLoggedIn)
	})
}
