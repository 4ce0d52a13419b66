package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"classwork_service/internal/domain"
	"classwork_service/internal/repository"
	"classwork_service/internal/watch"
	"classwork_service/pkg/ctxdata"
)

type SubmissionServiceInterface interface {
	SubmitMCQ(ctx context.Context, assignmentID uuid.UUID, answers []string) (*domain.Submission, error)
	SubmitResponse(ctx context.Context, assignmentID uuid.UUID, text string) (*domain.Submission, error)
	GetStatus(ctx context.Context, assignmentID uuid.UUID, studentID string) (domain.SubmissionStatus, error)
	ListSubmissions(ctx context.Context, assignmentID uuid.UUID) ([]*domain.Submission, error)
	WatchSubmissions(ctx context.Context, assignmentID uuid.UUID) (<-chan watch.Event, error)
}

type submissionService struct {
	submissionRepo repository.SubmissionRepositoryInterface
	assignmentRepo repository.AssignmentRepositoryInterface
	hub            *watch.Hub
	now            func() time.Time
}

func NewSubmissionService(
	submissionRepo repository.SubmissionRepositoryInterface,
	assignmentRepo repository.AssignmentRepositoryInterface,
	hub *watch.Hub,
) SubmissionServiceInterface {
	return &submissionService{
		submissionRepo: submissionRepo,
		assignmentRepo: assignmentRepo,
		hub:            hub,
		now:            time.Now,
	}
}

// SubmitMCQ saves a student's answers. Every question must be answered; a
// resubmission replaces the prior answers, nothing is kept.
func (s *submissionService) SubmitMCQ(ctx context.Context, assignmentID uuid.UUID, answers []string) (*domain.Submission, error) {
	auth, assignment, err := s.authorizeSubmit(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	if assignment.Type != domain.AssignmentTypeMCQ {
		return nil, fmt.Errorf("%w: assignment is not multiple choice", ErrValidation)
	}
	if len(answers) != len(assignment.Questions) {
		return nil, fmt.Errorf("%w: expected %d answers, got %d",
			ErrIncompleteAnswers, len(assignment.Questions), len(answers))
	}
	for i, answer := range answers {
		if strings.TrimSpace(answer) == "" {
			return nil, fmt.Errorf("%w: question %d is unanswered", ErrIncompleteAnswers, i+1)
		}
	}

	return s.upsert(ctx, assignment, &domain.Submission{
		AssignmentID: assignmentID,
		StudentID:    auth.UserID,
		Answers:      answers,
	})
}

// SubmitResponse saves a free-text answer for non-MCQ assignments.
func (s *submissionService) SubmitResponse(ctx context.Context, assignmentID uuid.UUID, text string) (*domain.Submission, error) {
	auth, assignment, err := s.authorizeSubmit(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	if assignment.Type == domain.AssignmentTypeMCQ {
		return nil, fmt.Errorf("%w: multiple choice assignments take answers, not text", ErrValidation)
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: response text is required", ErrValidation)
	}

	return s.upsert(ctx, assignment, &domain.Submission{
		AssignmentID: assignmentID,
		StudentID:    auth.UserID,
		ResponseText: &trimmed,
	})
}

// GetStatus derives the display status for one (assignment, student) pair.
// A missing submission row is not an error, it derives to NOT_STARTED or
// OVERDUE.
func (s *submissionService) GetStatus(ctx context.Context, assignmentID uuid.UUID, studentID string) (domain.SubmissionStatus, error) {
	auth, err := requireAuth(ctx)
	if err != nil {
		return "", err
	}
	if auth.Role == ctxdata.RoleStudent && auth.UserID != studentID {
		return "", ErrPermissionDenied
	}

	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return "", err
	}
	if auth.Role == ctxdata.RoleTeacher && !teacherCanView(auth, assignment) {
		return "", ErrPermissionDenied
	}

	submission, err := s.submissionRepo.GetByAssignmentAndStudent(ctx, assignmentID, studentID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return "", err
		}
		submission = nil
	}

	return domain.DeriveStatus(assignment, submission, s.now()), nil
}

func (s *submissionService) ListSubmissions(ctx context.Context, assignmentID uuid.UUID) ([]*domain.Submission, error) {
	auth, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if auth.Role != ctxdata.RoleTeacher {
		return nil, ErrPermissionDenied
	}

	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !teacherCanView(auth, assignment) {
		return nil, ErrPermissionDenied
	}

	return s.submissionRepo.ListByAssignment(ctx, assignmentID)
}

// WatchSubmissions opens a live event stream for one assignment's
// submissions. Submission payloads carry grades, so the stream is gated the
// same way as ListSubmissions: teachers only, and only for assignments they
// created or that belong to their class.
func (s *submissionService) WatchSubmissions(ctx context.Context, assignmentID uuid.UUID) (<-chan watch.Event, error) {
	auth, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if auth.Role != ctxdata.RoleTeacher {
		return nil, ErrPermissionDenied
	}

	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !teacherCanView(auth, assignment) {
		return nil, ErrPermissionDenied
	}

	return s.hub.Subscribe(ctx, watch.SubmissionsTopic(assignmentID)), nil
}

// teacherCanView reports whether a teacher may inspect an assignment's
// submissions: its creator always, otherwise any teacher of the same class.
func teacherCanView(auth ctxdata.Auth, assignment *domain.Assignment) bool {
	return assignment.CreatedBy == auth.UserID || assignment.ClassID == auth.ClassID
}

func (s *submissionService) authorizeSubmit(ctx context.Context, assignmentID uuid.UUID) (ctxdata.Auth, *domain.Assignment, error) {
	auth, err := requireAuth(ctx)
	if err != nil {
		return ctxdata.Auth{}, nil, err
	}
	if auth.Role != ctxdata.RoleStudent {
		return ctxdata.Auth{}, nil, ErrPermissionDenied
	}

	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return ctxdata.Auth{}, nil, err
	}
	if assignment.ClassID != auth.ClassID || !assignment.AssignedTo(auth.UserID) {
		return ctxdata.Auth{}, nil, ErrPermissionDenied
	}

	existing, err := s.submissionRepo.GetByAssignmentAndStudent(ctx, assignmentID, auth.UserID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return ctxdata.Auth{}, nil, err
	}
	if existing != nil && existing.Status == domain.SubmissionStatusGraded {
		return ctxdata.Auth{}, nil, ErrAlreadyGraded
	}

	return auth, assignment, nil
}

func (s *submissionService) upsert(ctx context.Context, assignment *domain.Assignment, submission *domain.Submission) (*domain.Submission, error) {
	submittedAt := s.now().UTC()
	submission.Status = domain.SubmissionStatusSubmitted
	submission.SubmittedAt = &submittedAt

	if err := s.submissionRepo.Upsert(ctx, submission); err != nil {
		return nil, err
	}

	s.hub.Publish(watch.Event{
		Topic:   watch.SubmissionsTopic(assignment.ID),
		Kind:    watch.KindSubmissionUpserted,
		Payload: submission,
	})

	return submission, nil
}
