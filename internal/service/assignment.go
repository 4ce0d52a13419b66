package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"classwork_service/internal/domain"
	"classwork_service/internal/repository"
	"classwork_service/internal/watch"
	"classwork_service/pkg/ctxdata"
	"classwork_service/pkg/logger"
)

type AssignmentServiceInterface interface {
	CreateAssignment(ctx context.Context, req *domain.Assignment) (*domain.Assignment, error)
	GenerateMCQ(ctx context.Context, topic string, count int, grade string) ([]domain.MCQQuestion, error)
	ListAssignments(ctx context.Context, creatorOnly bool) ([]*domain.Assignment, error)
	GetAssignment(ctx context.Context, id uuid.UUID) (*domain.Assignment, error)
	WatchAssignments(ctx context.Context, classID string) (<-chan watch.Event, error)
}

type AssignmentService struct {
	assignmentRepo repository.AssignmentRepositoryInterface
	contentClient  ContentClient
	hub            *watch.Hub
	log            *logger.Logger
}

func NewAssignmentService(
	assignmentRepo repository.AssignmentRepositoryInterface,
	contentClient ContentClient,
	hub *watch.Hub,
	log *logger.Logger,
) *AssignmentService {
	return &AssignmentService{
		assignmentRepo: assignmentRepo,
		contentClient:  contentClient,
		hub:            hub,
		log:            log,
	}
}

func (s *AssignmentService) CreateAssignment(ctx context.Context, req *domain.Assignment) (*domain.Assignment, error) {
	auth, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if auth.Role != ctxdata.RoleTeacher {
		return nil, ErrPermissionDenied
	}

	classID := req.ClassID
	if classID == "" {
		classID, err = requireClass(auth)
		if err != nil {
			return nil, err
		}
	}

	if err := validateAssignment(req); err != nil {
		return nil, err
	}

	assignment := &domain.Assignment{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Type:        req.Type,
		DueDate:     req.DueDate.UTC(),
		ClassID:     classID,
		StudentIDs:  req.StudentIDs,
		CreatedBy:   auth.UserID,
	}
	if assignment.Type == domain.AssignmentTypeMCQ {
		assignment.Questions = req.Questions
	}

	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, err
	}

	s.hub.Publish(watch.Event{
		Topic:   watch.AssignmentsTopic(classID),
		Kind:    watch.KindAssignmentCreated,
		Payload: assignment,
	})

	return assignment, nil
}

// GenerateMCQ asks the content generation service for questions. Malformed
// entries are already filtered by the client; here they are only counted.
func (s *AssignmentService) GenerateMCQ(ctx context.Context, topic string, count int, grade string) ([]domain.MCQQuestion, error) {
	auth, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if auth.Role != ctxdata.RoleTeacher {
		return nil, ErrPermissionDenied
	}

	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrValidation)
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: question count must be positive", ErrValidation)
	}

	questions, dropped, err := s.contentClient.Generate(ctx, topic, count, grade)
	if err != nil {
		return nil, fmt.Errorf("failed to generate questions: %w", err)
	}
	if dropped > 0 {
		s.log.Warn("dropped malformed generated questions",
			zap.Int("dropped", dropped),
			zap.String("topic", topic),
		)
	}

	return questions, nil
}

// ListAssignments returns the assignments visible to the caller, newest
// first. Teachers may narrow to their own assignments with creatorOnly;
// students additionally see only assignments targeted at them.
func (s *AssignmentService) ListAssignments(ctx context.Context, creatorOnly bool) ([]*domain.Assignment, error) {
	auth, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	classID, err := requireClass(auth)
	if err != nil {
		return nil, err
	}

	filter := domain.AssignmentFilter{ClassID: classID}
	if creatorOnly {
		if auth.Role != ctxdata.RoleTeacher {
			return nil, ErrPermissionDenied
		}
		filter.CreatedBy = auth.UserID
	}

	assignments, skipped, err := s.assignmentRepo.ListByFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		s.log.Warn("skipped assignments with unparsable due dates",
			zap.Int("skipped", skipped),
			zap.String("class_id", classID),
		)
	}

	if auth.Role == ctxdata.RoleStudent {
		visible := assignments[:0]
		for _, a := range assignments {
			if a.AssignedTo(auth.UserID) {
				visible = append(visible, a)
			}
		}
		assignments = visible
	}

	return assignments, nil
}

func (s *AssignmentService) GetAssignment(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	auth, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}

	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch auth.Role {
	case ctxdata.RoleTeacher:
		if assignment.CreatedBy != auth.UserID && assignment.ClassID != auth.ClassID {
			return nil, ErrPermissionDenied
		}
	case ctxdata.RoleStudent:
		if assignment.ClassID != auth.ClassID || !assignment.AssignedTo(auth.UserID) {
			return nil, ErrPermissionDenied
		}
	}

	return assignment, nil
}

// WatchAssignments opens a live event stream for a class. The same visibility
// rule as ListAssignments applies: the caller must belong to the class.
func (s *AssignmentService) WatchAssignments(ctx context.Context, classID string) (<-chan watch.Event, error) {
	auth, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if auth.ClassID != classID {
		return nil, ErrPermissionDenied
	}

	return s.hub.Subscribe(ctx, watch.AssignmentsTopic(classID)), nil
}

func validateAssignment(a *domain.Assignment) error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if a.DueDate.IsZero() {
		return fmt.Errorf("%w: due date is required", ErrValidation)
	}
	if !a.Type.IsValid() {
		return fmt.Errorf("%w: unknown assignment type %q", ErrValidation, a.Type)
	}
	if a.Type != domain.AssignmentTypeMCQ {
		return nil
	}

	if len(a.Questions) == 0 {
		return fmt.Errorf("%w: MCQ assignment needs at least one question", ErrValidation)
	}
	for i, q := range a.Questions {
		if strings.TrimSpace(q.Question) == "" {
			return fmt.Errorf("%w: question %d has no text", ErrValidation, i+1)
		}
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: question %d has no options", ErrValidation, i+1)
		}
		found := false
		for _, opt := range q.Options {
			if opt == q.CorrectAnswer {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: question %d correct answer is not among its options", ErrValidation, i+1)
		}
	}

	return nil
}
