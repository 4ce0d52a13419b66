package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"classwork_service/internal/domain"
	"classwork_service/internal/repository"
	"classwork_service/internal/watch"
	"classwork_service/pkg/ctxdata"
)

const (
	TopicGradeRecorded = "grade-recorded"

	KindGradeRecorded    = "grade_recorded"
	KindSubmissionGraded = "submission_graded"

	aggregateCacheTTL = 5 * time.Minute
)

type GradeServiceInterface interface {
	RecordGrade(ctx context.Context, studentID, taskName string, score float64, feedback string) (*domain.GradeRecord, error)
	AverageFor(ctx context.Context, studentID, taskMatch string) (float64, error)
	TotalFor(ctx context.Context, studentID string) (float64, error)
	GradeSubmission(ctx context.Context, assignmentID uuid.UUID, studentID string, score *float64, feedback string) (*domain.GradeRecord, error)
}

type gradeService struct {
	gradeRepo      repository.GradeRepositoryInterface
	submissionRepo repository.SubmissionRepositoryInterface
	assignmentRepo repository.AssignmentRepositoryInterface
	cache          AggregateCache
	producer       EventProducer
	hub            *watch.Hub
}

func NewGradeService(
	gradeRepo repository.GradeRepositoryInterface,
	submissionRepo repository.SubmissionRepositoryInterface,
	assignmentRepo repository.AssignmentRepositoryInterface,
	cache AggregateCache,
	producer EventProducer,
	hub *watch.Hub,
) GradeServiceInterface {
	return &gradeService{
		gradeRepo:      gradeRepo,
		submissionRepo: submissionRepo,
		assignmentRepo: assignmentRepo,
		cache:          cache,
		producer:       producer,
		hub:            hub,
	}
}

// RecordGrade appends one entry to the student's grade log. Out-of-range
// scores are clamped into [0, 100], never rejected.
func (s *gradeService) RecordGrade(ctx context.Context, studentID, taskName string, score float64, feedback string) (*domain.GradeRecord, error) {
	auth, err := requireAuth(ctx)
	if err != nil {
		return nil, err
	}
	if auth.Role != ctxdata.RoleTeacher {
		return nil, ErrPermissionDenied
	}
	if studentID == "" || taskName == "" {
		return nil, fmt.Errorf("%w: student id and task name are required", ErrValidation)
	}

	record := &domain.GradeRecord{
		StudentID: studentID,
		TaskName:  taskName,
		Score:     domain.ClampScore(score),
		Feedback:  feedback,
	}

	if err := s.gradeRepo.Append(ctx, record); err != nil {
		return nil, err
	}

	s.invalidateAggregates(ctx, studentID)

	if err := s.producer.Send(ctx, TopicGradeRecorded, KindGradeRecorded, record.StudentID, map[string]interface{}{
		"record_id":  record.ID,
		"student_id": record.StudentID,
		"task_name":  record.TaskName,
		"score":      record.Score,
	}); err != nil {
		// Event delivery is best-effort; the grade is already durable.
		return record, nil
	}

	return record, nil
}

// AverageFor computes the arithmetic mean of all log entries whose task name
// contains taskMatch (case-insensitive). An empty match set yields exactly 0.
func (s *gradeService) AverageFor(ctx context.Context, studentID, taskMatch string) (float64, error) {
	if err := s.authorizeRead(ctx, studentID); err != nil {
		return 0, err
	}

	key := fmt.Sprintf("avg:%s:%s", studentID, taskMatch)
	if val, ok := s.readCached(ctx, key); ok {
		return val, nil
	}

	records, err := s.gradeRepo.ListByStudentMatching(ctx, studentID, taskMatch)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	sum := 0.0
	for _, rec := range records {
		sum += rec.Score
	}
	avg := sum / float64(len(records))

	s.writeCached(ctx, key, avg)
	return avg, nil
}

// TotalFor is the unweighted sum of every score in the student's log. It is a
// different aggregate than AverageFor and the two are not interchangeable;
// separate screens rely on each.
func (s *gradeService) TotalFor(ctx context.Context, studentID string) (float64, error) {
	if err := s.authorizeRead(ctx, studentID); err != nil {
		return 0, err
	}

	key := fmt.Sprintf("total:%s", studentID)
	if val, ok := s.readCached(ctx, key); ok {
		return val, nil
	}

	records, err := s.gradeRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return 0, err
	}

	total := 0.0
	for _, rec := range records {
		total += rec.Score
	}

	s.writeCached(ctx, key, total)
	return total, nil
}

// GradeSubmission is the teacher grading action. MCQ submissions are scored
// automatically; other types need an explicit score. The grade record append
// and the submission status update are two independent writes with no
// transaction across them: if the second fails, the grade stays recorded and
// the error is returned for the caller to retry.
func (s *gradeService) GradeSubmission(ctx context.Context, assignmentID uuid.UUID, studentID string, score *float64, feedback string) (*domain.GradeRecord, error) {
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
	if assignment.CreatedBy != auth.UserID {
		return nil, ErrPermissionDenied
	}

	submission, err := s.submissionRepo.GetByAssignmentAndStudent(ctx, assignmentID, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: nothing submitted yet", ErrValidation)
		}
		return nil, err
	}
	if submission.Status == domain.SubmissionStatusGraded {
		return nil, ErrAlreadyGraded
	}

	var finalScore float64
	switch {
	case assignment.Type == domain.AssignmentTypeMCQ:
		finalScore = domain.ScoreMCQ(assignment.Questions, submission.Answers)
	case score != nil:
		finalScore = domain.ClampScore(*score)
	default:
		return nil, fmt.Errorf("%w: a score is required for this assignment type", ErrValidation)
	}

	record := &domain.GradeRecord{
		StudentID: studentID,
		TaskName:  assignment.Title,
		Score:     finalScore,
		Feedback:  feedback,
	}
	if err := s.gradeRepo.Append(ctx, record); err != nil {
		return nil, err
	}

	s.invalidateAggregates(ctx, studentID)
	_ = s.producer.Send(ctx, TopicGradeRecorded, KindSubmissionGraded, record.StudentID, map[string]interface{}{
		"record_id":     record.ID,
		"student_id":    record.StudentID,
		"assignment_id": assignmentID,
		"score":         record.Score,
	})

	if err := s.submissionRepo.MarkGraded(ctx, assignmentID, studentID, finalScore, feedback); err != nil {
		return record, fmt.Errorf("grade recorded but submission not marked graded: %w", err)
	}

	s.hub.Publish(watch.Event{
		Topic:   watch.SubmissionsTopic(assignmentID),
		Kind:    watch.KindSubmissionGraded,
		Payload: record,
	})

	return record, nil
}

func (s *gradeService) authorizeRead(ctx context.Context, studentID string) error {
	auth, err := requireAuth(ctx)
	if err != nil {
		return err
	}
	if auth.Role == ctxdata.RoleStudent && auth.UserID != studentID {
		return ErrPermissionDenied
	}
	return nil
}

func (s *gradeService) readCached(ctx context.Context, key string) (float64, bool) {
	raw, ok := s.cache.Get(ctx, key)
	if !ok {
		return 0, false
	}
	val, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, false
	}
	return val, true
}

func (s *gradeService) writeCached(ctx context.Context, key string, val float64) {
	s.cache.Set(ctx, key, []byte(strconv.FormatFloat(val, 'f', -1, 64)), aggregateCacheTTL)
}

func (s *gradeService) invalidateAggregates(ctx context.Context, studentID string) {
	// Averages are keyed by an arbitrary task match, so only the total can be
	// dropped precisely; averages expire via their TTL.
	s.cache.Delete(ctx, fmt.Sprintf("total:%s", studentID))
}
