package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"classwork_service/internal/domain"
	"classwork_service/pkg/ctxdata"
)

type MockAssignmentRepo struct {
	mock.Mock
}

func (m *MockAssignmentRepo) Create(ctx context.Context, assignment *domain.Assignment) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

func (m *MockAssignmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Assignment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Assignment), args.Error(1)
}

func (m *MockAssignmentRepo) ListByFilter(ctx context.Context, filter domain.AssignmentFilter) ([]*domain.Assignment, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.Assignment), args.Int(1), args.Error(2)
}

func (m *MockAssignmentRepo) FindDueSoon(ctx context.Context, window time.Duration) ([]*domain.Assignment, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Assignment), args.Error(1)
}

type MockSubmissionRepo struct {
	mock.Mock
}

func (m *MockSubmissionRepo) Upsert(ctx context.Context, submission *domain.Submission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockSubmissionRepo) GetByAssignmentAndStudent(ctx context.Context, assignmentID uuid.UUID, studentID string) (*domain.Submission, error) {
	args := m.Called(ctx, assignmentID, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Submission), args.Error(1)
}

func (m *MockSubmissionRepo) ListByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]*domain.Submission, error) {
	args := m.Called(ctx, assignmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Submission), args.Error(1)
}

func (m *MockSubmissionRepo) MarkGraded(ctx context.Context, assignmentID uuid.UUID, studentID string, grade float64, feedback string) error {
	args := m.Called(ctx, assignmentID, studentID, grade, feedback)
	return args.Error(0)
}

type MockGradeRepo struct {
	mock.Mock
}

func (m *MockGradeRepo) Append(ctx context.Context, record *domain.GradeRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockGradeRepo) ListByStudent(ctx context.Context, studentID string) ([]*domain.GradeRecord, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.GradeRecord), args.Error(1)
}

func (m *MockGradeRepo) ListByStudentMatching(ctx context.Context, studentID, taskMatch string) ([]*domain.GradeRecord, error) {
	args := m.Called(ctx, studentID, taskMatch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.GradeRecord), args.Error(1)
}

type MockContentClient struct {
	mock.Mock
}

func (m *MockContentClient) Generate(ctx context.Context, topic string, count int, grade string) ([]domain.MCQQuestion, int, error) {
	args := m.Called(ctx, topic, count, grade)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.MCQQuestion), args.Int(1), args.Error(2)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Send(ctx context.Context, topic, kind, key string, payload interface{}) error {
	args := m.Called(ctx, topic, kind, key, payload)
	return args.Error(0)
}

// fakeCache is a plain in-memory stand-in for the redis aggregate cache.
type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.data[key]
	return val, ok
}

func (c *fakeCache) Set(_ context.Context, key string, data []byte, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

func (c *fakeCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

func teacherCtx(userID, classID string) context.Context {
	return ctxdata.WithAuth(context.Background(), ctxdata.Auth{
		UserID:  userID,
		Role:    ctxdata.RoleTeacher,
		ClassID: classID,
	})
}

func studentCtx(userID, classID string) context.Context {
	return ctxdata.WithAuth(context.Background(), ctxdata.Auth{
		UserID:  userID,
		Role:    ctxdata.RoleStudent,
		ClassID: classID,
	})
}
