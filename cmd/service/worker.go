package main

import (
	"context"
	"time"

	"classwork_service/internal/domain"
	"classwork_service/internal/repository"
	"classwork_service/pkg/kafka"
	"classwork_service/pkg/logger"
)

const (
	topicOverdue        = "assignment-overdue"
	kindDueSoonReminder = "due_soon_reminder"
)

// OverdueWorker periodically looks for assignments approaching their due date
// with students who have not submitted, and publishes reminder events. It
// only emits events; overdue remains a derived display status and is never
// written back to the store.
type OverdueWorker struct {
	assignmentRepo repository.AssignmentRepositoryInterface
	submissionRepo repository.SubmissionRepositoryInterface
	kafkaProducer  *kafka.Producer
	logger         *logger.Logger
	interval       time.Duration
	window         time.Duration
}

func NewOverdueWorker(
	assignmentRepo repository.AssignmentRepositoryInterface,
	submissionRepo repository.SubmissionRepositoryInterface,
	kafkaProducer *kafka.Producer,
	logger *logger.Logger,
) *OverdueWorker {
	return &OverdueWorker{
		assignmentRepo: assignmentRepo,
		submissionRepo: submissionRepo,
		kafkaProducer:  kafkaProducer,
		logger:         logger,
		interval:       time.Minute,
		window:         24 * time.Hour,
	}
}

func (w *OverdueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Overdue worker stopped")
			return
		case <-ticker.C:
			w.processReminders(ctx)
		}
	}
}

func (w *OverdueWorker) processReminders(ctx context.Context) {
	assignments, err := w.assignmentRepo.FindDueSoon(ctx, w.window)
	if err != nil {
		w.logger.Errorf("Failed to get assignments due soon: %v", err)
		return
	}

	for _, assignment := range assignments {
		pending, err := w.pendingStudents(ctx, assignment)
		if err != nil {
			w.logger.Errorf("Failed to resolve pending students for assignment %s: %v", assignment.ID, err)
			continue
		}
		if !assignment.AssignedToAll() && len(pending) == 0 {
			continue
		}

		message := map[string]interface{}{
			"assignment_id": assignment.ID,
			"class_id":      assignment.ClassID,
			"title":         assignment.Title,
			"due_date":      assignment.DueDate,
			"student_ids":   pending,
		}

		if err := w.kafkaProducer.Send(ctx, topicOverdue, kindDueSoonReminder, assignment.ID.String(), message); err != nil {
			w.logger.Errorf("Failed to send reminder for assignment %s: %v", assignment.ID, err)
			continue
		}

		w.logger.Infof("Sent reminder for assignment %s to %d students", assignment.ID, len(pending))
	}
}

// pendingStudents returns the explicitly targeted students who have not
// submitted yet. Whole-class assignments have no explicit roster here, so the
// reminder carries an empty list and the consumer resolves the class.
func (w *OverdueWorker) pendingStudents(ctx context.Context, assignment *domain.Assignment) ([]string, error) {
	submissions, err := w.submissionRepo.ListByAssignment(ctx, assignment.ID)
	if err != nil {
		return nil, err
	}

	submitted := make(map[string]bool, len(submissions))
	for _, sub := range submissions {
		if sub.Status != domain.SubmissionStatusNotStarted {
			submitted[sub.StudentID] = true
		}
	}

	var pending []string
	for _, studentID := range assignment.StudentIDs {
		if !submitted[studentID] {
			pending = append(pending, studentID)
		}
	}
	return pending, nil
}
