package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"classwork_service/internal/domain"
	"classwork_service/internal/service"
	"classwork_service/pkg/logger"
)

type Handler struct {
	assignmentService service.AssignmentServiceInterface
	submissionService service.SubmissionServiceInterface
	gradeService      service.GradeServiceInterface
	logger            *logger.Logger
}

func NewHandler(
	assignmentService service.AssignmentServiceInterface,
	submissionService service.SubmissionServiceInterface,
	gradeService service.GradeServiceInterface,
	logger *logger.Logger,
) *Handler {
	return &Handler{
		assignmentService: assignmentService,
		submissionService: submissionService,
		gradeService:      gradeService,
		logger:            logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/assignments", h.CreateAssignment)
	r.Get("/assignments", h.ListAssignments)
	r.Get("/assignments/{assignment_id}", h.GetAssignment)
	r.Get("/assignments/{assignment_id}/status", h.GetStatus)

	r.Post("/assignments/{assignment_id}/submissions/mcq", h.SubmitMCQ)
	r.Post("/assignments/{assignment_id}/submissions/response", h.SubmitResponse)
	r.Get("/assignments/{assignment_id}/submissions", h.ListSubmissions)
	r.Post("/assignments/{assignment_id}/submissions/{student_id}/grade", h.GradeSubmission)

	r.Post("/grades", h.RecordGrade)
	r.Get("/students/{student_id}/grades/average", h.AverageFor)
	r.Get("/students/{student_id}/grades/total", h.TotalFor)

	r.Post("/questions/generate", h.GenerateMCQ)

	r.Get("/classes/{class_id}/assignments/watch", h.WatchAssignments)
	r.Get("/assignments/{assignment_id}/submissions/watch", h.WatchSubmissions)
}

type mcqQuestionPayload struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

type createAssignmentRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Type        string               `json:"type"`
	DueDate     json.RawMessage      `json:"due_date"`
	ClassID     string               `json:"class_id"`
	StudentIDs  []string             `json:"student_ids"`
	Questions   []mcqQuestionPayload `json:"questions"`
}

type assignmentResponse struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Type        string               `json:"type"`
	DueDate     time.Time            `json:"due_date"`
	ClassID     string               `json:"class_id"`
	StudentIDs  []string             `json:"student_ids"`
	CreatedBy   string               `json:"created_by"`
	CreatedAt   time.Time            `json:"created_at"`
	Questions   []mcqQuestionPayload `json:"questions,omitempty"`
}

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req createAssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	assignment := &domain.Assignment{
		Title:       req.Title,
		Description: req.Description,
		Type:        domain.ToAssignmentType(req.Type),
		ClassID:     req.ClassID,
		StudentIDs:  req.StudentIDs,
	}
	for _, q := range req.Questions {
		assignment.Questions = append(assignment.Questions, domain.MCQQuestion{
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
		})
	}

	// Due dates are accepted in any of the legacy representations.
	if len(req.DueDate) > 0 {
		due, err := domain.NormalizeDueDate(req.DueDate)
		if err != nil {
			writeError(w, err)
			return
		}
		assignment.DueDate = due
	}

	created, err := h.assignmentService.CreateAssignment(r.Context(), assignment)
	if err != nil {
		h.logger.WithTrace(r.Context()).Error("failed to create assignment", zap.Error(err))
		writeError(w, err)
		return
	}

	h.logger.WithTrace(r.Context()).Info("assignment created",
		zap.String("assignment_id", created.ID.String()),
		zap.String("class_id", created.ClassID),
	)
	writeJSON(w, http.StatusCreated, toAssignmentResponse(created))
}

func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	creatorOnly := r.URL.Query().Get("mine") == "true"

	assignments, err := h.assignmentService.ListAssignments(r.Context(), creatorOnly)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]assignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		resp = append(resp, toAssignmentResponse(a))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"assignments": resp})
}

func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "assignment_id")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	assignment, err := h.assignmentService.GetAssignment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAssignmentResponse(assignment))
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "assignment_id")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	studentID := r.URL.Query().Get("student_id")
	if studentID == "" {
		writeErrorJSON(w, http.StatusBadRequest, "student_id is required")
		return
	}

	status, err := h.submissionService.GetStatus(r.Context(), id, studentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

type submitMCQRequest struct {
	Answers []string `json:"answers"`
}

type submitResponseRequest struct {
	Text string `json:"text"`
}

type submissionResponse struct {
	ID           string     `json:"id"`
	AssignmentID string     `json:"assignment_id"`
	StudentID    string     `json:"student_id"`
	Status       string     `json:"status"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
	Answers      []string   `json:"answers,omitempty"`
	ResponseText *string    `json:"response_text,omitempty"`
	Grade        *float64   `json:"grade,omitempty"`
	Feedback     *string    `json:"feedback,omitempty"`
}

func (h *Handler) SubmitMCQ(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "assignment_id")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	var req submitMCQRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	submission, err := h.submissionService.SubmitMCQ(r.Context(), id, req.Answers)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSubmissionResponse(submission))
}

func (h *Handler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "assignment_id")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	var req submitResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	submission, err := h.submissionService.SubmitResponse(r.Context(), id, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSubmissionResponse(submission))
}

func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "assignment_id")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	submissions, err := h.submissionService.ListSubmissions(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]submissionResponse, 0, len(submissions))
	for _, sub := range submissions {
		resp = append(resp, toSubmissionResponse(sub))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"submissions": resp})
}

type gradeSubmissionRequest struct {
	Score    *float64 `json:"score"`
	Feedback string   `json:"feedback"`
}

type recordGradeRequest struct {
	StudentID string  `json:"student_id"`
	TaskName  string  `json:"task_name"`
	Score     float64 `json:"score"`
	Feedback  string  `json:"feedback"`
}

type gradeRecordResponse struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	TaskName  string    `json:"task_name"`
	Score     float64   `json:"score"`
	Feedback  string    `json:"feedback"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) GradeSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "assignment_id")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}
	studentID := chi.URLParam(r, "student_id")

	var req gradeSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.gradeService.GradeSubmission(r.Context(), id, studentID, req.Score, req.Feedback)
	if err != nil {
		h.logger.WithTrace(r.Context()).Error("failed to grade submission",
			zap.Error(err),
			zap.String("assignment_id", id.String()),
			zap.String("student_id", studentID),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toGradeRecordResponse(record))
}

func (h *Handler) RecordGrade(w http.ResponseWriter, r *http.Request) {
	var req recordGradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.gradeService.RecordGrade(r.Context(), req.StudentID, req.TaskName, req.Score, req.Feedback)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toGradeRecordResponse(record))
}

func (h *Handler) AverageFor(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "student_id")
	taskMatch := r.URL.Query().Get("task")

	avg, err := h.gradeService.AverageFor(r.Context(), studentID, taskMatch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]float64{"average": avg})
}

func (h *Handler) TotalFor(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "student_id")

	total, err := h.gradeService.TotalFor(r.Context(), studentID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]float64{"total": total})
}

type generateMCQRequest struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
	Grade string `json:"grade"`
}

func (h *Handler) GenerateMCQ(w http.ResponseWriter, r *http.Request) {
	var req generateMCQRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	questions, err := h.assignmentService.GenerateMCQ(r.Context(), req.Topic, req.Count, req.Grade)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]mcqQuestionPayload, 0, len(questions))
	for _, q := range questions {
		resp = append(resp, mcqQuestionPayload{
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"questions": resp})
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, name))
}

func toAssignmentResponse(a *domain.Assignment) assignmentResponse {
	resp := assignmentResponse{
		ID:          a.ID.String(),
		Title:       a.Title,
		Description: a.Description,
		Type:        string(a.Type),
		DueDate:     a.DueDate,
		ClassID:     a.ClassID,
		StudentIDs:  a.StudentIDs,
		CreatedBy:   a.CreatedBy,
		CreatedAt:   a.CreatedAt,
	}
	for _, q := range a.Questions {
		resp.Questions = append(resp.Questions, mcqQuestionPayload{
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
		})
	}
	return resp
}

func toSubmissionResponse(s *domain.Submission) submissionResponse {
	return submissionResponse{
		ID:           s.ID.String(),
		AssignmentID: s.AssignmentID.String(),
		StudentID:    s.StudentID,
		Status:       string(s.Status),
		SubmittedAt:  s.SubmittedAt,
		Answers:      s.Answers,
		ResponseText: s.ResponseText,
		Grade:        s.Grade,
		Feedback:     s.Feedback,
	}
}

func toGradeRecordResponse(rec *domain.GradeRecord) gradeRecordResponse {
	return gradeRecordResponse{
		ID:        rec.ID.String(),
		StudentID: rec.StudentID,
		TaskName:  rec.TaskName,
		Score:     rec.Score,
		Feedback:  rec.Feedback,
		CreatedAt: rec.CreatedAt,
	}
}
