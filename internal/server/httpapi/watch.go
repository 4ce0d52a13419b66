package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"classwork_service/internal/watch"
)

// WatchAssignments streams assignment changes for a class as server-sent
// events. The subscription is opened through the service layer so the same
// visibility rules apply as for list reads; the stream ends when the client
// disconnects and nothing is retained for late subscribers.
func (h *Handler) WatchAssignments(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "class_id")

	events, err := h.assignmentService.WatchAssignments(r.Context(), classID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.streamEvents(w, watch.AssignmentsTopic(classID), events)
}

// WatchSubmissions streams submission changes for one assignment. Teachers
// only; the service enforces it.
func (h *Handler) WatchSubmissions(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "assignment_id")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	events, err := h.submissionService.WatchSubmissions(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	h.streamEvents(w, watch.SubmissionsTopic(id), events)
}

func (h *Handler) streamEvents(w http.ResponseWriter, topic string, events <-chan watch.Event) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErrorJSON(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for event := range events {
		payload, err := json.Marshal(event.Payload)
		if err != nil {
			h.logger.Error("failed to marshal watch event",
				zap.Error(err),
				zap.String("topic", topic),
			)
			continue
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Kind, payload)
		flusher.Flush()
	}
}
