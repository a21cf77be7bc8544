package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/helixir/author-analytics-service/internal/dashboard"
)

const (
	// sseHeartbeatInterval is how often a comment line keeps an idle
	// stream alive through proxies.
	sseHeartbeatInterval = 15 * time.Second
	// sseMaxDuration is the maximum time an SSE stream may remain open.
	sseMaxDuration = 1 * time.Hour
)

// sseEvent represents an event sent via SSE.
type sseEvent struct {
	EventType string              `json:"event_type"`
	JobID     string              `json:"job_id"`
	Progress  *dashboard.Progress `json:"progress,omitempty"`
	Message   string              `json:"message,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// streamReportEvents handles GET /api/v1/reports/{reportID}/events (SSE).
// The stream replays the final state for already-terminal jobs; otherwise it
// relays pipeline events and closes on the terminal one.
func (s *Server) streamReportEvents(w http.ResponseWriter, r *http.Request) {
	jobID, ok := parseUUID(w, chi.URLParam(r, "reportID"), "report_id")
	if !ok {
		return
	}

	job, err := s.store.Get(jobID.String())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	events, cancelSub, err := s.store.Subscribe(jobID.String())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	defer cancelSub()

	// Set SSE headers.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Send initial state.
	started := sseEvent{
		EventType: "stream_started",
		JobID:     job.ID,
		Message:   "progress stream started",
		Timestamp: time.Now(),
	}
	if job.Progress.Stage != "" {
		progress := job.Progress
		started.Progress = &progress
	}
	sendSSEEvent(w, flusher, started)

	deadlineTimer := time.NewTimer(sseMaxDuration)
	defer deadlineTimer.Stop()
	ticker := time.NewTicker(sseHeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case <-deadlineTimer.C:
			sendSSEEvent(w, flusher, sseEvent{
				EventType: "timeout",
				JobID:     job.ID,
				Message:   "stream max duration exceeded",
				Timestamp: time.Now(),
			})
			return

		case event, open := <-events:
			if !open {
				// The subscriber buffer overflowed before the terminal
				// event could be queued. Send the authoritative state.
				if current, getErr := s.store.Get(job.ID); getErr == nil && current.Status.IsTerminal() {
					progress := current.Progress
					sendSSEEvent(w, flusher, sseEvent{
						EventType: eventTypeForStage(progress.Stage),
						JobID:     job.ID,
						Progress:  &progress,
						Timestamp: time.Now(),
					})
				}
				return
			}

			progress := event
			sendSSEEvent(w, flusher, sseEvent{
				EventType: eventTypeForStage(event.Stage),
				JobID:     job.ID,
				Progress:  &progress,
				Timestamp: time.Now(),
			})
			if event.Stage == dashboard.StageCompleted || event.Stage == dashboard.StageFailed {
				return
			}

		case <-ticker.C:
			// Comment line, ignored by SSE clients.
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

// sendSSEEvent writes a single SSE event to the response writer.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event sseEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.EventType, data)
	flusher.Flush()
}

// eventTypeForStage names the SSE event for a pipeline stage.
func eventTypeForStage(stage dashboard.Stage) string {
	switch stage {
	case dashboard.StageCompleted:
		return "completed"
	case dashboard.StageFailed:
		return "failed"
	default:
		return "progress"
	}
}
