package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/manav03panchal/tasktime/internal/api"
	"github.com/manav03panchal/tasktime/internal/errors"
	"github.com/manav03panchal/tasktime/internal/logging"
	"github.com/manav03panchal/tasktime/internal/model"
	"github.com/manav03panchal/tasktime/internal/notify"
	"github.com/manav03panchal/tasktime/internal/validate"
)

// Paging limits of GET /api/tasks.
const (
	DefaultPageSize = 10
	MaxPageSize     = 1000
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.health.Check(r.Context())
	code := http.StatusOK
	if status.Status != StatusOK {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 0)
	if err != nil || page < 0 {
		writeErrorMessage(w, http.StatusBadRequest, api.CodeInvalid, "page must be a non-negative integer")
		return
	}
	size, err := queryInt(r, "size", DefaultPageSize)
	if err != nil || size <= 0 {
		writeErrorMessage(w, http.StatusBadRequest, api.CodeInvalid, "size must be a positive integer")
		return
	}
	size = min(size, MaxPageSize)

	tasks, err := s.tasks.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sortByID(tasks)

	total := len(tasks)
	start := min(page*size, total)
	end := min(start+size, total)
	content := make([]api.TaskDTO, 0, end-start)
	for _, t := range tasks[start:end] {
		content = append(content, toDTO(t))
	}

	writeJSON(w, http.StatusOK, api.Page{
		Content:       content,
		TotalElements: int64(total),
		TotalPages:    (total + size - 1) / size,
		Number:        page,
		Size:          size,
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(t))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req api.CreateRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	t := api.FromDTO(req.Task)
	t.ID = ""
	t.StartedAt = nil
	if req.Task.StartTime != nil {
		t.CreatedAt = *req.Task.StartTime
	}
	validate.SanitizeTask(t)
	if err := validate.Task(t); err != nil {
		s.writeError(w, r, err)
		return
	}

	created, err := s.tasks.Create(r.Context(), t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.RecordTaskCreated()
	logging.FromContext(r.Context()).InfoContext(r.Context(), "task created", logging.KeyTaskID, created.ID)
	writeJSON(w, http.StatusCreated, toDTO(created))
}

// handleUpdate replaces a task. The stored assignee is kept; only /assign
// changes it. When the submitted minutes equal the stored ones, the stored
// seconds are kept so a round trip through the wire format loses nothing.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	var d api.TaskDTO
	if err := decode(r, &d); err != nil {
		s.writeError(w, r, err)
		return
	}
	existing, err := s.tasks.Get(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	t := api.FromDTO(d)
	t.ID = id
	t.AssignedUser = existing.AssignedUser
	t.CreatedAt = existing.CreatedAt
	if t.TimeLogged == existing.TimeLogged/60*60 {
		t.TimeLogged = existing.TimeLogged
	}
	validate.SanitizeTask(t)
	if err := validate.Task(t); err != nil {
		s.writeError(w, r, err)
		return
	}

	updated, err := s.tasks.Update(ctx, id, t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if updated.Status != existing.Status && updated.AssignedUser != "" {
		s.notify(ctx, notify.StatusChanged(updated, existing.Status))
	}
	writeJSON(w, http.StatusOK, toDTO(updated))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ok, err := s.tasks.Delete(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !ok {
		s.writeError(w, r, errors.Wrapf(errors.ErrTaskNotFound, "task %s", id))
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.StartTimer(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.RecordTimerStarted()
	writeJSON(w, http.StatusOK, toDTO(t))
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]
	before, err := s.tasks.Get(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.tasks.StopTimer(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.RecordTimerStopped(t.TimeLogged - before.TimeLogged)
	if t.AssignedUser != "" && t.Status != before.Status {
		s.notify(ctx, notify.StatusChanged(t, before.Status))
	}
	writeJSON(w, http.StatusOK, toDTO(t))
}

// handleAssign takes the user id as a JSON string or number.
func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var raw json.RawMessage
	if err := decode(r, &raw); err != nil {
		s.writeError(w, r, err)
		return
	}
	userID, err := parseUserID(raw)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	t, err := s.tasks.Assign(ctx, mux.Vars(r)["id"], userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.notify(ctx, notify.Assigned(t))
	writeJSON(w, http.StatusOK, toDTO(t))
}

func parseUserID(raw json.RawMessage) (string, error) {
	var userID string
	if err := json.Unmarshal(raw, &userID); err != nil {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", errors.NewUserError("Invalid user ID", "Send the user ID as a JSON string or number")
		}
		userID = n.String()
	}
	userID = strings.TrimSpace(userID)
	if err := validate.UserID(userID); err != nil {
		return "", err
	}
	return userID, nil
}

// notify delivers n in the background. Delivery outlives the request.
func (s *Server) notify(ctx context.Context, n *notify.Notification) {
	if s.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for _, res := range s.notifier.Send(ctx, n) {
			s.metrics.RecordNotification(res.Success)
		}
	}()
}

// toDTO is api.ToDTO plus the scheduled start, which the server keeps as
// the creation time.
func toDTO(t *model.Task) api.TaskDTO {
	d := api.ToDTO(t)
	if !t.CreatedAt.IsZero() {
		created := t.CreatedAt.UTC()
		d.StartTime = &created
	}
	return d
}

func sortByID(tasks []*model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, aerr := strconv.ParseInt(tasks[i].ID, 10, 64)
		b, berr := strconv.ParseInt(tasks[j].ID, 10, 64)
		if aerr != nil || berr != nil {
			return aerr == nil && berr != nil
		}
		return a < b
	})
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func decode(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.NewUserError("Cannot read request body", "Retry the request")
	}
	if len(body) == 0 {
		return errors.NewUserError("Request body is empty", "Send a JSON body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &errors.UserError{
			Message:    "Malformed JSON: " + err.Error(),
			Suggestion: "Check the request body",
			Cause:      err,
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to write response", logging.KeyError, err)
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, api.ErrorResponse{Error: msg, Code: code})
}

// writeError maps err to a status code and an api.ErrorResponse.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		s.metrics.RecordError(errors.Classify(err).String(), err)
		logging.FromContext(r.Context()).ErrorContext(r.Context(), "request failed",
			logging.KeyEndpoint, r.Method+" "+r.URL.Path,
			logging.KeyError, err,
		)
		msg = "internal error"
	}
	writeErrorMessage(w, status, code, msg)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errors.ErrTaskNotFound):
		return http.StatusNotFound, api.CodeNotFound
	case errors.Is(err, errors.ErrTimerRunning):
		return http.StatusBadRequest, api.CodeTimerRunning
	case errors.Is(err, errors.ErrTimerNotRunning):
		return http.StatusBadRequest, api.CodeTimerNotRunning
	case errors.IsUserError(err):
		return http.StatusBadRequest, api.CodeInvalid
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, ""
	}
	return http.StatusInternalServerError, ""
}
