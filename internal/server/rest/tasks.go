package rest

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/dmitrijs2005/gophtodo/internal/server/services"
	"github.com/dmitrijs2005/gophtodo/internal/timex"
	"github.com/gorilla/mux"
)

type createTaskRequest struct {
	Description string `json:"task_description"`
}

type updateTaskRequest struct {
	Description *string `json:"task_description"`
	Status      *string `json:"current_status"`
}

type batchDeleteRequest struct {
	TaskIDs []string `json:"task_ids"`
}

// targetDate reads ?target_date, defaulting to today.
func (s *Server) targetDate(q url.Values) (time.Time, error) {
	v := q.Get("target_date")
	if v == "" {
		return s.now().UTC(), nil
	}
	d, err := timex.ParseDate(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: target_date must be YYYY-MM-DD", common.ErrorInvalidArgument)
	}
	return d, nil
}

func intParam(q url.Values, name string, min int) (int, bool, error) {
	if !q.Has(name) {
		return 0, false, nil
	}
	n, err := strconv.Atoi(q.Get(name))
	if err != nil || n < min {
		return 0, false, fmt.Errorf("%w: %s must be an integer >= %d", common.ErrorInvalidArgument, name, min)
	}
	return n, true, nil
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if d := r.URL.Query().Get("task_description"); d != "" {
		req.Description = d
	} else if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	task, err := s.deps.Tasks.Create(r.Context(), currentUser(r.Context()).ID, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	day, err := s.targetDate(q)
	if err != nil {
		writeError(w, err)
		return
	}

	lq := services.ListQuery{
		Status:     q.Get("status"),
		TargetDate: day,
		SortBy:     q.Get("sort_by"),
		SortOrder:  q.Get("sort_order"),
	}

	limit, ok, err := intParam(q, "limit", 1)
	if err != nil {
		writeError(w, err)
		return
	}
	if ok {
		lq.Limit = limit
	}
	if lq.Offset, _, err = intParam(q, "offset", 0); err != nil {
		writeError(w, err)
		return
	}

	tasks, err := s.deps.Tasks.List(r.Context(), currentUser(r.Context()).ID, lq)
	if err != nil {
		writeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) countTasks(w http.ResponseWriter, r *http.Request) {
	day, err := s.targetDate(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}

	counts, err := s.deps.Tasks.Counts(r.Context(), currentUser(r.Context()).ID, day)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) markBacklog(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Tasks.SweepBacklog(r.Context(), currentUser(r.Context()).ID, s.now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("Marked %d tasks as backlog", n)})
}

func (s *Server) batchDelete(w http.ResponseWriter, r *http.Request) {
	var req batchDeleteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	n, err := s.deps.Tasks.BatchDelete(r.Context(), currentUser(r.Context()).ID, req.TaskIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("Successfully deleted %d tasks.", n)})
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.deps.Tasks.Get(r.Context(), currentUser(r.Context()).ID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	var req updateTaskRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	task, err := s.deps.Tasks.Update(r.Context(), currentUser(r.Context()).ID, mux.Vars(r)["id"],
		services.TaskUpdate{Description: req.Description, Status: req.Status})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Tasks.Delete(r.Context(), currentUser(r.Context()).ID, mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
