package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"task-manager/internal/api"
	"task-manager/internal/models"

	"github.com/go-playground/validator/v10"
)

// userNotFoundMessage is shown when a token is stored without a profile.
const userNotFoundMessage = "User not found. Please log in again."

// refreshEvent is the broadcast that tells the task list to re-fetch.
const refreshEvent = "taskUpdated"

// TasksPageViewModel is the data passed to the tasks page template.
type TasksPageViewModel struct {
	User *models.User
}

// TaskItemView represents a task in the list view.
type TaskItemView struct {
	models.Task
	CreatedDate string
	EditURL     string
}

// TaskListViewModel is the data passed to the list partial.
type TaskListViewModel struct {
	Error     string
	Tasks     []TaskItemView
	Total     int
	Completed int
}

// TaskFormViewModel is the data passed to the create/edit form partial.
type TaskFormViewModel struct {
	Error       string
	Title       string
	Description string
	IsEdit      bool
	TaskID      int64
}

// TasksPage renders the task page shell. The list itself loads through the
// list partial so mutations can refresh it via the taskUpdated event.
func (h *Handlers) TasksPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "tasks.html", TasksPageViewModel{User: userFromContext(r)})
}

// TaskList renders the task list partial. It re-fetches the full list from
// the backend on every call; the in-memory view is never patched in place.
func (h *Handlers) TaskList(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r)
	if user == nil {
		h.renderPartial(w, "task_list.html", TaskListViewModel{Error: userNotFoundMessage})
		return
	}

	resp, err := h.client.GetTasks(r.Context(), tokenFromContext(r), user.ID)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			h.handleUnauthorized(w, r)
			return
		}
		log.Printf("Error fetching tasks: %v", err)
		h.renderPartial(w, "task_list.html", TaskListViewModel{
			Error: "Failed to load tasks. Please try again.",
		})
		return
	}

	items := make([]TaskItemView, 0, len(resp.Tasks))
	completed := 0
	for _, t := range resp.Tasks {
		if t.IsComplete {
			completed++
		}
		items = append(items, TaskItemView{
			Task:        t,
			CreatedDate: t.CreatedAt.Format("Jan 2, 2006"),
			EditURL:     editURL(t),
		})
	}

	h.renderPartial(w, "task_list.html", TaskListViewModel{
		Tasks:     items,
		Total:     len(items),
		Completed: completed,
	})
}

func editURL(t models.Task) string {
	q := url.Values{}
	q.Set("title", t.Title)
	if t.Description != "" {
		q.Set("description", t.Description)
	}
	return fmt.Sprintf("/tasks/%d/edit?%s", t.ID, q.Encode())
}

// NewTaskForm renders an empty create form for the modal.
func (h *Handlers) NewTaskForm(w http.ResponseWriter, r *http.Request) {
	h.renderPartial(w, "task_form.html", TaskFormViewModel{})
}

// EditTaskForm renders the edit form pre-filled with the task's current
// values. The backend has no single-task read, so the values travel in the
// edit link built by the list view.
func (h *Handlers) EditTaskForm(w http.ResponseWriter, r *http.Request) {
	taskID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid task id", http.StatusBadRequest)
		return
	}
	h.renderPartial(w, "task_form.html", TaskFormViewModel{
		Title:       r.URL.Query().Get("title"),
		Description: r.URL.Query().Get("description"),
		IsEdit:      true,
		TaskID:      taskID,
	})
}

// CreateTask handles the create form submission. Both fields are trimmed;
// an all-whitespace description is omitted from the request entirely. On
// success the taskUpdated broadcast fires exactly once and the modal
// closes; on failure the form re-renders with the entered values intact.
func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderPartial(w, "task_form.html", TaskFormViewModel{Error: "Invalid form submission"})
		return
	}

	vm := TaskFormViewModel{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}

	req := models.TaskCreateRequest{
		Title:       strings.TrimSpace(vm.Title),
		Description: strings.TrimSpace(vm.Description),
	}
	if msg := h.validateTaskFields(req.Title, req.Description); msg != "" {
		vm.Error = msg
		h.renderPartial(w, "task_form.html", vm)
		return
	}

	user := userFromContext(r)
	if user == nil {
		vm.Error = userNotFoundMessage
		h.renderPartial(w, "task_form.html", vm)
		return
	}

	if _, err := h.client.CreateTask(r.Context(), tokenFromContext(r), user.ID, req); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			h.handleUnauthorized(w, r)
			return
		}
		vm.Error = api.ErrorMessage(err)
		h.renderPartial(w, "task_form.html", vm)
		return
	}

	w.Header().Set("HX-Trigger", refreshEvent+", closeModal")
	h.renderPartial(w, "task_form.html", TaskFormViewModel{})
}

// UpdateTask handles the edit form submission.
func (h *Handlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid task id", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderPartial(w, "task_form.html", TaskFormViewModel{Error: "Invalid form submission", IsEdit: true, TaskID: taskID})
		return
	}

	vm := TaskFormViewModel{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		IsEdit:      true,
		TaskID:      taskID,
	}

	req := models.TaskUpdateRequest{
		Title:       strings.TrimSpace(vm.Title),
		Description: strings.TrimSpace(vm.Description),
	}
	if msg := h.validateTaskFields(req.Title, req.Description); msg != "" {
		vm.Error = msg
		h.renderPartial(w, "task_form.html", vm)
		return
	}

	user := userFromContext(r)
	if user == nil {
		vm.Error = userNotFoundMessage
		h.renderPartial(w, "task_form.html", vm)
		return
	}

	if _, err := h.client.UpdateTask(r.Context(), tokenFromContext(r), user.ID, taskID, req); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			h.handleUnauthorized(w, r)
			return
		}
		vm.Error = api.ErrorMessage(err)
		h.renderPartial(w, "task_form.html", vm)
		return
	}

	w.Header().Set("HX-Trigger", refreshEvent+", closeModal")
	h.renderPartial(w, "task_form.html", TaskFormViewModel{})
}

// ToggleTask flips a task's completion state on the backend, then fires the
// refresh broadcast so the list re-fetches instead of patching locally.
func (h *Handlers) ToggleTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid task id", http.StatusBadRequest)
		return
	}

	user := userFromContext(r)
	if user == nil {
		http.Error(w, userNotFoundMessage, http.StatusBadRequest)
		return
	}

	if _, err := h.client.ToggleTaskComplete(r.Context(), tokenFromContext(r), user.ID, taskID); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			h.handleUnauthorized(w, r)
			return
		}
		log.Printf("ToggleTask error: %v", err)
		http.Error(w, api.ErrorMessage(err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("HX-Trigger", refreshEvent)
	w.WriteHeader(http.StatusOK)
}

// DeleteTask deletes a task and fires the refresh broadcast.
func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid task id", http.StatusBadRequest)
		return
	}

	user := userFromContext(r)
	if user == nil {
		http.Error(w, userNotFoundMessage, http.StatusBadRequest)
		return
	}

	if err := h.client.DeleteTask(r.Context(), tokenFromContext(r), user.ID, taskID); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			h.handleUnauthorized(w, r)
			return
		}
		log.Printf("DeleteTask error: %v", err)
		http.Error(w, api.ErrorMessage(err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("HX-Trigger", refreshEvent)
	w.WriteHeader(http.StatusOK)
}

// validateTaskFields mirrors the backend's bounds: title required, 1-100
// characters; description optional, at most 500. The backend re-checks.
func (h *Handlers) validateTaskFields(title, description string) string {
	req := models.TaskCreateRequest{Title: title, Description: description}
	err := h.validate.Struct(req)
	if err == nil {
		return ""
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		switch {
		case fe.Field() == "Title" && fe.Tag() == "required":
			return "Title is required"
		case fe.Field() == "Title":
			return "Title must be between 1 and 100 characters"
		case fe.Field() == "Description":
			return "Description must be at most 500 characters"
		}
	}
	return "Invalid input"
}
