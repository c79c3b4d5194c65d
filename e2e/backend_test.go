package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"task-manager/internal/models"

	"github.com/google/uuid"
)

// stubBackend is an in-memory stand-in for the task API so the e2e suite
// does not depend on a running backend service.
type stubBackend struct {
	mu     sync.Mutex
	server *httptest.Server
	users  map[string]*stubUser // keyed by email
	tokens map[string]*stubUser
	nextID int64
}

type stubUser struct {
	user     models.User
	password string
	tasks    []*models.Task
}

func newStubBackend() *stubBackend {
	b := &stubBackend{
		users:  make(map[string]*stubUser),
		tokens: make(map[string]*stubUser),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/signup", b.signup)
	mux.HandleFunc("POST /api/auth/login", b.login)
	mux.HandleFunc("GET /api/{userId}/tasks", b.listTasks)
	mux.HandleFunc("POST /api/{userId}/tasks", b.createTask)
	mux.HandleFunc("PUT /api/{userId}/tasks/{taskId}", b.updateTask)
	mux.HandleFunc("DELETE /api/{userId}/tasks/{taskId}", b.deleteTask)
	mux.HandleFunc("PATCH /api/{userId}/tasks/{taskId}/complete", b.toggleTask)

	b.server = httptest.NewServer(mux)
	return b
}

func (b *stubBackend) Close() {
	b.server.Close()
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.APIError{Detail: detail})
}

func (b *stubBackend) signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.users[req.Email]; exists {
		writeDetail(w, http.StatusConflict, "Email already registered. Please use a different email or log in.")
		return
	}

	u := &stubUser{
		user: models.User{
			ID:        uuid.New(),
			Email:     req.Email,
			Name:      req.Name,
			CreatedAt: time.Now(),
		},
		password: req.Password,
	}
	b.users[req.Email] = u

	token := uuid.NewString()
	b.tokens[token] = u

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(models.AuthResponse{
		Token:   token,
		User:    u.user,
		Message: "Account created successfully. You are now logged in.",
	})
}

func (b *stubBackend) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u, exists := b.users[req.Email]
	if !exists || u.password != req.Password {
		writeDetail(w, http.StatusUnauthorized, "Invalid email or password.")
		return
	}

	token := uuid.NewString()
	b.tokens[token] = u

	json.NewEncoder(w).Encode(models.AuthResponse{
		Token:   token,
		User:    u.user,
		Message: "Login successful. Welcome back!",
	})
}

// authorize resolves the bearer token and checks it matches the user in the
// path. Callers must hold no lock; it takes b.mu itself.
func (b *stubBackend) authorize(w http.ResponseWriter, r *http.Request) *stubUser {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" || token == r.Header.Get("Authorization") {
		writeDetail(w, http.StatusUnauthorized, "Not authenticated")
		return nil
	}

	b.mu.Lock()
	u, ok := b.tokens[token]
	b.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid or expired token")
		return nil
	}
	if u.user.ID.String() != r.PathValue("userId") {
		writeDetail(w, http.StatusForbidden, "Not authorized to access this resource")
		return nil
	}
	return u
}

func (b *stubBackend) listTasks(w http.ResponseWriter, r *http.Request) {
	u := b.authorize(w, r)
	if u == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Newest first
	tasks := make([]models.Task, 0, len(u.tasks))
	for i := len(u.tasks) - 1; i >= 0; i-- {
		tasks = append(tasks, *u.tasks[i])
	}
	json.NewEncoder(w).Encode(models.TasksResponse{Tasks: tasks, Count: len(tasks)})
}

func (b *stubBackend) createTask(w http.ResponseWriter, r *http.Request) {
	u := b.authorize(w, r)
	if u == nil {
		return
	}

	var req models.TaskCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "Title cannot be empty or whitespace-only.")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	now := time.Now()
	task := &models.Task{
		ID:          b.nextID,
		UserID:      u.user.ID,
		Title:       req.Title,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	u.tasks = append(u.tasks, task)

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(task)
}

func (b *stubBackend) findTask(u *stubUser, r *http.Request) *models.Task {
	id, err := strconv.ParseInt(r.PathValue("taskId"), 10, 64)
	if err != nil {
		return nil
	}
	for _, t := range u.tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (b *stubBackend) updateTask(w http.ResponseWriter, r *http.Request) {
	u := b.authorize(w, r)
	if u == nil {
		return
	}

	var req models.TaskUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	task := b.findTask(u, r)
	if task == nil {
		writeDetail(w, http.StatusNotFound, "Task not found")
		return
	}

	task.Title = req.Title
	task.Description = req.Description
	task.UpdatedAt = time.Now()
	json.NewEncoder(w).Encode(task)
}

func (b *stubBackend) deleteTask(w http.ResponseWriter, r *http.Request) {
	u := b.authorize(w, r)
	if u == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	task := b.findTask(u, r)
	if task == nil {
		writeDetail(w, http.StatusNotFound, "Task not found")
		return
	}

	kept := u.tasks[:0]
	for _, t := range u.tasks {
		if t.ID != task.ID {
			kept = append(kept, t)
		}
	}
	u.tasks = kept
	json.NewEncoder(w).Encode(map[string]string{"message": "Task deleted successfully"})
}

func (b *stubBackend) toggleTask(w http.ResponseWriter, r *http.Request) {
	u := b.authorize(w, r)
	if u == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	task := b.findTask(u, r)
	if task == nil {
		writeDetail(w, http.StatusNotFound, "Task not found")
		return
	}

	task.IsComplete = !task.IsComplete
	task.UpdatedAt = time.Now()
	json.NewEncoder(w).Encode(task)
}
