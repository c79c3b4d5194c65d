package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user account as returned by the backend.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName returns the user's name, falling back to their email.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Task represents a task record owned by exactly one user.
type Task struct {
	ID          int64     `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	IsComplete  bool      `json:"is_complete"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskCreateRequest is the body for POST /api/{userId}/tasks.
// An empty description is omitted from the request entirely.
type TaskCreateRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=100"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

// TaskUpdateRequest is the body for PUT /api/{userId}/tasks/{taskId}.
type TaskUpdateRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=100"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

// SignupRequest is the body for POST /api/auth/signup.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name,omitempty"`
}

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by both signup and login. The backend issues a
// token on signup as well, so both flows log the user in.
type AuthResponse struct {
	Token   string `json:"token"`
	User    User   `json:"user"`
	Message string `json:"message"`
}

// TasksResponse is returned by GET /api/{userId}/tasks.
type TasksResponse struct {
	Tasks []Task `json:"tasks"`
	Count int    `json:"count"`
}

// ValidationError is one entry of a structured validation error list.
type ValidationError struct {
	Msg string `json:"msg"`
}

// APIError is the backend's error envelope. Detail is either a plain
// string or a list of validation errors.
type APIError struct {
	Detail any `json:"detail"`
}
