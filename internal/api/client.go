package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"task-manager/internal/models"
	"task-manager/internal/session"

	"github.com/google/uuid"
)

// ErrUnauthorized is returned when the backend rejects the token. By the
// time a caller sees it, the stored session row has already been cleared;
// callers cannot opt out of that side effect.
var ErrUnauthorized = errors.New("session expired")

// DefaultBaseURL is the local development backend address.
const DefaultBaseURL = "http://localhost:8000"

// requestTimeout is the fixed per-request budget. No retries.
const requestTimeout = 10 * time.Second

// Client is the single choke point for all backend communication. Every
// request carries the bearer token when one is supplied, and every 401
// response clears the stored session before surfacing ErrUnauthorized.
type Client struct {
	baseURL string
	http    *http.Client
	store   *session.Store
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, store *session.Store) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
		store:   store,
	}
}

// Signup creates an account. On success the backend issues a token right
// away, and the session (token, user, cookie) is persisted before returning.
func (c *Client) Signup(ctx context.Context, w http.ResponseWriter, req models.SignupRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", "", req, &resp); err != nil {
		return nil, err
	}
	if err := c.store.Save(w, resp.Token, &resp.User); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	return &resp, nil
}

// Login authenticates and persists the session as a side effect.
func (c *Client) Login(ctx context.Context, w http.ResponseWriter, req models.LoginRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", req, &resp); err != nil {
		return nil, err
	}
	if err := c.store.Save(w, resp.Token, &resp.User); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	return &resp, nil
}

// Logout clears both session stores. No backend call is involved.
func (c *Client) Logout(w http.ResponseWriter, token string) {
	if err := c.store.Clear(w, token); err != nil {
		log.Printf("Failed to clear session: %v", err)
	}
}

// CurrentUser returns the stored profile for the request's token, or nil.
func (c *Client) CurrentUser(r *http.Request) *models.User {
	return c.store.CurrentUser(r)
}

// IsAuthenticated reports whether the request carries a token.
func (c *Client) IsAuthenticated(r *http.Request) bool {
	return c.store.IsAuthenticated(r)
}

// GetTasks fetches the full task list for a user.
func (c *Client) GetTasks(ctx context.Context, token string, userID uuid.UUID) (*models.TasksResponse, error) {
	var resp models.TasksResponse
	path := fmt.Sprintf("/api/%s/tasks", userID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateTask creates a task for a user.
func (c *Client) CreateTask(ctx context.Context, token string, userID uuid.UUID, req models.TaskCreateRequest) (*models.Task, error) {
	var task models.Task
	path := fmt.Sprintf("/api/%s/tasks", userID)
	if err := c.do(ctx, http.MethodPost, path, token, req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask replaces a task's title and description.
func (c *Client) UpdateTask(ctx context.Context, token string, userID uuid.UUID, taskID int64, req models.TaskUpdateRequest) (*models.Task, error) {
	var task models.Task
	path := fmt.Sprintf("/api/%s/tasks/%d", userID, taskID)
	if err := c.do(ctx, http.MethodPut, path, token, req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, token string, userID uuid.UUID, taskID int64) error {
	path := fmt.Sprintf("/api/%s/tasks/%d", userID, taskID)
	return c.do(ctx, http.MethodDelete, path, token, nil, nil)
}

// ToggleTaskComplete flips a task's completion state.
func (c *Client) ToggleTaskComplete(ctx context.Context, token string, userID uuid.UUID, taskID int64) (*models.Task, error) {
	var task models.Task
	path := fmt.Sprintf("/api/%s/tasks/%d/complete", userID, taskID)
	if err := c.do(ctx, http.MethodPatch, path, token, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Forced logout regardless of which call triggered it. The cookie
		// half is cleared by the handler that observes ErrUnauthorized.
		if token != "" {
			if err := c.store.Delete(token); err != nil {
				log.Printf("Failed to delete session on 401: %v", err)
			}
		}
		return ErrUnauthorized
	}

	if resp.StatusCode >= 400 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		var envelope models.APIError
		if data, err := io.ReadAll(resp.Body); err == nil {
			if err := json.Unmarshal(data, &envelope); err == nil {
				apiErr.Detail = envelope.Detail
			}
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
