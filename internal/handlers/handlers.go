package handlers

import (
	"context"
	"errors"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"task-manager/internal/api"
	"task-manager/internal/models"
	"task-manager/internal/session"

	"github.com/go-playground/validator/v10"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// userContextKey is the context key for the stored user profile.
	userContextKey contextKey = "user"
	// tokenContextKey is the context key for the bearer token.
	tokenContextKey contextKey = "token"
)

// sessionExpiredMessage is shown on the login page after a forced logout.
const sessionExpiredMessage = "Your session has expired. Please log in again."

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	client      *api.Client
	store       *session.Store
	templateDir string
	validate    *validator.Validate
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client *api.Client, store *session.Store, templateDir string) *Handlers {
	return &Handlers{
		client:      client,
		store:       store,
		templateDir: templateDir,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// userFromContext retrieves the stored user profile from request context.
// It can be nil even on authenticated requests: a token stored without a
// profile is a defined state.
func userFromContext(r *http.Request) *models.User {
	if user, ok := r.Context().Value(userContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// tokenFromContext retrieves the bearer token from request context.
func tokenFromContext(r *http.Request) string {
	if token, ok := r.Context().Value(tokenContextKey).(string); ok {
		return token
	}
	return ""
}

// AuthMiddleware gates pages on token presence. The token is not validated
// against the backend here; an expired-but-present token passes until a
// backend call returns 401 and forces a logout.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.store.Token(r)
		if token == "" {
			h.redirectToLogin(w, r, "")
			return
		}

		ctx := context.WithValue(r.Context(), tokenContextKey, token)
		if user := h.store.UserForToken(token); user != nil {
			ctx = context.WithValue(ctx, userContextKey, user)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// handleUnauthorized finishes the forced logout started by the API client:
// the stored row is already gone, so clear the cookie and send the browser
// to the login page with the session-expired marker.
func (h *Handlers) handleUnauthorized(w http.ResponseWriter, r *http.Request) {
	h.store.ClearCookie(w)
	h.redirectToLogin(w, r, "session_expired")
}

func (h *Handlers) redirectToLogin(w http.ResponseWriter, r *http.Request, errMarker string) {
	target := "/login"
	if errMarker != "" {
		target += "?error=" + errMarker
	}
	// HTMX swaps responses into the page; a full navigation needs the
	// HX-Redirect header instead of a 302.
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// AuthViewModel holds data for the login and signup pages.
type AuthViewModel struct {
	Error string
	Email string
	Name  string
}

// LoginForm renders the login page.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	// If already logged in, go straight to the tasks page
	if h.store.IsAuthenticated(r) {
		http.Redirect(w, r, "/tasks", http.StatusFound)
		return
	}

	vm := AuthViewModel{}
	if r.URL.Query().Get("error") == "session_expired" {
		vm.Error = sessionExpiredMessage
	}
	h.render(w, r, "login.html", vm)
}

// Login handles the login form submission.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, "login.html", AuthViewModel{Error: "Invalid form submission"})
		return
	}

	req := models.LoginRequest{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}

	if err := h.validate.Struct(req); err != nil {
		h.render(w, r, "login.html", AuthViewModel{
			Error: "Email and password are required",
			Email: req.Email,
		})
		return
	}

	if _, err := h.client.Login(r.Context(), w, req); err != nil {
		// Bad credentials on the login call itself are an in-place error,
		// not a forced-logout redirect.
		if errors.Is(err, api.ErrUnauthorized) {
			h.render(w, r, "login.html", AuthViewModel{
				Error: "Invalid email or password.",
				Email: req.Email,
			})
			return
		}
		h.render(w, r, "login.html", AuthViewModel{
			Error: api.ErrorMessage(err),
			Email: req.Email,
		})
		return
	}

	http.Redirect(w, r, "/tasks", http.StatusFound)
}

// SignupForm renders the signup page.
func (h *Handlers) SignupForm(w http.ResponseWriter, r *http.Request) {
	if h.store.IsAuthenticated(r) {
		http.Redirect(w, r, "/tasks", http.StatusFound)
		return
	}
	h.render(w, r, "signup.html", AuthViewModel{})
}

// Signup handles the signup form submission. The backend issues a token on
// signup, so a successful submission lands on the tasks page logged in.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, "signup.html", AuthViewModel{Error: "Invalid form submission"})
		return
	}

	req := models.SignupRequest{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
		Name:     strings.TrimSpace(r.FormValue("name")),
	}

	if err := h.validate.Struct(req); err != nil {
		h.render(w, r, "signup.html", AuthViewModel{
			Error: "A valid email and a password of at least 8 characters are required",
			Email: req.Email,
			Name:  req.Name,
		})
		return
	}

	if _, err := h.client.Signup(r.Context(), w, req); err != nil {
		h.render(w, r, "signup.html", AuthViewModel{
			Error: api.ErrorMessage(err),
			Email: req.Email,
			Name:  req.Name,
		})
		return
	}

	http.Redirect(w, r, "/tasks", http.StatusFound)
}

// Logout clears both session stores and returns to the login page.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.client.Logout(w, h.store.Token(r))
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, viewName string, data any) {
	tmpl, err := template.ParseFiles(filepath.Join(h.templateDir, "base.html"), filepath.Join(h.templateDir, viewName))
	if err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	target := "base.html"
	if r.Header.Get("HX-Request") == "true" {
		target = "content"
	}
	if err := tmpl.ExecuteTemplate(w, target, data); err != nil {
		log.Printf("Template execution error: %v", err)
	}
}

// renderPartial renders a standalone template fragment for HTMX swaps.
func (h *Handlers) renderPartial(w http.ResponseWriter, viewName string, data any) {
	tmpl, err := template.ParseFiles(filepath.Join(h.templateDir, viewName))
	if err != nil {
		log.Printf("Template error: %v", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	if err := tmpl.Execute(w, data); err != nil {
		log.Printf("Template execution error: %v", err)
	}
}
