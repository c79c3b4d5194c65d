package main

import (
	"log"
	"net/http"
	"os"

	"task-manager/internal/api"
	"task-manager/internal/handlers"
	"task-manager/internal/session"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real environment variables win
	godotenv.Load()

	port := getenv("PORT", "3000")
	apiURL := getenv("API_URL", api.DefaultBaseURL)
	sessionDB := getenv("SESSION_DB_PATH", "sessions.db")
	secureCookie := os.Getenv("SECURE_COOKIE") == "true"

	store, err := session.NewStore(sessionDB, secureCookie)
	if err != nil {
		log.Fatalf("Failed to open session store: %v", err)
	}
	defer store.Close()

	if err := store.CleanExpired(); err != nil {
		log.Printf("Failed to clean expired sessions: %v", err)
	}

	client := api.NewClient(apiURL, store)
	h := handlers.NewHandlers(client, store, "web/templates")

	mux := setupRouter(h, "web/static")

	log.Printf("Listening on :%s (backend %s)", port, apiURL)
	log.Fatal(http.ListenAndServe(":"+port, mux))
}

func setupRouter(h *handlers.Handlers, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/tasks", http.StatusFound)
	})

	mux.HandleFunc("GET /login", h.LoginForm)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("GET /signup", h.SignupForm)
	mux.HandleFunc("POST /signup", h.Signup)
	mux.HandleFunc("GET /logout", h.Logout)

	auth := h.AuthMiddleware
	mux.Handle("GET /tasks", auth(http.HandlerFunc(h.TasksPage)))
	mux.Handle("GET /tasks/list", auth(http.HandlerFunc(h.TaskList)))
	mux.Handle("GET /tasks/new", auth(http.HandlerFunc(h.NewTaskForm)))
	mux.Handle("POST /tasks", auth(http.HandlerFunc(h.CreateTask)))
	mux.Handle("GET /tasks/{id}/edit", auth(http.HandlerFunc(h.EditTaskForm)))
	mux.Handle("PUT /tasks/{id}", auth(http.HandlerFunc(h.UpdateTask)))
	mux.Handle("DELETE /tasks/{id}", auth(http.HandlerFunc(h.DeleteTask)))
	mux.Handle("PATCH /tasks/{id}/complete", auth(http.HandlerFunc(h.ToggleTask)))

	return mux
}

func getenv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
