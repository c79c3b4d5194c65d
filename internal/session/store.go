package session

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"task-manager/internal/models"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

const (
	// CookieName is the name of the token cookie mirrored to the browser.
	CookieName = "token"
	// Duration is how long sessions last (7 days), in both the store
	// and the cookie.
	Duration = 7 * 24 * time.Hour
)

// Store persists the bearer token and user profile issued by the backend.
// It is the single write path for both persistence targets: the sqlite
// row (token and serialized user) and the mirrored browser cookie, so the
// two cannot drift independently.
type Store struct {
	conn         *sql.DB
	secureCookie bool
}

// NewStore opens the session database and runs migrations.
func NewStore(path string, secureCookie bool) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	s := &Store{conn: conn, secureCookie: secureCookie}
	if err := s.migrate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.conn.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_json TEXT NOT NULL DEFAULT '',
		expires_at DATETIME NOT NULL
	)`)
	return err
}

// Save stores the token with the user's profile and mirrors the token into
// the cookie. The row is written first; if it fails, the cookie is left
// untouched. A nil user stores the token alone, which is a defined state:
// authenticated but without a readable profile.
func (s *Store) Save(w http.ResponseWriter, token string, user *models.User) error {
	userJSON := ""
	if user != nil {
		b, err := json.Marshal(user)
		if err != nil {
			return err
		}
		userJSON = string(b)
	}

	expiresAt := time.Now().Add(Duration)
	_, err := s.conn.Exec(
		"INSERT OR REPLACE INTO sessions (token, user_json, expires_at) VALUES (?, ?, ?)",
		token, userJSON, expiresAt,
	)
	if err != nil {
		return err
	}

	s.setCookie(w, token)
	return nil
}

// Token returns the bearer token from the request cookie, or "" if absent.
func (s *Store) Token(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// IsAuthenticated reports whether the request carries a token. The token is
// not validated here; an expired-but-present token counts as authenticated
// until a backend call rejects it.
func (s *Store) IsAuthenticated(r *http.Request) bool {
	return s.Token(r) != ""
}

// CurrentUser returns the stored profile for the request's token, or nil if
// the token is absent, unknown, expired, or stored without a profile.
func (s *Store) CurrentUser(r *http.Request) *models.User {
	return s.UserForToken(s.Token(r))
}

// UserForToken returns the stored profile for a token, or nil.
func (s *Store) UserForToken(token string) *models.User {
	if token == "" {
		return nil
	}

	row := s.conn.QueryRow(
		"SELECT user_json FROM sessions WHERE token = ? AND expires_at > CURRENT_TIMESTAMP",
		token,
	)

	var userJSON string
	if err := row.Scan(&userJSON); err != nil || userJSON == "" {
		return nil
	}

	var u models.User
	if err := json.Unmarshal([]byte(userJSON), &u); err != nil {
		return nil
	}
	return &u
}

// Delete removes the stored row for a token. The cookie is untouched; use
// Clear when a ResponseWriter is available.
func (s *Store) Delete(token string) error {
	_, err := s.conn.Exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}

// Clear removes the stored row and expires the cookie.
func (s *Store) Clear(w http.ResponseWriter, token string) error {
	err := s.Delete(token)
	s.ClearCookie(w)
	return err
}

// ClearCookie expires the token cookie on the response.
func (s *Store) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// CleanExpired removes all expired sessions.
func (s *Store) CleanExpired() error {
	_, err := s.conn.Exec("DELETE FROM sessions WHERE expires_at <= CURRENT_TIMESTAMP")
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) setCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(Duration.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
