package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/viniuy/e-barangay/internal/access"
	"github.com/viniuy/e-barangay/internal/models"
	"github.com/viniuy/e-barangay/internal/session"
)

// ParseUUID parses a UUID string and fails the test if invalid
func ParseUUID(t testing.TB, uuidStr string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(uuidStr)
	if err != nil {
		t.Fatalf("Invalid UUID string: %s, error: %v", uuidStr, err)
	}
	return id
}

// Scope is the tenant scope of u.
func Scope(u *models.User) *access.Scope {
	return access.ForUser(u)
}

// Token issues a session token for u.
func (e *Env) Token(t testing.TB, u *models.User) string {
	t.Helper()
	token, err := e.Server.Sessions.Issue(u.ID)
	if err != nil {
		t.Fatalf("Failed to issue session: %v", err)
	}
	return token
}

// Do sends a request through the router. body is JSON-encoded unless it is
// nil or already an io.Reader. An empty token sends no cookie.
func (e *Env) Do(t testing.TB, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case io.Reader:
		reader = b
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// As is Do with a fresh session for u.
func (e *Env) As(t testing.TB, u *models.User, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return e.Do(t, method, path, body, e.Token(t, u))
}

// Decode unmarshals a JSON response body.
func Decode(t testing.TB, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

// ErrorMessage returns the "error" field of a JSON error response.
func ErrorMessage(t testing.TB, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	Decode(t, w, &body)
	return body.Error
}
