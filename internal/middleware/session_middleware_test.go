package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viniuy/e-barangay/internal/access"
	"github.com/viniuy/e-barangay/internal/models"
	"github.com/viniuy/e-barangay/internal/session"
)

type userMap map[uuid.UUID]*models.User

func (m userMap) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return m[id], nil
}

type sessionFixture struct {
	codec *session.Codec
	users map[models.Role]*models.User
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	barangay := uuid.New()
	users := map[models.Role]*models.User{
		models.RoleUser:       {ID: uuid.New(), Role: models.RoleUser, Username: "resident"},
		models.RoleAdmin:      {ID: uuid.New(), Role: models.RoleAdmin, Username: "staff", BarangayID: &barangay},
		models.RoleSuperAdmin: {ID: uuid.New(), Role: models.RoleSuperAdmin, Username: "root"},
	}
	lookup := userMap{}
	for _, u := range users {
		lookup[u.ID] = u
	}
	return &sessionFixture{
		codec: session.NewCodec("middleware-test-secret", 0, lookup, nil),
		users: users,
	}
}

func (f *sessionFixture) request(t *testing.T, method, path string, role models.Role) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if role == "" {
		return req
	}
	token, err := f.codec.Issue(f.users[role].ID)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	return req
}

func TestSession_SetsUserAndScope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newSessionFixture(t)

	var gotUser *models.User
	var gotScope *access.Scope
	r := gin.New()
	r.Use(Session(f.codec))
	r.GET("/whoami", func(c *gin.Context) {
		gotUser = CurrentUser(c)
		gotScope = CurrentScope(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, f.request(t, http.MethodGet, "/whoami", models.RoleAdmin))
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, gotUser)
	assert.Equal(t, f.users[models.RoleAdmin].ID, gotUser.ID)
	require.NotNil(t, gotScope)
	assert.True(t, gotScope.IsAdmin())
	assert.Equal(t, f.users[models.RoleAdmin].BarangayID, gotScope.BarangayID)

	// a garbage cookie is treated as anonymous, never an error
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "garbage"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, gotUser)
	assert.Nil(t, gotScope)
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newSessionFixture(t)

	r := gin.New()
	r.Use(Session(f.codec))
	r.POST("/barangays", RequireRole(models.RoleSuperAdmin), func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.GET("/me", RequireAuth(), func(c *gin.Context) { c.Status(http.StatusOK) })

	cases := []struct {
		name string
		role models.Role
		path string
		want int
	}{
		{"anonymous role gate", "", "/barangays", http.StatusUnauthorized},
		{"user role gate", models.RoleUser, "/barangays", http.StatusForbidden},
		{"admin role gate", models.RoleAdmin, "/barangays", http.StatusForbidden},
		{"super admin role gate", models.RoleSuperAdmin, "/barangays", http.StatusCreated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, f.request(t, http.MethodPost, tc.path, tc.role))
			assert.Equal(t, tc.want, w.Code)
		})
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, f.request(t, http.MethodGet, "/me", ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, f.request(t, http.MethodGet, "/me", models.RoleUser))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGatekeeper(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newSessionFixture(t)

	r := gin.New()
	r.Use(Session(f.codec))
	r.NoRoute(Gatekeeper(access.DefaultPolicy), func(c *gin.Context) { c.String(http.StatusOK, "page") })

	cases := []struct {
		path     string
		role     models.Role
		redirect bool
	}{
		{"/", "", false},
		{"/services/clearance", "", false},
		{"/profile", "", true},
		{"/profile", models.RoleUser, false},
		{"/admin/items", models.RoleUser, true},
		{"/admin/items", models.RoleAdmin, false},
		{"/super-admin", models.RoleAdmin, true},
		{"/super-admin/barangays", models.RoleSuperAdmin, false},
		{"/not-in-table", models.RoleSuperAdmin, true},
		{"/administrator", models.RoleAdmin, true},
	}
	for _, tc := range cases {
		t.Run(tc.path+"/"+string(tc.role), func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, f.request(t, http.MethodGet, tc.path, tc.role))

			if tc.redirect {
				assert.Equal(t, http.StatusFound, w.Code)
				assert.Equal(t, access.UnauthorizedPath, w.Header().Get("Location"))
			} else {
				assert.Equal(t, http.StatusOK, w.Code)
			}
		})
	}
}
