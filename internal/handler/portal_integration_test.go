package handler_test

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/viniuy/e-barangay/internal/models"
	"github.com/viniuy/e-barangay/internal/session"
	"github.com/viniuy/e-barangay/internal/testutil"
)

// PortalIntegrationTestSuite covers the resident and staff flows end to end.
type PortalIntegrationTestSuite struct {
	suite.Suite
	env *testutil.Env

	north, south *models.Barangay
	resident     *models.User
	northAdmin   *models.User
	southAdmin   *models.User
	super        *models.User
}

func (s *PortalIntegrationTestSuite) SetupSuite() {
	s.env = testutil.NewEnv(s.T())
}

func (s *PortalIntegrationTestSuite) SetupTest() {
	s.env.Reset(s.T())

	db := s.env.DB
	s.north = testutil.CreateBarangay(s.T(), db, "North")
	s.south = testutil.CreateBarangay(s.T(), db, "South")
	s.resident = testutil.CreateUser(s.T(), db, models.RoleUser, s.north)
	s.northAdmin = testutil.CreateUser(s.T(), db, models.RoleAdmin, s.north)
	s.southAdmin = testutil.CreateUser(s.T(), db, models.RoleAdmin, s.south)
	s.super = testutil.CreateUser(s.T(), db, models.RoleSuperAdmin, nil)
}

func (s *PortalIntegrationTestSuite) TestBarangayDuplicateName() {
	w := s.env.As(s.T(), s.super, http.MethodPost, "/api/barangays", map[string]string{"name": "San Jose"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.env.Do(s.T(), http.MethodGet, "/api/barangays", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"name":"San Jose"`)

	w = s.env.As(s.T(), s.super, http.MethodPost, "/api/barangays", map[string]string{"name": "san jose"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Barangay already exists.", testutil.ErrorMessage(s.T(), w))

	w = s.env.As(s.T(), s.northAdmin, http.MethodPost, "/api/barangays", map[string]string{"name": "Elsewhere"})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.env.Do(s.T(), http.MethodPost, "/api/barangays", map[string]string{"name": "Elsewhere"}, "")
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *PortalIntegrationTestSuite) TestAdminItemScopeIntersectsFilter() {
	testutil.CreateItem(s.T(), s.env.DB, s.north, func(i *models.Item) { i.Name = "North Permit" })
	testutil.CreateItem(s.T(), s.env.DB, s.south, func(i *models.Item) { i.Name = "South Permit" })

	w := s.env.As(s.T(), s.northAdmin, http.MethodGet, "/api/items?barangayId="+s.south.ID.String(), nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var items []models.Item
	testutil.Decode(s.T(), w, &items)
	s.Empty(items)

	w = s.env.As(s.T(), s.northAdmin, http.MethodGet, "/api/items", nil)
	testutil.Decode(s.T(), w, &items)
	s.Require().Len(items, 1)
	s.Equal("North Permit", items[0].Name)

	// public listing spans every barangay
	w = s.env.Do(s.T(), http.MethodGet, "/api/items", nil, "")
	testutil.Decode(s.T(), w, &items)
	s.Len(items, 2)

	w = s.env.Do(s.T(), http.MethodGet, "/api/items?barangayId=nope", nil, "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *PortalIntegrationTestSuite) TestItemCRUD() {
	w := s.env.As(s.T(), s.northAdmin, http.MethodPost, "/api/items", map[string]string{
		"name": "Covered Court",
		"type": "facility",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var item models.Item
	testutil.Decode(s.T(), w, &item)
	s.Equal(models.ItemTypeFacility, item.Type)
	s.Require().NotNil(item.BarangayID)
	s.Equal(s.north.ID, *item.BarangayID)

	w = s.env.As(s.T(), s.northAdmin, http.MethodPost, "/api/items", map[string]string{"name": "Court", "type": "venue"})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.env.As(s.T(), s.resident, http.MethodPost, "/api/items", map[string]string{"name": "Court"})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.env.As(s.T(), s.southAdmin, http.MethodPatch, "/api/items", map[string]string{"id": item.ID.String(), "name": "Mine"})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.env.As(s.T(), s.northAdmin, http.MethodPatch, "/api/items", map[string]string{"id": item.ID.String(), "status": "maintenance"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	testutil.Decode(s.T(), w, &item)
	s.Equal(models.ItemMaintenance, item.Status)

	category := testutil.CreateCategory(s.T(), s.env.DB, "Facilities")
	w = s.env.As(s.T(), s.northAdmin, http.MethodPatch, "/api/items", map[string]string{"id": item.ID.String(), "categoryId": category.ID.String()})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	w = s.env.As(s.T(), s.northAdmin, http.MethodPatch, "/api/items", map[string]string{"id": item.ID.String(), "categoryId": ""})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Contains(w.Body.String(), `"categoryId":null`)

	w = s.env.As(s.T(), s.northAdmin, http.MethodDelete, "/api/items?id="+item.ID.String(), nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.env.As(s.T(), s.northAdmin, http.MethodDelete, "/api/items?id="+item.ID.String(), nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *PortalIntegrationTestSuite) TestSubmitAndApprove() {
	item := testutil.CreateItem(s.T(), s.env.DB, s.north)

	w := s.env.As(s.T(), s.resident, http.MethodPost, "/api/requests", map[string]string{
		"itemId": item.ID.String(),
		"reason": "Employment",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var req models.Request
	testutil.Decode(s.T(), w, &req)
	s.Equal(models.StatusPending, req.Status)

	w = s.env.As(s.T(), s.southAdmin, http.MethodPatch, "/api/requests", map[string]string{
		"id":     req.ID.String(),
		"status": "approved",
	})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.env.As(s.T(), s.northAdmin, http.MethodPatch, "/api/requests", map[string]string{
		"id":          req.ID.String(),
		"status":      "approved",
		"adminUserId": s.northAdmin.ID.String(),
		"remarks":     "Claim at the hall",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	testutil.Decode(s.T(), w, &req)
	s.Equal(models.StatusApproved, req.Status)

	w = s.env.As(s.T(), s.resident, http.MethodGet, fmt.Sprintf("/api/requests/%s/actions", req.ID), nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var actions []models.RequestAction
	testutil.Decode(s.T(), w, &actions)
	s.Require().Len(actions, 1)
	s.Equal(models.StatusApproved, actions[0].ActionType)

	w = s.env.As(s.T(), s.northAdmin, http.MethodPatch, "/api/requests", map[string]string{
		"id":     req.ID.String(),
		"status": "rejected",
	})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal(int64(1), testutil.CountActions(s.T(), s.env.DB, req.ID))
}

func (s *PortalIntegrationTestSuite) TestSelfCancel() {
	item := testutil.CreateItem(s.T(), s.env.DB, s.north)
	req := testutil.CreateRequest(s.T(), s.env.DB, s.resident, item, models.StatusPending)

	w := s.env.As(s.T(), s.resident, http.MethodPatch, "/api/requests", map[string]string{
		"id":     req.ID.String(),
		"status": "approved",
	})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.env.As(s.T(), s.resident, http.MethodPatch, "/api/requests", map[string]string{
		"id":     req.ID.String(),
		"status": "cancelled",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Contains(w.Body.String(), `"status":"cancelled"`)
	s.Equal(int64(0), testutil.CountActions(s.T(), s.env.DB, req.ID))
}

func (s *PortalIntegrationTestSuite) TestRequestListsAreScoped() {
	item := testutil.CreateItem(s.T(), s.env.DB, s.north)
	testutil.CreateRequest(s.T(), s.env.DB, s.resident, item, models.StatusPending)

	var list []models.Request
	w := s.env.As(s.T(), s.northAdmin, http.MethodGet, "/api/requests", nil)
	testutil.Decode(s.T(), w, &list)
	s.Len(list, 1)

	w = s.env.As(s.T(), s.southAdmin, http.MethodGet, "/api/requests", nil)
	testutil.Decode(s.T(), w, &list)
	s.Empty(list)

	w = s.env.Do(s.T(), http.MethodGet, "/api/requests", nil, "")
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.env.As(s.T(), s.super, http.MethodGet, "/api/requests?status=lost", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *PortalIntegrationTestSuite) TestUsersEndpoints() {
	w := s.env.As(s.T(), s.northAdmin, http.MethodGet, "/api/users", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var users []models.User
	testutil.Decode(s.T(), w, &users)
	s.Len(users, 2)

	w = s.env.As(s.T(), s.resident, http.MethodGet, "/api/users", nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.env.As(s.T(), s.northAdmin, http.MethodPut, "/api/users", map[string]interface{}{
		"id":         s.resident.ID.String(),
		"isVerified": false,
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Contains(w.Body.String(), `"isVerified":false`)

	w = s.env.As(s.T(), s.northAdmin, http.MethodPut, "/api/users", map[string]interface{}{
		"id":   s.resident.ID.String(),
		"role": "ADMIN",
	})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.env.As(s.T(), s.resident, http.MethodGet, "/api/users/"+s.resident.ID.String(), nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.env.As(s.T(), s.super, http.MethodPost, "/api/users", map[string]string{
		"username": "south.clerk",
		"email":    "clerk@example.com",
		"password": "SecurePass123",
		"role":     "ADMIN",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.env.As(s.T(), s.super, http.MethodDelete, "/api/users?id="+s.super.ID.String(), nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.env.As(s.T(), s.super, http.MethodDelete, "/api/users?id="+uuid.NewString(), nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func multipartUpload(s *PortalIntegrationTestSuite, token, kind string, content []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	s.Require().NoError(mw.WriteField("kind", kind))
	part, err := mw.CreateFormFile("file", "upload.png")
	s.Require().NoError(err)
	_, err = part.Write(content)
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	w := httptest.NewRecorder()
	s.env.Router.ServeHTTP(w, req)
	return w
}

func pngBytes(n int) []byte {
	data := make([]byte, n)
	copy(data, "\x89PNG\r\n\x1a\n")
	return data
}

func (s *PortalIntegrationTestSuite) TestUpload() {
	token := s.env.Token(s.T(), s.resident)

	w := multipartUpload(s, token, "id_document", pngBytes(6<<20))
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("File too large.", testutil.ErrorMessage(s.T(), w))

	w = multipartUpload(s, token, "id_document", []byte("plain text"))
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Invalid file type. Only PNG and JPEG are allowed.", testutil.ErrorMessage(s.T(), w))

	w = multipartUpload(s, token, "id_document", pngBytes(1024))
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var out struct {
		Key string `json:"key"`
		URL string `json:"url"`
	}
	testutil.Decode(s.T(), w, &out)

	// local uploads are served back under the public prefix
	w = s.env.Do(s.T(), http.MethodGet, out.URL, nil, "")
	s.Equal(http.StatusOK, w.Code)

	neighbour := testutil.CreateUser(s.T(), s.env.DB, models.RoleUser, s.south)
	w = s.env.As(s.T(), neighbour, http.MethodDelete, "/api/upload?key="+out.Key, nil)
	s.Equal(http.StatusForbidden, w.Code)
	w = s.env.As(s.T(), s.southAdmin, http.MethodDelete, "/api/upload?key="+out.Key, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.env.Do(s.T(), http.MethodDelete, "/api/upload?key="+out.Key, nil, token)
	s.Equal(http.StatusOK, w.Code)
}

func (s *PortalIntegrationTestSuite) TestAccessCheck() {
	w := s.env.As(s.T(), s.resident, http.MethodGet, "/api/access?path=/admin/items", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var body struct {
		Prefix  string `json:"prefix"`
		Allowed bool   `json:"allowed"`
	}
	testutil.Decode(s.T(), w, &body)
	s.Equal("/admin", body.Prefix)
	s.False(body.Allowed)

	w = s.env.As(s.T(), s.northAdmin, http.MethodGet, "/api/access?path=/admin/items", nil)
	testutil.Decode(s.T(), w, &body)
	s.True(body.Allowed)

	w = s.env.Do(s.T(), http.MethodGet, "/api/access", nil, "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func TestPortalIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(PortalIntegrationTestSuite))
}
