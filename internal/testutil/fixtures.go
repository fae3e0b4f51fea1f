package testutil

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/viniuy/e-barangay/internal/models"
	"github.com/viniuy/e-barangay/internal/utils"
)

// TestPassword is the password of every fixture user.
const TestPassword = "Password123"

var testPasswordHash string

func passwordHash(t testing.TB) string {
	if testPasswordHash == "" {
		h, err := utils.HashPassword(TestPassword)
		if err != nil {
			t.Fatalf("Failed to hash password: %v", err)
		}
		testPasswordHash = h
	}
	return testPasswordHash
}

func CreateBarangay(t testing.TB, db *gorm.DB, name string) *models.Barangay {
	t.Helper()

	b := &models.Barangay{Name: name}
	if err := db.Create(b).Error; err != nil {
		t.Fatalf("Failed to create barangay %q: %v", name, err)
	}
	return b
}

func CreateCategory(t testing.TB, db *gorm.DB, name string) *models.Category {
	t.Helper()

	c := &models.Category{Name: name}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("Failed to create category %q: %v", name, err)
	}
	return c
}

// CreateUser stores a verified user with TestPassword. barangay may be nil.
func CreateUser(t testing.TB, db *gorm.DB, role models.Role, barangay *models.Barangay) *models.User {
	t.Helper()

	short := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	u := &models.User{
		Username:     strings.ToLower(string(role)) + "_" + short,
		Email:        short + "@example.com",
		PasswordHash: passwordHash(t),
		Role:         role,
		FirstName:    "Juan",
		LastName:     "Dela Cruz",
		IsVerified:   true,
	}
	if barangay != nil {
		u.BarangayID = &barangay.ID
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return u
}

// CreateItem stores an available service in barangay. Use mutate to change
// fields before insert.
func CreateItem(t testing.TB, db *gorm.DB, barangay *models.Barangay, mutate ...func(*models.Item)) *models.Item {
	t.Helper()

	item := &models.Item{
		Name:           "Barangay Clearance",
		Description:    "Certificate of good standing",
		Type:           models.ItemTypeService,
		ProcessingTime: "1 day",
		Availability:   "Weekdays",
		Status:         models.ItemAvailable,
	}
	if barangay != nil {
		item.BarangayID = &barangay.ID
	}
	for _, m := range mutate {
		m(item)
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("Failed to create item: %v", err)
	}
	return item
}

// CreateRequest stores a request by user against item with the given status.
func CreateRequest(t testing.TB, db *gorm.DB, user *models.User, item *models.Item, status models.RequestStatus) *models.Request {
	t.Helper()

	req := &models.Request{UserID: user.ID, ItemID: item.ID, Status: status}
	if err := db.Create(req).Error; err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	return req
}

// CountActions returns how many audit entries exist for a request.
func CountActions(t testing.TB, db *gorm.DB, requestID uuid.UUID) int64 {
	t.Helper()

	var n int64
	if err := db.Model(&models.RequestAction{}).Where("request_id = ?", requestID).Count(&n).Error; err != nil {
		t.Fatalf("Failed to count actions: %v", err)
	}
	return n
}
