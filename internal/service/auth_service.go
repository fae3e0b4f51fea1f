package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/viniuy/e-barangay/internal/apperror"
	"github.com/viniuy/e-barangay/internal/models"
	"github.com/viniuy/e-barangay/internal/repository"
	"github.com/viniuy/e-barangay/internal/session"
	"github.com/viniuy/e-barangay/internal/utils"
	"github.com/viniuy/e-barangay/pkg/logger"
)

var (
	ErrEmailAlreadyExists    = apperror.Validation("Email already exists")
	ErrUsernameAlreadyExists = apperror.Validation("Username already exists")
	ErrInvalidCredentials    = apperror.Unauthorized("Invalid credentials")
	ErrBarangayNotFound      = apperror.NotFound("Barangay not found")

	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
)

// SignupInput is the self-registration form of a resident.
type SignupInput struct {
	Username      string
	Email         string
	Password      string
	FirstName     string
	LastName      string
	ContactNumber string
	Address       string
	BarangayID    *uuid.UUID
}

type AuthService struct {
	userRepo     *repository.UserRepository
	barangayRepo *repository.BarangayRepository
	sessions     *session.Codec
	environment  string
}

func NewAuthService(
	userRepo *repository.UserRepository,
	barangayRepo *repository.BarangayRepository,
	sessions *session.Codec,
	environment string,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		barangayRepo: barangayRepo,
		sessions:     sessions,
		environment:  environment,
	}
}

// IsProduction returns true if running in production environment
func (s *AuthService) IsProduction() bool {
	return s.environment == "production"
}

// SessionTTL is the lifetime of issued session tokens.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessions.TTL()
}

// Signup registers a USER account and opens a session for it.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, string, error) {
	start := time.Now()
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	logger.Log.Debug("Processing signup",
		zap.String("username", in.Username),
		zap.String("email", in.Email),
	)

	// 1. Validate input
	if err := validateCredentials(in.Username, in.Email, in.Password); err != nil {
		logger.Log.Warn("Signup validation failed",
			zap.String("username", in.Username),
			zap.Error(err),
		)
		return nil, "", err
	}

	// 2. Uniqueness
	if err := s.ensureUnique(ctx, in.Username, in.Email); err != nil {
		return nil, "", err
	}

	// 3. Barangay must exist when given
	if err := s.ensureBarangay(ctx, in.BarangayID); err != nil {
		return nil, "", err
	}

	// 4. Hash password (Argon2)
	hashStart := time.Now()
	hashed, err := utils.HashPassword(in.Password)
	if err != nil {
		logger.Log.Error("Failed to hash password", zap.Error(err))
		return nil, "", apperror.Internal(err)
	}
	hashDuration := time.Since(hashStart)

	// 5. Create user
	user := &models.User{
		Username:      in.Username,
		Email:         in.Email,
		PasswordHash:  hashed,
		Role:          models.RoleUser,
		BarangayID:    in.BarangayID,
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		ContactNumber: strings.TrimSpace(in.ContactNumber),
		Address:       strings.TrimSpace(in.Address),
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		logger.Log.Error("Failed to create user in database",
			zap.String("username", in.Username),
			zap.Error(err),
		)
		return nil, "", apperror.Internal(err)
	}

	// 6. Open session
	token, err := s.sessions.Issue(user.ID)
	if err != nil {
		logger.Log.Error("Failed to issue session",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, "", apperror.Internal(err)
	}

	logger.Log.Info("User signed up",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.Duration("hash_duration", hashDuration),
		zap.Duration("total_duration", time.Since(start)),
	)
	return user, token, nil
}

// Login accepts either the email or the username as identifier.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*models.User, string, error) {
	start := time.Now()
	identifier = strings.TrimSpace(identifier)

	// 1. Find user
	var (
		user *models.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.userRepo.GetUserByEmail(ctx, identifier)
	} else {
		user, err = s.userRepo.GetUserByUsername(ctx, identifier)
	}
	if err != nil {
		logger.Log.Error("Failed to load user for login", zap.Error(err))
		return nil, "", apperror.Internal(err)
	}
	if user == nil {
		logger.Log.Warn("Login failed: user not found", zap.String("identifier", identifier))
		return nil, "", ErrInvalidCredentials
	}

	// 2. Verify password
	valid, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		logger.Log.Error("Failed to verify password",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return nil, "", apperror.Internal(err)
	}
	if !valid {
		logger.Log.Warn("Login failed: invalid password", zap.String("user_id", user.ID.String()))
		return nil, "", ErrInvalidCredentials
	}

	// 3. Open session
	token, err := s.sessions.Issue(user.ID)
	if err != nil {
		return nil, "", apperror.Internal(err)
	}

	logger.Log.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
		zap.Duration("total_duration", time.Since(start)),
	)
	return user, token, nil
}

// Logout revokes token. It succeeds for tokens that are already invalid.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Revoke(ctx, token); err != nil {
		logger.Log.Error("Failed to revoke session", zap.Error(err))
		return apperror.Internal(err)
	}
	return nil
}

func (s *AuthService) ensureUnique(ctx context.Context, username, email string) error {
	existing, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return apperror.Internal(err)
	}
	if existing != nil {
		logger.Log.Warn("Email already exists", zap.String("email", email))
		return ErrEmailAlreadyExists
	}

	existing, err = s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return apperror.Internal(err)
	}
	if existing != nil {
		logger.Log.Warn("Username already exists", zap.String("username", username))
		return ErrUsernameAlreadyExists
	}
	return nil
}

func (s *AuthService) ensureBarangay(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	b, err := s.barangayRepo.GetByID(ctx, *id)
	if err != nil {
		return apperror.Internal(err)
	}
	if b == nil {
		return ErrBarangayNotFound
	}
	return nil
}

func validateCredentials(username, email, password string) error {
	if len(username) < 3 {
		return apperror.Validation("Username must be at least 3 characters")
	}
	if len(username) > 50 {
		return apperror.Validation("Username must be at most 50 characters")
	}
	if !usernameRegex.MatchString(username) {
		return apperror.Validation("Username may only contain letters, digits, dots, dashes and underscores")
	}

	if !emailRegex.MatchString(email) {
		return apperror.Validation("Invalid email format")
	}
	if len(email) > 100 {
		return apperror.Validation("Email too long")
	}

	if len(password) < 8 {
		return apperror.Validation("Password must be at least 8 characters")
	}
	if len(password) > 128 {
		return apperror.Validation("Password too long")
	}
	return nil
}
