package service

import (
	"crypto/subtle"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/acadia-lms/acadia/internal/models"
	"github.com/acadia-lms/acadia/internal/repository"
	"github.com/acadia-lms/acadia/internal/utils"
	"github.com/acadia-lms/acadia/pkg/logger"
	"go.uber.org/zap"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidRole        = errors.New("invalid role")

	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

type AuthService struct {
	userRepo      *repository.UserRepository
	jwtSecret     string
	jwtExpiration time.Duration
	environment   string

	// Bootstrap credentials honored when no user row matches the login email.
	fallbackEmail    string
	fallbackPassword string
}

func NewAuthService(userRepo *repository.UserRepository, jwtSecret string, jwtExpiration time.Duration, environment string) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		environment:   environment,
	}
}

// WithFallbackAdmin enables the bootstrap admin login. Both values must be
// non-empty for the fallback to be active.
func (s *AuthService) WithFallbackAdmin(email, password string) *AuthService {
	s.fallbackEmail = email
	s.fallbackPassword = password
	return s
}

// IsProduction returns true if running in production environment
func (s *AuthService) IsProduction() bool {
	return s.environment == "production"
}

func (s *AuthService) validateRegisterInput(name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("name is required")
	}
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	if len(password) < 8 {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a STUDENT account and returns the user with a session token.
func (s *AuthService) Register(name, email, password string) (*models.User, string, error) {
	start := time.Now()
	email = strings.ToLower(strings.TrimSpace(email))

	if err := s.validateRegisterInput(name, email, password); err != nil {
		logger.Log.Warn("Registration validation failed",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, "", err
	}

	existing, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		logger.Log.Error("Failed to check email existence",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, "", err
	}
	if existing != nil {
		return nil, "", ErrEmailAlreadyExists
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		logger.Log.Error("Failed to hash password", zap.Error(err))
		return nil, "", err
	}

	user := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         models.RoleStudent,
	}
	if err := s.userRepo.CreateUser(user); err != nil {
		logger.Log.Error("Failed to create user",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, "", err
	}

	token, err := utils.GenerateToken(user, s.jwtSecret, s.jwtExpiration)
	if err != nil {
		logger.Log.Error("Failed to generate JWT token",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		return nil, "", err
	}

	logger.Log.Info("User registered",
		zap.String("user_id", user.ID),
		zap.String("email", email),
		zap.Duration("duration", time.Since(start)),
	)

	return user, token, nil
}

// Login verifies credentials against the user table. When no row matches and
// the bootstrap fallback is configured with the same credentials, the admin
// account is created on the spot and logged in.
func (s *AuthService) Login(email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		logger.Log.Error("Failed to get user by email",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, "", err
	}

	if user == nil {
		return s.fallbackLogin(email, password)
	}

	valid, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		logger.Log.Error("Failed to verify password",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, "", err
	}
	if !valid {
		logger.Log.Warn("Login failed: invalid password",
			zap.String("email", email),
		)
		return nil, "", ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(user, s.jwtSecret, s.jwtExpiration)
	if err != nil {
		return nil, "", err
	}

	logger.Log.Info("User logged in",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)

	return user, token, nil
}

func (s *AuthService) fallbackLogin(email, password string) (*models.User, string, error) {
	if s.fallbackEmail == "" || s.fallbackPassword == "" {
		return nil, "", ErrInvalidCredentials
	}
	emailMatch := subtle.ConstantTimeCompare([]byte(email), []byte(strings.ToLower(s.fallbackEmail))) == 1
	passMatch := subtle.ConstantTimeCompare([]byte(password), []byte(s.fallbackPassword)) == 1
	if !emailMatch || !passMatch {
		return nil, "", ErrInvalidCredentials
	}

	logger.Log.Warn("Bootstrap admin login used",
		zap.String("email", email),
	)

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         models.RoleAdmin,
	}
	if err := s.userRepo.CreateUser(user); err != nil {
		return nil, "", err
	}

	token, err := utils.GenerateToken(user, s.jwtSecret, s.jwtExpiration)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

func (s *AuthService) GetUser(id string) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) GetAllUsers() ([]models.User, error) {
	return s.userRepo.GetAllUsers()
}

// UpdateUserRole changes a user's role (admin operation).
func (s *AuthService) UpdateUserRole(userID string, role models.Role) (*models.User, error) {
	switch role {
	case models.RoleStudent, models.RoleTeacher, models.RoleAdmin:
	default:
		return nil, ErrInvalidRole
	}

	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateUserRole(userID, role); err != nil {
		return nil, err
	}
	user.Role = role

	logger.Log.Info("User role updated",
		zap.String("user_id", userID),
		zap.String("role", string(role)),
	)

	return user, nil
}
