package service_test

import (
	"testing"
	"time"

	"github.com/acadia-lms/acadia/internal/models"
	"github.com/acadia-lms/acadia/internal/repository"
	"github.com/acadia-lms/acadia/internal/service"
	"github.com/acadia-lms/acadia/internal/testutil"
	"github.com/acadia-lms/acadia/internal/utils"
	"github.com/acadia-lms/acadia/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	testJWTSecret        = "test-secret-key-for-auth-testing"
	testFallbackEmail    = "bootstrap@example.com"
	testFallbackPassword = "Bootstrap-Secret-1"
)

// AuthServiceIntegrationTestSuite covers registration, login and the
// bootstrap fallback admin.
type AuthServiceIntegrationTestSuite struct {
	suite.Suite
	testDB      *testutil.TestDatabase
	authService *service.AuthService
}

func (s *AuthServiceIntegrationTestSuite) SetupSuite() {
	logger.Init(false)
	s.testDB = testutil.SetupTestDatabase(s.T())
}

func (s *AuthServiceIntegrationTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

func (s *AuthServiceIntegrationTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)

	userRepo := repository.NewUserRepository(s.testDB.DB)
	s.authService = service.NewAuthService(userRepo, testJWTSecret, time.Hour, "test").
		WithFallbackAdmin(testFallbackEmail, testFallbackPassword)
}

// TestRegister: new accounts are STUDENT, the token carries the identity.
func (s *AuthServiceIntegrationTestSuite) TestRegister() {
	user, token, err := s.authService.Register("New Student", "New.Student@Example.com", "Password123")
	require.NoError(s.T(), err)
	require.NotNil(s.T(), user)
	assert.Equal(s.T(), models.RoleStudent, user.Role)
	assert.Equal(s.T(), "new.student@example.com", user.Email)
	assert.NotEmpty(s.T(), user.ID)

	claims, err := utils.ValidateToken(token, testJWTSecret)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), user.ID, claims.UserID)
	assert.Equal(s.T(), models.RoleStudent, claims.Role)
}

// TestRegisterValidation: email format, password strength, duplicates.
func (s *AuthServiceIntegrationTestSuite) TestRegisterValidation() {
	_, _, err := s.authService.Register("User", "not-an-email", "Password123")
	assert.ErrorIs(s.T(), err, service.ErrInvalidEmail)

	_, _, err = s.authService.Register("User", "user@example.com", "short")
	assert.ErrorIs(s.T(), err, service.ErrWeakPassword)

	_, _, err = s.authService.Register("User", "user@example.com", "Password123")
	require.NoError(s.T(), err)

	// Same email again, case-insensitively
	_, _, err = s.authService.Register("Other", "USER@example.com", "Password123")
	assert.ErrorIs(s.T(), err, service.ErrEmailAlreadyExists)
}

// TestLogin: correct credentials pass, wrong password fails.
func (s *AuthServiceIntegrationTestSuite) TestLogin() {
	registered, _, err := s.authService.Register("Login User", "login@example.com", "Password123")
	require.NoError(s.T(), err)

	user, token, err := s.authService.Login("login@example.com", "Password123")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), registered.ID, user.ID)
	assert.NotEmpty(s.T(), token)

	_, _, err = s.authService.Login("login@example.com", "WrongPassword1")
	assert.ErrorIs(s.T(), err, service.ErrInvalidCredentials)
}

// TestFallbackAdminLogin: with no matching user row the bootstrap credentials
// create and log in the admin account.
func (s *AuthServiceIntegrationTestSuite) TestFallbackAdminLogin() {
	user, token, err := s.authService.Login(testFallbackEmail, testFallbackPassword)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), user)
	assert.Equal(s.T(), models.RoleAdmin, user.Role)
	assert.NotEmpty(s.T(), token)

	// The account now exists as a normal row with a hashed password
	var stored models.User
	require.NoError(s.T(), s.testDB.DB.First(&stored, "email = ?", testFallbackEmail).Error)
	assert.Equal(s.T(), models.RoleAdmin, stored.Role)
	assert.NotEqual(s.T(), testFallbackPassword, stored.PasswordHash)

	// Second login takes the normal path against the stored hash
	again, _, err := s.authService.Login(testFallbackEmail, testFallbackPassword)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), user.ID, again.ID)
}

// TestFallbackAdminRejections: wrong credentials or a disabled fallback fail.
func (s *AuthServiceIntegrationTestSuite) TestFallbackAdminRejections() {
	_, _, err := s.authService.Login(testFallbackEmail, "WrongBootstrapPass")
	assert.ErrorIs(s.T(), err, service.ErrInvalidCredentials)

	_, _, err = s.authService.Login("unknown@example.com", testFallbackPassword)
	assert.ErrorIs(s.T(), err, service.ErrInvalidCredentials)

	// Without configured fallback, unknown emails always fail
	userRepo := repository.NewUserRepository(s.testDB.DB)
	plain := service.NewAuthService(userRepo, testJWTSecret, time.Hour, "test")
	_, _, err = plain.Login(testFallbackEmail, testFallbackPassword)
	assert.ErrorIs(s.T(), err, service.ErrInvalidCredentials)
}

// TestUpdateUserRole: role changes are validated against the enum.
func (s *AuthServiceIntegrationTestSuite) TestUpdateUserRole() {
	user, _, err := s.authService.Register("Promote Me", "promote@example.com", "Password123")
	require.NoError(s.T(), err)

	updated, err := s.authService.UpdateUserRole(user.ID, models.RoleTeacher)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.RoleTeacher, updated.Role)

	var stored models.User
	require.NoError(s.T(), s.testDB.DB.First(&stored, "id = ?", user.ID).Error)
	assert.Equal(s.T(), models.RoleTeacher, stored.Role)

	_, err = s.authService.UpdateUserRole(user.ID, models.Role("SUPERUSER"))
	assert.ErrorIs(s.T(), err, service.ErrInvalidRole)

	_, err = s.authService.UpdateUserRole("no-such-user", models.RoleAdmin)
	assert.ErrorIs(s.T(), err, service.ErrUserNotFound)
}

func TestAuthServiceIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceIntegrationTestSuite))
}
