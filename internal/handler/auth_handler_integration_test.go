package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/acadia-lms/acadia/internal/handler"
	"github.com/acadia-lms/acadia/internal/middleware"
	"github.com/acadia-lms/acadia/internal/models"
	"github.com/acadia-lms/acadia/internal/repository"
	"github.com/acadia-lms/acadia/internal/service"
	"github.com/acadia-lms/acadia/internal/testutil"
	"github.com/acadia-lms/acadia/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

const testSecret = "test-secret-key"

// AuthHandlerIntegrationTestSuite defines test suite
type AuthHandlerIntegrationTestSuite struct {
	suite.Suite
	testDB      *testutil.TestDatabase
	authHandler *handler.AuthHandler
	router      *gin.Engine
}

// SetupSuite runs before all tests
func (s *AuthHandlerIntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)

	// Initialize logger (required for handlers)
	logger.Init(false)

	// Start in-memory SQLite test database (migrations run automatically)
	s.testDB = testutil.SetupTestDatabase(s.T())

	// Setup repositories and services
	userRepo := repository.NewUserRepository(s.testDB.DB)
	authService := service.NewAuthService(userRepo, testSecret, 1*time.Hour, "development")

	// Setup handler
	s.authHandler = handler.NewAuthHandler(authService)

	// Setup router
	s.router = gin.New()
	s.router.POST("/api/auth/register", s.authHandler.Register)
	s.router.POST("/api/auth/login", s.authHandler.Login)

	protected := s.router.Group("/api")
	protected.Use(middleware.AuthMiddleware(testSecret))
	protected.GET("/me", s.authHandler.Me)
}

// TearDownSuite runs after all tests
func (s *AuthHandlerIntegrationTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

// SetupTest runs before each test (clean database)
func (s *AuthHandlerIntegrationTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)
}

func (s *AuthHandlerIntegrationTestSuite) postJSON(path string, body map[string]string) *httptest.ResponseRecorder {
	bodyBytes, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// TestRegisterSuccess tests successful user registration
func (s *AuthHandlerIntegrationTestSuite) TestRegisterSuccess() {
	w := s.postJSON("/api/auth/register", map[string]string{
		"name":     "New Student",
		"email":    "newstudent@example.com",
		"password": "SecurePass123",
	})

	assert.Equal(s.T(), http.StatusCreated, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), "User registered successfully", response["message"])

	// New accounts always start as students
	user := response["user"].(map[string]interface{})
	assert.Equal(s.T(), "New Student", user["name"])
	assert.Equal(s.T(), "newstudent@example.com", user["email"])
	assert.Equal(s.T(), string(models.RoleStudent), user["role"])

	// Check session cookie
	var tokenCookie *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "token" {
			tokenCookie = cookie
			break
		}
	}
	assert.NotNil(s.T(), tokenCookie)
	assert.True(s.T(), tokenCookie.HttpOnly)
	assert.Equal(s.T(), http.SameSiteLaxMode, tokenCookie.SameSite)
}

// TestRegisterDuplicateEmail tests registration with existing email
func (s *AuthHandlerIntegrationTestSuite) TestRegisterDuplicateEmail() {
	existingUser, _ := testutil.CreateTestUser("Existing", "test@example.com", "Password123", models.RoleStudent)
	s.testDB.DB.Create(existingUser)

	w := s.postJSON("/api/auth/register", map[string]string{
		"name":     "Different",
		"email":    "test@example.com", // Same email
		"password": "SecurePass123",
	})

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Contains(s.T(), response["error"], "email already exists")
}

// TestRegisterInvalidInput tests registration with invalid input
func (s *AuthHandlerIntegrationTestSuite) TestRegisterInvalidInput() {
	testCases := []struct {
		name    string
		reqBody map[string]string
	}{
		{
			name: "Invalid email",
			reqBody: map[string]string{
				"name":     "Test User",
				"email":    "invalid-email",
				"password": "Pass123456",
			},
		},
		{
			name: "Short password",
			reqBody: map[string]string{
				"name":     "Test User",
				"email":    "test@example.com",
				"password": "short",
			},
		},
		{
			name: "Missing name",
			reqBody: map[string]string{
				"email":    "test@example.com",
				"password": "Pass123456",
			},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			w := s.postJSON("/api/auth/register", tc.reqBody)
			assert.Equal(s.T(), http.StatusBadRequest, w.Code)
		})
	}
}

// TestLoginSuccess tests successful login
func (s *AuthHandlerIntegrationTestSuite) TestLoginSuccess() {
	testUser, _ := testutil.CreateTestUser("Login User", "login@example.com", "LoginPass123", models.RoleStudent)
	s.testDB.DB.Create(testUser)

	w := s.postJSON("/api/auth/login", map[string]string{
		"email":    "login@example.com",
		"password": "LoginPass123",
	})

	assert.Equal(s.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(s.T(), err)
	assert.Equal(s.T(), "Login successful", response["message"])

	user := response["user"].(map[string]interface{})
	assert.Equal(s.T(), "Login User", user["name"])
	assert.Equal(s.T(), "login@example.com", user["email"])

	assert.NotEmpty(s.T(), w.Result().Cookies())
}

// TestLoginInvalidCredentials tests login with wrong password
func (s *AuthHandlerIntegrationTestSuite) TestLoginInvalidCredentials() {
	testUser, _ := testutil.CreateTestUser("Login User", "login@example.com", "CorrectPass123", models.RoleStudent)
	s.testDB.DB.Create(testUser)

	w := s.postJSON("/api/auth/login", map[string]string{
		"email":    "login@example.com",
		"password": "WrongPass123",
	})

	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Contains(s.T(), response["error"], "invalid credentials")
}

// TestLoginNonExistentUser tests login with non-existent email
func (s *AuthHandlerIntegrationTestSuite) TestLoginNonExistentUser() {
	w := s.postJSON("/api/auth/login", map[string]string{
		"email":    "nonexistent@example.com",
		"password": "SomePass123",
	})

	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Contains(s.T(), response["error"], "invalid credentials")
}

// TestMeWithBearerToken tests the /me endpoint through the auth middleware
func (s *AuthHandlerIntegrationTestSuite) TestMeWithBearerToken() {
	// Register to obtain a token
	w := s.postJSON("/api/auth/register", map[string]string{
		"name":     "Profile User",
		"email":    "profile@example.com",
		"password": "SecurePass123",
	})
	assert.Equal(s.T(), http.StatusCreated, w.Code)

	var tokenCookie *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "token" {
			tokenCookie = cookie
			break
		}
	}
	assert.NotNil(s.T(), tokenCookie)

	// Bearer header path
	req, _ := http.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokenCookie.Value)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	user := response["user"].(map[string]interface{})
	assert.Equal(s.T(), "profile@example.com", user["email"])

	// Missing token is rejected
	req, _ = http.NewRequest(http.MethodGet, "/api/me", nil)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

// TestSuite runs all tests in the suite
func TestAuthHandlerIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerIntegrationTestSuite))
}
