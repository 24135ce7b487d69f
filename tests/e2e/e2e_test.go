package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"observatory/internal/database"
	"observatory/internal/domain"
	"observatory/internal/middleware"
	"observatory/internal/modules/admin"
	"observatory/internal/modules/auth"
	"observatory/internal/modules/booking"
	"observatory/internal/modules/notification"
	"observatory/internal/modules/telescope"
	"observatory/internal/pkg/clock"
	jwtsvc "observatory/internal/pkg/jwt"
	"observatory/internal/realtime"
	"observatory/internal/repository"
)

type E2ETestSuite struct {
	router     *gin.Engine
	db         *gorm.DB
	jwtService *jwtsvc.Service
	now        time.Time
}

type TestResponse struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *ErrorDetail           `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	db, err := database.Connect(":memory:")
	require.NoError(t, err, "Failed to connect to test database")

	// Every pooled connection would get its own empty in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	userRepo := repository.NewUserRepository(db)
	telescopeRepo := repository.NewTelescopeRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	jwtService := jwtsvc.New("test_secret_key_32_characters_min", 24*time.Hour)
	hub := realtime.NewHub()

	// Frozen clock so the cutoff and slot tests are deterministic.
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.Func(func() time.Time { return now })

	notificationService := notification.NewService(notificationRepo, hub)
	notificationHandler := notification.NewHandler(notificationService)

	authService := auth.NewService(userRepo, jwtService)
	authHandler := auth.NewHandler(authService)

	bookingService := booking.NewService(bookingRepo, telescopeRepo, notificationService, hub, clk)
	bookingHandler := booking.NewHandler(bookingService)

	telescopeService := telescope.NewService(telescopeRepo, bookingRepo, clk)
	telescopeHandler := telescope.NewHandler(telescopeService)

	adminService := admin.NewService(bookingRepo)
	adminHandler := admin.NewHandler(adminService)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")

	authHandler.RegisterRoutes(v1)
	telescopeHandler.RegisterPublicRoutes(v1)
	bookingHandler.RegisterPublicRoutes(v1)

	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(jwtService))
	{
		bookingHandler.RegisterRoutes(protected)
		notificationHandler.RegisterRoutes(protected)
	}

	adminGroup := v1.Group("/admin")
	adminGroup.Use(middleware.JWTAuth(jwtService), middleware.AdminOnly())
	{
		adminHandler.RegisterRoutes(adminGroup)
		telescopeHandler.RegisterAdminRoutes(adminGroup)
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte("Admin123!"), bcrypt.DefaultCost)
	adminUser := &domain.User{
		Email:        "admin@test.com",
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		Name:         "Admin User",
	}
	require.NoError(t, db.Create(adminUser).Error)

	require.NoError(t, db.Create(&domain.Telescope{
		Name:     "Dome A 14-inch",
		Location: "Dome A",
		IsActive: true,
	}).Error)

	return &E2ETestSuite{router: r, db: db, jwtService: jwtService, now: now}
}

func (s *E2ETestSuite) makeRequest(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) *TestResponse {
	t.Helper()
	var resp TestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp),
		"unparseable response, status %d body %s", w.Code, w.Body.String())
	return &resp
}

func (s *E2ETestSuite) registerMember(t *testing.T, email string) string {
	t.Helper()
	w := s.makeRequest("POST", "/api/v1/auth/register", map[string]interface{}{
		"email":    email,
		"password": "Password123!",
		"name":     "Test Member",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := parseResponse(t, w)
	return resp.Data["token"].(string)
}

func (s *E2ETestSuite) loginAdmin(t *testing.T) string {
	t.Helper()
	w := s.makeRequest("POST", "/api/v1/auth/login", map[string]interface{}{
		"email":    "admin@test.com",
		"password": "Admin123!",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := parseResponse(t, w)
	return resp.Data["token"].(string)
}

func TestFlow1_RegistrationAndAuth(t *testing.T) {
	suite := setupTestSuite(t)

	t.Run("POST /auth/register", func(t *testing.T) {
		w := suite.makeRequest("POST", "/api/v1/auth/register", map[string]interface{}{
			"email":    "member@test.com",
			"password": "Password123!",
			"name":     "Jane Stargazer",
		}, "")

		assert.Equal(t, http.StatusCreated, w.Code)
		resp := parseResponse(t, w)
		assert.True(t, resp.Success)
		assert.NotEmpty(t, resp.Data["token"])
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		w := suite.makeRequest("POST", "/api/v1/auth/register", map[string]interface{}{
			"email":    "member@test.com",
			"password": "Password123!",
			"name":     "Jane Again",
		}, "")

		assert.Equal(t, http.StatusConflict, w.Code)
		resp := parseResponse(t, w)
		assert.Equal(t, "EMAIL_TAKEN", resp.Error.Code)
	})

	t.Run("POST /auth/login", func(t *testing.T) {
		w := suite.makeRequest("POST", "/api/v1/auth/login", map[string]interface{}{
			"email":    "member@test.com",
			"password": "Password123!",
		}, "")

		assert.Equal(t, http.StatusOK, w.Code)
		resp := parseResponse(t, w)
		assert.NotEmpty(t, resp.Data["token"])
	})

	t.Run("bad password rejected", func(t *testing.T) {
		w := suite.makeRequest("POST", "/api/v1/auth/login", map[string]interface{}{
			"email":    "member@test.com",
			"password": "wrong",
		}, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("protected route requires token", func(t *testing.T) {
		w := suite.makeRequest("GET", "/api/v1/bookings", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestFlow2_SlotsAndBooking(t *testing.T) {
	suite := setupTestSuite(t)
	token := suite.registerMember(t, "member@test.com")

	date := suite.now.AddDate(0, 0, 1).Format("2006-01-02")
	slotStart := suite.now.AddDate(0, 0, 1).Truncate(24 * time.Hour).Add(20 * time.Hour)

	t.Run("GET /telescopes", func(t *testing.T) {
		w := suite.makeRequest("GET", "/api/v1/telescopes", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		resp := parseResponse(t, w)
		assert.Len(t, resp.Data["telescopes"], 1)
	})

	t.Run("GET /telescopes/:id/slots shows full night", func(t *testing.T) {
		w := suite.makeRequest("GET", "/api/v1/telescopes/1/slots?date="+date, nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		resp := parseResponse(t, w)
		assert.Len(t, resp.Data["slots"], 12)
	})

	t.Run("POST /bookings", func(t *testing.T) {
		w := suite.makeRequest("POST", "/api/v1/bookings", map[string]interface{}{
			"telescope_id": 1,
			"start_time":   slotStart.Format(time.RFC3339),
			"end_time":     slotStart.Add(time.Hour).Format(time.RFC3339),
			"purpose":      "Imaging the Ring Nebula in OIII",
		}, token)

		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		resp := parseResponse(t, w)
		booked := resp.Data["booking"].(map[string]interface{})
		assert.Equal(t, "pending", booked["status"])
	})

	t.Run("conflicting booking rejected with 409", func(t *testing.T) {
		other := suite.registerMember(t, "rival@test.com")
		w := suite.makeRequest("POST", "/api/v1/bookings", map[string]interface{}{
			"telescope_id": 1,
			"start_time":   slotStart.Format(time.RFC3339),
			"end_time":     slotStart.Add(time.Hour).Format(time.RFC3339),
			"purpose":      "Trying to grab the same slot",
		}, other)

		assert.Equal(t, http.StatusConflict, w.Code)
		resp := parseResponse(t, w)
		assert.Equal(t, "SLOT_CONFLICT", resp.Error.Code)
	})

	t.Run("booked slot disappears from availability", func(t *testing.T) {
		w := suite.makeRequest("GET", "/api/v1/telescopes/1/slots?date="+date, nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		resp := parseResponse(t, w)
		assert.Len(t, resp.Data["slots"], 11)
	})

	t.Run("purpose too short rejected", func(t *testing.T) {
		w := suite.makeRequest("POST", "/api/v1/bookings", map[string]interface{}{
			"telescope_id": 1,
			"start_time":   slotStart.Add(2 * time.Hour).Format(time.RFC3339),
			"end_time":     slotStart.Add(3 * time.Hour).Format(time.RFC3339),
			"purpose":      "short",
		}, token)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := parseResponse(t, w)
		assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	})

	t.Run("notification stored for the booking", func(t *testing.T) {
		w := suite.makeRequest("GET", "/api/v1/notifications", nil, token)
		assert.Equal(t, http.StatusOK, w.Code)
		resp := parseResponse(t, w)
		assert.NotEmpty(t, resp.Data["notifications"])
	})
}

func TestFlow3_CancellationCutoff(t *testing.T) {
	suite := setupTestSuite(t)
	token := suite.registerMember(t, "member@test.com")

	create := func(start time.Time) int64 {
		w := suite.makeRequest("POST", "/api/v1/bookings", map[string]interface{}{
			"telescope_id": 1,
			"start_time":   start.Format(time.RFC3339),
			"end_time":     start.Add(time.Hour).Format(time.RFC3339),
			"purpose":      "Spectroscopy calibration session",
		}, token)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		resp := parseResponse(t, w)
		return int64(resp.Data["booking"].(map[string]interface{})["id"].(float64))
	}

	t.Run("cancel well before start succeeds", func(t *testing.T) {
		id := create(suite.now.Add(26 * time.Hour))
		w := suite.makeRequest("DELETE", fmt.Sprintf("/api/v1/bookings/%d", id), nil, token)
		assert.Equal(t, http.StatusOK, w.Code)
		resp := parseResponse(t, w)
		booked := resp.Data["booking"].(map[string]interface{})
		assert.Equal(t, "cancelled", booked["status"])
	})

	t.Run("cancel inside the two-hour cutoff fails", func(t *testing.T) {
		id := create(suite.now.Add(119 * time.Minute))
		w := suite.makeRequest("DELETE", fmt.Sprintf("/api/v1/bookings/%d", id), nil, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := parseResponse(t, w)
		assert.Equal(t, "CANCELLATION_CUTOFF", resp.Error.Code)
	})

	t.Run("cannot cancel someone else's booking", func(t *testing.T) {
		id := create(suite.now.Add(30 * time.Hour))
		other := suite.registerMember(t, "rival@test.com")
		w := suite.makeRequest("DELETE", fmt.Sprintf("/api/v1/bookings/%d", id), nil, other)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("double cancel is a conflict", func(t *testing.T) {
		id := create(suite.now.Add(40 * time.Hour))
		w := suite.makeRequest("DELETE", fmt.Sprintf("/api/v1/bookings/%d", id), nil, token)
		require.Equal(t, http.StatusOK, w.Code)

		w = suite.makeRequest("DELETE", fmt.Sprintf("/api/v1/bookings/%d", id), nil, token)
		assert.Equal(t, http.StatusConflict, w.Code)
		resp := parseResponse(t, w)
		assert.Equal(t, "INVALID_TRANSITION", resp.Error.Code)
	})
}

func TestFlow4_AdminOperations(t *testing.T) {
	suite := setupTestSuite(t)
	memberToken := suite.registerMember(t, "member@test.com")
	adminToken := suite.loginAdmin(t)

	start := suite.now.Add(26 * time.Hour)
	w := suite.makeRequest("POST", "/api/v1/bookings", map[string]interface{}{
		"telescope_id": 1,
		"start_time":   start.Format(time.RFC3339),
		"end_time":     start.Add(time.Hour).Format(time.RFC3339),
		"purpose":      "Asteroid occultation timing run",
	}, memberToken)
	require.Equal(t, http.StatusCreated, w.Code)
	bookingID := int64(parseResponse(t, w).Data["booking"].(map[string]interface{})["id"].(float64))

	t.Run("member cannot access admin routes", func(t *testing.T) {
		w := suite.makeRequest("GET", "/api/v1/admin/bookings", nil, memberToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("member cannot change status", func(t *testing.T) {
		w := suite.makeRequest("PATCH", fmt.Sprintf("/api/v1/bookings/%d/status", bookingID),
			map[string]interface{}{"status": "confirmed"}, memberToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin confirms the booking", func(t *testing.T) {
		w := suite.makeRequest("PATCH", fmt.Sprintf("/api/v1/bookings/%d/status", bookingID),
			map[string]interface{}{"status": "confirmed"}, adminToken)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := parseResponse(t, w)
		booked := resp.Data["booking"].(map[string]interface{})
		assert.Equal(t, "confirmed", booked["status"])
	})

	t.Run("illegal transition rejected", func(t *testing.T) {
		w := suite.makeRequest("PATCH", fmt.Sprintf("/api/v1/bookings/%d/status", bookingID),
			map[string]interface{}{"status": "confirmed"}, adminToken)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("GET /admin/bookings", func(t *testing.T) {
		w := suite.makeRequest("GET", "/api/v1/admin/bookings?status=confirmed", nil, adminToken)
		assert.Equal(t, http.StatusOK, w.Code)
		resp := parseResponse(t, w)
		assert.EqualValues(t, 1, resp.Data["total"])
	})

	t.Run("GET /admin/stats", func(t *testing.T) {
		w := suite.makeRequest("GET", "/api/v1/admin/stats", nil, adminToken)
		assert.Equal(t, http.StatusOK, w.Code)
		resp := parseResponse(t, w)
		assert.EqualValues(t, 1, resp.Data["total"])
	})

	t.Run("GET /admin/bookings/export", func(t *testing.T) {
		w := suite.makeRequest("GET", "/api/v1/admin/bookings/export", nil, adminToken)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
		assert.Contains(t, w.Body.String(), "Asteroid occultation timing run")
	})

	t.Run("admin manages telescopes", func(t *testing.T) {
		w := suite.makeRequest("POST", "/api/v1/admin/telescopes", map[string]interface{}{
			"name":     "Dome B 16-inch",
			"location": "Dome B",
		}, adminToken)
		assert.Equal(t, http.StatusCreated, w.Code)

		w = suite.makeRequest("DELETE", "/api/v1/admin/telescopes/2", nil, adminToken)
		assert.Equal(t, http.StatusOK, w.Code)

		// Deactivated telescope no longer serves slots.
		date := suite.now.AddDate(0, 0, 1).Format("2006-01-02")
		w = suite.makeRequest("GET", "/api/v1/telescopes/2/slots?date="+date, nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
