package controller_test

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/controller"
	"github.com/vibast-solutions/ms-go-identity/app/entity"
	"github.com/vibast-solutions/ms-go-identity/app/middleware"
	"github.com/vibast-solutions/ms-go-identity/app/repository"
	"github.com/vibast-solutions/ms-go-identity/app/service"
	"github.com/vibast-solutions/ms-go-identity/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	selectUserColumns     = `SELECT id, username, email, password_hash, status, is_deleted, pending_delete_until,\s+profile_picture, bio, job, location, instagram, whatsapp, created_at, updated_at\s+`
	findByIDQuery         = `(?s)` + selectUserColumns + `FROM users WHERE id = \?`
	findByIDForUpdate     = `(?s)` + selectUserColumns + `FROM users WHERE id = \? FOR UPDATE`
	findByIdentifierQuery = `(?s)` + selectUserColumns + `FROM users WHERE username = \? OR email = \?`
	existsByUsernameQuery = `(?s)SELECT COUNT\(\*\) FROM users WHERE username = \? AND id <> \?`
	existsByEmailQuery    = `(?s)SELECT COUNT\(\*\) FROM users WHERE email = \? AND id <> \?`
	insertUserQuery       = `(?s)INSERT INTO users \(username, email, password_hash, status`
	softDeleteQuery       = `(?s)UPDATE users SET is_deleted = 1, pending_delete_until = NULL, updated_at = \?\s+WHERE id = \? AND is_deleted = 0`
	upsertRefreshQuery    = `(?s)INSERT INTO refresh_tokens \(user_id, token, expires_at, created_at\)\s+VALUES \(\?, \?, \?, \?\)\s+ON DUPLICATE KEY UPDATE`
	deleteUserTokensQuery = `(?s)DELETE FROM refresh_tokens WHERE user_id = \?\s*$`
	findPendingRequest    = `(?s)SELECT id, user_id, statement, approval_status, created_at\s+FROM poster_requests WHERE user_id = \? AND approval_status = 0`
	insertPosterRequest   = `(?s)INSERT INTO poster_requests \(user_id, statement, approval_status, created_at\)`
	testPassword          = "P@ssw0rd1"
)

var userColumns = []string{
	"id", "username", "email", "password_hash", "status", "is_deleted", "pending_delete_until",
	"profile_picture", "bio", "job", "location", "instagram", "whatsapp", "created_at", "updated_at",
}

type testServer struct {
	echo   *echo.Echo
	mock   sqlmock.Sqlmock
	tokens service.TokenIssuer
	jwtCfg config.JWTConfig
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	jwtCfg := config.JWTConfig{
		AccessSecret:    "access-secret",
		RefreshSecret:   "refresh-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
	opts := []service.Option{service.WithAsyncRunner(func(task func()) { task() })}

	userRepo := repository.NewUserRepository(db)
	hasher := service.NewBcryptHasher(bcrypt.MinCost)
	tokens := service.NewTokenIssuer(repository.NewRefreshTokenRepository(db), jwtCfg, opts...)
	authService := service.NewUserAuthService(userRepo, hasher, tokens, config.PasswordPolicy{MinLength: 8}, opts...)
	profileService := service.NewUserProfileService(userRepo, 6, opts...)
	posterService := service.NewPosterRequestService(db, userRepo, repository.NewPosterRequestRepository(db), opts...)
	lifecycleService := service.NewAccountLifecycleService(userRepo, hasher, tokens, 7*24*time.Hour, opts...)

	e := echo.New()
	controller.RegisterRoutes(e, controller.Handlers{
		Auth:    controller.NewUserAuthController(authService),
		Users:   controller.NewUserController(profileService, lifecycleService),
		Posters: controller.NewPosterRequestController(posterService),
		Admin:   controller.NewAdminController(lifecycleService),
	}, middleware.NewAuthMiddleware(authService), middleware.NewRateLimiter(config.RateLimitConfig{}, nil))

	return &testServer{echo: e, mock: mock, tokens: tokens, jwtCfg: jwtCfg}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) verify(t *testing.T) {
	t.Helper()
	if err := s.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func (s *testServer) accessToken(t *testing.T, user *entity.User) string {
	t.Helper()
	token, _, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		t.Fatalf("issue access token failed: %v", err)
	}
	return token
}

func (s *testServer) expectUser(id uint64, user *entity.User) {
	q := s.mock.ExpectQuery(findByIDQuery).WithArgs(id)
	if user == nil {
		q.WillReturnRows(sqlmock.NewRows(userColumns))
		return
	}
	q.WillReturnRows(userRows(user))
}

func newUser(t *testing.T, id uint64, username, status string) *entity.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	created := time.Now().Add(-24 * time.Hour).UTC().Truncate(time.Second)
	return &entity.User{
		ID:           id,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hashed),
		Status:       status,
		Bio:          "bio of " + username,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func userRows(users ...*entity.User) *sqlmock.Rows {
	rows := sqlmock.NewRows(userColumns)
	for _, u := range users {
		var pending driver.Value
		if u.PendingDeleteUntil.Valid {
			pending = u.PendingDeleteUntil.Time
		}
		rows.AddRow(
			u.ID, u.Username, u.Email, u.PasswordHash, u.Status, u.IsDeleted, pending,
			u.ProfilePicture, u.Bio, u.Job, u.Location, u.Instagram, u.Whatsapp, u.CreatedAt, u.UpdatedAt,
		)
	}
	return rows
}

func countRows(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response json %q: %v", rec.Body.String(), err)
	}
	return body
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}
