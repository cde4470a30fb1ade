package controller_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	httpdto "github.com/vibast-solutions/ms-go-identity/app/dto/http"
	"github.com/vibast-solutions/ms-go-identity/app/entity"
	"github.com/vibast-solutions/ms-go-identity/app/repository"
	"github.com/vibast-solutions/ms-go-identity/app/service"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/healthz", nil, "")
	expectStatus(t, rec, http.StatusOK)
}

func TestRegister_Created(t *testing.T) {
	srv := newTestServer(t)

	srv.mock.ExpectQuery(existsByUsernameQuery).WithArgs("alice", uint64(0)).WillReturnRows(countRows(0))
	srv.mock.ExpectQuery(existsByEmailQuery).WithArgs("alice@example.com", uint64(0)).WillReturnRows(countRows(0))
	srv.mock.ExpectExec(insertUserQuery).WillReturnResult(sqlmock.NewResult(1, 1))

	rec := srv.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username":         "alice",
		"email":            "alice@example.com",
		"password":         testPassword,
		"confirm_password": testPassword,
	}, "")
	expectStatus(t, rec, http.StatusCreated)

	user, ok := decode(t, rec)["user"].(map[string]any)
	if !ok || user["username"] != "alice" || user["status"] != entity.StatusView {
		t.Fatalf("unexpected user in response: %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("response must not expose password data: %s", rec.Body.String())
	}

	srv.verify(t)
}

func TestRegister_Conflict(t *testing.T) {
	srv := newTestServer(t)

	srv.mock.ExpectQuery(existsByUsernameQuery).WithArgs("alice", uint64(0)).WillReturnRows(countRows(1))

	rec := srv.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username":         "alice",
		"email":            "alice@example.com",
		"password":         testPassword,
		"confirm_password": testPassword,
	}, "")
	expectStatus(t, rec, http.StatusConflict)

	srv.verify(t)
}

func TestRegister_ValidationError(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/auth/register", map[string]string{"username": "alice"}, "")
	expectStatus(t, rec, http.StatusBadRequest)

	rec = srv.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username":         "alice",
		"email":            "alice@example.com",
		"password":         testPassword,
		"confirm_password": "different",
	}, "")
	expectStatus(t, rec, http.StatusBadRequest)

	srv.verify(t)
}

func TestLogin_Success(t *testing.T) {
	srv := newTestServer(t)
	alice := newUser(t, 1, "alice", entity.StatusView)

	srv.mock.ExpectQuery(findByIdentifierQuery).WithArgs("alice", "alice").WillReturnRows(userRows(alice))
	srv.mock.ExpectExec(upsertRefreshQuery).
		WithArgs(uint64(1), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := srv.do(t, http.MethodPost, "/auth/login", map[string]string{"identifier": "alice", "password": testPassword}, "")
	expectStatus(t, rec, http.StatusOK)

	body := decode(t, rec)
	if body["access_token"] == "" || body["refresh_token"] == "" {
		t.Fatalf("expected tokens in response: %s", rec.Body.String())
	}

	srv.verify(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	srv := newTestServer(t)
	alice := newUser(t, 1, "alice", entity.StatusView)

	srv.mock.ExpectQuery(findByIdentifierQuery).WithArgs("alice", "alice").WillReturnRows(userRows(alice))

	rec := srv.do(t, http.MethodPost, "/auth/login", map[string]string{"identifier": "alice", "password": "P@ssw0rd2"}, "")
	expectStatus(t, rec, http.StatusUnauthorized)

	srv.verify(t)
}

func TestValidateToken(t *testing.T) {
	srv := newTestServer(t)
	alice := newUser(t, 1, "alice", entity.StatusPost)

	token := srv.accessToken(t, alice)

	promoted := *alice
	promoted.Status = entity.StatusAdmin
	srv.expectUser(1, &promoted)

	rec := srv.do(t, http.MethodPost, "/auth/validate-token", map[string]string{"access_token": token}, "")
	expectStatus(t, rec, http.StatusOK)
	body := decode(t, rec)
	if body["valid"] != true || body["username"] != "alice" || body["status"] != entity.StatusAdmin {
		t.Fatalf("unexpected validate response: %s", rec.Body.String())
	}

	past := time.Now().Add(-time.Hour)
	stale := service.NewTokenIssuer(repository.NewRefreshTokenRepository(nil), srv.jwtCfg,
		service.WithClock(func() time.Time { return past }))
	expired, _, err := stale.IssueAccessToken(alice)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	rec = srv.do(t, http.MethodPost, "/auth/validate-token", map[string]string{"access_token": expired}, "")
	expectStatus(t, rec, http.StatusUnauthorized)
	if decode(t, rec)["error"] != service.ErrTokenExpired.Error() {
		t.Fatalf("expected expired error, got %s", rec.Body.String())
	}

	srv.verify(t)
}

func TestValidateToken_DeletedAccount(t *testing.T) {
	srv := newTestServer(t)
	alice := newUser(t, 1, "alice", entity.StatusAdmin)
	token := srv.accessToken(t, alice)

	deleted := *alice
	deleted.IsDeleted = true
	srv.expectUser(1, &deleted)

	rec := srv.do(t, http.MethodPost, "/auth/validate-token", map[string]string{"access_token": token}, "")
	expectStatus(t, rec, http.StatusUnauthorized)
	if decode(t, rec)["error"] != service.ErrAccountInactive.Error() {
		t.Fatalf("expected inactive account error, got %s", rec.Body.String())
	}

	srv.verify(t)
}

func TestMe_RequiresAuth(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/users/me", nil, "")
	expectStatus(t, rec, http.StatusUnauthorized)
}

func TestMe_ReturnsOwnProfile(t *testing.T) {
	srv := newTestServer(t)
	alice := newUser(t, 1, "alice", entity.StatusView)
	token := srv.accessToken(t, alice)

	srv.expectUser(1, alice)
	srv.expectUser(1, alice)

	rec := srv.do(t, http.MethodGet, "/users/me", nil, token)
	expectStatus(t, rec, http.StatusOK)
	if decode(t, rec)["email"] != "alice@example.com" {
		t.Fatalf("expected own email in profile: %s", rec.Body.String())
	}

	srv.verify(t)
}

func TestMe_DeletedUserTokenRejected(t *testing.T) {
	srv := newTestServer(t)
	alice := newUser(t, 1, "alice", entity.StatusView)
	token := srv.accessToken(t, alice)

	alice.IsDeleted = true
	srv.expectUser(1, alice)

	rec := srv.do(t, http.MethodGet, "/users/me", nil, token)
	expectStatus(t, rec, http.StatusUnauthorized)

	srv.verify(t)
}

func TestPublicProfile_DeletedUserProjection(t *testing.T) {
	srv := newTestServer(t)
	bob := newUser(t, 2, "bob", entity.StatusPost)
	bob.IsDeleted = true

	srv.expectUser(2, bob)

	rec := srv.do(t, http.MethodGet, "/users/2", nil, "")
	expectStatus(t, rec, http.StatusOK)

	body := decode(t, rec)
	if body["username"] != httpdto.DeletedUsername {
		t.Fatalf("expected deleted username, got %v", body["username"])
	}
	if bio, present := body["bio"]; !present || bio != nil {
		t.Fatalf("expected bio to be null, got %v", body["bio"])
	}

	srv.verify(t)
}

func TestPublicProfile_UnknownUser(t *testing.T) {
	srv := newTestServer(t)

	srv.expectUser(42, nil)

	rec := srv.do(t, http.MethodGet, "/users/42", nil, "")
	expectStatus(t, rec, http.StatusNotFound)

	srv.verify(t)
}

func TestUpdateProfile_ForbiddenForOtherUser(t *testing.T) {
	srv := newTestServer(t)
	alice := newUser(t, 1, "alice", entity.StatusView)
	mallory := newUser(t, 5, "mallory", entity.StatusView)
	token := srv.accessToken(t, mallory)

	srv.expectUser(5, mallory)
	srv.expectUser(1, alice)

	rec := srv.do(t, http.MethodPut, "/users/1", map[string]string{"bio": "pwned"}, token)
	expectStatus(t, rec, http.StatusForbidden)

	srv.verify(t)
}

func TestSelfDelete_SchedulesDeletion(t *testing.T) {
	srv := newTestServer(t)
	alice := newUser(t, 1, "alice", entity.StatusView)
	token := srv.accessToken(t, alice)

	srv.expectUser(1, alice)
	srv.expectUser(1, alice)
	srv.mock.ExpectExec(`(?s)UPDATE users SET pending_delete_until = \?`).WillReturnResult(sqlmock.NewResult(0, 1))

	rec := srv.do(t, http.MethodDelete, "/users/me", map[string]string{
		"email":            "alice@example.com",
		"password":         testPassword,
		"confirm_password": testPassword,
	}, token)
	expectStatus(t, rec, http.StatusOK)
	if _, ok := decode(t, rec)["pending_delete_until"]; !ok {
		t.Fatalf("expected pending_delete_until in response: %s", rec.Body.String())
	}

	srv.verify(t)
}

func TestSubmitPosterRequest_EmptyBody(t *testing.T) {
	srv := newTestServer(t)
	alice := newUser(t, 1, "alice", entity.StatusView)
	token := srv.accessToken(t, alice)

	srv.expectUser(1, alice)
	srv.mock.ExpectBegin()
	srv.mock.ExpectQuery(findByIDForUpdate).WithArgs(uint64(1)).WillReturnRows(userRows(alice))
	srv.mock.ExpectQuery(findPendingRequest).WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "statement", "approval_status", "created_at"}))
	srv.mock.ExpectExec(insertPosterRequest).WillReturnResult(sqlmock.NewResult(3, 1))
	srv.mock.ExpectCommit()

	rec := srv.do(t, http.MethodPost, "/poster-requests", nil, token)
	expectStatus(t, rec, http.StatusCreated)

	body := decode(t, rec)
	if body["statement"] != entity.DefaultPosterStatement || body["approval_status"] != false {
		t.Fatalf("unexpected poster request: %s", rec.Body.String())
	}

	srv.verify(t)
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	srv := newTestServer(t)
	alice := newUser(t, 1, "alice", entity.StatusPost)
	token := srv.accessToken(t, alice)

	srv.expectUser(1, alice)

	rec := srv.do(t, http.MethodDelete, "/admin/users/2", nil, token)
	expectStatus(t, rec, http.StatusForbidden)

	srv.verify(t)
}

func TestAdminDelete_Success(t *testing.T) {
	srv := newTestServer(t)
	admin := newUser(t, 9, "root", entity.StatusAdmin)
	bob := newUser(t, 2, "bob", entity.StatusPost)
	token := srv.accessToken(t, admin)

	srv.expectUser(9, admin)
	srv.expectUser(2, bob)
	srv.mock.ExpectExec(softDeleteQuery).WillReturnResult(sqlmock.NewResult(0, 1))
	srv.mock.ExpectExec(deleteUserTokensQuery).WithArgs(uint64(2)).WillReturnResult(sqlmock.NewResult(0, 1))

	rec := srv.do(t, http.MethodDelete, "/admin/users/2", nil, token)
	expectStatus(t, rec, http.StatusOK)

	srv.verify(t)
}

func TestAdminRestore_NotDeleted(t *testing.T) {
	srv := newTestServer(t)
	admin := newUser(t, 9, "root", entity.StatusAdmin)
	bob := newUser(t, 2, "bob", entity.StatusPost)
	token := srv.accessToken(t, admin)

	srv.expectUser(9, admin)
	srv.expectUser(2, bob)

	rec := srv.do(t, http.MethodPost, "/admin/users/2/restore", nil, token)
	expectStatus(t, rec, http.StatusConflict)

	srv.verify(t)
}

func TestListDesigners_PageOutOfRange(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/designers?page=4611686018427387904&limit=100", nil, "")
	expectStatus(t, rec, http.StatusBadRequest)

	rec = srv.do(t, http.MethodGet, "/designers?page=1&limit=101", nil, "")
	expectStatus(t, rec, http.StatusBadRequest)

	srv.verify(t)
}
