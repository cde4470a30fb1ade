package service_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"sync"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/entity"
	"github.com/vibast-solutions/ms-go-identity/app/events"
	"github.com/vibast-solutions/ms-go-identity/app/repository"
	"github.com/vibast-solutions/ms-go-identity/app/service"
	"github.com/vibast-solutions/ms-go-identity/config"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"
)

const (
	selectUserColumns         = `SELECT id, username, email, password_hash, status, is_deleted, pending_delete_until,\s+profile_picture, bio, job, location, instagram, whatsapp, created_at, updated_at\s+`
	insertUserQuery           = `(?s)INSERT INTO users \(username, email, password_hash, status, profile_picture, bio, job, location,\s+instagram, whatsapp, created_at, updated_at\)`
	findByIDQuery             = `(?s)` + selectUserColumns + `FROM users WHERE id = \?`
	findByIDForUpdateQuery    = `(?s)` + selectUserColumns + `FROM users WHERE id = \? FOR UPDATE`
	findByUsernameQuery       = `(?s)` + selectUserColumns + `FROM users WHERE username = \?\s*$`
	findByIdentifierQuery     = `(?s)` + selectUserColumns + `FROM users WHERE username = \? OR email = \?`
	existsByUsernameQuery     = `(?s)SELECT COUNT\(\*\) FROM users WHERE username = \? AND id <> \?`
	existsByEmailQuery        = `(?s)SELECT COUNT\(\*\) FROM users WHERE email = \? AND id <> \?`
	updateProfileQuery        = `(?s)UPDATE users SET\s+username = \?,\s+email = \?`
	updatePasswordQuery       = `(?s)UPDATE users SET password_hash = \?, updated_at = \? WHERE id = \?`
	setStatusQuery            = `(?s)UPDATE users SET status = \?, updated_at = \? WHERE id = \?\s*$`
	promoteUserQuery          = `(?s)UPDATE users SET status = \?, updated_at = \?\s+WHERE id = \? AND status = \? AND is_deleted = 0 AND pending_delete_until IS NULL`
	setPendingDeleteQuery     = `(?s)UPDATE users SET pending_delete_until = \?, updated_at = \? WHERE id = \? AND is_deleted = 0`
	clearPendingDeleteQuery   = `(?s)UPDATE users SET pending_delete_until = NULL, updated_at = \?\s+WHERE id = \? AND is_deleted = 0 AND pending_delete_until > \?`
	softDeleteQuery           = `(?s)UPDATE users SET is_deleted = 1, pending_delete_until = NULL, updated_at = \?\s+WHERE id = \? AND is_deleted = 0`
	undeleteQuery             = `(?s)UPDATE users SET is_deleted = 0, pending_delete_until = NULL, updated_at = \?\s+WHERE id = \?`
	finalizeDeletesQuery      = `(?s)UPDATE users SET is_deleted = 1, pending_delete_until = NULL, updated_at = \?\s+WHERE is_deleted = 0 AND pending_delete_until IS NOT NULL`
	listByStatusQuery         = `(?s)` + selectUserColumns + `FROM users WHERE status = \? AND is_deleted = 0\s+ORDER BY id\s+LIMIT \? OFFSET \?`
	countByStatusQuery        = `(?s)SELECT COUNT\(\*\) FROM users WHERE status = \? AND is_deleted = 0`
	insertPosterRequestQuery  = `(?s)INSERT INTO poster_requests \(user_id, statement, approval_status, created_at\)`
	findPosterRequestQuery    = `(?s)SELECT id, user_id, statement, approval_status, created_at\s+FROM poster_requests WHERE id = \?`
	findPendingRequestQuery   = `(?s)SELECT id, user_id, statement, approval_status, created_at\s+FROM poster_requests WHERE user_id = \? AND approval_status = 0`
	listPosterRequestsQuery   = `(?s)SELECT id, user_id, statement, approval_status, created_at\s+FROM poster_requests\s+ORDER BY created_at DESC`
	markRequestApprovedQuery  = `(?s)UPDATE poster_requests SET approval_status = 1 WHERE id = \?`
	testPassword              = "P@ssw0rd1"
	testAccessSecret          = "access-secret"
	testRefreshSecret         = "refresh-secret"
	testAccessTokenTTL        = 10 * time.Hour
	testRefreshTokenTTL       = 7 * 24 * time.Hour
	testDeleteGracePeriod     = 7 * 24 * time.Hour
)

var (
	userColumns = []string{
		"id", "username", "email", "password_hash", "status", "is_deleted", "pending_delete_until",
		"profile_picture", "bio", "job", "location", "instagram", "whatsapp", "created_at", "updated_at",
	}
	posterRequestColumns = []string{"id", "user_id", "statement", "approval_status", "created_at"}
	fixedNow             = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.AccountEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event events.AccountEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// memoryRefreshStore keeps one token per user, like the unique user_id key.
type memoryRefreshStore struct {
	mu     sync.Mutex
	tokens map[uint64]entity.RefreshToken
}

func newMemoryRefreshStore() *memoryRefreshStore {
	return &memoryRefreshStore{tokens: make(map[uint64]entity.RefreshToken)}
}

func (s *memoryRefreshStore) Upsert(_ context.Context, token *entity.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.UserID] = *token
	return nil
}

func (s *memoryRefreshStore) FindByUserAndToken(_ context.Context, userID uint64, token string) (*entity.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tokens[userID]
	if !ok || stored.Token != token {
		return nil, nil
	}
	return &stored, nil
}

func (s *memoryRefreshStore) DeleteByToken(_ context.Context, userID uint64, token string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tokens[userID]
	if !ok || stored.Token != token {
		return 0, nil
	}
	delete(s.tokens, userID)
	return 1, nil
}

func (s *memoryRefreshStore) DeleteByUserID(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, userID)
	return nil
}

func (s *memoryRefreshStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, token := range s.tokens {
		if token.ExpiresAt.Before(now) {
			delete(s.tokens, id)
			n++
		}
	}
	return n, nil
}

func (s *memoryRefreshStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

type testEnv struct {
	db        *sql.DB
	mock      sqlmock.Sqlmock
	clock     *testClock
	publisher *recordingPublisher
	store     *memoryRefreshStore
	hasher    service.PasswordHasher
	tokens    service.TokenIssuer
	auth      service.UserAuthService
	profiles  service.UserProfileService
	posters   service.PosterRequestService
	lifecycle service.AccountLifecycleService
}

func lenientPolicy() config.PasswordPolicy {
	return config.PasswordPolicy{MinLength: 1}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithPolicy(t, lenientPolicy())
}

func newTestEnvWithPolicy(t *testing.T, policy config.PasswordPolicy) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	env := &testEnv{
		db:        db,
		mock:      mock,
		clock:     &testClock{now: fixedNow},
		publisher: &recordingPublisher{},
		store:     newMemoryRefreshStore(),
		hasher:    service.NewBcryptHasher(bcrypt.MinCost),
	}

	opts := []service.Option{
		service.WithClock(env.clock.Now),
		service.WithPublisher(env.publisher),
		service.WithAsyncRunner(func(task func()) { task() }),
	}
	jwtCfg := config.JWTConfig{
		AccessSecret:    testAccessSecret,
		RefreshSecret:   testRefreshSecret,
		AccessTokenTTL:  testAccessTokenTTL,
		RefreshTokenTTL: testRefreshTokenTTL,
	}

	userRepo := repository.NewUserRepository(db)
	env.tokens = service.NewTokenIssuer(env.store, jwtCfg, opts...)
	env.auth = service.NewUserAuthService(userRepo, env.hasher, env.tokens, policy, opts...)
	env.profiles = service.NewUserProfileService(userRepo, 6, opts...)
	env.posters = service.NewPosterRequestService(db, userRepo, repository.NewPosterRequestRepository(db), opts...)
	env.lifecycle = service.NewAccountLifecycleService(userRepo, env.hasher, env.tokens, testDeleteGracePeriod, opts...)
	return env
}

func (e *testEnv) verify(t *testing.T) {
	t.Helper()
	if err := e.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func (e *testEnv) hash(t *testing.T, plain string) string {
	t.Helper()
	hashed, err := e.hasher.Hash(plain)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	return hashed
}

func (e *testEnv) newUser(t *testing.T, id uint64, username, status string) *entity.User {
	t.Helper()
	return &entity.User{
		ID:           id,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: e.hash(t, testPassword),
		Status:       status,
		Bio:          "bio of " + username,
		CreatedAt:    fixedNow.Add(-30 * 24 * time.Hour),
		UpdatedAt:    fixedNow.Add(-30 * 24 * time.Hour),
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

func posterRequestRows(requests ...*entity.PosterRequest) *sqlmock.Rows {
	rows := sqlmock.NewRows(posterRequestColumns)
	for _, r := range requests {
		rows.AddRow(r.ID, r.UserID, r.Statement, r.ApprovalStatus, r.CreatedAt)
	}
	return rows
}

func expectFindUserByID(mock sqlmock.Sqlmock, id uint64, user *entity.User) {
	q := mock.ExpectQuery(findByIDQuery).WithArgs(id)
	if user == nil {
		q.WillReturnRows(sqlmock.NewRows(userColumns))
		return
	}
	q.WillReturnRows(userRows(user))
}

func expectFindUserByIdentifier(mock sqlmock.Sqlmock, identifier string, user *entity.User) {
	q := mock.ExpectQuery(findByIdentifierQuery).WithArgs(identifier, identifier)
	if user == nil {
		q.WillReturnRows(sqlmock.NewRows(userColumns))
		return
	}
	q.WillReturnRows(userRows(user))
}

func countRows(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}
