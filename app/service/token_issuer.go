package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/entity"
	"github.com/vibast-solutions/ms-go-identity/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessClaims are the claims carried by an access token.
type AccessClaims struct {
	UserID   uint64 `json:"uid"`
	Status   string `json:"status"`
	Username string `json:"uname"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	UserID uint64 `json:"uid"`
	jwt.RegisteredClaims
}

type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

type refreshTokenStore interface {
	Upsert(ctx context.Context, token *entity.RefreshToken) error
	FindByUserAndToken(ctx context.Context, userID uint64, token string) (*entity.RefreshToken, error)
	DeleteByToken(ctx context.Context, userID uint64, token string) (int64, error)
	DeleteByUserID(ctx context.Context, userID uint64) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// TokenIssuer mints and checks the access/refresh pair. Each user holds at
// most one persisted refresh token; issuing a session replaces it.
type TokenIssuer interface {
	IssueSession(ctx context.Context, user *entity.User) (*Session, error)
	IssueAccessToken(user *entity.User) (string, int64, error)
	VerifyAccess(tokenString string) (*AccessClaims, error)
	VerifyRefresh(ctx context.Context, tokenString string) (uint64, error)
	Revoke(ctx context.Context, userID uint64, tokenString string) error
	RevokeAll(ctx context.Context, userID uint64) error
	PruneExpired(ctx context.Context) (int64, error)
}

type tokenIssuer struct {
	base
	store refreshTokenStore
	cfg   config.JWTConfig
}

func NewTokenIssuer(store refreshTokenStore, cfg config.JWTConfig, opts ...Option) TokenIssuer {
	return &tokenIssuer{
		base:  newBase(opts),
		store: store,
		cfg:   cfg,
	}
}

func (t *tokenIssuer) IssueSession(ctx context.Context, user *entity.User) (*Session, error) {
	accessToken, expiresIn, err := t.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}

	now := t.now()
	expiresAt := now.Add(t.cfg.RefreshTokenTTL)
	claims := &refreshClaims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(t.cfg.RefreshSecret))
	if err != nil {
		return nil, err
	}

	if err = t.store.Upsert(ctx, &entity.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
	}, nil
}

func (t *tokenIssuer) IssueAccessToken(user *entity.User) (string, int64, error) {
	now := t.now()
	claims := &AccessClaims{
		UserID:   user.ID,
		Status:   user.Status,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.cfg.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(t.cfg.AccessSecret))
	if err != nil {
		return "", 0, err
	}
	return signed, int64(t.cfg.AccessTokenTTL.Seconds()), nil
}

// VerifyAccess distinguishes ErrTokenExpired from ErrInvalidToken.
func (t *tokenIssuer) VerifyAccess(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := t.parse(tokenString, t.cfg.AccessSecret, claims); err != nil {
		return nil, err
	}
	if claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefresh checks the signature and expiry, then requires the exact
// (user, token) pair to still be persisted.
func (t *tokenIssuer) VerifyRefresh(ctx context.Context, tokenString string) (uint64, error) {
	claims := &refreshClaims{}
	if err := t.parse(tokenString, t.cfg.RefreshSecret, claims); err != nil {
		return 0, ErrInvalidRefreshToken
	}
	if claims.UserID == 0 {
		return 0, ErrInvalidRefreshToken
	}

	stored, err := t.store.FindByUserAndToken(ctx, claims.UserID, tokenString)
	if err != nil {
		return 0, err
	}
	if stored == nil {
		return 0, ErrInvalidRefreshToken
	}
	return claims.UserID, nil
}

func (t *tokenIssuer) Revoke(ctx context.Context, userID uint64, tokenString string) error {
	_, err := t.store.DeleteByToken(ctx, userID, tokenString)
	return err
}

func (t *tokenIssuer) RevokeAll(ctx context.Context, userID uint64) error {
	return t.store.DeleteByUserID(ctx, userID)
}

func (t *tokenIssuer) PruneExpired(ctx context.Context) (int64, error) {
	return t.store.DeleteExpired(ctx, t.now())
}

func (t *tokenIssuer) parse(tokenString, secret string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
