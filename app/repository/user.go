package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-identity/app/entity"
)

const userColumns = `id, username, email, password_hash, status, is_deleted, pending_delete_until,
		       profile_picture, bio, job, location, instagram, whatsapp, created_at, updated_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, status, profile_picture, bio, job, location,
			instagram, whatsapp, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Status,
		user.ProfilePicture,
		user.Bio,
		user.Job,
		user.Location,
		user.Instagram,
		user.Whatsapp,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	user.ID = uint64(id)
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE id = ?
	`
	return r.findOne(ctx, query, id)
}

// FindByIDForUpdate locks the row; it must run inside a transaction.
func (r *UserRepository) FindByIDForUpdate(ctx context.Context, id uint64) (*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE id = ? FOR UPDATE
	`
	return r.findOne(ctx, query, id)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE username = ?
	`
	return r.findOne(ctx, query, username)
}

// FindByUsernameOrEmail matches the identifier against either unique column.
func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, identifier string) (*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE username = ? OR email = ?
		ORDER BY id
		LIMIT 1
	`
	return r.findOne(ctx, query, identifier, identifier)
}

// ExistsByUsername checks all rows, soft-deleted included. excludeID 0 excludes nobody.
func (r *UserRepository) ExistsByUsername(ctx context.Context, username string, excludeID uint64) (bool, error) {
	query := `SELECT COUNT(*) FROM users WHERE username = ? AND id <> ?`
	return r.exists(ctx, query, username, excludeID)
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string, excludeID uint64) (bool, error) {
	query := `SELECT COUNT(*) FROM users WHERE email = ? AND id <> ?`
	return r.exists(ctx, query, email, excludeID)
}

func (r *UserRepository) UpdateProfile(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users SET
			username = ?,
			email = ?,
			profile_picture = ?,
			bio = ?,
			job = ?,
			location = ?,
			instagram = ?,
			whatsapp = ?,
			updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.ProfilePicture,
		user.Bio,
		user.Job,
		user.Location,
		user.Instagram,
		user.Whatsapp,
		user.UpdatedAt,
		user.ID,
	)
	return err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint64, passwordHash string, now time.Time) error {
	query := `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, passwordHash, now, id)
	return err
}

// PromoteToPoster moves a live View user to Post. Other statuses and deleted
// or pending-delete accounts are left untouched.
func (r *UserRepository) PromoteToPoster(ctx context.Context, id uint64, now time.Time) (int64, error) {
	query := `UPDATE users SET status = ?, updated_at = ?
		WHERE id = ? AND status = ? AND is_deleted = 0 AND pending_delete_until IS NULL`
	return execAffected(ctx, r.db, query, entity.StatusPost, now, id, entity.StatusView)
}

func (r *UserRepository) SetStatus(ctx context.Context, id uint64, status string, now time.Time) error {
	query := `UPDATE users SET status = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, status, now, id)
	return err
}

func (r *UserRepository) SetPendingDelete(ctx context.Context, id uint64, until, now time.Time) (int64, error) {
	query := `UPDATE users SET pending_delete_until = ?, updated_at = ? WHERE id = ? AND is_deleted = 0`
	return execAffected(ctx, r.db, query, until, now, id)
}

// ClearPendingDelete only succeeds while the window is still open at now.
func (r *UserRepository) ClearPendingDelete(ctx context.Context, id uint64, now time.Time) (int64, error) {
	query := `
		UPDATE users SET pending_delete_until = NULL, updated_at = ?
		WHERE id = ? AND is_deleted = 0 AND pending_delete_until > ?
	`
	return execAffected(ctx, r.db, query, now, id, now)
}

// SoftDelete applies to live accounts, including ones with an open window.
func (r *UserRepository) SoftDelete(ctx context.Context, id uint64, now time.Time) (int64, error) {
	query := `
		UPDATE users SET is_deleted = 1, pending_delete_until = NULL, updated_at = ?
		WHERE id = ? AND is_deleted = 0 AND (pending_delete_until IS NULL OR pending_delete_until > ?)
	`
	return execAffected(ctx, r.db, query, now, id, now)
}

func (r *UserRepository) Undelete(ctx context.Context, id uint64, now time.Time) (int64, error) {
	query := `
		UPDATE users SET is_deleted = 0, pending_delete_until = NULL, updated_at = ?
		WHERE id = ? AND (is_deleted = 1 OR pending_delete_until <= ?)
	`
	return execAffected(ctx, r.db, query, now, id, now)
}

// FinalizeExpiredDeletes converts every elapsed self-delete window into a deletion.
func (r *UserRepository) FinalizeExpiredDeletes(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE users SET is_deleted = 1, pending_delete_until = NULL, updated_at = ?
		WHERE is_deleted = 0 AND pending_delete_until IS NOT NULL AND pending_delete_until <= ?
	`
	return execAffected(ctx, r.db, query, now, now)
}

func (r *UserRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]*entity.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE status = ? AND is_deleted = 0
		ORDER BY id
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*entity.User, 0)
	for rows.Next() {
		user, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *UserRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	query := `SELECT COUNT(*) FROM users WHERE status = ? AND is_deleted = 0`
	var count int
	if err := r.db.QueryRowContext(ctx, query, status).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *UserRepository) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.User, error) {
	row := r.db.QueryRowContext(ctx, query, args...)
	user, err := scanUser(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func scanUser(scan rowScanner) (*entity.User, error) {
	user := &entity.User{}
	if err := scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Status,
		&user.IsDeleted,
		&user.PendingDeleteUntil,
		&user.ProfilePicture,
		&user.Bio,
		&user.Job,
		&user.Location,
		&user.Instagram,
		&user.Whatsapp,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return user, nil
}
