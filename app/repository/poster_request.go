package repository

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-identity/app/entity"
)

type PosterRequestRepository struct {
	db DBTX
}

func NewPosterRequestRepository(db DBTX) *PosterRequestRepository {
	return &PosterRequestRepository{db: db}
}

func (r *PosterRequestRepository) Create(ctx context.Context, req *entity.PosterRequest) error {
	query := `
		INSERT INTO poster_requests (user_id, statement, approval_status, created_at)
		VALUES (?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		req.UserID,
		req.Statement,
		req.ApprovalStatus,
		req.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	req.ID = uint64(id)
	return nil
}

func (r *PosterRequestRepository) FindByID(ctx context.Context, id uint64) (*entity.PosterRequest, error) {
	query := `
		SELECT id, user_id, statement, approval_status, created_at
		FROM poster_requests WHERE id = ?
	`
	return r.findOne(ctx, query, id)
}

func (r *PosterRequestRepository) FindPendingByUserID(ctx context.Context, userID uint64) (*entity.PosterRequest, error) {
	query := `
		SELECT id, user_id, statement, approval_status, created_at
		FROM poster_requests WHERE user_id = ? AND approval_status = 0
		ORDER BY id DESC
		LIMIT 1
	`
	return r.findOne(ctx, query, userID)
}

// List returns every request, newest first.
func (r *PosterRequestRepository) List(ctx context.Context) ([]*entity.PosterRequest, error) {
	query := `
		SELECT id, user_id, statement, approval_status, created_at
		FROM poster_requests
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]*entity.PosterRequest, 0)
	for rows.Next() {
		req, err := scanPosterRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *PosterRequestRepository) MarkApproved(ctx context.Context, id uint64) error {
	query := `UPDATE poster_requests SET approval_status = 1 WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *PosterRequestRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.PosterRequest, error) {
	row := r.db.QueryRowContext(ctx, query, args...)
	req, err := scanPosterRequest(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return req, nil
}

func scanPosterRequest(scan rowScanner) (*entity.PosterRequest, error) {
	req := &entity.PosterRequest{}
	if err := scan(
		&req.ID,
		&req.UserID,
		&req.Statement,
		&req.ApprovalStatus,
		&req.CreatedAt,
	); err != nil {
		return nil, err
	}
	return req, nil
}
