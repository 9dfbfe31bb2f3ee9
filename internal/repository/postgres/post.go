package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/microblog/internal/apperrors"
	"github.com/nkiryanov/microblog/internal/models"
	"github.com/nkiryanov/microblog/internal/repository"
)

type PostRepo struct {
	DB DBTX
}

const createPost = `-- name: CreatePost
INSERT INTO posts (id, body, user_id, timestamp)
VALUES ($1, $2, $3, $4)
RETURNING id, body, timestamp, user_id
`

func (r *PostRepo) CreatePost(ctx context.Context, authorID uuid.UUID, body string) (models.Post, error) {
	// Set timestamp here: now() is frozen for the whole transaction
	rows, _ := r.DB.Query(ctx, createPost, uuid.New(), body, authorID, time.Now().UTC())
	post, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.Post, error) {
		var p models.Post
		err := row.Scan(&p.ID, &p.Body, &p.Timestamp, &p.UserID)
		return p, err
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return post, apperrors.ErrUserNotFound
		}
		return post, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}

const listByAuthor = `-- name: ListByAuthor
SELECT p.id, p.body, p.timestamp, p.user_id, u.username, u.email
FROM posts p
JOIN users u ON u.id = p.user_id
WHERE p.user_id = $1
ORDER BY p.timestamp DESC, p.id
LIMIT $2 OFFSET $3
`

func (r *PostRepo) ListByAuthor(ctx context.Context, authorID uuid.UUID, arg repository.ListParams) ([]models.Post, error) {
	rows, _ := r.DB.Query(ctx, listByAuthor, authorID, arg.Limit, arg.Offset)
	posts, err := pgx.CollectRows(rows, rowToPost)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return posts, nil
}

const listRecent = `-- name: ListRecent
SELECT p.id, p.body, p.timestamp, p.user_id, u.username, u.email
FROM posts p
JOIN users u ON u.id = p.user_id
ORDER BY p.timestamp DESC, p.id
LIMIT $1 OFFSET $2
`

func (r *PostRepo) ListRecent(ctx context.Context, arg repository.ListParams) ([]models.Post, error) {
	rows, _ := r.DB.Query(ctx, listRecent, arg.Limit, arg.Offset)
	posts, err := pgx.CollectRows(rows, rowToPost)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return posts, nil
}

func rowToPost(row pgx.CollectableRow) (models.Post, error) {
	var p models.Post
	err := row.Scan(&p.ID, &p.Body, &p.Timestamp, &p.UserID, &p.Author.Username, &p.Author.Email)
	p.Author.ID = p.UserID
	return p, err
}
