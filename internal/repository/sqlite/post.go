package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nkiryanov/microblog/internal/apperrors"
	"github.com/nkiryanov/microblog/internal/models"
	"github.com/nkiryanov/microblog/internal/repository"
)

type PostRepo struct {
	DB *gorm.DB
}

func (r *PostRepo) CreatePost(ctx context.Context, authorID uuid.UUID, body string) (models.Post, error) {
	row := postRow{
		ID:        uuid.NewString(),
		Body:      body,
		Timestamp: time.Now().UTC(),
		UserID:    authorID.String(),
	}

	err := r.DB.WithContext(ctx).Omit(clause.Associations).Create(&row).Error
	switch {
	case err == nil:
		return row.toModel(), nil
	case strings.Contains(err.Error(), "FOREIGN KEY constraint failed"):
		return models.Post{}, apperrors.ErrUserNotFound
	default:
		return models.Post{}, fmt.Errorf("db error: %w", err)
	}
}

func (r *PostRepo) ListByAuthor(ctx context.Context, authorID uuid.UUID, arg repository.ListParams) ([]models.Post, error) {
	return r.list(r.DB.WithContext(ctx).Where("posts.user_id = ?", authorID.String()), arg)
}

func (r *PostRepo) ListRecent(ctx context.Context, arg repository.ListParams) ([]models.Post, error) {
	return r.list(r.DB.WithContext(ctx), arg)
}

func (r *PostRepo) list(q *gorm.DB, arg repository.ListParams) ([]models.Post, error) {
	var rows []postRow
	err := q.Joins("User").
		Order("posts.timestamp DESC").
		Order("posts.id").
		Limit(arg.Limit).
		Offset(arg.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	posts := make([]models.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, row.toModel())
	}
	return posts, nil
}
