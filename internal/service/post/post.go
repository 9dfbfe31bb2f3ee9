package post

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nkiryanov/microblog/internal/apperrors"
	"github.com/nkiryanov/microblog/internal/models"
	"github.com/nkiryanov/microblog/internal/repository"
)

const defaultPerPage = 25

type Config struct {
	// Posts per page, defaultPerPage if not set
	PerPage int
}

// One page of posts, newest first
type Page struct {
	Posts   []models.Post
	Number  int
	HasPrev bool
	HasNext bool
}

func (p Page) PrevNumber() int {
	return p.Number - 1
}

func (p Page) NextNumber() int {
	return p.Number + 1
}

type PostService struct {
	perPage  int
	postRepo repository.PostRepo
}

func NewService(cfg Config, postRepo repository.PostRepo) *PostService {
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}

	return &PostService{
		perPage:  perPage,
		postRepo: postRepo,
	}
}

// Publish post on behalf of author
// Body is trimmed and must be 1..models.PostBodyMaxLen characters
func (s *PostService) Create(ctx context.Context, author models.User, body string) (models.Post, error) {
	body = strings.TrimSpace(body)
	if body == "" || utf8.RuneCountInString(body) > models.PostBodyMaxLen {
		return models.Post{}, apperrors.ErrPostInvalid
	}

	post, err := s.postRepo.CreatePost(ctx, author.ID, body)
	if err != nil {
		return post, fmt.Errorf("can't create post. Err: %w", err)
	}
	return post, nil
}

// All posts, newest first. Page counts from 1, lower values treated as 1
func (s *PostService) Feed(ctx context.Context, page int) (Page, error) {
	return s.page(page, func(arg repository.ListParams) ([]models.Post, error) {
		return s.postRepo.ListRecent(ctx, arg)
	})
}

// Posts of the author, newest first
func (s *PostService) UserPosts(ctx context.Context, author models.User, page int) (Page, error) {
	return s.page(page, func(arg repository.ListParams) ([]models.Post, error) {
		return s.postRepo.ListByAuthor(ctx, author.ID, arg)
	})
}

func (s *PostService) page(number int, list func(repository.ListParams) ([]models.Post, error)) (Page, error) {
	if number < 1 {
		number = 1
	}

	// Ask one extra post to know whether next page exists
	posts, err := list(repository.ListParams{
		Limit:  s.perPage + 1,
		Offset: (number - 1) * s.perPage,
	})
	if err != nil {
		return Page{}, fmt.Errorf("can't list posts. Err: %w", err)
	}

	hasNext := len(posts) > s.perPage
	if hasNext {
		posts = posts[:s.perPage]
	}

	return Page{
		Posts:   posts,
		Number:  number,
		HasPrev: number > 1,
		HasNext: hasNext,
	}, nil
}
