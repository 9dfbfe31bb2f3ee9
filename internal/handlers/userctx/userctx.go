// Package userctx carries the logged in user through request context.
package userctx

import (
	"context"

	"github.com/nkiryanov/microblog/internal/models"
)

type ctxKey struct{}

// Put the current user into the context
func New(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// Return the current user. False for anonymous request
func FromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(models.User)
	return u, ok
}

func IsAuthenticated(ctx context.Context) bool {
	_, ok := FromContext(ctx)
	return ok
}
