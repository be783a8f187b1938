package session

import (
	"context"

	"github.com/nhle/taskdesk/internal/model"
)

type ctxKey struct{}

// NewContext returns a copy of ctx carrying a validated session.
func NewContext(ctx context.Context, s *model.Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by NewContext.
func FromContext(ctx context.Context) (*model.Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*model.Session)
	return s, ok && s != nil
}
