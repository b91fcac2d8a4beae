// Package identity carries the authenticated actor through a request.
package identity

import "context"

type Identity struct {
	Email string
	Name  string
}

func (i Identity) String() string {
	return i.Email
}

type ctxKey struct{}

func WithContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok && id.Email != ""
}
