package web

import "context"

type userIDKey struct{}
type userRoleKey struct{}

// WithUserID adds the authenticated user id to the context.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

// GetUserIDFromContext retrieves the authenticated user id from the context.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok
}

// WithUserRole adds the caller role to the context.
func WithUserRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, userRoleKey{}, role)
}

// GetUserRole retrieves the caller role from the context.
func GetUserRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(userRoleKey{}).(string)
	return role, ok
}
