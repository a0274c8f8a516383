package auth

import "context"

type contextKey struct{}

// AuthContext carries the authenticated identity through a request.
// DisplayName is the application-level user (one of the fixed household
// members); it is the binding between a credential session and list access.
type AuthContext struct {
	UserID      int64
	DisplayName string
	SessionID   int64
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.UserID
}

// DisplayName returns the household member bound to the session, or ""
// when the request is unauthenticated.
func DisplayName(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.DisplayName
}
