package auth

import "context"

type contextKey struct{}

// AuthContext identifies the authenticated dashboard user. EmployeeID
// is the pegawai record the user is linked to (0 when unlinked, e.g. a
// pure admin account); it is the owner key for reminders and the push
// stream.
type AuthContext struct {
	UserID     int64
	EmployeeID int64
	Role       string
	SessionID  int64
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

func EmployeeID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.EmployeeID
}

func IsAdmin(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.Role == "admin"
}
