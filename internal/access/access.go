// Package access resolves the caller identity from request headers and
// decides which operations and notes that identity may reach.
package access

import (
	"context"
	"strings"

	"github.com/tphakala/notekeeper/internal/errors"
)

// Request headers carrying the caller identity.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
)

// Role is one of the two static roles.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// MemberRoles may invoke every note operation.
var MemberRoles = []Role{RoleAdmin, RoleUser}

// ErrPermissionDenied is returned when a role may not invoke an operation.
var ErrPermissionDenied = errors.NewStd("Insufficient permissions for this operation")

// Identity is the resolved caller. A nil UserID means an anonymous caller.
type Identity struct {
	UserID *string
	Role   Role
}

// Anonymous is the identity used when no headers are present.
var Anonymous = Identity{Role: RoleUser}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// UserIDValue returns the user id or "" for anonymous callers.
func (i Identity) UserIDValue() string {
	if i.UserID == nil {
		return ""
	}
	return *i.UserID
}

// ParseRole maps a raw header value to a role. Only "admin" (any case,
// surrounding whitespace ignored) yields RoleAdmin.
func ParseRole(raw string) Role {
	if strings.EqualFold(strings.TrimSpace(raw), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleUser
}

// ResolveIdentity builds an Identity from raw header values. It never fails;
// blank user ids are treated as absent.
func ResolveIdentity(rawUserID, rawRole string) Identity {
	id := Identity{Role: ParseRole(rawRole)}
	if trimmed := strings.TrimSpace(rawUserID); trimmed != "" {
		id.UserID = &trimmed
	}
	return id
}

// Authorize returns ErrPermissionDenied unless role is one of allowed.
func Authorize(role Role, allowed ...Role) error {
	for _, r := range allowed {
		if r == role {
			return nil
		}
	}
	return errors.New(ErrPermissionDenied).
		Component("access").
		Category(errors.CategoryPermission).
		Context("role", string(role)).
		Build()
}

// CanAccess reports whether an identity with role and actorID may reach a
// note owned by ownerID. Admins reach everything; everyone else needs a
// present actor id equal to a present owner id.
func CanAccess(role Role, actorID, ownerID *string) bool {
	if role == RoleAdmin {
		return true
	}
	return actorID != nil && ownerID != nil && *actorID == *ownerID
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored in ctx, or Anonymous.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityKey{}).(Identity); ok {
		return id
	}
	return Anonymous
}
