package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role orders users by privilege. Comparisons rely on the ordinal values.
type Role int

const (
	RoleGuest Role = iota
	RoleStandard
	RoleModerator
	RoleAdmin
)

// AtLeast reports whether r grants at least the privileges of min.
func (r Role) AtLeast(min Role) bool { return r >= min }

// Name returns the display name shown on profiles.
func (r Role) Name() string {
	switch r {
	case RoleStandard:
		return "Utilisateur"
	case RoleModerator:
		return "Modérateur"
	case RoleAdmin:
		return "Administrateur"
	default:
		return "Invité"
	}
}

// DefaultProfilePicture is served when a user never uploaded a picture.
const DefaultProfilePicture = "images/defaultProfilePicture.jpg"

// UnknownUsername stands in for authors that no longer resolve to a user.
const UnknownUsername = "Utilisateur inexistant"

// User is a forum account.
type User struct {
	ID                uuid.UUID
	Username          string
	Email             string
	PasswordHash      string
	EmailConfirmed    bool
	Role              Role
	IsBanned          bool
	Description       string
	AccessFailedCount int
	LockoutEnd        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// LockedOut reports whether a lockout is active at now.
func (u User) LockedOut(now time.Time) bool {
	return u.LockoutEnd != nil && u.LockoutEnd.After(now)
}

// VerifyResult is the outcome of a password check.
type VerifyResult struct {
	Succeeded  bool
	LockedOut  bool
	NotAllowed bool
}

// Profile is the public view of a user.
type Profile struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email,omitempty"`
	Description    string `json:"description"`
	Role           Role   `json:"role"`
	RoleName       string `json:"roleName"`
	ProfilePicture string `json:"profilePicture"`
	IsBanned       bool   `json:"isBanned"`
}

// UnknownProfile is used where an author reference no longer resolves.
func UnknownProfile() Profile {
	return Profile{Username: UnknownUsername, ProfilePicture: DefaultProfilePicture, RoleName: RoleGuest.Name()}
}

// BanFilter narrows the admin user listing.
type BanFilter int

const (
	FilterAll BanFilter = iota
	FilterNotBanned
	FilterBanned
)

// ListQuery parameterizes the paginated admin listing.
type ListQuery struct {
	Page   int
	Filter BanFilter
	Search string
}

// Page is one page of the admin user listing.
type Page struct {
	Count int       `json:"count"`
	Users []Profile `json:"users"`
}

// RegisterInput carries data for user registration.
type RegisterInput struct {
	Email    string
	Username string
	Password string
}

// ProfileUpdate carries editable profile fields. Username, Role and IsBanned
// are administrator fields; an empty Username, a zero Role or a nil IsBanned
// leave the current value untouched.
type ProfileUpdate struct {
	Email       string
	Description string
	Username    string
	Role        Role
	IsBanned    *bool
}

// touchesAdminFields reports whether upd would change a field only administrators may set.
func (upd ProfileUpdate) touchesAdminFields(u User) bool {
	if name := strings.TrimSpace(upd.Username); name != "" && name != u.Username {
		return true
	}
	if upd.Role != RoleGuest && upd.Role != u.Role {
		return true
	}
	return upd.IsBanned != nil && *upd.IsBanned != u.IsBanned
}
