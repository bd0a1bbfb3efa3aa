package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

// RoleSet is a fixed set of roles allowed through an authorization check.
type RoleSet map[Role]struct{}

func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}

type User struct {
	ID                   bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                 string        `bson:"name" json:"name" validate:"required,max=100"`
	Email                string        `bson:"email" json:"email" validate:"required,email"`
	Role                 Role          `bson:"role" json:"role" validate:"oneof=user guide lead-guide admin"`
	PasswordHash         string        `bson:"passwordHash" json:"-" validate:"required"` // never expose
	PasswordChangedAt    *time.Time    `bson:"passwordChangedAt,omitempty" json:"-"`
	PasswordResetToken   *string       `bson:"passwordResetToken,omitempty" json:"-"`
	PasswordResetExpires *time.Time    `bson:"passwordResetExpires,omitempty" json:"-"`
	Active               bool          `bson:"active" json:"-"`
	CreatedAt            time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// ChangedPasswordAfter reports whether the password was changed after a token
// issued at issuedAt. Both sides are compared in whole seconds, the precision
// of the token's iat claim.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Unix() > issuedAt.Unix()
}

// SetPassword stores a new hash and records when it changed.
func (u *User) SetPassword(hash string, changedAt time.Time) {
	changedAt = changedAt.UTC()
	u.PasswordHash = hash
	u.PasswordChangedAt = &changedAt
}

// SetPasswordReset records a pending reset. Hash and expiry are always set together.
func (u *User) SetPasswordReset(tokenHash string, expiresAt time.Time) {
	expiresAt = expiresAt.UTC()
	u.PasswordResetToken = &tokenHash
	u.PasswordResetExpires = &expiresAt
}

// ClearPasswordReset drops any pending reset.
func (u *User) ClearPasswordReset() {
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
}

// HasPendingReset reports whether a reset is pending and not yet expired at now.
func (u *User) HasPendingReset(now time.Time) bool {
	return u.PasswordResetToken != nil && u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now)
}

// UserView is the client-facing representation of a user. It has no
// credential or reset fields, so they cannot be serialized by accident.
type UserView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) View() UserView {
	return UserView{
		ID:        u.ID.Hex(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func Views(users []*User) []UserView {
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, u.View())
	}
	return out
}
