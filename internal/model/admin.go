package model

import "time"

// Admin enabled flag values as persisted in the admins table.
const (
	AdminPending int16 = 0
	AdminEnabled int16 = 1
)

// DefaultRoleID is assigned to every self-registered admin.
const DefaultRoleID int64 = 1

// Admin is an administrative account. PasswordHash holds the keyed credential
// hash, never the plaintext.
type Admin struct {
	ID           int64     `json:"admin_id" db:"admin_id"`
	RoleID       int64     `json:"role_id" db:"role_id"`
	Name         string    `json:"admin_name" db:"admin_name"`
	PasswordHash string    `json:"-" db:"password"`
	Email        string    `json:"email" db:"email"`
	Phone        string    `json:"phone" db:"phone"`
	Enabled      int16     `json:"enabled" db:"enabled"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// IsEnabled reports whether the admin has completed activation.
func (a *Admin) IsEnabled() bool {
	return a.Enabled == AdminEnabled
}

// Profile returns the denormalized identity snapshot cached per session.
func (a *Admin) Profile() Profile {
	return Profile{
		AdminID:   a.ID,
		RoleID:    a.RoleID,
		AdminName: a.Name,
		Email:     a.Email,
		Phone:     a.Phone,
	}
}
