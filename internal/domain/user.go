package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is an operator's permission level.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superAdmin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Scopes lists the security scopes granted by the role.
func (r Role) Scopes() []string {
	if r == RoleSuperAdmin {
		return []string{string(RoleAdmin), string(RoleSuperAdmin)}
	}
	return []string{string(RoleAdmin)}
}

// UserStatus is whether an operator may sign in.
type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserSuspended UserStatus = "suspended"
)

// Valid reports whether s is a known status.
func (s UserStatus) Valid() bool {
	return s == UserActive || s == UserSuspended
}

// User represents an admin operator account
type User struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email" bson:"email"`
	PasswordHash string     `gorm:"not null" json:"-" bson:"passwordHash"`
	Role         Role       `gorm:"size:16;not null;default:'admin'" json:"role" bson:"role"`
	Status       UserStatus `gorm:"size:16;not null;default:'active'" json:"status" bson:"status"`
	LastLogin    *time.Time `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// IsActive reports whether the account may sign in.
func (u *User) IsActive() bool {
	return u.Status == UserActive
}

// Init assigns identity, defaults and timestamps to a new user.
func (u *User) Init(now time.Time) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleAdmin
	}
	if u.Status == "" {
		u.Status = UserActive
	}
	u.CreatedAt = now
	u.UpdatedAt = now
}

// BeforeCreate hook
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.Init(tx.NowFunc())
	return nil
}
