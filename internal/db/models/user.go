package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role names an admin role.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleViewer        Role = "viewer"
)

// Capabilities checked by the admin surface.
const (
	CapManageOptions = "manage_options"
	CapRead          = "read"
)

var roleCapabilities = map[Role][]string{
	RoleAdministrator: {CapManageOptions, CapRead},
	RoleViewer:        {CapRead},
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Can reports whether the role grants capability.
func (r Role) Can(capability string) bool {
	for _, c := range roleCapabilities[r] {
		if c == capability {
			return true
		}
	}
	return false
}

// User is an admin account allowed to sign in to the admin pages
type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username    string    `gorm:"uniqueIndex;size:191;not null" json:"username"`
	Password    string    `gorm:"not null" json:"-"` // bcrypt hash
	Role        Role      `gorm:"type:varchar(32);not null;default:'viewer'" json:"role"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	TOTPSecret  string    `json:"-"`
	TOTPEnabled bool      `gorm:"default:false" json:"totp_enabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate hook to set UUID if not provided
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}
