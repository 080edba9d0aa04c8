package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles. The role model is intentionally two-valued.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents a user owned by exactly one tenant. Email is unique within
// the tenant, not globally; two tenants may each have a@example.com.
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TenantID  uint           `json:"tenant_id" gorm:"not null;uniqueIndex:idx_users_tenant_email"`
	Email     string         `json:"email" gorm:"type:varchar(100);not null;uniqueIndex:idx_users_tenant_email"`
	Password  string         `json:"-" gorm:"type:varchar(255);not null"`
	Role      string         `json:"role" gorm:"type:varchar(20);not null;default:'user'"`
	Active    bool           `json:"active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
