package model

import (
	"regexp"
	"time"

	"gorm.io/gorm"
)

// Branding defaults applied when a tenant does not set its own.
const (
	DefaultLogoURL      = ""
	DefaultPrimaryColor = "#2563eb"
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Tenant represents an isolated customer organization. The subdomain is both
// the tenant's external identifier and the routing key derived from the
// request host.
type Tenant struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Subdomain    string         `json:"subdomain" gorm:"type:varchar(63);uniqueIndex;not null"`
	Name         string         `json:"name" gorm:"type:varchar(100);not null"`
	LogoURL      string         `json:"logo_url" gorm:"type:varchar(500)"`
	PrimaryColor string         `json:"primary_color" gorm:"type:varchar(20)"`
	Active       bool           `json:"active" gorm:"default:true"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Tenant) TableName() string {
	return "tenants"
}

// ValidSubdomain reports whether s is a usable tenant subdomain. Reserved
// host labels never resolve to a tenant.
func ValidSubdomain(s string) bool {
	if s == "" || s == "www" || s == "localhost" {
		return false
	}
	return subdomainPattern.MatchString(s)
}
