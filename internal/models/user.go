package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role enum
type Role string

const (
	RoleAdmin Role = "admin"
	RoleVet   Role = "vet"
	RoleTech  Role = "tech"
)

// User represents a clinic staff account: veterinarians who take
// consultations, technicians who run intake, and administrators.
type User struct {
	BaseModel
	Email         string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password      string `gorm:"size:255;not null" json:"-"` // Never send password in JSON
	FirstName     string `gorm:"size:100" json:"firstName"`
	LastName      string `gorm:"size:100" json:"lastName"`
	Role          Role   `gorm:"size:20;default:'tech'" json:"role"`
	Title         string `gorm:"size:100" json:"title,omitempty"`         // e.g. "DVM", "Emergency Clinician"
	LicenseNumber string `gorm:"size:100" json:"licenseNumber,omitempty"` // veterinary license, vets only
	PhoneNumber   string `json:"phoneNumber,omitempty"`
	IsOnShift     bool   `gorm:"default:false" json:"isOnShift"`

	// Relations (not always preloaded)
	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID" json:"-"`
}

// DisplayName is the name shown on queue and call screens.
func (u *User) DisplayName() string {
	name := "Dr. " + u.LastName
	if u.Role != RoleVet {
		name = u.FirstName + " " + u.LastName
	}
	return name
}

// UserSanitized represents the user data that is safe to send in API responses.
type UserSanitized struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Name          string    `json:"name"`
	Role          Role      `json:"role"`
	Title         string    `json:"title,omitempty"`
	LicenseNumber string    `json:"licenseNumber,omitempty"`
	PhoneNumber   string    `json:"phoneNumber,omitempty"`
	IsOnShift     bool      `json:"isOnShift"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// SetPassword hashes a password and sets it on the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the user's hashed password
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// Sanitize creates a UserSanitized struct from a User model, excluding sensitive data.
func (u *User) Sanitize() UserSanitized {
	return UserSanitized{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Name:          u.DisplayName(),
		Role:          u.Role,
		Title:         u.Title,
		LicenseNumber: u.LicenseNumber,
		PhoneNumber:   u.PhoneNumber,
		IsOnShift:     u.IsOnShift,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}
