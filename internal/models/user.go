package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User represents an account in the system.
type User struct {
	BaseModel
	AuditStamp
	Email          string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	UserName       string     `gorm:"size:100;not null" json:"userName"`
	FirstName      string     `gorm:"size:100" json:"firstName"`
	LastName       string     `gorm:"size:100" json:"lastName"`
	DateOfBirth    *time.Time `json:"dateOfBirth,omitempty"`
	Password       string     `gorm:"size:255;not null" json:"-"` // Never send password in JSON
	EmailConfirmed bool       `gorm:"default:false" json:"emailConfirmed"`
	IsAdmin        bool       `gorm:"default:false" json:"isAdmin"`

	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID" json:"-"`
}

// SetPassword hashes a password and sets it on the user.
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the user's hashed password.
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// DisplayName returns the name carried in access-token claims.
func (u *User) DisplayName() string {
	if u.UserName != "" {
		return u.UserName
	}
	return u.Email
}
