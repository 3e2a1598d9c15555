package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	Role         string    `json:"role"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Designation  string    `json:"designation"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserInfo is the externally visible projection of a User. Password hashes and
// token material never leave the service.
type UserInfo struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Designation string `json:"designation"`
	Role        string `json:"role"`
	IsVerified  bool   `json:"is_verified"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        *UserInfo `json:"user"`
}

// UpdateUserRequest carries the admin-editable fields. The set is a
// whitelist: password hashes and verification tokens cannot be written
// through the admin update path.
type UpdateUserRequest struct {
	Name        *string `json:"name,omitempty"`
	Designation *string `json:"designation,omitempty"`
	Role        *string `json:"role,omitempty"`
	IsVerified  *bool   `json:"is_verified,omitempty"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// Valid staff roles
const (
	RoleAdmin   = "admin"
	RoleHR      = "hr"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

var validRoles = map[string]bool{
	RoleAdmin:   true,
	RoleHR:      true,
	RoleManager: true,
	RoleStaff:   true,
}

func IsValidRole(role string) bool {
	return validRoles[role]
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if !IsValidEmail(r.Email) {
		return fmt.Errorf("invalid email format")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

func (r *UpdateUserRequest) Validate() error {
	if r.Name == nil && r.Designation == nil && r.Role == nil && r.IsVerified == nil {
		return fmt.Errorf("no updatable fields provided")
	}
	if r.Role != nil && !validRoles[*r.Role] {
		return fmt.Errorf("invalid role")
	}
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	return nil
}

func (r *ResetPasswordRequest) Validate() error {
	if strings.TrimSpace(r.Token) == "" {
		return fmt.Errorf("token is required")
	}
	if len(r.NewPassword) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ToUserInfo converts User to UserInfo (without sensitive data)
func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Designation: u.Designation,
		Role:        u.Role,
		IsVerified:  u.IsVerified,
	}
}
