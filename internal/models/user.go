package models

import "github.com/go-playground/validator/v10"

// validate is the shared validator instance for request structs.
var validate = validator.New(validator.WithRequiredStructEnabled())

// User represents an authenticated back-office user.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // Never expose in JSON responses
	Name         string `json:"name"`
	Role         string `json:"role"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

// RegisterRequest contains the fields needed to create a new account.
// All new users are registered as "viewer". Admin role is granted via
// User Management.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
}

// LoginRequest contains the credentials for authentication.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateRoleRequest is used by admins to change a user's role.
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=viewer employer_manager admin super_admin"`
}

// AuthResponse is sent back after successful login/registration.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Validate runs the struct tags and translates failures into the
// field → message map the handlers return to clients.
func (r *RegisterRequest) Validate() map[string]string {
	return validationErrors(validate.Struct(r), map[string]string{
		"Email":    "A valid email is required",
		"Password": "Password must be at least 6 characters",
		"Name":     "Name must be between 2 and 100 characters",
	})
}

// Validate checks that login credentials are present.
func (r *LoginRequest) Validate() map[string]string {
	return validationErrors(validate.Struct(r), map[string]string{
		"Email":    "A valid email is required",
		"Password": "Password is required",
	})
}

// Validate checks that the role is one of the allowed values.
func (r *UpdateRoleRequest) Validate() map[string]string {
	return validationErrors(validate.Struct(r), map[string]string{
		"Role": "Role must be 'viewer', 'employer_manager', 'admin', or 'super_admin'",
	})
}

// validationErrors maps validator failures to per-field messages.
func validationErrors(err error, messages map[string]string) map[string]string {
	errors := map[string]string{}
	if err == nil {
		return errors
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errors["request"] = "Invalid request"
		return errors
	}
	for _, fe := range verrs {
		field := lowerFirst(fe.Field())
		if msg, ok := messages[fe.Field()]; ok {
			errors[field] = msg
		} else {
			errors[field] = "Invalid value"
		}
	}
	return errors
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]|0x20) + s[1:]
}
