package model

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// PhonePattern matches mainland China mobile numbers.
var PhonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)

// RegisterRequest is the body of POST /admin/register.
type RegisterRequest struct {
	AdminName string `json:"admin_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
}

// Validate checks the registration fields. Errors are keyed by JSON field name.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AdminName, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 255), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.Phone, validation.Required, validation.Match(PhonePattern)),
	)
}

// LoginRequest is the body of POST /admin/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the login fields.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// ActivateRequest carries the query of GET /admin/activeEmailCode.
type ActivateRequest struct {
	AdminID int64  `json:"admin_id"`
	Code    string `json:"code"`
}

// Validate checks the activation query.
func (r ActivateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AdminID, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.Code, validation.Required),
	)
}

// RegisterResponse is returned by a successful registration.
type RegisterResponse struct {
	AdminID   int64  `json:"admin_id"`
	AdminName string `json:"admin_name"`
	RoleID    int64  `json:"role_id"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// LoginResponse is returned by a successful login or activation.
type LoginResponse struct {
	AdminID   int64  `json:"admin_id"`
	AdminName string `json:"admin_name"`
	RoleID    int64  `json:"role_id"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	JWTToken  string `json:"jwt_token"`
}

// AdminInfoResponse is returned by GET /admin/my.
type AdminInfoResponse struct {
	AdminID   int64  `json:"admin_id"`
	AdminName string `json:"admin_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	RoleID    int64  `json:"role_id"`
}
