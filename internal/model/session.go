package model

// Profile is the identity snapshot stored under a session token.
type Profile struct {
	AdminID   int64  `json:"admin_id"`
	RoleID    int64  `json:"role_id"`
	AdminName string `json:"admin_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// TokenRef is the admin→token index entry.
type TokenRef struct {
	AdminID int64  `json:"admin_id"`
	Token   string `json:"token"`
}

// ActivationCode is the pending email-activation entry for an admin.
type ActivationCode struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Payload is embedded in every bearer token. Token is the session token used
// as the key of the token→profile cache entry.
type Payload struct {
	AdminID int64  `json:"admin_id"`
	Token   string `json:"token"`
}
