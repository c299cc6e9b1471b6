// Package errcode defines the stable numeric codes returned in every API
// envelope and the catalogue that resolves them to human-readable messages.
package errcode

// Code is a stable API result code. Zero is success.
type Code int

const (
	OK Code = 0

	Unauthenticated Code = 401
	BadRequest      Code = 405
	Validation      Code = 406
	TooManyRequests Code = 429
	Internal        Code = 500
	Timeout         Code = 504

	InvalidPhone    Code = 801
	InvalidEmail    Code = 802
	MissingName     Code = 803
	MissingPassword Code = 804

	AdminNotFound          Code = 3001
	ActivationCodeMissing  Code = 3002
	ActivationCodeMismatch Code = 3003
	WrongPassword          Code = 3004
	NotEnabled             Code = 3005
	EmailTaken             Code = 3006

	CacheUnavailable Code = 5001
	StorageFailure   Code = 5002
)
