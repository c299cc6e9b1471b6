package model

// SuccessMessage is the message carried by every successful envelope.
const SuccessMessage = "success"

// Envelope wraps every API response. Code 0 means success; any other value is
// a stable error code whose message comes from the error-code catalogue.
type Envelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// FieldErrors maps a request field to its validation message. It is sent as
// the envelope data of validation failures.
type FieldErrors map[string]string
