package openapi

import "github.com/getkin/kin-openapi/openapi3"

// Component schema names.
const (
	schemaEnvelope        = "Envelope"
	schemaRegisterRequest = "RegisterRequest"
	schemaLoginRequest    = "LoginRequest"
	schemaAdmin           = "Admin"
	schemaLoginData       = "LoginData"
	schemaAdminInfo       = "AdminInfo"
	schemaJWKSet          = "JWKSet"
)

func stringSchema(desc string) *openapi3.SchemaRef {
	s := openapi3.NewStringSchema()
	s.Description = desc
	return &openapi3.SchemaRef{Value: s}
}

func int64Schema(desc string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:        &openapi3.Types{"integer"},
		Format:      "int64",
		Description: desc,
	}}
}

func objectSchema(required []string, props openapi3.Schemas) *openapi3.Schema {
	return &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: props,
		Required:   required,
	}
}

func identityProperties() openapi3.Schemas {
	return openapi3.Schemas{
		"admin_id":   int64Schema("Admin identifier."),
		"admin_name": stringSchema("Display name."),
		"role_id":    int64Schema("Role identifier."),
		"email":      &openapi3.SchemaRef{Value: openapi3.NewStringSchema().WithFormat("email")},
		"phone":      &openapi3.SchemaRef{Value: openapi3.NewStringSchema().WithPattern(`^1[3-9]\d{9}$`)},
	}
}

// componentSchemas returns every named schema of the admin API.
func componentSchemas() openapi3.Schemas {
	login := identityProperties()
	login["jwt_token"] = stringSchema("RS256 bearer token for the Authorization header.")

	return openapi3.Schemas{
		schemaEnvelope: {Value: objectSchema([]string{"code", "message"}, openapi3.Schemas{
			"code":    {Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32", Description: "Stable result code; 0 is success."}},
			"message": stringSchema("Human-readable message for code."),
			"data":    {Value: &openapi3.Schema{Description: "Result payload, or field errors on validation failure."}},
		})},
		schemaRegisterRequest: {Value: objectSchema([]string{"admin_name", "email", "password", "phone"}, openapi3.Schemas{
			"admin_name": stringSchema("Display name."),
			"email":      {Value: openapi3.NewStringSchema().WithFormat("email")},
			"password":   {Value: openapi3.NewStringSchema().WithFormat("password")},
			"phone":      {Value: openapi3.NewStringSchema().WithPattern(`^1[3-9]\d{9}$`)},
		})},
		schemaLoginRequest: {Value: objectSchema([]string{"email", "password"}, openapi3.Schemas{
			"email":    {Value: openapi3.NewStringSchema().WithFormat("email")},
			"password": {Value: openapi3.NewStringSchema().WithFormat("password")},
		})},
		schemaAdmin:     {Value: objectSchema(nil, identityProperties())},
		schemaAdminInfo: {Value: objectSchema(nil, identityProperties())},
		schemaLoginData: {Value: objectSchema([]string{"admin_id", "jwt_token"}, login)},
		schemaJWKSet: {Value: objectSchema([]string{"keys"}, openapi3.Schemas{
			"keys": {Value: &openapi3.Schema{
				Type: &openapi3.Types{"array"},
				Items: &openapi3.SchemaRef{Value: objectSchema([]string{"kty", "n", "e"}, openapi3.Schemas{
					"kty": stringSchema("Key type, always RSA."),
					"use": stringSchema("Public key use, always sig."),
					"alg": stringSchema("Algorithm, always RS256."),
					"kid": stringSchema("RFC 7638 thumbprint."),
					"n":   stringSchema("Modulus, base64url."),
					"e":   stringSchema("Exponent, base64url."),
				})},
			}},
		})},
	}
}
