// Package openapi builds the OpenAPI 3 description of the admin API.
package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"
)

// Info describes the generated document.
type Info struct {
	Title   string
	Version string
	BaseURL string
}

// Generate returns the OpenAPI document for every admin route.
func Generate(info Info) *openapi3.T {
	if info.Title == "" {
		info.Title = "Gatekeeper Admin API"
	}
	if info.Version == "" {
		info.Version = "1.0.0"
	}
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       info.Title,
			Description: "Admin registration, email activation, login and session management.",
			Version:     info.Version,
		},
	}
	if info.BaseURL != "" {
		doc.Servers = openapi3.Servers{{URL: info.BaseURL}}
	}

	components := openapi3.NewComponents()
	components.Schemas = componentSchemas()
	components.SecuritySchemes = openapi3.SecuritySchemes{
		"bearerAuth": &openapi3.SecuritySchemeRef{
			Value: &openapi3.SecurityScheme{
				Type:         "http",
				Scheme:       "bearer",
				BearerFormat: "JWT",
			},
		},
	}
	doc.Components = &components

	g := &generator{doc: doc}
	doc.Paths = openapi3.NewPaths()
	g.addAdminPaths()
	g.addSystemPaths()
	return doc
}

type generator struct {
	doc *openapi3.T
}

// ref returns a resolved reference to a component schema.
func (g *generator) ref(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, g.doc.Components.Schemas[name].Value)
}

// envelope wraps data in the standard {code,message,data} shape.
func (g *generator) envelope(data *openapi3.SchemaRef) *openapi3.SchemaRef {
	base := g.doc.Components.Schemas[schemaEnvelope].Value
	props := openapi3.Schemas{}
	for k, v := range base.Properties {
		props[k] = v
	}
	if data != nil {
		props["data"] = data
	}
	return &openapi3.SchemaRef{Value: objectSchema(base.Required, props)}
}

func (g *generator) jsonBody(name, desc string) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().
			WithDescription(desc).
			WithRequired(true).
			WithJSONSchemaRef(g.ref(name)),
	}
}

func bearerSecurity() *openapi3.SecurityRequirements {
	return &openapi3.SecurityRequirements{{"bearerAuth": {}}}
}

// ─── Admin routes ───────────────────────────────────────────────────────────

func (g *generator) addAdminPaths() {
	g.doc.Paths.Set("/admin/register", &openapi3.PathItem{Post: &openapi3.Operation{
		Tags:        []string{"admin"},
		Summary:     "Register an admin",
		Description: "Creates a pending admin and issues an email activation code valid for 24 hours.",
		OperationID: "registerAdmin",
		RequestBody: g.jsonBody(schemaRegisterRequest, "New admin account."),
		Responses: g.newResponses("200", "Pending admin created", g.envelope(g.ref(schemaAdmin)),
			"400", "409", "429", "503"),
	}})

	adminID := openapi3.NewQueryParameter("admin_id").
		WithDescription("Admin identifier returned by registration.").
		WithRequired(true).
		WithSchema(openapi3.NewInt64Schema())
	code := openapi3.NewQueryParameter("code").
		WithDescription("Activation code delivered by email.").
		WithRequired(true).
		WithSchema(openapi3.NewStringSchema())
	g.doc.Paths.Set("/admin/activeEmailCode", &openapi3.PathItem{Get: &openapi3.Operation{
		Tags:        []string{"admin"},
		Summary:     "Activate an admin",
		Description: "Redeems the activation code, enables the admin and starts a session. A wrong code leaves the pending code usable.",
		OperationID: "activateAdmin",
		Parameters: openapi3.Parameters{
			&openapi3.ParameterRef{Value: adminID},
			&openapi3.ParameterRef{Value: code},
		},
		Responses: g.newResponses("200", "Admin activated and logged in", g.envelope(g.ref(schemaLoginData)),
			"400", "404", "409", "503"),
	}})

	g.doc.Paths.Set("/admin/login", &openapi3.PathItem{Post: &openapi3.Operation{
		Tags:        []string{"admin"},
		Summary:     "Log in",
		OperationID: "loginAdmin",
		RequestBody: g.jsonBody(schemaLoginRequest, "Admin credentials."),
		Responses: g.newResponses("200", "Session started", g.envelope(g.ref(schemaLoginData)),
			"400", "403", "404", "409", "429", "503"),
	}})

	g.doc.Paths.Set("/admin/my", &openapi3.PathItem{Get: &openapi3.Operation{
		Tags:        []string{"admin"},
		Summary:     "Current admin",
		Description: "Returns the identity of the live session behind the bearer token.",
		OperationID: "getMyAdmin",
		Security:    bearerSecurity(),
		Responses:   g.newResponses("200", "Session identity", g.envelope(g.ref(schemaAdminInfo)), "401"),
	}})

	g.doc.Paths.Set("/admin/logout", &openapi3.PathItem{Post: &openapi3.Operation{
		Tags:        []string{"admin"},
		Summary:     "Log out",
		Description: "Destroys the session. The bearer token stops working on live-session routes.",
		OperationID: "logoutAdmin",
		Security:    bearerSecurity(),
		Responses:   g.newResponses("200", "Logged out", g.envelope(stringSchema("Always \"logged out\".")), "401"),
	}})
}

// ─── System routes ──────────────────────────────────────────────────────────

func (g *generator) addSystemPaths() {
	g.doc.Paths.Set("/.well-known/jwks.json", &openapi3.PathItem{Get: &openapi3.Operation{
		Tags:        []string{"system"},
		Summary:     "Token verification keys",
		OperationID: "getJWKS",
		Responses:   g.newResponses("200", "JWK set of the RS256 verify key", g.ref(schemaJWKSet)),
	}})

	status := &openapi3.SchemaRef{Value: objectSchema([]string{"status"}, openapi3.Schemas{
		"status": stringSchema("ok, or degraded with per-dependency detail."),
	})}
	g.doc.Paths.Set("/healthz", &openapi3.PathItem{Get: &openapi3.Operation{
		Tags:        []string{"system"},
		Summary:     "Liveness probe",
		OperationID: "healthz",
		Responses:   g.newResponses("200", "Process is up", status),
	}})
	g.doc.Paths.Set("/readyz", &openapi3.PathItem{Get: &openapi3.Operation{
		Tags:        []string{"system"},
		Summary:     "Readiness probe",
		Description: "Pings the session cache and the admin database.",
		OperationID: "readyz",
		Responses:   g.newResponses("200", "Dependencies reachable", status, "503"),
	}})
}

// ─── Response Helpers ───────────────────────────────────────────────────────

var errorDescriptions = map[string]string{
	"400": "Validation failed or the request could not be parsed",
	"401": "Missing, invalid or logged-out bearer token",
	"403": "Admin is not activated",
	"404": "Admin or activation code not found",
	"409": "Conflicting state: email taken, wrong password or wrong code",
	"429": "Rate limit exceeded",
	"503": "Session cache or database unavailable",
}

// newResponses builds a Responses map with a success response, the listed
// error statuses and a 500 fallback, all in the envelope shape.
func (g *generator) newResponses(statusCode, description string, schema *openapi3.SchemaRef, errorStatuses ...string) *openapi3.Responses {
	responses := openapi3.NewResponses()

	responses.Set(statusCode, &openapi3.ResponseRef{
		Value: openapi3.NewResponse().
			WithDescription(description).
			WithContent(openapi3.NewContentWithJSONSchemaRef(schema)),
	})

	errorRef := g.ref(schemaEnvelope)
	for _, status := range append(errorStatuses, "500") {
		desc, ok := errorDescriptions[status]
		if !ok {
			desc = "Internal server error"
		}
		responses.Set(status, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().
				WithDescription(desc).
				WithContent(openapi3.NewContentWithJSONSchemaRef(errorRef)),
		})
	}
	return responses
}
