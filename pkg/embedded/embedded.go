// Package embedded provides embedded static assets for the application.
package embedded

import (
	_ "embed"
)

// OpenAPI is the API description served at /openapi.yaml and, converted,
// at /openapi.json
//
//go:embed openapi.yaml
var OpenAPI []byte
