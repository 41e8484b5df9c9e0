package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"gopkg.in/yaml.v3"
)

const swaggerUIPage = `<!DOCTYPE html>
<html>
<head>
<title>%s</title>
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5.9.0/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5.9.0/swagger-ui-bundle.js"></script>
<script>
SwaggerUIBundle({url: "/openapi.json", dom_id: "#swagger-ui"});
</script>
</body>
</html>
`

// apiDocs serves the embedded OpenAPI document as YAML and JSON
type apiDocs struct {
	yaml []byte
	json []byte
	page []byte
}

// newAPIDocs parses the YAML document once and keeps its JSON rendering
func newAPIDocs(src []byte) (*apiDocs, error) {
	var doc interface{}
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI YAML: %w", err)
	}
	if _, ok := doc.(map[string]interface{}); !ok {
		return nil, fmt.Errorf("OpenAPI document must be a mapping")
	}

	out, err := json.Marshal(jsonCompatible(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to render OpenAPI JSON: %w", err)
	}

	return &apiDocs{
		yaml: src,
		json: out,
		page: []byte(fmt.Sprintf(swaggerUIPage, ServiceName)),
	}, nil
}

// jsonCompatible converts YAML mappings with non-string keys so that
// encoding/json can render them
func jsonCompatible(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			t[k] = jsonCompatible(val)
		}
		return t
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = jsonCompatible(val)
		}
		return m
	case []interface{}:
		for i, val := range t {
			t[i] = jsonCompatible(val)
		}
		return t
	default:
		return v
	}
}

func (d *apiDocs) handleJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(d.json)
}

func (d *apiDocs) handleYAML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(d.yaml)
}

func (d *apiDocs) handleSwaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(d.page)
}
