package sink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// serviceAccountSchema covers the keys the Sheets client needs from a service account file.
var serviceAccountSchema = map[string]any{
	"type":     "object",
	"required": []any{"type", "client_email", "private_key", "token_uri"},
	"properties": map[string]any{
		"type":         map[string]any{"const": "service_account"},
		"client_email": map[string]any{"type": "string", "minLength": 1},
		"private_key":  map[string]any{"type": "string", "minLength": 1},
		"token_uri":    map[string]any{"type": "string", "minLength": 1},
		"project_id":   map[string]any{"type": "string"},
	},
}

// LoadCredentials accepts either inline service-account JSON or a path to it,
// and validates the result.
func LoadCredentials(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("credentials are empty")
	}
	data := []byte(value)
	if !strings.HasPrefix(value, "{") {
		b, err := os.ReadFile(value)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		data = b
	}
	if err := validateJSON(serviceAccountSchema, data); err != nil {
		return nil, err
	}
	return data, nil
}

func validateJSON(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("service_account.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("service_account.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode credentials: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("credentials do not look like a service account: %w", err)
	}
	return nil
}
