package schema

import "context"

// DemandCreate is the schema a demand creation body must satisfy.
var DemandCreate = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"type":        map[string]interface{}{"type": "string", "minLength": 1},
		"locationId":  map[string]interface{}{"type": "integer", "minimum": 0},
		"title":       map[string]interface{}{"type": "string", "minLength": 1, "maxLength": 200},
		"description": map[string]interface{}{"type": "string", "maxLength": 4000},
		"address":     map[string]interface{}{"type": "string", "maxLength": 500},
	},
	"required":             []interface{}{"type", "title"},
	"additionalProperties": false,
}

// ResponseCreate is the schema a response creation body must satisfy.
var ResponseCreate = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"content": map[string]interface{}{"type": "string", "minLength": 1, "maxLength": 4000},
	},
	"required":             []interface{}{"content"},
	"additionalProperties": false,
}

// ValidateDemandCreate checks a raw demand creation body.
func (c *Compiler) ValidateDemandCreate(ctx context.Context, body map[string]interface{}) error {
	return c.Validate(ctx, DemandCreate, body)
}

// ValidateResponseCreate checks a raw response creation body.
func (c *Compiler) ValidateResponseCreate(ctx context.Context, body map[string]interface{}) error {
	return c.Validate(ctx, ResponseCreate, body)
}
