package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	js "github.com/santhosh-tekuri/jsonschema/v5"
)

// Compiler compiles and caches JSON Schemas used to validate incoming
// demand and response payloads before they reach the service layer.
type Compiler struct {
	compiler *js.Compiler
	cache    *expirable.LRU[string, *js.Schema]
}

// NewCompilerWithCache creates a new compiler with cache
func NewCompilerWithCache(maxSize int) *Compiler {
	c := js.NewCompiler()
	c.ExtractAnnotations = true

	return &Compiler{
		compiler: c,
		cache:    expirable.NewLRU[string, *js.Schema](maxSize, nil, time.Hour),
	}
}

func (c *Compiler) key(schema map[string]interface{}) string {
	b, _ := json.Marshal(schema)
	return string(b)
}

// Prepare compiles and caches a schema
func (c *Compiler) Prepare(ctx context.Context, schema map[string]interface{}) error {
	key := c.key(schema)
	if _, ok := c.cache.Get(key); ok {
		return nil // Already cached
	}

	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	// Hash-based URL avoids URL parsing issues with JSON content
	hash := fmt.Sprintf("%x", schemaBytes)
	resourceURL := fmt.Sprintf("mem://schema/%s.json", hash[:16])
	if err := c.compiler.AddResource(resourceURL, bytes.NewReader(schemaBytes)); err != nil {
		return fmt.Errorf("failed to add resource: %w", err)
	}

	compiled, err := c.compiler.Compile(resourceURL)
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}

	c.cache.Add(key, compiled)
	return nil
}

// Validate validates a value against a schema
func (c *Compiler) Validate(ctx context.Context, schema map[string]interface{}, value map[string]interface{}) error {
	key := c.key(schema)
	compiled, ok := c.cache.Get(key)
	if !ok {
		if err := c.Prepare(ctx, schema); err != nil {
			return err
		}
		compiled, _ = c.cache.Get(key)
		if compiled == nil {
			return fmt.Errorf("schema not found in cache after preparation")
		}
	}

	valueBytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	var valueRaw interface{}
	if err := json.Unmarshal(valueBytes, &valueRaw); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}

	if err := compiled.Validate(valueRaw); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}
