package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompiler_Prepare(t *testing.T) {
	compiler := NewCompilerWithCache(64)
	ctx := context.Background()

	err := compiler.Prepare(ctx, DemandCreate)
	require.NoError(t, err)

	// Second prepare hits the cache
	err = compiler.Prepare(ctx, DemandCreate)
	require.NoError(t, err)
}

func TestCompiler_ValidateDemandCreate(t *testing.T) {
	compiler := NewCompilerWithCache(64)
	ctx := context.Background()

	valid := map[string]interface{}{
		"type":        "plumbing-repair",
		"locationId":  3,
		"title":       "Leaking sink trap",
		"description": "Steady drip under the kitchen sink",
		"address":     "12 Harmony Court, Apt 201",
	}
	assert.NoError(t, compiler.ValidateDemandCreate(ctx, valid))

	missingTitle := map[string]interface{}{
		"type": "plumbing-repair",
	}
	assert.Error(t, compiler.ValidateDemandCreate(ctx, missingTitle))

	emptyTitle := map[string]interface{}{
		"type":  "plumbing-repair",
		"title": "",
	}
	assert.Error(t, compiler.ValidateDemandCreate(ctx, emptyTitle))

	unknownField := map[string]interface{}{
		"type":  "plumbing-repair",
		"title": "ok",
		"bogus": true,
	}
	assert.Error(t, compiler.ValidateDemandCreate(ctx, unknownField))
}

func TestCompiler_ValidateResponseCreate(t *testing.T) {
	compiler := NewCompilerWithCache(64)
	ctx := context.Background()

	assert.NoError(t, compiler.ValidateResponseCreate(ctx, map[string]interface{}{
		"content": "I have three years of plumbing experience, available tomorrow",
	}))
	assert.Error(t, compiler.ValidateResponseCreate(ctx, map[string]interface{}{
		"content": "",
	}))
	assert.Error(t, compiler.ValidateResponseCreate(ctx, map[string]interface{}{}))
}
