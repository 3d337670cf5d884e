package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchemaArg_Inline(t *testing.T) {
	schema, err := parseSchemaArg(`{"title": "string", "price": "number"}`)
	require.NoError(t, err)
	require.Len(t, schema, 2)
	assert.Equal(t, "title", schema[0].Name)
	assert.Equal(t, "price", schema[1].Name)
}

func TestParseSchemaArg_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"title": "string"}`), 0o644))

	schema, err := parseSchemaArg(path)
	require.NoError(t, err)
	require.Len(t, schema, 1)
	assert.Equal(t, "title", schema[0].Name)
}

func TestParseSchemaArg_Errors(t *testing.T) {
	_, err := parseSchemaArg("")
	assert.Error(t, err)

	_, err = parseSchemaArg(`{"title": "varchar"}`)
	assert.Error(t, err)

	_, err = parseSchemaArg(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestReadURLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	require.NoError(t, os.WriteFile(path, []byte("https://a.example/1\n\nhttps://b.example/2\n"), 0o644))

	urls, err := readURLFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example/1", "", "https://b.example/2"}, urls)
}
