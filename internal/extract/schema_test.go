package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_UnmarshalPreservesOrder(t *testing.T) {
	var s Schema
	err := json.Unmarshal([]byte(`{"title":"string","price":"number","tags":"array"}`), &s)
	require.NoError(t, err)

	assert.Equal(t, []string{"title", "price", "tags"}, s.FieldNames())
	assert.Equal(t, "number", s[1].Type)
}

func TestSchema_MarshalRoundTrip(t *testing.T) {
	s := Schema{
		{Name: "title", Type: "string"},
		{Name: "in_stock", Type: "boolean"},
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"string","in_stock":"boolean"}`, string(data))

	var back Schema
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s, back)
}

func TestSchema_UnmarshalRejectsNonObject(t *testing.T) {
	var s Schema
	assert.Error(t, json.Unmarshal([]byte(`["title"]`), &s))
	assert.Error(t, json.Unmarshal([]byte(`{"title": 5}`), &s))
}

func TestSchema_Validate(t *testing.T) {
	tests := []struct {
		name    string
		schema  Schema
		wantErr string
	}{
		{
			name:   "valid",
			schema: Schema{{Name: "title", Type: "string"}, {Name: "specs", Type: "object"}},
		},
		{
			name:    "empty",
			schema:  Schema{},
			wantErr: "at least one field",
		},
		{
			name:    "duplicate field",
			schema:  Schema{{Name: "a", Type: "string"}, {Name: "a", Type: "number"}},
			wantErr: "duplicate",
		},
		{
			name:    "unknown type hint",
			schema:  Schema{{Name: "a", Type: "decimal"}},
			wantErr: "unknown type hint",
		},
		{
			name:    "blank name",
			schema:  Schema{{Name: "  ", Type: "string"}},
			wantErr: "must not be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
