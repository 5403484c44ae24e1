package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleArgs struct {
	MaxResults  *Int   `json:"max_results"`
	Query       string `json:"query"`
	IncludeRead *bool  `json:"include_read"`
}

func TestDecodeArguments(t *testing.T) {
	tests := []struct {
		name        string
		args        map[string]any
		wantMax     int64
		wantQuery   string
		wantInclude bool
		wantErr     string
	}{
		{
			name:        "empty uses defaults",
			args:        nil,
			wantMax:     10,
			wantInclude: true,
		},
		{
			name:        "number",
			args:        map[string]any{"max_results": float64(25), "query": "is:starred", "include_read": false},
			wantMax:     25,
			wantQuery:   "is:starred",
			wantInclude: false,
		},
		{
			name:        "numeric string",
			args:        map[string]any{"max_results": "7"},
			wantMax:     7,
			wantInclude: true,
		},
		{
			name:        "fraction truncates",
			args:        map[string]any{"max_results": 3.9},
			wantMax:     3,
			wantInclude: true,
		},
		{
			name:        "2^63 saturates",
			args:        map[string]any{"max_results": 9223372036854775808.0},
			wantMax:     math.MaxInt64,
			wantInclude: true,
		},
		{
			name:        "huge exponent saturates",
			args:        map[string]any{"max_results": "1e30"},
			wantMax:     math.MaxInt64,
			wantInclude: true,
		},
		{
			name:        "huge negative saturates",
			args:        map[string]any{"max_results": -1e30},
			wantMax:     math.MinInt64,
			wantInclude: true,
		},
		{
			name:        "null is absent",
			args:        map[string]any{"max_results": nil},
			wantMax:     10,
			wantInclude: true,
		},
		{
			name:    "not a number",
			args:    map[string]any{"max_results": "lots"},
			wantErr: "not a number",
		},
		{
			name:    "wrong type",
			args:    map[string]any{"include_read": "yes"},
			wantErr: "include_read must be a bool",
		},
		{
			name:    "unknown argument",
			args:    map[string]any{"max": 5},
			wantErr: `unexpected argument "max"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got sampleArgs
			err := DecodeArguments(tt.args, &got)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidArguments)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMax, got.MaxResults.Int64(10))
			assert.Equal(t, tt.wantQuery, got.Query)
			assert.Equal(t, tt.wantInclude, BoolOr(got.IncludeRead, true))
		})
	}
}
