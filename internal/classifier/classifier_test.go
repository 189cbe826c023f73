package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/carthorse/pkg/types"
)

func writeTable(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "predictions.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		check   func(t *testing.T, table Table)
	}{
		{
			name: "valid table",
			body: `{"nodes":[
				{"node_id":1,"kind":"junction","confidence":1.0},
				{"node_id":2,"kind":"connector","confidence":0.71}
			]}`,
			check: func(t *testing.T, table Table) {
				p, ok := table.Predict(1)
				require.True(t, ok)
				assert.Equal(t, types.NodeJunction, p.Kind)
				assert.Equal(t, 1.0, p.Confidence)

				p, ok = table.Predict(2)
				require.True(t, ok)
				assert.Equal(t, types.NodeConnector, p.Kind)

				_, ok = table.Predict(3)
				assert.False(t, ok)
			},
		},
		{
			name: "empty table",
			body: `{"nodes":[]}`,
			check: func(t *testing.T, table Table) {
				assert.Empty(t, table)
			},
		},
		{
			name:    "unknown kind",
			body:    `{"nodes":[{"node_id":1,"kind":"roundabout","confidence":0.9}]}`,
			wantErr: true,
		},
		{
			name:    "confidence above one",
			body:    `{"nodes":[{"node_id":1,"kind":"junction","confidence":1.5}]}`,
			wantErr: true,
		},
		{
			name:    "negative confidence",
			body:    `{"nodes":[{"node_id":1,"kind":"junction","confidence":-0.1}]}`,
			wantErr: true,
		},
		{
			name:    "malformed json",
			body:    `{"nodes":[`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Load(writeTable(t, tt.body))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, table)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestOverrides(t *testing.T) {
	table := Table{
		4: {Kind: types.NodeJunction, Confidence: 1.0},
		9: {Kind: types.NodeConnector, Confidence: 0.6},
	}

	out := Overrides(table, []int64{4, 5, 9})
	require.Len(t, out, 2)
	assert.Equal(t, types.NodeJunction, out[4].Kind)
	assert.Equal(t, types.NodeConnector, out[9].Kind)

	assert.Nil(t, Overrides(nil, []int64{4}))
	assert.Nil(t, Overrides(table, []int64{5}))
}
