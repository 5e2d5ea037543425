package lists

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"engine-inspector/internal/platform/hash"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RepositorySeedFile(t *testing.T) {
	path := filepath.Join("..", "..", "..", "config", "lists.yaml")
	loaded, err := NewLoader(path).Load(context.Background())
	require.NoError(t, err)
	assert.Contains(t, loaded.Bundle.RevisionTypes, "Transfert")
	assert.NotEmpty(t, loaded.Bundle.EngineSerials)

	sum, _, err := hash.File(path)
	require.NoError(t, err)
	assert.Equal(t, sum, loaded.SHA256)
}

func TestParse_TrimsEntries(t *testing.T) {
	loaded, err := Parse([]byte(`
version: "1"
bundle_type: inspection_lists
revision_types: ["  Préventive ", "Corrective"]
engine_serials: [" SN-1 "]
`), "inline")
	require.NoError(t, err)
	assert.Equal(t, []string{"Préventive", "Corrective"}, loaded.Bundle.RevisionTypes)
	assert.Equal(t, []string{"SN-1"}, loaded.Bundle.EngineSerials)
}

func TestParse_ValidationErrors(t *testing.T) {
	cases := map[string]string{
		"missing version":  "bundle_type: inspection_lists\nrevision_types: [a]\n",
		"wrong type":       "version: '1'\nbundle_type: rules\nrevision_types: [a]\n",
		"empty types":      "version: '1'\nbundle_type: inspection_lists\n",
		"duplicate type":   "version: '1'\nbundle_type: inspection_lists\nrevision_types: [Corrective, corrective]\n",
		"blank serial":     "version: '1'\nbundle_type: inspection_lists\nrevision_types: [a]\nengine_serials: ['  ']\n",
		"not yaml mapping": "- a\n- b\n",
	}
	for name, raw := range cases {
		_, err := Parse([]byte(raw), "inline")
		assert.Error(t, err, name)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "none.yaml")).Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
