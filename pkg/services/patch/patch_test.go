package patch

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/de-tools/costpilot/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rec = domain.Recommendation{
	ID:            "rec-1",
	Title:         "Rightsize VM web-1 to Standard_D4s_v3",
	Description:   "CPU averaged 12% over 30 days.",
	ImpactMonthly: 240,
}

func TestGenerate_TerraformCommentBlock(t *testing.T) {
	current := "resource \"azurerm_virtual_machine\" \"web\" {}\n"

	patched, err := Generate(domain.FormatTerraform, current, rec)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(patched, current))
	assert.Contains(t, patched, "costpilot:recommendation rec-1")
	assert.Contains(t, patched, rec.Title)
	assert.Contains(t, patched, "$240.00")
}

func TestGenerate_TerraformIdempotent(t *testing.T) {
	current := "resource \"x\" \"y\" {}\n"

	once, err := Generate(domain.FormatTerraform, current, rec)
	require.NoError(t, err)
	twice, err := Generate(domain.FormatTerraform, once, rec)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestGenerate_BicepUsesLineComments(t *testing.T) {
	current := "resource vm 'Microsoft.Compute/virtualMachines@2023-03-01' = {}\n"

	patched, err := Generate(domain.FormatBicep, current, rec)
	require.NoError(t, err)
	assert.Contains(t, patched, "// costpilot:recommendation rec-1")
	assert.Contains(t, patched, "// "+rec.Title)
	assert.NotContains(t, patched[len(current):], "#")
}

func TestGenerate_BicepIdempotent(t *testing.T) {
	current := "resource vm 'Microsoft.Compute/virtualMachines@2023-03-01' = {}\n"

	once, err := Generate(domain.FormatBicep, current, rec)
	require.NoError(t, err)
	twice, err := Generate(domain.FormatBicep, once, rec)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestGenerate_ARMAppendsMetadataEntry(t *testing.T) {
	current := `{"resources": [], "metadata": {}}`

	patched, err := Generate(domain.FormatARM, current, rec)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(patched, "\n"))

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(patched), &doc))
	metadata := doc["metadata"].(map[string]any)
	entries := metadata["costopsRecommendations"].([]any)
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]any)
	assert.Equal(t, "rec-1", entry["id"])
	assert.Equal(t, rec.Title, entry["title"])
	assert.Equal(t, 240.0, entry["impactMonthly"])
}

func TestGenerate_ARMExistingEntryIsNotDuplicated(t *testing.T) {
	current := `{"metadata": {"costopsRecommendations": [{"id": "rec-1", "title": "old"}]}}`

	patched, err := Generate(domain.FormatARM, current, rec)
	require.NoError(t, err)
	assert.Equal(t, current, patched)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(patched), &doc))
	entries := doc["metadata"].(map[string]any)["costopsRecommendations"].([]any)
	assert.Len(t, entries, 1)
}

func TestGenerate_ARMInitializesMetadata(t *testing.T) {
	patched, err := Generate(domain.FormatARM, `{"resources": []}`, rec)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(patched), &doc))
	entries := doc["metadata"].(map[string]any)["costopsRecommendations"].([]any)
	assert.Len(t, entries, 1)
}

func TestGenerate_MalformedARMFallsBackToComment(t *testing.T) {
	current := "{not json"

	patched, err := Generate(domain.FormatARM, current, rec)
	require.NoError(t, err)
	assert.Contains(t, patched, "costpilot:recommendation rec-1")
	assert.True(t, strings.HasPrefix(patched, current))
}

func TestGenerate_UnsupportedFormat(t *testing.T) {
	_, err := Generate(domain.IaCFormat("yaml"), "", rec)
	assert.Error(t, err)
}
