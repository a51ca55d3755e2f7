package iacmap

import (
	"context"
	"testing"

	"github.com/de-tools/costpilot/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTreeFetcher struct {
	mock.Mock
}

func (m *mockTreeFetcher) GetTree(ctx context.Context, repo string) ([]domain.TreeEntry, error) {
	args := m.Called(ctx, repo)
	return args.Get(0).([]domain.TreeEntry), args.Error(1)
}

func blobs(paths ...string) []domain.TreeEntry {
	entries := make([]domain.TreeEntry, 0, len(paths))
	for _, p := range paths {
		entries = append(entries, domain.TreeEntry{Path: p, Kind: "blob"})
	}
	return entries
}

func TestMapper_FindFile_TagHint(t *testing.T) {
	host := new(mockTreeFetcher)
	mapper := NewMapper(host)

	res := domain.CloudResource{
		ID:   "vm-1",
		Name: "vm-1",
		Tags: map[string]string{"iac_path": "foo.tf"},
	}

	file, err := mapper.FindFile(context.Background(), "acme/infra", res)
	require.NoError(t, err)
	require.NotNil(t, file)
	assert.Equal(t, "foo.tf", file.Path)
	assert.Equal(t, domain.FormatTerraform, file.Format)

	// Authoritative hint: the tree must never be queried, even if a
	// matching file exists in the repository.
	host.AssertNotCalled(t, "GetTree", mock.Anything, mock.Anything)
}

func TestMapper_FindFile_WrittenBackHintSkipsTree(t *testing.T) {
	host := new(mockTreeFetcher)
	mapper := NewMapper(host)

	res := domain.CloudResource{
		ID:   "vm-2",
		Name: "vm-2",
		Tags: map[string]string{PathHintTag: "modules/vm-2.bicep"},
	}

	file, err := mapper.FindFile(context.Background(), "acme/infra", res)
	require.NoError(t, err)
	require.NotNil(t, file)
	assert.Equal(t, "modules/vm-2.bicep", file.Path)
	assert.Equal(t, domain.FormatBicep, file.Format)
	host.AssertNotCalled(t, "GetTree", mock.Anything, mock.Anything)
}

func TestHasPathHint(t *testing.T) {
	assert.False(t, HasPathHint(domain.CloudResource{ID: "vm-1"}))
	assert.True(t, HasPathHint(domain.CloudResource{
		Tags: map[string]string{"iac_path": "main.tf"},
	}))
	assert.True(t, HasPathHint(domain.CloudResource{
		Tags: map[string]string{PathHintTag: "modules/vm.tf"},
	}))
}

func TestMapper_FindFile_TagHintUnknownExtensionFallsThrough(t *testing.T) {
	host := new(mockTreeFetcher)
	host.On("GetTree", mock.Anything, "acme/infra").
		Return(blobs("infra/vm-1.tf"), nil)
	mapper := NewMapper(host)

	res := domain.CloudResource{
		ID:   "vm-1",
		Name: "vm-1",
		Tags: map[string]string{"iac_path": "notes/vm-1.md"},
	}

	file, err := mapper.FindFile(context.Background(), "acme/infra", res)
	require.NoError(t, err)
	require.NotNil(t, file)
	assert.Equal(t, "infra/vm-1.tf", file.Path)
}

func TestMapper_FindFile_FilenameMatch(t *testing.T) {
	host := new(mockTreeFetcher)
	host.On("GetTree", mock.Anything, "acme/infra").
		Return(blobs(
			"README.md",
			"modules/network.tf",
			"modules/Prod-Web-VM.bicep",
			"modules/db.tf",
		), nil)
	mapper := NewMapper(host)

	res := domain.CloudResource{ID: "vm-7", Name: "Prod Web VM"}

	file, err := mapper.FindFile(context.Background(), "acme/infra", res)
	require.NoError(t, err)
	require.NotNil(t, file)
	assert.Equal(t, "modules/Prod-Web-VM.bicep", file.Path)
	assert.Equal(t, domain.FormatBicep, file.Format)
}

func TestMapper_FindFile_PathPatternFallback(t *testing.T) {
	host := new(mockTreeFetcher)
	host.On("GetTree", mock.Anything, "acme/infra").
		Return(blobs(
			"src/app.go",
			"terraform/cluster.tf",
			"main.tf",
		), nil)
	mapper := NewMapper(host)

	res := domain.CloudResource{ID: "vm-9", Name: "unrelated-name"}

	file, err := mapper.FindFile(context.Background(), "acme/infra", res)
	require.NoError(t, err)
	require.NotNil(t, file)
	// main.tf pattern outranks the terraform/ directory pattern.
	assert.Equal(t, "main.tf", file.Path)
	assert.Equal(t, domain.FormatTerraform, file.Format)
}

func TestMapper_FindFile_NoMatch(t *testing.T) {
	host := new(mockTreeFetcher)
	host.On("GetTree", mock.Anything, "acme/infra").
		Return(blobs("src/app.go", "README.md"), nil)
	mapper := NewMapper(host)

	file, err := mapper.FindFile(context.Background(), "acme/infra", domain.CloudResource{ID: "x", Name: "x"})
	require.NoError(t, err)
	assert.Nil(t, file)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "prod-web-vm", Slugify("Prod Web VM"))
	assert.Equal(t, "vm-1", Slugify("vm_1"))
	assert.Equal(t, "a-b", Slugify("--a//b--"))
	assert.Equal(t, "", Slugify("***"))
}

func TestFormatForPath(t *testing.T) {
	cases := map[string]domain.IaCFormat{
		"a/b/main.tf":     domain.FormatTerraform,
		"infra/app.bicep": domain.FormatBicep,
		"arm/site.json":   domain.FormatARM,
		"arm/site.ARM":    domain.FormatARM,
	}
	for p, want := range cases {
		format, ok := FormatForPath(p)
		require.True(t, ok, p)
		assert.Equal(t, want, format)
	}

	_, ok := FormatForPath("readme.md")
	assert.False(t, ok)
}
