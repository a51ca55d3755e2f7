package domain

// IaCFormat identifies the infrastructure-as-code dialect of a file.
type IaCFormat string

const (
	FormatTerraform IaCFormat = "terraform"
	FormatBicep     IaCFormat = "bicep"
	FormatARM       IaCFormat = "arm"
)

// IaCFile is a resolved infrastructure file inside a repository.
type IaCFile struct {
	Path   string
	Format IaCFormat
}

// TreeEntry is one entry of a repository's recursive file listing.
type TreeEntry struct {
	Path string
	Kind string // "blob" or "tree"
}
