package iacmap

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/de-tools/costpilot/pkg/models/domain"
)

// PathHintTag is the tag key written back to a resource once a file has
// been resolved through the tree heuristics, so later lookups take the
// authoritative tag path without a tree fetch.
const PathHintTag = "costpilot:iac_path"

// Tag key aliases accepted as an explicit IaC path hint on a resource.
var iacPathTagKeys = []string{"iac_path", "iacPath", "iac-path", "IacPath", PathHintTag}

// HasPathHint reports whether a resource already carries an explicit
// IaC path hint under any accepted key.
func HasPathHint(res domain.CloudResource) bool {
	_, ok := res.Tag(iacPathTagKeys...)
	return ok
}

// pathPatterns are the convention-based last-resort guesses, tried in
// order. Earlier entries are stronger conventions.
var pathPatterns = []struct {
	re     *regexp.Regexp
	format domain.IaCFormat
}{
	{regexp.MustCompile(`(^|/)main\.tf$`), domain.FormatTerraform},
	{regexp.MustCompile(`(^|/)(infra|terraform|modules|deployments)/.+\.tf$`), domain.FormatTerraform},
	{regexp.MustCompile(`(^|/)(infra|bicep|modules|deployments)/.+\.bicep$`), domain.FormatBicep},
	{regexp.MustCompile(`(^|/)(infra|arm|templates|deployments)/.+\.json$`), domain.FormatARM},
}

// TreeFetcher lists a repository's full recursive file tree.
type TreeFetcher interface {
	GetTree(ctx context.Context, repo string) ([]domain.TreeEntry, error)
}

// Mapper locates the infrastructure-as-code file declaring a cloud
// resource. Resolution order: explicit tag hint, then resource-name
// match against file basenames, then conventional path patterns. The
// tag path is authoritative and skips the repository tree entirely.
type Mapper struct {
	host TreeFetcher
}

func NewMapper(host TreeFetcher) *Mapper {
	return &Mapper{host: host}
}

// FindFile returns (nil, nil) when no candidate file exists; callers
// decide whether that is fatal.
func (m *Mapper) FindFile(ctx context.Context, repo string, res domain.CloudResource) (*domain.IaCFile, error) {
	if hint, ok := res.Tag(iacPathTagKeys...); ok {
		if format, known := FormatForPath(hint); known {
			return &domain.IaCFile{Path: hint, Format: format}, nil
		}
	}

	entries, err := m.host.GetTree(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("fetch repository tree: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Kind == "blob" {
			files = append(files, entry.Path)
		}
	}

	slug := Slugify(res.Name)
	if slug != "" {
		for _, file := range files {
			base := strings.ToLower(path.Base(file))
			if !strings.Contains(base, slug) {
				continue
			}
			if format, known := FormatForPath(file); known {
				return &domain.IaCFile{Path: file, Format: format}, nil
			}
		}
	}

	for _, pattern := range pathPatterns {
		for _, file := range files {
			if pattern.re.MatchString(file) {
				return &domain.IaCFile{Path: file, Format: pattern.format}, nil
			}
		}
	}

	return nil, nil
}

// FormatForPath maps a file extension to its IaC format.
func FormatForPath(p string) (domain.IaCFormat, bool) {
	switch strings.ToLower(path.Ext(p)) {
	case ".tf":
		return domain.FormatTerraform, true
	case ".bicep":
		return domain.FormatBicep, true
	case ".json", ".arm":
		return domain.FormatARM, true
	default:
		return "", false
	}
}

// Slugify normalizes a resource name for basename matching: lowercase,
// alphanumeric runs kept, everything else collapsed to single hyphens,
// outer hyphens trimmed.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
