package repohost

import (
	"context"

	"github.com/de-tools/costpilot/pkg/models/domain"
)

// CommitFile is one file change within a commit.
type CommitFile struct {
	Path    string
	Content string
}

// Client is the repository-host surface the core drives PRs through.
// Repo is always "owner/name". CreateBranch tolerates an already
// existing branch; every other remote failure surfaces to the caller
// unretried.
type Client interface {
	GetTree(ctx context.Context, repo string) ([]domain.TreeEntry, error)
	GetFileContent(ctx context.Context, repo, path, ref string) (string, error)
	GetDefaultBranch(ctx context.Context, repo string) (string, error)
	CreateBranch(ctx context.Context, repo, base, name string) error
	CommitFiles(ctx context.Context, repo, branch string, files []CommitFile, message string) error
	OpenPullRequest(ctx context.Context, repo, head, base, title, body string, labels []string) (*domain.PullRequest, error)
}
