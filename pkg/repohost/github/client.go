package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github.com/de-tools/costpilot/pkg/models/domain"
	"github.com/de-tools/costpilot/pkg/repohost"
)

// Client implements repohost.Client against the GitHub REST API.
type Client struct {
	gh *gh.Client
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	httpClient := oauth2.NewClient(ctx, ts)

	client := gh.NewClient(httpClient)
	if cfg.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("configure enterprise base URL: %w", err)
		}
	}

	return &Client{gh: client}, nil
}

func splitRepo(repo string) (owner, name string, err error) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q, want owner/name", repo)
	}
	return parts[0], parts[1], nil
}

func (c *Client) GetDefaultBranch(ctx context.Context, repo string) (string, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return "", err
	}

	repository, _, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		return "", fmt.Errorf("get repository %s: %w", repo, err)
	}
	return repository.GetDefaultBranch(), nil
}

func (c *Client) GetTree(ctx context.Context, repo string) ([]domain.TreeEntry, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	branch, err := c.GetDefaultBranch(ctx, repo)
	if err != nil {
		return nil, err
	}

	tree, _, err := c.gh.Git.GetTree(ctx, owner, name, branch, true)
	if err != nil {
		return nil, fmt.Errorf("get tree for %s@%s: %w", repo, branch, err)
	}

	entries := make([]domain.TreeEntry, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		entries = append(entries, domain.TreeEntry{
			Path: entry.GetPath(),
			Kind: entry.GetType(),
		})
	}
	return entries, nil
}

func (c *Client) GetFileContent(ctx context.Context, repo, path, ref string) (string, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return "", err
	}

	file, _, _, err := c.gh.Repositories.GetContents(ctx, owner, name, path,
		&gh.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		return "", fmt.Errorf("get contents of %s@%s:%s: %w", repo, ref, path, err)
	}
	if file == nil {
		return "", fmt.Errorf("%s:%s is a directory, not a file", repo, path)
	}

	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("decode contents of %s: %w", path, err)
	}
	return content, nil
}

func (c *Client) CreateBranch(ctx context.Context, repo, base, branch string) error {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return err
	}

	baseRef, _, err := c.gh.Git.GetRef(ctx, owner, name, "refs/heads/"+base)
	if err != nil {
		return fmt.Errorf("get base ref %s: %w", base, err)
	}

	_, _, err = c.gh.Git.CreateRef(ctx, owner, name, &gh.Reference{
		Ref:    gh.String("refs/heads/" + branch),
		Object: &gh.GitObject{SHA: baseRef.Object.SHA},
	})
	if err != nil {
		// A pre-existing branch is fine; a retry reuses it.
		var ghErr *gh.ErrorResponse
		if errors.As(err, &ghErr) && ghErr.Response != nil &&
			ghErr.Response.StatusCode == http.StatusUnprocessableEntity {
			return nil
		}
		return fmt.Errorf("create branch %s: %w", branch, err)
	}
	return nil
}

func (c *Client) CommitFiles(ctx context.Context, repo, branch string, files []repohost.CommitFile, message string) error {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return err
	}

	for _, file := range files {
		opts := &gh.RepositoryContentFileOptions{
			Message: gh.String(message),
			Content: []byte(file.Content),
			Branch:  gh.String(branch),
		}

		existing, _, _, err := c.gh.Repositories.GetContents(ctx, owner, name, file.Path,
			&gh.RepositoryContentGetOptions{Ref: branch})
		if err == nil && existing != nil {
			opts.SHA = existing.SHA
		}

		if _, _, err := c.gh.Repositories.UpdateFile(ctx, owner, name, file.Path, opts); err != nil {
			return fmt.Errorf("commit %s to %s@%s: %w", file.Path, repo, branch, err)
		}
	}
	return nil
}

func (c *Client) OpenPullRequest(
	ctx context.Context,
	repo, head, base, title, body string,
	labels []string,
) (*domain.PullRequest, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	pr, _, err := c.gh.PullRequests.Create(ctx, owner, name, &gh.NewPullRequest{
		Title: gh.String(title),
		Head:  gh.String(head),
		Base:  gh.String(base),
		Body:  gh.String(body),
	})
	if err != nil {
		return nil, fmt.Errorf("open pull request on %s: %w", repo, err)
	}

	if len(labels) > 0 {
		// The PR is already open; a label failure must not fail the call.
		_, _, _ = c.gh.Issues.AddLabelsToIssue(ctx, owner, name, pr.GetNumber(), labels)
	}

	return &domain.PullRequest{
		Number:  pr.GetNumber(),
		URL:     pr.GetHTMLURL(),
		HeadRef: pr.GetHead().GetRef(),
	}, nil
}
