package issues

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"
)

const requestTimeout = 20 * time.Second

// Client files incident issues in one GitHub repository.
type Client struct {
	gh    *github.Client
	owner string
	repo  string
}

// NewClient creates an issue client for a repository in "owner/name" form.
func NewClient(token, repo string) (*Client, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("invalid repository %q, want owner/name", repo)
	}

	httpClient := &http.Client{Timeout: requestTimeout}
	return &Client{
		gh:    github.NewClient(httpClient).WithAuthToken(token),
		owner: owner,
		repo:  name,
	}, nil
}

// Create opens a new issue and returns its HTML URL.
func (c *Client) Create(ctx context.Context, title, body string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	issue, _, err := c.gh.Issues.Create(ctx, c.owner, c.repo, &github.IssueRequest{
		Title: github.Ptr(title),
		Body:  github.Ptr(body),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create issue: %w", err)
	}
	return issue.GetHTMLURL(), nil
}
