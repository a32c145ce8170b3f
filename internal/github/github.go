package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAPIURL = "https://api.github.com"
	filesPerPage  = 100
	// maxFilePages bounds pagination; GitHub stops listing PR files at 3000.
	maxFilePages = 30
)

// PRContext describes the pull request a CI run belongs to.
type PRContext struct {
	Repo     string
	PRNumber int
	SHA      string
	Actor    string
	Workflow string
}

// PRContextFromEnv reads the GitHub Actions environment. The PR number comes
// from GITHUB_PR_NUMBER or, failing that, a refs/pull/<n>/merge GITHUB_REF.
func PRContextFromEnv() PRContext {
	c := PRContext{
		Repo:     os.Getenv("GITHUB_REPOSITORY"),
		SHA:      os.Getenv("GITHUB_SHA"),
		Actor:    os.Getenv("GITHUB_ACTOR"),
		Workflow: os.Getenv("GITHUB_WORKFLOW"),
	}
	if len(c.SHA) > 7 {
		c.SHA = c.SHA[:7]
	}
	if c.Workflow == "" {
		c.Workflow = "CI"
	}
	if n, err := strconv.Atoi(os.Getenv("GITHUB_PR_NUMBER")); err == nil && n > 0 {
		c.PRNumber = n
	} else if ref := os.Getenv("GITHUB_REF"); strings.HasPrefix(ref, "refs/pull/") {
		num, _, _ := strings.Cut(strings.TrimPrefix(ref, "refs/pull/"), "/")
		if n, err := strconv.Atoi(num); err == nil && n > 0 {
			c.PRNumber = n
		}
	}
	return c
}

// OwnerRepo splits Repo into owner and name.
func (c PRContext) OwnerRepo() (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(c.Repo, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", fmt.Errorf("invalid repository %q: want owner/repo", c.Repo)
	}
	return owner, repo, nil
}

// Client provides access to the GitHub REST API.
type Client struct {
	token   string
	apiURL  string
	httpCli *http.Client
}

// NewClient creates a new GitHub client. Requires GITHUB_TOKEN env var.
func NewClient() (*Client, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN environment variable is not set")
	}

	apiURL := os.Getenv("GITHUB_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	apiURL = strings.TrimRight(apiURL, "/")

	return &Client{
		token:   token,
		apiURL:  apiURL,
		httpCli: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte) ([]byte, int, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	return data, resp.StatusCode, nil
}

func statusError(code int, body []byte) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("authentication failed: %s", string(body))
	default:
		return fmt.Errorf("GitHub API error (status %d): %s", code, string(body))
	}
}

// PRFile represents a file changed in a pull request.
type PRFile struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
}

// GetPRFiles fetches the files changed in a pull request, following
// pagination. Removed files are skipped.
func (c *Client) GetPRFiles(ctx context.Context, owner, repo string, prNumber int) ([]string, error) {
	var names []string
	for page := 1; page <= maxFilePages; page++ {
		url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files?per_page=%d&page=%d",
			c.apiURL, owner, repo, prNumber, filesPerPage, page)

		body, code, err := c.do(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("fetching PR files: %w", err)
		}
		if code == http.StatusNotFound {
			return nil, fmt.Errorf("PR #%d not found in %s/%s", prNumber, owner, repo)
		}
		if code != http.StatusOK {
			return nil, statusError(code, body)
		}

		var files []PRFile
		if err := json.Unmarshal(body, &files); err != nil {
			return nil, fmt.Errorf("parsing response: %w", err)
		}
		for _, f := range files {
			if f.Status != "removed" {
				names = append(names, f.Filename)
			}
		}
		if len(files) < filesPerPage {
			break
		}
	}
	return names, nil
}

// PostComment adds a comment to the pull request conversation.
func (c *Client) PostComment(ctx context.Context, owner, repo string, prNumber int, body string) error {
	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", c.apiURL, owner, repo, prNumber)

	payload, err := json.Marshal(map[string]string{"body": body})
	if err != nil {
		return fmt.Errorf("marshaling comment: %w", err)
	}

	data, code, err := c.do(ctx, http.MethodPost, url, payload)
	if err != nil {
		return fmt.Errorf("posting comment: %w", err)
	}
	if code == http.StatusUnprocessableEntity {
		return fmt.Errorf("GitHub rejected comment (422): %s", string(data))
	}
	if code < 200 || code >= 300 {
		return statusError(code, data)
	}
	return nil
}

var (
	httpsRemoteRe = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/.\s]+)`)
	sshRemoteRe   = regexp.MustCompile(`[^@]+@[^:]+:([^/]+)/([^/.\s]+)`)
)

// ParseRemoteURL extracts owner/repo from a git remote URL.
func ParseRemoteURL(url string) (owner, repo string, err error) {
	url = strings.TrimSuffix(url, ".git")

	if m := httpsRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	if m := sshRemoteRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("cannot parse owner/repo from remote URL: %s", url)
}
