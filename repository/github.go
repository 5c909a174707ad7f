// Package repository lists an account's repositories on GitHub and keeps
// local working copies of them up to date.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"golang.org/x/time/rate"
)

// DefaultAPIURL is the public GitHub REST endpoint.
const DefaultAPIURL = "https://api.github.com"

// DefaultPerPage is the largest page size the listing endpoint accepts.
const DefaultPerPage = 100

// Repo is the subset of the GitHub repository object codesnap reads.
type Repo struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	CloneURL string `json:"clone_url"`
	Language string `json:"language"`
	Fork     bool   `json:"fork"`
}

// ListerOptions configure a GitHubLister.
type ListerOptions struct {
	// BaseURL defaults to DefaultAPIURL.
	BaseURL string
	// PerPage defaults to DefaultPerPage.
	PerPage int
	// RequestsPerSecond paces page requests; zero or less disables pacing.
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Logger            *pterm.Logger
}

// GitHubLister pages through /users/{account}/repos.
type GitHubLister struct {
	baseURL string
	perPage int
	client  *http.Client
	limiter *rate.Limiter
	logger  *pterm.Logger
}

// NewGitHubLister creates a lister from opts.
func NewGitHubLister(opts ListerOptions) *GitHubLister {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	logger := opts.Logger
	if logger == nil {
		logger = &pterm.DefaultLogger
	}
	return &GitHubLister{
		baseURL: strings.TrimRight(baseURL, "/"),
		perPage: perPage,
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// ListRepositories returns every repository of every account. Pages are
// requested until one comes back empty. A failed page is logged and ends the
// listing for that account only; the other accounts are unaffected.
func (l *GitHubLister) ListRepositories(ctx context.Context, accounts []string) ([]Repo, error) {
	var all []Repo
	for _, account := range accounts {
		repos, err := l.listAccount(ctx, account)
		if err != nil {
			return nil, err
		}
		all = append(all, repos...)
	}
	return all, nil
}

// ListClonableURLs returns the clone URL of every repository of accounts.
func (l *GitHubLister) ListClonableURLs(ctx context.Context, accounts []string) ([]string, error) {
	repos, err := l.ListRepositories(ctx, accounts)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(repos))
	for _, r := range repos {
		if r.CloneURL != "" {
			urls = append(urls, r.CloneURL)
		}
	}
	return urls, nil
}

// listAccount only returns an error when ctx is done.
func (l *GitHubLister) listAccount(ctx context.Context, account string) ([]Repo, error) {
	var repos []Repo
	for page := 1; ; page++ {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		pageRepos, err := l.fetchPage(ctx, account, page)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			l.logger.Warn("Failed to fetch repositories", l.logger.Args("account", account, "page", page, "error", err))
			break
		}
		if len(pageRepos) == 0 {
			break
		}
		repos = append(repos, pageRepos...)
	}
	l.logger.Debug("Listed repositories", l.logger.Args("account", account, "count", len(repos)))
	return repos, nil
}

func (l *GitHubLister) fetchPage(ctx context.Context, account string, page int) ([]Repo, error) {
	params := url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(l.perPage)},
	}
	reqURL := fmt.Sprintf("%s/users/%s/repos?%s", l.baseURL, url.PathEscape(account), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "codesnap")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10)) //nolint:errcheck
		return nil, fmt.Errorf("HTTP status code: %d", resp.StatusCode)
	}

	var repos []Repo
	if err := json.NewDecoder(resp.Body).Decode(&repos); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return repos, nil
}
