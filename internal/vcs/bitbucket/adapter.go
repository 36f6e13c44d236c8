// Package bitbucket adapts the Bitbucket Cloud 2.0 API to the git host port.
package bitbucket

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Tomas-vilte/MateReview/internal/config"
	domainErrors "github.com/Tomas-vilte/MateReview/internal/errors"
	"github.com/Tomas-vilte/MateReview/internal/httpclient"
	"github.com/Tomas-vilte/MateReview/internal/logger"
	"github.com/Tomas-vilte/MateReview/internal/models"
	"github.com/Tomas-vilte/MateReview/internal/ports"
	"github.com/Tomas-vilte/MateReview/internal/vcs/registry"
)

const defaultBaseURL = "https://api.bitbucket.org"

var _ ports.GitHostAdapter = (*Adapter)(nil)

type Adapter struct {
	baseURL   string
	username  string
	password  string
	client    httpclient.HTTPClient
	connected bool
}

func NewAdapter(cfg *config.VCSConfig) *Adapter {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Adapter{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		client:   &http.Client{Timeout: cfg.RequestTimeout()},
	}
}

// NewAdapterWithClient substitutes the HTTP client, used by tests.
func NewAdapterWithClient(baseURL, username, password string, client httpclient.HTTPClient) *Adapter {
	return &Adapter{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		username: username,
		password: password,
		client:   client,
	}
}

type (
	pullRequest struct {
		ID          int       `json:"id"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		State       string    `json:"state"`
		CreatedOn   time.Time `json:"created_on"`
		UpdatedOn   time.Time `json:"updated_on"`
		Author      struct {
			Nickname    string `json:"nickname"`
			DisplayName string `json:"display_name"`
		} `json:"author"`
		Source struct {
			Branch struct {
				Name string `json:"name"`
			} `json:"branch"`
		} `json:"source"`
		Destination struct {
			Branch struct {
				Name string `json:"name"`
			} `json:"branch"`
		} `json:"destination"`
		Links struct {
			HTML struct {
				Href string `json:"href"`
			} `json:"html"`
		} `json:"links"`
	}

	diffStat struct {
		Status       string `json:"status"`
		LinesAdded   int    `json:"lines_added"`
		LinesRemoved int    `json:"lines_removed"`
		Old          *struct {
			Path string `json:"path"`
		} `json:"old"`
		New *struct {
			Path string `json:"path"`
		} `json:"new"`
	}

	comment struct {
		ID    int `json:"id"`
		Links struct {
			HTML struct {
				Href string `json:"href"`
			} `json:"html"`
		} `json:"links"`
	}
)

func (a *Adapter) Connect(ctx context.Context) error {
	if a.connected {
		return nil
	}

	resp, err := a.makeRequest(ctx, http.MethodGet, "/2.0/user", nil)
	if err != nil {
		return domainErrors.NewConnectionError("bitbucket", err)
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return domainErrors.NewConnectionError("bitbucket", fmt.Errorf("unexpected status %s", resp.Status)).
			WithSuggestion("Check your Bitbucket username and app password")
	}

	var user struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return domainErrors.NewConnectionError("bitbucket", err)
	}

	a.connected = true
	logger.Debug(ctx, "bitbucket connection established", "user", user.Username)
	return nil
}

func (a *Adapter) FetchPR(ctx context.Context, repo string, number int) (models.PRInfo, error) {
	path := fmt.Sprintf("/2.0/repositories/%s/pullrequests/%d", repo, number)
	resp, err := a.makeRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return models.PRInfo{}, domainErrors.NewAPIError("bitbucket", err)
	}
	defer closeBody(resp)

	if err := a.checkStatus(resp, fmt.Sprintf("PR #%d", number)); err != nil {
		return models.PRInfo{}, err
	}

	var pr pullRequest
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return models.PRInfo{}, domainErrors.NewAPIError("bitbucket", err)
	}

	changes, err := a.fetchDiffStat(ctx, repo, number)
	if err != nil {
		return models.PRInfo{}, err
	}

	info := toPRInfo(pr)
	info.FileChanges = changes
	return info, nil
}

func (a *Adapter) FetchPRs(ctx context.Context, repo, state string, limit int) ([]models.PRInfo, error) {
	pagelen := 50
	if limit > 0 && limit < pagelen {
		pagelen = limit
	}
	path := fmt.Sprintf("/2.0/repositories/%s/pullrequests?state=%s&pagelen=%d", repo, mapListState(state), pagelen)

	resp, err := a.makeRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, domainErrors.NewAPIError("bitbucket", err)
	}
	defer closeBody(resp)

	if err := a.checkStatus(resp, "pull requests"); err != nil {
		return nil, err
	}

	var payload struct {
		Values []pullRequest `json:"values"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, domainErrors.NewAPIError("bitbucket", err)
	}

	result := make([]models.PRInfo, 0, len(payload.Values))
	for _, pr := range payload.Values {
		if limit > 0 && len(result) >= limit {
			break
		}
		changes, err := a.fetchDiffStat(ctx, repo, pr.ID)
		if err != nil {
			logger.Warn(ctx, "skipping PR, diffstat failed", "pr", pr.ID, "error", err)
			continue
		}
		info := toPRInfo(pr)
		info.FileChanges = changes
		result = append(result, info)
	}
	return result, nil
}

func (a *Adapter) fetchDiffStat(ctx context.Context, repo string, number int) ([]models.FileChange, error) {
	path := fmt.Sprintf("/2.0/repositories/%s/pullrequests/%d/diffstat", repo, number)
	resp, err := a.makeRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, domainErrors.NewAPIError("bitbucket", err)
	}
	defer closeBody(resp)

	if err := a.checkStatus(resp, fmt.Sprintf("diffstat of PR #%d", number)); err != nil {
		return nil, err
	}

	var payload struct {
		Values []diffStat `json:"values"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, domainErrors.NewAPIError("bitbucket", err)
	}

	changes := make([]models.FileChange, 0, len(payload.Values))
	for _, stat := range payload.Values {
		fc := models.FileChange{
			ChangeType: mapChangeType(stat.Status),
			Additions:  stat.LinesAdded,
			Deletions:  stat.LinesRemoved,
		}
		if stat.New != nil {
			fc.Path = stat.New.Path
		} else if stat.Old != nil {
			fc.Path = stat.Old.Path
		}
		if stat.Status == "renamed" && stat.Old != nil {
			fc.OldPath = stat.Old.Path
		}
		changes = append(changes, fc)
	}
	return changes, nil
}

func (a *Adapter) PostComment(ctx context.Context, repo string, number int, body, filePath string, lineNumber int) (string, error) {
	payload := map[string]any{
		"content": map[string]string{"raw": body},
	}
	if filePath != "" && lineNumber > 0 {
		payload["inline"] = map[string]any{
			"path": filePath,
			"to":   lineNumber,
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", domainErrors.NewAPIError("bitbucket", err)
	}

	path := fmt.Sprintf("/2.0/repositories/%s/pullrequests/%d/comments", repo, number)
	resp, err := a.makeRequest(ctx, http.MethodPost, path, data)
	if err != nil {
		return "", domainErrors.NewAPIError("bitbucket", err)
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusCreated {
		return "", a.checkStatus(resp, fmt.Sprintf("comment on PR #%d", number))
	}

	var created comment
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", domainErrors.NewAPIError("bitbucket", err)
	}
	if created.Links.HTML.Href != "" {
		return created.Links.HTML.Href, nil
	}
	return fmt.Sprintf("comment #%d", created.ID), nil
}

func (a *Adapter) GetFileContent(ctx context.Context, repo, path, ref string) (string, error) {
	reqPath := fmt.Sprintf("/2.0/repositories/%s/src/%s/%s", repo, ref, path)
	resp, err := a.makeRequest(ctx, http.MethodGet, reqPath, nil)
	if err != nil {
		return "", domainErrors.NewAPIError("bitbucket", err)
	}
	defer closeBody(resp)

	if err := a.checkStatus(resp, path); err != nil {
		return "", err
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domainErrors.NewAPIError("bitbucket", err).WithContext("path", path)
	}
	return string(content), nil
}

// CreateReview emulates a review by posting each comment individually,
// Bitbucket Cloud has no batched review endpoint.
func (a *Adapter) CreateReview(ctx context.Context, repo string, number int, comments []models.ReviewComment, _ string) (string, error) {
	posted := 0
	for _, c := range comments {
		if _, err := a.PostComment(ctx, repo, number, c.Body, c.FilePath, c.LineNumber); err != nil {
			return "", err
		}
		posted++
	}
	return fmt.Sprintf("Posted %d comments", posted), nil
}

func (a *Adapter) Close() error {
	a.connected = false
	return nil
}

func (a *Adapter) makeRequest(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Authorization", getBasicAuth(a.username, a.password))
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return a.client.Do(req)
}

func getBasicAuth(username, password string) string {
	credentials := fmt.Sprintf("%s:%s", username, password)
	return fmt.Sprintf("Basic %s", base64.StdEncoding.EncodeToString([]byte(credentials)))
}

func (a *Adapter) checkStatus(resp *http.Response, resource string) error {
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusNotFound:
		return domainErrors.NewNotFoundError(resource, nil)
	case http.StatusUnauthorized, http.StatusForbidden:
		return domainErrors.NewConnectionError("bitbucket", fmt.Errorf("status %s", resp.Status)).
			WithContext("resource", resource).
			WithSuggestion("Check that your Bitbucket credentials have access to this repository")
	default:
		return domainErrors.NewAPIError("bitbucket", fmt.Errorf("unexpected status %s", resp.Status)).
			WithContext("resource", resource)
	}
}

func toPRInfo(pr pullRequest) models.PRInfo {
	author := pr.Author.Nickname
	if author == "" {
		author = pr.Author.DisplayName
	}
	return models.PRInfo{
		ID:           fmt.Sprintf("%d", pr.ID),
		Title:        pr.Title,
		Description:  pr.Description,
		Author:       author,
		Status:       mapStatus(pr.State),
		SourceBranch: pr.Source.Branch.Name,
		TargetBranch: pr.Destination.Branch.Name,
		CreatedAt:    pr.CreatedOn,
		UpdatedAt:    pr.UpdatedOn,
		URL:          pr.Links.HTML.Href,
	}
}

func mapStatus(state string) models.PRStatus {
	switch state {
	case "MERGED":
		return models.PRStatusMerged
	case "DECLINED", "SUPERSEDED":
		return models.PRStatusClosed
	default:
		return models.PRStatusOpen
	}
}

// mapListState translates provider-agnostic states into Bitbucket's
// uppercase vocabulary.
func mapListState(state string) string {
	switch state {
	case "open", "":
		return "OPEN"
	case "merged":
		return "MERGED"
	case "closed":
		return "DECLINED"
	default:
		return "OPEN"
	}
}

func mapChangeType(status string) models.ChangeType {
	switch status {
	case "added":
		return models.ChangeAdded
	case "removed":
		return models.ChangeDeleted
	case "renamed":
		return models.ChangeRenamed
	default:
		return models.ChangeModified
	}
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		return
	}
}

// Factory registers the bitbucket provider.
type Factory struct{}

func (f *Factory) Name() string { return "bitbucket" }

func (f *Factory) ValidateConfig(cfg *config.VCSConfig) error {
	return config.ValidateVCS("bitbucket", cfg)
}

func (f *Factory) CreateAdapter(cfg *config.VCSConfig) (ports.GitHostAdapter, error) {
	return NewAdapter(cfg), nil
}

var _ registry.AdapterFactory = (*Factory)(nil)
