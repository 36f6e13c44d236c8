// Package gitlab adapts the GitLab REST API to the git host port.
package gitlab

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
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

const defaultBaseURL = "https://gitlab.com"

var _ ports.GitHostAdapter = (*Adapter)(nil)

type Adapter struct {
	baseURL   string
	token     string
	client    httpclient.HTTPClient
	connected bool
}

func NewAdapter(cfg *config.VCSConfig) *Adapter {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Adapter{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: cfg.RequestTimeout()},
	}
}

// NewAdapterWithClient substitutes the HTTP client, used by tests.
func NewAdapterWithClient(baseURL, token string, client httpclient.HTTPClient) *Adapter {
	return &Adapter{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		client:  client,
	}
}

type (
	mergeRequest struct {
		IID          int       `json:"iid"`
		Title        string    `json:"title"`
		Description  string    `json:"description"`
		State        string    `json:"state"`
		Draft        bool      `json:"draft"`
		SourceBranch string    `json:"source_branch"`
		TargetBranch string    `json:"target_branch"`
		CreatedAt    time.Time `json:"created_at"`
		UpdatedAt    time.Time `json:"updated_at"`
		WebURL       string    `json:"web_url"`
		Author       struct {
			Username string `json:"username"`
		} `json:"author"`
	}

	mergeRequestChange struct {
		OldPath     string `json:"old_path"`
		NewPath     string `json:"new_path"`
		NewFile     bool   `json:"new_file"`
		DeletedFile bool   `json:"deleted_file"`
		RenamedFile bool   `json:"renamed_file"`
		Diff        string `json:"diff"`
	}

	repositoryFile struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}

	note struct {
		ID int `json:"id"`
	}
)

func (a *Adapter) Connect(ctx context.Context) error {
	if a.connected {
		return nil
	}

	resp, err := a.makeRequest(ctx, http.MethodGet, "/api/v4/user", nil)
	if err != nil {
		return domainErrors.NewConnectionError("gitlab", err)
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return domainErrors.NewConnectionError("gitlab", fmt.Errorf("unexpected status %s", resp.Status)).
			WithSuggestion("Check that your GitLab token is valid and not expired")
	}

	var user struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return domainErrors.NewConnectionError("gitlab", err)
	}

	a.connected = true
	logger.Debug(ctx, "gitlab connection established", "user", user.Username)
	return nil
}

func (a *Adapter) FetchPR(ctx context.Context, repo string, number int) (models.PRInfo, error) {
	path := fmt.Sprintf("/api/v4/projects/%s/merge_requests/%d", url.PathEscape(repo), number)
	resp, err := a.makeRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return models.PRInfo{}, domainErrors.NewAPIError("gitlab", err)
	}
	defer closeBody(resp)

	if err := a.checkStatus(resp, fmt.Sprintf("MR !%d", number)); err != nil {
		return models.PRInfo{}, err
	}

	var mr mergeRequest
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return models.PRInfo{}, domainErrors.NewAPIError("gitlab", err)
	}

	changes, err := a.fetchChanges(ctx, repo, number)
	if err != nil {
		return models.PRInfo{}, err
	}

	info := toPRInfo(mr)
	info.FileChanges = changes
	return info, nil
}

func (a *Adapter) FetchPRs(ctx context.Context, repo, state string, limit int) ([]models.PRInfo, error) {
	perPage := 100
	if limit > 0 && limit < perPage {
		perPage = limit
	}
	path := fmt.Sprintf("/api/v4/projects/%s/merge_requests?state=%s&order_by=updated_at&per_page=%d",
		url.PathEscape(repo), mapListState(state), perPage)

	resp, err := a.makeRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, domainErrors.NewAPIError("gitlab", err)
	}
	defer closeBody(resp)

	if err := a.checkStatus(resp, "merge requests"); err != nil {
		return nil, err
	}

	var mrs []mergeRequest
	if err := json.NewDecoder(resp.Body).Decode(&mrs); err != nil {
		return nil, domainErrors.NewAPIError("gitlab", err)
	}

	result := make([]models.PRInfo, 0, len(mrs))
	for _, mr := range mrs {
		if limit > 0 && len(result) >= limit {
			break
		}
		changes, err := a.fetchChanges(ctx, repo, mr.IID)
		if err != nil {
			logger.Warn(ctx, "skipping MR, change listing failed", "mr", mr.IID, "error", err)
			continue
		}
		info := toPRInfo(mr)
		info.FileChanges = changes
		result = append(result, info)
	}
	return result, nil
}

func (a *Adapter) fetchChanges(ctx context.Context, repo string, number int) ([]models.FileChange, error) {
	path := fmt.Sprintf("/api/v4/projects/%s/merge_requests/%d/changes", url.PathEscape(repo), number)
	resp, err := a.makeRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, domainErrors.NewAPIError("gitlab", err)
	}
	defer closeBody(resp)

	if err := a.checkStatus(resp, fmt.Sprintf("changes of MR !%d", number)); err != nil {
		return nil, err
	}

	var payload struct {
		Changes []mergeRequestChange `json:"changes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, domainErrors.NewAPIError("gitlab", err)
	}

	changes := make([]models.FileChange, 0, len(payload.Changes))
	for _, c := range payload.Changes {
		additions, deletions := countDiffLines(c.Diff)
		fc := models.FileChange{
			Path:       c.NewPath,
			ChangeType: mapChangeType(c),
			Additions:  additions,
			Deletions:  deletions,
			Diff:       c.Diff,
		}
		if c.RenamedFile {
			fc.OldPath = c.OldPath
		}
		changes = append(changes, fc)
	}
	return changes, nil
}

func (a *Adapter) PostComment(ctx context.Context, repo string, number int, body, filePath string, lineNumber int) (string, error) {
	// Positioned notes need diff SHAs the orchestrator does not carry, so an
	// inline comment becomes a note with a location prefix.
	text := body
	if filePath != "" && lineNumber > 0 {
		text = fmt.Sprintf("`%s:%d`\n\n%s", filePath, lineNumber, body)
	}

	path := fmt.Sprintf("/api/v4/projects/%s/merge_requests/%d/notes", url.PathEscape(repo), number)
	payload, err := json.Marshal(map[string]string{"body": text})
	if err != nil {
		return "", domainErrors.NewAPIError("gitlab", err)
	}

	resp, err := a.makeRequest(ctx, http.MethodPost, path, payload)
	if err != nil {
		return "", domainErrors.NewAPIError("gitlab", err)
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusCreated {
		return "", a.checkStatus(resp, fmt.Sprintf("note on MR !%d", number))
	}

	var created note
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", domainErrors.NewAPIError("gitlab", err)
	}
	return fmt.Sprintf("%s/%s/-/merge_requests/%d#note_%d", a.baseURL, repo, number, created.ID), nil
}

func (a *Adapter) GetFileContent(ctx context.Context, repo, path, ref string) (string, error) {
	reqPath := fmt.Sprintf("/api/v4/projects/%s/repository/files/%s?ref=%s",
		url.PathEscape(repo), url.PathEscape(path), url.QueryEscape(ref))

	resp, err := a.makeRequest(ctx, http.MethodGet, reqPath, nil)
	if err != nil {
		return "", domainErrors.NewAPIError("gitlab", err)
	}
	defer closeBody(resp)

	if err := a.checkStatus(resp, path); err != nil {
		return "", err
	}

	var file repositoryFile
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return "", domainErrors.NewAPIError("gitlab", err)
	}
	if file.Encoding != "base64" {
		return file.Content, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(file.Content)
	if err != nil {
		return "", domainErrors.NewAPIError("gitlab", err).WithContext("path", path)
	}
	return string(decoded), nil
}

// CreateReview emulates a review by posting each comment as its own note,
// GitLab has no batched review endpoint in the community API.
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
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("PRIVATE-TOKEN", a.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return a.client.Do(req)
}

func (a *Adapter) checkStatus(resp *http.Response, resource string) error {
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusNotFound:
		return domainErrors.NewNotFoundError(resource, nil)
	case http.StatusUnauthorized, http.StatusForbidden:
		return domainErrors.NewConnectionError("gitlab", fmt.Errorf("status %s", resp.Status)).
			WithContext("resource", resource).
			WithSuggestion("Check that your GitLab token has access to this project")
	default:
		return domainErrors.NewAPIError("gitlab", fmt.Errorf("unexpected status %s", resp.Status)).
			WithContext("resource", resource)
	}
}

func toPRInfo(mr mergeRequest) models.PRInfo {
	return models.PRInfo{
		ID:           fmt.Sprintf("%d", mr.IID),
		Title:        mr.Title,
		Description:  mr.Description,
		Author:       mr.Author.Username,
		Status:       mapStatus(mr),
		SourceBranch: mr.SourceBranch,
		TargetBranch: mr.TargetBranch,
		CreatedAt:    mr.CreatedAt,
		UpdatedAt:    mr.UpdatedAt,
		URL:          mr.WebURL,
	}
}

func mapStatus(mr mergeRequest) models.PRStatus {
	switch {
	case mr.Draft:
		return models.PRStatusDraft
	case mr.State == "merged":
		return models.PRStatusMerged
	case mr.State == "closed":
		return models.PRStatusClosed
	default:
		return models.PRStatusOpen
	}
}

// mapListState translates provider-agnostic states into GitLab's vocabulary.
func mapListState(state string) string {
	switch state {
	case "open", "":
		return "opened"
	case "closed", "merged", "all":
		return state
	default:
		return "opened"
	}
}

func mapChangeType(c mergeRequestChange) models.ChangeType {
	switch {
	case c.NewFile:
		return models.ChangeAdded
	case c.DeletedFile:
		return models.ChangeDeleted
	case c.RenamedFile:
		return models.ChangeRenamed
	default:
		return models.ChangeModified
	}
}

func countDiffLines(diff string) (additions, deletions int) {
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			additions++
		case strings.HasPrefix(line, "-"):
			deletions++
		}
	}
	return additions, deletions
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		return
	}
}

// Factory registers the gitlab provider.
type Factory struct{}

func (f *Factory) Name() string { return "gitlab" }

func (f *Factory) ValidateConfig(cfg *config.VCSConfig) error {
	return config.ValidateVCS("gitlab", cfg)
}

func (f *Factory) CreateAdapter(cfg *config.VCSConfig) (ports.GitHostAdapter, error) {
	return NewAdapter(cfg), nil
}

var _ registry.AdapterFactory = (*Factory)(nil)
