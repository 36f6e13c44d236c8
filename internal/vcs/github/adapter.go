// Package github adapts the GitHub REST API to the git host port.
package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/Tomas-vilte/MateReview/internal/config"
	domainErrors "github.com/Tomas-vilte/MateReview/internal/errors"
	"github.com/Tomas-vilte/MateReview/internal/logger"
	"github.com/Tomas-vilte/MateReview/internal/models"
	"github.com/Tomas-vilte/MateReview/internal/ports"
	"github.com/Tomas-vilte/MateReview/internal/vcs/registry"
)

var _ ports.GitHostAdapter = (*Adapter)(nil)

type PullRequestsService interface {
	Get(ctx context.Context, owner, repo string, number int) (*github.PullRequest, *github.Response, error)
	List(ctx context.Context, owner, repo string, opts *github.PullRequestListOptions) ([]*github.PullRequest, *github.Response, error)
	ListFiles(ctx context.Context, owner, repo string, number int, opts *github.ListOptions) ([]*github.CommitFile, *github.Response, error)
	CreateReview(ctx context.Context, owner, repo string, number int, review *github.PullRequestReviewRequest) (*github.PullRequestReview, *github.Response, error)
	CreateComment(ctx context.Context, owner, repo string, number int, comment *github.PullRequestComment) (*github.PullRequestComment, *github.Response, error)
}

type IssuesService interface {
	CreateComment(ctx context.Context, owner, repo string, number int, comment *github.IssueComment) (*github.IssueComment, *github.Response, error)
}

type RepositoriesService interface {
	GetContents(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentGetOptions) (*github.RepositoryContent, []*github.RepositoryContent, *github.Response, error)
}

type UsersService interface {
	Get(ctx context.Context, user string) (*github.User, *github.Response, error)
}

type Adapter struct {
	prService    PullRequestsService
	issueService IssuesService
	repoService  RepositoriesService
	usersService UsersService

	connected bool
	username  string
}

// NewAdapter builds an adapter over the real GitHub client. A BaseURL in the
// config points the client at a GitHub Enterprise instance.
func NewAdapter(cfg *config.VCSConfig) (*Adapter, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	httpClient := oauth2.NewClient(context.Background(), ts)
	httpClient.Timeout = cfg.RequestTimeout()

	client := github.NewClient(httpClient)
	if cfg.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, domainErrors.NewAppError(domainErrors.TypeConfiguration, "invalid github base url", err).
				WithContext("base_url", cfg.BaseURL)
		}
	}

	return &Adapter{
		prService:    client.PullRequests,
		issueService: client.Issues,
		repoService:  client.Repositories,
		usersService: client.Users,
	}, nil
}

// NewAdapterWithServices wires explicit service implementations, used by
// tests to substitute mocks.
func NewAdapterWithServices(pr PullRequestsService, issues IssuesService, repos RepositoriesService, users UsersService) *Adapter {
	return &Adapter{
		prService:    pr,
		issueService: issues,
		repoService:  repos,
		usersService: users,
	}
}

func (a *Adapter) Connect(ctx context.Context) error {
	if a.connected {
		return nil
	}

	user, resp, err := a.usersService.Get(ctx, "")
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return domainErrors.NewConnectionError("github", err).
				WithSuggestion("Check that your GitHub token is valid and not expired")
		}
		return domainErrors.NewConnectionError("github", err)
	}

	a.connected = true
	a.username = user.GetLogin()
	logger.Debug(ctx, "github connection established", "user", a.username)
	return nil
}

func (a *Adapter) FetchPR(ctx context.Context, repo string, number int) (models.PRInfo, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return models.PRInfo{}, err
	}

	pr, resp, err := a.prService.Get(ctx, owner, name, number)
	if err != nil {
		return models.PRInfo{}, a.mapError(resp, err, fmt.Sprintf("PR #%d", number))
	}

	files, err := a.fetchFiles(ctx, owner, name, number)
	if err != nil {
		return models.PRInfo{}, err
	}

	info := toPRInfo(pr)
	info.FileChanges = files
	return info, nil
}

func (a *Adapter) FetchPRs(ctx context.Context, repo, state string, limit int) ([]models.PRInfo, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	listState := state
	switch state {
	case "merged":
		listState = "closed"
	case "":
		listState = "open"
	}

	opts := &github.PullRequestListOptions{
		State:       listState,
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var result []models.PRInfo
	for {
		prs, resp, err := a.prService.List(ctx, owner, name, opts)
		if err != nil {
			return nil, a.mapError(resp, err, "pull requests")
		}

		for _, pr := range prs {
			if state == "merged" && pr.MergedAt == nil {
				continue
			}
			files, err := a.fetchFiles(ctx, owner, name, pr.GetNumber())
			if err != nil {
				logger.Warn(ctx, "skipping PR, file listing failed", "pr", pr.GetNumber(), "error", err)
				continue
			}
			info := toPRInfo(pr)
			info.FileChanges = files
			result = append(result, info)
			if limit > 0 && len(result) >= limit {
				return result, nil
			}
		}

		if resp.NextPage == 0 {
			return result, nil
		}
		opts.Page = resp.NextPage
	}
}

func (a *Adapter) fetchFiles(ctx context.Context, owner, name string, number int) ([]models.FileChange, error) {
	opts := &github.ListOptions{PerPage: 100}
	var changes []models.FileChange
	for {
		files, resp, err := a.prService.ListFiles(ctx, owner, name, number, opts)
		if err != nil {
			return nil, a.mapError(resp, err, fmt.Sprintf("files of PR #%d", number))
		}
		for _, file := range files {
			changes = append(changes, models.FileChange{
				Path:       file.GetFilename(),
				ChangeType: mapChangeType(file.GetStatus()),
				Additions:  file.GetAdditions(),
				Deletions:  file.GetDeletions(),
				Diff:       file.GetPatch(),
				OldPath:    file.GetPreviousFilename(),
			})
		}
		if resp.NextPage == 0 {
			return changes, nil
		}
		opts.Page = resp.NextPage
	}
}

func (a *Adapter) PostComment(ctx context.Context, repo string, number int, body, filePath string, lineNumber int) (string, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return "", err
	}

	if filePath != "" && lineNumber > 0 {
		pr, resp, err := a.prService.Get(ctx, owner, name, number)
		if err != nil {
			return "", a.mapError(resp, err, fmt.Sprintf("PR #%d", number))
		}
		comment := &github.PullRequestComment{
			Body:     github.Ptr(body),
			Path:     github.Ptr(filePath),
			Line:     github.Ptr(lineNumber),
			Side:     github.Ptr("RIGHT"),
			CommitID: github.Ptr(pr.GetHead().GetSHA()),
		}
		created, resp, err := a.prService.CreateComment(ctx, owner, name, number, comment)
		if err != nil {
			return "", a.mapError(resp, err, fmt.Sprintf("comment on PR #%d", number))
		}
		return created.GetHTMLURL(), nil
	}

	created, resp, err := a.issueService.CreateComment(ctx, owner, name, number, &github.IssueComment{
		Body: github.Ptr(body),
	})
	if err != nil {
		return "", a.mapError(resp, err, fmt.Sprintf("comment on PR #%d", number))
	}
	return created.GetHTMLURL(), nil
}

func (a *Adapter) GetFileContent(ctx context.Context, repo, path, ref string) (string, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return "", err
	}

	fileContent, _, resp, err := a.repoService.GetContents(ctx, owner, name, path, &github.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		return "", a.mapError(resp, err, path)
	}
	if fileContent == nil {
		return "", domainErrors.NewNotFoundError(path, nil).WithContext("ref", ref)
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return "", domainErrors.NewAPIError("github", err).WithContext("path", path)
	}
	return content, nil
}

func (a *Adapter) CreateReview(ctx context.Context, repo string, number int, comments []models.ReviewComment, event string) (string, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return "", err
	}

	draftComments := make([]*github.DraftReviewComment, len(comments))
	for i, c := range comments {
		draftComments[i] = &github.DraftReviewComment{
			Path: github.Ptr(c.FilePath),
			Line: github.Ptr(c.LineNumber),
			Side: github.Ptr("RIGHT"),
			Body: github.Ptr(c.Body),
		}
	}

	review := &github.PullRequestReviewRequest{
		Event:    github.Ptr(event),
		Comments: draftComments,
	}
	created, resp, err := a.prService.CreateReview(ctx, owner, name, number, review)
	if err != nil {
		return "", a.mapError(resp, err, fmt.Sprintf("review on PR #%d", number))
	}
	return created.GetHTMLURL(), nil
}

func (a *Adapter) Close() error {
	a.connected = false
	return nil
}

func (a *Adapter) mapError(resp *github.Response, err error, resource string) error {
	if resp != nil {
		switch resp.StatusCode {
		case http.StatusNotFound:
			return domainErrors.NewNotFoundError(resource, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return domainErrors.NewConnectionError("github", err).
				WithContext("resource", resource).
				WithSuggestion("Check that your GitHub token has access to this repository")
		}
	}
	return domainErrors.NewAPIError("github", err).WithContext("resource", resource)
}

func toPRInfo(pr *github.PullRequest) models.PRInfo {
	return models.PRInfo{
		ID:           fmt.Sprintf("%d", pr.GetNumber()),
		Title:        pr.GetTitle(),
		Description:  pr.GetBody(),
		Author:       pr.GetUser().GetLogin(),
		Status:       mapStatus(pr),
		SourceBranch: pr.GetHead().GetRef(),
		TargetBranch: pr.GetBase().GetRef(),
		CreatedAt:    pr.GetCreatedAt().Time,
		UpdatedAt:    pr.GetUpdatedAt().Time,
		URL:          pr.GetHTMLURL(),
	}
}

func mapStatus(pr *github.PullRequest) models.PRStatus {
	switch {
	case pr.GetDraft():
		return models.PRStatusDraft
	case pr.MergedAt != nil:
		return models.PRStatusMerged
	case pr.GetState() == "closed":
		return models.PRStatusClosed
	default:
		return models.PRStatusOpen
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

func splitRepo(repo string) (owner, name string, err error) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", domainErrors.NewAppError(domainErrors.TypeConfiguration,
			"repository must be in owner/name form", nil).
			WithContext("repository", repo)
	}
	return parts[0], parts[1], nil
}

// Factory registers the github provider.
type Factory struct{}

func (f *Factory) Name() string { return "github" }

func (f *Factory) ValidateConfig(cfg *config.VCSConfig) error {
	return config.ValidateVCS("github", cfg)
}

func (f *Factory) CreateAdapter(cfg *config.VCSConfig) (ports.GitHostAdapter, error) {
	return NewAdapter(cfg)
}

var _ registry.AdapterFactory = (*Factory)(nil)
