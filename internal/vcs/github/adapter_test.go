package github

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-github/v80/github"
	domainErrors "github.com/Tomas-vilte/MateReview/internal/errors"
	"github.com/Tomas-vilte/MateReview/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestAdapter() (*Adapter, *MockPullRequestsService, *MockIssuesService, *MockRepositoriesService, *MockUsersService) {
	prs := new(MockPullRequestsService)
	issues := new(MockIssuesService)
	repos := new(MockRepositoriesService)
	users := new(MockUsersService)
	return NewAdapterWithServices(prs, issues, repos, users), prs, issues, repos, users
}

func ghResponse(status int) *github.Response {
	return &github.Response{Response: &http.Response{StatusCode: status}}
}

func TestConnect(t *testing.T) {
	adapter, _, _, _, users := newTestAdapter()
	users.On("Get", mock.Anything, "").
		Return(&github.User{Login: github.Ptr("octocat")}, ghResponse(200), nil).Once()

	require.NoError(t, adapter.Connect(context.Background()))
	// second call is a no-op
	require.NoError(t, adapter.Connect(context.Background()))
	users.AssertNumberOfCalls(t, "Get", 1)
}

func TestConnectInvalidToken(t *testing.T) {
	adapter, _, _, _, users := newTestAdapter()
	users.On("Get", mock.Anything, "").
		Return(nil, ghResponse(401), errors.New("401 bad credentials"))

	err := adapter.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, domainErrors.IsConnection(err))
}

func TestFetchPR(t *testing.T) {
	adapter, prs, _, _, _ := newTestAdapter()

	created := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	pr := &github.PullRequest{
		Number:    github.Ptr(12),
		Title:     github.Ptr("Fix bug"),
		Body:      github.Ptr("details"),
		State:     github.Ptr("open"),
		User:      &github.User{Login: github.Ptr("dev")},
		Head:      &github.PullRequestBranch{Ref: github.Ptr("fix/bug")},
		Base:      &github.PullRequestBranch{Ref: github.Ptr("main")},
		CreatedAt: &github.Timestamp{Time: created},
		HTMLURL:   github.Ptr("https://github.com/org/repo/pull/12"),
	}
	prs.On("Get", mock.Anything, "org", "repo", 12).Return(pr, ghResponse(200), nil)
	prs.On("ListFiles", mock.Anything, "org", "repo", 12, mock.Anything).
		Return([]*github.CommitFile{
			{
				Filename:  github.Ptr("app.py"),
				Status:    github.Ptr("modified"),
				Additions: github.Ptr(5),
				Deletions: github.Ptr(2),
				Patch:     github.Ptr("@@ -1 +1 @@"),
			},
			{
				Filename: github.Ptr("legacy.py"),
				Status:   github.Ptr("removed"),
			},
		}, ghResponse(200), nil)

	info, err := adapter.FetchPR(context.Background(), "org/repo", 12)
	require.NoError(t, err)

	assert.Equal(t, "12", info.ID)
	assert.Equal(t, "Fix bug", info.Title)
	assert.Equal(t, models.PRStatusOpen, info.Status)
	assert.Equal(t, "fix/bug", info.SourceBranch)
	assert.Equal(t, created, info.CreatedAt)
	require.Len(t, info.FileChanges, 2)
	assert.Equal(t, models.ChangeModified, info.FileChanges[0].ChangeType)
	assert.Equal(t, models.ChangeDeleted, info.FileChanges[1].ChangeType)
}

func TestFetchPRNotFound(t *testing.T) {
	adapter, prs, _, _, _ := newTestAdapter()
	prs.On("Get", mock.Anything, "org", "repo", 999).
		Return(nil, ghResponse(404), errors.New("404 not found"))

	_, err := adapter.FetchPR(context.Background(), "org/repo", 999)
	require.Error(t, err)
	assert.True(t, domainErrors.IsNotFound(err))
}

func TestFetchPRInvalidRepo(t *testing.T) {
	adapter, _, _, _, _ := newTestAdapter()

	_, err := adapter.FetchPR(context.Background(), "not-a-repo", 1)
	require.Error(t, err)
	assert.True(t, domainErrors.IsConfiguration(err))
}

func TestFetchPRsMergedFilter(t *testing.T) {
	adapter, prs, _, _, _ := newTestAdapter()

	mergedAt := github.Timestamp{Time: time.Now()}
	list := []*github.PullRequest{
		{Number: github.Ptr(1), State: github.Ptr("closed"), MergedAt: &mergedAt},
		{Number: github.Ptr(2), State: github.Ptr("closed")},
	}
	prs.On("List", mock.Anything, "org", "repo", mock.MatchedBy(func(opts *github.PullRequestListOptions) bool {
		return opts.State == "closed"
	})).Return(list, ghResponse(200), nil)
	prs.On("ListFiles", mock.Anything, "org", "repo", 1, mock.Anything).
		Return([]*github.CommitFile{}, ghResponse(200), nil)

	result, err := adapter.FetchPRs(context.Background(), "org/repo", "merged", 10)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "1", result[0].ID)
	assert.Equal(t, models.PRStatusMerged, result[0].Status)
}

func TestFetchPRsHonorsLimit(t *testing.T) {
	adapter, prs, _, _, _ := newTestAdapter()

	list := []*github.PullRequest{
		{Number: github.Ptr(1), State: github.Ptr("open")},
		{Number: github.Ptr(2), State: github.Ptr("open")},
		{Number: github.Ptr(3), State: github.Ptr("open")},
	}
	prs.On("List", mock.Anything, "org", "repo", mock.Anything).Return(list, ghResponse(200), nil)
	prs.On("ListFiles", mock.Anything, "org", "repo", mock.Anything, mock.Anything).
		Return([]*github.CommitFile{}, ghResponse(200), nil)

	result, err := adapter.FetchPRs(context.Background(), "org/repo", "open", 2)
	require.NoError(t, err)
	assert.Len(t, result, 2)
}

func TestGetFileContent(t *testing.T) {
	adapter, _, _, repos, _ := newTestAdapter()

	repos.On("GetContents", mock.Anything, "org", "repo", "app.py",
		mock.MatchedBy(func(opts *github.RepositoryContentGetOptions) bool {
			return opts.Ref == "feature"
		})).
		Return(&github.RepositoryContent{
			Type:     github.Ptr("file"),
			Encoding: github.Ptr(""),
			Content:  github.Ptr("print('hi')\n"),
		}, nil, ghResponse(200), nil)

	content, err := adapter.GetFileContent(context.Background(), "org/repo", "app.py", "feature")
	require.NoError(t, err)
	assert.Equal(t, "print('hi')\n", content)
}

func TestGetFileContentNotFound(t *testing.T) {
	adapter, _, _, repos, _ := newTestAdapter()
	repos.On("GetContents", mock.Anything, "org", "repo", "gone.py", mock.Anything).
		Return(nil, nil, ghResponse(404), errors.New("404"))

	_, err := adapter.GetFileContent(context.Background(), "org/repo", "gone.py", "main")
	require.Error(t, err)
	assert.True(t, domainErrors.IsNotFound(err))
}

func TestPostCommentGeneral(t *testing.T) {
	adapter, _, issues, _, _ := newTestAdapter()

	issues.On("CreateComment", mock.Anything, "org", "repo", 12,
		mock.MatchedBy(func(c *github.IssueComment) bool {
			return c.GetBody() == "summary text"
		})).
		Return(&github.IssueComment{HTMLURL: github.Ptr("https://github.com/org/repo/pull/12#issuecomment-1")}, ghResponse(201), nil)

	url, err := adapter.PostComment(context.Background(), "org/repo", 12, "summary text", "", 0)
	require.NoError(t, err)
	assert.Contains(t, url, "issuecomment")
}

func TestPostCommentInline(t *testing.T) {
	adapter, prs, _, _, _ := newTestAdapter()

	pr := &github.PullRequest{
		Number: github.Ptr(12),
		Head:   &github.PullRequestBranch{SHA: github.Ptr("abc123")},
	}
	prs.On("Get", mock.Anything, "org", "repo", 12).Return(pr, ghResponse(200), nil)
	prs.On("CreateComment", mock.Anything, "org", "repo", 12,
		mock.MatchedBy(func(c *github.PullRequestComment) bool {
			return c.GetPath() == "app.py" && c.GetLine() == 3 && c.GetCommitID() == "abc123"
		})).
		Return(&github.PullRequestComment{HTMLURL: github.Ptr("https://github.com/org/repo/pull/12#discussion_r1")}, ghResponse(201), nil)

	url, err := adapter.PostComment(context.Background(), "org/repo", 12, "fix this", "app.py", 3)
	require.NoError(t, err)
	assert.Contains(t, url, "discussion")
}

func TestCreateReview(t *testing.T) {
	adapter, prs, _, _, _ := newTestAdapter()

	prs.On("CreateReview", mock.Anything, "org", "repo", 12,
		mock.MatchedBy(func(r *github.PullRequestReviewRequest) bool {
			return r.GetEvent() == "COMMENT" && len(r.Comments) == 2
		})).
		Return(&github.PullRequestReview{HTMLURL: github.Ptr("https://github.com/org/repo/pull/12#pullrequestreview-1")}, ghResponse(200), nil)

	comments := []models.ReviewComment{
		{FilePath: "a.py", LineNumber: 1, Body: "one"},
		{FilePath: "b.py", LineNumber: 2, Body: "two"},
	}
	url, err := adapter.CreateReview(context.Background(), "org/repo", 12, comments, "COMMENT")
	require.NoError(t, err)
	assert.Contains(t, url, "pullrequestreview")
}
