package github

import (
	"context"

	"github.com/google/go-github/v80/github"
	"github.com/stretchr/testify/mock"
)

type MockPullRequestsService struct {
	mock.Mock
}

func (m *MockPullRequestsService) Get(ctx context.Context, owner, repo string, number int) (*github.PullRequest, *github.Response, error) {
	args := m.Called(ctx, owner, repo, number)
	var pr *github.PullRequest
	if args.Get(0) != nil {
		pr = args.Get(0).(*github.PullRequest)
	}
	return pr, getResponse(args.Get(1)), args.Error(2)
}

func (m *MockPullRequestsService) List(ctx context.Context, owner, repo string, opts *github.PullRequestListOptions) ([]*github.PullRequest, *github.Response, error) {
	args := m.Called(ctx, owner, repo, opts)
	var prs []*github.PullRequest
	if args.Get(0) != nil {
		prs = args.Get(0).([]*github.PullRequest)
	}
	return prs, getResponse(args.Get(1)), args.Error(2)
}

func (m *MockPullRequestsService) ListFiles(ctx context.Context, owner, repo string, number int, opts *github.ListOptions) ([]*github.CommitFile, *github.Response, error) {
	args := m.Called(ctx, owner, repo, number, opts)
	var files []*github.CommitFile
	if args.Get(0) != nil {
		files = args.Get(0).([]*github.CommitFile)
	}
	return files, getResponse(args.Get(1)), args.Error(2)
}

func (m *MockPullRequestsService) CreateReview(ctx context.Context, owner, repo string, number int, review *github.PullRequestReviewRequest) (*github.PullRequestReview, *github.Response, error) {
	args := m.Called(ctx, owner, repo, number, review)
	var created *github.PullRequestReview
	if args.Get(0) != nil {
		created = args.Get(0).(*github.PullRequestReview)
	}
	return created, getResponse(args.Get(1)), args.Error(2)
}

func (m *MockPullRequestsService) CreateComment(ctx context.Context, owner, repo string, number int, comment *github.PullRequestComment) (*github.PullRequestComment, *github.Response, error) {
	args := m.Called(ctx, owner, repo, number, comment)
	var created *github.PullRequestComment
	if args.Get(0) != nil {
		created = args.Get(0).(*github.PullRequestComment)
	}
	return created, getResponse(args.Get(1)), args.Error(2)
}

type MockIssuesService struct {
	mock.Mock
}

func (m *MockIssuesService) CreateComment(ctx context.Context, owner, repo string, number int, comment *github.IssueComment) (*github.IssueComment, *github.Response, error) {
	args := m.Called(ctx, owner, repo, number, comment)
	var created *github.IssueComment
	if args.Get(0) != nil {
		created = args.Get(0).(*github.IssueComment)
	}
	return created, getResponse(args.Get(1)), args.Error(2)
}

type MockRepositoriesService struct {
	mock.Mock
}

func (m *MockRepositoriesService) GetContents(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentGetOptions) (*github.RepositoryContent, []*github.RepositoryContent, *github.Response, error) {
	args := m.Called(ctx, owner, repo, path, opts)
	var file *github.RepositoryContent
	if args.Get(0) != nil {
		file = args.Get(0).(*github.RepositoryContent)
	}
	var dir []*github.RepositoryContent
	if args.Get(1) != nil {
		dir = args.Get(1).([]*github.RepositoryContent)
	}
	return file, dir, getResponse(args.Get(2)), args.Error(3)
}

type MockUsersService struct {
	mock.Mock
}

func (m *MockUsersService) Get(ctx context.Context, user string) (*github.User, *github.Response, error) {
	args := m.Called(ctx, user)
	var u *github.User
	if args.Get(0) != nil {
		u = args.Get(0).(*github.User)
	}
	return u, getResponse(args.Get(1)), args.Error(2)
}

func getResponse(v any) *github.Response {
	if v == nil {
		return nil
	}
	return v.(*github.Response)
}
