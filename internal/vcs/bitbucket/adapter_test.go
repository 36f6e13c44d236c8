package bitbucket

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	domainErrors "github.com/Tomas-vilte/MateReview/internal/errors"
	"github.com/Tomas-vilte/MateReview/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockHTTPClient struct {
	mock.Mock
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*http.Response), args.Error(1)
}

func jsonResponse(status int, body any) *http.Response {
	data, _ := json.Marshal(body)
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(bytes.NewReader(data)),
	}
}

func rawResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func urlMatcher(fragment string) any {
	return mock.MatchedBy(func(req *http.Request) bool {
		return strings.Contains(req.URL.String(), fragment)
	})
}

func newTestAdapter() (*Adapter, *MockHTTPClient) {
	client := new(MockHTTPClient)
	return NewAdapterWithClient("https://api.bitbucket.example.com", "user", "pass", client), client
}

func TestConnectSendsBasicAuth(t *testing.T) {
	adapter, client := newTestAdapter()
	client.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return strings.HasSuffix(req.URL.Path, "/2.0/user") &&
			strings.HasPrefix(req.Header.Get("Authorization"), "Basic ")
	})).Return(jsonResponse(200, map[string]string{"username": "user"}), nil).Once()

	require.NoError(t, adapter.Connect(context.Background()))
	require.NoError(t, adapter.Connect(context.Background()))
	client.AssertNumberOfCalls(t, "Do", 1)
}

func TestConnectBadCredentials(t *testing.T) {
	adapter, client := newTestAdapter()
	client.On("Do", mock.Anything).Return(jsonResponse(401, nil), nil)

	err := adapter.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, domainErrors.IsConnection(err))
}

func TestFetchPR(t *testing.T) {
	adapter, client := newTestAdapter()

	pr := map[string]any{
		"id":          9,
		"title":       "Refactor storage",
		"state":       "OPEN",
		"author":      map[string]string{"nickname": "dev"},
		"source":      map[string]any{"branch": map[string]string{"name": "refactor"}},
		"destination": map[string]any{"branch": map[string]string{"name": "main"}},
		"links":       map[string]any{"html": map[string]string{"href": "https://bitbucket.org/ws/repo/pull-requests/9"}},
	}
	diffstat := map[string]any{
		"values": []map[string]any{
			{
				"status":        "modified",
				"lines_added":   4,
				"lines_removed": 1,
				"new":           map[string]string{"path": "store.py"},
				"old":           map[string]string{"path": "store.py"},
			},
			{
				"status": "removed",
				"old":    map[string]string{"path": "legacy.py"},
			},
		},
	}

	client.On("Do", urlMatcher("/pullrequests/9/diffstat")).Return(jsonResponse(200, diffstat), nil)
	client.On("Do", urlMatcher("/pullrequests/9")).Return(jsonResponse(200, pr), nil)

	info, err := adapter.FetchPR(context.Background(), "ws/repo", 9)
	require.NoError(t, err)

	assert.Equal(t, "9", info.ID)
	assert.Equal(t, models.PRStatusOpen, info.Status)
	assert.Equal(t, "refactor", info.SourceBranch)
	require.Len(t, info.FileChanges, 2)
	assert.Equal(t, "store.py", info.FileChanges[0].Path)
	assert.Equal(t, 4, info.FileChanges[0].Additions)
	assert.Equal(t, models.ChangeDeleted, info.FileChanges[1].ChangeType)
	assert.Equal(t, "legacy.py", info.FileChanges[1].Path)
}

func TestFetchPRsMapsStateToUppercase(t *testing.T) {
	adapter, client := newTestAdapter()

	client.On("Do", urlMatcher("state=OPEN")).
		Return(jsonResponse(200, map[string]any{"values": []map[string]any{{"id": 1, "state": "OPEN"}}}), nil)
	client.On("Do", urlMatcher("/pullrequests/1/diffstat")).
		Return(jsonResponse(200, map[string]any{"values": []any{}}), nil)

	result, err := adapter.FetchPRs(context.Background(), "ws/repo", "open", 10)
	require.NoError(t, err)
	require.Len(t, result, 1)
}

func TestGetFileContentRaw(t *testing.T) {
	adapter, client := newTestAdapter()

	client.On("Do", urlMatcher("/src/feat/app.py")).
		Return(rawResponse(200, "print('hi')\n"), nil)

	content, err := adapter.GetFileContent(context.Background(), "ws/repo", "app.py", "feat")
	require.NoError(t, err)
	assert.Equal(t, "print('hi')\n", content)
}

func TestGetFileContentNotFound(t *testing.T) {
	adapter, client := newTestAdapter()
	client.On("Do", mock.Anything).Return(jsonResponse(404, nil), nil)

	_, err := adapter.GetFileContent(context.Background(), "ws/repo", "gone.py", "main")
	require.Error(t, err)
	assert.True(t, domainErrors.IsNotFound(err))
}

func TestPostCommentInline(t *testing.T) {
	adapter, client := newTestAdapter()

	client.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		if !strings.Contains(req.URL.Path, "/comments") || req.Method != http.MethodPost {
			return false
		}
		payload, _ := io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewReader(payload))
		var body struct {
			Inline struct {
				Path string `json:"path"`
				To   int    `json:"to"`
			} `json:"inline"`
		}
		_ = json.Unmarshal(payload, &body)
		return body.Inline.Path == "app.py" && body.Inline.To == 3
	})).Return(jsonResponse(201, map[string]any{
		"id":    5,
		"links": map[string]any{"html": map[string]string{"href": "https://bitbucket.org/ws/repo/pull-requests/9#comment-5"}},
	}), nil)

	url, err := adapter.PostComment(context.Background(), "ws/repo", 9, "fix this", "app.py", 3)
	require.NoError(t, err)
	assert.Contains(t, url, "#comment-5")
}

func TestCreateReviewEmulation(t *testing.T) {
	adapter, client := newTestAdapter()

	// each call needs a fresh response body
	for i := 0; i < 3; i++ {
		client.On("Do", urlMatcher("/comments")).
			Return(jsonResponse(201, map[string]any{"id": i + 1}), nil).Once()
	}

	comments := []models.ReviewComment{
		{FilePath: "a.py", LineNumber: 1, Body: "one"},
		{FilePath: "b.py", LineNumber: 2, Body: "two"},
		{FilePath: "c.py", LineNumber: 3, Body: "three"},
	}
	summary, err := adapter.CreateReview(context.Background(), "ws/repo", 9, comments, "COMMENT")
	require.NoError(t, err)
	assert.Equal(t, "Posted 3 comments", summary)
}
