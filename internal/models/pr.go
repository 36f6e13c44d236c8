package models

import "time"

// ChangeType describes what happened to a file within a pull request.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeDeleted  ChangeType = "deleted"
	ChangeRenamed  ChangeType = "renamed"
)

// PRStatus is the provider-normalized state of a pull request.
type PRStatus string

const (
	PRStatusOpen   PRStatus = "open"
	PRStatusClosed PRStatus = "closed"
	PRStatusMerged PRStatus = "merged"
	PRStatusDraft  PRStatus = "draft"
)

type (
	// FileChange is one changed file in a PR, as reported by the provider.
	// Adapters construct it once; nothing downstream mutates it.
	FileChange struct {
		Path       string     `json:"path"`
		ChangeType ChangeType `json:"change_type"`
		Additions  int        `json:"additions"`
		Deletions  int        `json:"deletions"`
		Diff       string     `json:"diff,omitempty"`
		// OldPath is set only for renamed files.
		OldPath string `json:"old_path,omitempty"`
	}

	// PRInfo is the provider-agnostic view of a pull request. It is owned by
	// the adapter that fetched it and read-only to the orchestrator.
	PRInfo struct {
		ID           string         `json:"id"`
		Title        string         `json:"title"`
		Description  string         `json:"description"`
		Author       string         `json:"author"`
		Status       PRStatus       `json:"status"`
		SourceBranch string         `json:"source_branch"`
		TargetBranch string         `json:"target_branch"`
		CreatedAt    time.Time      `json:"created_at"`
		UpdatedAt    time.Time      `json:"updated_at"`
		FileChanges  []FileChange   `json:"file_changes"`
		URL          string         `json:"url"`
		RawData      map[string]any `json:"raw_data,omitempty"`
	}

	// ReviewComment is one positioned comment in a batched review.
	ReviewComment struct {
		FilePath   string `json:"file_path"`
		LineNumber int    `json:"line_number"`
		Body       string `json:"body"`
	}
)
