package domain

import "time"

// Resource types.
const (
	ResourceTypeLink     = "link"
	ResourceTypeDocument = "document"
)

// Resource statuses (user-facing workflow, not ingest state).
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

// ResourceMeta is the canonical read-only projection of a resource from the
// relational store. Type-specific fields are empty for the other type.
type ResourceMeta struct {
	ResourceID int64
	Type       string
	Title      string
	Memo       string
	Status     string
	IsPinned   bool
	CreatedAt  time.Time

	// link-specific
	URL    string
	Domain string

	// document-specific
	FilePath string
	MimeType string
	FileSize *int64
	SHA256   string

	// canonical, de-duplicated
	Tags []string
}

// NewLink describes a link resource to be registered.
type NewLink struct {
	URL      string
	Title    string
	Memo     string
	Status   string
	IsPinned bool
	Tags     []string
}

// NewDocument describes a document resource to be registered. The file itself
// is already stored; only its metadata is recorded here.
type NewDocument struct {
	Title    string
	Memo     string
	Status   string
	IsPinned bool
	Tags     []string

	FilePath string
	MimeType string
	FileSize int64
	SHA256   string
	FileName string
}
