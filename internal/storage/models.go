package storage

// Priority values accepted for an annotation.
const (
	PriorityHigh   = "P0"
	PriorityMedium = "P1"
	PriorityLow    = "P2"

	DefaultPriority = PriorityMedium
)

// ValidPriority reports whether p is one of the known priorities.
func ValidPriority(p string) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Workspace is the scope every annotation belongs to.
type Workspace struct {
	ID        string // UUID
	Key       string // Stable external key, e.g. the repository root
	RootPath  string
	CreatedAt string // RFC3339
	UpdatedAt string // RFC3339
}

// Annotation is a comment pinned to a span of text in a file.
// Lines are 1-based and inclusive. Columns are 1-based character (not byte) offsets;
// EndColumn is exclusive. Nil columns mean "unspecified".
type Annotation struct {
	ID              string   `json:"id"`
	FilePath        string   `json:"filePath"`
	StartLine       int      `json:"startLine"`
	EndLine         int      `json:"endLine"`
	StartColumn     *int     `json:"startColumn,omitempty"`
	EndColumn       *int     `json:"endColumn,omitempty"`
	SelectedText    string   `json:"selectedText"`
	Comment         string   `json:"comment"`
	PreContextHash  *string  `json:"preContextHash,omitempty"`
	PostContextHash *string  `json:"postContextHash,omitempty"`
	FileDigest      *string  `json:"fileDigest,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Priority        string   `json:"priority,omitempty"`
	CreatedAt       string   `json:"createdAt"`
	UpdatedAt       string   `json:"updatedAt"`
}

// ImportResult counts the outcome of ImportMerge. Added+Updated+Skipped equals the input size.
type ImportResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}
