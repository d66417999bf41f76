package render

import (
	"strings"
	"testing"
)

func TestMarkdown_Render(t *testing.T) {
	m := NewMarkdown()

	tests := []struct {
		name     string
		source   string
		contains []string
		excludes []string
	}{
		{
			name:     "emphasis and code",
			source:   "Use **strict** mode and `go vet`",
			contains: []string{"<strong>strict</strong>", "<code>go vet</code>"},
		},
		{
			name:     "task list",
			source:   "- [ ] rename\n- [x] test",
			contains: []string{`type="checkbox"`, "rename"},
		},
		{
			name:     "bare links",
			source:   "see https://example.com/issue",
			contains: []string{`<a href="https://example.com/issue">`},
		},
		{
			name:     "raw html dropped",
			source:   "<script>alert(1)</script>\n\nok",
			contains: []string{"<p>ok</p>"},
			excludes: []string{"<script>"},
		},
		{
			name:     "hard wraps",
			source:   "first\nsecond",
			contains: []string{"first<br>"},
		},
		{
			name:   "empty",
			source: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Render(tt.source)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Render() = %q, want it to contain %q", got, want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("Render() = %q, must not contain %q", got, unwanted)
				}
			}
		})
	}
}
