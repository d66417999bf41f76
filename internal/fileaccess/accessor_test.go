package fileaccess

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestAccessor(t *testing.T, files map[string]string, opts ...Option) (*Accessor, string) {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
	a, err := New(root, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a, root
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	_ = os.WriteFile(file, []byte("x"), 0644)

	tests := []struct {
		name     string
		root     string
		wantCode Code
	}{
		{name: "directory", root: dir},
		{name: "empty root", root: "", wantCode: CodeInvalidPath},
		{name: "missing root", root: filepath.Join(dir, "missing"), wantCode: CodeNotFound},
		{name: "file root", root: file, wantCode: CodeNotAFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(tt.root)
			if tt.wantCode != "" {
				if CodeOf(err) != tt.wantCode {
					t.Errorf("New() code = %v, want %v (err = %v)", CodeOf(err), tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() unexpected error: %v", err)
			}
			if !filepath.IsAbs(a.Root()) {
				t.Errorf("Root() = %v, want absolute path", a.Root())
			}
		})
	}
}

func TestAccessor_ReadChunk(t *testing.T) {
	a, _ := newTestAccessor(t, map[string]string{
		"a.txt":       "one\ntwo\nthree\nfour\nfive\n",
		"crlf.txt":    "alpha\r\nbeta\r\n",
		"noeol.txt":   "x\ny",
		"empty.txt":   "",
		"bin.dat":     "abc\x00def",
		"latin1.txt":  "caf\xe9\n",
		"src/main.go": "package main\n",
	})

	tests := []struct {
		name      string
		path      string
		start     int
		max       int
		want      Chunk
		wantCode  Code
		checkPath bool
	}{
		{
			name:  "middle window",
			path:  "a.txt",
			start: 2,
			max:   2,
			want:  Chunk{TotalLines: 5, StartLine: 2, EndLine: 3, Content: "two\nthree"},
		},
		{
			name:  "window past end",
			path:  "a.txt",
			start: 4,
			max:   10,
			want:  Chunk{TotalLines: 5, StartLine: 4, EndLine: 5, Content: "four\nfive"},
		},
		{
			name:  "start below one clamps",
			path:  "a.txt",
			start: -3,
			max:   1,
			want:  Chunk{TotalLines: 5, StartLine: 1, EndLine: 1, Content: "one"},
		},
		{
			name:  "start beyond total",
			path:  "a.txt",
			start: 9,
			max:   2,
			want:  Chunk{TotalLines: 5, StartLine: 9, EndLine: 5, Content: ""},
		},
		{
			name:  "crlf stripped",
			path:  "crlf.txt",
			start: 1,
			max:   5,
			want:  Chunk{TotalLines: 2, StartLine: 1, EndLine: 2, Content: "alpha\nbeta"},
		},
		{
			name:  "no trailing newline",
			path:  "noeol.txt",
			start: 1,
			max:   5,
			want:  Chunk{TotalLines: 2, StartLine: 1, EndLine: 2, Content: "x\ny"},
		},
		{
			name:  "empty file",
			path:  "empty.txt",
			start: 1,
			max:   5,
			want:  Chunk{TotalLines: 0, StartLine: 1, EndLine: 0, Content: ""},
		},
		{
			name:      "nested path and language",
			path:      "src/main.go",
			start:     1,
			max:       1,
			want:      Chunk{Path: "src/main.go", Language: "go", TotalLines: 1, StartLine: 1, EndLine: 1, Content: "package main"},
			checkPath: true,
		},
		{name: "nul byte", path: "bin.dat", start: 1, max: 1, wantCode: CodeNonText},
		{name: "invalid utf8", path: "latin1.txt", start: 1, max: 1, wantCode: CodeNonText},
		{name: "missing", path: "nope.txt", start: 1, max: 1, wantCode: CodeNotFound},
		{name: "directory", path: "src", start: 1, max: 1, wantCode: CodeNotAFile},
		{name: "traversal", path: "../etc/passwd", start: 1, max: 1, wantCode: CodeInvalidPath},
		{name: "empty path", path: "  ", start: 1, max: 1, wantCode: CodeInvalidPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.ReadChunk(tt.path, tt.start, tt.max)
			if tt.wantCode != "" {
				if CodeOf(err) != tt.wantCode {
					t.Errorf("ReadChunk() code = %v, want %v (err = %v)", CodeOf(err), tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadChunk() unexpected error: %v", err)
			}
			if got.TotalLines != tt.want.TotalLines || got.StartLine != tt.want.StartLine ||
				got.EndLine != tt.want.EndLine || got.Content != tt.want.Content {
				t.Errorf("ReadChunk() = %+v, want %+v", *got, tt.want)
			}
			if got.Truncated {
				t.Errorf("ReadChunk() truncated = true for a small file")
			}
			if tt.checkPath && (got.Path != tt.want.Path || got.Language != tt.want.Language) {
				t.Errorf("ReadChunk() path/language = %v/%v, want %v/%v", got.Path, got.Language, tt.want.Path, tt.want.Language)
			}
		})
	}
}

func TestAccessor_ReadChunk_Truncation(t *testing.T) {
	line := strings.Repeat("a", 1023) + "\n"
	// ~2.5 MiB: above the soft ceiling, below the hard one.
	soft := strings.Repeat(line, 2560)
	// ~5.5 MiB: above the hard ceiling.
	hard := strings.Repeat(line, 5632)

	a, _ := newTestAccessor(t, map[string]string{"soft.txt": soft, "hard.txt": hard})

	tests := []struct {
		name          string
		path          string
		start, max    int
		wantTruncated bool
	}{
		{name: "soft, window stops early", path: "soft.txt", start: 1, max: 10, wantTruncated: true},
		{name: "soft, window reaches end", path: "soft.txt", start: 2550, max: 100, wantTruncated: false},
		{name: "hard, window reaches end", path: "hard.txt", start: 5600, max: 100, wantTruncated: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.ReadChunk(tt.path, tt.start, tt.max)
			if err != nil {
				t.Fatalf("ReadChunk() unexpected error: %v", err)
			}
			if got.Truncated != tt.wantTruncated {
				t.Errorf("ReadChunk() truncated = %v, want %v", got.Truncated, tt.wantTruncated)
			}
		})
	}
}

func TestAccessor_ReadFull(t *testing.T) {
	a, _ := newTestAccessor(t, map[string]string{
		"a.txt":   "héllo\n",
		"big.txt": strings.Repeat("x", 64),
		"bin.dat": "\x00",
	}, WithFullReadLimit(32))

	got, err := a.ReadFull("a.txt")
	if err != nil {
		t.Fatalf("ReadFull() unexpected error: %v", err)
	}
	if got.Content != "héllo\n" || got.Size != int64(len("héllo\n")) {
		t.Errorf("ReadFull() = %+v", got)
	}
	if got.Digest != Digest([]byte("héllo\n")) {
		t.Errorf("ReadFull() digest = %v, want %v", got.Digest, Digest([]byte("héllo\n")))
	}

	if _, err := a.ReadFull("big.txt"); !errors.Is(err, ErrOverLimit) {
		t.Errorf("ReadFull() over limit error = %v, want ErrOverLimit", err)
	}
	if _, err := a.ReadFull("bin.dat"); !errors.Is(err, ErrNonText) {
		t.Errorf("ReadFull() binary error = %v, want ErrNonText", err)
	}
}

func TestAccessor_Write(t *testing.T) {
	original := "line one\nline two\n"

	tests := []struct {
		name         string
		expected     func(current string) string
		wantConflict bool
	}{
		{name: "no digest", expected: func(string) string { return "" }},
		{name: "matching digest", expected: func(current string) string { return current }},
		{name: "stale digest", expected: func(string) string { return Digest([]byte("something else")) }, wantConflict: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, root := newTestAccessor(t, map[string]string{"f.txt": original})
			current := Digest([]byte(original))

			newDigest, err := a.Write("f.txt", "updated\n", tt.expected(current))

			if tt.wantConflict {
				var fe *Error
				if !errors.As(err, &fe) || fe.Code != CodeConflict {
					t.Fatalf("Write() error = %v, want conflict", err)
				}
				if fe.CurrentDigest != current {
					t.Errorf("Write() conflict digest = %v, want %v", fe.CurrentDigest, current)
				}
				data, _ := os.ReadFile(filepath.Join(root, "f.txt"))
				if string(data) != original {
					t.Errorf("Write() modified file on conflict: %q", data)
				}
				return
			}

			if err != nil {
				t.Fatalf("Write() unexpected error: %v", err)
			}
			full, err := a.ReadFull("f.txt")
			if err != nil {
				t.Fatalf("ReadFull() unexpected error: %v", err)
			}
			if full.Content != "updated\n" || full.Digest != newDigest {
				t.Errorf("after Write() content = %q digest = %v, want %q %v", full.Content, full.Digest, "updated\n", newDigest)
			}

			entries, _ := os.ReadDir(root)
			for _, e := range entries {
				if strings.Contains(e.Name(), ".tmp-") {
					t.Errorf("Write() left temp file %s", e.Name())
				}
			}
		})
	}
}

func TestAccessor_Write_Errors(t *testing.T) {
	a, _ := newTestAccessor(t, map[string]string{"dir/f.txt": "x"})

	if _, err := a.Write("dir", "x", ""); CodeOf(err) != CodeNotAFile {
		t.Errorf("Write(dir) code = %v, want %v", CodeOf(err), CodeNotAFile)
	}
	if _, err := a.Write("missing.txt", "x", ""); CodeOf(err) != CodeNotFound {
		t.Errorf("Write(missing) code = %v, want %v", CodeOf(err), CodeNotFound)
	}
	if _, err := a.Write("../x.txt", "x", ""); CodeOf(err) != CodeInvalidPath {
		t.Errorf("Write(traversal) code = %v, want %v", CodeOf(err), CodeInvalidPath)
	}
}

func TestAccessor_SymlinkEscape(t *testing.T) {
	outside := t.TempDir()
	secret := filepath.Join(outside, "secret.txt")
	if err := os.WriteFile(secret, []byte("secret"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	a, root := newTestAccessor(t, map[string]string{"ok.txt": "ok"})
	if err := os.Symlink(secret, filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "ok.txt"), filepath.Join(root, "inner.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	if _, err := a.ReadFull("link.txt"); CodeOf(err) != CodeInvalidPath {
		t.Errorf("ReadFull(escaping link) code = %v, want %v", CodeOf(err), CodeInvalidPath)
	}
	if _, err := a.ReadFull(secret); CodeOf(err) != CodeInvalidPath {
		t.Errorf("ReadFull(absolute outside) code = %v, want %v", CodeOf(err), CodeInvalidPath)
	}
	if got, err := a.ReadFull("inner.txt"); err != nil || got.Content != "ok" {
		t.Errorf("ReadFull(inner link) = %v, %v", got, err)
	}
}

func TestTrimPartialRune(t *testing.T) {
	euro := []byte("€") // 3 bytes

	tests := []struct {
		name string
		in   []byte
		want int
	}{
		{name: "ascii", in: []byte("abc"), want: 3},
		{name: "complete rune", in: append([]byte("a"), euro...), want: 4},
		{name: "cut after one byte", in: append([]byte("a"), euro[:1]...), want: 1},
		{name: "cut after two bytes", in: append([]byte("a"), euro[:2]...), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := trimPartialRune(tt.in); len(got) != tt.want {
				t.Errorf("trimPartialRune() len = %v, want %v", len(got), tt.want)
			}
		})
	}
}

func TestLanguage(t *testing.T) {
	tests := map[string]string{
		"main.go":        "go",
		"src/App.TSX":    "typescript",
		"README.md":      "markdown",
		"Makefile":       "plaintext",
		"data.unknownxt": "plaintext",
	}
	for path, want := range tests {
		if got := Language(path); got != want {
			t.Errorf("Language(%q) = %v, want %v", path, got, want)
		}
	}
}
