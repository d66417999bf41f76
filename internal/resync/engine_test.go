package resync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"go.uber.org/mock/gomock"

	"annoloom/internal/fileaccess"
	"annoloom/internal/storage"
	"annoloom/internal/storage/mocks"
)

type fixture struct {
	root   string
	files  *fileaccess.Accessor
	repo   *storage.AnnotationRepo
	engine *Engine
}

func newFixture(t *testing.T, opts ...EngineOption) *fixture {
	t.Helper()
	root := t.TempDir()

	files, err := fileaccess.New(root)
	if err != nil {
		t.Fatalf("fileaccess.New() error = %v", err)
	}

	db, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	ws, err := storage.NewWorkspaceRepo(db).GetOrCreateByKey(context.Background(), root, root)
	if err != nil {
		t.Fatalf("GetOrCreateByKey() error = %v", err)
	}
	repo := storage.NewAnnotationRepo(db, ws.ID)

	return &fixture{
		root:   root,
		files:  files,
		repo:   repo,
		engine: NewEngine(files, repo, opts...),
	}
}

func (f *fixture) write(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(f.root, name), []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func (f *fixture) insert(t *testing.T, a storage.Annotation) {
	t.Helper()
	if err := f.repo.Insert(context.Background(), &a); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
}

func (f *fixture) get(t *testing.T, id string) *storage.Annotation {
	t.Helper()
	a, err := f.repo.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get(%q) error = %v", id, err)
	}
	return a
}

func (f *fixture) resync(t *testing.T, path string, opts Options) Result {
	t.Helper()
	res, err := f.engine.Resync(context.Background(), path, opts)
	if err != nil {
		t.Fatalf("Resync() error = %v", err)
	}
	return res
}

const stamp = "2024-01-01T00:00:00Z"

func annotation(id, file string, start, end int, text string) storage.Annotation {
	return storage.Annotation{
		ID:           id,
		FilePath:     file,
		StartLine:    start,
		EndLine:      end,
		SelectedText: text,
		CreatedAt:    stamp,
		UpdatedAt:    stamp,
	}
}

func TestResync_NoAnnotations(t *testing.T) {
	f := newFixture(t)

	res := f.resync(t, "missing.txt", Options{RemoveBroken: true})
	if res.Checked != 0 || len(res.UpdatedIDs)+len(res.DeletedIDs)+len(res.SkippedIDs) != 0 {
		t.Errorf("Resync() = %+v, want empty result", res)
	}
	if res.UpdatedIDs == nil || res.DeletedIDs == nil || res.SkippedIDs == nil {
		t.Errorf("Resync() id lists must be empty, not nil: %+v", res)
	}
}

func TestResync_UnchangedIsUntouched(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.txt", "alpha\nbeta gamma\ndelta\n")

	a := annotation("a1", "a.txt", 2, 2, "gamma")
	a.StartColumn, a.EndColumn = intp(6), intp(11)
	f.insert(t, a)

	res := f.resync(t, "a.txt", Options{RemoveBroken: true})
	if res.Checked != 1 || res.Updated+res.Deleted+res.Skipped != 0 {
		t.Errorf("Resync() = %+v, want checked only", res)
	}

	got := f.get(t, "a1")
	if got.UpdatedAt != stamp || got.FileDigest != nil {
		t.Errorf("unchanged annotation was rewritten: %+v", got)
	}
}

func TestResync_PureRelocation(t *testing.T) {
	f := newFixture(t)
	const k = 3
	f.write(t, "a.txt", "x\nnew line 1\nnew line 2\nnew line 3\nfirst\nsecond\n")

	// Originally "x\nfirst\nsecond\n" with the selection on lines 2-3.
	a := annotation("a1", "a.txt", 2, 3, "first\nsecond")
	a.StartColumn, a.EndColumn = intp(1), intp(7)
	f.insert(t, a)

	res := f.resync(t, "a.txt", Options{RemoveBroken: true})
	if res.Updated != 1 || !slices.Equal(res.UpdatedIDs, []string{"a1"}) {
		t.Fatalf("Resync() = %+v, want a1 updated", res)
	}

	got := f.get(t, "a1")
	if got.StartLine != 2+k || got.EndLine != 3+k {
		t.Errorf("lines = %d-%d, want %d-%d", got.StartLine, got.EndLine, 2+k, 3+k)
	}
	if *got.StartColumn != 1 || *got.EndColumn != 7 {
		t.Errorf("columns = %d-%d, want 1-7", *got.StartColumn, *got.EndColumn)
	}
	if got.UpdatedAt == stamp {
		t.Error("UpdatedAt not refreshed")
	}

	full, err := f.files.ReadFull("a.txt")
	if err != nil {
		t.Fatalf("ReadFull() error = %v", err)
	}
	if got.FileDigest == nil || *got.FileDigest != full.Digest {
		t.Errorf("FileDigest = %v, want %v", got.FileDigest, full.Digest)
	}

	// A second pass over the same content is a no-op.
	again := f.resync(t, "a.txt", Options{RemoveBroken: true})
	if again.Checked != 1 || again.Updated+again.Deleted+again.Skipped != 0 {
		t.Errorf("second Resync() = %+v, want checked only", again)
	}
}

func TestResync_NeverIntroducesColumns(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.txt", "pad\npad\ntarget text\n")
	f.insert(t, annotation("a1", "a.txt", 1, 1, "target"))

	res := f.resync(t, "a.txt", Options{RemoveBroken: true})
	if res.Updated != 1 {
		t.Fatalf("Resync() = %+v, want 1 updated", res)
	}

	got := f.get(t, "a1")
	if got.StartLine != 3 || got.StartColumn != nil || got.EndColumn != nil {
		t.Errorf("Resync() annotation = line %d cols %v/%v, want line 3 without columns",
			got.StartLine, got.StartColumn, got.EndColumn)
	}
}

func TestResync_PartialLineWithoutColumnsStabilizes(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.txt", "pad\npad\ntarget text\n")
	f.insert(t, annotation("a1", "a.txt", 3, 3, "target"))

	for pass := 0; pass < 3; pass++ {
		res := f.resync(t, "a.txt", Options{RemoveBroken: true})
		if res.Checked != 1 || res.Updated+res.Deleted+res.Skipped != 0 {
			t.Errorf("pass %d: Resync() = %+v, want checked only", pass, res)
		}
	}

	got := f.get(t, "a1")
	if got.UpdatedAt != stamp {
		t.Errorf("UpdatedAt = %v, want untouched %v", got.UpdatedAt, stamp)
	}
}

func TestResync_CRLFSelection(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		startLine int
		wantLine  int
		wantMoved bool
	}{
		{name: "in place", content: "one\r\ntwo\r\nthree\r\n", startLine: 1, wantLine: 1},
		{name: "shifted", content: "zero\r\none\r\ntwo\r\nthree\r\n", startLine: 1, wantLine: 2, wantMoved: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.write(t, "a.txt", tt.content)

			a := annotation("a1", "a.txt", tt.startLine, tt.startLine+1, "one\r\ntwo")
			a.StartColumn, a.EndColumn = intp(1), intp(4)
			f.insert(t, a)

			res := f.resync(t, "a.txt", Options{RemoveBroken: true})
			if tt.wantMoved != (res.Updated == 1) || res.Deleted+res.Skipped != 0 {
				t.Fatalf("Resync() = %+v, moved want %v", res, tt.wantMoved)
			}
			if got := f.get(t, "a1"); got.StartLine != tt.wantLine || got.EndLine != tt.wantLine+1 {
				t.Errorf("lines = %d-%d, want %d-%d", got.StartLine, got.EndLine, tt.wantLine, tt.wantLine+1)
			}

			again := f.resync(t, "a.txt", Options{RemoveBroken: true})
			if again.Updated+again.Deleted+again.Skipped != 0 {
				t.Errorf("second Resync() = %+v, want checked only", again)
			}
		})
	}
}

func TestResync_LostSelection(t *testing.T) {
	tests := []struct {
		name         string
		removeBroken bool
		wantDeleted  int
		wantSkipped  int
	}{
		{name: "deleted when removing broken", removeBroken: true, wantDeleted: 1},
		{name: "skipped otherwise", removeBroken: false, wantSkipped: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.write(t, "a.txt", "three\nfour\n")
			f.insert(t, annotation("a1", "a.txt", 1, 2, "one\ntwo"))

			res := f.resync(t, "a.txt", Options{RemoveBroken: tt.removeBroken})
			if res.Checked != 1 || res.Deleted != tt.wantDeleted || res.Skipped != tt.wantSkipped || res.Updated != 0 {
				t.Errorf("Resync() = %+v", res)
			}

			_, err := f.repo.Get(context.Background(), "a1")
			if tt.removeBroken && !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("Get() error = %v, want ErrNotFound", err)
			}
			if !tt.removeBroken && err != nil {
				t.Errorf("Get() error = %v, want record kept", err)
			}
		})
	}
}

func TestResync_EmptySelectionGuard(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		for _, removeBroken := range []bool{true, false} {
			f := newFixture(t)
			f.write(t, "a.txt", "   \n\n\t\n")
			f.insert(t, annotation("a1", "a.txt", 1, 1, text))

			res := f.resync(t, "a.txt", Options{RemoveBroken: removeBroken})
			if res.Updated != 0 {
				t.Errorf("text %q: Resync() updated = %d, want 0", text, res.Updated)
			}
			if removeBroken && res.Deleted != 1 {
				t.Errorf("text %q: Resync() deleted = %d, want 1", text, res.Deleted)
			}
			if !removeBroken && res.Skipped != 1 {
				t.Errorf("text %q: Resync() skipped = %d, want 1", text, res.Skipped)
			}
		}
	}
}

func TestResync_BoundaryAnchoring(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.go", "// header\nfunc a() {\n\tx := 2\n}\n")

	a := annotation("a1", "a.go", 1, 3, "func a() {\n\tx := 1\n}")
	a.StartColumn, a.EndColumn = intp(1), intp(2)
	f.insert(t, a)

	res := f.resync(t, "a.go", Options{RemoveBroken: true})
	if res.Updated != 1 {
		t.Fatalf("Resync() = %+v, want 1 updated", res)
	}

	got := f.get(t, "a1")
	if got.StartLine != 2 || got.EndLine != 4 || *got.StartColumn != 1 || *got.EndColumn != 2 {
		t.Errorf("span = %d:%d-%d:%d, want 2:1-4:2", got.StartLine, *got.StartColumn, got.EndLine, *got.EndColumn)
	}
	if got.SelectedText != "func a() {\n\tx := 1\n}" {
		t.Errorf("SelectedText changed to %q", got.SelectedText)
	}
}

func TestResync_MultiByteColumns(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.txt", "intro\nñandú y wörld\n")

	a := annotation("a1", "a.txt", 1, 1, "wörld")
	a.StartColumn, a.EndColumn = intp(7), intp(12)
	f.insert(t, a)

	res := f.resync(t, "a.txt", Options{RemoveBroken: true})
	if res.Updated != 1 {
		t.Fatalf("Resync() = %+v, want 1 updated", res)
	}

	got := f.get(t, "a1")
	if got.StartLine != 2 || *got.StartColumn != 9 || *got.EndColumn != 14 {
		t.Errorf("span = line %d cols %d-%d, want line 2 cols 9-14", got.StartLine, *got.StartColumn, *got.EndColumn)
	}
}

func TestResync_ClosestOccurrence(t *testing.T) {
	content := "l1\ndup\nl3\nl4\nl5\nl6\ndup\nl8\nl9\nl10\ndup\n"

	tests := []struct {
		name      string
		startLine int
		wantLine  int
	}{
		{name: "nearest after", startLine: 10, wantLine: 11},
		{name: "nearest before", startLine: 3, wantLine: 2},
		{name: "tie goes to earliest", startLine: 9, wantLine: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.write(t, "a.txt", content)
			f.insert(t, annotation("a1", "a.txt", tt.startLine, tt.startLine, "dup"))

			f.resync(t, "a.txt", Options{RemoveBroken: true})
			if got := f.get(t, "a1").StartLine; got != tt.wantLine {
				t.Errorf("StartLine = %d, want %d", got, tt.wantLine)
			}
		})
	}
}

func TestResync_FullFileFallback(t *testing.T) {
	content := "needle here\n"
	for i := 0; i < 30; i++ {
		content = "filler\n" + content
	}

	tests := []struct {
		name        string
		opts        Options
		wantUpdated int
		wantDeleted int
	}{
		{name: "found outside the window", opts: Options{Window: 2, RemoveBroken: true}, wantUpdated: 1},
		{name: "fallback disabled by ceiling", opts: Options{Window: 2, FullLimitBytes: 16, RemoveBroken: true}, wantDeleted: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.write(t, "a.txt", content)
			f.insert(t, annotation("a1", "a.txt", 1, 1, "needle"))

			res := f.resync(t, "a.txt", tt.opts)
			if res.Updated != tt.wantUpdated || res.Deleted != tt.wantDeleted {
				t.Fatalf("Resync() = %+v", res)
			}
			if tt.wantUpdated == 1 {
				if got := f.get(t, "a1").StartLine; got != 31 {
					t.Errorf("StartLine = %d, want 31", got)
				}
			}
		})
	}
}

func TestResync_RestrictedToIDs(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.txt", "nothing matches\n")
	f.insert(t, annotation("a1", "a.txt", 1, 1, "gone"))
	f.insert(t, annotation("a2", "a.txt", 1, 1, "also gone"))

	res := f.resync(t, "a.txt", Options{RemoveBroken: true, IDs: []string{"a2", "unknown"}})
	if res.Checked != 1 || !slices.Equal(res.DeletedIDs, []string{"a2"}) {
		t.Errorf("Resync() = %+v, want only a2 deleted", res)
	}

	if _, err := f.repo.Get(context.Background(), "a1"); err != nil {
		t.Errorf("Get(a1) error = %v, want record kept", err)
	}
}

func TestResync_FileKey(t *testing.T) {
	f := newFixture(t, WithFileKey(func(p string) string { return "web/" + p }))
	f.write(t, "a.txt", "pad\nhello\n")
	f.insert(t, annotation("a1", "web/a.txt", 1, 1, "hello"))

	res := f.resync(t, "a.txt", Options{RemoveBroken: true})
	if res.Updated != 1 {
		t.Fatalf("Resync() = %+v, want 1 updated", res)
	}
	if got := f.get(t, "a1").StartLine; got != 2 {
		t.Errorf("StartLine = %d, want 2", got)
	}
}

func TestResync_MissingFile(t *testing.T) {
	f := newFixture(t)
	f.insert(t, annotation("a1", "gone.txt", 1, 1, "text"))

	res := f.resync(t, "gone.txt", Options{RemoveBroken: false})
	if res.Skipped != 1 {
		t.Errorf("Resync() = %+v, want 1 skipped", res)
	}
}

func TestResync_StoreFailures(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("pad\nmoved\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	files, err := fileaccess.New(root)
	if err != nil {
		t.Fatalf("fileaccess.New() error = %v", err)
	}

	ctrl := gomock.NewController(t)
	store := mocks.NewMockAnnotationStore(ctrl)

	store.EXPECT().ListByFile(gomock.Any(), "a.txt").Return([]storage.Annotation{
		annotation("relocate", "a.txt", 1, 1, "moved"),
		annotation("broken", "a.txt", 1, 1, "vanished"),
	}, nil)
	store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
	store.EXPECT().Delete(gomock.Any(), "broken").Return(errors.New("disk full"))

	res, err := NewEngine(files, store).Resync(context.Background(), "a.txt", Options{RemoveBroken: true})
	if err != nil {
		t.Fatalf("Resync() error = %v", err)
	}
	if res.Checked != 2 || res.Skipped != 2 || res.Updated != 0 || res.Deleted != 0 {
		t.Errorf("Resync() = %+v, want 2 checked and skipped", res)
	}
	if !slices.Equal(res.SkippedIDs, []string{"relocate", "broken"}) {
		t.Errorf("SkippedIDs = %v", res.SkippedIDs)
	}
}

func TestResync_ListFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockAnnotationStore(ctrl)
	store.EXPECT().ListByFile(gomock.Any(), "a.txt").Return(nil, errors.New("db closed"))

	if _, err := NewEngine(nil, store).Resync(context.Background(), "a.txt", Options{}); err == nil {
		t.Error("Resync() expected error, got nil")
	}
}
