package diff

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/sprite-ai/triage/internal/model"
)

const sampleDiff = `diff --git a/hello.go b/hello.go
new file mode 100644
index 0000000..e69de29
--- /dev/null
+++ b/hello.go
@@ -0,0 +1,11 @@
+package main
+
+import "fmt"
+
+func main() {
+	fmt.Println("hello")
+}
+
+func add(a, b int) int {
+	return a + b
+}
diff --git a/readme.md b/readme.md
index abc1234..def5678 100644
--- a/readme.md
+++ b/readme.md
@@ -1,3 +1,4 @@
 # Project

-Old description
+New description
+Added line
`

func TestParse(t *testing.T) {
	ds, err := Parse(sampleDiff)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if len(ds.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(ds.Files))
	}

	// First file: new file
	f0 := ds.Files[0]
	if !f0.IsNew {
		t.Error("expected hello.go to be new")
	}
	if f0.Name() != "hello.go" {
		t.Errorf("expected name 'hello.go', got %q", f0.Name())
	}
	if f0.AddedLines != 11 {
		t.Errorf("expected 11 added lines, got %d", f0.AddedLines)
	}

	// Second file: modified
	f1 := ds.Files[1]
	if f1.Name() != "readme.md" {
		t.Errorf("expected name 'readme.md', got %q", f1.Name())
	}
	if f1.AddedLines != 2 {
		t.Errorf("expected 2 added lines, got %d", f1.AddedLines)
	}
	if f1.DeletedLines != 1 {
		t.Errorf("expected 1 deleted line, got %d", f1.DeletedLines)
	}

	// Stats
	files, added, deleted := ds.Stats()
	if files != 2 {
		t.Errorf("stats: expected 2 files, got %d", files)
	}
	if added != 13 {
		t.Errorf("stats: expected 13 added, got %d", added)
	}
	if deleted != 1 {
		t.Errorf("stats: expected 1 deleted, got %d", deleted)
	}
}

func TestParseEmpty(t *testing.T) {
	ds, err := Parse("")
	if err != nil {
		t.Fatalf("Parse empty failed: %v", err)
	}
	if len(ds.Files) != 0 {
		t.Errorf("expected 0 files, got %d", len(ds.Files))
	}
}

const renameDeleteDiff = `diff --git a/src/old.ts b/src/new.ts
similarity index 90%
rename from src/old.ts
rename to src/new.ts
index 1111111..2222222 100644
--- a/src/old.ts
+++ b/src/new.ts
@@ -1,2 +1,2 @@
 export const a = 1
-export const b = 2
+export const b = 3
diff --git a/gone.txt b/gone.txt
deleted file mode 100644
index 3333333..0000000
--- a/gone.txt
+++ /dev/null
@@ -1,2 +0,0 @@
-one
-two
`

func TestChangedFiles(t *testing.T) {
	ds, err := Parse(sampleDiff)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := []model.ChangedFile{
		{Path: "hello.go", LinesAdded: 11, LinesChanged: 11},
		{Path: "readme.md", LinesAdded: 2, LinesDeleted: 1, LinesChanged: 3},
	}
	got := ds.ChangedFiles()
	if len(got) != len(want) {
		t.Fatalf("expected %d files, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("file %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
	if !got[0].IsNew() {
		t.Error("expected hello.go to count as new")
	}
}

func TestRenameAndDelete(t *testing.T) {
	ds, err := Parse(renameDeleteDiff)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(ds.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(ds.Files))
	}

	renamed := ds.Files[0]
	if !renamed.IsRenamed {
		t.Error("expected rename")
	}
	if renamed.Path() != "src/new.ts" {
		t.Errorf("rename path = %q, want src/new.ts", renamed.Path())
	}
	if renamed.Name() != "src/old.ts → src/new.ts" {
		t.Errorf("rename name = %q", renamed.Name())
	}

	deleted := ds.Files[1]
	if !deleted.IsDeleted || deleted.Path() != "gone.txt" {
		t.Errorf("deleted file = %+v", deleted)
	}

	files := ds.ChangedFiles()
	if files[1].LinesDeleted != 2 || files[1].LinesChanged != 2 {
		t.Errorf("deleted counts = %+v", files[1])
	}

	if ds.File("src/new.ts") != renamed {
		t.Error("File lookup by new path failed")
	}
	if ds.File("src/old.ts") != nil {
		t.Error("File lookup by old path of a rename should miss")
	}
}

func TestGitDiff(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=t", "GIT_AUTHOR_EMAIL=t@example.com",
			"GIT_COMMITTER_NAME=t", "GIT_COMMITTER_EMAIL=t@example.com",
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	run("init", "-q")
	write("a.txt", "one\n")
	run("add", ".")
	run("commit", "-q", "-m", "first")
	write("a.txt", "one\ntwo\n")
	run("commit", "-q", "-am", "second")

	ctx := context.Background()
	raw, err := GitDiffHead(ctx, dir, 3)
	if err != nil {
		t.Fatalf("GitDiffHead: %v", err)
	}
	ds, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	files := ds.ChangedFiles()
	if len(files) != 1 || files[0].Path != "a.txt" || files[0].LinesAdded != 1 {
		t.Errorf("unexpected change set: %+v", files)
	}

	root, err := RepoRoot(ctx, dir)
	if err != nil {
		t.Fatalf("RepoRoot: %v", err)
	}
	if root == "" {
		t.Error("expected repository root")
	}

	if _, err := GitDiffRange(ctx, dir, "nope...HEAD", 3); err == nil {
		t.Error("expected error for unknown revision")
	}
}
