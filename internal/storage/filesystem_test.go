package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestBuildCatalog_Missing(t *testing.T) {
	_, err := BuildCatalog(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrMediaDirectoryMissing) {
		t.Fatalf("expected ErrMediaDirectoryMissing, got %v", err)
	}
}

func TestBuildCatalog_NotADirectory(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "file.mp4")
	_, err := BuildCatalog(filepath.Join(dir, "file.mp4"))
	if !errors.Is(err, ErrMediaDirectoryMissing) {
		t.Fatalf("expected ErrMediaDirectoryMissing, got %v", err)
	}
}

func TestLookup_CaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "HELLO.mp4")

	cat, err := BuildCatalog(dir)
	if err != nil {
		t.Fatalf("BuildCatalog: %v", err)
	}

	for _, key := range []string{"hello", "Hello", "HELLO"} {
		a, ok := cat.Lookup(key)
		if !ok {
			t.Fatalf("Lookup(%q) not found", key)
		}
		if a.Name != "HELLO.mp4" {
			t.Errorf("Lookup(%q) name = %q, want original case HELLO.mp4", key, a.Name)
		}
		if a.Path != filepath.Join(dir, "HELLO.mp4") {
			t.Errorf("Lookup(%q) path = %q", key, a.Path)
		}
		if a.Kind != KindVideo {
			t.Errorf("Lookup(%q) kind = %v, want video", key, a.Kind)
		}
	}
}

func TestLookup_ExtensionPriority(t *testing.T) {
	tests := []struct {
		files   []string
		wantExt string
		kind    Kind
	}{
		{[]string{"cat.mp4", "cat.png"}, ".mp4", KindVideo},
		{[]string{"cat.jpeg", "cat.png", "cat.jpg"}, ".png", KindImage},
		{[]string{"cat.jpeg", "cat.jpg"}, ".jpg", KindImage},
		{[]string{"CAT.JPEG"}, ".jpeg", KindImage},
	}

	for _, tt := range tests {
		dir := t.TempDir()
		touch(t, dir, tt.files...)
		cat, err := BuildCatalog(dir)
		if err != nil {
			t.Fatalf("BuildCatalog: %v", err)
		}
		a, ok := cat.Lookup("cat")
		if !ok {
			t.Fatalf("files %v: cat not found", tt.files)
		}
		if a.Ext != tt.wantExt || a.Kind != tt.kind {
			t.Errorf("files %v: got %s/%v, want %s/%v", tt.files, a.Ext, a.Kind, tt.wantExt, tt.kind)
		}
	}
}

func TestLookup_NotFound(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "dog.gif", "default_video.mp4")
	cat, err := BuildCatalog(dir)
	if err != nil {
		t.Fatalf("BuildCatalog: %v", err)
	}
	if _, ok := cat.Lookup("dog"); ok {
		t.Error("unsupported extension must not resolve")
	}
	if _, ok := cat.Lookup("default_video"); !ok {
		t.Error("default_video is an ordinary key too when asked for directly")
	}
}

func TestFallback(t *testing.T) {
	dir := t.TempDir()
	cat, err := BuildCatalog(dir)
	if err != nil {
		t.Fatalf("BuildCatalog: %v", err)
	}
	if _, ok := cat.Fallback(); ok {
		t.Fatal("empty directory must have no fallback")
	}

	touch(t, dir, "Default_Video.MP4")
	cat, err = BuildCatalog(dir)
	if err != nil {
		t.Fatalf("BuildCatalog: %v", err)
	}
	a, ok := cat.Fallback()
	if !ok {
		t.Fatal("fallback not found")
	}
	if a.Name != "Default_Video.MP4" || a.Kind != KindVideo {
		t.Errorf("fallback = %+v", a)
	}
}

func TestBuildCatalog_SkipsDirsKeepsDotfiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, ".hello.mp4", "b.png", "a.mp4")
	if err := os.Mkdir(filepath.Join(dir, "sub.mp4"), 0755); err != nil {
		t.Fatal(err)
	}
	cat, err := BuildCatalog(dir)
	if err != nil {
		t.Fatalf("BuildCatalog: %v", err)
	}
	if cat.Len() != 3 {
		t.Errorf("Len = %d, want 3", cat.Len())
	}
	files := cat.Files()
	if len(files) != 3 || files[0] != ".hello.mp4" || files[1] != "a.mp4" || files[2] != "b.png" {
		t.Errorf("Files = %v", files)
	}
	if a, ok := cat.Lookup(".hello"); !ok || a.Name != ".hello.mp4" {
		t.Errorf("Lookup(.hello) = %+v, %v", a, ok)
	}
	if _, ok := cat.Lookup("sub"); ok {
		t.Error("directories must not resolve")
	}
}

func TestSearch(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "cat.mp4", "cat.png", "Catch.jpg", "dog.png", "default_video.mp4", "notes.txt")
	cat, err := BuildCatalog(dir)
	if err != nil {
		t.Fatalf("BuildCatalog: %v", err)
	}

	got := cat.Search("CAT", 0)
	if len(got) != 2 {
		t.Fatalf("Search(CAT) = %v, want 2 results", got)
	}
	if got[0].Key != "cat" || got[0].Ext != ".mp4" {
		t.Errorf("first result = %+v, want cat.mp4", got[0])
	}
	if got[1].Key != "catch" {
		t.Errorf("second result = %+v, want catch", got[1])
	}

	if all := cat.Search("", 0); len(all) != 3 {
		t.Errorf("Search(\"\") = %d results, want 3 (fallback and non-assets excluded)", len(all))
	}
	if limited := cat.Search("", 1); len(limited) != 1 {
		t.Errorf("limit not applied: %d", len(limited))
	}
}

func TestMoveFile_ReplacesDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp4")
	dst := filepath.Join(dir, "out", "dst.mp4")
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("new"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "new" {
		t.Errorf("dst = %q, %v", data, err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("src should be gone")
	}
}

func TestMoveFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "dst.mp4")
	if err := MoveFile(filepath.Join(dir, "nope.mp4"), dst); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("dst must not be created")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("leftover files: %d", len(entries))
	}
}

func TestCopyToTemp(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp4")
	if err := os.WriteFile(src, []byte("video"), 0644); err != nil {
		t.Fatal(err)
	}
	tmp, err := copyToTemp(src, dir)
	if err != nil {
		t.Fatalf("copyToTemp: %v", err)
	}
	if filepath.Dir(tmp) != dir {
		t.Errorf("temp file in %s, want %s", filepath.Dir(tmp), dir)
	}
	data, _ := os.ReadFile(tmp)
	if string(data) != "video" {
		t.Errorf("copy = %q", data)
	}
}
