package archive

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

type zipFile struct {
	name    string
	content string
	nonUTF8 bool
}

func makeZip(t *testing.T, files ...zipFile) string {
	t.Helper()

	zipPath := filepath.Join(t.TempDir(), "test.zip")
	out, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	for _, f := range files {
		fw, err := w.CreateHeader(&zip.FileHeader{Name: f.name, Method: zip.Deflate, NonUTF8: f.nonUTF8})
		if err != nil {
			t.Fatalf("Failed to create file %s in zip: %v", f.name, err)
		}
		if _, err := fw.Write([]byte(f.content)); err != nil {
			t.Fatalf("Failed to write content for %s: %v", f.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close zip writer: %v", err)
	}
	return zipPath
}

func TestWalk(t *testing.T) {
	zipPath := makeZip(t,
		zipFile{name: "icons/"},
		zipFile{name: "icons/a.png", content: "a"},
		zipFile{name: "icons/sub/b.png", content: "b"},
		zipFile{name: "other/c.png", content: "c"},
		zipFile{name: "Icons/d.png", content: "d"},
	)

	tests := []struct {
		prefix string
		want   []string
	}{
		{prefix: "", want: []string{"icons/a.png", "icons/sub/b.png", "other/c.png", "Icons/d.png"}},
		{prefix: "icons/", want: []string{"icons/a.png", "icons/sub/b.png"}},
		{prefix: "icons/sub/", want: []string{"icons/sub/b.png"}},
		{prefix: "missing/", want: nil},
	}

	for _, tt := range tests {
		t.Run("prefix "+tt.prefix, func(t *testing.T) {
			var visited []string
			err := Walk(zipPath, tt.prefix, func(archive string, f *zip.File) error {
				if archive != zipPath {
					t.Errorf("archive = %s, want %s", archive, zipPath)
				}
				visited = append(visited, f.Name)
				return nil
			})
			if err != nil {
				t.Fatalf("Walk() error = %v", err)
			}
			if !slices.Equal(visited, tt.want) {
				t.Errorf("visited = %v, want %v", visited, tt.want)
			}
		})
	}
}

func TestWalk_StopsOnError(t *testing.T) {
	zipPath := makeZip(t, zipFile{name: "a.png"}, zipFile{name: "b.png"})

	stop := errors.New("stop")
	count := 0
	err := Walk(zipPath, "", func(string, *zip.File) error {
		count++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("Walk() error = %v, want %v", err, stop)
	}
	if count != 1 {
		t.Errorf("walkFn called %d times, want 1", count)
	}
}

func TestWalk_Invalid(t *testing.T) {
	t.Run("nonexistent", func(t *testing.T) {
		err := Walk(filepath.Join(t.TempDir(), "none.zip"), "", func(string, *zip.File) error { return nil })
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Walk() error = %v, want not exist", err)
		}
	})

	t.Run("not zip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.zip")
		if err := os.WriteFile(path, []byte("not a zip"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := Walk(path, "", func(string, *zip.File) error { return nil }); err == nil {
			t.Error("Walk() expected error")
		}
	})

	t.Run("traversal", func(t *testing.T) {
		zipPath := makeZip(t, zipFile{name: "ok.png"}, zipFile{name: "../evil.png"})
		called := false
		err := Walk(zipPath, "", func(string, *zip.File) error { called = true; return nil })
		if err == nil {
			t.Error("Walk() expected error for unsafe entry")
		}
		if !called {
			t.Error("entries before unsafe one should be visited")
		}
	})
}

func TestOpenEntry(t *testing.T) {
	zipPath := makeZip(t, zipFile{name: "icons/a.png", content: "payload"})

	rc, err := OpenEntry(zipPath, "icons/a.png")
	if err != nil {
		t.Fatalf("OpenEntry() error = %v", err)
	}
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if err := rc.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("content = %q, want payload", data)
	}

	if _, err := OpenEntry(zipPath, "icons/b.png"); !errors.Is(err, ErrNoEntry) {
		t.Errorf("OpenEntry() error = %v, want ErrNoEntry", err)
	}
}

func TestEntryName(t *testing.T) {
	// "флаг" in cp866
	raw := string([]byte{0xe4, 0xab, 0xa0, 0xa3}) + ".png"
	zipPath := makeZip(t,
		zipFile{name: raw, nonUTF8: true},
		zipFile{name: "plain.png"},
	)

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	name, err := EntryName(r.File[0], charmap.CodePage866)
	if err != nil {
		t.Fatalf("EntryName() error = %v", err)
	}
	if name != "флаг.png" {
		t.Errorf("EntryName() = %q, want флаг.png", name)
	}

	if name, _ := EntryName(r.File[0], nil); name != raw {
		t.Errorf("EntryName() without code page = %q, want raw name", name)
	}
	if name, _ := EntryName(r.File[1], charmap.CodePage866); name != "plain.png" {
		t.Errorf("EntryName() = %q, want plain.png", name)
	}
}

func TestIsSafePath(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a.png", true},
		{"dir/a.png", true},
		{"dir/..a.png", true},
		{"/etc/passwd", false},
		{`\windows\a.png`, false},
		{"../a.png", false},
		{"dir/../../a.png", false},
	}
	for _, tt := range tests {
		if got := isSafePath(tt.name); got != tt.want {
			t.Errorf("isSafePath(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
