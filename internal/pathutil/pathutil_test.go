package pathutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/brianly1003/lrd/internal/domain"
)

func TestRelSlash(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "project")

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr bool
	}{
		{
			name: "direct child",
			path: filepath.Join(root, "index.html"),
			want: "index.html",
		},
		{
			name: "nested file",
			path: filepath.Join(root, "src", "a.java"),
			want: "src/a.java",
		},
		{
			name: "root itself",
			path: root,
			want: ".",
		},
		{
			name: "dotdot prefixed name stays inside",
			path: filepath.Join(root, "..hidden"),
			want: "..hidden",
		},
		{
			name:    "sibling directory",
			path:    filepath.Join(string(filepath.Separator), "other", "a.txt"),
			wantErr: true,
		},
		{
			name:    "parent",
			path:    string(filepath.Separator),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RelSlash(root, tt.path)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrPathOutsideRoot) {
					t.Errorf("RelSlash(%q) error = %v, want ErrPathOutsideRoot", tt.path, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("RelSlash(%q) error = %v", tt.path, err)
			}
			if got != tt.want {
				t.Errorf("RelSlash(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestResolveRoot(t *testing.T) {
	dir := t.TempDir()
	want, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatal(err)
	}

	got, err := ResolveRoot(dir)
	if err != nil {
		t.Fatalf("ResolveRoot() error = %v", err)
	}
	if got != want {
		t.Errorf("ResolveRoot() = %q, want %q", got, want)
	}

	link := filepath.Join(t.TempDir(), "link")
	if err := os.Symlink(dir, link); err == nil {
		got, err := ResolveRoot(link)
		if err != nil {
			t.Fatalf("ResolveRoot(symlink) error = %v", err)
		}
		if got != want {
			t.Errorf("ResolveRoot(symlink) = %q, want %q", got, want)
		}
	}

	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ResolveRoot(file); err == nil {
		t.Error("ResolveRoot() on a file should fail")
	}
	if _, err := ResolveRoot(filepath.Join(dir, "missing")); err == nil {
		t.Error("ResolveRoot() on a missing path should fail")
	}
}

func TestIsRealDir(t *testing.T) {
	dir := t.TempDir()
	if !IsRealDir(dir) {
		t.Error("IsRealDir(dir) = false, want true")
	}

	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if IsRealDir(file) {
		t.Error("IsRealDir(file) = true, want false")
	}

	link := filepath.Join(dir, "link")
	if err := os.Symlink(dir, link); err == nil && IsRealDir(link) {
		t.Error("IsRealDir(symlink) = true, want false")
	}
}
