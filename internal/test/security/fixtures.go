// Package security holds fixtures that put hostile trees in front of the
// scanner: loops, binaries, very deep or very large files.
package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// CreateSymlinkLoop creates two symlinks pointing at each other.
func CreateSymlinkLoop(t *testing.T, dir string) {
	t.Helper()

	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")

	if err := os.Symlink(b, a); err != nil {
		t.Fatalf("failed to create symlink a: %v", err)
	}
	if err := os.Symlink(a, b); err != nil {
		t.Fatalf("failed to create symlink b: %v", err)
	}
}

// CreateDirectoryLoop links a subdirectory back to its parent.
func CreateDirectoryLoop(t *testing.T, dir string) {
	t.Helper()

	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.Symlink(dir, filepath.Join(sub, "parent")); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}
}

// CreateBinaryFile writes an ELF header followed by a keyword, so the
// keyword is only reachable by decoding the binary as text.
func CreateBinaryFile(t *testing.T, path, keyword string) {
	t.Helper()

	data := []byte{
		0x7f, 0x45, 0x4c, 0x46, // ELF magic
		0x02, 0x01, 0x01, 0x00,
		0xff, 0xfe, 0x00, 0x00,
		'\n',
	}
	data = append(data, keyword...)

	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to create binary file: %v", err)
	}
}

// CreateDeepTree nests depth directories and drops a file with content at
// the bottom. It returns the file path.
func CreateDeepTree(t *testing.T, dir string, depth int, content string) string {
	t.Helper()

	deepDir := dir
	for i := 0; i < depth; i++ {
		deepDir = filepath.Join(deepDir, "deep")
	}
	if err := os.MkdirAll(deepDir, 0755); err != nil {
		t.Fatalf("failed to create deep directory: %v", err)
	}

	path := filepath.Join(deepDir, "file.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create deep file: %v", err)
	}
	return path
}

// CreateLargeFile writes lines copies of line.
func CreateLargeFile(t *testing.T, path, line string, lines int) {
	t.Helper()

	content := strings.Repeat(line+"\n", lines)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create large file: %v", err)
	}
}

// CreateLongLine writes a single line of size bytes with keyword at the end.
func CreateLongLine(t *testing.T, path, keyword string, size int) {
	t.Helper()

	content := strings.Repeat("a", size) + keyword
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create long line: %v", err)
	}
}
