package hash

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileMatchesBytes(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.bin")
	data := []byte("inspection")
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	sum, size, err := File(p)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if size != int64(len(data)) {
		t.Fatalf("size=%d want=%d", size, len(data))
	}
	if sum != Bytes(data) {
		t.Fatalf("sum mismatch: file=%s bytes=%s", sum, Bytes(data))
	}
}

func TestTextTrimsParts(t *testing.T) {
	if Text(" a ", "b") != Text("a", "b") {
		t.Fatalf("Text should trim parts")
	}
	if Text("a", "b") == Text("ab") {
		t.Fatalf("Text should separate parts")
	}
}
