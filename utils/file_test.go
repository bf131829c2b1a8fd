package utils

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	test.That(t, WriteFileAtomic(path, []byte("first"), 0o644), test.ShouldBeNil)
	test.That(t, WriteFileAtomic(path, []byte("second"), 0o644), test.ShouldBeNil)
	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldEqual, "second")

	entries, err := os.ReadDir(dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, entries, test.ShouldHaveLength, 1)

	err = WriteFileAtomic(filepath.Join(dir, "missing", "out.json"), []byte("x"), 0o644)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, fs.ErrNotExist), test.ShouldBeTrue)
}

func TestSafeJoinDir(t *testing.T) {
	p, err := SafeJoinDir("/tmp/debug", "view.png")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p, test.ShouldEqual, "/tmp/debug/view.png")

	_, err = SafeJoinDir("/tmp/debug", "../view.png")
	test.That(t, err, test.ShouldNotBeNil)
}
