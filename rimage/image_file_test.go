package rimage

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestIsImageFile(t *testing.T) {
	test.That(t, IsImageFile("view_01.jpg"), test.ShouldBeTrue)
	test.That(t, IsImageFile("view_01.jpeg"), test.ShouldBeTrue)
	test.That(t, IsImageFile("view_01.png"), test.ShouldBeTrue)
	test.That(t, IsImageFile("view_01.JPG"), test.ShouldBeFalse)
	test.That(t, IsImageFile("view_01.png.txt"), test.ShouldBeFalse)
	test.That(t, IsImageFile("notes"), test.ShouldBeFalse)
}

func TestListImageFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.jpg", "c.txt", "d.JPEG", "e.jpeg"} {
		test.That(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644), test.ShouldBeNil)
	}
	test.That(t, os.Mkdir(filepath.Join(dir, "nested.png"), 0o755), test.ShouldBeNil)

	files, err := ListImageFiles(dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, files, test.ShouldResemble, []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.png"),
		filepath.Join(dir, "e.jpeg"),
	})

	_, err = ListImageFiles(filepath.Join(dir, "missing"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestReadWriteImageFile(t *testing.T) {
	dir := t.TempDir()
	img := image.NewGray(image.Rect(0, 0, 8, 4))
	img.SetGray(3, 2, color.Gray{Y: 200})

	path := filepath.Join(dir, "tiny.png")
	test.That(t, WriteImageToFile(path, img), test.ShouldBeNil)

	decoded, err := ReadImageFromFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, decoded.Bounds(), test.ShouldResemble, img.Bounds())
	test.That(t, MakeGray(decoded).GrayAt(3, 2).Y, test.ShouldEqual, uint8(200))

	garbage := filepath.Join(dir, "garbage.jpg")
	test.That(t, os.WriteFile(garbage, []byte("not a jpeg"), 0o644), test.ShouldBeNil)
	_, err = ReadImageFromFile(garbage)
	test.That(t, err, test.ShouldNotBeNil)
}
