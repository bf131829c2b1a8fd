// Package rimage holds the image plumbing used by calibration: decoding image files,
// grayscale conversion, listing candidate images in a directory and drawing diagnostics.
package rimage

import (
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// ImageFileExtensions are the file name suffixes considered candidate images. Matching is
// case-sensitive, so "IMG_0001.JPG" is not a candidate.
var ImageFileExtensions = []string{".jpg", ".jpeg", ".png"}

// IsImageFile reports whether name ends with one of ImageFileExtensions.
func IsImageFile(name string) bool {
	return lo.SomeBy(ImageFileExtensions, func(ext string) bool {
		return strings.HasSuffix(name, ext)
	})
}

// ListImageFiles returns the paths of the regular files in dir whose names end in one of
// ImageFileExtensions, in directory (file name) order. Subdirectories are not descended into.
func ListImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot list images in %q", dir)
	}
	candidates := lo.Filter(entries, func(entry os.DirEntry, _ int) bool {
		return entry.Type().IsRegular() && IsImageFile(entry.Name())
	})
	return lo.Map(candidates, func(entry os.DirEntry, _ int) string {
		return filepath.Join(dir, entry.Name())
	}), nil
}

// ReadImageFromFile decodes the image at path. JPEG orientation tags are applied so the
// returned pixels are upright.
func ReadImageFromFile(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot decode image %q", path)
	}
	return img, nil
}

// WriteImageToFile encodes img to path, choosing the format from the file extension.
func WriteImageToFile(path string, img image.Image) error {
	if err := imaging.Save(img, path); err != nil {
		return errors.Wrapf(err, "cannot write image %q", path)
	}
	return nil
}
