package rimage

import (
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
)

// MakeGray converts img to a single channel intensity image whose bounds start at (0, 0).
// Luminance uses the ITU-R 601 weights, the same ones OpenCV applies for BGR to gray.
func MakeGray(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok && gray.Bounds().Min == (image.Point{}) {
		return gray
	}
	b := img.Bounds()
	result := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		draw.Draw(result, result.Bounds(), img, b.Min, draw.Src)
	default:
		// imaging normalizes every color model (YCbCr, paletted, CMYK...) to NRGBA first.
		draw.Draw(result, result.Bounds(), imaging.Grayscale(img), image.Point{}, draw.Src)
	}
	return result
}

// GetGrayAvg takes in a grayscale image and returns the average value as an int.
func GetGrayAvg(pic *image.Gray) int {
	b := pic.Bounds()
	if b.Empty() {
		return 0
	}
	var sum int64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sum += int64(pic.GrayAt(x, y).Y)
		}
	}
	return int(sum / int64(b.Dx()*b.Dy()))
}
