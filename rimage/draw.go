package rimage

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"github.com/fogleman/gg"
	"github.com/golang/geo/r2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	// Green marks a fully detected pattern.
	Green = color.RGBA{R: 0, G: 200, B: 0, A: 255}
	// Red marks a partial or failed detection.
	Red = color.RGBA{R: 230, G: 0, B: 0, A: 255}
	// Cyan is used for corner index labels.
	Cyan = color.RGBA{R: 0, G: 255, B: 255, A: 255}
)

// DrawCorners returns a copy of img with the corners connected in their detection order,
// each corner circled, and every labelEvery-th corner numbered with its index. Zero
// disables labels. The stroke color is Green when found is true and Red otherwise.
func DrawCorners(img image.Image, corners []r2.Point, found bool, labelEvery int) *image.RGBA {
	b := img.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.DrawImage(img, -b.Min.X, -b.Min.Y)

	stroke := Red
	if found {
		stroke = Green
	}
	dc.SetColor(stroke)
	dc.SetLineWidth(1)
	for i := 1; i < len(corners); i++ {
		dc.DrawLine(corners[i-1].X, corners[i-1].Y, corners[i].X, corners[i].Y)
	}
	dc.Stroke()
	for _, pt := range corners {
		dc.DrawCircle(pt.X, pt.Y, 4)
		dc.Stroke()
	}

	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), dc.Image(), image.Point{}, draw.Src)
	if labelEvery <= 0 {
		return out
	}
	for i := 0; i < len(corners); i += labelEvery {
		d := &font.Drawer{
			Dst:  out,
			Src:  image.NewUniform(Cyan),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(int(corners[i].X)+5, int(corners[i].Y)-5),
		}
		d.DrawString(strconv.Itoa(i))
	}
	return out
}
