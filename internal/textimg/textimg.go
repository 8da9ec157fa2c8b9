// seehuhn.de/go/printjob - drive a page renderer from a print service
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package textimg renders single lines of text into alpha masks, using a
// fixed size bitmap font.
package textimg

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Face is the font used for all text.  Glyphs are 7 pixels wide and lines
// are 13 pixels high.
var Face font.Face = basicfont.Face7x13

// Bounds returns the rectangle covered by text when its baseline starts at
// the origin.  The rectangle is empty for the empty string.
func Bounds(text string) image.Rectangle {
	if text == "" {
		return image.Rectangle{}
	}
	m := Face.Metrics()
	adv := font.MeasureString(Face, text)
	return image.Rect(0, -m.Ascent.Ceil(), adv.Ceil(), m.Descent.Ceil())
}

// Metrics returns the ascent, descent and line height of Face, in pixels.
func Metrics() (ascent, descent, height int) {
	m := Face.Metrics()
	return m.Ascent.Ceil(), m.Descent.Ceil(), m.Height.Ceil()
}

// Render draws text into a new alpha mask.  The second return value is the
// position of the baseline origin within the mask.  Render returns nil for
// the empty string.
func Render(text string) (*image.Alpha, image.Point) {
	b := Bounds(text)
	if b.Empty() {
		return nil, image.Point{}
	}

	mask := image.NewAlpha(image.Rect(0, 0, b.Dx(), b.Dy()))
	origin := image.Pt(-b.Min.X, -b.Min.Y)
	d := &font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: Face,
		Dot:  fixed.P(origin.X, origin.Y),
	}
	d.DrawString(text)
	return mask, origin
}
