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

package document

import (
	"errors"
	"fmt"
	"image"
	gocolor "image/color"

	"seehuhn.de/go/geom/matrix"

	"seehuhn.de/go/pdf/graphics/color"
	pdfimage "seehuhn.de/go/pdf/graphics/image"

	pdfdoc "seehuhn.de/go/pdf/document"
)

// Page is a page of a Document.
//
// All coordinates are given in PDF points, relative to the top left corner
// of the page, with the y axis pointing down.
type Page struct {
	// Number is the one-based page number within the document.
	Number int

	Width, Height float64

	doc *Document
	pg  *pdfdoc.Page
}

// DrawImage paints img, scaled to fill dst.
// Transparent parts of img are left unpainted.
func (p *Page) DrawImage(img image.Image, dst image.Rectangle) error {
	if p.pg == nil {
		return ErrNotOpen
	}
	if dst.Empty() || img.Bounds().Empty() {
		return fmt.Errorf("cannot draw %v image into %v", img.Bounds(), dst)
	}

	cs := color.Space(color.DeviceRGBSpace)
	if p.doc.opt.Monochrome {
		cs = color.DeviceGraySpace
	}
	var xobj *pdfimage.Dict
	if isOpaque(img) {
		xobj = pdfimage.FromImage(img, cs, 8)
	} else {
		xobj = pdfimage.FromImageWithMask(img, img, cs, 8)
	}

	p.place(dst)
	p.pg.DrawXObject(xobj)
	p.pg.PopGraphicsState()
	return p.pg.Err
}

// DrawMask paints the opaque parts of mask, scaled to fill dst, using the
// color c.
func (p *Page) DrawMask(mask image.Image, dst image.Rectangle, c gocolor.Color) error {
	if p.pg == nil {
		return ErrNotOpen
	}
	if dst.Empty() || mask.Bounds().Empty() {
		return fmt.Errorf("cannot draw %v mask into %v", mask.Bounds(), dst)
	}

	p.pg.SetFillColor(p.deviceColor(c))
	p.place(dst)
	p.pg.DrawXObject(pdfimage.FromImageMask(mask))
	p.pg.PopGraphicsState()
	return p.pg.Err
}

// StrokeLine strokes a straight line from a to b.
func (p *Page) StrokeLine(a, b image.Point, width float64, c gocolor.Color) error {
	if p.pg == nil {
		return ErrNotOpen
	}
	if width <= 0 {
		return errors.New("line width must be positive")
	}
	p.pg.PushGraphicsState()
	p.pg.SetStrokeColor(p.deviceColor(c))
	p.pg.SetLineWidth(width)
	p.pg.MoveTo(float64(a.X), p.Height-float64(a.Y))
	p.pg.LineTo(float64(b.X), p.Height-float64(b.Y))
	p.pg.Stroke()
	p.pg.PopGraphicsState()
	return p.pg.Err
}

// Finish completes the page.  The page cannot be used afterwards.
func (p *Page) Finish() error {
	if p.pg == nil {
		return ErrNotOpen
	}
	pg := p.pg
	p.pg = nil
	p.doc.page = nil

	err := pg.Close()
	if err != nil {
		return fmt.Errorf("page %d: %w", p.Number, err)
	}
	p.doc.numPages++
	return nil
}

// place pushes the graphics state and maps the unit square onto dst.
func (p *Page) place(dst image.Rectangle) {
	x := float64(dst.Min.X)
	y := p.Height - float64(dst.Max.Y)
	p.pg.PushGraphicsState()
	p.pg.Transform(matrix.Translate(x, y))
	p.pg.Transform(matrix.Scale(float64(dst.Dx()), float64(dst.Dy())))
}

func (p *Page) deviceColor(c gocolor.Color) color.Color {
	r, g, b, _ := c.RGBA()
	if p.doc.opt.Monochrome {
		y := gocolor.GrayModel.Convert(c).(gocolor.Gray).Y
		return color.DeviceGray(float64(y) / 255)
	}
	return color.DeviceRGB(float64(r)/0xffff, float64(g)/0xffff, float64(b)/0xffff)
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}
