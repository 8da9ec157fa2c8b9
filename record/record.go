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

// Package record collects pages of drawing operations, so that they can be
// replayed whenever the print service asks for a layout.
//
// A Recorder is not safe for concurrent use.  Pages must not be recorded
// while a print job is replaying them.
package record

import (
	"errors"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"seehuhn.de/go/printjob"
	"seehuhn.de/go/printjob/attr"
)

// ErrNoPage is returned when an element is recorded before the first call
// to NewPage.
var ErrNoPage = errors.New("no page has been started")

// Recorder holds the recorded pages of a document.
type Recorder struct {
	name      string
	landscape bool
	margins   *attr.Margins
	textColor color.RGBA
	pages     []*page
}

type page struct {
	elements []element
}

// element is a single drawing operation on a recorded page.
type element interface {
	draw(c printjob.Canvas) error
}

// New returns an empty recorder.
func New() *Recorder {
	return &Recorder{textColor: color.RGBA{A: 255}}
}

// Reset discards all pages and the document name.
func (r *Recorder) Reset() {
	r.pages = nil
	r.name = ""
	r.textColor = color.RGBA{A: 255}
}

// NewPage starts a new page and returns the number of pages recorded so
// far, including the new one.
func (r *Recorder) NewPage() int {
	r.pages = append(r.pages, &page{})
	return len(r.pages)
}

// Pages returns the number of recorded pages.
func (r *Recorder) Pages() int {
	return len(r.pages)
}

// SetDocumentName sets the title of print jobs created by NewJob.
func (r *Recorder) SetDocumentName(name string) {
	r.name = name
}

// DocumentName returns the name set by SetDocumentName.
func (r *Recorder) DocumentName() string {
	return r.name
}

// SetLandscape selects the page orientation requested by NewJob.
func (r *Recorder) SetLandscape(landscape bool) {
	r.landscape = landscape
}

// Landscape reports whether landscape orientation has been requested.
func (r *Recorder) Landscape() bool {
	return r.landscape
}

// SetPrintableMargins sets the page margins, in mils, requested by NewJob.
// Without a call to SetPrintableMargins, the margins of the job options
// are used.
func (r *Recorder) SetPrintableMargins(m attr.Margins) {
	r.margins = &m
}

// PageWidth returns the width of the printable area, in PDF points, of the
// pages NewJob(opt) would request.
func (r *Recorder) PageWidth(opt *printjob.Options) int {
	return r.attributes(opt).ContentRect().Dx()
}

// PageHeight returns the height of the printable area, in PDF points, of
// the pages NewJob(opt) would request.
func (r *Recorder) PageHeight(opt *printjob.Options) int {
	return r.attributes(opt).ContentRect().Dy()
}

// SetTextColor sets the color for text and lines recorded afterwards.
func (r *Recorder) SetTextColor(c color.Color) {
	r.textColor = color.RGBAModel.Convert(c).(color.RGBA)
}

func (r *Recorder) add(e element) error {
	if len(r.pages) == 0 {
		return ErrNoPage
	}
	p := r.pages[len(r.pages)-1]
	p.elements = append(p.elements, e)
	return nil
}

// DrawBitmap records img, scaled to fill dst.  The image is referenced,
// not copied; use StagePicture for images which change later.
func (r *Recorder) DrawBitmap(img image.Image, dst image.Rectangle) error {
	if img == nil {
		return errors.New("no image")
	}
	return r.add(&bitmapElement{img: img, dst: dst})
}

// StagePicture records a snapshot of the part clip of src, scaled to fill
// dst.  If clip is empty, all of src is used.  Later changes to src do not
// affect the recorded page.
func (r *Recorder) StagePicture(src image.Image, dst, clip image.Rectangle) error {
	if src == nil {
		return errors.New("no image")
	}
	if clip.Empty() {
		clip = src.Bounds()
	} else {
		clip = clip.Intersect(src.Bounds())
		if clip.Empty() {
			return errors.New("clip area outside of the picture")
		}
	}

	snap := image.NewRGBA(image.Rect(0, 0, clip.Dx(), clip.Dy()))
	draw.Copy(snap, image.Point{}, src, clip, draw.Src, nil)
	return r.add(&bitmapElement{img: snap, dst: dst})
}

// DrawText records a line of text with the baseline starting at pos.
func (r *Recorder) DrawText(text string, pos image.Point) error {
	return r.add(&textElement{text: text, pos: pos, color: r.textColor})
}

// Line records a straight line.
func (r *Recorder) Line(from, to image.Point, width float64) error {
	return r.add(&lineElement{from: from, to: to, width: width, color: r.textColor})
}

// Render replays the recorded pages on c and completes the document.  If
// an element cannot be drawn, the job is aborted and the error is
// returned.
//
// Render has the signature of a printjob.RenderFunc.
func (r *Recorder) Render(c printjob.Canvas) error {
	for _, p := range r.pages {
		err := c.BeginPage()
		if err == nil {
			err = p.draw(c)
		}
		if err == nil {
			err = c.EndPage()
		}
		if err != nil {
			c.AbortJob()
			return err
		}
	}
	return c.EndDoc()
}

func (p *page) draw(c printjob.Canvas) error {
	for _, e := range p.elements {
		if err := e.draw(c); err != nil {
			return err
		}
	}
	return nil
}

// NewJob creates a print job which prints the recorded pages.  The job
// title is the document name, and the orientation and margins set on the
// recorder are applied to the requested attributes.
func (r *Recorder) NewJob(opt *printjob.Options) *printjob.Job {
	var o printjob.Options
	if opt != nil {
		o = *opt
	}
	o.Attributes = r.attributes(opt)
	return printjob.New(r.name, r.Render, &o)
}

// attributes returns the print attributes from opt, with the orientation
// and margins of the recorder applied.
func (r *Recorder) attributes(opt *printjob.Options) *attr.Attributes {
	var a *attr.Attributes
	if opt != nil {
		a = opt.Attributes.Clone()
	}
	if a == nil {
		a = attr.Default()
	}
	a.Landscape = r.landscape
	if r.margins != nil {
		a.Margins = *r.margins
	}
	return a
}

type bitmapElement struct {
	img image.Image
	dst image.Rectangle
}

func (e *bitmapElement) draw(c printjob.Canvas) error {
	return c.DrawBitmap(e.img, e.dst)
}

type textElement struct {
	text  string
	pos   image.Point
	color color.RGBA
}

func (e *textElement) draw(c printjob.Canvas) error {
	c.SetTextColor(e.color.R, e.color.G, e.color.B)
	return c.DrawText(e.text, e.pos)
}

type lineElement struct {
	from, to image.Point
	width    float64
	color    color.RGBA
}

func (e *lineElement) draw(c printjob.Canvas) error {
	c.SetTextColor(e.color.R, e.color.G, e.color.B)
	return c.DrawLine(e.from, e.to, e.width)
}

// FitImage returns the largest rectangle with the aspect ratio of size
// which fits into area, centered in area.
func FitImage(size image.Point, area image.Rectangle) image.Rectangle {
	aw, ah := area.Dx(), area.Dy()
	if size.X <= 0 || size.Y <= 0 || aw <= 0 || ah <= 0 {
		return image.Rectangle{}
	}

	w, h := aw, ah
	if size.X*ah > size.Y*aw {
		h = size.Y * aw / size.X
	} else {
		w = size.X * ah / size.Y
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	x := area.Min.X + (aw-w)/2
	y := area.Min.Y + (ah-h)/2
	return image.Rect(x, y, x+w, y+h)
}
