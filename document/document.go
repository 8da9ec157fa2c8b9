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

// Package document implements an in-memory, multi-page PDF document.
//
// Pages are added one at a time.  Once all pages are finished, the
// document can be serialized using [Document.WriteTo].  The memory held by
// a document is released by [Document.Close].
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/text/language"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/xmp"
	pdfdoc "seehuhn.de/go/pdf/document"
)

// Errors returned by Document methods.
var (
	ErrPageOpen = errors.New("a page is still open")
	ErrClosed   = errors.New("document has been closed")
	ErrNotOpen  = errors.New("page is not open")
)

// Options control the generated PDF file.
type Options struct {
	// Version is the PDF version of the output.  The default is PDF 1.7.
	Version pdf.Version

	// Language, if set, is recorded as the natural language of the
	// document.
	Language language.Tag

	// Producer is stored in the document information dictionary.
	Producer string

	// Monochrome causes images to be converted to gray scale.
	Monochrome bool
}

// Letter is the default page size for pages which do not set their own
// size, in PDF points.
var Letter = &pdf.Rectangle{URx: 612, URy: 792}

// Document is a PDF document under construction.
type Document struct {
	Title string

	opt Options

	buf      *bytes.Buffer
	out      *pdfdoc.MultiPage
	page     *Page
	numPages int
	complete bool
	closed   bool
}

// New starts a new, empty document.
func New(title string, opt *Options) (*Document, error) {
	d := &Document{
		Title: title,
		buf:   &bytes.Buffer{},
	}
	if opt != nil {
		d.opt = *opt
	}
	if d.opt.Version == 0 {
		d.opt.Version = pdf.V1_7
	}

	out, err := pdfdoc.WriteMultiPage(d.buf, Letter, d.opt.Version, nil)
	if err != nil {
		return nil, err
	}
	d.out = out

	meta := out.Out.GetMeta()
	info := &pdf.Info{}
	if title != "" {
		info.Title = pdf.TextString(title)
	}
	if d.opt.Producer != "" {
		info.Producer = pdf.TextString(d.opt.Producer)
	}
	meta.Info = info
	if d.opt.Language != language.Und {
		meta.Catalog.Lang = d.opt.Language
	}
	if d.opt.Version >= pdf.V1_4 {
		err = d.writeXMP(time.Now())
		if err != nil {
			return nil, err
		}
	}

	return d, nil
}

// writeXMP adds an XMP metadata stream with the title and the creation
// date to the document catalog.
func (d *Document) writeXMP(now time.Time) error {
	dc := &xmp.DublinCore{}
	if d.Title != "" {
		dc.Title.Set(language.MustParse("x-default"), d.Title)
	}
	basic := &xmp.Basic{}
	basic.CreateDate = xmp.NewDate(now)
	basic.ModifyDate = xmp.NewDate(now)

	packet := xmp.NewPacket()
	packet.Set(dc, basic)

	w := d.out.Out
	ref := w.Alloc()
	dict := pdf.Dict{
		"Type":    pdf.Name("Metadata"),
		"Subtype": pdf.Name("XML"),
	}
	stm, err := w.OpenStream(ref, dict)
	if err != nil {
		return err
	}
	err = packet.Write(stm, nil)
	if err != nil {
		return err
	}
	err = stm.Close()
	if err != nil {
		return err
	}

	w.GetMeta().Catalog.Metadata = ref
	return nil
}

// NumPages returns the number of finished pages.
func (d *Document) NumPages() int {
	return d.numPages
}

// PageOpen reports whether a page has been started but not finished.
func (d *Document) PageOpen() bool {
	return d.page != nil
}

// StartPage adds a new page of the given size, in PDF points.
// Only one page can be open at a time.
func (d *Document) StartPage(width, height float64) (*Page, error) {
	if d.closed || d.complete {
		return nil, ErrClosed
	}
	if d.page != nil {
		return nil, ErrPageOpen
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid page size %gx%g", width, height)
	}

	pg := d.out.AddPage()
	pg.SetPageSize(&pdf.Rectangle{URx: width, URy: height})

	d.page = &Page{
		Number: d.numPages + 1,
		Width:  width,
		Height: height,
		doc:    d,
		pg:     pg,
	}
	return d.page, nil
}

// WriteTo writes the complete PDF file to w.  After the first call to
// WriteTo no more pages can be added.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	if d.closed {
		return 0, ErrClosed
	}
	if d.page != nil {
		return 0, ErrPageOpen
	}
	if !d.complete {
		err := d.out.Close()
		if err != nil {
			return 0, fmt.Errorf("finishing PDF file: %w", err)
		}
		d.complete = true
	}
	return bytes.NewReader(d.buf.Bytes()).WriteTo(w)
}

// Close releases the memory held by the document.  An open page is
// discarded.  Close can be called more than once.
func (d *Document) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.page != nil {
		d.page.pg = nil
		d.page = nil
	}
	d.out = nil
	d.buf = nil
	return nil
}
