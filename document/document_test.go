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
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"seehuhn.de/go/pdf"
)

func init() {
	api.DisableConfigDir()
}

func checker(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{255, 255, 255, 255}
			if (x+y)%2 == 0 {
				c = color.RGBA{200, 0, 0, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestTwoPages(t *testing.T) {
	doc, err := New("test document", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer doc.Close()

	page, err := doc.StartPage(612, 792)
	if err != nil {
		t.Fatal(err)
	}
	if page.Number != 1 {
		t.Errorf("first page has number %d", page.Number)
	}
	err = page.DrawImage(checker(8, 8), image.Rect(72, 72, 144, 144))
	if err != nil {
		t.Fatal(err)
	}
	err = page.StrokeLine(image.Pt(72, 200), image.Pt(540, 200), 2, color.Black)
	if err != nil {
		t.Fatal(err)
	}
	err = page.Finish()
	if err != nil {
		t.Fatal(err)
	}

	page, err = doc.StartPage(792, 612)
	if err != nil {
		t.Fatal(err)
	}
	mask := image.NewAlpha(image.Rect(0, 0, 4, 4))
	mask.SetAlpha(1, 1, color.Alpha{A: 255})
	err = page.DrawMask(mask, image.Rect(0, 0, 40, 40), color.RGBA{0, 0, 255, 255})
	if err != nil {
		t.Fatal(err)
	}
	err = page.Finish()
	if err != nil {
		t.Fatal(err)
	}

	if doc.NumPages() != 2 {
		t.Errorf("NumPages() = %d, want 2", doc.NumPages())
	}

	buf := &bytes.Buffer{}
	_, err = doc.WriteTo(buf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output does not start with a PDF header: %q", buf.Bytes()[:min(buf.Len(), 16)])
	}

	n, err := api.PageCount(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("PDF file has %d pages, want 2", n)
	}

	dims, err := api.PageDims(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(dims) != 2 || dims[0].Width != 612 || dims[0].Height != 792 || dims[1].Width != 792 {
		t.Errorf("unexpected page dimensions %v", dims)
	}
}

func TestWriteTwice(t *testing.T) {
	doc, err := New("", &Options{Monochrome: true})
	if err != nil {
		t.Fatal(err)
	}
	page, err := doc.StartPage(100, 100)
	if err != nil {
		t.Fatal(err)
	}
	err = page.DrawImage(checker(2, 2), image.Rect(10, 10, 90, 90))
	if err != nil {
		t.Fatal(err)
	}
	if err := page.Finish(); err != nil {
		t.Fatal(err)
	}

	a := &bytes.Buffer{}
	b := &bytes.Buffer{}
	if _, err := doc.WriteTo(a); err != nil {
		t.Fatal(err)
	}
	if _, err := doc.WriteTo(b); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Error("second WriteTo produced different output")
	}

	_, err = doc.StartPage(100, 100)
	if !errors.Is(err, ErrClosed) {
		t.Errorf("StartPage after WriteTo: %v", err)
	}
}

func TestPageStates(t *testing.T) {
	doc, err := New("states", nil)
	if err != nil {
		t.Fatal(err)
	}

	page, err := doc.StartPage(200, 200)
	if err != nil {
		t.Fatal(err)
	}
	if !doc.PageOpen() {
		t.Error("PageOpen() = false with an open page")
	}
	if _, err := doc.StartPage(200, 200); !errors.Is(err, ErrPageOpen) {
		t.Errorf("second StartPage: %v", err)
	}
	if _, err := doc.WriteTo(&bytes.Buffer{}); !errors.Is(err, ErrPageOpen) {
		t.Errorf("WriteTo with open page: %v", err)
	}
	if err := page.DrawImage(checker(1, 1), image.Rectangle{}); err == nil {
		t.Error("drawing into an empty rectangle succeeded")
	}
	if err := page.Finish(); err != nil {
		t.Fatal(err)
	}
	if err := page.Finish(); !errors.Is(err, ErrNotOpen) {
		t.Errorf("second Finish: %v", err)
	}
	if err := page.DrawImage(checker(1, 1), image.Rect(0, 0, 1, 1)); !errors.Is(err, ErrNotOpen) {
		t.Errorf("DrawImage on finished page: %v", err)
	}

	if _, err := doc.StartPage(0, 100); err == nil {
		t.Error("zero width page accepted")
	}

	if err := doc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := doc.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := doc.WriteTo(&bytes.Buffer{}); !errors.Is(err, ErrClosed) {
		t.Errorf("WriteTo after Close: %v", err)
	}
}

func TestCloseDiscardsOpenPage(t *testing.T) {
	doc, err := New("discard", nil)
	if err != nil {
		t.Fatal(err)
	}
	page, err := doc.StartPage(100, 100)
	if err != nil {
		t.Fatal(err)
	}
	doc.Close()
	if doc.PageOpen() {
		t.Error("page still open after Close")
	}
	if err := page.Finish(); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Finish after Close: %v", err)
	}
}

func TestXMPMetadata(t *testing.T) {
	for _, v := range []pdf.Version{pdf.V1_3, pdf.V1_7} {
		doc, err := New("Quarterly Report", &Options{Version: v})
		if err != nil {
			t.Fatal(err)
		}
		page, err := doc.StartPage(100, 100)
		if err != nil {
			t.Fatal(err)
		}
		if err := page.Finish(); err != nil {
			t.Fatal(err)
		}
		buf := &bytes.Buffer{}
		if _, err := doc.WriteTo(buf); err != nil {
			t.Fatal(err)
		}
		doc.Close()

		hasXMP := bytes.Contains(buf.Bytes(), []byte("xmpmeta"))
		if hasXMP != (v >= pdf.V1_4) {
			t.Errorf("PDF %s: XMP metadata present = %t", v, hasXMP)
		}
		if hasXMP && !bytes.Contains(buf.Bytes(), []byte("Quarterly Report")) {
			t.Errorf("PDF %s: title missing from XMP metadata", v)
		}
	}
}
