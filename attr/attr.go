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

// Package attr describes the print attributes negotiated between a print
// service and a document adapter.
//
// Lengths are given in mils (thousandths of an inch), which is the unit
// print services use for media sizes and margins.  Use [MilsToPoints] to
// convert to PDF units.
package attr

import (
	"errors"
	"fmt"
	"image"
)

// MilsToPoints converts a length in mils to PDF points (1/72 inch).
// The result is truncated towards zero.
func MilsToPoints(mils int) int {
	return mils * 72 / 1000
}

// PointsToMils converts a length in PDF points to mils.
func PointsToMils(points int) int {
	return points * 1000 / 72
}

// MediaSize is a paper size.
type MediaSize struct {
	// ID is a machine readable identifier, e.g. "na_letter".
	ID string

	// Label is a human readable name.
	Label string

	// WidthMils and HeightMils give the paper dimensions in mils.
	WidthMils  int
	HeightMils int
}

// Predefined media sizes.
var (
	NALetter = MediaSize{ID: "na_letter", Label: "Letter", WidthMils: 8500, HeightMils: 11000}
	NALegal  = MediaSize{ID: "na_legal", Label: "Legal", WidthMils: 8500, HeightMils: 14000}
	ISOA3    = MediaSize{ID: "iso_a3", Label: "A3", WidthMils: 11690, HeightMils: 16540}
	ISOA4    = MediaSize{ID: "iso_a4", Label: "A4", WidthMils: 8270, HeightMils: 11690}
	ISOA5    = MediaSize{ID: "iso_a5", Label: "A5", WidthMils: 5830, HeightMils: 8270}
)

var knownMedia = []MediaSize{NALetter, NALegal, ISOA3, ISOA4, ISOA5}

// LookupMedia returns the predefined media size with the given ID.
func LookupMedia(id string) (MediaSize, bool) {
	for _, m := range knownMedia {
		if m.ID == id {
			return m, true
		}
	}
	return MediaSize{}, false
}

// IsLandscape reports whether the media is wider than it is tall.
func (m MediaSize) IsLandscape() bool {
	return m.WidthMils > m.HeightMils
}

// Landscape returns the media rotated so that the long side is horizontal.
func (m MediaSize) Landscape() MediaSize {
	if m.WidthMils < m.HeightMils {
		m.WidthMils, m.HeightMils = m.HeightMils, m.WidthMils
	}
	return m
}

// Portrait returns the media rotated so that the long side is vertical.
func (m MediaSize) Portrait() MediaSize {
	if m.WidthMils > m.HeightMils {
		m.WidthMils, m.HeightMils = m.HeightMils, m.WidthMils
	}
	return m
}

// Points returns the paper dimensions in PDF points.
func (m MediaSize) Points() (width, height int) {
	return MilsToPoints(m.WidthMils), MilsToPoints(m.HeightMils)
}

func (m MediaSize) String() string {
	name := m.Label
	if name == "" {
		name = m.ID
	}
	return fmt.Sprintf("%s (%dx%d mils)", name, m.WidthMils, m.HeightMils)
}

// Margins are the non-printable borders of a page, in mils.
type Margins struct {
	Left, Top, Right, Bottom int
}

// Points returns the margins converted to PDF points.
func (m Margins) Points() Margins {
	return Margins{
		Left:   MilsToPoints(m.Left),
		Top:    MilsToPoints(m.Top),
		Right:  MilsToPoints(m.Right),
		Bottom: MilsToPoints(m.Bottom),
	}
}

// ColorMode selects between color and monochrome output.
type ColorMode int

// These are the supported color modes.
const (
	ColorModeColor ColorMode = iota
	ColorModeMonochrome
)

func (c ColorMode) String() string {
	switch c {
	case ColorModeColor:
		return "color"
	case ColorModeMonochrome:
		return "monochrome"
	default:
		return fmt.Sprintf("ColorMode(%d)", int(c))
	}
}

// DuplexMode selects single or double sided printing.
type DuplexMode int

// These are the supported duplex modes.
const (
	DuplexNone DuplexMode = iota
	DuplexLongEdge
	DuplexShortEdge
)

func (d DuplexMode) String() string {
	switch d {
	case DuplexNone:
		return "none"
	case DuplexLongEdge:
		return "long-edge"
	case DuplexShortEdge:
		return "short-edge"
	default:
		return fmt.Sprintf("DuplexMode(%d)", int(d))
	}
}

// Attributes is the set of print attributes for one layout pass.
type Attributes struct {
	Media   MediaSize
	Margins Margins

	// Landscape requests landscape orientation.  The page size reported by
	// PageSize is rotated accordingly.
	Landscape bool

	Color  ColorMode
	Duplex DuplexMode

	// DPI is the resolution of the output device.  Zero means unknown.
	DPI int
}

// Default returns portrait US Letter attributes without margins.
func Default() *Attributes {
	return &Attributes{
		Media: NALetter,
		DPI:   300,
	}
}

// ErrNoMedia is returned by Validate if no media size is set.
var ErrNoMedia = errors.New("no media size")

// Validate checks that the attributes describe a usable page.
func (a *Attributes) Validate() error {
	if a == nil || a.Media.WidthMils <= 0 || a.Media.HeightMils <= 0 {
		return ErrNoMedia
	}
	m := a.Margins
	if m.Left < 0 || m.Top < 0 || m.Right < 0 || m.Bottom < 0 {
		return fmt.Errorf("negative margins %v", m)
	}
	media := a.orientedMedia()
	if m.Left+m.Right >= media.WidthMils || m.Top+m.Bottom >= media.HeightMils {
		return fmt.Errorf("margins %v leave no printable area on %s", m, media)
	}
	return nil
}

func (a *Attributes) orientedMedia() MediaSize {
	if a.Landscape {
		return a.Media.Landscape()
	}
	return a.Media
}

// PageSize returns the page dimensions in PDF points, taking the
// orientation into account.
func (a *Attributes) PageSize() (width, height int) {
	return a.orientedMedia().Points()
}

// PaperRect returns the full page rectangle in points, with the origin in
// the top left corner.
func (a *Attributes) PaperRect() image.Rectangle {
	w, h := a.PageSize()
	return image.Rect(0, 0, w, h)
}

// ContentRect returns the printable area of the page in points, with the
// origin in the top left corner.
func (a *Attributes) ContentRect() image.Rectangle {
	w, h := a.PageSize()
	m := a.Margins.Points()
	return image.Rect(m.Left, m.Top, w-m.Right, h-m.Bottom)
}

// Clone returns a copy of a.
func (a *Attributes) Clone() *Attributes {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}
