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

package printjob

import (
	"errors"
	"image"

	"go.uber.org/zap"

	"seehuhn.de/go/printjob/attr"
	"seehuhn.de/go/printjob/internal/textimg"
	"seehuhn.de/go/printjob/service"
)

// BeginPage starts a new page.  The page size is taken from the media size
// negotiated in the current layout pass.
func (j *Job) BeginPage() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != StateLayingOut {
		return stateError("BeginPage", opLayout, j.state)
	}

	w, h := j.attrs.PageSize()
	page, err := j.doc.StartPage(float64(w), float64(h))
	if err != nil {
		return err
	}
	j.numPages++
	j.page = page
	j.state = StatePageOpen
	return nil
}

// DrawBitmap draws img on the current page, scaled to fill dst.
func (j *Job) DrawBitmap(img image.Image, dst image.Rectangle) error {
	if img == nil {
		return errors.New("DrawBitmap: no image")
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != StatePageOpen {
		return stateError("DrawBitmap", opPage, j.state)
	}
	return j.page.DrawImage(img, dst)
}

// DrawText draws a line of text on the current page, in the current text
// color.  The baseline of the text starts at the given point.
func (j *Job) DrawText(text string, at image.Point) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != StatePageOpen {
		return stateError("DrawText", opPage, j.state)
	}

	mask, origin := textimg.Render(text)
	if mask == nil {
		return nil
	}
	dst := mask.Bounds().Add(at.Sub(origin))
	return j.page.DrawMask(mask, dst, j.textColor)
}

// DrawLine strokes a straight line on the current page, in the current
// text color.
func (j *Job) DrawLine(from, to image.Point, width float64) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != StatePageOpen {
		return stateError("DrawLine", opPage, j.state)
	}
	return j.page.StrokeLine(from, to, width, j.textColor)
}

// SetTextColor sets the color used by DrawText and DrawLine.
func (j *Job) SetTextColor(r, g, b uint8) {
	j.mu.Lock()
	j.textColor.R, j.textColor.G, j.textColor.B = r, g, b
	j.mu.Unlock()
}

// TextBounds returns the area covered by text, if drawn with the baseline
// starting at the origin.
func (j *Job) TextBounds(text string) image.Rectangle {
	return textimg.Bounds(text)
}

// TextMetrics returns the metrics of the font used by DrawText.
func (j *Job) TextMetrics() TextMetrics {
	ascent, descent, height := textimg.Metrics()
	return TextMetrics{Ascent: ascent, Descent: descent, LineHeight: height}
}

// ContentRect returns the printable area of the page, excluding the
// margins.  Outside of a layout pass, the empty rectangle is returned.
func (j *Job) ContentRect() image.Rectangle {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.attrs == nil {
		return image.Rectangle{}
	}
	return j.attrs.ContentRect()
}

// PaperRect returns the full page area.
func (j *Job) PaperRect() image.Rectangle {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.attrs == nil {
		return image.Rectangle{}
	}
	return j.attrs.PaperRect()
}

// PixelAspectRatio returns the ratio of pixel width to pixel height.
// PDF output always has square pixels.
func (j *Job) PixelAspectRatio() float64 {
	return 1
}

// Attributes returns a copy of the attributes negotiated for the current
// layout pass.
func (j *Job) Attributes() *attr.Attributes {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.attrs.Clone()
}

// EndPage finishes the current page.
func (j *Job) EndPage() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != StatePageOpen {
		return stateError("EndPage", opPage, j.state)
	}

	page := j.page
	j.page = nil
	j.state = StateLayingOut
	if err := page.Finish(); err != nil {
		j.numPages--
		return err
	}
	return nil
}

// EndDoc completes the layout pass and reports the document to the print
// service.
func (j *Job) EndDoc() error {
	j.mu.Lock()
	if j.state != StateLayingOut {
		err := stateError("EndDoc", opLayout, j.state)
		j.mu.Unlock()
		return err
	}
	info := service.DocumentInfo{
		Name:        DocumentName(j.title),
		PageCount:   j.numPages,
		ContentType: service.ContentTypeDocument,
	}
	cb := j.layoutCB
	j.layoutCB = nil
	changed := j.changed || info.PageCount != j.result.Pages
	j.state = StateLaidOut
	j.result.Name = info.Name
	j.result.Pages = info.PageCount
	j.result.Failure = ""
	j.result.Cancelled = false
	j.mu.Unlock()

	j.log.Info("layout finished", zap.String("name", info.Name), zap.Int("pages", info.PageCount))
	cb.OnLayoutFinished(info, changed)
	return nil
}

// AbortJob ends the layout pass without producing a document.  The print
// service is notified with the message "Job aborted".
func (j *Job) AbortJob() error {
	j.mu.Lock()
	if j.state != StateLayingOut && j.state != StatePageOpen {
		err := stateError("AbortJob", opLayout, j.state)
		j.mu.Unlock()
		return err
	}
	cb := j.layoutCB
	j.layoutCB = nil
	j.releaseLocked()
	j.state = StateIdle
	j.result.Failure = AbortMessage
	j.mu.Unlock()

	j.log.Info("print job aborted by renderer")
	cb.OnLayoutFailed(AbortMessage)
	return nil
}
