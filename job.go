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

// Package printjob connects a page renderer to a print service.
//
// A [Job] implements the [service.DocumentAdapter] callbacks.  Whenever the
// print service lays out the document, the job opens a new, empty PDF
// document and calls the job's [RenderFunc], which draws the pages through
// the [Canvas] primitives.  When the print service asks for the document,
// the job writes the PDF file to the destination provided by the service.
//
// [Job.Print] starts a job and blocks until the print service has finished
// with it.
package printjob

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"

	"go.uber.org/zap"

	"seehuhn.de/go/printjob/attr"
	"seehuhn.de/go/printjob/document"
	"seehuhn.de/go/printjob/service"
)

// RenderFunc draws the pages of a document.
//
// The function is called once per layout pass.  It must draw zero or more
// pages, each enclosed in BeginPage and EndPage, and then call exactly one
// of EndDoc or AbortJob.  If the function returns without doing either, or
// returns an error, the job is aborted.
type RenderFunc func(c Canvas) error

// Canvas is the interface through which a RenderFunc draws pages.
// Coordinates are in PDF points, relative to the top left corner of the
// page.
type Canvas interface {
	BeginPage() error
	DrawBitmap(img image.Image, dst image.Rectangle) error
	DrawText(text string, at image.Point) error
	DrawLine(from, to image.Point, width float64) error
	SetTextColor(r, g, b uint8)
	TextBounds(text string) image.Rectangle
	TextMetrics() TextMetrics
	ContentRect() image.Rectangle
	PaperRect() image.Rectangle
	PixelAspectRatio() float64
	Attributes() *attr.Attributes
	EndPage() error
	EndDoc() error
	AbortJob() error
}

// TextMetrics describes the font used by DrawText, in PDF points.
type TextMetrics struct {
	Ascent     int // distance from the baseline to the top of the glyphs
	Descent    int // distance from the baseline to the bottom of the glyphs
	LineHeight int // recommended distance between baselines
}

// Options configure a Job.
type Options struct {
	// Attributes are the print attributes requested when the job is started.
	// The print service may negotiate different attributes.
	// If this is nil, [attr.Default] is used.
	Attributes *attr.Attributes

	// Document controls the generated PDF files.
	Document *document.Options

	Logger *zap.Logger
}

// Result summarizes the outcome of a print job.
type Result struct {
	// Name is the document name reported by the last successful layout.
	Name string

	// Pages is the page count reported by the last successful layout.
	Pages int

	// Written is set once the document has been written to the destination.
	Written bool

	// Failure is the last failure reported to the print service.
	Failure string

	Cancelled bool
}

// Job adapts a RenderFunc to the print service protocol.
type Job struct {
	title     string
	render    RenderFunc
	requested *attr.Attributes
	docOpt    document.Options
	log       *zap.Logger

	mu        sync.Mutex
	state     State
	started   bool
	attrs     *attr.Attributes
	layoutCB  service.LayoutResultCallback
	doc       *document.Document
	page      *document.Page
	numPages  int
	changed   bool
	textColor color.RGBA
	result    Result

	finishOnce sync.Once
	done       chan struct{}
}

var (
	_ service.DocumentAdapter = (*Job)(nil)
	_ Canvas                  = (*Job)(nil)
)

// New creates a print job with the given title.
func New(title string, render RenderFunc, opt *Options) *Job {
	if opt == nil {
		opt = &Options{}
	}
	j := &Job{
		title:     title,
		render:    render,
		requested: opt.Attributes.Clone(),
		log:       opt.Logger,
		textColor: color.RGBA{A: 255},
		done:      make(chan struct{}),
	}
	if j.requested == nil {
		j.requested = attr.Default()
	}
	if opt.Document != nil {
		j.docOpt = *opt.Document
	}
	if j.log == nil {
		j.log = zap.NewNop()
	}
	j.log = j.log.With(zap.String("title", title))
	return j
}

// Title returns the job title.
func (j *Job) Title() string {
	return j.title
}

// State returns the current state of the job.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Result returns the outcome of the job so far.
func (j *Job) Result() Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// Print submits the job to m and waits until the print service calls
// OnFinish, or until ctx is done.  A job can be printed only once.
//
// If the document was not written, the returned error is ErrCancelled,
// ErrAborted, or wraps ErrFailed.  If ctx is done first, ctx.Err() is
// returned and the job keeps running in the print service.
func (j *Job) Print(ctx context.Context, m service.Manager) error {
	j.mu.Lock()
	if j.started {
		j.mu.Unlock()
		return ErrAlreadyStarted
	}
	j.started = true
	j.mu.Unlock()

	j.log.Debug("requesting print job", zap.Stringer("media", j.requested.Media))
	err := m.Print(j.title, j, j.requested)
	if err != nil {
		return fmt.Errorf("starting print job %q: %w", j.title, err)
	}

	err = j.Wait(ctx)
	if err != nil {
		return err
	}

	res := j.Result()
	switch {
	case res.Written:
		return nil
	case res.Cancelled:
		return ErrCancelled
	case res.Failure == AbortMessage:
		return ErrAborted
	case res.Failure != "":
		return fmt.Errorf("%w: %s", ErrFailed, res.Failure)
	default:
		return fmt.Errorf("%w: document was not written", ErrFailed)
	}
}

// Wait blocks until the print service has called OnFinish, or until ctx is
// done.
func (j *Job) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		j.log.Warn("stopped waiting for print job", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

// Done returns a channel which is closed when the print service calls
// OnFinish.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// releaseLocked discards the current document, if any.
// The caller must hold j.mu.
func (j *Job) releaseLocked() {
	if j.doc != nil {
		j.doc.Close()
		j.doc = nil
	}
	j.page = nil
}
