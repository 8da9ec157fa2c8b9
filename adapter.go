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
	"io"

	"go.uber.org/zap"

	"seehuhn.de/go/printjob/attr"
	"seehuhn.de/go/printjob/document"
	"seehuhn.de/go/printjob/service"
)

// OnStart implements the service.DocumentAdapter interface.
func (j *Job) OnStart() {
	j.log.Debug("print adapter start")
}

// OnLayout implements the service.DocumentAdapter interface.
//
// Any document from an earlier layout pass is discarded, a new document is
// opened for newAttrs and the render function is run to completion.  The
// cancellation signal is checked before rendering starts; a render which
// is in progress is never interrupted.
func (j *Job) OnLayout(oldAttrs, newAttrs *attr.Attributes, cancel *service.CancellationSignal,
	cb service.LayoutResultCallback, extras map[string]any) {
	j.log.Debug("print adapter layout", zap.Any("extras", extras))

	j.mu.Lock()
	switch j.state {
	case StateFinished:
		j.mu.Unlock()
		cb.OnLayoutFailed(ErrFinished.Error())
		return
	case StateLayingOut, StatePageOpen, StateWriting:
		s := j.state
		j.mu.Unlock()
		cb.OnLayoutFailed(stateError("OnLayout", opLayout, s).Error())
		return
	}

	hadDoc := j.state == StateLaidOut
	j.releaseLocked()
	j.state = StateIdle

	if cancel.IsCanceled() {
		j.result.Cancelled = true
		j.mu.Unlock()
		j.log.Info("layout cancelled")
		cb.OnLayoutCancelled()
		return
	}
	if err := newAttrs.Validate(); err != nil {
		j.result.Failure = err.Error()
		j.mu.Unlock()
		cb.OnLayoutFailed(err.Error())
		return
	}

	opt := j.docOpt
	opt.Monochrome = newAttrs.Color == attr.ColorModeMonochrome
	doc, err := document.New(j.title, &opt)
	if err != nil {
		j.result.Failure = err.Error()
		j.mu.Unlock()
		j.log.Error("cannot create document", zap.Error(err))
		cb.OnLayoutFailed(err.Error())
		return
	}

	j.attrs = newAttrs.Clone()
	j.layoutCB = cb
	j.doc = doc
	j.numPages = 0
	j.changed = !hadDoc || layoutChanged(oldAttrs, newAttrs)
	j.state = StateLayingOut
	j.mu.Unlock()

	if j.render == nil {
		err = errors.New("no render function")
	} else {
		err = j.render(j)
	}

	j.mu.Lock()
	pending := j.state == StateLayingOut || j.state == StatePageOpen
	if !pending {
		j.mu.Unlock()
		if err != nil {
			j.log.Warn("render function failed after reporting a result", zap.Error(err))
		}
		return
	}
	cb = j.layoutCB
	j.layoutCB = nil
	j.releaseLocked()
	j.state = StateIdle
	j.result.Failure = AbortMessage
	j.mu.Unlock()

	if err != nil {
		j.log.Error("render function failed", zap.Error(err))
	} else {
		j.log.Error("render function returned without finishing the document")
	}
	cb.OnLayoutFailed(AbortMessage)
}

// layoutChanged reports whether switching from a to b changes the page
// geometry or the rendering of the document.
func layoutChanged(a, b *attr.Attributes) bool {
	if a == nil || b == nil {
		return true
	}
	return a.PaperRect() != b.PaperRect() ||
		a.ContentRect() != b.ContentRect() ||
		a.Color != b.Color
}

// OnWrite implements the service.DocumentAdapter interface.
//
// The whole document is written, regardless of the requested page ranges.
// The document is released afterwards, whether or not the write succeeded;
// a new layout pass is needed before the next write.
func (j *Job) OnWrite(pages []service.PageRange, dest io.Writer, cancel *service.CancellationSignal,
	cb service.WriteResultCallback) {
	j.log.Debug("print adapter write", zap.Int("ranges", len(pages)))

	j.mu.Lock()
	if j.state != StateLaidOut || j.doc == nil {
		err := stateError("OnWrite", opWrite, j.state)
		j.result.Failure = err.Error()
		j.mu.Unlock()
		cb.OnWriteFailed(err.Error())
		return
	}
	if cancel.IsCanceled() {
		j.releaseLocked()
		j.state = StateIdle
		j.result.Cancelled = true
		j.mu.Unlock()
		j.log.Info("write cancelled")
		cb.OnWriteCancelled()
		return
	}
	doc := j.doc
	j.doc = nil
	j.state = StateWriting
	j.mu.Unlock()

	n, err := writeDocument(doc, dest)

	j.mu.Lock()
	if j.state == StateWriting {
		j.state = StateIdle
	}
	if err != nil {
		j.result.Failure = err.Error()
	} else {
		j.result.Written = true
	}
	j.mu.Unlock()

	if err != nil {
		j.log.Error("cannot write document", zap.Error(err))
		cb.OnWriteFailed(err.Error())
		return
	}
	j.log.Info("document written", zap.Int64("bytes", n))
	cb.OnWriteFinished([]service.PageRange{service.AllPages})
}

// writeDocument serializes doc to dest and releases doc on every path.
func writeDocument(doc *document.Document, dest io.Writer) (int64, error) {
	defer doc.Close()
	return doc.WriteTo(dest)
}

// OnFinish implements the service.DocumentAdapter interface.
// It releases every goroutine waiting in Print or Wait.
func (j *Job) OnFinish() {
	j.log.Debug("print adapter finish")

	j.mu.Lock()
	j.releaseLocked()
	j.layoutCB = nil
	j.state = StateFinished
	j.mu.Unlock()

	j.finishOnce.Do(func() { close(j.done) })
}
