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

// Package service defines the contract between a print service and the
// document adapters which produce the printed content, and provides
// [Spooler], an in-process print service implementing this contract.
//
// A print service drives an adapter through the callbacks OnStart,
// OnLayout (one or more times), OnWrite and OnFinish.  The results of the
// layout and write steps are reported asynchronously through callback
// objects.
package service

import (
	"io"

	"seehuhn.de/go/printjob/attr"
)

// DocumentAdapter is implemented by the producer of a printed document.
//
// The print service calls the methods of a DocumentAdapter from a single
// goroutine, one at a time.
type DocumentAdapter interface {
	// OnStart is called once, when the print job starts.
	OnStart()

	// OnLayout is called whenever the print attributes change.  The adapter
	// must report the outcome by calling exactly one method of cb.
	OnLayout(oldAttrs, newAttrs *attr.Attributes, cancel *CancellationSignal,
		cb LayoutResultCallback, extras map[string]any)

	// OnWrite asks the adapter to write the given pages to dest.
	// The adapter must report the outcome by calling exactly one method of
	// cb.  The print service closes dest after the result has been reported.
	OnWrite(pages []PageRange, dest io.Writer, cancel *CancellationSignal,
		cb WriteResultCallback)

	// OnFinish is called once, when the print job is over.  It is called
	// even if the job failed or was cancelled before any document was
	// written.
	OnFinish()
}

// LayoutResultCallback receives the outcome of DocumentAdapter.OnLayout.
type LayoutResultCallback interface {
	OnLayoutFinished(info DocumentInfo, changed bool)
	OnLayoutFailed(msg string)
	OnLayoutCancelled()
}

// WriteResultCallback receives the outcome of DocumentAdapter.OnWrite.
type WriteResultCallback interface {
	OnWriteFinished(pages []PageRange)
	OnWriteFailed(msg string)
	OnWriteCancelled()
}

// ContentType describes the kind of a printed document.
type ContentType int

// These are the supported content types.
const (
	ContentTypeUnknown ContentType = iota
	ContentTypeDocument
	ContentTypePhoto
)

// PageCountUnknown is used in DocumentInfo when the number of pages
// has not been determined.
const PageCountUnknown = -1

// DocumentInfo describes a laid out document.
type DocumentInfo struct {
	// Name is the file name of the document, e.g. "report.pdf".
	Name string

	PageCount   int
	ContentType ContentType
}

// Manager starts print jobs.
type Manager interface {
	// Print starts a new print job which obtains its content from adapter.
	// Print returns as soon as the job has been queued; completion is
	// signalled by a call to adapter.OnFinish.
	Print(title string, adapter DocumentAdapter, attrs *attr.Attributes) error
}
