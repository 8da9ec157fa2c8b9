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

package service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DestinationFunc opens the byte sink for a laid out document.
// The print service closes the returned writer after the document has
// been written completely.  If writing fails, is cancelled or times out,
// the writer is aborted instead (see [Aborter]).
type DestinationFunc func(jobID string, info DocumentInfo) (io.WriteCloser, error)

// Aborter is implemented by sinks which can discard a partially written
// document.  After Abort, nothing of the document is visible at the
// destination.  Sinks which do not implement Aborter are closed.
type Aborter interface {
	Abort() error
}

// discard aborts w if possible, and closes it otherwise.
func discard(w io.WriteCloser) error {
	if a, ok := w.(Aborter); ok {
		return a.Abort()
	}
	return w.Close()
}

// FileDestination returns a DestinationFunc which writes each document to a
// file in dir.  The file name is taken from DocumentInfo.Name; directory
// components of the name are ignored.  The document is written to a
// temporary file, which is renamed once the document is complete.
func FileDestination(dir string) DestinationFunc {
	return func(jobID string, info DocumentInfo) (io.WriteCloser, error) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
		name := fileName(jobID, info)
		tmp, err := os.CreateTemp(dir, "."+name+".*")
		if err != nil {
			return nil, err
		}
		return &fileSink{File: tmp, path: filepath.Join(dir, name)}, nil
	}
}

type fileSink struct {
	*os.File
	path string
	done bool
}

// Close moves the complete document to its final name.
func (f *fileSink) Close() error {
	if f.done {
		return nil
	}
	f.done = true
	err := f.File.Close()
	if err != nil {
		os.Remove(f.File.Name())
		return err
	}
	err = os.Chmod(f.File.Name(), 0o644)
	if err == nil {
		err = os.Rename(f.File.Name(), f.path)
	}
	if err != nil {
		os.Remove(f.File.Name())
	}
	return err
}

// Abort removes the partial document.
func (f *fileSink) Abort() error {
	if f.done {
		return nil
	}
	f.done = true
	f.File.Close()
	return os.Remove(f.File.Name())
}

// fileName returns the base name for the output of a job.
func fileName(jobID string, info DocumentInfo) string {
	name := filepath.Base(filepath.ToSlash(info.Name))
	if name == "." || name == "/" || name == "" {
		name = jobID + ".pdf"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return name
}

// WriterDestination returns a DestinationFunc which writes every document
// to w.  The writer is not closed.
func WriterDestination(w io.Writer) DestinationFunc {
	return func(string, DocumentInfo) (io.WriteCloser, error) {
		return nopCloser{w}, nil
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
