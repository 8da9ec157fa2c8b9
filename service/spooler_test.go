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
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"seehuhn.de/go/printjob/attr"
	"seehuhn.de/go/printjob/document"
)

func init() {
	api.DisableConfigDir()
}

// fakeAdapter lays out a fixed number of blank pages.
type fakeAdapter struct {
	pages int

	// silent suppresses the layout callback.
	silent bool

	// written overrides the page ranges reported after a write.
	written []PageRange

	// partial, if set, is written in place of the document.  Unless
	// partialOK is set, the write is then reported as failed.
	partial   string
	partialOK bool

	// cancelWrite raises the cancellation signal in the middle of OnWrite.
	cancelWrite bool

	// started, if set, is closed by OnStart, which then waits for proceed.
	started chan struct{}
	proceed chan struct{}

	mu      sync.Mutex
	calls   []string
	media   []string
	preview []bool
}

func (a *fakeAdapter) record(call string) {
	a.mu.Lock()
	a.calls = append(a.calls, call)
	a.mu.Unlock()
}

func (a *fakeAdapter) OnStart() {
	a.record("start")
	if a.started != nil {
		close(a.started)
		<-a.proceed
	}
}

func (a *fakeAdapter) OnLayout(old, cur *attr.Attributes, cancel *CancellationSignal, cb LayoutResultCallback, extras map[string]any) {
	a.record("layout")
	a.mu.Lock()
	a.media = append(a.media, cur.Media.ID)
	p, _ := extras["preview"].(bool)
	a.preview = append(a.preview, p)
	a.mu.Unlock()

	switch {
	case cancel.IsCanceled():
		cb.OnLayoutCancelled()
	case a.silent:
	default:
		cb.OnLayoutFinished(DocumentInfo{
			Name:        "fake.pdf",
			PageCount:   a.pages,
			ContentType: ContentTypeDocument,
		}, true)
	}
}

func (a *fakeAdapter) OnWrite(pages []PageRange, dest io.Writer, cancel *CancellationSignal, cb WriteResultCallback) {
	a.record("write")
	if cancel.IsCanceled() {
		cb.OnWriteCancelled()
		return
	}
	if a.partial != "" {
		io.WriteString(dest, a.partial)
		switch {
		case a.cancelWrite:
			cancel.Cancel()
			cb.OnWriteCancelled()
		case a.partialOK:
			cb.OnWriteFinished([]PageRange{AllPages})
		default:
			cb.OnWriteFailed("disk full")
		}
		return
	}

	doc, err := document.New("fake", nil)
	if err != nil {
		cb.OnWriteFailed(err.Error())
		return
	}
	defer doc.Close()
	img := image.NewGray(image.Rect(0, 0, 1, 1))
	for i := 0; i < a.pages; i++ {
		page, err := doc.StartPage(612, 792)
		if err == nil {
			err = page.DrawImage(img, image.Rect(0, 0, 10, 10))
		}
		if err == nil {
			err = page.Finish()
		}
		if err != nil {
			cb.OnWriteFailed(err.Error())
			return
		}
	}
	if _, err := doc.WriteTo(dest); err != nil {
		cb.OnWriteFailed(err.Error())
		return
	}

	if a.written != nil {
		cb.OnWriteFinished(a.written)
	} else {
		cb.OnWriteFinished([]PageRange{AllPages})
	}
}

func (a *fakeAdapter) OnFinish() {
	a.record("finish")
}

func (a *fakeAdapter) getCalls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

func waitJob(t *testing.T, job *HostJob) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := job.Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("print job did not finish")
	}
	return err
}

func TestFileDestination(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	s := NewSpooler(&Options{Destination: FileDestination(dir)})
	defer s.Close()

	a := &fakeAdapter{pages: 3}
	job, err := s.Submit("three pages", a, attr.Default())
	if err != nil {
		t.Fatal(err)
	}
	if err := waitJob(t, job); err != nil {
		t.Fatal(err)
	}

	if d := cmp.Diff([]string{"start", "layout", "write", "finish"}, a.getCalls()); d != "" {
		t.Errorf("adapter calls differ (-want +got):\n%s", d)
	}
	if job.Status() != StatusFinished {
		t.Errorf("status %s", job.Status())
	}
	if job.Info().PageCount != 3 {
		t.Errorf("info %+v", job.Info())
	}

	fd, err := os.Open(filepath.Join(dir, "fake.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	defer fd.Close()
	n, err := api.PageCount(fd, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("file has %d pages, want 3", n)
	}

	if got, ok := s.Job(job.ID); !ok || got != job {
		t.Error("job not found by ID")
	}
}

func TestFileDestinationNames(t *testing.T) {
	dir := t.TempDir()
	dest := FileDestination(dir)
	cases := []struct {
		name, want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/report", "report.pdf"},
		{"", "job-1.pdf"},
	}
	for _, tc := range cases {
		w, err := dest("job-1", DocumentInfo{Name: tc.name})
		if err != nil {
			t.Fatal(err)
		}
		w.Close()
		if _, err := os.Stat(filepath.Join(dir, tc.want)); err != nil {
			t.Errorf("%q: %v", tc.name, err)
		}
	}
}

func TestPreviewPasses(t *testing.T) {
	a5 := attr.Default()
	a5.Media = attr.ISOA5
	s := NewSpooler(&Options{
		Preview: []*attr.Attributes{
			{Media: attr.ISOA4},
			a5,
		},
	})
	defer s.Close()

	a := &fakeAdapter{pages: 1}
	job, err := s.Submit("preview", a, attr.Default())
	if err != nil {
		t.Fatal(err)
	}
	if err := waitJob(t, job); err != nil {
		t.Fatal(err)
	}

	if d := cmp.Diff([]string{"iso_a4", "iso_a5", "na_letter"}, a.media); d != "" {
		t.Errorf("layout media differ (-want +got):\n%s", d)
	}
	if d := cmp.Diff([]bool{true, true, false}, a.preview); d != "" {
		t.Errorf("preview flags differ (-want +got):\n%s", d)
	}
}

func TestOptimize(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewSpooler(&Options{
		Destination: WriterDestination(buf),
		Optimize:    true,
	})
	defer s.Close()

	job, err := s.Submit("optimized", &fakeAdapter{pages: 2}, attr.Default())
	if err != nil {
		t.Fatal(err)
	}
	if err := waitJob(t, job); err != nil {
		t.Fatal(err)
	}
	n, err := api.PageCount(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("optimized file has %d pages, want 2", n)
	}
}

func TestCancel(t *testing.T) {
	s := NewSpooler(nil)
	defer s.Close()

	a := &fakeAdapter{
		pages:   1,
		started: make(chan struct{}),
		proceed: make(chan struct{}),
	}
	job, err := s.Submit("cancelled", a, attr.Default())
	if err != nil {
		t.Fatal(err)
	}
	<-a.started
	job.Cancel()
	close(a.proceed)

	err = waitJob(t, job)
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("Wait() = %v", err)
	}
	var jobErr *JobError
	if !errors.As(err, &jobErr) || jobErr.Stage != "layout" || jobErr.JobID != job.ID {
		t.Errorf("unexpected error %#v", err)
	}
	if job.Status() != StatusCancelled {
		t.Errorf("status %s", job.Status())
	}
	if d := cmp.Diff([]string{"start", "layout", "finish"}, a.getCalls()); d != "" {
		t.Errorf("adapter calls differ (-want +got):\n%s", d)
	}
}

func TestCallbackTimeout(t *testing.T) {
	s := NewSpooler(&Options{CallbackTimeout: 20 * time.Millisecond})
	defer s.Close()

	a := &fakeAdapter{silent: true}
	job, err := s.Submit("silent", a, attr.Default())
	if err != nil {
		t.Fatal(err)
	}
	if err := waitJob(t, job); !errors.Is(err, ErrTimeout) {
		t.Errorf("Wait() = %v", err)
	}
	if job.Status() != StatusFailed {
		t.Errorf("status %s", job.Status())
	}
	calls := a.getCalls()
	if len(calls) == 0 || calls[len(calls)-1] != "finish" {
		t.Errorf("OnFinish not called: %v", calls)
	}
}

func TestIncompleteWrite(t *testing.T) {
	s := NewSpooler(&Options{PageRanges: []PageRange{{Start: 0, End: 2}}})
	defer s.Close()

	a := &fakeAdapter{pages: 3, written: []PageRange{{Start: 0, End: 0}}}
	job, err := s.Submit("partial", a, attr.Default())
	if err != nil {
		t.Fatal(err)
	}
	err = waitJob(t, job)
	var jobErr *JobError
	if !errors.As(err, &jobErr) || jobErr.Stage != "write" {
		t.Errorf("Wait() = %v", err)
	}
}

func TestSubmitErrors(t *testing.T) {
	s := NewSpooler(nil)
	if _, err := s.Submit("no adapter", nil, attr.Default()); err == nil {
		t.Error("missing adapter accepted")
	}
	if _, err := s.Submit("no media", &fakeAdapter{}, &attr.Attributes{}); !errors.Is(err, attr.ErrNoMedia) {
		t.Errorf("invalid attributes: %v", err)
	}
	s.Close()
	if _, err := s.Submit("closed", &fakeAdapter{}, attr.Default()); !errors.Is(err, ErrClosed) {
		t.Errorf("submit after close: %v", err)
	}
}
