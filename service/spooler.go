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
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"seehuhn.de/go/printjob/attr"
)

// Status is the state of a print job inside the spooler.
type Status int

// These are the states a HostJob goes through.
const (
	StatusQueued Status = iota
	StatusStarted
	StatusLaidOut
	StatusWritten
	StatusFinished
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusStarted:
		return "started"
	case StatusLaidOut:
		return "laid-out"
	case StatusWritten:
		return "written"
	case StatusFinished:
		return "finished"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Errors returned (wrapped in a *JobError) by HostJob.Wait.
var (
	ErrCancelled = errors.New("print job cancelled")
	ErrTimeout   = errors.New("no response from document adapter")
	ErrClosed    = errors.New("spooler closed")
)

// JobError describes the failure of a print job.
type JobError struct {
	JobID string
	Stage string
	Msg   string
	Err   error
}

func (err *JobError) Error() string {
	msg := err.Msg
	if msg == "" && err.Err != nil {
		msg = err.Err.Error()
	}
	return "print job " + err.JobID + ": " + err.Stage + ": " + msg
}

func (err *JobError) Unwrap() error {
	return err.Err
}

// Options configure a Spooler.
type Options struct {
	// Destination opens the sink for each written document.
	// If this is nil, documents are discarded.
	Destination DestinationFunc

	// Preview lists attribute sets which are laid out before the final
	// attributes, the way a print dialog re-lays out the document while the
	// user changes settings.
	Preview []*attr.Attributes

	// PageRanges selects the pages to write.  The default is all pages.
	PageRanges []PageRange

	// CallbackTimeout limits the time the spooler waits for an adapter to
	// report a layout or write result.  The default is 30 seconds.
	CallbackTimeout time.Duration

	// Optimize runs the written PDF through pdfcpu's optimizer before it is
	// passed to the destination.
	Optimize bool

	Logger *zap.Logger
}

// Spooler is an in-process print service.  Each submitted job is run on its
// own goroutine, which calls the adapter methods in order.
type Spooler struct {
	opt Options
	log *zap.Logger

	mu     sync.Mutex
	jobs   map[string]*HostJob
	closed bool
	wg     sync.WaitGroup
}

var _ Manager = (*Spooler)(nil)

// NewSpooler creates a new print service.
func NewSpooler(opt *Options) *Spooler {
	s := &Spooler{
		jobs: make(map[string]*HostJob),
	}
	if opt != nil {
		s.opt = *opt
	}
	if s.opt.Destination == nil {
		s.opt.Destination = WriterDestination(io.Discard)
	}
	if len(s.opt.PageRanges) == 0 {
		s.opt.PageRanges = []PageRange{AllPages}
	}
	if s.opt.CallbackTimeout <= 0 {
		s.opt.CallbackTimeout = 30 * time.Second
	}
	s.log = s.opt.Logger
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Print implements the Manager interface.
func (s *Spooler) Print(title string, adapter DocumentAdapter, attrs *attr.Attributes) error {
	_, err := s.Submit(title, adapter, attrs)
	return err
}

// Submit queues a new print job and returns a handle to it.
func (s *Spooler) Submit(title string, adapter DocumentAdapter, attrs *attr.Attributes) (*HostJob, error) {
	if adapter == nil {
		return nil, errors.New("no document adapter")
	}
	if err := attrs.Validate(); err != nil {
		return nil, fmt.Errorf("print attributes: %w", err)
	}

	job := &HostJob{
		ID:     uuid.NewString(),
		Title:  title,
		cancel: NewCancellationSignal(),
		done:   make(chan struct{}),
		info:   DocumentInfo{PageCount: PageCountUnknown},
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.jobs[job.ID] = job
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.run(job, adapter, attrs.Clone())
	}()
	return job, nil
}

// Job returns the job with the given ID.
func (s *Spooler) Job(id string) (*HostJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	return job, ok
}

// Close stops accepting new jobs and waits for the running jobs to finish.
func (s *Spooler) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Spooler) run(job *HostJob, adapter DocumentAdapter, attrs *attr.Attributes) {
	log := s.log.With(zap.String("job", job.ID), zap.String("title", job.Title))
	defer close(job.done)
	defer func() {
		adapter.OnFinish()
		job.finish()
		log.Debug("print job finished", zap.Stringer("status", job.Status()))
	}()

	job.setStatus(StatusStarted)
	adapter.OnStart()

	passes := make([]*attr.Attributes, 0, len(s.opt.Preview)+1)
	for _, a := range s.opt.Preview {
		passes = append(passes, a.Clone())
	}
	passes = append(passes, attrs)

	var old *attr.Attributes
	var info DocumentInfo
	for i, a := range passes {
		res := s.layout(job, adapter, old, a, i < len(passes)-1)
		if res.err != nil {
			log.Info("layout failed", zap.Error(res.err))
			job.fail(res.err)
			return
		}
		log.Debug("layout finished",
			zap.Stringer("media", a.Media),
			zap.Int("pages", res.info.PageCount))
		info = res.info
		old = a
	}
	job.setInfo(info)
	job.setStatus(StatusLaidOut)

	err := s.write(job, adapter, info)
	if err != nil {
		log.Info("write failed", zap.Error(err))
		job.fail(err)
		return
	}
	job.setStatus(StatusWritten)
	log.Info("document written", zap.String("name", info.Name), zap.Int("pages", info.PageCount))
}

type layoutResult struct {
	info DocumentInfo
	err  error
}

func (s *Spooler) layout(job *HostJob, adapter DocumentAdapter, old, cur *attr.Attributes, preview bool) layoutResult {
	cb := &layoutCallback{ch: make(chan layoutResult, 1), jobID: job.ID}
	adapter.OnLayout(old, cur, job.cancel, cb, map[string]any{"preview": preview})

	timer := time.NewTimer(s.opt.CallbackTimeout)
	defer timer.Stop()
	select {
	case res := <-cb.ch:
		return res
	case <-timer.C:
		return layoutResult{err: &JobError{JobID: job.ID, Stage: "layout", Err: ErrTimeout}}
	}
}

func (s *Spooler) write(job *HostJob, adapter DocumentAdapter, info DocumentInfo) error {
	dest, err := s.opt.Destination(job.ID, info)
	if err != nil {
		return &JobError{JobID: job.ID, Stage: "destination", Err: err}
	}

	var sink io.Writer = dest
	var buf *bytes.Buffer
	if s.opt.Optimize {
		buf = &bytes.Buffer{}
		sink = buf
	}

	cb := &writeCallback{ch: make(chan error, 1), jobID: job.ID, numPages: info.PageCount, want: s.opt.PageRanges}
	adapter.OnWrite(s.opt.PageRanges, sink, job.cancel, cb)

	timer := time.NewTimer(s.opt.CallbackTimeout)
	defer timer.Stop()
	select {
	case err = <-cb.ch:
	case <-timer.C:
		err = &JobError{JobID: job.ID, Stage: "write", Err: ErrTimeout}
	}

	if err == nil && buf != nil {
		conf := model.NewDefaultConfiguration()
		conf.ValidationMode = model.ValidationRelaxed
		err = api.Optimize(bytes.NewReader(buf.Bytes()), dest, conf)
		if err != nil {
			err = &JobError{JobID: job.ID, Stage: "optimize", Err: err}
		}
	}

	if err != nil {
		if abortErr := discard(dest); abortErr != nil {
			s.log.Warn("cannot discard partial document",
				zap.String("job", job.ID), zap.Error(abortErr))
		}
		return err
	}
	if closeErr := dest.Close(); closeErr != nil {
		return &JobError{JobID: job.ID, Stage: "destination", Err: closeErr}
	}
	return nil
}

type layoutCallback struct {
	once  sync.Once
	ch    chan layoutResult
	jobID string
}

func (cb *layoutCallback) send(res layoutResult) {
	cb.once.Do(func() { cb.ch <- res })
}

func (cb *layoutCallback) OnLayoutFinished(info DocumentInfo, changed bool) {
	cb.send(layoutResult{info: info})
}

func (cb *layoutCallback) OnLayoutFailed(msg string) {
	cb.send(layoutResult{err: &JobError{JobID: cb.jobID, Stage: "layout", Msg: msg}})
}

func (cb *layoutCallback) OnLayoutCancelled() {
	cb.send(layoutResult{err: &JobError{JobID: cb.jobID, Stage: "layout", Err: ErrCancelled}})
}

type writeCallback struct {
	once     sync.Once
	ch       chan error
	jobID    string
	numPages int
	want     []PageRange
}

func (cb *writeCallback) send(err error) {
	cb.once.Do(func() { cb.ch <- err })
}

func (cb *writeCallback) OnWriteFinished(pages []PageRange) {
	if len(pages) == 0 || !Covers(pages, cb.want, cb.numPages) {
		cb.send(&JobError{JobID: cb.jobID, Stage: "write",
			Msg: fmt.Sprintf("adapter wrote pages %v, requested %v", pages, cb.want)})
		return
	}
	cb.send(nil)
}

func (cb *writeCallback) OnWriteFailed(msg string) {
	cb.send(&JobError{JobID: cb.jobID, Stage: "write", Msg: msg})
}

func (cb *writeCallback) OnWriteCancelled() {
	cb.send(&JobError{JobID: cb.jobID, Stage: "write", Err: ErrCancelled})
}

// HostJob is the spooler's handle for a submitted print job.
type HostJob struct {
	ID    string
	Title string

	cancel *CancellationSignal
	done   chan struct{}

	mu     sync.Mutex
	status Status
	info   DocumentInfo
	err    error
}

// Cancel asks the document adapter to stop.  The cancellation is seen by
// the adapter at the start of its next layout or write step.
func (j *HostJob) Cancel() {
	j.cancel.Cancel()
}

// Done returns a channel which is closed after OnFinish has been called.
func (j *HostJob) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job is over and returns the reason for a failure.
func (j *HostJob) Wait(ctx context.Context) error {
	select {
	case <-j.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Status returns the current state of the job.
func (j *HostJob) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Info returns the document information from the last successful layout.
func (j *HostJob) Info() DocumentInfo {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.info
}

func (j *HostJob) setStatus(s Status) {
	j.mu.Lock()
	j.status = s
	j.mu.Unlock()
}

func (j *HostJob) setInfo(info DocumentInfo) {
	j.mu.Lock()
	j.info = info
	j.mu.Unlock()
}

func (j *HostJob) fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.err = err
	if errors.Is(err, ErrCancelled) {
		j.status = StatusCancelled
	} else {
		j.status = StatusFailed
	}
}

func (j *HostJob) finish() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusFailed && j.status != StatusCancelled {
		j.status = StatusFinished
	}
}
