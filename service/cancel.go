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

import "sync"

// CancellationSignal is raised by the print service when the user cancels
// a job.  The zero value is ready to use.  A nil *CancellationSignal is
// never cancelled and ignores Cancel and OnCancel.
type CancellationSignal struct {
	mu        sync.Mutex
	canceled  bool
	done      chan struct{}
	listeners []func()
}

// NewCancellationSignal returns a signal which has not been raised.
func NewCancellationSignal() *CancellationSignal {
	return &CancellationSignal{done: make(chan struct{})}
}

// Cancel raises the signal.  Listeners registered with OnCancel are called
// synchronously, in the order they were registered.  Calling Cancel more
// than once has no further effect.
func (s *CancellationSignal) Cancel() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.canceled {
		s.mu.Unlock()
		return
	}
	s.canceled = true
	s.initLocked()
	close(s.done)
	listeners := s.listeners
	s.listeners = nil
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// IsCanceled reports whether Cancel has been called.
func (s *CancellationSignal) IsCanceled() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canceled
}

// Done returns a channel which is closed when the signal is raised.
// For a nil signal, the returned channel is never closed.
func (s *CancellationSignal) Done() <-chan struct{} {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initLocked()
	return s.done
}

func (s *CancellationSignal) initLocked() {
	if s.done == nil {
		s.done = make(chan struct{})
	}
}

// OnCancel registers fn to be called when the signal is raised.  If the
// signal has already been raised, fn is called immediately.
func (s *CancellationSignal) OnCancel(fn func()) {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.canceled {
		s.mu.Unlock()
		fn()
		return
	}
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}
