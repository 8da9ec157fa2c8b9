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
	"fmt"
)

// State is the position of a Job in the print protocol.
//
// A job starts in StateIdle.  A layout request moves it to StateLayingOut,
// where the render function alternates between StateLayingOut and
// StatePageOpen.  EndDoc moves the job to StateLaidOut, OnWrite passes
// through StateWriting back to StateIdle.  OnFinish moves the job to
// StateFinished from any state.
type State int

// These are the job states.
const (
	StateIdle State = iota
	StateLayingOut
	StatePageOpen
	StateLaidOut
	StateWriting
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLayingOut:
		return "laying out"
	case StatePageOpen:
		return "page open"
	case StateLaidOut:
		return "laid out"
	case StateWriting:
		return "writing"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// AbortMessage is reported to the print service when the render function
// gives up.
const AbortMessage = "Job aborted"

// Errors returned by the methods of Job.
var (
	ErrPageOpen       = errors.New("a page is already open")
	ErrNoPage         = errors.New("no page is open")
	ErrNoDocument     = errors.New("no document available")
	ErrNotLayingOut   = errors.New("no layout in progress")
	ErrFinished       = errors.New("print job has finished")
	ErrAlreadyStarted = errors.New("print job already started")
	ErrAborted        = errors.New(AbortMessage)
	ErrCancelled      = errors.New("print job cancelled")
	ErrFailed         = errors.New("print job failed")
)

// StateError is returned when an operation is not allowed in the current
// state of a Job.
type StateError struct {
	Op    string
	State State
	Err   error
}

func (err *StateError) Error() string {
	return err.Op + " while " + err.State.String() + ": " + err.Err.Error()
}

func (err *StateError) Unwrap() error {
	return err.Err
}

// opKind groups the operations by the state they need.
type opKind int

const (
	opLayout opKind = iota // needs StateLayingOut
	opPage                 // needs StatePageOpen
	opWrite                // needs StateLaidOut
)

// stateError explains why op cannot run in state s.
func stateError(op string, kind opKind, s State) error {
	var err error
	switch {
	case s == StateFinished:
		err = ErrFinished
	case s == StatePageOpen:
		err = ErrPageOpen
	case kind == opPage && s == StateLayingOut:
		err = ErrNoPage
	case kind == opWrite:
		err = ErrNoDocument
	case kind == opPage:
		err = ErrNoPage
	default:
		err = ErrNotLayingOut
	}
	return &StateError{Op: op, State: s, Err: err}
}
