/*******************************************************************************
*
* Copyright 2015-2018 Stefan Majewsky <majewsky@gmx.net>
*
* Licensed under the Apache License, Version 2.0 (the "License");
* you may not use this file except in compliance with the License.
* You should have received a copy of the License along with this
* program. If not, you may obtain a copy of the License at
*
*     http://www.apache.org/licenses/LICENSE-2.0
*
* Unless required by applicable law or agreed to in writing, software
* distributed under the License is distributed on an "AS IS" BASIS,
* WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
* See the License for the specific language governing permissions and
* limitations under the License.
*
*******************************************************************************/

// Package rpmerr defines the closed taxonomy of error kinds raised by the
// header, cpio, fileinfo and fsm packages.
package rpmerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is one of the closed set of error categories that the core raises.
// Stages absorb or propagate a Kind; they never invent ad-hoc error strings.
type Kind uint8

const (
	// Stream framing
	BadMagic Kind = iota
	BadHeader
	HdrSize
	HdrTrailer // sentinel, non-fatal: terminates the stream

	// I/O
	ReadFailed
	WriteFailed
	CopyFailed
	ReadlinkFailed

	// filesystem inspection
	OpenFailed
	StatFailed
	LstatFailed

	// filesystem mutation
	MkdirFailed
	RmdirFailed
	UnlinkFailed
	RenameFailed
	LinkFailed
	SymlinkFailed
	MkfifoFailed
	MknodFailed

	// attribute setting
	ChownFailed
	ChmodFailed
	UtimeFailed

	// semantic
	DigestMismatch
	UnknownFiletype
	MissingHardLink

	// invariant violation
	Internal
)

var kindNames = map[Kind]string{
	BadMagic:         "BadMagic",
	BadHeader:        "BadHeader",
	HdrSize:          "HdrSize",
	HdrTrailer:       "HdrTrailer",
	ReadFailed:       "ReadFailed",
	WriteFailed:      "WriteFailed",
	CopyFailed:       "CopyFailed",
	ReadlinkFailed:   "ReadlinkFailed",
	OpenFailed:       "OpenFailed",
	StatFailed:       "StatFailed",
	LstatFailed:      "LstatFailed",
	MkdirFailed:      "MkdirFailed",
	RmdirFailed:      "RmdirFailed",
	UnlinkFailed:     "UnlinkFailed",
	RenameFailed:     "RenameFailed",
	LinkFailed:       "LinkFailed",
	SymlinkFailed:    "SymlinkFailed",
	MkfifoFailed:     "MkfifoFailed",
	MknodFailed:      "MknodFailed",
	ChownFailed:      "ChownFailed",
	ChmodFailed:      "ChmodFailed",
	UtimeFailed:      "UtimeFailed",
	DigestMismatch:   "DigestMismatch",
	UnknownFiletype:  "UnknownFiletype",
	MissingHardLink:  "MissingHardLink",
	Internal:         "Internal",
}

// String renders the kind's canonical name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Error is the error type raised by every package in the core. It carries
// the Kind, an optional wrapped cause (typically a syscall error) and an
// optional path, so that callers can both pattern-match on Kind and
// errors.As/errors.Is against the underlying cause.
type Error struct {
	Kind  Kind
	Stage string
	Path  string
	Cause error
}

// New builds an Error with no wrapped cause.
func New(stage string, kind Kind) *Error {
	return &Error{Kind: kind, Stage: stage}
}

// Wrap builds an Error wrapping a lower-level cause (typically a *os.PathError
// or other syscall-flavored error), mirroring the Addf/Wrap idiom used
// throughout this lineage for error aggregation.
func Wrap(stage string, kind Kind, cause error) *Error {
	return &Error{Kind: kind, Stage: stage, Cause: errors.WithStack(cause)}
}

// WithPath attaches the path that was being operated on when the error
// occurred. Undo does not use it; it records its failing path in the
// Machine's FailedFile.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// Error renders "<stage>: <kind> [<syscall error>]", the operator-facing
// format specified for the core.
func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %s [%s]", e.Stage, e.Kind, e.Cause)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind, so that
// callers can write errors.Is(err, rpmerr.New("", rpmerr.HdrTrailer)).
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}
