/*******************************************************************************
*
* Copyright 2016-2018 Stefan Majewsky <majewsky@gmx.net>
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

// Package fsm implements the per-entry file state machine: the stage-driven
// installer/extractor that turns one CPIO archive member into a filesystem
// change, guided by a FileInfo table.
package fsm

import (
	"github.com/google/renameio"

	"github.com/holocm/rpmcore/fileinfo"
	"github.com/holocm/rpmcore/hardlink"
)

// State names the stages of one element's processing, per the transition
// table: Create -> Init -> Pre -> Process -> Post -> (Commit|Undo) -> Destroy,
// with Map/MkDirs/MkLinks/Notify as sub-stages invoked from within them.
type State int

const (
	StateCreate State = iota
	StateInit
	StatePre
	StateProcess
	StatePost
	StateCommit
	StateUndo
	StateDestroy
)

func (s State) String() string {
	switch s {
	case StateCreate:
		return "Create"
	case StateInit:
		return "Init"
	case StatePre:
		return "Pre"
	case StateProcess:
		return "Process"
	case StatePost:
		return "Post"
	case StateCommit:
		return "Commit"
	case StateUndo:
		return "Undo"
	case StateDestroy:
		return "Destroy"
	default:
		return "Unknown"
	}
}

// MapFlag controls what CpioMap overrides from the FI entry during Map.
type MapFlag uint32

const (
	MapPath MapFlag = 1 << iota
	MapMode
	MapUID
	MapGID
	FollowSymlinks
)

// ProgressEvent is the event kind passed to Callbacks.Progress.
type ProgressEvent int

const (
	InstStart ProgressEvent = iota
	InstProgress
	UninstStart
	UninstProgress
	UninstStop
)

// Callbacks are the environment hooks the FSM invokes; it never performs
// name resolution or UI itself.
type Callbacks interface {
	Progress(event ProgressEvent, amount, total int64, key string)
	ResolveUser(name string) (uid uint32, ok bool)
	ResolveGroup(name string) (gid uint32, ok bool)
}

// NopCallbacks is a Callbacks that does nothing and resolves nobody; useful
// for tests and for transFlags.Test runs that don't need progress output.
type NopCallbacks struct{}

func (NopCallbacks) Progress(ProgressEvent, int64, int64, string) {}
func (NopCallbacks) ResolveUser(string) (uint32, bool)            { return 0, false }
func (NopCallbacks) ResolveGroup(string) (uint32, bool)           { return 0, false }

// Options is the closed set of transaction flags the core consults.
type Options struct {
	Test      bool // perform all checks but write nothing
	JustDB    bool // skip payload extraction entirely
	NoScripts bool
	Commit    bool // treat each entry as committed immediately
	Reverse   bool
	MapFlags  MapFlag
}

// statLike is the stat(2)-shaped metadata the FSM carries per entry,
// sourced from the CPIO header and possibly overridden by Map.
type statLike struct {
	Mode  uint32
	UID   uint32
	GID   uint32
	Size  int64
	MTime uint32
	Rdev  uint32
	NLink uint32
	Dev   uint64
	Ino   uint64
}

const (
	modeFmtMask = 0170000
	modeDir     = 0040000
	modeReg     = 0100000
	modeLnk     = 0120000
	modeFifo    = 0010000
	modeSock    = 0140000
	modeChr     = 0020000
	modeBlk     = 0060000
)

func (s statLike) isDir() bool  { return s.Mode&modeFmtMask == modeDir }
func (s statLike) isReg() bool  { return s.Mode&modeFmtMask == modeReg }
func (s statLike) isLnk() bool  { return s.Mode&modeFmtMask == modeLnk }
func (s statLike) isFifo() bool { return s.Mode&modeFmtMask == modeFifo }
func (s statLike) isSock() bool { return s.Mode&modeFmtMask == modeSock }
func (s statLike) isChr() bool  { return s.Mode&modeFmtMask == modeChr }
func (s statLike) isBlk() bool  { return s.Mode&modeFmtMask == modeBlk }

// Machine drives one transaction element's worth of archive entries through
// the per-entry contract in the order the outer PayloadDriver calls it.
type Machine struct {
	Root      string
	FI        *fileinfo.FI
	Trans     fileinfo.TransType
	Hardlinks *hardlink.Tracker
	Options   Options
	Callbacks Callbacks

	// current entry's working state
	path        string
	archivePath string
	fsIndex     int
	hasFsIndex  bool
	sb          statLike
	linkTarget  string
	subdir      string
	oSuffix     string
	nSuffix     string
	postponed   bool
	pendingFile *renameio.PendingFile
	hardlinkSet *hardlink.Set

	FailedFile  string
	ArchiveSize int64
}

// Postponed reports whether the current entry was deferred by Pre (a Skip
// action, or a hard-link member waiting for its peer) and therefore needs
// no Process/Commit work, though its payload bytes (if any) must still be
// consumed from the archive stream by the caller.
func (m *Machine) Postponed() bool { return m.postponed }

// Path returns the filesystem path the current entry will be installed at
// (including any n_suffix), for diagnostics and progress reporting.
func (m *Machine) Path() string { return m.path + m.nSuffix }

// PendingSize returns the current entry's declared payload size, so the
// caller can skip it in the archive stream when the entry is postponed.
func (m *Machine) PendingSize() int64 { return m.sb.Size }

// New creates a Machine for one transaction element.
func New(root string, fi *fileinfo.FI, trans fileinfo.TransType, opts Options, cb Callbacks) *Machine {
	if cb == nil {
		cb = NopCallbacks{}
	}
	return &Machine{
		Root:      root,
		FI:        fi,
		Trans:     trans,
		Hardlinks: hardlink.NewTracker(),
		Options:   opts,
		Callbacks: cb,
	}
}
