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

package fsm

import (
	"io"
	"path/filepath"

	"github.com/holocm/rpmcore/cpio"
	"github.com/holocm/rpmcore/fileinfo"
	"github.com/holocm/rpmcore/hardlink"
	"github.com/holocm/rpmcore/rpmerr"
)

// Init reads the next CPIO header from r and populates the entry's working
// state. It returns a *rpmerr.Error with Kind == HdrTrailer when the
// archive is exhausted, which PayloadDriver treats as a normal end of loop
// rather than a fatal error.
func (m *Machine) Init(r io.Reader) error {
	m.resetEntry()

	hdr, err := cpio.ReadHeader(r)
	if err != nil {
		return err
	}
	if hdr.IsTrailer() {
		return rpmerr.New("FSM.Init", rpmerr.HdrTrailer)
	}

	m.archivePath = hdr.Name
	m.path = filepath.Join(m.Root, hdr.Name)
	m.sb = statLike{
		Mode:  hdr.Mode,
		UID:   hdr.UID,
		GID:   hdr.GID,
		Size:  int64(hdr.FileSize),
		MTime: hdr.MTime,
		Rdev:  hdr.RDevMajor<<8 | hdr.RDevMinor,
		NLink: hdr.NLink,
		Dev:   uint64(hdr.DevMajor)<<32 | uint64(hdr.DevMinor),
		Ino:   uint64(hdr.Ino),
	}
	return nil
}

func (m *Machine) resetEntry() {
	m.path = ""
	m.archivePath = ""
	m.fsIndex = -1
	m.hasFsIndex = false
	m.linkTarget = ""
	m.oSuffix = ""
	m.nSuffix = ""
	m.postponed = false
	m.pendingFile = nil
	m.hardlinkSet = nil
}

// Map resolves the archive path to an FI index, derives the entry's action
// and suffixes, and applies whatever overrides Options.MapFlags selects.
// Per §4.6 MAP.
func (m *Machine) Map() error {
	idx, ok := m.FI.MapFindIndex(m.archivePath)
	m.hasFsIndex = ok
	m.fsIndex = idx
	if !ok {
		return nil // file not tracked by FI: installed verbatim at archive path
	}

	m.oSuffix, m.nSuffix = m.FI.Suffixes(idx)

	flags := m.Options.MapFlags
	if flags&MapPath != 0 {
		m.path = filepath.Join(m.Root, m.FI.MapFSPath(idx, m.subdir, ""))
	}
	if flags&MapMode != 0 {
		m.sb.Mode = m.sb.Mode&^07777 | uint32(m.FI.Modes[idx]&07777)
	}
	if flags&MapUID != 0 {
		if uid, ok := m.Callbacks.ResolveUser(m.FI.UserNames[idx]); ok {
			m.sb.UID = uid
		}
	}
	if flags&MapGID != 0 {
		if gid, ok := m.Callbacks.ResolveGroup(m.FI.GroupNames[idx]); ok {
			m.sb.GID = gid
		}
	}

	switch m.FI.Action(idx) {
	case fileinfo.ActionSkip, fileinfo.ActionSkipNState, fileinfo.ActionSkipNetShared, fileinfo.ActionSkipMultilib:
		m.postponed = true
	}
	return nil
}

// Pre decides whether this entry is postponed (a Skip action, or a hard
// link member that either carries no bytes of its own yet or arrives after
// its peer already exists) and, if it proceeds, makes sure its parent
// directories exist. Per §4.6 PRE.
func (m *Machine) Pre() error {
	if m.postponed {
		return nil
	}

	if m.sb.isReg() && m.sb.NLink > 1 {
		set := m.Hardlinks.Observe(m.sb.Dev, m.sb.Ino, m.sb.NLink, m.fsIndex)
		m.hardlinkSet = set

		if set.HasCreated() {
			// a peer already carries the bytes; just place this link.
			if err := m.mkLinks(set); err != nil {
				return err
			}
			m.postponed = true
			return nil
		}
		if m.sb.Size == 0 {
			// no carrier yet and this member has nothing to write; wait
			// for whichever member of the set does.
			m.postponed = true
			return nil
		}
		// this member carries the bytes; fall through to create it.
	}

	return mkDirs(m.path)
}

// Post finalizes hard-link bookkeeping once the current entry's bytes have
// been written: it becomes the set's carrier, and every peer already seen
// (deferred in Pre because it arrived with no bytes of its own) gets linked
// to it now. Per §4.6 POST / MKLINKS.
func (m *Machine) Post() error {
	if m.postponed || m.hardlinkSet == nil {
		return nil
	}
	set := m.hardlinkSet
	set.MarkCreated(m.fsIndex)
	return m.mkLinks(set)
}

// mkLinks places link(2) copies of the set's carrier for every member that
// has not been linked yet, per §4.6 MKLINKS. It is a no-op until the set
// has a carrier.
func (m *Machine) mkLinks(set *hardlink.Set) error {
	if !set.HasCreated() {
		return nil
	}
	createdPath := filepath.Join(m.Root, m.FI.MapFSPath(set.CreatedIdx, m.subdir, ""))
	if m.pendingFile != nil && set.CreatedIdx == m.fsIndex {
		// the carrier's bytes are still in its staged file until Commit
		// renames that file into place
		createdPath = m.pendingFile.Name()
	}

	for _, idx := range set.Members {
		if idx == set.CreatedIdx || set.IsLinked(idx) {
			continue
		}
		peerPath := filepath.Join(m.Root, m.FI.MapFSPath(idx, m.subdir, ""))
		if err := mkDirs(peerPath); err != nil {
			return err
		}
		if err := verifyLinkTarget(peerPath); err != nil {
			return err
		}
		if err := doLink(createdPath, peerPath); err != nil {
			return err
		}
		set.MarkLinked(idx)
		set.ConsumeLink()
	}
	return nil
}

// verifyLinkTarget clears the way for doLink, tolerating a peer path that
// does not exist yet.
func verifyLinkTarget(path string) error {
	if _, err := doLstat(path); err != nil {
		return nil // nothing there; doLink will create it fresh
	}
	return doUnlink(path)
}

// Process streams r (the entry's payload, already positioned at its first
// data byte) into the filesystem per the entry's type. digest is the
// expected content digest, or "" if none is known. The caller must skip
// r past the entry's declared size itself when Postponed() is true.
func (m *Machine) Process(r io.Reader, digest string) error {
	if m.postponed {
		return nil
	}
	return m.process(r, digest)
}

// Commit finalizes the entry (see commit.go).
func (m *Machine) Commit() error {
	return m.commit()
}

// Undo best-effort rolls back the entry (see commit.go).
func (m *Machine) Undo() error {
	return m.undo()
}

// Destroy flushes any hard-link sets that never reached LinksLeft == 0,
// reporting MissingHardLink for each. Per §4.6 step 9.
func (m *Machine) Destroy() []error {
	var errs []error
	for _, set := range m.Hardlinks.Residual() {
		path := ""
		if len(set.Members) > 0 {
			path = m.FI.MapFSPath(set.Members[0], m.subdir, "")
		}
		errs = append(errs, rpmerr.New("FSM.Destroy", rpmerr.MissingHardLink).WithPath(path))
	}
	return errs
}
