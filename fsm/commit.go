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
	"os"

	"github.com/holocm/rpmcore/rpmerr"
)

// commit finalizes the entry: replaces a staged regular file, fixes
// ownership and mode/mtime, and reports progress. Per §4.6 COMMIT.
func (m *Machine) commit() error {
	if m.postponed {
		return nil
	}

	if m.pendingFile != nil {
		if err := m.pendingFile.CloseAtomicallyReplace(); err != nil {
			return rpmerr.Wrap("FSM.Commit", rpmerr.RenameFailed, err).WithPath(m.path)
		}
		m.pendingFile = nil
	}

	finalPath := m.path + m.nSuffix

	if m.sb.isLnk() {
		if os.Getuid() == 0 {
			if err := doLchown(finalPath, m.sb.UID, m.sb.GID); err != nil {
				return err
			}
		}
	} else {
		if os.Getuid() == 0 {
			if err := doChown(finalPath, m.sb.UID, m.sb.GID); err != nil {
				return err
			}
		}
		if err := doChmod(finalPath, m.sb.Mode); err != nil {
			return err
		}
		if err := doUtime(finalPath, m.sb.MTime); err != nil {
			return err
		}
	}

	m.notify(InstProgress, m.sb.Size, m.ArchiveSize)
	return nil
}

// undo best-effort removes what this entry created and records the first
// failing path. It does not remove directories created for this entry
// (§9, "Undo does not remove directories it created").
func (m *Machine) undo() error {
	if m.postponed {
		return nil
	}
	if m.pendingFile != nil {
		m.pendingFile.Cleanup()
		m.pendingFile = nil
	}

	var err error
	if m.sb.isDir() {
		err = doRmdir(m.path)
	} else {
		err = doUnlink(m.path + m.nSuffix)
	}
	if err != nil && m.FailedFile == "" {
		m.FailedFile = m.path
	}
	return nil
}

// notify invokes the progress callback; installers pass InstProgress,
// erasers pass Uninst* per the caller's own loop.
func (m *Machine) notify(event ProgressEvent, amount, total int64) {
	m.Callbacks.Progress(event, amount, total, m.path)
}
