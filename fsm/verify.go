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
	"syscall"

	"github.com/holocm/rpmcore/rpmerr"
)

// sameRdev compares fi's device number against want, for CHR/BLK Verify.
func sameRdev(fi os.FileInfo, want uint32) bool {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return false
	}
	return uint32(st.Rdev) == want
}

// deleteSuffix is appended to a conflicting regular file before it is
// unlinked, tolerating hosts that forbid unlinking a busy executable out
// from under a running process.
const deleteSuffix = "-RPMDELETE"

// verify inspects path against the entry's desired type and reports whether
// creation should proceed. A *rpmerr.Error with Kind == LstatFailed is the
// normal "go ahead and create" signal, not a fatal condition; any other
// non-nil error is fatal.
func (m *Machine) verify(path string) error {
	fi, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return rpmerr.New("FSM.Verify", rpmerr.LstatFailed).WithPath(path)
		}
		return rpmerr.Wrap("FSM.Verify", rpmerr.LstatFailed, err).WithPath(path)
	}

	switch {
	case m.sb.isReg():
		// A regular file always needs re-creation; clear the way first,
		// but tolerate the file still being open elsewhere.
		tmp := path + deleteSuffix
		if err := os.Rename(path, tmp); err == nil {
			os.Remove(tmp)
		} else {
			os.Remove(path)
		}
		return rpmerr.New("FSM.Verify", rpmerr.LstatFailed).WithPath(path)

	case m.sb.isDir():
		if fi.Mode().IsDir() {
			return nil
		}
		if fi.Mode()&os.ModeSymlink != 0 {
			if target, err := os.Stat(path); err == nil && target.IsDir() {
				return nil
			}
		}
		return unlinkThenSignalCreate(path)

	case m.sb.isLnk():
		if fi.Mode()&os.ModeSymlink != 0 {
			existingTarget, err := os.Readlink(path)
			if err == nil && existingTarget == m.linkTarget {
				return nil
			}
		}
		return unlinkThenSignalCreate(path)

	case m.sb.isFifo():
		if fi.Mode()&os.ModeNamedPipe != 0 {
			return nil
		}
		return unlinkThenSignalCreate(path)

	case m.sb.isSock():
		if fi.Mode()&os.ModeSocket != 0 {
			return nil
		}
		return unlinkThenSignalCreate(path)

	case m.sb.isChr() || m.sb.isBlk():
		wantChr := m.sb.isChr()
		isChr := fi.Mode()&os.ModeCharDevice != 0
		isDev := fi.Mode()&os.ModeDevice != 0
		if isDev && isChr == wantChr && sameRdev(fi, m.sb.Rdev) {
			return nil
		}
		return unlinkThenSignalCreate(path)

	default:
		return rpmerr.New("FSM.Verify", rpmerr.UnknownFiletype).WithPath(path)
	}
}

func unlinkThenSignalCreate(path string) error {
	os.Remove(path)
	return rpmerr.New("FSM.Verify", rpmerr.LstatFailed).WithPath(path)
}
