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
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/google/renameio"

	"github.com/holocm/rpmcore/rpmerr"
)

const maxSymlinkTarget = 2048

// process dispatches to the type-specific installer for the current entry,
// per §4.6 PROCESS. r supplies the entry's payload bytes for regular files
// and symlinks; it is nil for types that carry no payload.
func (m *Machine) process(r io.Reader, digest string) error {
	switch {
	case m.sb.isReg():
		return m.expandRegular(r, digest)
	case m.sb.isDir():
		return m.processDir()
	case m.sb.isLnk():
		return m.processSymlink(r)
	case m.sb.isFifo(), m.sb.isSock():
		return m.processFifo()
	case m.sb.isChr(), m.sb.isBlk():
		return m.processDevice()
	default:
		return rpmerr.New("FSM.Process", rpmerr.UnknownFiletype).WithPath(m.path)
	}
}

// expandRegular streams the entry's payload to a staged temp file next to
// the final path (renameio guarantees the eventual rename is atomic), then
// verifies a known digest before Commit makes it visible.
func (m *Machine) expandRegular(r io.Reader, wantDigest string) error {
	if m.oSuffix != "" {
		if _, err := os.Lstat(m.path); err == nil {
			if err := doRename(m.path, m.path+m.oSuffix); err != nil {
				return err
			}
		}
	} else if err := m.verify(m.path); err != nil {
		if rerr, ok := err.(*rpmerr.Error); !ok || rerr.Kind != rpmerr.LstatFailed {
			return err
		}
	}

	// renameio targets the final installed name directly: when n_suffix is
	// set (AltName), that already is the staged-and-final name, so Commit
	// needs no extra rename (§4.6 COMMIT, "if a suffix was used during
	// staging, rename to the final path").
	finalPath := m.path + m.nSuffix
	t, err := renameio.TempFile("", finalPath)
	if err != nil {
		return rpmerr.Wrap("FSM.Process", rpmerr.OpenFailed, err).WithPath(m.path)
	}
	defer t.Cleanup()

	hasher := md5.New()
	var w io.Writer = t
	if wantDigest != "" {
		w = io.MultiWriter(t, hasher)
	}

	written, err := io.CopyN(w, r, m.sb.Size)
	if err != nil && err != io.EOF {
		return rpmerr.Wrap("FSM.Process", rpmerr.ReadFailed, err).WithPath(m.path)
	}
	if written != m.sb.Size {
		return rpmerr.New("FSM.Process", rpmerr.ReadFailed).WithPath(m.path)
	}

	if wantDigest != "" {
		if hex.EncodeToString(hasher.Sum(nil)) != wantDigest {
			return rpmerr.New("FSM.Process", rpmerr.DigestMismatch).WithPath(m.path)
		}
	}

	if err := t.Chmod(os.FileMode(m.sb.Mode & 07777)); err != nil {
		return rpmerr.Wrap("FSM.Process", rpmerr.ChmodFailed, err).WithPath(m.path)
	}
	m.pendingFile = t
	m.ArchiveSize += written
	return nil
}

func (m *Machine) processDir() error {
	err := m.verify(m.path)
	if err != nil {
		if rerr, ok := err.(*rpmerr.Error); !ok || rerr.Kind != rpmerr.LstatFailed {
			return err
		}
		if err := doMkdir(m.path, defaultDirPerm); err != nil {
			return err
		}
	}
	return doChmod(m.path, m.sb.Mode)
}

func (m *Machine) processSymlink(r io.Reader) error {
	if m.sb.Size+1 > maxSymlinkTarget {
		return rpmerr.New("FSM.Process", rpmerr.HdrSize).WithPath(m.path)
	}
	buf := make([]byte, m.sb.Size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return rpmerr.Wrap("FSM.Process", rpmerr.ReadFailed, err).WithPath(m.path)
	}
	m.linkTarget = string(buf)

	err := m.verify(m.path)
	if err != nil {
		if rerr, ok := err.(*rpmerr.Error); !ok || rerr.Kind != rpmerr.LstatFailed {
			return err
		}
		return doSymlink(m.linkTarget, m.path)
	}
	return nil
}

func (m *Machine) processFifo() error {
	err := m.verify(m.path)
	if err != nil {
		if rerr, ok := err.(*rpmerr.Error); !ok || rerr.Kind != rpmerr.LstatFailed {
			return err
		}
		return doMkfifo(m.path, 0)
	}
	return nil
}

func (m *Machine) processDevice() error {
	err := m.verify(m.path)
	if err != nil {
		if rerr, ok := err.(*rpmerr.Error); !ok || rerr.Kind != rpmerr.LstatFailed {
			return err
		}
		return doMknod(m.path, m.sb.Mode&^07777, m.sb.Rdev)
	}
	return nil
}

// ensureParentDir creates a payload-carrying file's parent directory before
// Process. Nothing in this module calls it; Pre calls mkDirs directly.
func ensureParentDir(path string) error {
	return mkDirs(filepath.Clean(path))
}
