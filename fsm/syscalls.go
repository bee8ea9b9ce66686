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
	"time"

	"golang.org/x/sys/unix"

	"github.com/holocm/rpmcore/rpmerr"
)

// The leaf states are thin wrappers mapping one syscall to the closed error
// taxonomy; none of them advance the outer loop.

func doLstat(path string) (os.FileInfo, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return nil, rpmerr.Wrap("FSM.Lstat", rpmerr.LstatFailed, err).WithPath(path)
	}
	return fi, nil
}

func doStat(path string) (os.FileInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, rpmerr.Wrap("FSM.Stat", rpmerr.StatFailed, err).WithPath(path)
	}
	return fi, nil
}

func doMkdir(path string, mode uint32) error {
	if err := os.Mkdir(path, os.FileMode(mode&07777)); err != nil {
		return rpmerr.Wrap("FSM.Mkdir", rpmerr.MkdirFailed, err).WithPath(path)
	}
	return nil
}

func doRmdir(path string) error {
	if err := os.Remove(path); err != nil {
		return rpmerr.Wrap("FSM.Rmdir", rpmerr.RmdirFailed, err).WithPath(path)
	}
	return nil
}

func doUnlink(path string) error {
	if err := os.Remove(path); err != nil {
		return rpmerr.Wrap("FSM.Unlink", rpmerr.UnlinkFailed, err).WithPath(path)
	}
	return nil
}

func doRename(oldPath, newPath string) error {
	if err := os.Rename(oldPath, newPath); err != nil {
		return rpmerr.Wrap("FSM.Rename", rpmerr.RenameFailed, err).WithPath(newPath)
	}
	return nil
}

func doSymlink(target, path string) error {
	if err := os.Symlink(target, path); err != nil {
		return rpmerr.Wrap("FSM.Symlink", rpmerr.SymlinkFailed, err).WithPath(path)
	}
	return nil
}

func doLink(oldPath, newPath string) error {
	if err := os.Link(oldPath, newPath); err != nil {
		return rpmerr.Wrap("FSM.Link", rpmerr.LinkFailed, err).WithPath(newPath)
	}
	return nil
}

func doChown(path string, uid, gid uint32) error {
	if err := os.Chown(path, int(uid), int(gid)); err != nil {
		return rpmerr.Wrap("FSM.Chown", rpmerr.ChownFailed, err).WithPath(path)
	}
	return nil
}

func doLchown(path string, uid, gid uint32) error {
	if err := unix.Lchown(path, int(uid), int(gid)); err != nil {
		return rpmerr.Wrap("FSM.Lchown", rpmerr.ChownFailed, err).WithPath(path)
	}
	return nil
}

func doChmod(path string, mode uint32) error {
	if err := os.Chmod(path, os.FileMode(mode&07777)); err != nil {
		return rpmerr.Wrap("FSM.Chmod", rpmerr.ChmodFailed, err).WithPath(path)
	}
	return nil
}

func doUtime(path string, mtime uint32) error {
	t := time.Unix(int64(mtime), 0)
	if err := os.Chtimes(path, t, t); err != nil {
		return rpmerr.Wrap("FSM.Utime", rpmerr.UtimeFailed, err).WithPath(path)
	}
	return nil
}

func doMkfifo(path string, mode uint32) error {
	if err := unix.Mkfifo(path, mode&07777); err != nil {
		return rpmerr.Wrap("FSM.Mkfifo", rpmerr.MkfifoFailed, err).WithPath(path)
	}
	return nil
}

func doMknod(path string, mode uint32, rdev uint32) error {
	if err := unix.Mknod(path, mode, int(rdev)); err != nil {
		return rpmerr.Wrap("FSM.Mknod", rpmerr.MknodFailed, err).WithPath(path)
	}
	return nil
}
