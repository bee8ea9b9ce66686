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
	"path/filepath"
	"strings"

	"github.com/holocm/rpmcore/rpmerr"
)

func rpmerrUnknownFiletype(path string) error {
	return rpmerr.New("FSM.MkDirs", rpmerr.UnknownFiletype).WithPath(path)
}

const (
	defaultDirPerm  = 0755
	defaultFilePerm = 0644
)

// mkDirs walks every path component of path (excluding the leaf itself),
// verifying each and creating whatever is missing, per §4.6 MKDIRS. It
// does not record which components it created: Undo never removes
// directories it created (§9).
func mkDirs(path string) error {
	dir := filepath.Clean(filepath.Dir(path))
	if dir == "." || dir == "/" {
		return nil
	}

	isAbs := strings.HasPrefix(dir, "/")
	parts := strings.Split(strings.Trim(dir, "/"), "/")

	cur := ""
	for _, part := range parts {
		if part == "" {
			continue
		}
		if cur == "" {
			if isAbs {
				cur = "/" + part
			} else {
				cur = part
			}
		} else {
			cur = cur + "/" + part
		}
		if err := verifyDirComponent(cur); err != nil {
			return err
		}
	}
	return nil
}

// verifyDirComponent creates cur as a directory if it does not already
// exist as one (or a symlink to one).
func verifyDirComponent(cur string) error {
	fi, err := os.Lstat(cur)
	if err == nil {
		if fi.Mode().IsDir() {
			return nil
		}
		if fi.Mode()&os.ModeSymlink != 0 {
			if target, err := os.Stat(cur); err == nil && target.IsDir() {
				return nil
			}
		}
		// something incompatible occupies this path component.
		return rpmerrUnknownFiletype(cur)
	}
	if !os.IsNotExist(err) {
		return err
	}
	return doMkdir(cur, defaultDirPerm)
}
