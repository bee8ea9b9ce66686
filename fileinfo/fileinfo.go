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

// Package fileinfo holds the per-package file table (FI): the parallel
// arrays the FSM consults to decide, for each archive entry, where it goes
// on disk and what to do with whatever is already there.
package fileinfo

import (
	"sort"
	"strings"

	"github.com/holocm/rpmcore/header"
	"github.com/holocm/rpmcore/rpmerr"
)

// TransType distinguishes an install transaction from an erase transaction;
// the same Action maps to different on-disk behavior depending on which one
// is in effect.
type TransType int

const (
	TransAdded TransType = iota
	TransRemoved
)

// Action is the per-file disposition FromHeader derives from FILEFLAGS and
// FILESTATES.
type Action int

const (
	ActionUnknown Action = iota
	ActionCreate
	ActionBackup
	ActionSave
	ActionSkip
	ActionAltName
	ActionRemove
	ActionSkipNState
	ActionSkipNetShared
	ActionSkipMultilib
)

// File flag bits, as stored in FILEFLAGS (a subset relevant to action
// derivation; the rest are collaborator concerns like %doc/%config markers
// outside this core).
const (
	FileFlagNoReplace uint32 = 1 << 0
	FileFlagConfig    uint32 = 1 << 1
	FileFlagGhost     uint32 = 1 << 6
	FileFlagMissingOK uint32 = 1 << 7
	FileFlagNetShared uint32 = 1 << 13
)

// FI is the per-package file table. Arrays are indexed 0..len(BaseNames)-1
// for files and 0..len(DirNames)-1 for directories.
type FI struct {
	BaseNames  []string
	DirIndex   []int32
	DirNames   []string
	Modes      []uint16
	Sizes      []int32
	MTimes     []uint32
	Digests    []string
	LinkTo     []string
	UserNames  []string
	GroupNames []string
	Flags      []uint32
	States     []byte
	NLinks     []uint32
	Devices    []int32
	Inodes     []int32

	// APath is the CPIO-visible path for each file, stored with a leading
	// "./" and stable-sorted for MapFindIndex's bsearch (which ignores a
	// leading "./" or "/" on both sides when comparing).
	// apathOrder[k] is the FI index of the k-th entry in sorted order.
	APath      []string
	apathOrder []int

	// StripLen is the length of a legacy absolute-path prefix on archive
	// paths; 0 for modern (relative) archives. It is carried only: neither
	// buildAPath nor MapFindIndex strips it from any path.
	StripLen int

	Trans TransType
}

// FromHeader populates an FI from a loaded package Header. For TransRemoved,
// every array is a private copy, so the FI stays usable after the Header it
// came from is discarded.
func FromHeader(h *header.Header, trans TransType) (*FI, error) {
	fi := &FI{Trans: trans}

	baseNames, ok := h.GetStringArray(header.TagBasenames)
	if !ok {
		return fi, nil // headerless / no-payload package: empty FI is valid
	}
	dirNames, _ := h.GetStringArray(header.TagDirNames)
	dirIndexes, _ := h.GetInt32Array(header.TagDirIndexes)
	if len(dirIndexes) != len(baseNames) {
		return nil, rpmerr.New("FileInfo.FromHeader", rpmerr.BadHeader)
	}
	for _, di := range dirIndexes {
		if di < 0 || int(di) >= len(dirNames) {
			return nil, rpmerr.New("FileInfo.FromHeader", rpmerr.BadHeader)
		}
	}

	sizes, _ := h.GetInt32Array(header.TagFileSizes)
	modes16, _ := h.GetInt16Array(header.TagFileModes)
	mtimes32, _ := h.GetInt32Array(header.TagFileMtimes)
	flags32, _ := h.GetInt32Array(header.TagFileFlags)
	nlinks32, _ := h.GetInt32Array(header.TagFileNLinks)
	devices, _ := h.GetInt32Array(header.TagFileDevices)
	inodes, _ := h.GetInt32Array(header.TagFileInodes)
	digests, _ := h.GetStringArray(header.TagFileMD5s)
	linkTos, _ := h.GetStringArray(header.TagFileLinktos)
	userNames, _ := h.GetStringArray(header.TagFileUserName)
	groupNames, _ := h.GetStringArray(header.TagFileGroupName)

	_, stateData, stateCount, hasStates := h.GetRaw(header.TagFileStates)

	fi.BaseNames = baseNames
	fi.DirNames = dirNames
	fi.DirIndex = dirIndexes
	fi.Sizes = sizes
	fi.Digests = digests
	fi.LinkTo = linkTos
	fi.UserNames = userNames
	fi.GroupNames = groupNames
	fi.Devices = devices
	fi.Inodes = inodes

	fc := len(baseNames)
	fi.Modes = make([]uint16, fc)
	for i := 0; i < fc && i < len(modes16); i++ {
		fi.Modes[i] = uint16(modes16[i])
	}
	fi.MTimes = make([]uint32, fc)
	for i := 0; i < fc && i < len(mtimes32); i++ {
		fi.MTimes[i] = uint32(mtimes32[i])
	}
	fi.Flags = make([]uint32, fc)
	for i := 0; i < fc && i < len(flags32); i++ {
		fi.Flags[i] = uint32(flags32[i])
	}
	fi.NLinks = make([]uint32, fc)
	for i := 0; i < fc && i < len(nlinks32); i++ {
		fi.NLinks[i] = uint32(nlinks32[i])
	}
	fi.States = make([]byte, fc)
	if hasStates {
		for i := 0; i < fc && i < int(stateCount) && i < len(stateData); i++ {
			fi.States[i] = stateData[i]
		}
	}

	fi.buildAPath()
	return fi, nil
}

// buildAPath derives the archive path for every file (dirname+basename,
// normalized relative to "."), then stable-sorts an index permutation over
// it for MapFindIndex.
func (fi *FI) buildAPath() {
	fc := len(fi.BaseNames)
	fi.APath = make([]string, fc)
	for i := 0; i < fc; i++ {
		dir := fi.DirNames[fi.DirIndex[i]]
		path := dir + fi.BaseNames[i]
		path = strings.TrimPrefix(path, "/")
		fi.APath[i] = "./" + path
	}
	fi.apathOrder = make([]int, fc)
	for i := range fi.apathOrder {
		fi.apathOrder[i] = i
	}
	sort.SliceStable(fi.apathOrder, func(a, b int) bool {
		return fi.APath[fi.apathOrder[a]] < fi.APath[fi.apathOrder[b]]
	})
}

// MapFindIndex resolves a CPIO archive path to an FI index via binary
// search, normalizing a leading "./" or "/" on both sides.
func (fi *FI) MapFindIndex(archivePath string) (int, bool) {
	needle := normalizeArchivePath(archivePath)
	order := fi.apathOrder
	n := len(order)
	idx := sort.Search(n, func(k int) bool {
		return normalizeArchivePath(fi.APath[order[k]]) >= needle
	})
	if idx < n && normalizeArchivePath(fi.APath[order[idx]]) == needle {
		return order[idx], true
	}
	return -1, false
}

func normalizeArchivePath(p string) string {
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")
	return p
}

// MapFSPath builds the filesystem path for file i: the directory name, an
// optional staging subdir, the base name, and an optional suffix.
// Directories (mode S_IFDIR) never receive subdir or suffix.
func (fi *FI) MapFSPath(i int, subdir, suffix string) string {
	dir := fi.DirNames[fi.DirIndex[i]]
	if isDir(fi.Modes[i]) {
		return dir + fi.BaseNames[i]
	}
	return dir + subdir + fi.BaseNames[i] + suffix
}

func isDir(mode uint16) bool {
	const modeFmtMask = 0170000
	const modeDir = 0040000
	return mode&modeFmtMask == modeDir
}

// Action returns the disposition FromHeader derived for file i, from its
// FILESTATES/FILEFLAGS bits.
func (fi *FI) Action(i int) Action {
	if i < 0 || i >= len(fi.States) {
		return ActionUnknown
	}
	const rpmfileStateNormal = 0
	const rpmfileStateNotInstalled = 1
	const rpmfileStateNetShared = 2
	const rpmfileStateWrongColor = 3

	switch fi.States[i] {
	case rpmfileStateNotInstalled:
		return ActionSkipNState
	case rpmfileStateNetShared:
		return ActionSkipNetShared
	case rpmfileStateWrongColor:
		return ActionSkipMultilib
	}

	flags := fi.Flags[i]
	switch {
	case flags&FileFlagConfig != 0 && flags&FileFlagNoReplace != 0:
		return ActionAltName
	case flags&FileFlagConfig != 0:
		if fi.Trans == TransAdded {
			return ActionBackup
		}
		return ActionSave
	case flags&FileFlagGhost != 0:
		return ActionSkip
	}
	if fi.Trans == TransRemoved {
		return ActionRemove
	}
	return ActionCreate
}

// Suffixes returns the (old, new) path suffixes Commit applies for action
// under the current transaction type, per the Action table.
func (fi *FI) Suffixes(i int) (oSuffix, nSuffix string) {
	action := fi.Action(i)
	switch action {
	case ActionBackup:
		if fi.Trans == TransAdded {
			return ".rpmorig", ""
		}
		return ".rpmsave", ""
	case ActionSave:
		return ".rpmsave", ""
	case ActionAltName:
		return "", ".rpmnew"
	default:
		return "", ""
	}
}
