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

package payload

import (
	"io"

	"github.com/klauspost/pgzip"

	"github.com/holocm/rpmcore/cpio"
	"github.com/holocm/rpmcore/fileinfo"
	"github.com/holocm/rpmcore/hardlink"
	"github.com/holocm/rpmcore/rpmerr"
)

const (
	modeFmtMask = 0170000
	modeDir     = 0040000
	modeReg     = 0100000
	modeLnk     = 0120000
)

// FileReader opens the content of the regular file at FI index i.
type FileReader func(i int) (io.ReadCloser, error)

// BuildDriver walks an FI (rather than a stream) and emits the matching
// CPIO archive, coalescing hard-linked regular files with a
// hardlink.BuildTracker. Per §4.7, "the build-side driver differs only in
// that it walks FI rather than the stream".
type BuildDriver struct {
	FI        *fileinfo.FI
	ReadFile  FileReader
	Hardlinks *hardlink.BuildTracker

	ArchiveSize int64
}

// NewBuildDriver returns a BuildDriver for fi, reading regular file content
// through readFile.
func NewBuildDriver(fi *fileinfo.FI, readFile FileReader) *BuildDriver {
	return &BuildDriver{FI: fi, ReadFile: readFile, Hardlinks: hardlink.NewBuildTracker()}
}

// Build writes every FI entry to w as a CPIO "new ASCII" archive followed
// by the TRAILER!!! sentinel. Directories carry no payload; symlinks carry
// their target string; a hard-linked regular file's content is read once,
// from its first-seen path, and every later path of the same (dev, ino)
// gets a zero-length placeholder entry referencing the same declared
// nlink, matching how rpmbuild itself lays out CPIO hard-link groups.
func (b *BuildDriver) Build(w io.Writer) error {
	n := len(b.FI.BaseNames)
	for i := 0; i < n; i++ {
		mode := uint32(b.FI.Modes[i])
		archivePath := "." + b.FI.MapFSPath(i, "", "")

		nlink := uint32(1)
		if i < len(b.FI.NLinks) && b.FI.NLinks[i] > 0 {
			nlink = b.FI.NLinks[i]
		}

		isCarrier := true
		if mode&modeFmtMask == modeReg && nlink > 1 {
			dev, ino := fiDevIno(b.FI, i)
			set := b.Hardlinks.Observe(dev, ino, nlink, b.FI.APath[i])
			isCarrier = len(set.BuildPaths) == 1
		}

		var data []byte
		switch {
		case mode&modeFmtMask == modeDir:
			// no payload
		case mode&modeFmtMask == modeLnk:
			data = []byte(b.FI.LinkTo[i])
		case mode&modeFmtMask == modeReg && isCarrier:
			rc, err := b.ReadFile(i)
			if err != nil {
				return err
			}
			buf, err := io.ReadAll(rc)
			closeErr := rc.Close()
			if err != nil {
				return rpmerr.Wrap("Payload.Build", rpmerr.ReadFailed, err).WithPath(archivePath)
			}
			if closeErr != nil {
				return rpmerr.Wrap("Payload.Build", rpmerr.ReadFailed, closeErr).WithPath(archivePath)
			}
			data = buf
		}

		hdr := &cpio.Header{
			Ino:      uint32(i + 1),
			Mode:     mode,
			NLink:    nlink,
			FileSize: uint32(len(data)),
			Name:     archivePath,
		}
		if i < len(b.FI.MTimes) {
			hdr.MTime = b.FI.MTimes[i]
		}
		if err := cpio.WriteHeader(w, hdr); err != nil {
			return err
		}
		if err := cpio.WriteData(w, data); err != nil {
			return err
		}
		b.ArchiveSize += int64(len(data))
	}

	return cpio.WriteTrailer(w)
}

func fiDevIno(fi *fileinfo.FI, i int) (dev, ino uint64) {
	if i < len(fi.Devices) {
		dev = uint64(uint32(fi.Devices[i]))
	}
	if i < len(fi.Inodes) {
		ino = uint64(uint32(fi.Inodes[i]))
	}
	return dev, ino
}

// CompressWriter wraps w with a parallel gzip compressor, the build-side
// counterpart of DecompressReader's sniffing (compression, unlike
// decompression, benefits from klauspost/pgzip's concurrency).
func CompressWriter(w io.Writer) *pgzip.Writer {
	return pgzip.NewWriter(w)
}
