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

// Package cpio implements the "new ASCII" CPIO payload format (magic
// "070701", or "070702" for the CRC variant, which this package reads but
// never verifies: installed content is checked instead against the file
// digests from the package header, in the fsm package).
package cpio

import (
	"fmt"
	"io"
	"strconv"

	"github.com/holocm/rpmcore/rpmerr"
)

// TrailerName is the sentinel entry name that marks the end of the archive.
const TrailerName = "TRAILER!!!"

const headerSize = 110 // 6-byte magic + 13 8-digit hex fields

var magicNewASCII = [2]string{"070701", "070702"}

// Header is one decoded CPIO "new ASCII" entry header.
type Header struct {
	Ino        uint32
	Mode       uint32
	UID        uint32
	GID        uint32
	NLink      uint32
	MTime      uint32
	FileSize   uint32
	DevMajor   uint32
	DevMinor   uint32
	RDevMajor  uint32
	RDevMinor  uint32
	Checksum   uint32
	Name       string
	hasCRCKind bool
}

// IsTrailer reports whether this entry is the archive-ending sentinel.
func (h *Header) IsTrailer() bool {
	return h.Name == TrailerName
}

// ReadHeader decodes one CPIO entry header (magic, 13 hex fields, NUL
// terminated name, and the padding that follows the name) from r. It does
// not read the file's data; call io.CopyN(io.Discard, r, int64(h.FileSize))
// followed by SkipPadding, or use ReadData, to consume it.
func ReadHeader(r io.Reader) (*Header, error) {
	br := r

	var magic [6]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, rpmerr.Wrap("cpio.ReadHeader", rpmerr.ReadFailed, err)
	}
	isCRC := false
	switch string(magic[:]) {
	case magicNewASCII[0]:
		// plain newc
	case magicNewASCII[1]:
		isCRC = true
	default:
		return nil, rpmerr.New("cpio.ReadHeader", rpmerr.BadMagic)
	}

	fields := make([]uint32, 13)
	var fieldBuf [8]byte
	for i := range fields {
		if _, err := io.ReadFull(br, fieldBuf[:]); err != nil {
			return nil, rpmerr.Wrap("cpio.ReadHeader", rpmerr.ReadFailed, err)
		}
		v, err := strconv.ParseUint(string(fieldBuf[:]), 16, 32)
		if err != nil {
			return nil, rpmerr.New("cpio.ReadHeader", rpmerr.BadHeader)
		}
		fields[i] = uint32(v)
	}

	h := &Header{
		Ino:        fields[0],
		Mode:       fields[1],
		UID:        fields[2],
		GID:        fields[3],
		NLink:      fields[4],
		MTime:      fields[5],
		FileSize:   fields[6],
		DevMajor:   fields[7],
		DevMinor:   fields[8],
		RDevMajor:  fields[9],
		RDevMinor:  fields[10],
		Checksum:   fields[12],
		hasCRCKind: isCRC,
	}
	nameSize := fields[11]
	if nameSize == 0 {
		return nil, rpmerr.New("cpio.ReadHeader", rpmerr.BadHeader)
	}

	nameBuf := make([]byte, nameSize)
	if _, err := io.ReadFull(br, nameBuf); err != nil {
		return nil, rpmerr.Wrap("cpio.ReadHeader", rpmerr.ReadFailed, err)
	}
	if nameBuf[nameSize-1] != 0 {
		return nil, rpmerr.New("cpio.ReadHeader", rpmerr.BadHeader)
	}
	h.Name = string(nameBuf[:nameSize-1])

	if err := SkipPadding(br, headerSize+int(nameSize)); err != nil {
		return nil, err
	}
	return h, nil
}

// ReadData reads the entry's file content (h.FileSize bytes) and consumes
// the alignment padding that follows it.
func ReadData(r io.Reader, h *Header) ([]byte, error) {
	data := make([]byte, h.FileSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, rpmerr.Wrap("cpio.ReadData", rpmerr.ReadFailed, err)
	}
	if err := SkipPadding(r, int(h.FileSize)); err != nil {
		return nil, err
	}
	return data, nil
}

// SkipData discards the entry's file content and its alignment padding
// without buffering it, for callers (like a dry-run driver) that only need
// the metadata.
func SkipData(r io.Reader, h *Header) error {
	if _, err := io.CopyN(io.Discard, r, int64(h.FileSize)); err != nil {
		return rpmerr.Wrap("cpio.SkipData", rpmerr.ReadFailed, err)
	}
	return SkipPadding(r, int(h.FileSize))
}

// SkipPadding discards zero bytes until the total byte count consumed in
// this archive segment (passed in as consumed) reaches a 4-byte boundary.
func SkipPadding(r io.Reader, consumed int) error {
	pad := (4 - consumed%4) % 4
	if pad == 0 {
		return nil
	}
	if _, err := io.CopyN(io.Discard, r, int64(pad)); err != nil {
		return rpmerr.Wrap("cpio.SkipPadding", rpmerr.ReadFailed, err)
	}
	return nil
}

// WriteHeader encodes h (magic, 13 hex fields, NUL-terminated name, padding)
// onto w. The name written is h.Name plus its NUL terminator.
func WriteHeader(w io.Writer, h *Header) error {
	magic := magicNewASCII[0]
	if h.hasCRCKind {
		magic = magicNewASCII[1]
	}
	nameSize := uint32(len(h.Name) + 1)

	buf := make([]byte, 0, headerSize+int(nameSize)+3)
	buf = append(buf, magic...)
	for _, v := range []uint32{
		h.Ino, h.Mode, h.UID, h.GID, h.NLink, h.MTime, h.FileSize,
		h.DevMajor, h.DevMinor, h.RDevMajor, h.RDevMinor, nameSize, h.Checksum,
	} {
		buf = append(buf, []byte(fmt.Sprintf("%08x", v))...)
	}
	buf = append(buf, h.Name...)
	buf = append(buf, 0)
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}

	if _, err := w.Write(buf); err != nil {
		return rpmerr.Wrap("cpio.WriteHeader", rpmerr.WriteFailed, err)
	}
	return nil
}

// WriteData writes the entry's content plus its alignment padding.
func WriteData(w io.Writer, data []byte) error {
	if _, err := w.Write(data); err != nil {
		return rpmerr.Wrap("cpio.WriteData", rpmerr.WriteFailed, err)
	}
	pad := (4 - len(data)%4) % 4
	if pad == 0 {
		return nil
	}
	if _, err := w.Write(make([]byte, pad)); err != nil {
		return rpmerr.Wrap("cpio.WriteData", rpmerr.WriteFailed, err)
	}
	return nil
}

// WriteTrailer writes the TRAILER!!! sentinel entry that terminates a CPIO
// archive, matching the fields rpmbuild emits (NumberOfLinks=1, everything
// else zero).
func WriteTrailer(w io.Writer) error {
	return WriteHeader(w, &Header{NLink: 1, Name: TrailerName})
}
