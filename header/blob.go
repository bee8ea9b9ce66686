/*******************************************************************************
*
* Copyright 2015-2018 Stefan Majewsky <majewsky@gmx.net>
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

package header

import (
	"encoding/binary"
	"io"

	"github.com/orcaman/writerseeker"

	"github.com/holocm/rpmcore/rpmerr"
)

// Magic is the optional 8-byte prefix that precedes a header blob on disk:
// {0x8E,0xAD,0xE8,0x01, 0x00,0x00,0x00,0x00}.
var Magic = [8]byte{0x8E, 0xAD, 0xE8, 0x01, 0x00, 0x00, 0x00, 0x00}

// entryInfo is the on-disk 16-byte record: (tag, type, offset, count), all
// big-endian.
type entryInfo struct {
	Tag, Type, Offset, Count uint32
}

// Unload serializes h into a blob. It guarantees that Load(Unload(h))
// yields a structurally equivalent Header (tag-by-tag (type, count, data)
// equal), though the Sorted/Allocated bookkeeping flags are not round
// tripped, as they are not part of the wire format.
//
// The output always carries exactly one leading region tagged
// TagHeaderImmutable, per the "regions always span the whole header" layout
// that holo-build's rpmHeader.ToBinary produces; this implementation
// generalizes that to re-derive the region purely from the live index
// instead of keeping an aliased blob around.
func Unload(h *Header) ([]byte, error) {
	return unloadWithRegion(h, TagHeaderImmutable)
}

// Reload unloads then reloads h, stamping the leading region with
// regionTag. Used to "seal" a Header under a different region identity
// (e.g. switching between TagHeaderImmutable and TagHeaderSignatures).
func Reload(h *Header, regionTag Tag) (*Header, error) {
	blob, err := unloadWithRegion(h, regionTag)
	if err != nil {
		return nil, err
	}
	return Load(blob)
}

func unloadWithRegion(h *Header, regionTag Tag) ([]byte, error) {
	ordered := h.unsortForSerialize()

	ws := &writerseeker.WriterSeeker{}

	var dataBuf []byte
	infos := make([]entryInfo, 0, len(ordered)+1)
	for _, e := range ordered {
		if e.Tag == TagHeaderImmutable || e.Tag == TagHeaderSignatures {
			// a loaded region's marker; the region is re-derived below
			continue
		}
		// alignment padding per element size, zero-filled
		align := e.Type.elementSize()
		for align > 1 && len(dataBuf)%align != 0 {
			dataBuf = append(dataBuf, 0)
		}
		offset := len(dataBuf)
		dataBuf = append(dataBuf, e.Data...)
		infos = append(infos, entryInfo{
			Tag:    uint32(e.Tag),
			Type:   uint32(e.Type),
			Offset: uint32(offset),
			Count:  e.Count,
		})
	}

	// region marker: index record at start pointing at a trailing
	// sub-index entry, mirroring [LSB,25.2.2] and holo-build's ToBinary.
	regionDataOffset := len(dataBuf)

	il := uint32(len(infos) + 1)
	dl := uint32(len(dataBuf) + 16)

	if il > MaxIndexEntries || dl > MaxDataSize || uint64(il)*16+uint64(dl)+8 > MaxBlobSize {
		return nil, rpmerr.New("Header.Unload", rpmerr.BadHeader)
	}

	headRecord := entryInfo{
		Tag:    uint32(regionTag),
		Type:   uint32(BinType),
		Offset: uint32(regionDataOffset),
		Count:  16,
	}
	trailerRecord := entryInfo{
		Tag:    uint32(regionTag),
		Type:   uint32(BinType),
		Offset: uint32(int32(-(int32(len(infos)) + 1) * 16)),
		Count:  16,
	}

	if err := binary.Write(ws, binary.BigEndian, &il); err != nil {
		return nil, rpmerr.Wrap("Header.Unload", rpmerr.WriteFailed, err)
	}
	if err := binary.Write(ws, binary.BigEndian, &dl); err != nil {
		return nil, rpmerr.Wrap("Header.Unload", rpmerr.WriteFailed, err)
	}
	if err := binary.Write(ws, binary.BigEndian, &headRecord); err != nil {
		return nil, rpmerr.Wrap("Header.Unload", rpmerr.WriteFailed, err)
	}
	for _, info := range infos {
		if err := binary.Write(ws, binary.BigEndian, &info); err != nil {
			return nil, rpmerr.Wrap("Header.Unload", rpmerr.WriteFailed, err)
		}
	}
	if _, err := ws.Write(dataBuf); err != nil {
		return nil, rpmerr.Wrap("Header.Unload", rpmerr.WriteFailed, err)
	}
	if err := binary.Write(ws, binary.BigEndian, &trailerRecord); err != nil {
		return nil, rpmerr.Wrap("Header.Unload", rpmerr.WriteFailed, err)
	}

	return readAll(ws)
}

func readAll(ws *writerseeker.WriterSeeker) ([]byte, error) {
	r := ws.Reader()
	return io.ReadAll(r)
}

// Sizeof returns the number of bytes Write would emit for h.
func Sizeof(h *Header, withMagic bool) (int, error) {
	blob, err := Unload(h)
	if err != nil {
		return 0, err
	}
	if withMagic {
		return len(blob) + len(Magic), nil
	}
	return len(blob), nil
}

// Write frames h onto stream: an optional 8-byte magic, followed by the
// blob from Unload.
func Write(stream io.Writer, h *Header, withMagic bool) error {
	if withMagic {
		if _, err := stream.Write(Magic[:]); err != nil {
			return rpmerr.Wrap("Header.Write", rpmerr.WriteFailed, err)
		}
	}
	blob, err := Unload(h)
	if err != nil {
		return err
	}
	if _, err := stream.Write(blob); err != nil {
		return rpmerr.Wrap("Header.Write", rpmerr.WriteFailed, err)
	}
	return nil
}

// Read reads a framed Header from stream, optionally expecting the magic
// prefix first.
func Read(stream io.Reader, expectMagic bool) (*Header, error) {
	if expectMagic {
		var magic [8]byte
		if _, err := io.ReadFull(stream, magic[:]); err != nil {
			return nil, rpmerr.Wrap("Header.Read", rpmerr.ReadFailed, err)
		}
		if magic != Magic {
			return nil, rpmerr.New("Header.Read", rpmerr.BadMagic)
		}
	}

	var il, dl uint32
	if err := binary.Read(stream, binary.BigEndian, &il); err != nil {
		return nil, rpmerr.Wrap("Header.Read", rpmerr.ReadFailed, err)
	}
	if err := binary.Read(stream, binary.BigEndian, &dl); err != nil {
		return nil, rpmerr.Wrap("Header.Read", rpmerr.ReadFailed, err)
	}
	if err := checkLimits(il, dl); err != nil {
		return nil, err
	}

	infos := make([]entryInfo, il)
	for i := range infos {
		if err := binary.Read(stream, binary.BigEndian, &infos[i]); err != nil {
			return nil, rpmerr.Wrap("Header.Read", rpmerr.ReadFailed, err)
		}
	}
	data := make([]byte, dl)
	if _, err := io.ReadFull(stream, data); err != nil {
		return nil, rpmerr.Wrap("Header.Read", rpmerr.ReadFailed, err)
	}

	return decode(il, dl, infos, data)
}

// Load parses blob (without the optional 8-byte magic) into a Header.
// Fails with BadHeader if any sanity limit is violated.
func Load(blob []byte) (*Header, error) {
	if len(blob) < 8 {
		return nil, rpmerr.New("Header.Load", rpmerr.BadHeader)
	}
	il := binary.BigEndian.Uint32(blob[0:4])
	dl := binary.BigEndian.Uint32(blob[4:8])
	if err := checkLimits(il, dl); err != nil {
		return nil, err
	}

	need := 8 + uint64(il)*16 + uint64(dl)
	if uint64(len(blob)) < need {
		return nil, rpmerr.New("Header.Load", rpmerr.BadHeader)
	}

	infos := make([]entryInfo, il)
	pos := 8
	for i := range infos {
		infos[i] = entryInfo{
			Tag:    binary.BigEndian.Uint32(blob[pos : pos+4]),
			Type:   binary.BigEndian.Uint32(blob[pos+4 : pos+8]),
			Offset: binary.BigEndian.Uint32(blob[pos+8 : pos+12]),
			Count:  binary.BigEndian.Uint32(blob[pos+12 : pos+16]),
		}
		pos += 16
	}
	data := blob[pos : pos+int(dl)]

	return decode(il, dl, infos, data)
}

// CopyLoad is Load, but defensively copies blob first so the returned
// Header shares no backing array with the caller's slice.
func CopyLoad(blob []byte) (*Header, error) {
	cp := make([]byte, len(blob))
	copy(cp, blob)
	return Load(cp)
}

func checkLimits(il, dl uint32) error {
	if il > MaxIndexEntries {
		return rpmerr.New("Header.Load", rpmerr.BadHeader)
	}
	if dl > MaxDataSize {
		return rpmerr.New("Header.Load", rpmerr.BadHeader)
	}
	total := uint64(il)*16 + uint64(dl) + 8
	if total > MaxBlobSize {
		return rpmerr.New("Header.Load", rpmerr.BadHeader)
	}
	return nil
}
