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
	"github.com/holocm/rpmcore/rpmerr"
)

// decode turns a parsed (il, dl, infos, data) triple into a Header,
// detecting a leading region and classifying every entry as SourceRegion or
// SourceDribble per spec.md §4.1.2. This replaces the original's
// offset-sign trick (region members carry offset < 0) with the explicit
// Source/RegionID discriminant.
func decode(il, dl uint32, infos []entryInfo, data []byte) (*Header, error) {
	h := &Header{sorted: false}

	if il == 0 {
		return h, nil
	}

	regionCount, regionTag, err := detectRegion(infos, data)
	if err != nil {
		return nil, err
	}
	if regionCount == 0 {
		h.legacy = true
		regionCount = il
	}
	if regionCount > il {
		return nil, rpmerr.New("Header.Load", rpmerr.BadHeader)
	}

	seen := make(map[Tag]int, il)

	for i, info := range infos {
		tag := Tag(info.Tag)
		typ := Type(info.Type)
		if !typ.isValid() {
			return nil, rpmerr.New("Header.Load", rpmerr.BadHeader)
		}

		length, err := entryByteLength(typ, info.Count, data, int(info.Offset))
		if err != nil {
			return nil, err
		}
		start := int(info.Offset)
		end := start + length
		if start < 0 || end > len(data) || end < start {
			return nil, rpmerr.New("Header.Load", rpmerr.BadHeader)
		}

		owned := make([]byte, length)
		copy(owned, data[start:end])
		entry := IndexEntry{
			Tag:   tag,
			Type:  typ,
			Count: info.Count,
			Data:  owned,
		}
		if uint32(i) < regionCount {
			entry.Source = SourceRegion
			entry.RegionID = regionTag
		} else {
			entry.Source = SourceDribble
		}

		if prev, ok := seen[tag]; ok {
			// A dribble overrides a same-tagged region entry; the region
			// entry is dropped outright (spec.md §4.1.2, "dribbles").
			if entry.Source == SourceDribble && h.entries[prev].Source == SourceRegion {
				h.entries[prev] = entry
				continue
			}
			// Duplicate region tags, or a region entry arriving after its
			// own dribble override, is a corrupt header.
			return nil, rpmerr.New("Header.Load", rpmerr.BadHeader)
		}

		seen[tag] = len(h.entries)
		h.entries = append(h.entries, entry)
	}

	return h, nil
}

// detectRegion inspects the first index entry: if it is a recognized region
// tag (TagHeaderImmutable or TagHeaderSignatures) of BinType with Count==16,
// its Offset points into data at the 16-byte trailer record, whose own
// (negative) Offset, divided by -16, gives the number of index entries that
// belong to the region (including the leading entry itself). Returns
// regionCount==0 if the header carries no region (a "legacy" pre-region
// blob, per spec.md §9).
func detectRegion(infos []entryInfo, data []byte) (uint32, Tag, error) {
	first := infos[0]
	tag := Tag(first.Tag)
	if (tag != TagHeaderImmutable && tag != TagHeaderSignatures) ||
		Type(first.Type) != BinType || first.Count != 16 {
		return 0, 0, nil
	}

	off := int(first.Offset)
	if off < 0 || off+16 > len(data) {
		return 0, 0, rpmerr.New("Header.Load", rpmerr.BadHeader)
	}
	trailer := entryInfo{
		Tag:    beUint32(data[off : off+4]),
		Type:   beUint32(data[off+4 : off+8]),
		Offset: beUint32(data[off+8 : off+12]),
		Count:  beUint32(data[off+12 : off+16]),
	}
	if Tag(trailer.Tag) != tag || Type(trailer.Type) != BinType || trailer.Count != 16 {
		return 0, 0, rpmerr.New("Header.Load", rpmerr.BadHeader)
	}

	negOffset := int32(trailer.Offset)
	if negOffset >= 0 || negOffset%16 != 0 {
		return 0, 0, rpmerr.New("Header.Load", rpmerr.BadHeader)
	}
	count := uint32(-negOffset / 16)
	if count == 0 {
		return 0, 0, rpmerr.New("Header.Load", rpmerr.BadHeader)
	}
	return count, tag, nil
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// entryByteLength computes how many bytes of data an index entry occupies,
// given its declared type and count. For variable-width types (String,
// StringArray, I18NString) the length is derived by scanning for the
// required number of NUL terminators starting at offset, since the on-disk
// format does not store an explicit byte length per entry.
func entryByteLength(t Type, count uint32, data []byte, offset int) (int, error) {
	switch t {
	case NullType:
		return 0, nil
	case CharType, Int8Type:
		return int(count), nil
	case Int16Type:
		return int(count) * 2, nil
	case Int32Type:
		return int(count) * 4, nil
	case Int64Type:
		return int(count) * 8, nil
	case BinType:
		return int(count), nil
	case StringType, I18NStringType, StringArrayType:
		remaining := count
		if t == StringType {
			remaining = 1
		}
		pos := offset
		for remaining > 0 {
			if pos >= len(data) {
				return 0, rpmerr.New("Header.Load", rpmerr.BadHeader)
			}
			if data[pos] == 0 {
				remaining--
			}
			pos++
		}
		return pos - offset, nil
	default:
		return 0, rpmerr.New("Header.Load", rpmerr.BadHeader)
	}
}
