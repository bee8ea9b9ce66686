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

import "github.com/holocm/rpmcore/rpmerr"

// Source discriminates where an entry came from when a header was loaded,
// replacing the "offset < 0 means region" trick of the original format with
// an explicit tag per spec.md §9.
type Source int

const (
	// SourceNone is the zero value: entries created via Add/Append in this
	// process, not loaded from a blob.
	SourceNone Source = iota
	// SourceRegion marks an entry that was part of a loaded region (the
	// leading self-described block of a header blob).
	SourceRegion
	// SourceDribble marks an entry that was appended after a region was
	// sealed; dribbles override same-tagged region entries on load.
	SourceDribble
)

// IndexEntry is one (tag, type, count) record plus its payload. Invariant:
// Length always equals sizeOnDisk(Type, Count, Data).
type IndexEntry struct {
	Tag    Tag
	Type   Type
	Count  uint32
	Data   []byte // fully decoded element bytes, NOT including region-table entries
	Source Source
	// RegionID is only meaningful when Source == SourceRegion: the tag of
	// the region marker this entry belongs to (TagHeaderImmutable or
	// TagHeaderSignatures).
	RegionID Tag
}

// Length returns the number of data bytes this entry's Data occupies, which
// by invariant equals sizeOnDisk(Type, Count, Data).
func (e *IndexEntry) Length() int {
	return len(e.Data)
}

// sizeOnDisk computes the number of data bytes that count elements of type t
// occupy, given the fully assembled Data slice (needed for computing the
// byte length of String/StringArray/I18NString/Bin, which are not
// fixed-width).
func sizeOnDisk(t Type, data []byte, count uint32) (int, error) {
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
		return len(data), nil
	case StringType:
		if count != 1 {
			return 0, rpmerr.New("sizeOnDisk", rpmerr.BadHeader)
		}
		return len(data), nil
	case StringArrayType, I18NStringType:
		return len(data), nil
	default:
		return 0, rpmerr.New("sizeOnDisk", rpmerr.BadHeader)
	}
}
