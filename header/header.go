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
	"sort"

	"github.com/holocm/rpmcore/rpmerr"
)

// Hard limits from the on-disk format. Any blob exceeding these is a fatal
// BadHeader, never silently truncated.
const (
	MaxIndexEntries = 65535
	MaxDataSize     = 16 << 20 // 16 MiB
	MaxBlobSize     = 32 << 20 // 32 MiB
)

// Header is an ordered collection of IndexEntry. Unlike the C original, a
// Header here owns no aliased backing blob: Load copies what it needs into
// entry-owned slices, and Unload always re-derives the blob from the live
// index (spec.md §9, "reference-counted headers with blob aliasing").
type Header struct {
	entries []IndexEntry
	sorted  bool
	// legacy marks a header loaded from a blob whose first region lacked
	// its own self-tag (pre-regions format).
	legacy bool
	// i18nTable is not populated; locale lookups read HEADERI18NTABLE from
	// the entries each time.
	i18nTable []string
}

// New returns an empty Header.
func New() *Header {
	return &Header{sorted: true}
}

// IsEntry reports whether tag is present in h.
func (h *Header) IsEntry(tag Tag) bool {
	return h.find(tag) >= 0
}

// find returns the index into h.entries of the first entry for tag, or -1.
// It sorts h first if necessary, per spec.md §4.1.1.
func (h *Header) find(tag Tag) int {
	h.ensureSorted()
	entries := h.entries
	idx := sort.Search(len(entries), func(i int) bool { return entries[i].Tag >= tag })
	if idx < len(entries) && entries[idx].Tag == tag {
		return idx
	}
	return -1
}

// ensureSorted re-sorts the entry slice by tag if the Sorted flag was
// cleared by a prior unordered mutation, then sets it. Ties are broken by
// source (region entries keep their relative order, dribbles keep theirs)
// which sort.SliceStable guarantees.
func (h *Header) ensureSorted() {
	if h.sorted {
		return
	}
	sort.SliceStable(h.entries, func(i, j int) bool {
		return h.entries[i].Tag < h.entries[j].Tag
	})
	h.sorted = true
}

// unsortForSerialize returns the order Unload emits entries in: every
// entry loaded from a region first, then every other entry, each group in
// ascending tag order (stable, so entries with equal tags keep their
// relative order). This implementation does not track raw on-disk
// offsets, so the original disk order of region members is not
// reproduced.
func (h *Header) unsortForSerialize() []IndexEntry {
	out := make([]IndexEntry, len(h.entries))
	copy(out, h.entries)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		ra := a.Source == SourceRegion
		rb := b.Source == SourceRegion
		if ra != rb {
			// region entries precede all other entries, whatever their
			// tags (dribble override happens at load time by removing the
			// region entry outright, so no tag appears in both groups).
			return ra
		}
		return a.Tag < b.Tag
	})
	return out
}

// Add appends a new entry. Forbidden if count < 1 or the type/data
// combination fails sanity checks.
func (h *Header) Add(tag Tag, typ Type, data interface{}, count uint32) error {
	if count < 1 {
		return rpmerr.New("Header.Add", rpmerr.BadHeader)
	}
	entry, err := buildEntry(tag, typ, data, count)
	if err != nil {
		return err
	}
	h.entries = append(h.entries, entry)
	h.sorted = false
	return nil
}

// Append extends an existing non-scalar entry with more elements. Forbidden
// for String and I18NString (which are inherently scalar/locale-keyed).
func (h *Header) Append(tag Tag, typ Type, data interface{}, count uint32) error {
	if typ == StringType || typ == I18NStringType {
		return rpmerr.New("Header.Append", rpmerr.BadHeader)
	}
	idx := h.find(tag)
	if idx < 0 {
		return h.Add(tag, typ, data, count)
	}
	existing := &h.entries[idx]
	if existing.Type != typ {
		return rpmerr.New("Header.Append", rpmerr.BadHeader)
	}
	addition, err := buildEntry(tag, typ, data, count)
	if err != nil {
		return err
	}
	existing.Data = append(existing.Data, addition.Data...)
	existing.Count += count
	return nil
}

// AddOrAppend adds tag if absent, otherwise appends to it.
func (h *Header) AddOrAppend(tag Tag, typ Type, data interface{}, count uint32) error {
	if h.IsEntry(tag) {
		return h.Append(tag, typ, data, count)
	}
	return h.Add(tag, typ, data, count)
}

// Modify replaces the payload of the first occurrence of tag.
func (h *Header) Modify(tag Tag, typ Type, data interface{}, count uint32) error {
	idx := h.find(tag)
	if idx < 0 {
		return h.Add(tag, typ, data, count)
	}
	entry, err := buildEntry(tag, typ, data, count)
	if err != nil {
		return err
	}
	entry.Source = h.entries[idx].Source
	entry.RegionID = h.entries[idx].RegionID
	h.entries[idx] = entry
	return nil
}

// Remove deletes all entries for tag. O(len(entries)).
func (h *Header) Remove(tag Tag) {
	out := h.entries[:0]
	for _, e := range h.entries {
		if e.Tag != tag {
			out = append(out, e)
		}
	}
	h.entries = out
}

// GetRaw returns the entry for tag verbatim, without I18N translation.
func (h *Header) GetRaw(tag Tag) (Type, []byte, uint32, bool) {
	idx := h.find(tag)
	if idx < 0 {
		return NullType, nil, 0, false
	}
	e := h.entries[idx]
	return e.Type, e.Data, e.Count, true
}

// Get is the canonical getter: for I18NString entries it returns the
// best-matching locale string (as a String-typed single element), per
// spec.md §4.1.3. For everything else it behaves like GetRaw.
func (h *Header) Get(tag Tag) (Type, []byte, uint32, bool) {
	typ, data, count, ok := h.GetRaw(tag)
	if !ok || typ != I18NStringType {
		return typ, data, count, ok
	}
	s := h.resolveI18N(data, count)
	return StringType, append([]byte(s), 0), 1, true
}

// GetString is a convenience wrapper around Get for String/I18NString tags.
func (h *Header) GetString(tag Tag) (string, bool) {
	typ, data, _, ok := h.Get(tag)
	if !ok || (typ != StringType && typ != I18NStringType) {
		return "", false
	}
	return trimNUL(data), true
}

// GetStringArray is a convenience wrapper for StringArray/I18NString tags;
// for I18NString, it returns the raw per-locale array (not translated).
func (h *Header) GetStringArray(tag Tag) ([]string, bool) {
	typ, data, count, ok := h.GetRaw(tag)
	if !ok || (typ != StringArrayType && typ != I18NStringType) {
		return nil, false
	}
	return splitNULArray(data, count), true
}

// GetInt32Array returns the elements of an Int32 entry.
func (h *Header) GetInt32Array(tag Tag) ([]int32, bool) {
	typ, data, count, ok := h.GetRaw(tag)
	if !ok || typ != Int32Type {
		return nil, false
	}
	return decodeInt32Array(data, count), true
}

// GetInt16Array returns the elements of an Int16 entry.
func (h *Header) GetInt16Array(tag Tag) ([]int16, bool) {
	typ, data, count, ok := h.GetRaw(tag)
	if !ok || typ != Int16Type {
		return nil, false
	}
	return decodeInt16Array(data, count), true
}

// Copy returns a deep clone of h.
func (h *Header) Copy() *Header {
	out := &Header{
		sorted: h.sorted,
		legacy: h.legacy,
	}
	out.entries = make([]IndexEntry, len(h.entries))
	for i, e := range h.entries {
		data := make([]byte, len(e.Data))
		copy(data, e.Data)
		e.Data = data
		out.entries[i] = e
	}
	return out
}

// CopyTags copies each tag in tags from src to dst, but only if dst does not
// already have it.
func CopyTags(src, dst *Header, tags []Tag) {
	for _, tag := range tags {
		if dst.IsEntry(tag) {
			continue
		}
		typ, data, count, ok := src.GetRaw(tag)
		if !ok {
			continue
		}
		cp := make([]byte, len(data))
		copy(cp, data)
		dst.entries = append(dst.entries, IndexEntry{Tag: tag, Type: typ, Data: cp, Count: count})
		dst.sorted = false
	}
}

// Iterator walks the user-visible tags of a Header exactly once, skipping
// region markers.
type Iterator struct {
	h   *Header
	pos int
}

// IterInit starts an iteration over h in tag order.
func (h *Header) IterInit() *Iterator {
	h.ensureSorted()
	return &Iterator{h: h}
}

// Next returns the next user-visible tag, or ok=false at the end.
func (it *Iterator) Next() (Tag, bool) {
	for it.pos < len(it.h.entries) {
		e := it.h.entries[it.pos]
		it.pos++
		if e.Tag == TagHeaderImmutable || e.Tag == TagHeaderSignatures {
			continue
		}
		return e.Tag, true
	}
	return 0, false
}

func trimNUL(data []byte) string {
	if i := indexByte(data, 0); i >= 0 {
		return string(data[:i])
	}
	return string(data)
}

func indexByte(data []byte, b byte) int {
	for i, c := range data {
		if c == b {
			return i
		}
	}
	return -1
}

func splitNULArray(data []byte, count uint32) []string {
	out := make([]string, 0, count)
	start := 0
	for i := 0; i < len(data) && uint32(len(out)) < count; i++ {
		if data[i] == 0 {
			out = append(out, string(data[start:i]))
			start = i + 1
		}
	}
	return out
}

func decodeInt32Array(data []byte, count uint32) []int32 {
	out := make([]int32, count)
	for i := range out {
		off := i * 4
		out[i] = int32(uint32(data[off])<<24 | uint32(data[off+1])<<16 | uint32(data[off+2])<<8 | uint32(data[off+3]))
	}
	return out
}

func decodeInt16Array(data []byte, count uint32) []int16 {
	out := make([]int16, count)
	for i := range out {
		off := i * 2
		out[i] = int16(uint16(data[off])<<8 | uint16(data[off+1]))
	}
	return out
}
