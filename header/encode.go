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

// buildEntry encodes data (one of string, []string, []byte, []int16,
// []int32, []int64) into an IndexEntry of the requested type,
// mirroring the AddXxxValue family in holo-build's rpm.Header, generalized
// to the full declared type set.
func buildEntry(tag Tag, typ Type, data interface{}, count uint32) (IndexEntry, error) {
	if !typ.isValid() {
		return IndexEntry{}, rpmerr.New("Header.Add", rpmerr.BadHeader)
	}

	var out []byte
	switch typ {
	case NullType:
		// no payload

	case CharType, Int8Type:
		bytesData, ok := data.([]byte)
		if !ok || uint32(len(bytesData)) != count {
			return IndexEntry{}, rpmerr.New("Header.Add", rpmerr.BadHeader)
		}
		out = bytesData

	case Int16Type:
		values, ok := data.([]int16)
		if !ok || uint32(len(values)) != count {
			return IndexEntry{}, rpmerr.New("Header.Add", rpmerr.BadHeader)
		}
		out = make([]byte, 0, len(values)*2)
		for _, v := range values {
			out = append(out, byte(uint16(v)>>8), byte(uint16(v)))
		}

	case Int32Type:
		values, ok := data.([]int32)
		if !ok || uint32(len(values)) != count {
			return IndexEntry{}, rpmerr.New("Header.Add", rpmerr.BadHeader)
		}
		out = make([]byte, 0, len(values)*4)
		for _, v := range values {
			u := uint32(v)
			out = append(out, byte(u>>24), byte(u>>16), byte(u>>8), byte(u))
		}

	case Int64Type:
		values, ok := data.([]int64)
		if !ok || uint32(len(values)) != count {
			return IndexEntry{}, rpmerr.New("Header.Add", rpmerr.BadHeader)
		}
		out = make([]byte, 0, len(values)*8)
		for _, v := range values {
			u := uint64(v)
			for shift := 56; shift >= 0; shift -= 8 {
				out = append(out, byte(u>>uint(shift)))
			}
		}

	case BinType:
		bytesData, ok := data.([]byte)
		if !ok {
			return IndexEntry{}, rpmerr.New("Header.Add", rpmerr.BadHeader)
		}
		out = bytesData
		count = uint32(len(bytesData))

	case StringType:
		s, ok := data.(string)
		if !ok || count != 1 {
			return IndexEntry{}, rpmerr.New("Header.Add", rpmerr.BadHeader)
		}
		out = append([]byte(s), 0)

	case StringArrayType, I18NStringType:
		strs, ok := data.([]string)
		if !ok || uint32(len(strs)) != count {
			return IndexEntry{}, rpmerr.New("Header.Add", rpmerr.BadHeader)
		}
		for _, s := range strs {
			out = append(out, s...)
			out = append(out, 0)
		}
	}

	length, err := sizeOnDisk(typ, out, count)
	if err != nil {
		return IndexEntry{}, err
	}
	if length != len(out) {
		return IndexEntry{}, rpmerr.New("Header.Add", rpmerr.Internal)
	}

	return IndexEntry{Tag: tag, Type: typ, Data: out, Count: count}, nil
}
