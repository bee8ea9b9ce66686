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

// Package header implements the self-describing tagged binary header format:
// in-place regions, locale-aware string arrays, and append/modify/remove
// semantics over an ordered collection of tags.
package header

import "fmt"

// Type is the declared element type of a header entry, as stored in the
// on-disk EntryInfo.Type field. See [LSB, 25.2.2.2.1].
type Type uint32

// The recognized element types. Alignment on disk follows the element size
// (1/2/4/8 bytes); padding is always zero bytes.
const (
	NullType Type = iota
	CharType
	Int8Type
	Int16Type
	Int32Type
	Int64Type
	StringType
	BinType
	StringArrayType
	I18NStringType
)

var typeNames = map[Type]string{
	NullType:        "NULL",
	CharType:        "CHAR",
	Int8Type:        "INT8",
	Int16Type:       "INT16",
	Int32Type:       "INT32",
	Int64Type:       "INT64",
	StringType:      "STRING",
	BinType:         "BIN",
	StringArrayType: "STRING_ARRAY",
	I18NStringType:  "I18NSTRING",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", uint32(t))
}

// elementSize is the on-disk size of one scalar element of this type, used
// to derive alignment. Variable-length types (String, Bin, StringArray,
// I18NString) align to 1 byte; their Count/length is derived from content.
func (t Type) elementSize() int {
	switch t {
	case CharType, Int8Type, StringType, BinType, StringArrayType, I18NStringType:
		return 1
	case Int16Type:
		return 2
	case Int32Type:
		return 4
	case Int64Type:
		return 8
	default:
		return 1
	}
}

// isValid reports whether t is one of the ten recognized types.
func (t Type) isValid() bool {
	return t <= I18NStringType
}

// Tag identifies the semantics of a header entry. The numeric space is
// shared between the signature header and the metadata header; which table
// applies is a matter of convention enforced by the caller, not by Tag
// itself.
type Tag uint32
