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

package headerfmt

import (
	"strconv"
	"strings"

	"github.com/holocm/rpmcore/header"
)

// Eval compiles format and renders it against h. format is parsed fresh on
// every call; callers evaluating the same format string repeatedly should
// cache it with Parse/Format.Eval instead.
func Eval(format string, h *header.Header) (string, error) {
	f, err := Parse(format)
	if err != nil {
		return "", err
	}
	return f.Eval(h)
}

// Format is a parsed, reusable format string.
type Format struct {
	nodes []node
}

// Parse compiles format into a reusable Format, or a *FormatError.
func Parse(format string) (*Format, error) {
	nodes, err := parse(format)
	if err != nil {
		return nil, err
	}
	return &Format{nodes: nodes}, nil
}

// Eval renders f against h.
func (f *Format) Eval(h *header.Header) (string, error) {
	// %{*:xml} is the one recognized trigger for the document-level xml
	// output type (spec.md §4.2): it dumps every user-visible tag, which
	// is the only shape in which "wrap array output in rpmTag elements"
	// makes unambiguous sense.
	if len(f.nodes) == 1 {
		if t, ok := f.nodes[0].(*tagNode); ok && t.tagName == "*" && t.formatter == "xml" {
			return evalXMLDump(h)
		}
	}

	var buf strings.Builder
	if err := evalNodes(f.nodes, h, -1, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func evalNodes(nodes []node, h *header.Header, idx int, buf *strings.Builder) error {
	for _, n := range nodes {
		switch t := n.(type) {
		case *litNode:
			buf.WriteString(t.text)
		case *tagNode:
			if t.tagName == "*" {
				evalAllTagsPlain(h, buf)
				continue
			}
			s, err := renderTagNode(t, h, idx)
			if err != nil {
				return err
			}
			buf.WriteString(s)
		case *arrayNode:
			n, err := collectArrayCount(t.body, h)
			if err != nil {
				return err
			}
			for i := 0; i < n; i++ {
				if err := evalNodes(t.body, h, i, buf); err != nil {
					return err
				}
			}
		case *condNode:
			present, err := tagPresent(t.tagName, h)
			if err != nil {
				return err
			}
			if present {
				if err := evalNodes(t.thenBody, h, idx, buf); err != nil {
					return err
				}
			} else if t.elseBody != nil {
				if err := evalNodes(t.elseBody, h, idx, buf); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func renderTagNode(t *tagNode, h *header.Header, idx int) (string, error) {
	tag, ok := resolveTagName(t.tagName)
	if !ok {
		return "", formatErrf("unknown tag %q", t.tagName)
	}
	_, values, present := resolveTagValues(h, tag)

	if t.sel == '#' {
		return applyPad(t.pad, strconv.Itoa(len(values))), nil
	}
	if !present || len(values) == 0 {
		return applyPad(t.pad, ""), nil
	}

	if t.sel == '=' {
		s, err := applyFormatter(t.formatter, values[0])
		if err != nil {
			return "", err
		}
		return applyPad(t.pad, s), nil
	}

	if idx >= 0 {
		v := values[len(values)-1]
		if idx < len(values) {
			v = values[idx]
		}
		s, err := applyFormatter(t.formatter, v)
		if err != nil {
			return "", err
		}
		return applyPad(t.pad, s), nil
	}

	// Scalar reference to a multi-valued tag outside any [...] iteration:
	// join every element with a space, matching the common rpm default.
	parts := make([]string, len(values))
	for i, v := range values {
		s, err := applyFormatter(t.formatter, v)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return applyPad(t.pad, strings.Join(parts, " ")), nil
}

func tagPresent(name string, h *header.Header) (bool, error) {
	if name == "*" {
		return true, nil
	}
	tag, ok := resolveTagName(name)
	if !ok {
		return false, formatErrf("unknown tag %q", name)
	}
	_, _, present := resolveTagValues(h, tag)
	return present, nil
}

func applyPad(pad int, s string) string {
	if pad <= 0 || len(s) >= pad {
		return s
	}
	return strings.Repeat(" ", pad-len(s)) + s
}

// resolveTagValues normalizes any header entry into a slice of scalar
// values (string or int64), the shape every formatter and array iterator
// in this package operates on. Int8/Int64/Bin/Char entries, which this
// build's header accessors don't expose typed getters for, fall back to a
// single hex-encoded element.
func resolveTagValues(h *header.Header, tag header.Tag) (typ header.Type, values []interface{}, present bool) {
	t, data, _, ok := h.GetRaw(tag)
	if !ok {
		return header.NullType, nil, false
	}
	switch t {
	case header.StringType, header.I18NStringType:
		s, _ := h.GetString(tag)
		return t, []interface{}{s}, true
	case header.StringArrayType:
		arr, _ := h.GetStringArray(tag)
		vals := make([]interface{}, len(arr))
		for i, s := range arr {
			vals[i] = s
		}
		return t, vals, true
	case header.Int32Type:
		arr, _ := h.GetInt32Array(tag)
		vals := make([]interface{}, len(arr))
		for i, n := range arr {
			vals[i] = int64(n)
		}
		return t, vals, true
	case header.Int16Type:
		arr, _ := h.GetInt16Array(tag)
		vals := make([]interface{}, len(arr))
		for i, n := range arr {
			vals[i] = int64(n)
		}
		return t, vals, true
	default:
		return t, []interface{}{hexBytes(data)}, true
	}
}

func hexBytes(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexDigits[c>>4]
		out[i*2+1] = hexDigits[c&0xf]
	}
	return string(out)
}

// collectArrayCount determines how many times a "[...]" block iterates:
// the maximum element count across the array-typed tags it references
// directly (not inside a nested "[...]"). A non-maximal array reference
// longer than one element is a format error, per spec.md §4.2.
func collectArrayCount(nodes []node, h *header.Header) (int, error) {
	max := 0
	var counts []int

	var walk func([]node) error
	walk = func(ns []node) error {
		for _, n := range ns {
			switch t := n.(type) {
			case *tagNode:
				if t.tagName == "*" {
					continue
				}
				tag, ok := resolveTagName(t.tagName)
				if !ok {
					return formatErrf("unknown tag %q", t.tagName)
				}
				typ, values, present := resolveTagValues(h, tag)
				if !present {
					continue
				}
				if typ == header.StringArrayType || typ == header.Int16Type || typ == header.Int32Type {
					counts = append(counts, len(values))
					if len(values) > max {
						max = len(values)
					}
				}
			case *condNode:
				if err := walk(t.thenBody); err != nil {
					return err
				}
				if err := walk(t.elseBody); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(nodes); err != nil {
		return 0, err
	}
	for _, c := range counts {
		if c > 1 && c != max {
			return 0, formatErrf("mismatched array lengths in format string (%d vs %d)", c, max)
		}
	}
	if max == 0 {
		max = 1
	}
	return max, nil
}
