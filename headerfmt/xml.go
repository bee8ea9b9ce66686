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
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/holocm/rpmcore/header"
)

// evalAllTagsPlain renders the `*` pseudo-tag outside of the xml output
// type: one "NAME: values" line per user-visible tag that has a name in
// this package's tag table, in tag order; tags without a name there (such
// as BASENAMES or DIRNAMES) are left out.
func evalAllTagsPlain(h *header.Header, buf *strings.Builder) {
	it := h.IterInit()
	for {
		tag, ok := it.Next()
		if !ok {
			return
		}
		name, ok := nameByTag[tag]
		if !ok {
			continue
		}
		_, values, _ := resolveTagValues(h, tag)
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i], _ = applyFormatter("", v)
		}
		buf.WriteString(name)
		buf.WriteString(": ")
		buf.WriteString(strings.Join(parts, " "))
		buf.WriteString("\n")
	}
}

// evalXMLDump implements the `xml` output type (spec.md §4.2): every
// user-visible tag that has a name in this package's tag table wrapped in
// "<rpmTag name=\"NAME\">", the whole document wrapped in "<rpmHeader>";
// tags without a name there are left out.
func evalXMLDump(h *header.Header) (string, error) {
	var buf strings.Builder
	buf.WriteString("<rpmHeader>\n")

	it := h.IterInit()
	for {
		tag, ok := it.Next()
		if !ok {
			break
		}
		name, ok := nameByTag[tag]
		if !ok {
			continue
		}
		_, values, present := resolveTagValues(h, tag)
		if !present {
			continue
		}
		fmt.Fprintf(&buf, "  <rpmTag name=%q>\n", name)
		for _, v := range values {
			s, _ := applyFormatter("", v)
			buf.WriteString("    ")
			buf.WriteString(xmlEscape(s))
			buf.WriteString("\n")
		}
		buf.WriteString("  </rpmTag>\n")
	}

	buf.WriteString("</rpmHeader>\n")
	return buf.String(), nil
}

func xmlEscape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
