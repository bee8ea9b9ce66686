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
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout = "Mon Jan  2 15:04:05 2006"
	dayLayout  = "Mon Jan  2 2006"
)

// applyFormatter renders v (a string or an integer, depending on the tag's
// declared type) under the named formatter. An empty name means the
// default rendering for v's type.
func applyFormatter(name string, v interface{}) (string, error) {
	switch name {
	case "":
		return fmt.Sprintf("%v", v), nil
	case "octal":
		n, ok := asInt64(v)
		if !ok {
			return "", formatErrf("formatter 'octal' requires an integer tag")
		}
		return fmt.Sprintf("%o", n), nil
	case "hex":
		n, ok := asInt64(v)
		if !ok {
			return "", formatErrf("formatter 'hex' requires an integer tag")
		}
		return fmt.Sprintf("%x", n), nil
	case "date":
		n, ok := asInt64(v)
		if !ok {
			return "", formatErrf("formatter 'date' requires an integer tag")
		}
		return time.Unix(n, 0).UTC().Format(dateLayout), nil
	case "day":
		n, ok := asInt64(v)
		if !ok {
			return "", formatErrf("formatter 'day' requires an integer tag")
		}
		return time.Unix(n, 0).UTC().Format(dayLayout), nil
	case "shescape":
		s := fmt.Sprintf("%v", v)
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'", nil
	default:
		return "", formatErrf("unknown formatter %q", name)
	}
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int16:
		return int64(n), true
	default:
		return 0, false
	}
}
