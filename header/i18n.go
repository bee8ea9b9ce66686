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
	"os"
	"strings"
)

// AddI18NString adds s as the translation for lang (the empty string means
// "C", the untranslated default). If lang is new, it is appended to
// HEADERI18NTABLE and the string array for tag is padded with empty strings
// for every locale that does not yet have a translation, mirroring
// holo-build's AddStringValue(..., i18n=true) but generalized to more than
// one locale.
func (h *Header) AddI18NString(tag Tag, s string, lang string) error {
	if lang == "" {
		lang = "C"
	}

	locales, hasTable := h.GetStringArray(TagHeaderI18NTable)
	if !hasTable {
		locales = []string{"C"}
		if err := h.Add(TagHeaderI18NTable, StringArrayType, locales, uint32(len(locales))); err != nil {
			return err
		}
	}

	localeIdx := indexOfString(locales, lang)
	if localeIdx < 0 {
		locales = append(locales, lang)
		localeIdx = len(locales) - 1
		if err := h.Modify(TagHeaderI18NTable, StringArrayType, locales, uint32(len(locales))); err != nil {
			return err
		}
	}

	existing, hasTag := h.GetStringArray(tag)
	if !hasTag {
		existing = make([]string, len(locales))
	}
	for len(existing) < len(locales) {
		existing = append(existing, "")
	}
	existing[localeIdx] = s

	return h.Modify(tag, I18NStringType, existing, uint32(len(existing)))
}

func indexOfString(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

// resolveI18N picks the best-matching locale string for the environment's
// LANGUAGE/LC_ALL/LC_MESSAGES/LANG, falling back to the first array element.
// See spec.md §4.1.3 for the exact fallback order.
func (h *Header) resolveI18N(data []byte, count uint32) string {
	strs := splitNULArray(data, count)
	if len(strs) == 0 {
		return ""
	}
	locales, ok := h.GetStringArray(TagHeaderI18NTable)
	if !ok || len(locales) == 0 {
		locales = []string{"C"}
	}

	weakIdx := -1
	for _, envVar := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}
		for _, candidate := range strings.Split(value, ":") {
			idx, strong := matchLocale(locales, candidate)
			if idx < 0 || idx >= len(strs) {
				continue
			}
			if strong {
				return strs[idx]
			}
			if weakIdx < 0 {
				weakIdx = idx
			}
		}
	}
	if weakIdx >= 0 {
		return strs[weakIdx]
	}
	return strs[0]
}

// matchLocale tries candidate against locales with progressive fallback:
// exact -> strip @modifier -> strip .charset -> strip _country (weak match,
// only used if nothing stronger was found anywhere in the locale scan).
// It returns the matched index and whether the match was "strong" (anything
// but the final _country-stripped fallback).
func matchLocale(locales []string, candidate string) (int, bool) {
	variants := localeFallbackChain(candidate)
	for level, v := range variants {
		for idx, locale := range locales {
			if locale == v {
				return idx, level < len(variants)-1
			}
		}
	}
	return -1, false
}

// localeFallbackChain expands "ll_CC.EEEE@dd" into the progressively
// weaker forms: exact, @dd stripped, .EEEE stripped, _CC stripped.
func localeFallbackChain(locale string) []string {
	chain := []string{locale}

	stripAt := locale
	if i := strings.IndexByte(stripAt, '@'); i >= 0 {
		stripAt = stripAt[:i]
		chain = append(chain, stripAt)
	}

	stripDot := stripAt
	if i := strings.IndexByte(stripDot, '.'); i >= 0 {
		stripDot = stripDot[:i]
		chain = append(chain, stripDot)
	}

	if i := strings.IndexByte(stripDot, '_'); i >= 0 {
		chain = append(chain, stripDot[:i])
	}

	return chain
}
