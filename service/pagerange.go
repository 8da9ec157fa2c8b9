// seehuhn.de/go/printjob - drive a page renderer from a print service
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PageRange is an inclusive range of zero-based page indices.
type PageRange struct {
	Start, End int
}

// AllPages selects every page of a document.
var AllPages = PageRange{Start: 0, End: math.MaxInt}

// Contains reports whether page index i is in the range.
func (r PageRange) Contains(i int) bool {
	return i >= r.Start && i <= r.End
}

func (r PageRange) String() string {
	if r == AllPages {
		return "all"
	}
	if r.Start == r.End {
		return strconv.Itoa(r.Start + 1)
	}
	return fmt.Sprintf("%d-%d", r.Start+1, r.End+1)
}

// ParsePageRanges parses a comma separated list of one-based page numbers
// and ranges, e.g. "1-3,5".  The string "all" and the empty string select
// all pages.
func ParsePageRanges(s string) ([]PageRange, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "all" {
		return []PageRange{AllPages}, nil
	}

	var res []PageRange
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		from, to, isRange := strings.Cut(part, "-")
		a, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil || a < 1 {
			return nil, fmt.Errorf("invalid page number %q", from)
		}
		b := a
		if isRange {
			b, err = strconv.Atoi(strings.TrimSpace(to))
			if err != nil || b < a {
				return nil, fmt.Errorf("invalid page range %q", part)
			}
		}
		res = append(res, PageRange{Start: a - 1, End: b - 1})
	}
	return res, nil
}

// Covers reports whether the ranges in have include every page selected by
// want, for a document with numPages pages.
func Covers(have, want []PageRange, numPages int) bool {
	for i := 0; i < numPages; i++ {
		if !inRanges(want, i) {
			continue
		}
		if !inRanges(have, i) {
			return false
		}
	}
	return true
}

func inRanges(rr []PageRange, i int) bool {
	for _, r := range rr {
		if r.Contains(i) {
			return true
		}
	}
	return false
}
