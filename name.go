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

package printjob

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// maxNameRunes limits the length of generated document names, not counting
// the ".pdf" suffix.
const maxNameRunes = 96

// DocumentName derives a file name for a printed document from the job
// title.  Letters and digits are kept, runs of other characters are
// replaced by a single underscore.  If nothing usable remains, a random
// name is generated.
func DocumentName(title string) string {
	title = norm.NFC.String(title)
	title = strings.TrimSuffix(strings.TrimSpace(title), ".pdf")

	var b strings.Builder
	n := 0
	gap := false
	for _, r := range title {
		if n >= maxNameRunes {
			break
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-':
			if gap && b.Len() > 0 {
				b.WriteByte('_')
				n++
			}
			gap = false
			b.WriteRune(r)
			n++
		default:
			gap = true
		}
	}

	name := b.String()
	if name == "" {
		name = "print-" + uuid.NewString()
	}
	return name + ".pdf"
}
