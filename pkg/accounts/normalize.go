// D2RLoader Core
// Copyright (c) 2026 The D2RLoader Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of D2RLoader Core.
//
// D2RLoader Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// D2RLoader Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with D2RLoader Core.  If not, see <http://www.gnu.org/licenses/>.

package accounts

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Letters that have no decomposition into a base letter plus marks.
var ligatureReplacer = strings.NewReplacer(
	"ß", "ss",
	"æ", "ae",
	"œ", "oe",
	"ø", "o",
	"ł", "l",
	"đ", "d",
	"ð", "d",
	"þ", "th",
)

// Cyrillic and Greek lower-case letters after diacritic removal, so ё has
// already become е and ί has become ι. Cyrillic follows ICAO 9303.
//
//nolint:gosmopolitan // transliteration table
var scriptTransliterator = strings.NewReplacer(
	"а", "a", "б", "b", "в", "v", "г", "g", "ґ", "g", "д", "d",
	"е", "e", "є", "ie", "ж", "zh", "з", "z", "и", "i", "і", "i",
	"к", "k", "л", "l", "м", "m", "н", "n", "о", "o", "п", "p",
	"р", "r", "с", "s", "т", "t", "у", "u", "ф", "f", "х", "kh",
	"ц", "ts", "ч", "ch", "ш", "sh", "щ", "shch", "ъ", "ie", "ы", "y",
	"ь", "", "э", "e", "ю", "iu", "я", "ia",
	"α", "a", "β", "v", "γ", "g", "δ", "d", "ε", "e", "ζ", "z",
	"η", "i", "θ", "th", "ι", "i", "κ", "k", "λ", "l", "μ", "m",
	"ν", "n", "ξ", "x", "ο", "o", "π", "p", "ρ", "r", "σ", "s",
	"ς", "s", "τ", "t", "υ", "y", "φ", "f", "χ", "ch", "ψ", "ps",
	"ω", "o",
)

func asciiFold() transform.Transformer {
	return transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		width.Fold,
		norm.NFC,
	)
}

// Normalize turns a profile name or e-mail into an identity key: lower-case
// ASCII letters and digits, with every other run of characters collapsed to
// a single "-" and no leading or trailing "-". Cyrillic and Greek are
// transliterated. Letters and digits of other scripts become one
// "u<hex code point>" token each.
//
//	Normalize("Jane Doe!!") == "jane-doe"
//	Normalize("Ärger@mail.de") == "arger-mail-de"
//	Normalize("Пётр") == "petr"
//	Normalize("日本") == "u65e5-u672c"
func Normalize(s string) string {
	folded, _, err := transform.String(asciiFold(), s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	folded = scriptTransliterator.Replace(ligatureReplacer.Replace(folded))

	var b strings.Builder
	b.Grow(len(folded))
	pending := false
	for _, r := range folded {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			if b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteByte('u')
			b.WriteString(strconv.FormatInt(int64(r), 16))
			pending = true
		default:
			pending = true
		}
	}
	return b.String()
}
