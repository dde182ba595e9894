// Package nnumber converts between US tail numbers (N-numbers) and 24-bit
// ICAO hex addresses in the US allocation block A00001-ADF7C7.
//
// The FAA assigns ICAO addresses to N-numbers sequentially, which makes the
// mapping a pure function in both directions. The address space is a
// mixed-radix numeral system: plain decimal digits for the leading positions
// and a 24-letter alphabet (I and O excluded, they read as 1 and 0) for an
// optional one- or two-letter suffix. The bucket constants below partition
// the space by how many digit positions precede the suffix and must not be
// changed, or existing persisted hex values stop round-tripping.
package nnumber

import (
	"strconv"
	"strings"
)

// letters is the registration suffix alphabet. No I, no O.
const letters = "ABCDEFGHJKLMNPQRSTUVWXYZ"

// lastChars is every character allowed in the fifth body position,
// letters first. Index order is part of the encoding.
const lastChars = letters + "0123456789"

const (
	// suffixSize counts the addresses reachable once an alphabetic suffix
	// of 0, 1 or 2 letters begins: 1 + 24*(1+24).
	suffixSize = 601

	bucket4 = 35     // 1 + 24 + 10
	bucket3 = 951    // 10*bucket4 + suffixSize
	bucket2 = 10111  // 10*bucket3 + suffixSize
	bucket1 = 101711 // 10*bucket2 + suffixSize

	// maxOffset is the offset of N99999, the top of the US block (0xDF7C7).
	maxOffset = 915399
)

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func letterIndex(c byte) int {
	return strings.IndexByte(letters, c)
}

// suffixOffset converts a 0-2 letter suffix into its offset within a
// suffix block. Returns -1 when s is not a valid suffix.
func suffixOffset(s string) int {
	switch len(s) {
	case 0:
		return 0
	case 1:
		i := letterIndex(s[0])
		if i < 0 {
			return -1
		}
		return i*(len(letters)+1) + 1
	case 2:
		i := letterIndex(s[0])
		j := letterIndex(s[1])
		if i < 0 || j < 0 {
			return -1
		}
		return i*(len(letters)+1) + 1 + j + 1
	default:
		return -1
	}
}

// suffix is the inverse of suffixOffset.
func suffix(offset int) string {
	if offset == 0 {
		return ""
	}
	first := letters[(offset-1)/(len(letters)+1)]
	rem := (offset - 1) % (len(letters) + 1)
	if rem == 0 {
		return string(first)
	}
	return string(first) + string(letters[rem-1])
}

// Encode converts a tail number such as "N842QS" to its ICAO hex address.
// The tail must start with N, be 2-6 characters long, and may carry letters
// only in the final one or two positions. Malformed input returns ok=false.
func Encode(tail string) (string, bool) {
	tail = strings.ToUpper(strings.TrimSpace(tail))
	if len(tail) < 2 || len(tail) > 6 || tail[0] != 'N' {
		return "", false
	}

	body := tail[1:]
	if body[0] < '1' || body[0] > '9' {
		return "", false
	}

	offset := 1
	for i := 0; i < len(body); i++ {
		c := body[i]
		if i == 4 {
			// Fifth body position: one slot per letter or digit.
			k := strings.IndexByte(lastChars, c)
			if k < 0 {
				return "", false
			}
			offset += k + 1
			break
		}
		if !isDigit(c) {
			// Everything from here on must be the letter suffix.
			so := suffixOffset(body[i:])
			if so < 0 {
				return "", false
			}
			offset += so
			break
		}
		d := int(c - '0')
		switch i {
		case 0:
			offset += (d - 1) * bucket1
		case 1:
			offset += d*bucket2 + suffixSize
		case 2:
			offset += d*bucket3 + suffixSize
		case 3:
			offset += d*bucket4 + suffixSize
		}
	}

	return "A" + strings.ToUpper(zeroPad(strconv.FormatInt(int64(offset), 16), 5)), true
}

// Decode converts an ICAO hex address in the US block back to its tail
// number. Input must be exactly 6 hex characters beginning with A
// (case-insensitive). Addresses outside A00001-ADF7C7 return ok=false.
func Decode(hex string) (string, bool) {
	hex = strings.ToUpper(strings.TrimSpace(hex))
	if len(hex) != 6 || hex[0] != 'A' {
		return "", false
	}

	v, err := strconv.ParseInt(hex[1:], 16, 64)
	if err != nil {
		return "", false
	}
	offset := int(v)
	if offset < 1 || offset > maxOffset {
		return "", false
	}

	rem := offset - 1
	var b strings.Builder
	b.WriteByte('N')
	b.WriteByte(byte('1' + rem/bucket1))
	rem %= bucket1

	for _, bucket := range []int{bucket2, bucket3} {
		if rem < suffixSize {
			b.WriteString(suffix(rem))
			return b.String(), true
		}
		rem -= suffixSize
		b.WriteByte(byte('0' + rem/bucket))
		rem %= bucket
	}

	if rem < suffixSize {
		b.WriteString(suffix(rem))
		return b.String(), true
	}
	rem -= suffixSize
	b.WriteByte(byte('0' + rem/bucket4))
	rem %= bucket4

	if rem > 0 {
		b.WriteByte(lastChars[rem-1])
	}
	return b.String(), true
}

func zeroPad(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}
