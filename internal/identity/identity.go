// Package identity derives deterministic identifiers from source field values.
//
// Identifiers are md5 digests of the fields joined by "_". md5 is used as a
// content fingerprint, not as a security primitive. Parent identifiers are
// truncated to 24 hex characters (96 bits) so they fit the object id token
// format of the target database; that truncation lowers collision margin
// compared to the full 128-bit digest used for child identifiers. Because
// the separator is not escaped, ("a_b", "c") and ("a", "b_c") hash equally.
package identity

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

const (
	// Separator joins field values before hashing.
	Separator = "_"

	// NullToken is the text used for a missing or empty value.
	NullToken = ""

	// ParentIDLength is the number of hex characters kept for parent ids.
	ParentIDLength = 24
)

// ParentID derives a 24-character identifier from the natural key fields.
func ParentID(fields []string) string {
	return digest(fields)[:ParentIDLength]
}

// ChildID derives the full hex digest over the parent id followed by the
// child fields, in the given order.
func ChildID(parentID string, fields []string) string {
	all := make([]string, 0, len(fields)+1)
	all = append(all, parentID)
	all = append(all, fields...)
	return digest(all)
}

// Text coerces a possibly-null value into its hashing representation.
func Text(value string, ok bool) string {
	if !ok {
		return NullToken
	}
	return value
}

// IsObjectID reports whether token is a 24-character lowercase hex string.
func IsObjectID(token string) bool {
	if len(token) != ParentIDLength {
		return false
	}
	for _, c := range token {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

func digest(fields []string) string {
	sum := md5.Sum([]byte(strings.Join(fields, Separator)))
	return hex.EncodeToString(sum[:])
}
