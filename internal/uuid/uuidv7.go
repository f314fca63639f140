// Package uuid wraps github.com/google/uuid with the id formats used across
// the API: time-ordered v7 strings for primary keys and embedded child ids.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// canonicalLen is the length of the hyphenated 8-4-4-4-12 form.
const canonicalLen = 36

// New returns a UUIDv7 string. Ids sort by creation time.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.NewString()
	}
	return id.String()
}

// IsValid reports whether s is a UUID in canonical hyphenated form. Braced
// and urn: spellings are rejected.
func IsValid(s string) bool {
	if len(s) != canonicalLen {
		return false
	}
	_, err := googleuuid.Parse(s)
	return err == nil
}
