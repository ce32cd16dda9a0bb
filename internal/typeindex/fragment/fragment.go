// Package fragment derives the local identifier of a type registration inside
// its index document.
package fragment

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Prefix starts every generated fragment so identifiers never begin with a digit.
const Prefix = "reg-"

// Func computes a registration fragment from the class IRI and the normalized
// location. Implementations must be pure.
type Func func(class, location string) string

// Hash is the default Func: "reg-" followed by the base36 xxhash64 of
// class and location joined by a NUL byte.
func Hash(class, location string) string {
	d := xxhash.New()
	_, _ = d.WriteString(class)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(location)
	return Prefix + strconv.FormatUint(d.Sum64(), 36)
}
