// Package refid issues the short human-shareable order codes customers read
// over the counter and type into the tracking box.
package refid

import "math/rand/v2"

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the fixed size of every reference code.
const Length = 7

// Generate returns a fresh 7-character upper-case alphanumeric code.
// The contract is collision-resistant, not collision-free: no uniqueness
// check against existing orders is performed. Callers must treat the code
// as a display key; the store-assigned document id stays primary.
func Generate() string {
	b := make([]byte, Length)
	for i := range b {
		b[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return string(b)
}
