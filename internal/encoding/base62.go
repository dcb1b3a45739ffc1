// Package encoding implements Base62 encoding for device IDs, used to
// print a shorter, still-collision-resistant identifier than the
// underlying UUID. Grounded on mutagen's pkg/encoding/base62.go.
package encoding

import (
	"github.com/eknkc/basex"
)

// Base62Alphabet is the alphabet used for Base62 encoding.
const Base62Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var base62 *basex.Encoding

func init() {
	enc, err := basex.NewEncoding(Base62Alphabet)
	if err != nil {
		panic("unable to initialize Base62 encoder")
	}
	base62 = enc
}

// EncodeBase62 performs Base62 encoding.
func EncodeBase62(value []byte) string {
	return base62.Encode(value)
}

// DecodeBase62 performs Base62 decoding.
func DecodeBase62(value string) ([]byte, error) {
	return base62.Decode(value)
}
