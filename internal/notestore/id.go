package notestore

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/sqids/sqids-go"
)

// idSpace bounds the random number behind an id; it keeps ids around 8 characters.
const idSpace = 1 << 40

var codec = sync.OnceValues(func() (*sqids.Sqids, error) {
	return sqids.New(sqids.Options{MinLength: 8})
})

// NewID returns a short alphanumeric id. It is not cryptographically random
// and collisions are not checked.
func NewID() (string, error) {
	s, err := codec()
	if err != nil {
		return "", fmt.Errorf("init id codec: %w", err)
	}
	id, err := s.Encode([]uint64{rand.Uint64N(idSpace)})
	if err != nil {
		return "", fmt.Errorf("encode id: %w", err)
	}
	return id, nil
}
