// Package ids mints the identifiers stamped onto tenant records.
// Organizations, brands, users, API keys and courses share one ULID
// keyspace, so primary keys sort by creation time without a sequence.
package ids

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// New returns a fresh ULID string. The entropy source is monotonic within
// the process, so ids minted in the same millisecond still sort in
// creation order.
func New() string {
	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
