package kraken

import (
	"fmt"
	"sync"
	"time"
)

// nonceSource builds nonces from wall-clock milliseconds concatenated with a
// zero-padded 5-digit counter. Values are strictly increasing within a
// process; the counter wraps from 9999 back to 0, so monotonicity would only
// break if a single millisecond saw more than 10,000 signings, which is far
// beyond the exchange's rate limits. The zero value is ready to use.
type nonceSource struct {
	mu      sync.Mutex
	counter int
}

func (n *nonceSource) Next() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.counter > 9999 {
		n.counter = 0
	}
	nonce := fmt.Sprintf("%d%05d", time.Now().UnixMilli(), n.counter)
	n.counter++
	return nonce
}
