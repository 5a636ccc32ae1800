package orders

import (
	"fmt"
	"math/rand"
	"time"
)

// GenerateOrderNumber returns ORD + wall-clock seconds + 6 random digits.
// Sortable by creation time, collisions are possible within the same second,
// so the repo backs this with a unique index and retries on conflict.
func GenerateOrderNumber() string {
	ts := time.Now().Format("20060102150405")
	return fmt.Sprintf("ORD%s%06d", ts, rand.Intn(1000000))
}
