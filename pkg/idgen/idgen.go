package idgen

import "sync/atomic"

// Int64 returns values 1,2,3... Zero is never generated, so a zero ID always
// means "not yet assigned". Persisted stores seed the counter with
// EnsureAtLeast so that IDs remain unique across restarts.
type Int64 struct {
	next atomic.Int64
}

func (u *Int64) Next() int64 {
	return u.next.Add(1)
}

// EnsureAtLeast raises the counter so that the next ID is greater than n.
// Calling it with a smaller value than the current counter is a no-op.
func (u *Int64) EnsureAtLeast(n int64) {
	for {
		current := u.next.Load()
		if current >= n {
			return
		}
		if u.next.CompareAndSwap(current, n) {
			return
		}
	}
}
