package session

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Partitioner maps identifiers onto a fixed number of logical shards.
//
// The mapping is stable for a given count. Changing the count remaps every
// key, which is why the count is pinned in the cache by [EnsurePartitionScheme].
type Partitioner struct {
	count int
}

// NewPartitioner returns a partitioner over count shards. Counts below 1 are
// treated as 1.
func NewPartitioner(count int) Partitioner {
	return Partitioner{count: max(count, 1)}
}

// Count returns the number of shards.
func (p Partitioner) Count() int {
	return max(p.count, 1)
}

// Partition returns xxhash64(key) mod N.
func (p Partitioner) Partition(key string) int {
	n := p.Count()
	if n == 1 {
		return 0
	}
	return int(xxhash.Sum64String(key) % uint64(n))
}

// Key builds "{prefix}:{partition(id)}:{id}".
func (p Partitioner) Key(prefix, id string) string {
	return prefix + ":" + strconv.Itoa(p.Partition(id)) + ":" + id
}
