package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/MrEthical07/goSession/cache"
)

// ErrPartitionSchemeMismatch is returned when the cache was populated with a
// different partition count than the one configured.
var ErrPartitionSchemeMismatch = errors.New("partition scheme mismatch")

const partitionsMetaName = "partitions"

// EnsurePartitionScheme pins the partition count in the cache on first use
// and rejects any later deployment that configures a different count.
// Records written under another count would otherwise be silently unreachable.
func EnsurePartitionScheme(ctx context.Context, backend cache.Backend, keys Keyspace) error {
	key := keys.MetaKey(partitionsMetaName)
	want := strconv.Itoa(keys.Partitioner().Count())

	stored, err := backend.SetNX(ctx, key, []byte(want), 0)
	if err != nil {
		return err
	}
	if stored {
		return nil
	}

	current, err := backend.Get(ctx, key)
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return EnsurePartitionScheme(ctx, backend, keys)
		}
		return err
	}
	if string(current) != want {
		return fmt.Errorf("%w: cache uses %s partitions, configured %s", ErrPartitionSchemeMismatch, current, want)
	}
	return nil
}
