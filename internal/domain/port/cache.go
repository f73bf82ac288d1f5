package port

import (
	"context"

	"github.com/framelens/framelens-engine/internal/domain/entity"
)

// ComputeFunc produces the payload for a cache miss.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// AnalysisCache memoizes expensive computations keyed by video identity,
// operation kind, and parameter fingerprint. Implementations guarantee at
// most one in-flight computation per distinct key; concurrent duplicate
// requests share the first caller's result.
type AnalysisCache interface {
	// GetOrCompute returns the stored payload for the key, or runs compute
	// once and persists its result. The bool reports whether the payload
	// came from the cache.
	GetOrCompute(ctx context.Context, id entity.VideoIdentity, kind entity.CacheKind, fingerprint string, compute ComputeFunc) ([]byte, bool, error)

	// Invalidate removes entries of the given kind (CacheKindAll = every
	// kind) for one video, or for all videos when filename is empty.
	Invalidate(ctx context.Context, filename string, kind entity.CacheKind) ([]entity.ClearedEntry, error)

	// Status reports which cache kinds currently hold an entry for the
	// video.
	Status(ctx context.Context, filename string) (map[entity.CacheKind]bool, error)
}
