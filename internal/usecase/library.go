package usecase

import (
	"context"
	"time"

	"github.com/framelens/framelens-engine/internal/domain/entity"
	"go.uber.org/zap"
)

// ListVideos enumerates the library with optional per-file metadata and
// cache status. A single unreadable file degrades to a bare listing, never
// fails the whole call.
func (a *Analyzer) ListVideos(ctx context.Context, p entity.ListVideosParams) (result *entity.ListVideosResult, err error) {
	ctx, done := a.instrument(ctx, "list_videos", "")
	defer func() { done(err) }()

	names, err := a.library.ListVideoFiles(p.Subdirectory)
	if err != nil {
		return nil, err
	}

	result = &entity.ListVideosResult{
		Root:         a.library.Root(),
		Subdirectory: p.Subdirectory,
		Files:        make([]entity.VideoListing, 0, len(names)),
	}

	for _, name := range names {
		id, err := a.library.Resolve(name)
		if err != nil {
			a.logger.Warn("skipping unreadable listing entry", zap.String("video", name), zap.Error(err))
			continue
		}

		listing := entity.VideoListing{
			Filename: name,
			SizeMB:   round2(float64(id.Size) / (1024 * 1024)),
			Modified: id.ModTime.UTC().Format(time.RFC3339),
		}
		if p.IncludeCacheStatus {
			status, err := a.cache.Status(ctx, name)
			if err != nil {
				a.logger.Warn("cache status lookup failed", zap.String("video", name), zap.Error(err))
			} else {
				listing.Cached = status
			}
		}
		if p.IncludeMetadata {
			md, _, err := a.cachedMetadata(ctx, id)
			if err != nil {
				a.logger.Warn("metadata probe failed for listing", zap.String("video", name), zap.Error(err))
			} else {
				listing.Metadata = &md
			}
		}

		result.Files = append(result.Files, listing)
		result.TotalSizeMB += listing.SizeMB
	}
	result.TotalFiles = len(result.Files)
	result.TotalSizeMB = round2(result.TotalSizeMB)
	return result, nil
}

// GetMetadata returns the probed container metadata for one video.
func (a *Analyzer) GetMetadata(ctx context.Context, filename string) (result *entity.MetadataResult, err error) {
	ctx, done := a.instrument(ctx, "get_video_metadata", filename)
	defer func() { done(err) }()

	id, err := a.library.Resolve(filename)
	if err != nil {
		return nil, err
	}
	md, cached, err := a.cachedMetadata(ctx, id)
	if err != nil {
		return nil, err
	}
	return &entity.MetadataResult{
		Filename:      id.Name,
		Cached:        cached,
		VideoMetadata: md,
	}, nil
}

// ClearCache removes memoized results by video and kind.
func (a *Analyzer) ClearCache(ctx context.Context, p entity.ClearCacheParams) (result *entity.ClearCacheResult, err error) {
	ctx, done := a.instrument(ctx, "clear_cache", p.Filename)
	defer func() { done(err) }()

	if err = p.Validate(); err != nil {
		return nil, err
	}

	cleared, err := a.cache.Invalidate(ctx, p.Filename, p.CacheType)
	if err != nil {
		return nil, err
	}

	result = &entity.ClearCacheResult{Cleared: cleared}
	for _, e := range cleared {
		result.TotalFreed += e.FreedBytes
	}
	a.logger.Info("cache cleared",
		zap.String("filename", p.Filename),
		zap.String("cache_type", string(p.CacheType)),
		zap.Int("videos", len(cleared)),
		zap.Int64("freed_bytes", result.TotalFreed))
	return result, nil
}
