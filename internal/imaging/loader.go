package imaging

import (
	"fmt"
	"os"
	"sync"
)

// ImageCache provides thread-safe caching of decoded rasters to avoid
// redundant disk reads and decodes.
//
// The cache stores normalized *Raster values keyed by their file path. Once
// an image is loaded, subsequent Load() calls for the same path return the
// cached raster without disk I/O. Cached rasters are shared, so callers must
// not modify them; every transform in this module allocates its own output.
//
// # Memory Management
//
// Cached rasters remain in memory until explicitly removed via Evict() or
// Clear(). A raster costs width*height*4 bytes.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	r, err := cache.Load("/path/to/sprite.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// Use r...
//	cache.Evict("/path/to/sprite.png") // Optional: free memory
type ImageCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	raster *Raster
	format string
	size   int64
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		entries: make(map[string]*cacheEntry),
	}
}

// Load retrieves a raster from the cache or decodes it from disk.
//
// Parameters:
//   - path: Absolute or relative file path to the image. Supported formats are
//     PNG, JPEG, GIF, WebP, BMP, and TIFF.
//
// The raster is cached using the exact path string provided. Different paths
// to the same file (e.g., relative vs absolute) result in separate entries.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error wrapping ErrDecode if the file is not a supported image
func (c *ImageCache) Load(path string) (*Raster, error) {
	e, err := c.load(path)
	if err != nil {
		return nil, err
	}
	return e.raster, nil
}

func (c *ImageCache) load(path string) (*cacheEntry, error) {
	c.mu.RLock()
	if e, ok := c.entries[path]; ok {
		c.mu.RUnlock()
		return e, nil
	}
	c.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	r, format, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	e := &cacheEntry{raster: r, format: format, size: int64(len(data))}
	c.mu.Lock()
	c.entries[path] = e
	c.mu.Unlock()

	return e, nil
}

// Clear removes all rasters from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

// Evict removes a specific raster from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

// Len returns the number of cached rasters.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the format detected from the file contents, e.g. "png",
	// "jpeg", "gif", "webp".
	Format string `json:"format"`

	// HasAlpha reports whether any pixel is not fully opaque.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image through the cache and describes it.
//
// Unlike a header-only probe, HasAlpha reflects the pixels themselves: an
// RGBA PNG whose alpha is 255 everywhere reports false.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	e, err := cache.load(path)
	if err != nil {
		return nil, err
	}

	return &ImageInfo{
		Width:         e.raster.Width,
		Height:        e.raster.Height,
		Format:        e.format,
		HasAlpha:      !e.raster.Opaque(),
		FileSizeBytes: e.size,
	}, nil
}
