package buffer

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"sync"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
)

// Meta describes an ingested image file.
type Meta struct {
	// Width and Height of the image in pixels.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is the decoder-reported format name ("png", "jpeg", "tiff", ...).
	Format string `json:"format"`

	// ColorDepth indicates the source bit depth per channel: "8-bit" or
	// "16-bit". The working buffer is float32 either way.
	ColorDepth string `json:"color_depth"`

	// HDR is set when any component exceeds 1.0 after scaling. Such signals
	// are accepted but must already be scene-linear for the audit to mean
	// anything.
	HDR bool `json:"hdr"`

	// LowSignal is set when the brightest component is below 0.01,
	// usually severe underexposure or a broken load.
	LowSignal bool `json:"low_signal"`

	// MaxValue is the largest component value observed.
	MaxValue float32 `json:"max_value"`

	// FileSizeBytes is the size of the file on disk.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// Cache provides thread-safe caching of ingested buffers to avoid redundant
// decodes when the same plate is located and audited in separate calls.
//
// Entries are keyed by the exact path string. Cached buffers remain in
// memory until Evict or Clear; batch drivers should Evict finished files.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	buf  *Buffer
	meta *Meta
}

// NewCache creates an empty ingestion cache ready for concurrent use.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*cacheEntry)}
}

// Load returns the buffer and metadata for path, decoding the file on first
// use. Supported formats are PNG, JPEG, GIF, TIFF, and BMP.
//
// A failure to open or decode is returned to the caller and affects only
// this file; the cache stays usable for the rest of the batch.
func (c *Cache) Load(path string) (*Buffer, *Meta, error) {
	c.mu.RLock()
	if e, ok := c.entries[path]; ok {
		c.mu.RUnlock()
		return e.buf, e.meta, nil
	}
	c.mu.RUnlock()

	buf, meta, err := Load(path)
	if err != nil {
		return nil, nil, err
	}

	c.mu.Lock()
	c.entries[path] = &cacheEntry{buf: buf, meta: meta}
	c.mu.Unlock()

	return buf, meta, nil
}

// Evict removes a single path from the cache. Unknown paths are ignored.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

// Clear drops every cached buffer.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

// Load ingests a single image file without caching.
func Load(path string) (*Buffer, *Meta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}

	stat, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}

	buf := FromImage(img)
	meta := newMeta(img, format, buf)
	meta.FileSizeBytes = stat.Size()
	return buf, meta, nil
}

// FromImageWithMeta wraps FromImage for in-memory sources, producing the
// same metadata Load would.
func FromImageWithMeta(img image.Image, format string) (*Buffer, *Meta) {
	buf := FromImage(img)
	return buf, newMeta(img, format, buf)
}

func newMeta(img image.Image, format string, buf *Buffer) *Meta {
	depth := "8-bit"
	switch img.(type) {
	case *image.RGBA64, *image.NRGBA64, *image.Gray16:
		depth = "16-bit"
	}

	max := buf.Max()
	return &Meta{
		Width:      buf.Width,
		Height:     buf.Height,
		Format:     format,
		ColorDepth: depth,
		HDR:        max > 1.0,
		LowSignal:  max < 0.01,
		MaxValue:   max,
	}
}
