// Package images is the image registry consumed by layout and the display
// list. It maps an image reference (the hash key stored on image nodes) to an
// opaque ImageKey and the intrinsic size read from the encoded header. Pixel
// data is decoded lazily, only for backends that rasterize.
package images

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"os"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"azul/pkg/geom"
)

// ErrNotFound is returned for references that were never added.
var ErrNotFound = errors.New("images: not found")

// ImageKey is the opaque handle passed through to the display list.
type ImageKey uint64

// NullImage is the placeholder key substituted for missing images.
const NullImage ImageKey = 0

// Info describes a registered image.
type Info struct {
	Key    ImageKey
	Size   geom.Size
	Format string
}

type entry struct {
	info    Info
	data    []byte
	decoded image.Image
}

// Cache is safe for concurrent use. Layout only reads it.
type Cache struct {
	mu    sync.RWMutex
	byRef map[string]*entry
	byKey map[ImageKey]*entry
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		byRef: make(map[string]*entry),
		byKey: make(map[ImageKey]*entry),
	}
}

// Add registers encoded image bytes under ref. Only the header is parsed.
// Re-adding identical bytes returns the existing entry.
func (c *Cache) Add(ref string, data []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("images: %s: %w", ref, err)
	}
	key := keyOf(data)

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.byKey[key]; ok {
		c.byRef[ref] = e
		return e.info, nil
	}
	e := &entry{
		info: Info{Key: key, Size: geom.Size{Width: float64(cfg.Width), Height: float64(cfg.Height)}, Format: format},
		data: data,
	}
	c.byRef[ref] = e
	c.byKey[key] = e
	return e.info, nil
}

func keyOf(data []byte) ImageKey {
	h := fnv.New64a()
	h.Write(data)
	if k := ImageKey(h.Sum64()); k != NullImage {
		return k
	}
	return 1
}

// LoadFile registers the file at path under the path itself.
func (c *Cache) LoadFile(path string) (Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("images: %w", err)
	}
	return c.Add(path, data)
}

// IsDataURI reports whether s is a data: URI.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// AddDataURI decodes a data: URI and registers it under the URI text.
func (c *Cache) AddDataURI(uri string) (Info, error) {
	data, err := decodeDataURI(uri)
	if err != nil {
		return Info{}, err
	}
	return c.Add(uri, data)
}

func decodeDataURI(uri string) ([]byte, error) {
	if !IsDataURI(uri) {
		return nil, fmt.Errorf("images: not a data URI")
	}
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("images: data URI without payload")
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("images: data URI: %w", err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("images: data URI: %w", err)
	}
	return []byte(s), nil
}

// Get returns the key registered for ref.
func (c *Cache) Get(ref string) (ImageKey, bool) {
	info, ok := c.Lookup(ref)
	return info.Key, ok
}

// Lookup returns the info registered for ref. A nil cache has no images.
func (c *Cache) Lookup(ref string) (Info, bool) {
	if c == nil {
		return Info{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byRef[ref]
	if !ok {
		return Info{}, false
	}
	return e.info, true
}

// Len returns the number of distinct images.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byKey)
}

// Image decodes the pixels behind key, caching the result.
func (c *Cache) Image(key ImageKey) (image.Image, error) {
	c.mu.RLock()
	e, ok := c.byKey[key]
	var img image.Image
	if ok {
		img = e.decoded
	}
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: key %x", ErrNotFound, uint64(key))
	}
	if img != nil {
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(e.data))
	if err != nil {
		return nil, fmt.Errorf("images: decode %x: %w", uint64(key), err)
	}
	c.mu.Lock()
	e.decoded = img
	c.mu.Unlock()
	return img, nil
}
