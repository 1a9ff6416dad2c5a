package memo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"devchunk/internal/chunk"
)

// increment when Manifest changes shape
const diskCacheSchemaVersion uint16 = 2

// Manifests are stored as zstd-compressed msgpack. The coders are shared;
// EncodeAll and DecodeAll are safe for concurrent use.
var (
	manifestEncoder *zstd.Encoder
	manifestDecoder *zstd.Decoder
)

func init() {
	var err error
	manifestEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		panic("memo: zstd encoder: " + err.Error())
	}
	manifestDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("memo: zstd decoder: " + err.Error())
	}
}

// DiskCache stores the manifests of previously written chunk groups, keyed
// by the digest of the group inputs. Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// Manifest records what a chunk group wrote.
type Manifest struct {
	Schema       uint16
	Key          string
	Assets       []ManifestAsset
	Availability chunk.Snapshot
}

// ManifestAsset is one written artifact.
type ManifestAsset struct {
	Path string
	Hash string
	Size int
}

// NewManifest records the resolved assets of a group.
func NewManifest(key string, result chunk.ChunkGroupResult) *Manifest {
	m := &Manifest{
		Schema:       diskCacheSchemaVersion,
		Key:          key,
		Assets:       make([]ManifestAsset, len(result.Assets)),
		Availability: result.Availability.Snapshot(),
	}
	for i, a := range result.Assets {
		m.Assets[i] = ManifestAsset{Path: a.Path.String(), Hash: a.Hash, Size: a.Size}
	}
	return m
}

// Hashes maps every recorded path to its content hash.
func (m *Manifest) Hashes() map[string]string {
	out := make(map[string]string, len(m.Assets))
	for _, a := range m.Assets {
		out[a.Path] = a.Hash
	}
	return out
}

// OpenDiskCache opens a cache rooted at dir, creating it if needed.
func OpenDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// OpenUserCache opens the cache for app under the user cache directory.
func OpenUserCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		var err error
		base, err = os.UserCacheDir()
		if err != nil {
			return nil, err
		}
	}
	return OpenDiskCache(filepath.Join(base, app))
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string { return c.dir }

func (c *DiskCache) pathFor(key chunk.Digest) string {
	return filepath.Join(c.dir, "groups", key.String()+".mp.zst")
}

// Put writes m under key, replacing any previous manifest atomically.
func (c *DiskCache) Put(key chunk.Digest, m *Manifest) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := msgpack.Marshal(m)
	if err != nil {
		return err
	}
	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if _, err = f.Write(manifestEncoder.EncodeAll(raw, nil)); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads the manifest stored under key. Manifests written with another
// schema version are reported as missing.
func (c *DiskCache) Get(key chunk.Digest) (*Manifest, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	p := c.pathFor(key)
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	raw, err := manifestDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", p, err)
	}
	var m Manifest
	if err := msgpack.Unmarshal(raw, &m); err != nil {
		return nil, false, fmt.Errorf("%s: %w", p, err)
	}
	if m.Schema != diskCacheSchemaVersion {
		return nil, false, nil
	}
	return &m, true, nil
}

// DropAll removes every cached manifest.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
