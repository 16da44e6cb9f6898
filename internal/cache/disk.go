package cache

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const diskMagic = "pcv1"

// DiskCache persists entries under dir, one file per key. Files are grouped
// by key namespace (search, embed, page) and a two-character shard so a
// long-running server does not pile every page body into one directory.
//
// File layout: "pcv1 <expiry unix nanos>\n" followed by the raw value.
type DiskCache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewDiskCache creates a disk cache. A zero ttl on Set uses ttl.
func NewDiskCache(dir string, ttl time.Duration) *DiskCache {
	return &DiskCache{dir: dir, ttl: ttl, now: time.Now}
}

// Get reads key. Expired or unreadable entries are misses; expired files are removed.
func (c *DiskCache) Get(key string) ([]byte, bool) {
	path := c.path(key)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	expires, body, err := decodeEntry(raw)
	if err != nil {
		return nil, false
	}
	if !c.now().Before(expires) {
		_ = os.Remove(path)
		return nil, false
	}
	return body, true
}

// Set writes key atomically
func (c *DiskCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}
	path := c.path(key)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }

	w := bufio.NewWriter(tmp)
	_, _ = fmt.Fprintf(w, "%s %d\n", diskMagic, c.now().Add(ttl).UnixNano())
	_, _ = w.Write(value)
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		cleanup()
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

// Delete removes key. A missing entry is not an error.
func (c *DiskCache) Delete(key string) error {
	if err := os.Remove(c.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes the whole cache directory
func (c *DiskCache) Clear() error {
	return os.RemoveAll(c.dir)
}

// Sweep deletes expired and corrupt entries and returns how many were removed
func (c *DiskCache) Sweep() (int, error) {
	removed := 0
	now := c.now()
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		expires, _, derr := decodeEntry(raw)
		if derr == nil && now.Before(expires) {
			return nil
		}
		if os.Remove(path) == nil {
			removed++
		}
		return nil
	})
	return removed, err
}

// path maps "perspecta:v1:<ns>:<hash>" to dir/<ns>/<hash[:2]>/<hash>.
// Keys that do not follow that shape land in dir/misc.
func (c *DiskCache) path(key string) string {
	ns, name := "misc", key
	if parts := strings.Split(key, ":"); len(parts) == 4 && parts[0] == "perspecta" {
		ns, name = parts[2], parts[3]
	}
	name = fileSafe(name)
	shard := "00"
	if len(name) >= 2 {
		shard = name[:2]
	}
	return filepath.Join(c.dir, fileSafe(ns), shard, name)
}

func fileSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ':', '/', '\\', '.':
			return '_'
		}
		return r
	}, s)
}

func decodeEntry(raw []byte) (time.Time, []byte, error) {
	header, body, ok := bytes.Cut(raw, []byte{'\n'})
	if !ok {
		return time.Time{}, nil, errors.New("missing header")
	}
	magic, stamp, ok := strings.Cut(string(header), " ")
	if !ok || magic != diskMagic {
		return time.Time{}, nil, errors.New("unknown entry format")
	}
	nanos, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("parse expiry: %w", err)
	}
	return time.Unix(0, nanos), body, nil
}
