package stagecache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/fingerprint"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/logging"
)

// entry is the on-disk envelope around an opaque stage payload. Unmarshal
// failure on read is what turns a corrupted file into a cache miss.
type entry struct {
	Stage     string          `json:"stage"`
	CreatedAt time.Time       `json:"created_at"`
	Payload   json.RawMessage `json:"payload"`
}

// Cache is a content-addressed store for intermediate stage outputs, keyed by
// (input fingerprint, stage, per-stage config fingerprint).
//
// Layout: one namespace directory per (input fingerprint, config fingerprint)
// pair, one payload file per stage name inside it. Because each stage hashes
// only its own allow-listed config fields, editing a field invalidates exactly
// the stages that declare it relevant.
type Cache struct {
	root   string
	force  bool
	logger *slog.Logger
}

// New creates a cache rooted at dir. If dir is empty the cache is
// non-functional and every Get reports a miss. When force is set, Get always
// reports a miss while Put still writes, so a later non-forced run benefits.
func New(dir string, force bool, logger *slog.Logger) *Cache {
	return &Cache{
		root:   strings.TrimSpace(dir),
		force:  force,
		logger: logging.NewComponentLogger(logger, "stagecache"),
	}
}

// Get returns the stored payload for the key, if present and readable.
// Corrupt or unreadable payloads are treated as a miss, never an error.
func (c *Cache) Get(inputFp string, stage fingerprint.Stage, configFp string) ([]byte, bool) {
	if c == nil || c.root == "" {
		return nil, false
	}
	if c.force {
		c.logger.Debug("cache bypassed by force recompute",
			logging.String("stage", string(stage)))
		return nil, false
	}
	path, err := c.payloadPath(inputFp, stage, configFp)
	if err != nil {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("unreadable cache payload treated as miss",
				logging.String("stage", string(stage)),
				logging.String("path", path),
				logging.Error(err))
		}
		return nil, false
	}

	var stored entry
	if err := json.Unmarshal(data, &stored); err != nil || len(stored.Payload) == 0 {
		c.logger.Warn("corrupt cache payload treated as miss",
			logging.String("stage", string(stage)),
			logging.String("path", path))
		return nil, false
	}

	c.logger.Debug("cache hit",
		logging.String("stage", string(stage)),
		logging.Time("created_at", stored.CreatedAt))
	return stored.Payload, true
}

// Put stores a payload for the key. Writes are idempotent: an existing entry
// is left untouched unless force recompute is set, in which case the refreshed
// payload replaces it (last writer wins).
func (c *Cache) Put(inputFp string, stage fingerprint.Stage, configFp string, payload []byte) error {
	if c == nil || c.root == "" {
		return nil
	}
	if len(payload) == 0 {
		return errors.New("stagecache: empty payload")
	}
	if !json.Valid(payload) {
		return fmt.Errorf("stagecache: payload for stage %q is not valid JSON", stage)
	}
	path, err := c.payloadPath(inputFp, stage, configFp)
	if err != nil {
		return err
	}

	if !c.force {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil
		}
	}

	stored := entry{
		Stage:     string(stage),
		CreatedAt: time.Now().UTC(),
		Payload:   json.RawMessage(payload),
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("stagecache: marshal entry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("stagecache: create namespace directory: %w", err)
	}

	// Write atomically via temp file so a crashed run never leaves a
	// half-written payload behind.
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("stagecache: write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("stagecache: rename temp file: %w", err)
	}

	c.logger.Debug("cache entry written",
		logging.String("stage", string(stage)),
		logging.String("path", path))
	return nil
}

// Stats describes current cache usage.
type Stats struct {
	Namespaces int   `json:"namespaces"`
	Payloads   int   `json:"payloads"`
	TotalBytes int64 `json:"total_bytes"`
}

// Stats walks the cache root and summarizes its contents.
func (c *Cache) Stats() (Stats, error) {
	var stats Stats
	if c == nil || c.root == "" {
		return stats, nil
	}
	entries, err := os.ReadDir(c.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return stats, nil
		}
		return stats, fmt.Errorf("stagecache: read root: %w", err)
	}
	for _, namespace := range entries {
		if !namespace.IsDir() {
			continue
		}
		stats.Namespaces++
		files, err := os.ReadDir(filepath.Join(c.root, namespace.Name()))
		if err != nil {
			continue
		}
		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
				continue
			}
			stats.Payloads++
			if info, err := file.Info(); err == nil {
				stats.TotalBytes += info.Size()
			}
		}
	}
	return stats, nil
}

// Clear removes every namespace under the cache root.
func (c *Cache) Clear() error {
	if c == nil || c.root == "" {
		return nil
	}
	entries, err := os.ReadDir(c.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stagecache: read root: %w", err)
	}
	for _, namespace := range entries {
		if err := os.RemoveAll(filepath.Join(c.root, namespace.Name())); err != nil {
			return fmt.Errorf("stagecache: remove namespace %q: %w", namespace.Name(), err)
		}
	}
	c.logger.Debug("cleared stage cache", logging.Int("namespaces", len(entries)))
	return nil
}

func (c *Cache) payloadPath(inputFp string, stage fingerprint.Stage, configFp string) (string, error) {
	inputFp = strings.TrimSpace(inputFp)
	configFp = strings.TrimSpace(configFp)
	if inputFp == "" || configFp == "" {
		return "", errors.New("stagecache: input and config fingerprints are required")
	}
	if stage == "" {
		return "", errors.New("stagecache: stage name is required")
	}
	namespace := shorten(inputFp) + "-" + shorten(configFp)
	return filepath.Join(c.root, namespace, string(stage)+".json"), nil
}

func shorten(fp string) string {
	if len(fp) > 16 {
		return fp[:16]
	}
	return fp
}
