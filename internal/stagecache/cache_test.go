package stagecache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/fingerprint"
	"github.com/AdamStankiewic/Sejm-Highlights-Final-sub000/internal/logging"
)

const (
	testInputFp  = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testConfigFp = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func TestPutGetRoundTrip(t *testing.T) {
	cache := New(t.TempDir(), false, logging.NewNop())
	payload := []byte(`{"segments":[{"id":"seg-1"}]}`)

	if err := cache.Put(testInputFp, fingerprint.StageScoring, testConfigFp, payload); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := cache.Get(testInputFp, fingerprint.StageScoring, testConfigFp)
	if !ok {
		t.Fatal("expected a cache hit after Put")
	}
	if string(got) != string(payload) {
		t.Fatalf("payload mismatch: got %s", got)
	}
}

func TestGetMissesAcrossKeys(t *testing.T) {
	cache := New(t.TempDir(), false, logging.NewNop())
	payload := []byte(`{"value":1}`)
	if err := cache.Put(testInputFp, fingerprint.StageScoring, testConfigFp, payload); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if _, ok := cache.Get("cccccccccccccccccccccccccccccccc", fingerprint.StageScoring, testConfigFp); ok {
		t.Fatal("different input fingerprint must miss")
	}
	if _, ok := cache.Get(testInputFp, fingerprint.StageScoring, "dddddddddddddddddddddddddddddddd"); ok {
		t.Fatal("different config fingerprint must miss")
	}
	if _, ok := cache.Get(testInputFp, fingerprint.StageTranscription, testConfigFp); ok {
		t.Fatal("different stage must miss")
	}
}

func TestPutIsIdempotent(t *testing.T) {
	cache := New(t.TempDir(), false, logging.NewNop())

	if err := cache.Put(testInputFp, fingerprint.StageScoring, testConfigFp, []byte(`{"v":"first"}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := cache.Put(testInputFp, fingerprint.StageScoring, testConfigFp, []byte(`{"v":"second"}`)); err != nil {
		t.Fatalf("second Put: %v", err)
	}

	got, ok := cache.Get(testInputFp, fingerprint.StageScoring, testConfigFp)
	if !ok {
		t.Fatal("expected a hit")
	}
	if !strings.Contains(string(got), "first") {
		t.Fatalf("existing entry must win without force recompute, got %s", got)
	}
}

func TestForceRecomputeMissesButOverwrites(t *testing.T) {
	dir := t.TempDir()

	warm := New(dir, false, logging.NewNop())
	if err := warm.Put(testInputFp, fingerprint.StageScoring, testConfigFp, []byte(`{"v":"stale"}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	forced := New(dir, true, logging.NewNop())
	if _, ok := forced.Get(testInputFp, fingerprint.StageScoring, testConfigFp); ok {
		t.Fatal("force recompute must report a miss even for a present entry")
	}
	if err := forced.Put(testInputFp, fingerprint.StageScoring, testConfigFp, []byte(`{"v":"fresh"}`)); err != nil {
		t.Fatalf("forced Put: %v", err)
	}

	// A later non-forced run sees the refreshed payload.
	got, ok := warm.Get(testInputFp, fingerprint.StageScoring, testConfigFp)
	if !ok {
		t.Fatal("expected a hit on the non-forced cache")
	}
	if !strings.Contains(string(got), "fresh") {
		t.Fatalf("forced Put must overwrite, got %s", got)
	}
}

func TestCorruptPayloadIsAMiss(t *testing.T) {
	dir := t.TempDir()
	cache := New(dir, false, logging.NewNop())
	if err := cache.Put(testInputFp, fingerprint.StageScoring, testConfigFp, []byte(`{"v":1}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	namespace := testInputFp[:16] + "-" + testConfigFp[:16]
	path := filepath.Join(dir, namespace, "scoring.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt payload: %v", err)
	}

	if _, ok := cache.Get(testInputFp, fingerprint.StageScoring, testConfigFp); ok {
		t.Fatal("corrupt payload must be treated as a miss")
	}
}

func TestPutRejectsInvalidPayloads(t *testing.T) {
	cache := New(t.TempDir(), false, logging.NewNop())

	if err := cache.Put(testInputFp, fingerprint.StageScoring, testConfigFp, nil); err == nil {
		t.Fatal("expected an error for an empty payload")
	}
	if err := cache.Put(testInputFp, fingerprint.StageScoring, testConfigFp, []byte("not json")); err == nil {
		t.Fatal("expected an error for a non-JSON payload")
	}
	if err := cache.Put("", fingerprint.StageScoring, testConfigFp, []byte(`{}`)); err == nil {
		t.Fatal("expected an error for a missing fingerprint")
	}
}

func TestStatsAndClear(t *testing.T) {
	dir := t.TempDir()
	cache := New(dir, false, logging.NewNop())

	if err := cache.Put(testInputFp, fingerprint.StageScoring, testConfigFp, []byte(`{"v":1}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := cache.Put(testInputFp, fingerprint.StageTranscription, testConfigFp, []byte(`{"v":2}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := cache.Put("eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee", fingerprint.StageScoring, testConfigFp, []byte(`{"v":3}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	stats, err := cache.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Namespaces != 2 || stats.Payloads != 3 {
		t.Fatalf("Stats = %+v, want 2 namespaces and 3 payloads", stats)
	}
	if stats.TotalBytes == 0 {
		t.Fatal("expected non-zero total size")
	}

	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	stats, err = cache.Stats()
	if err != nil {
		t.Fatalf("Stats after Clear: %v", err)
	}
	if stats.Namespaces != 0 || stats.Payloads != 0 {
		t.Fatalf("expected an empty cache after Clear, got %+v", stats)
	}
}

func TestDisabledCacheIsInert(t *testing.T) {
	cache := New("", false, logging.NewNop())

	if err := cache.Put(testInputFp, fingerprint.StageScoring, testConfigFp, []byte(`{}`)); err != nil {
		t.Fatalf("Put on a disabled cache must be a no-op, got %v", err)
	}
	if _, ok := cache.Get(testInputFp, fingerprint.StageScoring, testConfigFp); ok {
		t.Fatal("disabled cache must always miss")
	}
}
