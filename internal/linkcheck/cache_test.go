package linkcheck

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestCacheKey(t *testing.T) {
	a := cacheKey("https://example.com/docs?q=1")
	b := cacheKey("https://example.com/docs?q=2")

	if a == b {
		t.Error("different URLs must map to different keys")
	}
	if a != cacheKey("https://example.com/docs?q=1") {
		t.Error("cache key must be deterministic")
	}
	if len(a) != 64 {
		t.Errorf("key length = %d, want 64 hex chars", len(a))
	}
	// KV keys reject the URL characters the hash removes.
	if strings.ContainsAny(a, ":/?&=") {
		t.Errorf("key %q contains characters invalid in a KV key", a)
	}
}

func TestEntryJSONOmitsHealthyFailureFields(t *testing.T) {
	e := Entry{URL: "https://example.com/", Status: 200, OK: true, CheckedAt: time.Now()}
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	if strings.Contains(s, "failure_count") {
		t.Errorf("healthy entry serialized failure_count: %s", s)
	}
	if strings.Contains(s, `"error"`) {
		t.Errorf("healthy entry serialized error: %s", s)
	}
}

func TestNewNATSCacheRequiresURL(t *testing.T) {
	if _, err := NewNATSCache(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}
