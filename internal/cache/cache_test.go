package cache

import (
	"strings"
	"testing"
	"time"
)

func TestKey_DeterministicAndDistinct(t *testing.T) {
	k1 := Key("https://example.com/doc")
	k2 := Key("https://example.com/doc")
	k3 := Key("https://example.com/other")

	if k1 != k2 {
		t.Errorf("Expected identical keys for the same URL, got %q and %q", k1, k2)
	}
	if k1 == k3 {
		t.Errorf("Expected distinct keys for distinct URLs, both %q", k1)
	}
	if !strings.HasPrefix(k1, "scholar:v1:") {
		t.Errorf("Expected the scholar:v1: prefix, got %q", k1)
	}
}

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if err := c.Set("k", []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, found := c.Get("k")
	if !found {
		t.Fatal("Expected a cache hit")
	}
	if string(val) != "value" {
		t.Errorf("Expected %q, got %q", "value", val)
	}

	if _, found := c.Get("missing"); found {
		t.Error("Expected a miss for an unknown key")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if err := c.Set("k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	time.Sleep(30 * time.Millisecond)

	if _, found := c.Get("k"); found {
		t.Error("Expected the entry to expire")
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	_ = c.Set("k", []byte("v"), time.Minute)
	if err := c.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("Expected the entry deleted")
	}
}

func TestDiskCache_SetGet(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	key := Key("https://example.com/doc")
	if err := c.Set(key, []byte("document text"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	val, found := c.Get(key)
	if !found {
		t.Fatal("Expected a disk cache hit")
	}
	if string(val) != "document text" {
		t.Errorf("Expected %q, got %q", "document text", val)
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	key := Key("https://example.com/doc")
	if err := c.Set(key, []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	time.Sleep(30 * time.Millisecond)

	if _, found := c.Get(key); found {
		t.Error("Expected the disk entry to expire")
	}
}

func TestDiskCache_Clear(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	_ = c.Set(Key("a"), []byte("1"), time.Minute)
	_ = c.Set(Key("b"), []byte("2"), time.Minute)

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if _, found := c.Get(Key("a")); found {
		t.Error("Expected the cache cleared")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Minute)

	key := Key("https://example.com/doc")
	if err := c.Set(key, []byte("shared"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// A fresh layered cache over the same directory has a cold memory
	// layer; the value must come back from disk.
	fresh := NewLayeredCache(time.Minute, dir, time.Minute)
	val, found := fresh.Get(key)
	if !found {
		t.Fatal("Expected a disk hit through the layered cache")
	}
	if string(val) != "shared" {
		t.Errorf("Expected %q, got %q", "shared", val)
	}

	// Now promoted into memory
	if _, found := fresh.Get(key); !found {
		t.Error("Expected a hit after promotion")
	}
}

func TestLayeredCache_Delete(t *testing.T) {
	c := NewLayeredCache(time.Minute, t.TempDir(), time.Minute)

	key := Key("x")
	_ = c.Set(key, []byte("v"), time.Minute)
	if err := c.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found := c.Get(key); found {
		t.Error("Expected the entry removed from both layers")
	}
}
