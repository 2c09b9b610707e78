package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New[string]()
	c.Set("k", "v", time.Second)
	got, ok := c.Get("k")
	if !ok || got != "v" {
		t.Fatalf("expected v, got %q exists=%v", got, ok)
	}
}

func TestExpiry(t *testing.T) {
	c := New[int]()
	c.Set("k", 1, 20*time.Millisecond)
	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected expired entry to be absent")
	}
}

func TestDelete(t *testing.T) {
	c := New[int]()
	c.Set("k", 1, time.Second)
	c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected deleted entry to be absent")
	}
}
