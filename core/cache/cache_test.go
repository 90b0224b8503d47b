package cache

import (
	"testing"
	"time"
)

func TestGetInstance(t *testing.T) {
	inst := GetInstance()
	if inst == nil {
		t.Fatal("GetInstance returned nil")
	}
	if GetInstance() != inst {
		t.Error("GetInstance should return same instance")
	}
}

func TestSet_Get(t *testing.T) {
	c := GetInstance()
	key := "test-set-get"
	c.Set(key, "val", 0)
	got, ok := c.Get(key)
	if !ok {
		t.Fatal("Get: want true")
	}
	if got != "val" {
		t.Errorf("Get = %v, want val", got)
	}
	c.Delete(key)
}

func TestGet_Missing(t *testing.T) {
	c := GetInstance()
	_, ok := c.Get("nonexistent-key-xyz")
	if ok {
		t.Error("Get missing key: want false")
	}
}

func TestDelete(t *testing.T) {
	c := GetInstance()
	key := "test-delete"
	c.Set(key, "x", 0)
	c.Delete(key)
	_, ok := c.Get(key)
	if ok {
		t.Error("Delete: key should be gone")
	}
}

func TestSet_TTLExpires(t *testing.T) {
	c := GetInstance()
	key := "test-ttl"
	c.Set(key, "x", 1)
	if _, ok := c.Get(key); !ok {
		t.Fatal("value should exist before TTL")
	}
	time.Sleep(1100 * time.Millisecond)
	if _, ok := c.Get(key); ok {
		t.Error("value should expire after TTL")
	}
}
