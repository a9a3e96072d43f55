package cache

import "testing"

func TestPutGetRoundTrip(t *testing.T) {
	c := New(8)
	c.Put("hello", "world")
	v, ok := c.Get("hello")
	if !ok || v != "world" {
		t.Fatalf("Get(hello) = %q, %v; want world, true", v, ok)
	}

	c.Put("hello", "world2")
	v, ok = c.Get("hello")
	if !ok || v != "world2" {
		t.Fatalf("Get(hello) after overwrite = %q, %v; want world2, true", v, ok)
	}
}

func TestGetAbsent(t *testing.T) {
	c := New(8)
	if v, ok := c.Get("missing"); ok {
		t.Fatalf("Get(missing) = %q, %v; want _, false", v, ok)
	}
}

func TestGetWithLMPExactKey(t *testing.T) {
	c := New(8)
	c.Put("aaabbb", "V")
	length, value, ok := c.GetWithLMP("aaabbb")
	if !ok || length != len("aaabbb") || value != "V" {
		t.Fatalf("GetWithLMP(aaabbb) = %d, %q, %v; want 6, V, true", length, value, ok)
	}
}

func TestGetWithLMPPartialPrefix(t *testing.T) {
	c := New(8)
	c.Put("aaabbb", "V")
	length, value, ok := c.GetWithLMP("aaabbbXX")
	if !ok || length != 6 || value != "V" {
		t.Fatalf("GetWithLMP(aaabbbXX) = %d, %q, %v; want 6, V, true", length, value, ok)
	}
}

func TestGetWithLMPNoMatch(t *testing.T) {
	c := New(8)
	c.Put("zzz", "V")
	length, _, ok := c.GetWithLMP("aaa")
	if ok || length != 0 {
		t.Fatalf("GetWithLMP(aaa) = %d, _, %v; want 0, _, false", length, ok)
	}
}

func TestCapacityEvictsLRU(t *testing.T) {
	c := New(minCapacity) // 8
	for i := 0; i < minCapacity+1; i++ {
		c.Put(string(rune('a'+i)), "v")
	}
	if c.Len() != minCapacity {
		t.Fatalf("Len() = %d; want %d", c.Len(), minCapacity)
	}
	if _, ok := c.Get("a"); ok {
		t.Fatalf("first-inserted key still present after eviction")
	}
	if _, ok := c.Get(string(rune('a' + minCapacity))); !ok {
		t.Fatalf("most recently inserted key missing")
	}
}

func TestGetTouchesLRU(t *testing.T) {
	c := New(minCapacity)
	keys := make([]string, minCapacity)
	for i := range keys {
		keys[i] = string(rune('a' + i))
		c.Put(keys[i], "v")
	}
	// touch the oldest key so it becomes MRU
	c.Get(keys[0])
	// inserting one more key should now evict keys[1], not keys[0]
	c.Put("new", "v")
	if _, ok := c.Get(keys[0]); !ok {
		t.Fatalf("touched key %q was evicted", keys[0])
	}
	if _, ok := c.Get(keys[1]); ok {
		t.Fatalf("untouched oldest key %q should have been evicted", keys[1])
	}
}

func TestBelowMinimumCapacityIsRoundedUp(t *testing.T) {
	c := New(1)
	if c.capacity != minCapacity {
		t.Fatalf("capacity = %d; want %d", c.capacity, minCapacity)
	}
}
