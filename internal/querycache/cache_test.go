package querycache

import (
	"sync"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestRecordKeyShapes(t *testing.T) {
	byID := RecordKey("photos", ptr(int64(1)), nil)
	byName := RecordKey("photos", nil, ptr("a.jpg"))
	byZeroID := RecordKey("photos", ptr(int64(0)), nil)
	none := RecordKey("photos", nil, nil)

	keys := []Key{byID, byName, byZeroID, none, DatasetKey("photos")}
	seen := make(map[Key]int)
	for i, k := range keys {
		if j, dup := seen[k]; dup {
			t.Errorf("keys %d and %d collide: %+v", j, i, k)
		}
		seen[k] = i
	}

	if RecordKey("photos", ptr(int64(1)), nil) != byID {
		t.Error("equal lookups must produce equal keys")
	}
	if byName.Op != OpGetRecord || DatasetKey("x").Op != OpGetRecords {
		t.Error("unexpected operation tag")
	}
}

func TestMapGetPut(t *testing.T) {
	m := New[[]string]()

	k := DatasetKey("photos")
	if _, ok := m.Get(k); ok {
		t.Fatal("Get() on empty cache reported a hit")
	}

	m.Put(k, []string{"a"})
	got, ok := m.Get(k)
	if !ok || len(got) != 1 || got[0] != "a" {
		t.Errorf("Get() = %v, %v", got, ok)
	}

	m.Put(k, []string{"b", "c"})
	got, _ = m.Get(k)
	if len(got) != 2 {
		t.Errorf("Put() did not replace value, got %v", got)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestMapInvalidateDataset(t *testing.T) {
	m := New[int]()
	m.Put(DatasetKey("photos"), 1)
	m.Put(RecordKey("photos", ptr(int64(3)), nil), 2)
	m.Put(RecordKey("photos", nil, ptr("a.jpg")), 3)
	m.Put(DatasetKey("scans"), 4)

	if removed := m.InvalidateDataset("photos"); removed != 3 {
		t.Errorf("InvalidateDataset() removed %d, want 3", removed)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
	if _, ok := m.Get(DatasetKey("scans")); !ok {
		t.Error("other dataset was invalidated")
	}
	if removed := m.InvalidateDataset("photos"); removed != 0 {
		t.Errorf("second InvalidateDataset() removed %d, want 0", removed)
	}
}

func TestMapPurge(t *testing.T) {
	m := New[int]()
	m.Put(DatasetKey("a"), 1)
	m.Put(DatasetKey("b"), 2)
	m.Purge()
	if m.Len() != 0 {
		t.Errorf("Len() after Purge = %d", m.Len())
	}
}

func TestMapConcurrentAccess(t *testing.T) {
	m := New[int]()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				k := RecordKey("photos", ptr(int64(j)), nil)
				m.Put(k, i)
				m.Get(k)
				if j%25 == 0 {
					m.InvalidateDataset("photos")
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestMapSatisfiesCache(t *testing.T) {
	var _ Cache[int] = New[int]()
}
