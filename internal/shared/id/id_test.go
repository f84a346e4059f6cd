package id

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1.String() == id2.String() {
		t.Error("Generated IDs should be unique")
	}
	if id2.Compare(id1) <= 0 {
		t.Error("Generated IDs should be monotonic")
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator()

	for _, prefix := range []string{PlaygroundPrefix, AttachmentPrefix, RequestPrefix, InstancePrefix} {
		id := gen.GenerateWithPrefix(prefix)

		if !strings.HasPrefix(id, prefix+"_") {
			t.Errorf("ID should start with '%s_', got: %s", prefix, id)
		}
		if !IsValid(id) {
			t.Errorf("prefixed ID should parse: %s", id)
		}
	}
}

func TestTypedIDs(t *testing.T) {
	if !strings.HasPrefix(NewPlaygroundID().String(), "pg_") {
		t.Error("playground IDs should carry the pg prefix")
	}
	if !strings.HasPrefix(NewAttachmentID().String(), "att_") {
		t.Error("attachment IDs should carry the att prefix")
	}
	if !strings.HasPrefix(string(NewRequestID()), "req_") {
		t.Error("request IDs should carry the req prefix")
	}
	if !strings.HasPrefix(string(NewInstanceID()), "sbx_") {
		t.Error("instance IDs should carry the sbx prefix")
	}
}

func TestTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Second)
	id := NewAttachmentID()

	ts, err := Timestamp(id.String())
	if err != nil {
		t.Fatalf("Timestamp failed: %v", err)
	}
	if ts.Before(before) {
		t.Errorf("timestamp %v should not precede %v", ts, before)
	}

	if _, err := Timestamp("not-an-id"); err == nil {
		t.Error("expected error for invalid ID")
	}
}

func TestConcurrentGeneration(t *testing.T) {
	const n = 500
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, n)
		wg   sync.WaitGroup
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := NewRequestID().String()
			mu.Lock()
			seen[id] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != n {
		t.Errorf("expected %d unique IDs, got %d", n, len(seen))
	}
}
