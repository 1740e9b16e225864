package metrics

import (
	"testing"
	"time"
)

func TestCollectorSnapshot(t *testing.T) {
	c := New()
	c.Record(200, 10*time.Millisecond)
	c.Record(500, 30*time.Millisecond)
	c.Record(429, 0)
	c.Inc("rollups")
	c.Inc("rollups")

	snap := c.Snapshot()
	if snap["requestsTotal"].(uint64) != 3 {
		t.Fatalf("expected 3 requests, got %v", snap["requestsTotal"])
	}
	if snap["errorsTotal"].(uint64) != 1 {
		t.Fatalf("expected 1 error, got %v", snap["errorsTotal"])
	}
	if snap["rateLimitedTotal"].(uint64) != 1 {
		t.Fatalf("expected 1 rate limited, got %v", snap["rateLimitedTotal"])
	}
	events := snap["events"].(map[string]uint64)
	if events["rollups"] != 2 {
		t.Fatalf("expected 2 rollups, got %d", events["rollups"])
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.Record(200, time.Millisecond)
	c.Inc("anything")
}
