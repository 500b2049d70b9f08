package resultcache

import (
	"context"
	"testing"
)

func TestKey_IsOrderIndependent(t *testing.T) {
	a := map[string][]float64{
		"192.0.2.1": {10, 12},
		"192.0.2.2": {20},
	}
	b := map[string][]float64{
		"192.0.2.2": {20},
		"192.0.2.1": {10, 12},
	}
	if Key(1, "cbg-m-1", a) != Key(1, "cbg-m-1", b) {
		t.Error("Key should not depend on map iteration order")
	}
}

func TestKey_DiffersByVariantAndBatch(t *testing.T) {
	series := map[string][]float64{"192.0.2.1": {10}}
	k1 := Key(1, "cbg-m-1", series)
	k2 := Key(1, "oct-m-1", series)
	k3 := Key(2, "cbg-m-1", series)
	if k1 == k2 || k1 == k3 || k2 == k3 {
		t.Error("Key should differ across variant and batch id")
	}
}

func TestCache_NilAddrIsNoOp(t *testing.T) {
	c := Open("", "", 0)
	ctx := context.Background()
	if _, hit := c.Get(ctx, "anything"); hit {
		t.Error("empty-addr cache should never hit")
	}
	c.Set(ctx, "anything", "wkt")
	if err := c.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
