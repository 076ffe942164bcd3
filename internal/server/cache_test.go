package server

import (
	"testing"

	"github.com/agbru/bassfit/pkg/models"
)

func TestCacheKey(t *testing.T) {
	a := models.AnalyzeRequest{Counts: []float64{1, 2, 3}, Method: "lm"}
	b := models.AnalyzeRequest{Counts: []float64{1, 2, 3}, Method: "lm"}
	c := models.AnalyzeRequest{Counts: []float64{1, 2, 3}, Method: "bfgs"}

	ka, err := cacheKey(a)
	if err != nil {
		t.Fatalf("cacheKey() error = %v", err)
	}
	kb, _ := cacheKey(b)
	kc, _ := cacheKey(c)
	if ka != kb {
		t.Error("equal requests should share a key")
	}
	if ka == kc {
		t.Error("different methods should not share a key")
	}
}

func TestReportCacheEviction(t *testing.T) {
	c := newReportCache(2)
	for i := range 3 {
		c.add(uint64(i), &models.Report{Base: float64(i)})
	}
	if c.len() != 2 {
		t.Fatalf("len = %d, want 2", c.len())
	}
	if _, ok := c.get(0); ok {
		t.Error("oldest entry should be evicted")
	}
	if r, ok := c.get(2); !ok || r.Base != 2 {
		t.Errorf("get(2) = %v, %v", r, ok)
	}
}

func TestNilReportCache(t *testing.T) {
	var c *reportCache
	c.add(1, &models.Report{})
	if _, ok := c.get(1); ok || c.len() != 0 {
		t.Error("nil cache should never hit")
	}
	if newReportCache(0) != nil {
		t.Error("size 0 should disable the cache")
	}
}
