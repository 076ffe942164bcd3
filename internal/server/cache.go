package server

import (
	"encoding/json"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/agbru/bassfit/pkg/models"
)

// DefaultCacheSize is the number of reports kept by default.
const DefaultCacheSize = 256

// reportCache memoizes reports by the hash of their request. A fit is a
// pure function of the request, so identical requests share one report.
type reportCache struct {
	entries *lru.Cache[uint64, *models.Report]
}

// newReportCache returns nil when size is not positive; a nil cache never
// hits.
func newReportCache(size int) *reportCache {
	if size <= 0 {
		return nil
	}
	entries, err := lru.New[uint64, *models.Report](size)
	if err != nil {
		return nil
	}
	return &reportCache{entries: entries}
}

// cacheKey hashes the canonical JSON encoding of req.
func cacheKey(req models.AnalyzeRequest) (uint64, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(data), nil
}

func (c *reportCache) get(key uint64) (*models.Report, bool) {
	if c == nil {
		return nil, false
	}
	return c.entries.Get(key)
}

func (c *reportCache) add(key uint64, report *models.Report) {
	if c == nil {
		return
	}
	c.entries.Add(key, report)
}

func (c *reportCache) len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}
