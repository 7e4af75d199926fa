package capital

import "sort"

// Bucket is a cold-path reporting row: one symbol or engine's exposure
// ranked by a net edge score. Read-only — it never gates a trade.
type Bucket struct {
	Key      string
	Exposure Exposure
	EdgeScore float64
}

// BucketRanker ranks allocator buckets by net edge score for the telemetry
// dashboard, a supplemented feature grounded on the original's bucket-based
// allocator design.
type BucketRanker struct {
	alloc *Allocator
}

func NewBucketRanker(alloc *Allocator) *BucketRanker {
	return &BucketRanker{alloc: alloc}
}

// RankSymbols returns every tracked symbol's exposure paired with its edge
// score (via scores, symbol->score), sorted descending by edge score.
func (b *BucketRanker) RankSymbols(symbols []string, scores map[string]float64) []Bucket {
	out := make([]Bucket, 0, len(symbols))
	for _, sym := range symbols {
		out = append(out, Bucket{
			Key:       sym,
			Exposure:  b.alloc.SymbolExposure(sym),
			EdgeScore: scores[sym],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EdgeScore > out[j].EdgeScore })
	return out
}
