package capital

import "testing"

func TestRankSymbolsDescendingByEdge(t *testing.T) {
	a := NewAllocator(1_000_000)
	a.SetEngineWeight(eng, 0.8)
	a.Reserve("XAU", eng, 10, 100)
	a.Reserve("EURUSD", eng, 5, 200)

	r := NewBucketRanker(a)
	ranked := r.RankSymbols([]string{"XAU", "EURUSD", "GBPUSD"}, map[string]float64{
		"XAU":    0.4,
		"EURUSD": 0.9,
		"GBPUSD": 0.1,
	})

	if len(ranked) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(ranked))
	}
	if ranked[0].Key != "EURUSD" || ranked[1].Key != "XAU" || ranked[2].Key != "GBPUSD" {
		t.Fatalf("expected descending edge order EURUSD,XAU,GBPUSD, got %v,%v,%v",
			ranked[0].Key, ranked[1].Key, ranked[2].Key)
	}
	if ranked[0].Exposure.Reserved != 1000 {
		t.Fatalf("expected EURUSD reserved exposure 1000, got %v", ranked[0].Exposure.Reserved)
	}
}
