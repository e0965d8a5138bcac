package search

import (
	"sort"

	"github.com/kailas-cloud/geodex/internal/domain/search/result"
)

// rrfK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const rrfK = 60

// fuseRRF merges KNN and keyword hits via Reciprocal Rank Fusion.
// score(d) = sum of 1/(k + rank_i(d)) for each ranking where d appears.
// Ties keep the KNN order first, then keyword order.
func fuseRRF(knn, keyword []result.Hit) []result.Hit {
	type scored struct {
		hit   result.Hit
		score float64
		order int
	}

	merged := make(map[string]*scored, len(knn)+len(keyword))
	order := 0
	add := func(hits []result.Hit) {
		for rank, h := range hits {
			s := 1.0 / float64(rrfK+rank+1)
			if existing, ok := merged[h.Key()]; ok {
				existing.score += s
				continue
			}
			merged[h.Key()] = &scored{hit: h, score: s, order: order}
			order++
		}
	}
	add(knn)
	add(keyword)

	all := make([]*scored, 0, len(merged))
	for _, s := range merged {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].score != all[j].score {
			return all[i].score > all[j].score
		}
		return all[i].order < all[j].order
	})

	out := make([]result.Hit, 0, len(all))
	for _, s := range all {
		h := s.hit
		h.Score = s.score
		out = append(out, h)
	}
	return out
}
