package evaluation

// Retrieval quality for a golden query is judged on citation source ids: the
// expected ids from the fixture against the ids the pipeline actually cited,
// in ranked order.

// RecallAtK returns the fraction of expected sources present among the first
// k cited sources. An empty expected set scores 0.0.
func RecallAtK(expected, cited []string, k int) float64 {
	if len(expected) == 0 {
		return 0.0
	}

	want := sourceSet(expected)
	found := 0
	for _, id := range topK(cited, k) {
		if _, ok := want[id]; ok {
			found++
		}
	}

	return float64(found) / float64(len(expected))
}

// MRRAtK returns the reciprocal rank of the first expected source among the
// first k cited sources, or 0.0 when none of them was cited.
func MRRAtK(expected, cited []string, k int) float64 {
	if len(expected) == 0 || len(cited) == 0 {
		return 0.0
	}

	want := sourceSet(expected)
	for i, id := range topK(cited, k) {
		if _, ok := want[id]; ok {
			return 1.0 / float64(i+1)
		}
	}

	return 0.0
}

func sourceSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func topK(ids []string, k int) []string {
	if k < len(ids) {
		return ids[:k]
	}
	return ids
}
