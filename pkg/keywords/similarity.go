package keywords

// Similarity computes the hybrid overlap score between two (title, content)
// pairs. Each side's keyword set is the union of its title and content
// keywords. The score is the maximum of Jaccard overlap and asymmetric
// containment: containment catches the common case of a short note fully
// restating part of a longer one, which Jaccard alone undercounts.
// The result is in [0, 1] and the function is symmetric.
func Similarity(titleA, contentA, titleB, contentB string) float64 {
	a := Extract(titleA).Union(Extract(contentA))
	b := Extract(titleB).Union(Extract(contentB))
	return SetSimilarity(a, b)
}

// SetSimilarity is Similarity over pre-built keyword sets.
func SetSimilarity(a, b Set) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := a.IntersectCount(b)
	if inter == 0 {
		return 0
	}
	union := len(a) + len(b) - inter
	jaccard := float64(inter) / float64(union)

	smaller := len(a)
	if len(b) < smaller {
		smaller = len(b)
	}
	containment := float64(inter) / float64(smaller)

	if containment > jaccard {
		return containment
	}
	return jaccard
}
