package search

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/arun279/notebook-sources/internal/domain"
)

// CollectionMatch is one ranked hit from the collection switcher.
type CollectionMatch struct {
	Collection domain.Collection
	Rank       int // Lower is better
}

// RankCollections fuzzy-matches the query against collection titles and
// source URLs and returns hits ordered best-first. An empty query returns
// every collection in its original order with rank zero.
func RankCollections(query string, collections []domain.Collection) []CollectionMatch {
	query = strings.TrimSpace(query)
	if query == "" {
		matches := make([]CollectionMatch, len(collections))
		for i, c := range collections {
			matches[i] = CollectionMatch{Collection: c}
		}
		return matches
	}

	var matches []CollectionMatch
	for _, c := range collections {
		rank := fuzzy.RankMatchNormalizedFold(query, c.DisplayTitle())
		if rank < 0 {
			rank = fuzzy.RankMatchNormalizedFold(query, c.URL)
		}
		if rank < 0 {
			continue
		}
		matches = append(matches, CollectionMatch{Collection: c, Rank: rank})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Rank < matches[j].Rank
	})
	return matches
}
