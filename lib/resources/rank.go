// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

package resources

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/parley-dev/parley/lib/provider"
)

// Okapi BM25 parameters.
const (
	paramK1      = 1.2
	paramB       = 0.75
	paramEpsilon = 0.25
)

// Field weights: a token in the name counts three times.
const (
	nameWeight        = 3
	descriptionWeight = 2
	uriWeight         = 1
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// tokenize splits text into lowercase alphanumeric runs of at least
// two characters.
func tokenize(text string) []string {
	matches := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := matches[:0]
	for _, match := range matches {
		if len(match) >= 2 {
			tokens = append(tokens, match)
		}
	}
	return tokens
}

// index scores a fixed set of resources against queries.
type index struct {
	frequencies   []map[string]int
	lengths       []int
	averageLength float64
	idf           map[string]float64
}

func newIndex(resources []provider.Resource) *index {
	built := &index{
		frequencies: make([]map[string]int, len(resources)),
		lengths:     make([]int, len(resources)),
		idf:         make(map[string]float64),
	}

	containing := make(map[string]int)
	var total int
	for i, resource := range resources {
		frequency := make(map[string]int)
		length := 0
		for _, field := range []struct {
			text   string
			weight int
		}{
			{resource.Name, nameWeight},
			{resource.Description, descriptionWeight},
			{resource.URI, uriWeight},
		} {
			for _, token := range tokenize(field.text) {
				frequency[token] += field.weight
				length += field.weight
			}
		}
		for token := range frequency {
			containing[token]++
		}
		built.frequencies[i] = frequency
		built.lengths[i] = length
		total += length
	}
	if len(resources) > 0 {
		built.averageLength = float64(total) / float64(len(resources))
	}

	count := float64(len(resources))
	for token, documents := range containing {
		idf := math.Log(1 + (count-float64(documents)+0.5)/(float64(documents)+0.5))
		if idf <= 0 {
			idf = paramEpsilon
		}
		built.idf[token] = idf
	}
	return built
}

func (built *index) score(document int, query []string) float64 {
	if built.averageLength == 0 {
		return 0
	}
	length := float64(built.lengths[document])
	var score float64
	for _, token := range query {
		frequency := float64(built.frequencies[document][token])
		if frequency == 0 {
			continue
		}
		numerator := frequency * (paramK1 + 1)
		denominator := frequency + paramK1*(1-paramB+paramB*length/built.averageLength)
		score += built.idf[token] * numerator / denominator
	}
	return score
}

// mentions reports whether any query word is a substring of the
// resource's name or description.
func mentions(resource provider.Resource, words []string) bool {
	name := strings.ToLower(resource.Name)
	description := strings.ToLower(resource.Description)
	for _, word := range words {
		if strings.Contains(name, word) || (description != "" && strings.Contains(description, word)) {
			return true
		}
	}
	return false
}

// Rank returns up to limit resources relevant to query, most relevant
// first. A limit of zero or less means no limit.
func Rank(resources []provider.Resource, query string, limit int) []provider.Resource {
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 || len(resources) == 0 {
		return nil
	}

	built := newIndex(resources)
	queryTokens := tokenize(query)

	type candidate struct {
		position int
		score    float64
	}
	var candidates []candidate
	for position, resource := range resources {
		if mentions(resource, words) {
			candidates = append(candidates, candidate{position: position, score: built.score(position, queryTokens)})
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	ranked := make([]provider.Resource, len(candidates))
	for i, candidate := range candidates {
		ranked[i] = resources[candidate.position]
	}
	return ranked
}
