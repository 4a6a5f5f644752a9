// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package match

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/yeetrun/cmdr/pkg/cmdtree"
)

// maxSuggestDistance is the largest edit distance that still counts as a
// typo.
const maxSuggestDistance = 3

// closest returns the candidate nearest to word, or "" if none is close.
// An edit distance of at most maxSuggestDistance wins; failing that, the
// best candidate that contains word's letters in order is used.
func closest(word string, candidates []string) string {
	if word == "" || len(candidates) == 0 {
		return ""
	}
	best, bestDist := "", maxSuggestDistance+1
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(word, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	if best != "" {
		return best
	}
	ranks := fuzzy.RankFindFold(word, candidates)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}

func suggest(n cmdtree.Node, word string) string {
	var names []string
	for _, c := range n.Children() {
		names = append(names, c.Name)
	}
	return closest(word, names)
}

// suggestMarker returns the flag or option marker of m nearest to the
// first unrecognized token that looks like one.
func suggestMarker(m *cmdtree.CommandMethod, unclaimed []string) string {
	var markers []string
	for _, f := range m.Flags() {
		markers = append(markers, f.Markers()...)
	}
	for _, o := range m.Options() {
		markers = append(markers, o.Markers()...)
	}
	for _, tok := range unclaimed {
		if strings.HasPrefix(tok, "--") && len(tok) > 2 {
			return closest(tok, markers)
		}
	}
	return ""
}
