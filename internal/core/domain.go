package core

import (
	"sort"
	"strings"
)

// DomainScore is one domain's scoring detail against a column universe.
type DomainScore struct {
	Domain         string
	Score          int
	Confidence     int
	MatchedPrimary []string
	MatchedKeywords []string
}

// ScoreDomains scores every library domain against the given column
// universe per §4.6's formula. Column comparison is case/whitespace/
// underscore-insensitive; keyword matching is substring-after-
// normalisation and counts at most once per domain.
func ScoreDomains(columns []string) []DomainScore {
	normalized := make([]string, len(columns))
	for i, c := range columns {
		normalized[i] = normalizeColumnName(c)
	}

	out := make([]DomainScore, 0, domainLibrary.len())
	for _, sig := range domainLibrary.all() {
		primaryHits := matchColumns(normalized, sig.PrimaryColumns)
		secondaryHits := matchColumns(normalized, sig.SecondaryColumns)
		keywordHits := matchKeywords(normalized, sig.Keywords)

		score := 30*len(primaryHits) + 15*len(secondaryHits) + 10*len(keywordHits)
		max := 30*len(sig.PrimaryColumns) + 15*len(sig.SecondaryColumns) + 10*len(sig.Keywords)

		confidence := 0
		if max > 0 {
			confidence = roundPercent(score, max)
		}

		out = append(out, DomainScore{
			Domain:          sig.Domain,
			Score:           score,
			Confidence:      confidence,
			MatchedPrimary:  primaryHits,
			MatchedKeywords: keywordHits,
		})
	}
	return out
}

func matchColumns(normalizedColumns []string, signatureColumns []string) []string {
	var hits []string
	for _, sc := range signatureColumns {
		target := normalizeColumnName(sc)
		for _, col := range normalizedColumns {
			if col == target {
				hits = append(hits, sc)
				break
			}
		}
	}
	return hits
}

func matchKeywords(normalizedColumns []string, keywords []string) []string {
	var hits []string
	for _, kw := range keywords {
		target := normalizeColumnName(kw)
		if target == "" {
			continue
		}
		for _, col := range normalizedColumns {
			if strings.Contains(col, target) {
				hits = append(hits, kw)
				break
			}
		}
	}
	return hits
}

func roundPercent(numerator, denominator int) int {
	if denominator == 0 {
		return 0
	}
	return int((100*numerator + denominator/2) / denominator)
}

// DecideDomain applies §4.6's confidence bands to the top-scoring domain.
// Ties are broken by library declaration order (the order ScoreDomains
// returns, since it iterates domainLibrary.all() in declaration order).
func DecideDomain(scores []DomainScore) (top DomainScore, decision DomainDecision, top3 []DomainScore) {
	if len(scores) == 0 {
		return DomainScore{}, DecisionManualSelect, nil
	}

	ranked := make([]DomainScore, len(scores))
	copy(ranked, scores)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	top = ranked[0]
	switch {
	case top.Confidence >= 85:
		decision = DecisionAutoDetect
	case top.Confidence >= 65:
		decision = DecisionShowTop3
		n := 3
		if len(ranked) < n {
			n = len(ranked)
		}
		top3 = ranked[:n]
	default:
		decision = DecisionManualSelect
	}
	return top, decision, top3
}

// ClassifyDomain scores the column universe and applies the decision
// bands in one call, returning a ready-to-persist DomainDetectionJob
// (ID/ProjectID/SourceCleaningJobIDs left for the caller to fill in) plus
// the top three candidates for the show_top_3 decision.
func ClassifyDomain(columns []string) (DomainDetectionJob, []DomainScore) {
	scores := ScoreDomains(columns)
	top, decision, top3 := DecideDomain(scores)

	allScores := make(map[string]int, len(scores))
	for _, s := range scores {
		allScores[s.Domain] = s.Confidence
	}

	job := DomainDetectionJob{
		Domain:          top.Domain,
		Confidence:      top.Confidence,
		Decision:        decision,
		MatchedPrimary:  top.MatchedPrimary,
		MatchedKeywords: top.MatchedKeywords,
		AllScores:       allScores,
		Status:          DomainPending,
	}
	if decision == DecisionAutoDetect {
		job.Status = DomainCompleted
	}
	return job, top3
}
