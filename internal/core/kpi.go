package core

import (
	"sort"
	"strings"
)

func normalizeUserColumn(s string) string {
	return normalizeColumnName(s)
}

// resolveSynonyms implements §4.9 stage 1: match every canonical name in
// the domain's KPI vocabulary against the user's columns, either
// directly or via a synonym. Canonical names are tried in library order;
// a direct match on the normalised name wins, otherwise the first listed
// synonym that matches. When two user columns normalise to the same
// name, the later one in userColumns is the one matched.
func resolveSynonyms(domain string, userColumns []string) (mapping map[string]string, unresolved []string) {
	synonymMap, _ := kpiSynonyms.get(domain)
	mapping = map[string]string{}

	normalizedUser := make(map[string]string, len(userColumns)) // normalized -> original
	for _, c := range userColumns {
		normalizedUser[normalizeUserColumn(c)] = c
	}

	canonicals := canonicalNamesForDomain(domain)
	matchedUser := map[string]bool{}

	for _, canonical := range canonicals {
		if orig, ok := normalizedUser[normalizeUserColumn(canonical)]; ok {
			mapping[canonical] = orig
			matchedUser[orig] = true
			continue
		}
		for _, syn := range synonymMap[canonical] {
			if orig, ok := normalizedUser[normalizeUserColumn(syn)]; ok {
				mapping[canonical] = orig
				matchedUser[orig] = true
				break
			}
		}
	}

	for _, c := range userColumns {
		if !matchedUser[c] {
			unresolved = append(unresolved, c)
		}
	}
	return mapping, unresolved
}

// canonicalNamesForDomain is the union of every columns_needed entry
// across the domain's KPI library, in first-seen declaration order.
func canonicalNamesForDomain(domain string) []string {
	defs, _ := kpiLibrary.get(domain)
	seen := map[string]bool{}
	var out []string
	for _, def := range defs {
		for _, c := range def.ColumnsNeeded {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// ExtractKPIs runs the three-stage algorithm of §4.9 against a confirmed
// domain and the user's available column set. hasDateColumn should be
// true when the user's universe includes a column the type detector
// classified as date.
func ExtractKPIs(domain string, userColumns []string, hasDateColumn bool) (KpiExtractionJob, error) {
	defs, ok := kpiLibrary.get(domain)
	if !ok {
		return KpiExtractionJob{}, &UnknownDomainError{Domain: domain}
	}

	mapping, unresolved := resolveSynonyms(domain, userColumns)

	var feasible, infeasible []KpiDescriptor
	for _, def := range defs {
		available := 0
		var missing []string
		for _, needed := range def.ColumnsNeeded {
			if _, ok := mapping[needed]; ok {
				available++
			} else {
				missing = append(missing, needed)
			}
		}
		completeness := 0.0
		if len(def.ColumnsNeeded) > 0 {
			completeness = float64(available) / float64(len(def.ColumnsNeeded))
		}

		desc := KpiDescriptor{KPI: def, Completeness: completeness}
		if completeness >= FeasibilityThreshold {
			desc.Feasible = true
			recency := 0.0
			if hasDateColumn {
				recency = 0.1
			}
			desc.Score = float64(def.Priority)*(1+completeness) + recency
			feasible = append(feasible, desc)
		} else {
			desc.Feasible = false
			desc.Reason = "missing required columns: " + strings.Join(missing, ", ")
			infeasible = append(infeasible, desc)
		}
	}

	sortKpiDescriptors(feasible, defs)

	top10 := feasible
	if len(top10) > TopKpiLimit {
		top10 = top10[:TopKpiLimit]
	}

	job := KpiExtractionJob{
		Domain:             domain,
		TotalKpisInLibrary: len(defs),
		FeasibleCount:      len(feasible),
		InfeasibleCount:    len(infeasible),
		Top10:              top10,
		AllFeasible:        feasible,
		Unresolved:         unresolved,
		CanonicalMapping:   mapping,
	}
	if len(feasible) > 0 {
		sum := 0.0
		for _, d := range feasible {
			sum += d.Completeness
		}
		job.AverageCompleteness = sum / float64(len(feasible))
	}
	return job, nil
}

// sortKpiDescriptors orders by score descending; ties by priority
// descending, then by the KPI library's declaration order within defs.
func sortKpiDescriptors(descriptors []KpiDescriptor, libraryOrder []KpiDefinition) {
	order := make(map[string]int, len(libraryOrder))
	for i, d := range libraryOrder {
		order[d.KpiID] = i
	}
	sort.SliceStable(descriptors, func(i, j int) bool {
		a, b := descriptors[i], descriptors[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.KPI.Priority != b.KPI.Priority {
			return a.KPI.Priority > b.KPI.Priority
		}
		return order[a.KPI.KpiID] < order[b.KPI.KpiID]
	})
}
