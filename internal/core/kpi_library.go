package core

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed kpidata/kpis.json
var kpiLibraryJSON []byte

//go:embed kpidata/synonyms.json
var kpiSynonymsJSON []byte

var kpiLibrary = newLibrary[[]KpiDefinition]()
var kpiSynonyms = newLibrary[map[string][]string]()

func init() {
	var kpis map[string][]KpiDefinition
	if err := json.Unmarshal(kpiLibraryJSON, &kpis); err != nil {
		panic(fmt.Sprintf("core: malformed kpidata/kpis.json: %v", err))
	}
	for domain, defs := range kpis {
		filtered := defs[:0]
		for _, d := range defs {
			if d.Priority >= MinKpiPriority {
				filtered = append(filtered, d)
			}
		}
		kpiLibrary.set(domain, filtered)
	}

	var synonyms map[string]map[string][]string
	if err := json.Unmarshal(kpiSynonymsJSON, &synonyms); err != nil {
		panic(fmt.Sprintf("core: malformed kpidata/synonyms.json: %v", err))
	}
	for domain, m := range synonyms {
		kpiSynonyms.set(domain, m)
	}
}

// KnownDomains returns every domain name present in the KPI library, for
// callers that need to validate a requested domain before extraction.
// The library is filled from a decoded JSON map, so the order of the
// returned names is not defined.
func KnownDomains() []string {
	return kpiLibrary.keys()
}
