package core

import (
	"strings"
)

// RelationshipValidityThreshold is the minimum match rate (§4.7) for a
// candidate key pair to be recorded as a valid Relationship.
const RelationshipValidityThreshold = 0.7

// RelationshipTable is one cleaned table's shape, as the relationship
// detector needs it: per-column type/uniqueness plus the raw values
// used to compute match rates.
type RelationshipTable struct {
	TableName   string
	RowCount    int
	CreatedAt   int64 // unix millis; earliest wins fact-table ties
	ColumnOrder []string // columns in their inferred order, for deterministic downstream output
	Columns     map[string]ColumnType
	Values      map[string][]string // column -> all non-null values, in row order
}

// joinableGroup are the ColumnTypes treated as mutually compatible for
// key matching: identifiers are frequently typed as numeric, text_id,
// categorical, or plain text depending on formatting noise.
var joinableGroup = map[ColumnType]bool{
	TypeNumeric:     true,
	TypeTextID:      true,
	TypeText:        true,
	TypeCategorical: true,
}

func typesCompatible(a, b ColumnType) bool {
	if a == b {
		return true
	}
	return joinableGroup[a] && joinableGroup[b]
}

// isIDSuffixMatch reports whether two normalised column names match the
// id-suffix heuristic: "<name>_id"/"<name>id"/"id_<name>" against "name",
// or against each other's base name.
func isIDSuffixMatch(a, b string) bool {
	baseA, okA := strings.CutSuffix(a, "id")
	baseB, okB := strings.CutSuffix(b, "id")
	_, okPrefixA := strings.CutPrefix(a, "id")
	_, okPrefixB := strings.CutPrefix(b, "id")

	if okA && baseA == b {
		return true
	}
	if okB && baseB == a {
		return true
	}
	if okA && okB && baseA == baseB {
		return true
	}
	if okPrefixA && strings.TrimPrefix(a, "id") == b {
		return true
	}
	if okPrefixB && strings.TrimPrefix(b, "id") == a {
		return true
	}
	return false
}

func isCandidateKeyPair(colA, colB string) bool {
	a, b := normalizeColumnName(colA), normalizeColumnName(colB)
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	return isIDSuffixMatch(a, b)
}

// matchRate is |distinct values of src that occur in dst| / |distinct
// non-null values of src|.
func matchRate(srcValues, dstValues []string) float64 {
	srcDistinct := map[string]bool{}
	for _, v := range srcValues {
		if v != "" {
			srcDistinct[v] = true
		}
	}
	if len(srcDistinct) == 0 {
		return 0
	}
	dstDistinct := map[string]bool{}
	for _, v := range dstValues {
		if v != "" {
			dstDistinct[v] = true
		}
	}
	matched := 0
	for v := range srcDistinct {
		if dstDistinct[v] {
			matched++
		}
	}
	return float64(matched) / float64(len(srcDistinct))
}

func distinctCount(values []string) int {
	seen := map[string]bool{}
	for _, v := range values {
		if v != "" {
			seen[v] = true
		}
	}
	return len(seen)
}

// DetectRelationships runs the candidate-key search and match-rate scoring
// of §4.7 across every ordered pair of tables, keeping only the
// highest-match candidate per ordered pair and suppressing reverse
// duplicates.
func DetectRelationships(tables []RelationshipTable) []Relationship {
	var relationships []Relationship
	seenPairs := map[[2]string]bool{}

	for i := range tables {
		for j := range tables {
			if i == j {
				continue
			}
			t1, t2 := tables[i], tables[j]
			pairKey := [2]string{t1.TableName, t2.TableName}
			reverseKey := [2]string{t2.TableName, t1.TableName}
			if seenPairs[pairKey] || seenPairs[reverseKey] {
				continue
			}

			best, ok := bestCandidate(t1, t2)
			if !ok {
				continue
			}
			seenPairs[pairKey] = true
			relationships = append(relationships, best)
		}
	}

	return relationships
}

func bestCandidate(t1, t2 RelationshipTable) (Relationship, bool) {
	var best Relationship
	bestRate := -1.0
	found := false

	for c1, type1 := range t1.Columns {
		for c2, type2 := range t2.Columns {
			if !isCandidateKeyPair(c1, c2) {
				continue
			}
			if !typesCompatible(type1, type2) {
				continue
			}

			rate := matchRate(t1.Values[c1], t2.Values[c2])
			if rate < RelationshipValidityThreshold {
				if rate > bestRate {
					bestRate = rate
					best = buildRelationship(t1, c1, t2, c2, rate, RelationshipInvalid)
					found = true
				}
				continue
			}
			if rate > bestRate {
				bestRate = rate
				best = buildRelationship(t1, c1, t2, c2, rate, RelationshipValid)
				found = true
			}
		}
	}

	return best, found
}

func buildRelationship(t1 RelationshipTable, c1 string, t2 RelationshipTable, c2 string, rate float64, status RelationshipStatus) Relationship {
	rel := Relationship{
		SourceTable:  t1.TableName,
		SourceColumn: c1,
		TargetTable:  t2.TableName,
		TargetColumn: c2,
		MatchRate:    rate,
		Status:       status,
	}
	if status != RelationshipValid {
		return rel
	}

	srcUnique := distinctCount(t1.Values[c1]) == t1.RowCount
	dstUnique := distinctCount(t2.Values[c2]) == t2.RowCount
	// the "one" side of 1:many is whichever column is unique (its row
	// count equals its distinct-value count); if both or neither are
	// unique, the source as scanned keeps the "many" role.
	if dstUnique && !srcUnique {
		rel.Kind = RelationshipOneToMany
	} else if srcUnique && !dstUnique {
		rel.SourceTable, rel.TargetTable = t2.TableName, t1.TableName
		rel.SourceColumn, rel.TargetColumn = c2, c1
		rel.Kind = RelationshipOneToMany
	} else {
		rel.Kind = RelationshipOneToMany
	}
	return rel
}
