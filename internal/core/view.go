package core

import (
	"fmt"
	"sort"
	"strings"
)

// ViewTable is one table's shape as the view generator needs it: enough
// to pick a fact table and to alias non-fact columns.
type ViewTable struct {
	TableName string
	RowCount  int
	CreatedAt int64 // unix millis; earliest wins fact-table ties
	Columns   []string
}

// GeneratedView is one synthesised unified view: a name, its SQL, and the
// tables it covers (one connected component of the relationship graph).
type GeneratedView struct {
	ViewName string
	SQL      string
	Tables   []string
}

type viewEdge struct {
	other    string
	factCol  string // this side's join column, when this table is the fact
	otherCol string // the other side's join column
}

// GenerateUnifiedViews builds one view per connected component of the
// Project's valid relationship graph, per §4.8. viewNamePrefix is
// typically "unified_view_<timestamp>"; components after the first get a
// numeric suffix to stay unique within the project.
func GenerateUnifiedViews(tables []ViewTable, relationships []Relationship, viewNamePrefix string) []GeneratedView {
	byName := make(map[string]ViewTable, len(tables))
	for _, t := range tables {
		byName[t.TableName] = t
	}

	adjacency := map[string][]viewEdge{}
	inDegree := map[string]int{}
	for _, rel := range relationships {
		if rel.Status != RelationshipValid {
			continue
		}
		// SourceTable is the "many" side holding the FK; TargetTable is
		// the "one" side it references. Both directions are recorded so
		// either table can serve as the join anchor.
		adjacency[rel.SourceTable] = append(adjacency[rel.SourceTable], viewEdge{
			other: rel.TargetTable, factCol: rel.SourceColumn, otherCol: rel.TargetColumn,
		})
		adjacency[rel.TargetTable] = append(adjacency[rel.TargetTable], viewEdge{
			other: rel.SourceTable, factCol: rel.TargetColumn, otherCol: rel.SourceColumn,
		})
		inDegree[rel.SourceTable]++
	}

	components := connectedComponents(tables, adjacency)

	var views []GeneratedView
	for i, component := range components {
		fact := chooseFactTable(component, byName, inDegree)
		sql, covered := buildViewSQL(fact, adjacency, byName)
		name := viewNamePrefix
		if i > 0 {
			name = fmt.Sprintf("%s_%d", viewNamePrefix, i+1)
		}
		views = append(views, GeneratedView{ViewName: name, SQL: sql, Tables: covered})
	}
	return views
}

func connectedComponents(tables []ViewTable, adjacency map[string][]viewEdge) [][]string {
	visited := map[string]bool{}
	var components [][]string

	for _, t := range tables {
		if visited[t.TableName] {
			continue
		}
		var component []string
		queue := []string{t.TableName}
		visited[t.TableName] = true
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			component = append(component, node)
			edges := adjacency[node]
			sort.Slice(edges, func(i, j int) bool { return edges[i].other < edges[j].other })
			for _, e := range edges {
				if !visited[e.other] {
					visited[e.other] = true
					queue = append(queue, e.other)
				}
			}
		}
		sort.Strings(component)
		components = append(components, component)
	}
	return components
}

func chooseFactTable(component []string, byName map[string]ViewTable, inDegree map[string]int) ViewTable {
	best := byName[component[0]]
	bestIn := inDegree[component[0]]
	for _, name := range component[1:] {
		t := byName[name]
		in := inDegree[name]
		switch {
		case in > bestIn:
			best, bestIn = t, in
		case in == bestIn:
			if t.RowCount > best.RowCount {
				best, bestIn = t, in
			} else if t.RowCount == best.RowCount && t.CreatedAt < best.CreatedAt {
				best, bestIn = t, in
			}
		}
	}
	return best
}

// buildViewSQL walks a BFS spanning tree of the component rooted at fact,
// emitting one LEFT JOIN per tree edge with deterministically ordered,
// dimension-prefixed column aliases.
func buildViewSQL(fact ViewTable, adjacency map[string][]viewEdge, byName map[string]ViewTable) (string, []string) {
	visited := map[string]bool{fact.TableName: true}
	type joinStep struct {
		table    ViewTable
		onFact   string
		factCol  string
		otherCol string
	}
	var joins []joinStep

	queue := []string{fact.TableName}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		edges := append([]viewEdge(nil), adjacency[node]...)
		sort.Slice(edges, func(i, j int) bool { return edges[i].other < edges[j].other })
		for _, e := range edges {
			if visited[e.other] {
				continue
			}
			visited[e.other] = true
			joins = append(joins, joinStep{table: byName[e.other], onFact: node, factCol: e.factCol, otherCol: e.otherCol})
			queue = append(queue, e.other)
		}
	}

	var b strings.Builder
	selectCols := []string{quoteIdentifier(fact.TableName) + ".*"}
	for _, j := range joins {
		for _, col := range j.table.Columns {
			alias := fmt.Sprintf("%s_%s", j.table.TableName, col)
			selectCols = append(selectCols, fmt.Sprintf("%s.%s AS %s", quoteIdentifier(j.table.TableName), quoteIdentifier(col), quoteIdentifier(alias)))
		}
	}

	fmt.Fprintf(&b, "SELECT %s\nFROM %s", strings.Join(selectCols, ",\n       "), quoteIdentifier(fact.TableName))
	for _, j := range joins {
		fmt.Fprintf(&b, "\nLEFT JOIN %s ON %s.%s = %s.%s",
			quoteIdentifier(j.table.TableName),
			quoteIdentifier(j.onFact), quoteIdentifier(j.factCol),
			quoteIdentifier(j.table.TableName), quoteIdentifier(j.otherCol))
	}

	covered := []string{fact.TableName}
	for _, j := range joins {
		covered = append(covered, j.table.TableName)
	}
	return b.String(), covered
}
