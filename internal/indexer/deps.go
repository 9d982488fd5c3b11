package indexer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lambila-hdl/lambila/internal/facts"
)

// dependentsGraph maps a file to the files that depend on it.
type dependentsGraph map[string]map[string]bool

func (g dependentsGraph) add(dep, file string) {
	if dep == "" || dep == file {
		return
	}
	if g[dep] == nil {
		g[dep] = make(map[string]bool)
	}
	g[dep][file] = true
}

// buildDependentsGraph derives file dependencies from a snapshot. A file
// depends on the file declaring an entity when it holds an architecture of
// that entity, or when an entity it declares uses work.<entity>.
func buildDependentsGraph(tables facts.Tables) dependentsGraph {
	entityFile := make(map[string]string, len(tables.Entities))
	for _, e := range tables.Entities {
		entityFile[strings.ToLower(e.Name)] = e.File
	}

	graph := make(dependentsGraph)
	for _, a := range tables.Architectures {
		graph.add(entityFile[strings.ToLower(a.EntityName)], a.File)
	}
	for _, u := range tables.UseClauses {
		if !strings.EqualFold(u.Library, "work") {
			continue
		}
		unit, _, _ := strings.Cut(u.Selector, ".")
		graph.add(entityFile["work."+strings.ToLower(unit)], u.File)
	}
	return graph
}

type impactReport struct {
	Root   string
	Levels [][]string
}

// computeImpact walks dependents breadth first. Level n holds the files n
// hops away from root.
func computeImpact(root string, dependents dependentsGraph) impactReport {
	visited := map[string]bool{root: true}
	frontier := []string{root}
	var levels [][]string

	for len(frontier) > 0 {
		var next []string
		for _, f := range frontier {
			for dep := range dependents[f] {
				if visited[dep] {
					continue
				}
				visited[dep] = true
				next = append(next, dep)
			}
		}
		if len(next) == 0 {
			break
		}
		sort.Strings(next)
		levels = append(levels, next)
		frontier = next
	}

	return impactReport{Root: root, Levels: levels}
}

func formatImpactReport(report impactReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("  %s\n", report.Root))
	for i, level := range report.Levels {
		b.WriteString(fmt.Sprintf("    level %d (%d): %s\n", i+1, len(level), strings.Join(level, ", ")))
	}
	return b.String()
}
