package facts

import "strconv"

// Delta captures added and removed fact rows between two snapshots.
type Delta struct {
	Added   Tables `json:"added"`
	Removed Tables `json:"removed"`
}

// ComputeDelta computes row-level additions and removals between two snapshots.
func ComputeDelta(prev, next Tables) Delta {
	return Delta{
		Added:   diffTables(prev, next),
		Removed: diffTables(next, prev),
	}
}

// Empty reports whether nothing changed.
func (d Delta) Empty() bool {
	return d.Added.Empty() && d.Removed.Empty()
}

// ChangedFiles returns the set of files that own at least one changed row.
func (d Delta) ChangedFiles() map[string]bool {
	out := make(map[string]bool)
	for _, t := range []Tables{d.Added, d.Removed} {
		for _, r := range t.Files {
			out[r.Path] = true
		}
		for _, r := range t.Entities {
			out[r.File] = true
		}
		for _, r := range t.Architectures {
			out[r.File] = true
		}
		for _, r := range t.Ports {
			out[r.File] = true
		}
		for _, r := range t.Signals {
			out[r.File] = true
		}
		for _, r := range t.Constants {
			out[r.File] = true
		}
		for _, r := range t.UseClauses {
			out[r.File] = true
		}
	}
	delete(out, "")
	return out
}

func diffTables(from, to Tables) Tables {
	out := emptyTables()

	out.Files = diffRows(from.Files, to.Files, func(r FileRow) string {
		return r.Path + "|" + r.Library + "|" + r.Status
	})
	out.Entities = diffRows(from.Entities, to.Entities, func(r EntityRow) string {
		return r.Name + "|" + r.File + "|" + strconv.Itoa(r.Line)
	})
	out.Architectures = diffRows(from.Architectures, to.Architectures, func(r ArchitectureRow) string {
		return r.Name + "|" + r.EntityName + "|" + r.File + "|" + strconv.Itoa(r.Line)
	})
	out.Ports = diffRows(from.Ports, to.Ports, func(r PortRow) string {
		return r.Entity + "|" + r.Name + "|" + r.Direction + "|" + r.Type + "|" + strconv.Itoa(r.Position) + "|" + r.File
	})
	out.Signals = diffRows(from.Signals, to.Signals, func(r SignalRow) string {
		return r.Entity + "|" + r.Architecture + "|" + r.Name + "|" + r.Type + "|" + r.File
	})
	out.Constants = diffRows(from.Constants, to.Constants, func(r ConstantRow) string {
		return r.Entity + "|" + r.Architecture + "|" + r.Name + "|" + r.Type + "|" + r.Value + "|" + r.File
	})
	out.UseClauses = diffRows(from.UseClauses, to.UseClauses, func(r UseClauseRow) string {
		return r.Entity + "|" + r.Library + "|" + r.Selector + "|" + r.File
	})

	return out
}

func diffRows[T any](from, to []T, key func(T) string) []T {
	fromSet := make(map[string]struct{}, len(from))
	for _, row := range from {
		fromSet[key(row)] = struct{}{}
	}
	diff := []T{}
	for _, row := range to {
		if _, ok := fromSet[key(row)]; !ok {
			diff = append(diff, row)
		}
	}
	return diff
}
