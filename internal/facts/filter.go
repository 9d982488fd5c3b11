package facts

// FilterTablesByFiles returns a new Tables object containing only rows whose
// file or path is present in the provided file set.
func FilterTablesByFiles(tables Tables, files map[string]bool) Tables {
	out := emptyTables()
	if len(files) == 0 {
		return out
	}

	out.Files = filterRows(tables.Files, files, func(r FileRow) string { return r.Path })
	out.Entities = filterRows(tables.Entities, files, func(r EntityRow) string { return r.File })
	out.Architectures = filterRows(tables.Architectures, files, func(r ArchitectureRow) string { return r.File })
	out.Ports = filterRows(tables.Ports, files, func(r PortRow) string { return r.File })
	out.Signals = filterRows(tables.Signals, files, func(r SignalRow) string { return r.File })
	out.Constants = filterRows(tables.Constants, files, func(r ConstantRow) string { return r.File })
	out.UseClauses = filterRows(tables.UseClauses, files, func(r UseClauseRow) string { return r.File })

	return out
}

// FilterDeltaByFiles returns a new Delta containing only rows for the specified files.
func FilterDeltaByFiles(delta Delta, files map[string]bool) Delta {
	return Delta{
		Added:   FilterTablesByFiles(delta.Added, files),
		Removed: FilterTablesByFiles(delta.Removed, files),
	}
}

func filterRows[T any](rows []T, files map[string]bool, file func(T) string) []T {
	out := []T{}
	for _, row := range rows {
		if files[file(row)] {
			out = append(out, row)
		}
	}
	return out
}
