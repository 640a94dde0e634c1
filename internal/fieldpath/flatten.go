package fieldpath

// Flatten expands nested lists depth first into one flat list.
// nil yields an empty list and a non-list value yields a one-element list.
func Flatten(value any) []any {
	if value == nil {
		return []any{}
	}
	list, ok := value.([]any)
	if !ok {
		return []any{value}
	}

	flat := make([]any, 0, len(list))
	for _, item := range list {
		if nested, ok := item.([]any); ok {
			flat = append(flat, Flatten(nested)...)
			continue
		}
		flat = append(flat, item)
	}
	return flat
}
