package dto

// BatchForm creates or edits a batch.
type BatchForm struct {
	Name       string  `json:"name" validate:"notblank"`
	RequestIDs []int64 `json:"request_ids" validate:"min=1"`
}

// DedupedIDs returns the request ids with repeats removed, first occurrence kept.
func (f BatchForm) DedupedIDs() []int64 {
	seen := make(map[int64]struct{}, len(f.RequestIDs))
	ids := make([]int64, 0, len(f.RequestIDs))
	for _, id := range f.RequestIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
