package workflow

import "github.com/noah-isme/miqaat-rms-api/internal/models"

// Groups is an insertion-ordered view of requests grouped by ITS and type.
// It is immutable once built.
type Groups struct {
	order []string
	byKey map[string]models.RequestGroup
}

func groupKey(its string, requestType models.RequestType) string {
	return its + "|" + string(requestType)
}

// GroupRequests folds reqs into groups keyed by ITS and type in one pass.
// Groups keep the order their first request arrived in and requests keep
// their order within a group. A group whose first request has no id is
// dropped.
func GroupRequests(reqs []models.Request) Groups {
	g := Groups{byKey: make(map[string]models.RequestGroup)}
	for _, r := range reqs {
		key := groupKey(r.ITS, r.Type)
		group, ok := g.byKey[key]
		if !ok {
			g.order = append(g.order, key)
			group = models.RequestGroup{ITS: r.ITS, Type: r.Type}
		}
		group.Requests = append(group.Requests, r)
		g.byKey[key] = group
	}

	kept := make([]string, 0, len(g.order))
	for _, key := range g.order {
		if g.byKey[key].Requests[0].ID == 0 {
			delete(g.byKey, key)
			continue
		}
		kept = append(kept, key)
	}
	g.order = kept
	return g
}

// Len returns the number of groups.
func (g Groups) Len() int {
	return len(g.order)
}

// List returns the groups in first-seen order.
func (g Groups) List() []models.RequestGroup {
	out := make([]models.RequestGroup, 0, len(g.order))
	for _, key := range g.order {
		group := g.byKey[key]
		group.Requests = append([]models.Request(nil), group.Requests...)
		out = append(out, group)
	}
	return out
}

// Lookup returns the group for its and type.
func (g Groups) Lookup(its string, requestType models.RequestType) (models.RequestGroup, bool) {
	group, ok := g.byKey[groupKey(its, requestType)]
	if !ok {
		return models.RequestGroup{}, false
	}
	group.Requests = append([]models.Request(nil), group.Requests...)
	return group, true
}

// Flatten concatenates every group's requests in order.
func (g Groups) Flatten() []models.Request {
	out := make([]models.Request, 0)
	for _, key := range g.order {
		out = append(out, g.byKey[key].Requests...)
	}
	return out
}

// DefaultSelection returns the representative id of every group.
func (g Groups) DefaultSelection() []int64 {
	ids := make([]int64, 0, len(g.order))
	for _, key := range g.order {
		ids = append(ids, g.byKey[key].Requests[0].ID)
	}
	return ids
}

// Selection is an ordered set of request ids.
type Selection struct {
	ids []int64
}

// NewSelection creates a selection holding ids once each.
func NewSelection(ids ...int64) *Selection {
	s := &Selection{}
	for _, id := range ids {
		if !s.Contains(id) {
			s.ids = append(s.ids, id)
		}
	}
	return s
}

// Toggle flips id and reports whether it is selected afterwards.
func (s *Selection) Toggle(id int64) bool {
	for i, existing := range s.ids {
		if existing == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			return false
		}
	}
	s.ids = append(s.ids, id)
	return true
}

// Contains reports whether id is selected.
func (s *Selection) Contains(id int64) bool {
	for _, existing := range s.ids {
		if existing == id {
			return true
		}
	}
	return false
}

// IDs returns the selected ids in selection order.
func (s *Selection) IDs() []int64 {
	return append([]int64{}, s.ids...)
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	return len(s.ids)
}
