package workflow

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/miqaat-rms-api/internal/models"
)

func TestGroupRequestsScenario(t *testing.T) {
	groups := GroupRequests(scenarioRequests())

	list := groups.List()
	require.Len(t, list, 2)
	assert.Equal(t, "11111111", list[0].ITS)
	assert.Equal(t, models.RequestTypePass, list[0].Type)
	assert.Equal(t, []int64{1, 2}, ids(list[0].Requests))
	assert.Equal(t, "22222222", list[1].ITS)
	assert.Equal(t, []int64{3}, ids(list[1].Requests))
	assert.Equal(t, []int64{1, 3}, groups.DefaultSelection())
	assert.Equal(t, scenarioRequests(), groups.Flatten())

	group, ok := groups.Lookup("11111111", models.RequestTypePass)
	require.True(t, ok)
	assert.Equal(t, []int64{2}, ids(group.Hidden()))
}

func TestGroupRequestsFlattenIsPartition(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	itsPool := []string{"11111111", "22222222", "33333333"}
	types := []models.RequestType{models.RequestTypePass, models.RequestTypeChangeCity, models.RequestTypeChangeZone, "meal_request"}

	for round := 0; round < 50; round++ {
		n := rng.Intn(40)
		reqs := make([]models.Request, n)
		for i := range reqs {
			reqs[i] = models.Request{
				ID:   int64(i + 1),
				ITS:  itsPool[rng.Intn(len(itsPool))],
				Type: types[rng.Intn(len(types))],
			}
		}

		groups := GroupRequests(reqs)
		assert.Len(t, groups.Flatten(), n, "round %d", round)

		var firstSeen []string
		seen := map[string]bool{}
		for _, r := range reqs {
			key := groupKey(r.ITS, r.Type)
			if !seen[key] {
				seen[key] = true
				firstSeen = append(firstSeen, key)
			}
		}
		list := groups.List()
		require.Len(t, list, len(firstSeen), "round %d", round)
		for i, g := range list {
			assert.Equal(t, firstSeen[i], groupKey(g.ITS, g.Type), "round %d", round)
			assert.Equal(t, subsequence(reqs, g.ITS, g.Type), g.Requests, "round %d", round)
		}

		// Input already laid out group by group comes back unchanged.
		contiguous := groups.Flatten()
		assert.Equal(t, reqsOrEmpty(contiguous), reqsOrEmpty(GroupRequests(contiguous).Flatten()), "round %d", round)

		selected := groups.DefaultSelection()
		assert.Len(t, selected, groups.Len())
		for _, g := range list {
			assert.Contains(t, selected, g.Requests[0].ID)
			for _, hidden := range g.Hidden() {
				assert.NotContains(t, selected, hidden.ID)
			}
		}
	}
}

func TestGroupRequestsSkipsMalformedGroups(t *testing.T) {
	reqs := []models.Request{
		{ID: 0, ITS: "11111111", Type: models.RequestTypePass},
		{ID: 2, ITS: "11111111", Type: models.RequestTypePass},
		{ID: 3, ITS: "22222222", Type: models.RequestTypePass},
	}
	groups := GroupRequests(reqs)
	assert.Equal(t, 1, groups.Len())
	assert.Equal(t, []int64{3}, groups.DefaultSelection())
}

func TestGroupRequestsEmpty(t *testing.T) {
	groups := GroupRequests(nil)
	assert.Equal(t, 0, groups.Len())
	assert.Empty(t, groups.Flatten())
	assert.Empty(t, groups.DefaultSelection())
}

func TestGroupsListIsACopy(t *testing.T) {
	groups := GroupRequests(scenarioRequests())
	list := groups.List()
	list[0].Requests[0].ID = 99
	assert.Equal(t, []int64{1, 3}, groups.DefaultSelection())
}

func TestGroupsLookupIsACopy(t *testing.T) {
	groups := GroupRequests(scenarioRequests())
	group, ok := groups.Lookup("11111111", models.RequestTypePass)
	require.True(t, ok)
	group.Requests[0].ID = 99
	group.Requests = append(group.Requests, models.Request{ID: 100})

	again, ok := groups.Lookup("11111111", models.RequestTypePass)
	require.True(t, ok)
	assert.Equal(t, []int64{1, 2}, ids(again.Requests))
	assert.Equal(t, []int64{1, 2}, ids(groups.List()[0].Requests))
	assert.Equal(t, []int64{1, 3}, groups.DefaultSelection())

	_, ok = groups.Lookup("33333333", models.RequestTypePass)
	assert.False(t, ok)
}

func TestSelectionToggle(t *testing.T) {
	s := NewSelection(1, 3, 1)
	assert.Equal(t, []int64{1, 3}, s.IDs())
	assert.False(t, s.Toggle(1))
	assert.True(t, s.Toggle(2))
	assert.Equal(t, []int64{3, 2}, s.IDs())
	assert.True(t, s.Contains(2))
	assert.Equal(t, 2, s.Len())
}

func subsequence(reqs []models.Request, its string, requestType models.RequestType) []models.Request {
	var out []models.Request
	for _, r := range reqs {
		if r.ITS == its && r.Type == requestType {
			out = append(out, r)
		}
	}
	return out
}

func reqsOrEmpty(reqs []models.Request) []models.Request {
	if reqs == nil {
		return []models.Request{}
	}
	return reqs
}

func ids(reqs []models.Request) []int64 {
	out := make([]int64, len(reqs))
	for i, r := range reqs {
		out[i] = r.ID
	}
	return out
}
