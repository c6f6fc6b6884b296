package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestPayloadRoundTrip(t *testing.T) {
	var r Request
	r.Type = RequestTypePass
	r.ApplyPayload(PassRequest{Toggle: PassToggleMajlis, PassDate: "2024-05-01"})

	assert.Nil(t, r.City)
	assert.Nil(t, r.Zone)
	assert.Equal(t, PassRequest{Toggle: PassToggleMajlis, PassDate: "2024-05-01"}, r.Payload())

	r.Type = RequestTypeChangeCity
	r.ApplyPayload(CityChange{City: 5})
	assert.Nil(t, r.Toggle)
	assert.Nil(t, r.PassDate)
	assert.Equal(t, CityChange{City: 5}, r.Payload())
}

func TestRequestDetail(t *testing.T) {
	city := int64(5)
	name := "Mumbai"
	toggle := PassToggleWaaz
	date := "2024-05-01"

	assert.Equal(t, "Mumbai", Request{Type: RequestTypeChangeCity, City: &city, CityName: &name}.Detail())
	assert.Equal(t, "city #5", Request{Type: RequestTypeChangeCity, City: &city}.Detail())
	assert.Equal(t, "WAAZ - 2024-05-01", Request{Type: RequestTypePass, Toggle: &toggle, PassDate: &date}.Detail())
	assert.Equal(t, "", Request{Type: "other"}.Detail())
}

func TestBatchTargetEffects(t *testing.T) {
	assert.True(t, BatchTargetTodo.Destructive())
	assert.False(t, BatchTargetCompleted.Destructive())
	assert.Equal(t, RequestStatusTodo, BatchTargetTodo.RequestStatus())
	assert.Equal(t, RequestStatusDuplicate, BatchTargetDuplicate.RequestStatus())
	assert.Equal(t, BatchStatusCompleted, BatchTargetCompleted.BatchStatus())
	assert.False(t, BatchTarget("open").Valid())
}

func TestRequestGroupRepresentative(t *testing.T) {
	g := RequestGroup{Requests: []Request{{ID: 1}, {ID: 2}}}
	rep, ok := g.Representative()
	assert.True(t, ok)
	assert.Equal(t, int64(1), rep.ID)
	assert.Equal(t, []Request{{ID: 2}}, g.Hidden())

	_, ok = RequestGroup{}.Representative()
	assert.False(t, ok)
}
