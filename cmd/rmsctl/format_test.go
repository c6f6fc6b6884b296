package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/miqaat-rms-api/internal/models"
	"github.com/noah-isme/miqaat-rms-api/internal/workflow"
)

func TestFormatStatus(t *testing.T) {
	assert.Equal(t, "Is Batch", formatStatus("is_batch"))
	assert.Equal(t, "Todo", formatStatus("todo"))
	assert.Equal(t, "", formatStatus(""))
}

func TestFormatType(t *testing.T) {
	assert.Equal(t, "pass request", formatType(models.RequestTypePass))
	assert.Equal(t, "change city request", formatType(models.RequestTypeChangeCity))
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs(" 3, 1,,2 ")
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2}, ids)

	ids, err = parseIDs("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = parseIDs("3,x")
	assert.Error(t, err)
	_, err = parseIDs("-1")
	assert.Error(t, err)
}

func groupedFixture() workflow.Groups {
	toggle := models.PassToggleWaaz
	date := "2024-03-01"
	city := "Surat"
	cityID := int64(2)
	return workflow.GroupRequests([]models.Request{
		{ID: 1, ITS: "12345678", Type: models.RequestTypePass, Status: models.RequestStatusTodo, Toggle: &toggle, PassDate: &date, CreatedBy: "amin"},
		{ID: 2, ITS: "87654321", Type: models.RequestTypeChangeCity, Status: models.RequestStatusInBatch, City: &cityID, CityName: &city},
		{ID: 3, ITS: "12345678", Type: models.RequestTypePass, Status: models.RequestStatusTodo, Toggle: &toggle, PassDate: &date},
	})
}

func TestRenderGroupsCollapsed(t *testing.T) {
	var buf bytes.Buffer
	renderGroups(&buf, groupedFixture(), false, nil)
	out := buf.String()

	assert.Contains(t, out, "+1 more")
	assert.Contains(t, out, "WAAZ - 2024-03-01")
	assert.Contains(t, out, "Is Batch")
	assert.Contains(t, out, "Surat")
	assert.Contains(t, out, "change city request")
	assert.NotContains(t, out, "| 3 ")
}

func TestRenderGroupsExpandedMarksSelection(t *testing.T) {
	var buf bytes.Buffer
	renderGroups(&buf, groupedFixture(), true, workflow.NewSelection(1, 2))
	lines := strings.Split(buf.String(), "\n")

	var hidden, marked int
	for _, line := range lines {
		if strings.Contains(line, "| 3 ") {
			hidden++
		}
		if strings.Contains(line, "| * ") {
			marked++
		}
	}
	assert.Equal(t, 1, hidden)
	assert.Equal(t, 2, marked)
}

func TestRequestDataset(t *testing.T) {
	data := requestDataset(groupedFixture().Flatten())
	require.Len(t, data.Rows, 3)
	assert.Equal(t, "pass_request", data.Rows[0]["type"])
	assert.Equal(t, "3", data.Rows[1]["id"])
	assert.Equal(t, "Surat", data.Rows[2]["detail"])
}

func TestRenderBatches(t *testing.T) {
	var buf bytes.Buffer
	renderBatches(&buf, []models.Batch{{ID: 7, Name: "Morning Run", Status: models.BatchStatusOpen, RequestIDs: []int64{3, 1}, CreatedBy: "admin"}})
	out := buf.String()
	assert.Contains(t, out, "Morning Run")
	assert.Contains(t, out, "3,1")
	assert.Contains(t, out, "Open")
}

func TestPrintFieldErrorsSorted(t *testing.T) {
	var buf bytes.Buffer
	printFieldErrors(&buf, map[string]string{"zone": "Please select a zone.", "its": "ITS must be an 8-digit number."})
	out := buf.String()
	assert.Less(t, strings.Index(out, "its"), strings.Index(out, "zone"))

	buf.Reset()
	printFieldErrors(&buf, nil)
	assert.Empty(t, buf.String())
}

type selectionStub struct {
	sel *workflow.Selection
}

func (s *selectionStub) Selected() []int64    { return s.sel.IDs() }
func (s *selectionStub) Toggle(id int64) bool { return s.sel.Toggle(id) }

func TestReplaceSelection(t *testing.T) {
	stub := &selectionStub{sel: workflow.NewSelection(1, 2, 3)}
	replaceSelection(stub, []int64{3, 4})
	assert.ElementsMatch(t, []int64{3, 4}, stub.Selected())

	replaceSelection(stub, nil)
	assert.Empty(t, stub.Selected())
}
