package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/noah-isme/miqaat-rms-api/internal/models"
	"github.com/noah-isme/miqaat-rms-api/internal/workflow"
	"github.com/noah-isme/miqaat-rms-api/pkg/export"
)

// formatStatus turns is_batch into Is Batch.
func formatStatus(status string) string {
	words := strings.Split(status, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// formatType turns pass_request into pass request.
func formatType(requestType models.RequestType) string {
	return strings.ReplaceAll(string(requestType), "_", " ")
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func formatIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = formatID(id)
	}
	return strings.Join(parts, ",")
}

// parseIDs reads a comma separated id list such as "3,1,2".
func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid request id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func requestRow(marker string, req models.Request, more string) []string {
	return []string{
		marker,
		formatID(req.ID),
		req.ITS,
		formatType(req.Type),
		formatStatus(string(req.Status)),
		req.Detail(),
		req.CreatedBy,
		more,
	}
}

// renderGroups prints one row per group. Hidden members are counted in the
// last column and printed below the representative when expand is set.
// Rows whose id is in selected are marked with "*"; selected may be nil.
func renderGroups(w io.Writer, groups workflow.Groups, expand bool, selected *workflow.Selection) {
	mark := func(id int64) string {
		if selected != nil && selected.Contains(id) {
			return "*"
		}
		return ""
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"", "ID", "ITS", "Type", "Status", "Detail", "Created By", "More"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, group := range groups.List() {
		first, ok := group.Representative()
		if !ok {
			continue
		}
		hidden := group.Hidden()
		more := ""
		if len(hidden) > 0 {
			more = fmt.Sprintf("+%d more", len(hidden))
		}
		table.Append(requestRow(mark(first.ID), first, more))
		if !expand {
			continue
		}
		for _, req := range hidden {
			row := requestRow(mark(req.ID), req, "")
			row[2] = "  " + row[2]
			table.Append(row)
		}
	}
	table.Render()
}

func renderBatches(w io.Writer, batches []models.Batch) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Name", "Status", "Requests", "Created By"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, batch := range batches {
		table.Append([]string{
			formatID(batch.ID),
			batch.Name,
			formatStatus(string(batch.Status)),
			formatIDs(batch.RequestIDs),
			batch.CreatedBy,
		})
	}
	table.Render()
}

func renderBatchMembers(w io.Writer, batch models.Batch) {
	fmt.Fprintf(w, "Batch %d: %s (%s)\n", batch.ID, batch.Name, formatStatus(string(batch.Status)))
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "ITS", "Type", "Status", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, req := range batch.Requests {
		table.Append([]string{
			formatID(req.ID),
			req.ITS,
			formatType(req.Type),
			formatStatus(string(req.Status)),
			req.Detail(),
		})
	}
	table.Render()
}

func requestDataset(reqs []models.Request) export.Dataset {
	data := export.Dataset{Headers: []string{"id", "its", "type", "status", "detail", "meta", "created_by", "created_at"}}
	for _, req := range reqs {
		data.Append(
			formatID(req.ID),
			req.ITS,
			string(req.Type),
			string(req.Status),
			req.Detail(),
			req.Meta,
			req.CreatedBy,
			req.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	return data
}

func printFieldErrors(w io.Writer, errs map[string]string) {
	if len(errs) == 0 {
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Error"})
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, key := range sortedKeys(errs) {
		table.Append([]string{key, errs[key]})
	}
	table.Render()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
