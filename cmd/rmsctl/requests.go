package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/miqaat-rms-api/internal/dto"
	"github.com/noah-isme/miqaat-rms-api/internal/models"
	"github.com/noah-isme/miqaat-rms-api/internal/validation"
	"github.com/noah-isme/miqaat-rms-api/internal/workflow"
	"github.com/noah-isme/miqaat-rms-api/pkg/client"
	"github.com/noah-isme/miqaat-rms-api/pkg/export"
)

var (
	listStatus    string
	listType      string
	listCreatedBy string
	listPage      int
	listPageSize  int
	listExpand    bool
	listCSV       bool

	formITS      string
	formType     string
	formCity     int64
	formZone     int64
	formToggle   string
	formPassDate string
	formMeta     string

	deleteYes bool
)

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "List and edit requests",
}

var requestsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List requests grouped by ITS and type",
	Long: `List requests. Requests sharing ITS and type are shown as one row with
a "+N more" count; --expand prints the hidden rows as well.`,
	Args: cobra.NoArgs,
	RunE: runRequestsList,
}

var requestsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a request",
	Example: `  rmsctl requests create --its 12345678 --type pass_request --toggle waaz --pass-date 2024-03-01
  rmsctl requests create --its 12345678 --type change_city_request --city 3`,
	Args: cobra.NoArgs,
	RunE: runRequestsCreate,
}

var requestsEditCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Edit a todo request",
	Long:  `Edit a todo request. Only the fields passed as flags change.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRequestsEdit,
}

var requestsDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a todo request",
	Args:  cobra.ExactArgs(1),
	RunE:  runRequestsDelete,
}

func init() {
	requestsListCmd.Flags().StringVar(&listStatus, "status", "", "status filter (todo, is_batch, completed, duplicate, discarded)")
	requestsListCmd.Flags().StringVar(&listType, "type", "", "type filter")
	requestsListCmd.Flags().StringVar(&listCreatedBy, "created-by", "", "creator id filter")
	requestsListCmd.Flags().IntVar(&listPage, "page", 0, "page number")
	requestsListCmd.Flags().IntVar(&listPageSize, "page-size", 0, "page size")
	requestsListCmd.Flags().BoolVar(&listExpand, "expand", false, "show every request of each group")
	requestsListCmd.Flags().BoolVar(&listCSV, "csv", false, "output ungrouped rows as CSV")

	for _, cmd := range []*cobra.Command{requestsCreateCmd, requestsEditCmd} {
		cmd.Flags().StringVar(&formITS, "its", "", "8-digit ITS number")
		cmd.Flags().StringVar(&formType, "type", "", "request type (permission code)")
		cmd.Flags().Int64Var(&formCity, "city", 0, "city id for change_city_request")
		cmd.Flags().Int64Var(&formZone, "zone", 0, "zone id for change_zone_request")
		cmd.Flags().StringVar(&formToggle, "toggle", "", "waaz, majlis or bethak for pass_request")
		cmd.Flags().StringVar(&formPassDate, "pass-date", "", "YYYY-MM-DD date for pass_request")
		cmd.Flags().StringVar(&formMeta, "meta", "", "free text note")
	}

	requestsDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip the confirmation prompt")

	requestsCmd.AddCommand(requestsListCmd)
	requestsCmd.AddCommand(requestsCreateCmd)
	requestsCmd.AddCommand(requestsEditCmd)
	requestsCmd.AddCommand(requestsDeleteCmd)
}

func runRequestsList(cmd *cobra.Command, args []string) error {
	api, err := newClient(cmd)
	if err != nil {
		return err
	}

	reqs, pagination, err := api.ListRequests(cmd.Context(), client.RequestQuery{
		Status:    listStatus,
		Type:      listType,
		CreatedBy: listCreatedBy,
		Page:      listPage,
		PageSize:  listPageSize,
	})
	if err != nil {
		return fmt.Errorf("failed to list requests: %w", err)
	}

	out := cmd.OutOrStdout()
	groups := workflow.GroupRequests(reqs)
	switch {
	case outputJSON:
		return writeJSON(out, groups.List())
	case listCSV:
		return export.WriteCSV(out, requestDataset(reqs))
	}

	if groups.Len() == 0 {
		fmt.Fprintln(out, "No requests found.")
		return nil
	}
	renderGroups(out, groups, listExpand, nil)
	if pagination != nil {
		fmt.Fprintf(out, "Page %d (%d per page), %d requests in total\n", pagination.Page, pagination.PageSize, pagination.TotalCount)
	}
	return nil
}

func runRequestsCreate(cmd *cobra.Command, args []string) error {
	api, err := newClient(cmd)
	if err != nil {
		return err
	}
	editor := workflow.NewRequestEditor(api, validation.New(), nil)
	return submitEditor(cmd, editor, "Request created successfully")
}

func runRequestsEdit(cmd *cobra.Command, args []string) error {
	id, err := parseArgID(args[0])
	if err != nil {
		return err
	}
	api, err := newClient(cmd)
	if err != nil {
		return err
	}
	req, err := api.GetRequest(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to load request %d: %w", id, err)
	}
	editor := workflow.EditRequestEditor(api, validation.New(), *req, nil)
	return submitEditor(cmd, editor, "Request updated successfully")
}

func submitEditor(cmd *cobra.Command, editor *workflow.RequestEditor, success string) error {
	ctx := cmd.Context()
	editor.Open(ctx)
	editor.Wait()
	defer editor.Close()

	form := editor.Form()
	applyFormFlags(cmd, &form)
	editor.SetForm(form)

	errOut := cmd.ErrOrStderr()
	for _, key := range []string{workflow.KeyFetchPermissions, workflow.KeyFetchCities, workflow.KeyFetchZones} {
		if msg, ok := editor.Errors()[key]; ok {
			fmt.Fprintf(errOut, "Warning: %s\n", msg)
		}
	}
	if perms := editor.Permissions(); perms.Err == nil && !knownType(perms.Items, form.Type) {
		fmt.Fprintf(errOut, "Warning: %q is not one of your permissions\n", form.Type)
	}

	saved, err := editor.Submit(ctx)
	if err != nil {
		printFieldErrors(errOut, formFieldErrors(editor.Errors()))
		return err
	}

	out := cmd.OutOrStdout()
	if outputJSON {
		return writeJSON(out, saved)
	}
	fmt.Fprintf(out, "%s (id %d, status %s)\n", success, saved.ID, formatStatus(string(saved.Status)))
	return nil
}

// applyFormFlags copies the flags the operator actually passed onto form.
func applyFormFlags(cmd *cobra.Command, form *dto.RequestForm) {
	flags := cmd.Flags()
	if flags.Changed("its") {
		form.ITS = strings.TrimSpace(formITS)
	}
	if flags.Changed("type") {
		form.Type = models.RequestType(strings.TrimSpace(formType))
	}
	if flags.Changed("city") {
		city := formCity
		form.City = &city
	}
	if flags.Changed("zone") {
		zone := formZone
		form.Zone = &zone
	}
	if flags.Changed("toggle") {
		toggle := models.PassToggle(strings.ToLower(strings.TrimSpace(formToggle)))
		form.Toggle = &toggle
	}
	if flags.Changed("pass-date") {
		date := strings.TrimSpace(formPassDate)
		form.PassDate = &date
	}
	if flags.Changed("meta") {
		form.Meta = formMeta
	}
}

func knownType(perms []models.Permission, requestType models.RequestType) bool {
	if requestType == "" || len(perms) == 0 {
		return true
	}
	for _, perm := range perms {
		if perm.Code == string(requestType) {
			return true
		}
	}
	return false
}

// formFieldErrors drops the load and submit notices, which are reported
// separately.
func formFieldErrors(errs validation.FieldErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for k, v := range errs {
		if k == workflow.KeySubmit || strings.HasPrefix(k, "fetch") {
			continue
		}
		out[k] = v
	}
	return out
}

func runRequestsDelete(cmd *cobra.Command, args []string) error {
	id, err := parseArgID(args[0])
	if err != nil {
		return err
	}
	api, err := newClient(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	confirm := newPromptConfirmer(cmd.InOrStdin(), out, deleteYes)
	ok, err := confirm.Confirm(cmd.Context(), "Are you sure you want to delete this request?")
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}

	if err := api.DeleteRequest(cmd.Context(), id); err != nil {
		// the server explains why a request cannot be deleted; show it as is
		if apiErr, ok := client.AsAPIError(err); ok && apiErr.Message != "" {
			return errors.New(apiErr.Message)
		}
		return fmt.Errorf("failed to delete request: %w", err)
	}
	fmt.Fprintln(out, "Request deleted successfully")
	return nil
}

func parseArgID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
