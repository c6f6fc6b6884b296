package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/miqaat-rms-api/internal/models"
	"github.com/noah-isme/miqaat-rms-api/internal/validation"
	"github.com/noah-isme/miqaat-rms-api/internal/workflow"
)

var (
	composeName   string
	composeToggle string
	composeYes    bool

	editName     string
	editRequests string

	statusYes bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Group requests into batches and resolve them",
}

var batchComposeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Create a batch from todo requests",
	Long: `Create a batch from todo requests. The first request of every ITS and
type group is selected by default; --toggle flips individual ids in or out.`,
	Example: `  rmsctl batch compose --name "Morning Run"
  rmsctl batch compose --name "Morning Run" --toggle 4,7 --yes`,
	Args: cobra.NoArgs,
	RunE: runBatchCompose,
}

var batchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List batches",
	Args:  cobra.NoArgs,
	RunE:  runBatchList,
}

var batchEditCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Rename an open batch or replace its requests",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatchEdit,
}

var batchStatusCmd = &cobra.Command{
	Use:   "status [id] [todo|completed|duplicate]",
	Short: "Resolve a batch",
	Long: `Apply a status to a batch and all of its requests. todo deletes the batch
and puts its requests back to todo; completed and duplicate keep it.`,
	Args: cobra.ExactArgs(2),
	RunE: runBatchStatus,
}

func init() {
	batchComposeCmd.Flags().StringVar(&composeName, "name", "", "batch name")
	batchComposeCmd.Flags().StringVar(&composeToggle, "toggle", "", "comma separated request ids to flip in or out of the selection")
	batchComposeCmd.Flags().BoolVarP(&composeYes, "yes", "y", false, "skip the confirmation prompt")

	batchEditCmd.Flags().StringVar(&editName, "name", "", "new batch name")
	batchEditCmd.Flags().StringVar(&editRequests, "requests", "", "comma separated request ids making up the batch")

	batchStatusCmd.Flags().BoolVarP(&statusYes, "yes", "y", false, "skip the confirmation prompt")

	batchCmd.AddCommand(batchComposeCmd)
	batchCmd.AddCommand(batchListCmd)
	batchCmd.AddCommand(batchEditCmd)
	batchCmd.AddCommand(batchStatusCmd)
}

func runBatchCompose(cmd *cobra.Command, args []string) error {
	toggles, err := parseIDs(composeToggle)
	if err != nil {
		return err
	}
	api, err := newClient(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	composer := workflow.NewBatchComposer(api, nil)
	if err := composer.Enter(ctx); err != nil {
		return err
	}
	for _, id := range toggles {
		composer.Toggle(id)
	}
	composer.SetName(composeName)

	out := cmd.OutOrStdout()
	selected := composer.Selected()
	if strings.TrimSpace(composeName) != "" && len(selected) > 0 {
		if !outputJSON {
			renderGroups(out, composer.Groups(), true, workflow.NewSelection(selected...))
		}
		confirm := newPromptConfirmer(cmd.InOrStdin(), out, composeYes)
		ok, err := confirm.Confirm(ctx, fmt.Sprintf("Create batch %q with %d requests?", strings.TrimSpace(composeName), len(selected)))
		if err != nil {
			return err
		}
		if !ok {
			composer.Cancel(ctx)
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	batch, err := composer.Create(ctx)
	if err != nil {
		return err
	}
	if outputJSON {
		return writeJSON(out, batch)
	}
	fmt.Fprintf(out, "Batch created successfully (id %d, requests %s)\n", batch.ID, formatIDs(batch.RequestIDs))
	return nil
}

func runBatchList(cmd *cobra.Command, args []string) error {
	api, err := newClient(cmd)
	if err != nil {
		return err
	}
	board := workflow.NewBatchBoard(api, nil, nil)
	if err := board.Load(cmd.Context()); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	batches := board.Batches()
	if outputJSON {
		return writeJSON(out, batches)
	}
	if len(batches) == 0 {
		fmt.Fprintln(out, "No batches found.")
		return nil
	}
	renderBatches(out, batches)
	return nil
}

func runBatchEdit(cmd *cobra.Command, args []string) error {
	id, err := parseArgID(args[0])
	if err != nil {
		return err
	}
	var wanted []int64
	if cmd.Flags().Changed("requests") {
		if wanted, err = parseIDs(editRequests); err != nil {
			return err
		}
	}
	api, err := newClient(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	batch, err := api.GetBatch(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load batch %d: %w", id, err)
	}

	errOut := cmd.ErrOrStderr()
	editor := workflow.OpenBatchEditor(ctx, api, validation.New(), *batch, nil)
	if err := editor.LoadErr(); err != nil {
		fmt.Fprintln(errOut, "Warning: only current members can be selected, failed to load other requests")
	}
	if cmd.Flags().Changed("name") {
		editor.SetName(editName)
	}
	if cmd.Flags().Changed("requests") {
		replaceSelection(editor, wanted)
	}

	saved, err := editor.Submit(ctx)
	if err != nil {
		errs := editor.Errors()
		delete(errs, workflow.KeySubmit)
		printFieldErrors(errOut, errs)
		return err
	}

	out := cmd.OutOrStdout()
	if outputJSON {
		return writeJSON(out, saved)
	}
	fmt.Fprintf(out, "Batch updated successfully (id %d, requests %s)\n", saved.ID, formatIDs(saved.RequestIDs))
	return nil
}

type selectionToggler interface {
	Selected() []int64
	Toggle(id int64) bool
}

// replaceSelection toggles ids until exactly wanted is selected.
func replaceSelection(s selectionToggler, wanted []int64) {
	keep := workflow.NewSelection(wanted...)
	for _, id := range s.Selected() {
		if !keep.Contains(id) {
			s.Toggle(id)
		}
	}
	current := workflow.NewSelection(s.Selected()...)
	for _, id := range keep.IDs() {
		if !current.Contains(id) {
			s.Toggle(id)
		}
	}
}

func runBatchStatus(cmd *cobra.Command, args []string) error {
	id, err := parseArgID(args[0])
	if err != nil {
		return err
	}
	target := models.BatchTarget(strings.ToLower(strings.TrimSpace(args[1])))
	if !target.Valid() {
		return workflow.ErrInvalidTarget
	}
	api, err := newClient(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	var board *workflow.BatchBoard
	board = workflow.NewBatchBoard(api, newPromptConfirmer(cmd.InOrStdin(), out, statusYes), func(ctx context.Context) {
		if err := board.Load(ctx); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to refresh batches: %v\n", err)
		}
	})
	if err := board.Load(ctx); err != nil {
		return err
	}
	if batch, ok := board.Find(id); ok && !outputJSON {
		renderBatchMembers(out, batch)
	}

	result, err := board.UpdateStatus(ctx, id, target)
	if errors.Is(err, workflow.ErrDeclined) {
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}
	if err != nil {
		return err
	}
	if outputJSON {
		return writeJSON(out, result)
	}
	fmt.Fprintln(out, workflow.SuccessMessage(target))
	return nil
}
