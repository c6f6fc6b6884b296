package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/miqaat-rms-api/internal/models"
)

type promptRecorder struct {
	answer  bool
	prompts []string
}

func (p *promptRecorder) Confirm(ctx context.Context, prompt string) (bool, error) {
	p.prompts = append(p.prompts, prompt)
	return p.answer, nil
}

func loadedBoard(t *testing.T, api *fakeAPI, confirm Confirmer, refresh RefreshFunc) *BatchBoard {
	t.Helper()
	api.batches = []models.Batch{{ID: 41, Name: "a"}, {ID: 42, Name: "b"}}
	board := NewBatchBoard(api, confirm, refresh)
	require.NoError(t, board.Load(context.Background()))
	return board
}

func TestBoardTodoRemovesBatch(t *testing.T) {
	api := &fakeAPI{}
	confirm := &promptRecorder{answer: true}
	board := loadedBoard(t, api, confirm, nil)

	result, err := board.UpdateStatus(context.Background(), 42, models.BatchTargetTodo)
	require.NoError(t, err)
	assert.True(t, result.Deleted)
	_, found := board.Find(42)
	assert.False(t, found)
	assert.Len(t, board.Batches(), 1)
	assert.Equal(t, []string{"Are you sure you want to delete this batch and reset requests to TODO?"}, confirm.prompts)
}

func TestBoardNonDestructiveKeepsBatch(t *testing.T) {
	for _, target := range []models.BatchTarget{models.BatchTargetCompleted, models.BatchTargetDuplicate} {
		t.Run(string(target), func(t *testing.T) {
			api := &fakeAPI{}
			confirm := &promptRecorder{answer: true}
			refresh := &refreshCounter{}
			board := loadedBoard(t, api, confirm, refresh.refresh)

			_, err := board.UpdateStatus(context.Background(), 42, target)
			require.NoError(t, err)
			_, found := board.Find(42)
			assert.True(t, found)
			assert.Len(t, board.Batches(), 2)
			assert.Equal(t, []models.BatchTarget{target}, api.statusCalls)
			assert.Equal(t, 1, refresh.calls)
			assert.Equal(t, `Are you sure you want to mark this batch as "`+string(target)+`" and keep it?`, confirm.prompts[0])
		})
	}
}

func TestBoardDeclinedMakesNoCall(t *testing.T) {
	api := &fakeAPI{}
	board := loadedBoard(t, api, &promptRecorder{answer: false}, nil)

	_, err := board.UpdateStatus(context.Background(), 42, models.BatchTargetTodo)
	require.ErrorIs(t, err, ErrDeclined)
	assert.Empty(t, api.statusCalls)
	assert.Len(t, board.Batches(), 2)
}

func TestBoardFailureLeavesListAlone(t *testing.T) {
	api := &fakeAPI{statusErr: errors.New("500")}
	board := loadedBoard(t, api, ConfirmFunc(func(ctx context.Context, prompt string) (bool, error) {
		return true, nil
	}), nil)

	_, err := board.UpdateStatus(context.Background(), 42, models.BatchTargetTodo)
	require.Error(t, err)
	assert.Equal(t, "Failed to update batch. Please try again.", err.Error())
	assert.Len(t, board.Batches(), 2)
}

func TestBoardRejectsUnknownTarget(t *testing.T) {
	api := &fakeAPI{}
	confirm := &promptRecorder{answer: true}
	board := loadedBoard(t, api, confirm, nil)

	_, err := board.UpdateStatus(context.Background(), 42, models.BatchTarget("open"))
	require.ErrorIs(t, err, ErrInvalidTarget)
	assert.Empty(t, confirm.prompts)
}

func TestBoardLoadFailure(t *testing.T) {
	board := NewBatchBoard(&fakeAPI{listErr: errors.New("down")}, &promptRecorder{}, nil)
	err := board.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Failed to load batch data", err.Error())
}

func TestSuccessMessages(t *testing.T) {
	assert.Equal(t, "Batch deleted and requests set to TODO", SuccessMessage(models.BatchTargetTodo))
	assert.Equal(t, `Batch marked as "completed" successfully`, SuccessMessage(models.BatchTargetCompleted))
}
