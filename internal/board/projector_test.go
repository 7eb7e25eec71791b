package board_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workboard/internal/board"
	"workboard/internal/model"
)

func laneKeys(b board.Board) []string {
	out := make([]string, len(b.Lanes))
	for i, l := range b.Lanes {
		out[i] = l.Key
	}
	return out
}

func TestProject_GroupedMergesSameLabelAcrossScopes(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	todoA, doneA := status(a, "To Do", 0), status(a, "Done", 1)
	todoB, doneB := status(b, "To Do", 0), status(b, "Done", 1)
	t1 := task(a, ptr(doneA.ID), "cut trailer")
	t2 := task(b, ptr(doneB.ID), "color grade")
	t3 := task(b, ptr(todoB.ID), "storyboard")

	got := board.Project([]model.Status{todoA, doneA, todoB, doneB}, []model.Task{t1, t2, t3}, true)

	require.Equal(t, []string{"To Do", "Done"}, laneKeys(got))
	done, ok := got.Lane("Done")
	require.True(t, ok)
	assert.Equal(t, doneA.ID, done.Status.ID, "first-seen record represents the lane")
	assert.ElementsMatch(t, []uuid.UUID{t1.ID, t2.ID}, []uuid.UUID{done.Tasks[0].ID, done.Tasks[1].ID})
	todo, _ := got.Lane("To Do")
	assert.Len(t, todo.Tasks, 1)
}

func TestProject_UngroupedKeysByIDAndPosition(t *testing.T) {
	scope := uuid.New()
	done, todo := status(scope, "Done", 1), status(scope, "To Do", 0)
	t1 := task(scope, ptr(done.ID), "ship")

	got := board.Project([]model.Status{done, todo}, []model.Task{t1}, false)

	assert.Equal(t, []string{todo.ID.String(), done.ID.String()}, laneKeys(got))
	assert.Empty(t, got.Lanes[0].Tasks)
	assert.NotNil(t, got.Lanes[0].Tasks)
	assert.Equal(t, t1.ID, got.Lanes[1].Tasks[0].ID)
}

func TestProject_UngroupedKeepsDuplicateLabelsApart(t *testing.T) {
	scope := uuid.New()
	d1, d2 := status(scope, "Done", 0), status(scope, "Done", 1)

	got := board.Project([]model.Status{d1, d2}, nil, false)

	assert.Len(t, got.Lanes, 2)
}

func TestProject_UnassignedLane(t *testing.T) {
	scope := uuid.New()
	todo := status(scope, "To Do", 0)
	orphan := task(scope, ptr(uuid.New()), "dangling")
	noStatus := task(scope, nil, "never assigned")
	ok := task(scope, ptr(todo.ID), "fine")

	for _, grouped := range []bool{false, true} {
		got := board.Project([]model.Status{todo}, []model.Task{orphan, ok, noStatus}, grouped)

		require.Len(t, got.Lanes, 2)
		first := got.Lanes[0]
		assert.True(t, first.Synthetic())
		assert.Equal(t, board.UnassignedLaneKey, first.Key)
		assert.Equal(t, board.UnassignedLaneLabel, first.Status.Label)
		assert.Equal(t, []uuid.UUID{orphan.ID, noStatus.ID}, []uuid.UUID{first.Tasks[0].ID, first.Tasks[1].ID})

		key, _, found := got.LaneOf(ok.ID)
		assert.True(t, found)
		assert.NotEqual(t, board.UnassignedLaneKey, key)
	}
}

func TestProject_NoUnassignedLaneWhenEmpty(t *testing.T) {
	scope := uuid.New()
	todo := status(scope, "To Do", 0)

	got := board.Project([]model.Status{todo}, []model.Task{task(scope, ptr(todo.ID), "x")}, true)

	_, found := got.Lane(board.UnassignedLaneKey)
	assert.False(t, found)
}

func TestProject_EveryTaskInExactlyOneLane(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	statuses := []model.Status{status(a, "To Do", 0), status(b, "To Do", 0), status(b, "Review", 1)}
	tasks := []model.Task{
		task(a, ptr(statuses[0].ID), "1"),
		task(b, ptr(statuses[1].ID), "2"),
		task(b, ptr(statuses[2].ID), "3"),
		task(b, ptr(uuid.New()), "4"),
	}

	got := board.Project(statuses, tasks, true)

	seen := map[uuid.UUID]int{}
	for _, l := range got.Lanes {
		for _, tk := range l.Tasks {
			seen[tk.ID]++
		}
	}
	for _, tk := range tasks {
		assert.Equal(t, 1, seen[tk.ID], tk.Title)
	}
}
