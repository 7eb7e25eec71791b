package board

import (
	"github.com/google/uuid"

	"workboard/internal/model"
)

const (
	UnassignedLaneKey   = "unassigned"
	UnassignedLaneLabel = "Unassigned / Invalid Status"
)

// Lane is one rendered column. Key is the status id on a single-scope board and
// the label on a grouped one.
type Lane struct {
	Key    string
	Status model.Status
	Tasks  []model.Task
}

// Synthetic reports whether the lane is the unassigned overflow lane.
func (l Lane) Synthetic() bool {
	return l.Key == UnassignedLaneKey
}

type Board struct {
	Grouped bool
	Lanes   []Lane
}

// Lane looks a lane up by key.
func (b Board) Lane(key string) (Lane, bool) {
	for _, l := range b.Lanes {
		if l.Key == key {
			return l, true
		}
	}
	return Lane{}, false
}

// LaneOf returns the key of the lane holding taskID and its index within it.
func (b Board) LaneOf(taskID uuid.UUID) (string, int, bool) {
	for _, l := range b.Lanes {
		for i, t := range l.Tasks {
			if t.ID == taskID {
				return l.Key, i, true
			}
		}
	}
	return "", 0, false
}

// Project builds the board view from every loaded status (duplicates included)
// and the loaded tasks. Tasks whose status does not resolve land in a leading
// unassigned lane that exists only when non-empty.
func Project(statuses []model.Status, tasks []model.Task, groupByLabel bool) Board {
	return project(laneOrder(statuses, groupByLabel), statuses, tasks, groupByLabel)
}

// laneOrder is position order for a single-scope board, deduplicated and
// priority ordered for a grouped one.
func laneOrder(statuses []model.Status, groupByLabel bool) []model.Status {
	if groupByLabel {
		return Order(Deduplicate(statuses))
	}
	return SortByPosition(statuses)
}

func project(lanes, statuses []model.Status, tasks []model.Task, groupByLabel bool) Board {
	byID := make(map[uuid.UUID]model.Status, len(statuses))
	for _, s := range statuses {
		byID[s.ID] = s
	}

	board := Board{Grouped: groupByLabel, Lanes: make([]Lane, 0, len(lanes)+1)}
	index := make(map[string]int, len(lanes))
	for _, s := range lanes {
		key := laneKey(s, groupByLabel)
		index[key] = len(board.Lanes)
		board.Lanes = append(board.Lanes, Lane{Key: key, Status: s, Tasks: []model.Task{}})
	}

	var unassigned []model.Task
	for _, t := range tasks {
		if t.StatusID != nil {
			if s, ok := byID[*t.StatusID]; ok {
				if i, ok := index[laneKey(s, groupByLabel)]; ok {
					board.Lanes[i].Tasks = append(board.Lanes[i].Tasks, t)
					continue
				}
			}
		}
		unassigned = append(unassigned, t)
	}

	if len(unassigned) > 0 {
		synthetic := Lane{
			Key:    UnassignedLaneKey,
			Status: model.Status{Label: UnassignedLaneLabel},
			Tasks:  unassigned,
		}
		board.Lanes = append([]Lane{synthetic}, board.Lanes...)
	}
	return board
}

func laneKey(s model.Status, groupByLabel bool) string {
	if groupByLabel {
		return s.Label
	}
	return s.ID.String()
}
