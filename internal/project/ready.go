package project

import "github.com/dukerupert/homebase/internal/model"

// IsReady reports whether t is incomplete and every task it requires is
// complete. byID must hold every task t references; a missing requirement
// counts as incomplete.
func IsReady(t *model.Task, byID map[int64]*model.Task) bool {
	if t.Completed != nil {
		return false
	}
	for _, id := range t.Requirements() {
		req, ok := byID[id]
		if !ok || req.Completed == nil {
			return false
		}
	}
	return true
}

// Ready filters tasks down to the ready ones, keeping their order.
func Ready(tasks []model.Task) []model.Task {
	byID := index(tasks)
	ready := []model.Task{}
	for i := range tasks {
		if IsReady(&tasks[i], byID) {
			ready = append(ready, tasks[i])
		}
	}
	return ready
}

func index(tasks []model.Task) map[int64]*model.Task {
	byID := make(map[int64]*model.Task, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = &tasks[i]
	}
	return byID
}

// reaches reports whether target is reachable from start by following
// requirement edges.
func reaches(start, target int64, byID map[int64]*model.Task) bool {
	seen := make(map[int64]bool)
	stack := []int64{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == target {
			return true
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		if t, ok := byID[id]; ok {
			stack = append(stack, t.Requirements()...)
		}
	}
	return false
}

// Augment computes per-project task counts. Tasks outside the listed
// projects are ignored.
func Augment(projects []model.Project, tasks []model.Task) []model.AugmentedProject {
	byID := index(tasks)
	pos := make(map[int64]int, len(projects))
	out := make([]model.AugmentedProject, len(projects))
	for i, p := range projects {
		out[i] = model.AugmentedProject{Project: p}
		pos[p.ID] = i
	}
	for i := range tasks {
		t := &tasks[i]
		if t.ProjectID == nil {
			continue
		}
		j, ok := pos[*t.ProjectID]
		if !ok {
			continue
		}
		out[j].TotalSubtasks++
		if t.Completed != nil {
			out[j].DoneSubtasks++
		} else if IsReady(t, byID) {
			out[j].ReadySubtasks++
		}
	}
	return out
}
