// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package swarm

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/kraklabs/graphcore/internal/analysis"
)

// TaskType classifies what kind of work a SwarmTask represents.
type TaskType string

const (
	TaskImplement   TaskType = "implement"
	TaskRefactor    TaskType = "refactor"
	TaskFix         TaskType = "fix"
	TaskTest        TaskType = "test"
	TaskReview      TaskType = "review"
	TaskDocument    TaskType = "document"
	TaskInvestigate TaskType = "investigate"
	TaskPlan        TaskType = "plan"
)

// typeKeywords is the fixed pattern table decompose matches a task
// description against, checked in order so the first match wins.
var typeKeywords = []struct {
	pattern  *regexp.Regexp
	taskType TaskType
}{
	{regexp.MustCompile(`(?i)\brename\b`), TaskRefactor},
	{regexp.MustCompile(`(?i)\bmigrate\b`), TaskRefactor},
	{regexp.MustCompile(`(?i)\bdeprecate\b`), TaskRefactor},
	{regexp.MustCompile(`(?i)\bdocument\b`), TaskDocument},
	{regexp.MustCompile(`(?i)\bfix\b`), TaskFix},
	{regexp.MustCompile(`(?i)\btest\b`), TaskTest},
}

func inferTaskType(description string) TaskType {
	for _, k := range typeKeywords {
		if k.pattern.MatchString(description) {
			return k.taskType
		}
	}
	return TaskImplement
}

// Priority is a SwarmTask's scheduling weight; higher runs first.
type Priority int

const (
	PriorityBacklog  Priority = 0
	PriorityLow      Priority = 25
	PriorityNormal   Priority = 50
	PriorityHigh     Priority = 75
	PriorityCritical Priority = 100
)

func (p Priority) bump(levels int) Priority {
	steps := []Priority{PriorityBacklog, PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical}
	idx := 0
	for i, s := range steps {
		if s == p {
			idx = i
			break
		}
	}
	idx += levels
	if idx >= len(steps) {
		idx = len(steps) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return steps[idx]
}

// Status is a SwarmTask's lifecycle state.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusClaimed     Status = "claimed"
	StatusInProgress  Status = "in_progress"
	StatusBlocked     Status = "blocked"
	StatusNeedsReview Status = "needs_review"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
	StatusCancelled   Status = "cancelled"
)

// SwarmTask is one atomic unit of work a worker can claim and execute.
type SwarmTask struct {
	ID           string
	Title        string
	Description  string
	Type         TaskType
	Priority     Priority
	NodeIDs      []string
	FilePath     string
	Dependencies []string
	Status       Status
}

// NodeImpact is the per-node input decompose needs from the impact engine:
// the node's risk level, and the set of other files that change if this
// node changes (its dependents' file paths).
type NodeImpact struct {
	Level         analysis.RiskLevel
	AffectedFiles map[string]bool
}

func generateTaskID() string {
	var buf [3]byte
	_, _ = rand.Read(buf[:])
	timeBase36 := strings.ToLower(formatBase36(time.Now().Unix()))
	return "task_" + timeBase36 + "_" + hex.EncodeToString(buf[:])
}

const base36Digits = "0123456789abcdefghijklmnopqrstuvwxyz"

func formatBase36(n int64) string {
	if n == 0 {
		return "0"
	}
	var out []byte
	for n > 0 {
		out = append([]byte{base36Digits[n%36]}, out...)
		n /= 36
	}
	return string(out)
}

// Decomposition is decompose's full report.
type Decomposition struct {
	Tasks               []*SwarmTask
	ParallelisableIDs   []string
	SequentialIDs       []string
	EstimatedComplexity string
}

func riskLevelRank(l analysis.RiskLevel) int {
	switch l {
	case analysis.RiskCritical:
		return 3
	case analysis.RiskHigh:
		return 2
	case analysis.RiskMedium:
		return 1
	default:
		return 0
	}
}

// Decompose groups affectedNodes into one task per file, infers each
// task's type from taskDescription, adjusts basePriority by the task's
// worst node impact level, infers a dependency DAG from impactMap's
// affected-file sets, and returns a topologically ordered report.
func Decompose(taskDescription string, affectedNodes []analysis.Node, impactMap map[string]NodeImpact, basePriority Priority) *Decomposition {
	taskType := inferTaskType(taskDescription)

	byFile := make(map[string][]analysis.Node)
	var fileOrder []string
	for _, n := range affectedNodes {
		if _, ok := byFile[n.FilePath]; !ok {
			fileOrder = append(fileOrder, n.FilePath)
		}
		byFile[n.FilePath] = append(byFile[n.FilePath], n)
	}
	sort.Strings(fileOrder)

	tasks := make([]*SwarmTask, 0, len(fileOrder))
	taskByFile := make(map[string]*SwarmTask, len(fileOrder))
	for _, filePath := range fileOrder {
		nodes := byFile[filePath]
		nodeIDs := make([]string, len(nodes))
		worst := analysis.RiskLow
		for i, n := range nodes {
			nodeIDs[i] = n.ID
			if impact, ok := impactMap[n.ID]; ok && riskLevelRank(impact.Level) > riskLevelRank(worst) {
				worst = impact.Level
			}
		}

		priority := basePriority
		switch worst {
		case analysis.RiskCritical:
			priority = priority.bump(2)
		case analysis.RiskHigh:
			if priority < PriorityHigh {
				priority = priority.bump(1)
			}
		}

		task := &SwarmTask{
			ID:          generateTaskID(),
			Title:       taskDescription + ": " + filePath,
			Description: taskDescription,
			Type:        taskType,
			Priority:    priority,
			NodeIDs:     nodeIDs,
			FilePath:    filePath,
			Status:      StatusAvailable,
		}
		tasks = append(tasks, task)
		taskByFile[filePath] = task
	}

	for _, task := range tasks {
		deps := make(map[string]bool)
		for _, nodeID := range task.NodeIDs {
			impact, ok := impactMap[nodeID]
			if !ok {
				continue
			}
			for affectedFile := range impact.AffectedFiles {
				if dep, ok := taskByFile[affectedFile]; ok && dep.ID != task.ID {
					deps[dep.ID] = true
				}
			}
		}
		for depID := range deps {
			task.Dependencies = append(task.Dependencies, depID)
		}
		sort.Strings(task.Dependencies)
	}

	order := topologicalSort(tasks)

	var parallelisable, sequential []string
	for _, task := range tasks {
		if len(task.Dependencies) == 0 {
			parallelisable = append(parallelisable, task.ID)
		} else {
			sequential = append(sequential, task.ID)
		}
	}

	return &Decomposition{
		Tasks:               order,
		ParallelisableIDs:   parallelisable,
		SequentialIDs:       sequential,
		EstimatedComplexity: estimateComplexity(tasks),
	}
}

// topologicalSort produces a DFS-ordered execution sequence. Cycles are
// broken best-effort: a task is visited once and never revisited, so a
// cyclic pair simply ends up in the order it was first reached — the two
// tasks may then run in either order relative to each other.
func topologicalSort(tasks []*SwarmTask) []*SwarmTask {
	byID := make(map[string]*SwarmTask, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	visited := make(map[string]bool, len(tasks))
	var order []*SwarmTask

	var visit func(t *SwarmTask)
	visit = func(t *SwarmTask) {
		if visited[t.ID] {
			return
		}
		visited[t.ID] = true
		for _, depID := range t.Dependencies {
			if dep, ok := byID[depID]; ok {
				visit(dep)
			}
		}
		order = append(order, t)
	}

	for _, t := range tasks {
		visit(t)
	}
	return order
}

// estimateComplexity derives a coarse label from task count, the number
// of critical/high-priority tasks, and the largest dependency fan-in.
func estimateComplexity(tasks []*SwarmTask) string {
	if len(tasks) == 0 {
		return "trivial"
	}

	dependedOnBy := make(map[string]int)
	criticalOrHigh := 0
	for _, t := range tasks {
		if t.Priority >= PriorityHigh {
			criticalOrHigh++
		}
		for _, dep := range t.Dependencies {
			dependedOnBy[dep]++
		}
	}
	maxFanIn := 0
	for _, n := range dependedOnBy {
		if n > maxFanIn {
			maxFanIn = n
		}
	}

	switch {
	case len(tasks) >= 10 || criticalOrHigh >= 5 || maxFanIn >= 4:
		return "high"
	case len(tasks) >= 4 || criticalOrHigh >= 2 || maxFanIn >= 2:
		return "medium"
	default:
		return "low"
	}
}

// GetParallelizableTasks returns every not-yet-completed task from all
// whose dependencies are all present in completedIDs.
func GetParallelizableTasks(all []*SwarmTask, completedIDs map[string]bool) []*SwarmTask {
	var out []*SwarmTask
	for _, t := range all {
		if t.Status == StatusCompleted || completedIDs[t.ID] {
			continue
		}
		ready := true
		for _, dep := range t.Dependencies {
			if !completedIDs[dep] {
				ready = false
				break
			}
		}
		if ready {
			out = append(out, t)
		}
	}
	return out
}
