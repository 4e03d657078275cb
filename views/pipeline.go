// ABOUTME: Deal pipeline aggregates computed from already-loaded deals
// ABOUTME: Totals, weighted value, pipeline rank, board columns and stage progress
package views

import (
	"sort"

	"github.com/google/uuid"
	"github.com/harperreed/ancora/models"
)

// TotalValue sums the value of every deal.
func TotalValue(deals []models.Deal) float64 {
	var total float64
	for _, d := range deals {
		total += d.Value
	}
	return total
}

// IsActive reports whether a deal is still in the open pipeline.
func IsActive(d models.Deal) bool {
	return !models.IsClosedStage(d.Stage)
}

// ActiveDeals keeps deals outside the closed stages, in input order.
func ActiveDeals(deals []models.Deal) []models.Deal {
	var active []models.Deal
	for _, d := range deals {
		if IsActive(d) {
			active = append(active, d)
		}
	}
	return active
}

// WeightedValue is value × probability / 100.
func WeightedValue(d models.Deal) float64 {
	return d.Value * float64(d.Probability) / 100
}

// WeightedPipeline sums WeightedValue over deals.
func WeightedPipeline(deals []models.Deal) float64 {
	var total float64
	for _, d := range deals {
		total += WeightedValue(d)
	}
	return total
}

// AverageDealValue returns the mean value, or false when there are no deals.
func AverageDealValue(deals []models.Deal) (float64, bool) {
	if len(deals) == 0 {
		return 0, false
	}
	return TotalValue(deals) / float64(len(deals)), true
}

// PipelineRank returns the 1-based position of id among active deals
// ordered by descending value × probability. Ties keep fetch order.
// Closed and unknown deals rank 0.
func PipelineRank(deals []models.Deal, id uuid.UUID) int {
	active := ActiveDeals(deals)
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Value*float64(active[i].Probability) > active[j].Value*float64(active[j].Probability)
	})
	for i, d := range active {
		if d.ID == id {
			return i + 1
		}
	}
	return 0
}

// StageColumn is one open stage on the pipeline board.
type StageColumn struct {
	Stage models.DealStage
	Deals []models.Deal
	Count int
	Value float64
}

// PipelineBoard groups deals under the open stages in pipeline order.
// Deals in closed stages do not appear on the board.
func PipelineBoard(deals []models.Deal) []StageColumn {
	var columns []StageColumn
	for _, stage := range models.DealStages {
		if models.IsClosedStage(stage.ID) {
			continue
		}
		col := StageColumn{Stage: stage}
		for _, d := range deals {
			if d.Stage == stage.ID {
				col.Deals = append(col.Deals, d)
				col.Value += d.Value
			}
		}
		col.Count = len(col.Deals)
		columns = append(columns, col)
	}
	return columns
}

// StepState describes where a stage sits relative to a deal.
type StepState int

const (
	StepPending StepState = iota
	StepPassed
	StepCurrent
)

// StageStep is one row of a deal's progress list.
type StageStep struct {
	Stage models.DealStage
	State StepState
}

// StageProgress lists every stage except closed_lost, marking the deal's
// current stage and the open stages before it.
func StageProgress(current string) []StageStep {
	var stages []models.DealStage
	for _, s := range models.DealStages {
		if s.ID != models.StageClosedLost {
			stages = append(stages, s)
		}
	}

	currentIdx := -1
	for i, s := range stages {
		if s.ID == current {
			currentIdx = i
		}
	}

	steps := make([]StageStep, len(stages))
	for i, s := range stages {
		steps[i].Stage = s
		switch {
		case s.ID == current:
			steps[i].State = StepCurrent
		case !models.IsClosedStage(s.ID) && i < currentIdx:
			steps[i].State = StepPassed
		}
	}
	return steps
}
