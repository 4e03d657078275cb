// ABOUTME: Deal pipeline stages and their fixed win probabilities
// ABOUTME: Stage and probability are always set together from this table
package models

const (
	StageProspecting   = "prospecting"
	StageQualification = "qualification"
	StageProposal      = "proposal"
	StageNegotiation   = "negotiation"
	StageClosedWon     = "closed_won"
	StageClosedLost    = "closed_lost"
)

// DealStage is one pipeline position.
type DealStage struct {
	ID          string
	Label       string
	Probability int
}

// DealStages lists the pipeline in board order.
var DealStages = []DealStage{
	{StageProspecting, "Prospecting", 10},
	{StageQualification, "Qualification", 25},
	{StageProposal, "Proposal", 50},
	{StageNegotiation, "Negotiation", 75},
	{StageClosedWon, "Closed Won", 100},
	{StageClosedLost, "Closed Lost", 0},
}

// StageProbability returns the win probability for a stage. Unknown stages map to 0.
func StageProbability(stage string) int {
	for _, s := range DealStages {
		if s.ID == stage {
			return s.Probability
		}
	}
	return 0
}

// IsValidStage reports whether stage is in the pipeline table.
func IsValidStage(stage string) bool {
	for _, s := range DealStages {
		if s.ID == stage {
			return true
		}
	}
	return false
}

// IsClosedStage reports whether a deal in this stage is out of the active pipeline.
func IsClosedStage(stage string) bool {
	return stage == StageClosedWon || stage == StageClosedLost
}

// StageLabel returns the display label for a stage.
func StageLabel(stage string) string {
	for _, s := range DealStages {
		if s.ID == stage {
			return s.Label
		}
	}
	return stage
}
