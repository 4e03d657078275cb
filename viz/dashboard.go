// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Summarizes the cached collections into an ASCII CRM overview
package viz

import (
	"fmt"
	"strings"

	"github.com/harperreed/ancora/models"
	"github.com/harperreed/ancora/store"
	"github.com/harperreed/ancora/views"
)

// recentLimit caps the recent contacts and active projects lists.
const recentLimit = 5

type DashboardStats struct {
	// Pipeline overview
	PipelineByStage map[string]PipelineStageStats

	// Overall stats
	TotalContacts    int
	TotalCompanies   int
	ActiveDeals      int
	PipelineValue    float64
	WeightedPipeline float64
	ActiveProjects   int

	// Newest first, as fetched
	RecentContacts []string
	ProjectNames   []string
}

type PipelineStageStats struct {
	Stage  string
	Count  int
	Amount float64
}

// GenerateDashboardStats summarizes a cache snapshot. Pipeline value covers
// every deal; the active count leaves out closed stages.
func GenerateDashboardStats(st store.State) *DashboardStats {
	stats := &DashboardStats{
		PipelineByStage:  make(map[string]PipelineStageStats),
		TotalContacts:    len(st.Contacts),
		TotalCompanies:   len(st.Companies),
		ActiveDeals:      len(views.ActiveDeals(st.Deals)),
		PipelineValue:    views.TotalValue(st.Deals),
		WeightedPipeline: views.WeightedPipeline(st.Deals),
	}

	for _, deal := range st.Deals {
		pstats := stats.PipelineByStage[deal.Stage]
		pstats.Stage = deal.Stage
		pstats.Count++
		pstats.Amount += deal.Value
		stats.PipelineByStage[deal.Stage] = pstats
	}

	for i, c := range st.Contacts {
		if i == recentLimit {
			break
		}
		stats.RecentContacts = append(stats.RecentContacts, c.FullName())
	}

	active := views.ActiveProjects(st.Projects)
	stats.ActiveProjects = len(active)
	for i, p := range active {
		if i == recentLimit {
			break
		}
		stats.ProjectNames = append(stats.ProjectNames, p.Name)
	}

	return stats
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  ANCORA CRM DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("PIPELINE OVERVIEW\n")
	renderPipeline(&out, stats.PipelineByStage)
	out.WriteString(fmt.Sprintf("  total %s  weighted %s\n\n",
		FormatMoney(stats.PipelineValue), FormatMoney(stats.WeightedPipeline)))

	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  📇 %d contacts  🏢 %d companies  💼 %d active deals  📁 %d active projects\n\n",
		stats.TotalContacts, stats.TotalCompanies, stats.ActiveDeals, stats.ActiveProjects))

	out.WriteString("RECENT CONTACTS\n")
	if len(stats.RecentContacts) == 0 {
		out.WriteString("  No contacts yet\n")
	}
	for _, name := range stats.RecentContacts {
		out.WriteString(fmt.Sprintf("  • %s\n", name))
	}
	out.WriteString("\n")

	out.WriteString("ACTIVE PROJECTS\n")
	if len(stats.ProjectNames) == 0 {
		out.WriteString("  No active projects\n")
	}
	for _, name := range stats.ProjectNames {
		out.WriteString(fmt.Sprintf("  • %s\n", name))
	}

	return out.String()
}

func renderPipeline(out *strings.Builder, pipeline map[string]PipelineStageStats) {
	maxCount := 0
	for _, pstats := range pipeline {
		if pstats.Count > maxCount {
			maxCount = pstats.Count
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, stage := range models.DealStages {
		pstats, exists := pipeline[stage.ID]
		if !exists {
			continue
		}

		// 0-10 blocks
		barLength := (pstats.Count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)

		out.WriteString(fmt.Sprintf("  %-13s %s  %2d (%s)\n",
			stage.Label, bar, pstats.Count, FormatMoney(pstats.Amount)))
	}
}

// FormatMoney renders whole dollars below 1000 and thousands above.
func FormatMoney(v float64) string {
	if v < 1000 && v > -1000 {
		return fmt.Sprintf("$%.0f", v)
	}
	return fmt.Sprintf("$%.1fK", v/1000)
}
