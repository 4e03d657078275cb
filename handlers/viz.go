// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides the generate_graph tool for agents
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/ancora/store"
	"github.com/harperreed/ancora/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VizHandlers struct {
	records *store.Store
}

func NewVizHandlers(records *store.Store) *VizHandlers {
	return &VizHandlers{records: records}
}

type GenerateGraphInput struct {
	Type     string `json:"type" jsonschema:"Graph type: pipeline, all, contact or company"`
	EntityID string `json:"entity_id,omitempty" jsonschema:"UUID of entity (required for contact and company)"`
}

type GenerateGraphOutput struct {
	GraphType string `json:"graph_type"`
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(ctx context.Context, _ *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	if input.Type == "" {
		return nil, GenerateGraphOutput{}, fmt.Errorf("type is required")
	}

	h.records.FetchAll(ctx)
	generator := viz.NewGraphGenerator(h.records.Snapshot())

	var dot string
	var err error
	switch input.Type {
	case "pipeline":
		dot, err = generator.GeneratePipelineGraph()
	case "all":
		dot, err = generator.GenerateCompleteGraph()
	case "contact", "company":
		id, perr := parseID("entity_id", input.EntityID)
		if perr != nil {
			return nil, GenerateGraphOutput{}, perr
		}
		if input.Type == "contact" {
			dot, err = generator.GenerateContactGraph(id)
		} else {
			dot, err = generator.GenerateCompanyGraph(id)
		}
	default:
		return nil, GenerateGraphOutput{}, fmt.Errorf("unknown graph type: %s (valid types: pipeline, all, contact, company)", input.Type)
	}
	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	return nil, GenerateGraphOutput{
		GraphType: input.Type,
		DOTSource: dot,
		NodeCount: strings.Count(dot, "label="),
		EdgeCount: strings.Count(dot, "->"),
	}, nil
}
