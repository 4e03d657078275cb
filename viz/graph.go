// ABOUTME: Graphviz rendering of the cached CRM records
// ABOUTME: Pipeline, complete, company and contact graphs emitted as DOT source
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/google/uuid"
	"github.com/harperreed/ancora/models"
	"github.com/harperreed/ancora/store"
	"github.com/harperreed/ancora/views"
)

// GraphGenerator draws graphs from one cache snapshot.
type GraphGenerator struct {
	state store.State
}

func NewGraphGenerator(state store.State) *GraphGenerator {
	return &GraphGenerator{state: state}
}

// render builds a graph with draw and returns its DOT source.
func render(draw func(graph *cgraph.Graph) error) (string, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	if err := draw(graph); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}

func shortID(prefix string, id uuid.UUID) string {
	return fmt.Sprintf("%s_%s", prefix, id.String()[:8])
}

// GeneratePipelineGraph draws the open stages left to right with each
// active deal hanging off its stage.
func (g *GraphGenerator) GeneratePipelineGraph() (string, error) {
	return render(func(graph *cgraph.Graph) error {
		graph.SetLabel("Deal Pipeline")
		graph.SetRankDir(cgraph.LRRank)

		var prev *cgraph.Node
		for _, col := range views.PipelineBoard(g.state.Deals) {
			stage, err := graph.CreateNodeByName("stage_" + col.Stage.ID)
			if err != nil {
				return fmt.Errorf("failed to create stage node: %w", err)
			}
			stage.SetLabel(fmt.Sprintf("%s\n%d deals · %s", col.Stage.Label, col.Count, FormatMoney(col.Value)))
			stage.SetShape("box")
			stage.SetStyle("filled")
			stage.SetFillColor("lightblue")

			if prev != nil {
				if _, err := graph.CreateEdgeByName("next", prev, stage); err != nil {
					return fmt.Errorf("failed to create edge: %w", err)
				}
			}
			prev = stage

			for _, deal := range col.Deals {
				node, err := graph.CreateNodeByName(shortID("deal", deal.ID))
				if err != nil {
					return fmt.Errorf("failed to create deal node: %w", err)
				}
				node.SetLabel(fmt.Sprintf("%s\n%s @ %d%%", deal.Title, FormatMoney(deal.Value), deal.Probability))
				node.SetShape("diamond")
				node.SetStyle("filled")
				node.SetFillColor("lightyellow")

				if err := link(graph, "in_stage", models.StageLabel(deal.Stage), stage, node); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// GenerateCompleteGraph draws every company, contact, deal and project
// with their links.
func (g *GraphGenerator) GenerateCompleteGraph() (string, error) {
	return render(func(graph *cgraph.Graph) error {
		graph.SetLabel("Complete CRM Graph")

		companyNodes := make(map[uuid.UUID]*cgraph.Node)
		for _, company := range g.state.Companies {
			node, err := companyNode(graph, company)
			if err != nil {
				return err
			}
			companyNodes[company.ID] = node
		}

		contactNodes := make(map[uuid.UUID]*cgraph.Node)
		for _, contact := range g.state.Contacts {
			node, err := contactNode(graph, contact)
			if err != nil {
				return err
			}
			contactNodes[contact.ID] = node

			if err := link(graph, "works_at", "works at", node, lookup(companyNodes, contact.OrganizationID)); err != nil {
				return err
			}
		}

		for _, deal := range g.state.Deals {
			node, err := dealNode(graph, deal)
			if err != nil {
				return err
			}
			if err := link(graph, "deal_with", "deal", lookup(companyNodes, deal.CompanyID), node); err != nil {
				return err
			}
			if err := link(graph, "contact_for", "contact", lookup(contactNodes, deal.ContactID), node); err != nil {
				return err
			}
		}

		for _, project := range g.state.Projects {
			node, err := projectNode(graph, project)
			if err != nil {
				return err
			}
			if err := link(graph, "project_for", "project", lookup(companyNodes, project.CompanyID), node); err != nil {
				return err
			}
			if err := link(graph, "project_contact", "contact", lookup(contactNodes, project.ContactID), node); err != nil {
				return err
			}
		}
		return nil
	})
}

// GenerateContactGraph draws one contact with its company, deals and
// projects. The contact must be in the snapshot.
func (g *GraphGenerator) GenerateContactGraph(contactID uuid.UUID) (string, error) {
	var contact *models.Contact
	for i := range g.state.Contacts {
		if g.state.Contacts[i].ID == contactID {
			contact = &g.state.Contacts[i]
		}
	}
	if contact == nil {
		return "", fmt.Errorf("contact %s not found", contactID)
	}

	return render(func(graph *cgraph.Graph) error {
		graph.SetLayout("neato")

		center, err := contactNode(graph, *contact)
		if err != nil {
			return err
		}
		contactNodes := map[uuid.UUID]*cgraph.Node{contact.ID: center}

		if contact.OrganizationID != nil {
			for _, company := range g.state.Companies {
				if company.ID != *contact.OrganizationID {
					continue
				}
				node, err := companyNode(graph, company)
				if err != nil {
					return err
				}
				if err := link(graph, "works_at", "works at", center, node); err != nil {
					return err
				}
			}
		}

		for _, deal := range views.DealsForContact(g.state.Deals, contact.ID) {
			node, err := dealNode(graph, deal)
			if err != nil {
				return err
			}
			if err := link(graph, "contact_for", "contact", lookup(contactNodes, deal.ContactID), node); err != nil {
				return err
			}
		}

		for _, project := range views.ProjectsForContact(g.state.Projects, contact.ID) {
			node, err := projectNode(graph, project)
			if err != nil {
				return err
			}
			if err := link(graph, "project_contact", "contact", lookup(contactNodes, project.ContactID), node); err != nil {
				return err
			}
		}
		return nil
	})
}

// GenerateCompanyGraph draws a company with its contacts, deals and
// projects.
func (g *GraphGenerator) GenerateCompanyGraph(companyID uuid.UUID) (string, error) {
	var company *models.Company
	for i := range g.state.Companies {
		if g.state.Companies[i].ID == companyID {
			company = &g.state.Companies[i]
		}
	}
	if company == nil {
		return "", fmt.Errorf("company %s not found", companyID)
	}

	return render(func(graph *cgraph.Graph) error {
		center, err := companyNode(graph, *company)
		if err != nil {
			return err
		}

		for _, contact := range views.ContactsForCompany(g.state.Contacts, company.ID) {
			node, err := contactNode(graph, contact)
			if err != nil {
				return err
			}
			if err := link(graph, "works_at", "works at", node, center); err != nil {
				return err
			}
		}

		for _, deal := range views.DealsForCompany(g.state.Deals, company.ID) {
			node, err := dealNode(graph, deal)
			if err != nil {
				return err
			}
			if err := link(graph, "deal_with", "deal", center, node); err != nil {
				return err
			}
		}

		for _, project := range views.ProjectsForCompany(g.state.Projects, company.ID) {
			node, err := projectNode(graph, project)
			if err != nil {
				return err
			}
			if err := link(graph, "project_for", "project", center, node); err != nil {
				return err
			}
		}
		return nil
	})
}

func companyNode(graph *cgraph.Graph, company models.Company) (*cgraph.Node, error) {
	node, err := graph.CreateNodeByName(shortID("company", company.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to create company node: %w", err)
	}
	node.SetLabel(fmt.Sprintf("%s\n(Company)", company.Name))
	node.SetShape("box")
	node.SetStyle("filled")
	node.SetFillColor("lightblue")
	return node, nil
}

func contactNode(graph *cgraph.Graph, contact models.Contact) (*cgraph.Node, error) {
	node, err := graph.CreateNodeByName(shortID("contact", contact.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to create contact node: %w", err)
	}
	node.SetLabel(fmt.Sprintf("%s\n%s", contact.FullName(), models.StringValue(contact.Email)))
	node.SetShape("ellipse")
	node.SetStyle("filled")
	node.SetFillColor("lightgreen")
	return node, nil
}

func dealNode(graph *cgraph.Graph, deal models.Deal) (*cgraph.Node, error) {
	node, err := graph.CreateNodeByName(shortID("deal", deal.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to create deal node: %w", err)
	}
	node.SetLabel(fmt.Sprintf("%s\n%s\n(%s)", deal.Title, FormatMoney(deal.Value), models.StageLabel(deal.Stage)))
	node.SetShape("diamond")
	node.SetStyle("filled")
	node.SetFillColor("lightyellow")
	return node, nil
}

func projectNode(graph *cgraph.Graph, project models.Project) (*cgraph.Node, error) {
	node, err := graph.CreateNodeByName(shortID("project", project.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to create project node: %w", err)
	}
	node.SetLabel(fmt.Sprintf("%s\n(%s)", project.Name, models.OptionLabel(models.ProjectStatuses, project.Status)))
	node.SetShape("folder")
	node.SetStyle("filled")
	node.SetFillColor("lavender")
	return node, nil
}

// lookup returns the drawn node for id, if any.
func lookup(nodes map[uuid.UUID]*cgraph.Node, id *uuid.UUID) *cgraph.Node {
	if id == nil {
		return nil
	}
	return nodes[*id]
}

// link draws a labelled edge when both ends are drawn.
func link(graph *cgraph.Graph, name, label string, from, to *cgraph.Node) error {
	if from == nil || to == nil {
		return nil
	}
	edge, err := graph.CreateEdgeByName(name, from, to)
	if err != nil {
		return fmt.Errorf("failed to create edge: %w", err)
	}
	edge.SetLabel(label)
	return nil
}
