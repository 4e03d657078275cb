// ABOUTME: List filters combining a free-text search with an enum filter
// ABOUTME: Search is a case-insensitive substring match; empty or "all" matches everything
package views

import (
	"strings"

	"github.com/harperreed/ancora/models"
)

// All is the enum filter value that matches every row.
const All = "all"

func matchesText(search string, fields ...string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func matchesEnum(filter, value string) bool {
	return filter == "" || filter == All || filter == value
}

// FilterContacts matches search against first name, last name and email.
func FilterContacts(contacts []models.Contact, search, status string) []models.Contact {
	var out []models.Contact
	for _, c := range contacts {
		if matchesText(search, c.FirstName, c.LastName, models.StringValue(c.Email)) && matchesEnum(status, c.Status) {
			out = append(out, c)
		}
	}
	return out
}

// FilterCompanies matches search against the name and industry exactly.
func FilterCompanies(companies []models.Company, search, industry string) []models.Company {
	var out []models.Company
	for _, c := range companies {
		if matchesText(search, c.Name) && matchesEnum(industry, models.StringValue(c.Industry)) {
			out = append(out, c)
		}
	}
	return out
}

// FilterDeals matches search against the title.
func FilterDeals(deals []models.Deal, search, stage string) []models.Deal {
	var out []models.Deal
	for _, d := range deals {
		if matchesText(search, d.Title) && matchesEnum(stage, d.Stage) {
			out = append(out, d)
		}
	}
	return out
}

// FilterProjects matches search against the name.
func FilterProjects(projects []models.Project, search, status string) []models.Project {
	var out []models.Project
	for _, p := range projects {
		if matchesText(search, p.Name) && matchesEnum(status, p.Status) {
			out = append(out, p)
		}
	}
	return out
}

// Industries lists distinct non-empty industries in first-seen order.
func Industries(companies []models.Company) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range companies {
		ind := models.StringValue(c.Industry)
		if ind == "" || seen[ind] {
			continue
		}
		seen[ind] = true
		out = append(out, ind)
	}
	return out
}
