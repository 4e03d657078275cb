// ABOUTME: Relation lookups across loaded collections
// ABOUTME: Used by detail views to list the rows linked to a contact, company, deal or project
package views

import (
	"github.com/google/uuid"
	"github.com/harperreed/ancora/models"
)

func linked(ref *uuid.UUID, id uuid.UUID) bool {
	return ref != nil && *ref == id
}

// ContactsForCompany lists contacts whose organization is companyID.
func ContactsForCompany(contacts []models.Contact, companyID uuid.UUID) []models.Contact {
	var out []models.Contact
	for _, c := range contacts {
		if linked(c.OrganizationID, companyID) {
			out = append(out, c)
		}
	}
	return out
}

// CompanyContactCount counts contacts attached to companyID.
func CompanyContactCount(contacts []models.Contact, companyID uuid.UUID) int {
	return len(ContactsForCompany(contacts, companyID))
}

func DealsForCompany(deals []models.Deal, companyID uuid.UUID) []models.Deal {
	var out []models.Deal
	for _, d := range deals {
		if linked(d.CompanyID, companyID) {
			out = append(out, d)
		}
	}
	return out
}

func DealsForContact(deals []models.Deal, contactID uuid.UUID) []models.Deal {
	var out []models.Deal
	for _, d := range deals {
		if linked(d.ContactID, contactID) {
			out = append(out, d)
		}
	}
	return out
}

func ProjectsForCompany(projects []models.Project, companyID uuid.UUID) []models.Project {
	var out []models.Project
	for _, p := range projects {
		if linked(p.CompanyID, companyID) {
			out = append(out, p)
		}
	}
	return out
}

func ProjectsForContact(projects []models.Project, contactID uuid.UUID) []models.Project {
	var out []models.Project
	for _, p := range projects {
		if linked(p.ContactID, contactID) {
			out = append(out, p)
		}
	}
	return out
}

func ActivitiesForContact(activities []models.Activity, contactID uuid.UUID) []models.Activity {
	return filterActivities(activities, func(a models.Activity) bool { return linked(a.ContactID, contactID) })
}

func ActivitiesForCompany(activities []models.Activity, companyID uuid.UUID) []models.Activity {
	return filterActivities(activities, func(a models.Activity) bool { return linked(a.CompanyID, companyID) })
}

func ActivitiesForDeal(activities []models.Activity, dealID uuid.UUID) []models.Activity {
	return filterActivities(activities, func(a models.Activity) bool { return linked(a.DealID, dealID) })
}

func ActivitiesForProject(activities []models.Activity, projectID uuid.UUID) []models.Activity {
	return filterActivities(activities, func(a models.Activity) bool { return linked(a.ProjectID, projectID) })
}

func filterActivities(activities []models.Activity, keep func(models.Activity) bool) []models.Activity {
	var out []models.Activity
	for _, a := range activities {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}
