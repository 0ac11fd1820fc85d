package search

import (
	"context"
	"errors"

	"github.com/ccod-search/internal/companieshouse"
	"github.com/ccod-search/internal/normalize"
)

// maxOfficersResolved bounds how many matching officers have their
// appointments fetched, balancing thoroughness against API rate limits.
const maxOfficersResolved = 15

// Director-search outcomes that are not server faults. Both may be
// accompanied by partial data (suggestions, directors found).
var (
	ErrNoDirectorsFound = errors.New("no individual directors found matching this name; try searching by company name instead")
	ErrNoAppointments   = errors.New("matching directors found, but none have company appointments in the registry")
)

// DirectorMatch links a matched director to one of their companies.
type DirectorMatch struct {
	DirectorName  string `json:"director_name"`
	CompanyNumber string `json:"company_number"`
	CompanyName   string `json:"company_name"`
	OfficerRole   string `json:"officer_role"`
	AppointedOn   string `json:"appointed_on"`
	ResignedOn    string `json:"resigned_on"`
	CompanyStatus string `json:"company_status"`
}

// OfficerClient is the slice of the Companies House client the director
// search needs.
type OfficerClient interface {
	SearchIndividualOfficers(ctx context.Context, name string, itemsPerPage int) ([]companieshouse.Officer, error)
	Appointments(ctx context.Context, appointmentsLink string) ([]companieshouse.Appointment, error)
}

// ByDirector resolves a director name to companies via Companies House
// and searches the local data for properties those companies own.
// When no individual officers match, it returns name suggestions with
// ErrNoDirectorsFound so the caller can steer the user toward a
// company name search.
func (s *Store) ByDirector(ctx context.Context, client OfficerClient, directorName string) ([]Result, []DirectorMatch, []Suggestion, error) {
	if normalize.NameKey(directorName) == "" {
		return nil, nil, nil, ErrEmptyValue
	}

	officers, err := client.SearchIndividualOfficers(ctx, directorName, 50)
	if err != nil {
		return nil, nil, nil, err
	}

	if len(officers) == 0 {
		names, err := s.DistinctProprietorNames(ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		suggestions := Suggest(directorName, names, DirectorSuggestionThreshold, DefaultSuggestionLimit)
		return nil, nil, suggestions, ErrNoDirectorsFound
	}

	var directors []DirectorMatch
	companyNumbers := make(map[string]bool)

	resolved := officers
	if len(resolved) > maxOfficersResolved {
		resolved = resolved[:maxOfficersResolved]
	}
	for _, officer := range resolved {
		appointments, err := client.Appointments(ctx, officer.AppointmentsLink)
		if err != nil {
			// One failed officer lookup should not sink the search.
			continue
		}
		for _, appt := range appointments {
			companyNumbers[appt.CompanyNumber] = true
			directors = append(directors, DirectorMatch{
				DirectorName:  officer.Name,
				CompanyNumber: appt.CompanyNumber,
				CompanyName:   appt.CompanyName,
				OfficerRole:   appt.OfficerRole,
				AppointedOn:   appt.AppointedOn,
				ResignedOn:    appt.ResignedOn,
				CompanyStatus: appt.CompanyStatus,
			})
		}
	}

	if len(companyNumbers) == 0 {
		return nil, directors, nil, ErrNoAppointments
	}

	numbers := make([]string, 0, len(companyNumbers))
	for cn := range companyNumbers {
		numbers = append(numbers, cn)
	}

	results, err := s.ByCompanyNumbers(ctx, numbers)
	if err != nil {
		return nil, nil, nil, err
	}
	return results, directors, nil, nil
}
