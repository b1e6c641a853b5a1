package domain

import "strings"

// Address is a shipping or billing address captured during checkout. The
// constructor stores raw fields and never fails: a partially filled checkout
// form must stay representable. Validation is a query, not an exception.
type Address struct {
	FirstName  string
	LastName   string
	Company    string
	Street     string
	City       string
	PostalCode string
	Province   string
	Country    string
	Phone      string
}

// IsValid reports whether every required field is non-empty after trimming.
// Company, province and phone are optional.
func (a Address) IsValid() bool {
	required := []string{a.FirstName, a.LastName, a.Street, a.City, a.PostalCode, a.Country}
	for _, f := range required {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return true
}

// FullName joins first and last name for display.
func (a Address) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Format renders a multi-line human-readable address, skipping blank
// optional lines.
func (a Address) Format() string {
	lines := []string{a.FullName()}
	if strings.TrimSpace(a.Company) != "" {
		lines = append(lines, a.Company)
	}
	lines = append(lines, a.Street)

	cityLine := a.PostalCode + " " + a.City
	if strings.TrimSpace(a.Province) != "" {
		cityLine += ", " + a.Province
	}
	lines = append(lines, strings.TrimSpace(cityLine), a.Country)

	if strings.TrimSpace(a.Phone) != "" {
		lines = append(lines, a.Phone)
	}
	return strings.Join(lines, "\n")
}
