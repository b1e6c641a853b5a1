package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validAddress() Address {
	return Address{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Street:     "12 Analytical Way",
		City:       "Turin",
		PostalCode: "10100",
		Country:    "IT",
	}
}

func TestAddressIsValid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Address)
		want   bool
	}{
		{"complete", func(*Address) {}, true},
		{"optional fields empty", func(a *Address) { a.Company, a.Province, a.Phone = "", "", "" }, true},
		{"missing first name", func(a *Address) { a.FirstName = "" }, false},
		{"missing last name", func(a *Address) { a.LastName = "" }, false},
		{"missing street", func(a *Address) { a.Street = "" }, false},
		{"missing city", func(a *Address) { a.City = "" }, false},
		{"missing postal code", func(a *Address) { a.PostalCode = "" }, false},
		{"missing country", func(a *Address) { a.Country = "" }, false},
		{"whitespace only street", func(a *Address) { a.Street = "   " }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAddress()
			tt.mutate(&a)
			assert.Equal(t, tt.want, a.IsValid())
		})
	}
}

func TestAddressFullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", validAddress().FullName())
}

func TestAddressFormat(t *testing.T) {
	a := validAddress()
	a.Company = "Analytical Engines Ltd"
	a.Province = "TO"
	a.Phone = "+39 011 000000"

	want := "Ada Lovelace\n" +
		"Analytical Engines Ltd\n" +
		"12 Analytical Way\n" +
		"10100 Turin, TO\n" +
		"IT\n" +
		"+39 011 000000"
	assert.Equal(t, want, a.Format())
}
