// Package domain holds the typed entity rows of the housing registry.
// Dates are YYYY-MM-DD strings, matching the store's column format.
package domain

// District groups buildings under one management office.
type District struct {
	ID      int64
	Name    string
	Manager string
	Phone   string
}

// Building belongs to a district and owns its apartments. TotalApartments is
// a derived counter kept equal to the number of live apartments.
type Building struct {
	ID              int64
	DistrictID      int64
	Address         string
	YearBuilt       int64
	Floors          int64
	TotalApartments int64
}

// Apartment belongs to exactly one building.
type Apartment struct {
	ID             int64
	BuildingID     int64
	Number         string
	Area           float64
	Rooms          int64
	Privatized     bool
	HasWater       bool
	HasHeating     bool
	HasElectricity bool
}

// Resident belongs to one apartment. Owner-flagged residents act as the
// responsible party in billing and roster reports.
type Resident struct {
	ID               int64
	ApartmentID      int64
	FullName         string
	BirthDate        string
	Passport         string
	IsOwner          bool
	Phone            string
	RegistrationDate string
}

// Service is a shared reference target for payments, never cascaded.
type Service struct {
	ID          int64
	Name        string
	PricePerM2  float64
	Description string
}

// Payment charges one apartment for one service over a year-month period.
// PaymentDate is set only when IsPaid is true.
type Payment struct {
	ID          int64
	ApartmentID int64
	ServiceID   int64
	Period      string
	Amount      float64
	IsPaid      bool
	PaymentDate string
}
