package schema

// Canonical housing-registry schema. The registry is deployed either in the
// full six-table shape or in a reduced four-table shape without districts and
// services; both are built from the same column definitions.

func districtsTable() *Table {
	return &Table{
		Name: "districts",
		Columns: []Column{
			{Name: "id", Kind: Integer, NotNull: true},
			{Name: "name", Kind: Text, NotNull: true},
			{Name: "manager", Kind: Text},
			{Name: "phone", Kind: Text},
		},
		CascadeChildren: []string{"buildings"},
	}
}

func buildingsTable(withDistrict bool) *Table {
	cols := []Column{
		{Name: "id", Kind: Integer, NotNull: true},
	}
	if withDistrict {
		cols = append(cols, Column{Name: "district_id", Kind: Integer, NotNull: true, References: "districts"})
	}
	cols = append(cols,
		Column{Name: "address", Kind: Text, NotNull: true},
		Column{Name: "year_built", Kind: Integer},
		Column{Name: "floors", Kind: Integer},
		Column{Name: "total_apartments", Kind: Integer},
	)
	return &Table{Name: "buildings", Columns: cols, CascadeChildren: []string{"apartments"}}
}

func apartmentsTable() *Table {
	return &Table{
		Name: "apartments",
		Columns: []Column{
			{Name: "id", Kind: Integer, NotNull: true},
			{Name: "building_id", Kind: Integer, NotNull: true, References: "buildings"},
			{Name: "number", Kind: Text, NotNull: true},
			{Name: "area", Kind: Real, NotNull: true},
			{Name: "rooms", Kind: Integer},
			{Name: "privatized", Kind: Boolean},
			{Name: "has_water", Kind: Boolean},
			{Name: "has_heating", Kind: Boolean},
			{Name: "has_electricity", Kind: Boolean},
		},
		CascadeChildren: []string{"residents", "payments"},
	}
}

func residentsTable() *Table {
	return &Table{
		Name: "residents",
		Columns: []Column{
			{Name: "id", Kind: Integer, NotNull: true},
			{Name: "apartment_id", Kind: Integer, NotNull: true, References: "apartments"},
			{Name: "full_name", Kind: Text, NotNull: true},
			{Name: "birth_date", Kind: Date, NotNull: true},
			{Name: "passport", Kind: Text},
			{Name: "is_owner", Kind: Boolean},
			{Name: "phone", Kind: Text},
			{Name: "registration_date", Kind: Date},
		},
	}
}

func servicesTable() *Table {
	return &Table{
		Name: "services",
		Columns: []Column{
			{Name: "id", Kind: Integer, NotNull: true},
			{Name: "name", Kind: Text, NotNull: true},
			{Name: "price_per_m2", Kind: Real, NotNull: true},
			{Name: "description", Kind: Text},
		},
	}
}

func paymentsTable(withService bool) *Table {
	cols := []Column{
		{Name: "id", Kind: Integer, NotNull: true},
		{Name: "apartment_id", Kind: Integer, NotNull: true, References: "apartments"},
	}
	if withService {
		cols = append(cols, Column{Name: "service_id", Kind: Integer, NotNull: true, References: "services"})
	}
	cols = append(cols,
		Column{Name: "period", Kind: Text, NotNull: true},
		Column{Name: "amount", Kind: Real, NotNull: true},
		Column{Name: "is_paid", Kind: Boolean},
		Column{Name: "payment_date", Kind: Date},
	)
	return &Table{Name: "payments", Columns: cols}
}

// DefaultRegistry returns the full six-table schema.
func DefaultRegistry() *Registry {
	return NewRegistry(
		districtsTable(),
		buildingsTable(true),
		apartmentsTable(),
		residentsTable(),
		servicesTable(),
		paymentsTable(true),
	)
}

// CoreRegistry returns the reduced shape without districts and services, used
// by simplified deployments.
func CoreRegistry() *Registry {
	return NewRegistry(
		buildingsTable(false),
		apartmentsTable(),
		residentsTable(),
		paymentsTable(false),
	)
}
