package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"housing-registry/internal/storage"
)

// Reference date used by all report fixtures.
var refDate = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestGenerator(t *testing.T) *Generator {
	store, err := storage.Open(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))
	seedReportFixture(t, store)

	gen := NewGenerator(store, zap.NewNop())
	gen.Now = func() time.Time { return refDate }
	return gen
}

// seedReportFixture loads two districts with buildings, apartments, owners
// and payments:
//
//	Central / Lenina 10 / apt 1 (50 m2, owner Anna Petrova b.1980):
//	    100 unpaid, 200 unpaid, 50 paid
//	Central / Lenina 10 / apt 2 (40 m2, owners Oleg Bystrov reg.1995 and
//	    Lena Medlova reg.2005): 80 paid
//	Northern / Mira 5 / apt 1 (100 m2, owner Vera Staraya b.1950):
//	    500 unpaid
//	Northern / Mira 5 / apt 2 (owner Yan Yuny b.2008, under voting age)
//	Northern / Mira 5 / apt 3 (no owner resident): 999 unpaid, excluded
//	    from owner-scoped reports
func seedReportFixture(t *testing.T, store *storage.Store) {
	ctx := context.Background()

	exec := func(stmt string, args ...any) int64 {
		res, err := store.Execute(ctx, stmt, args...)
		require.NoError(t, err)
		id, err := res.LastInsertId()
		require.NoError(t, err)
		return id
	}

	central := exec(`INSERT INTO districts (name) VALUES (?)`, "Central District")
	northern := exec(`INSERT INTO districts (name) VALUES (?)`, "Northern District")

	lenina := exec(`INSERT INTO buildings (district_id, address) VALUES (?, ?)`, central, "Lenina 10")
	mira := exec(`INSERT INTO buildings (district_id, address) VALUES (?, ?)`, northern, "Mira 5")

	apt1 := exec(`INSERT INTO apartments (building_id, number, area) VALUES (?, ?, ?)`, lenina, "1", 50.0)
	apt2 := exec(`INSERT INTO apartments (building_id, number, area) VALUES (?, ?, ?)`, lenina, "2", 40.0)
	apt3 := exec(`INSERT INTO apartments (building_id, number, area) VALUES (?, ?, ?)`, mira, "1", 100.0)
	apt4 := exec(`INSERT INTO apartments (building_id, number, area) VALUES (?, ?, ?)`, mira, "2", 35.0)
	apt5 := exec(`INSERT INTO apartments (building_id, number, area) VALUES (?, ?, ?)`, mira, "3", 45.0)

	addResident := func(apt int64, name, birth string, owner bool, registered string) {
		exec(`INSERT INTO residents (apartment_id, full_name, birth_date, is_owner, registration_date)
		      VALUES (?, ?, ?, ?, ?)`, apt, name, birth, owner, registered)
	}
	addResident(apt1, "Anna Petrova", "1980-03-05", true, "2001-01-15")
	addResident(apt1, "Boris Petrov", "2010-08-20", false, "2010-09-01")
	addResident(apt2, "Oleg Bystrov", "1990-06-15", true, "1995-05-01")
	addResident(apt2, "Lena Medlova", "1992-01-01", true, "2005-01-01")
	addResident(apt3, "Vera Staraya", "1950-12-31", true, "1980-02-02")
	addResident(apt4, "Yan Yuny", "2008-01-01", true, "2020-03-03")
	addResident(apt5, "Nils Nikto", "1985-07-07", false, "2015-06-06")

	heating := exec(`INSERT INTO services (name, price_per_m2) VALUES (?, ?)`, "Heating", 10.0)

	addPayment := func(apt int64, period string, amount float64, paid bool) {
		var paymentDate any
		if paid {
			paymentDate = period + "-20"
		}
		exec(`INSERT INTO payments (apartment_id, service_id, period, amount, is_paid, payment_date)
		      VALUES (?, ?, ?, ?, ?, ?)`, apt, heating, period, amount, paid, paymentDate)
	}
	addPayment(apt1, "2024-05", 100, false)
	addPayment(apt1, "2024-06", 200, false)
	addPayment(apt1, "2024-04", 50, true)
	addPayment(apt2, "2024-06", 80, true)
	addPayment(apt3, "2023-12", 500, false)
	addPayment(apt5, "2024-01", 999, false)
}

func TestAge(t *testing.T) {
	birth := time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 23, Age(birth, time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 24, Age(birth, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 24, Age(birth, time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC)))
}

func TestPayments_AllRows(t *testing.T) {
	gen := newTestGenerator(t)

	res, err := gen.Payments(context.Background(), Filters{}, Sort{})
	require.NoError(t, err)

	// Five payments have a responsible owner; the ownerless apartment's
	// payment is excluded.
	require.Len(t, res.Detail, 5)

	assert.InDelta(t, 930.0, res.Totals["total"], 1e-9)
	assert.InDelta(t, 130.0, res.Totals["paid_total"], 1e-9)
	assert.InDelta(t, 186.0, res.Totals["mean"], 1e-9)
	assert.InDelta(t, 5.0, res.Totals["count"], 1e-9)
	assert.InDelta(t, 40.0, res.Totals["paid_percent"], 1e-9)
}

func TestPayments_SurchargeDerived(t *testing.T) {
	gen := newTestGenerator(t)

	res, err := gen.Payments(context.Background(), Filters{"min_amount": "500"}, Sort{})
	require.NoError(t, err)
	require.Len(t, res.Detail, 1)

	row := res.Detail[0]
	assert.InDelta(t, 500.0, row["amount"].(float64), 1e-9)
	assert.InDelta(t, 510.0, row["amount_with_surcharge"].(float64), 1e-9)
}

func TestPayments_OwnerPolicy_EarliestRegistration(t *testing.T) {
	gen := newTestGenerator(t)

	res, err := gen.Payments(context.Background(), Filters{"status": "paid", "period": "2024-06"}, Sort{})
	require.NoError(t, err)
	require.Len(t, res.Detail, 1)
	// Apartment 2 has two owner-flagged residents; the earlier registration
	// wins.
	assert.Equal(t, "Oleg Bystrov", res.Detail[0]["owner"])
}

func TestPayments_Filters(t *testing.T) {
	gen := newTestGenerator(t)
	ctx := context.Background()

	res, err := gen.Payments(ctx, Filters{"period": "2024-06"}, Sort{})
	require.NoError(t, err)
	assert.Len(t, res.Detail, 2)

	res, err = gen.Payments(ctx, Filters{"status": "unpaid"}, Sort{})
	require.NoError(t, err)
	assert.Len(t, res.Detail, 3)

	res, err = gen.Payments(ctx, Filters{"district": "Northern"}, Sort{})
	require.NoError(t, err)
	require.Len(t, res.Detail, 1)
	assert.Equal(t, "Vera Staraya", res.Detail[0]["owner"])

	res, err = gen.Payments(ctx, Filters{"min_amount": "150"}, Sort{})
	require.NoError(t, err)
	assert.Len(t, res.Detail, 2)

	// Unknown keys and blank values are no-ops.
	res, err = gen.Payments(ctx, Filters{"planet": "mars", "period": ""}, Sort{})
	require.NoError(t, err)
	assert.Len(t, res.Detail, 5)
}

func TestPayments_Groups(t *testing.T) {
	gen := newTestGenerator(t)

	res, err := gen.Payments(context.Background(), Filters{}, Sort{})
	require.NoError(t, err)
	require.Len(t, res.Groups, 2)

	assert.Equal(t, "Central District", res.Groups[0].Key)
	assert.InDelta(t, 430.0, res.Groups[0].Values["total"], 1e-9)
	assert.InDelta(t, 4.0, res.Groups[0].Values["count"], 1e-9)
	assert.InDelta(t, 50.0, res.Groups[0].Values["paid_percent"], 1e-9)

	assert.Equal(t, "Northern District", res.Groups[1].Key)
	assert.InDelta(t, 500.0, res.Groups[1].Values["total"], 1e-9)
}

func TestPayments_Sorting(t *testing.T) {
	gen := newTestGenerator(t)

	res, err := gen.Payments(context.Background(), Filters{}, Sort{Field: "amount", Descending: true})
	require.NoError(t, err)
	require.Len(t, res.Detail, 5)
	assert.InDelta(t, 500.0, res.Detail[0]["amount"].(float64), 1e-9)
	assert.InDelta(t, 50.0, res.Detail[4]["amount"].(float64), 1e-9)
}

func TestPayments_EmptyResult(t *testing.T) {
	gen := newTestGenerator(t)

	res, err := gen.Payments(context.Background(), Filters{"period": "2030"}, Sort{})
	require.NoError(t, err)
	assert.Empty(t, res.Detail)
	assert.Empty(t, res.Groups)
	assert.Empty(t, res.Totals)
	assert.NotNil(t, res.Detail)
	assert.NotNil(t, res.Totals)
}

func TestArrears_Aggregation(t *testing.T) {
	gen := newTestGenerator(t)

	res, err := gen.Arrears(context.Background(), Filters{}, Sort{})
	require.NoError(t, err)

	// Two indebted apartments with owners; the paid 50 is excluded, the
	// ownerless apartment's 999 is excluded.
	require.Len(t, res.Detail, 2)

	// Default order: largest debt first.
	first, second := res.Detail[0], res.Detail[1]
	assert.Equal(t, "Vera Staraya", first["debtor"])
	assert.InDelta(t, 500.0, first["debt"].(float64), 1e-9)
	assert.InDelta(t, 5.0, first["debt_per_m2"].(float64), 1e-9)

	assert.Equal(t, "Anna Petrova", second["debtor"])
	assert.InDelta(t, 300.0, second["debt"].(float64), 1e-9)
	assert.Equal(t, int64(2), second["months"])
	assert.Equal(t, "2024-06", second["last_period"])
	assert.InDelta(t, 6.0, second["debt_per_m2"].(float64), 1e-9)

	assert.InDelta(t, 800.0, res.Totals["total_debt"], 1e-9)
	assert.InDelta(t, 400.0, res.Totals["mean_debt"], 1e-9)
	assert.InDelta(t, 2.0, res.Totals["debtor_count"], 1e-9)
	assert.InDelta(t, 500.0, res.Totals["max_debt"], 1e-9)
}

func TestArrears_MinDebtAppliesAfterAggregation(t *testing.T) {
	gen := newTestGenerator(t)

	// 400 exceeds every single unpaid amount of apartment 1 but not its sum;
	// the bound must act on the aggregate.
	res, err := gen.Arrears(context.Background(), Filters{"min_debt": "400"}, Sort{})
	require.NoError(t, err)
	require.Len(t, res.Detail, 1)
	assert.Equal(t, "Vera Staraya", res.Detail[0]["debtor"])

	res, err = gen.Arrears(context.Background(), Filters{"min_debt": "250"}, Sort{})
	require.NoError(t, err)
	assert.Len(t, res.Detail, 2)
}

func TestArrears_DistrictFilterAndGroups(t *testing.T) {
	gen := newTestGenerator(t)

	res, err := gen.Arrears(context.Background(), Filters{"district": "Central"}, Sort{})
	require.NoError(t, err)
	require.Len(t, res.Detail, 1)
	assert.Equal(t, "Anna Petrova", res.Detail[0]["debtor"])

	res, err = gen.Arrears(context.Background(), Filters{}, Sort{})
	require.NoError(t, err)
	require.Len(t, res.Groups, 2)
	assert.Equal(t, "Central District", res.Groups[0].Key)
	assert.InDelta(t, 300.0, res.Groups[0].Values["total_debt"], 1e-9)
	assert.InDelta(t, 1.0, res.Groups[0].Values["debtor_count"], 1e-9)
}

func TestArrears_EmptyResult(t *testing.T) {
	gen := newTestGenerator(t)

	res, err := gen.Arrears(context.Background(), Filters{"district": "Western"}, Sort{})
	require.NoError(t, err)
	assert.Empty(t, res.Detail)
	assert.Empty(t, res.Groups)
	assert.Empty(t, res.Totals)
}

func TestRoster_EligibilityFloor(t *testing.T) {
	gen := newTestGenerator(t)

	res, err := gen.Roster(context.Background(), Filters{}, Sort{})
	require.NoError(t, err)

	// Four adult owners; the 16-year-old owner and all non-owners are out.
	require.Len(t, res.Detail, 4)
	for _, row := range res.Detail {
		assert.GreaterOrEqual(t, row["age"].(int), 18)
	}

	assert.InDelta(t, 4.0, res.Totals["count"], 1e-9)
	assert.InDelta(t, 45.75, res.Totals["mean_age"], 1e-9)
	assert.InDelta(t, 32.0, res.Totals["min_age"], 1e-9)
	assert.InDelta(t, 73.0, res.Totals["max_age"], 1e-9)
}

func TestRoster_AgeOnReferenceDate(t *testing.T) {
	gen := newTestGenerator(t)

	// Oleg Bystrov turns 34 exactly on the reference date.
	res, err := gen.Roster(context.Background(), Filters{"min_age": "34", "max_age": "34"}, Sort{})
	require.NoError(t, err)
	require.Len(t, res.Detail, 1)
	assert.Equal(t, "Oleg Bystrov", res.Detail[0]["full_name"])
}

func TestRoster_AgeBounds(t *testing.T) {
	gen := newTestGenerator(t)
	ctx := context.Background()

	res, err := gen.Roster(ctx, Filters{"min_age": "40"}, Sort{})
	require.NoError(t, err)
	assert.Len(t, res.Detail, 2) // Anna 44, Vera 73

	res, err = gen.Roster(ctx, Filters{"max_age": "44"}, Sort{})
	require.NoError(t, err)
	assert.Len(t, res.Detail, 3) // Anna 44, Oleg 34, Lena 32
}

func TestRoster_Brackets(t *testing.T) {
	gen := newTestGenerator(t)

	res, err := gen.Roster(context.Background(), Filters{}, Sort{})
	require.NoError(t, err)
	require.Len(t, res.Groups, 2)

	assert.Equal(t, "Central District / 30-44", res.Groups[0].Key)
	assert.InDelta(t, 3.0, res.Groups[0].Values["count"], 1e-9)
	assert.InDelta(t, (44.0+34.0+32.0)/3.0, res.Groups[0].Values["mean_age"], 1e-9)

	assert.Equal(t, "Northern District / 60+", res.Groups[1].Key)
	assert.InDelta(t, 1.0, res.Groups[1].Values["count"], 1e-9)
}

func TestRoster_SortByAge(t *testing.T) {
	gen := newTestGenerator(t)

	res, err := gen.Roster(context.Background(), Filters{}, Sort{Field: "age"})
	require.NoError(t, err)
	require.Len(t, res.Detail, 4)
	assert.Equal(t, 32, res.Detail[0]["age"])
	assert.Equal(t, 73, res.Detail[3]["age"])
}

func TestRoster_EmptyResult(t *testing.T) {
	gen := newTestGenerator(t)

	res, err := gen.Roster(context.Background(), Filters{"min_age": "100"}, Sort{})
	require.NoError(t, err)
	assert.Empty(t, res.Detail)
	assert.Empty(t, res.Groups)
	assert.Empty(t, res.Totals)
}
