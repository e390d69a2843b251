// Package reports builds the operational reports of the housing registry:
// payments, arrears and the eligible-voter roster. Each report is a pipeline
// of a fixed join graph, recognized filters, derived fields, grouping and
// flat totals.
//
// Owner policy: where one responsible party per apartment is needed (payments
// and arrears), the earliest owner-flagged resident by registration date
// (then id) is used; apartments without an owner-flagged resident are
// excluded. The roster lists every owner-flagged resident of voting age.
package reports

import (
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"housing-registry/internal/storage"
)

// Surcharge multiplier applied to the derived amount_with_surcharge column.
const surchargeMultiplier = 1.02

// Minimum age for the voter roster.
const votingAge = 18

// Row is one detail row of a report.
type Row map[string]any

// GroupRow is one aggregated group keyed by its label.
type GroupRow struct {
	Key    string
	Values map[string]float64
}

// Result is the report output triple. All three parts are empty together
// when nothing matches.
type Result struct {
	Detail []Row
	Groups []GroupRow
	Totals map[string]float64
}

// Filters maps recognized filter keys to values. Empty values impose no
// constraint; unknown keys are ignored.
type Filters map[string]string

// Sort selects one of the report's logical sort fields. A zero Sort keeps
// the report's default order.
type Sort struct {
	Field      string
	Descending bool
}

// Generator produces reports from the store.
type Generator struct {
	store  *storage.Store
	logger *zap.Logger

	// Now supplies the reference date for age computation. Overridable in
	// tests.
	Now func() time.Time
}

// NewGenerator creates a report generator.
func NewGenerator(store *storage.Store, logger *zap.Logger) *Generator {
	return &Generator{store: store, logger: logger, Now: time.Now}
}

// Detail column orders, for renderers and exporters.
var (
	PaymentColumns = []string{"district", "address", "apartment", "owner", "service", "period", "amount", "amount_with_surcharge", "paid", "payment_date"}
	ArrearsColumns = []string{"district", "address", "apartment", "debtor", "months", "debt", "debt_per_m2", "last_period"}
	RosterColumns  = []string{"district", "address", "apartment", "full_name", "birth_date", "age", "registration_date"}
)

// ownerJoin picks one responsible resident per apartment: the earliest
// owner-flagged resident by registration date, id as tiebreak.
const ownerJoin = `
	JOIN (
		SELECT apartment_id, full_name,
		       ROW_NUMBER() OVER (
		           PARTITION BY apartment_id
		           ORDER BY COALESCE(registration_date, ''), id
		       ) AS owner_rank
		FROM residents
		WHERE is_owner = 1
	) o ON o.apartment_id = a.id AND o.owner_rank = 1`

func emptyResult() Result {
	return Result{Detail: []Row{}, Groups: []GroupRow{}, Totals: map[string]float64{}}
}

// parseAmount reads a numeric filter value; malformed values act as no-ops
// like any other unrecognized filter input.
func parseAmount(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// sortedGroups flattens an aggregation map into rows ordered by group key.
func sortedGroups(groups map[string]map[string]float64) []GroupRow {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]GroupRow, 0, len(keys))
	for _, k := range keys {
		out = append(out, GroupRow{Key: k, Values: groups[k]})
	}
	return out
}

// orderClause resolves a logical sort field against the report's allowed set
// and returns the ORDER BY expression, falling back to the default order.
func orderClause(s Sort, allowed map[string]string, def string) string {
	expr, ok := allowed[s.Field]
	if s.Field == "" || !ok {
		return def
	}
	direction := "ASC"
	if s.Descending {
		direction = "DESC"
	}
	return expr + " " + direction
}
