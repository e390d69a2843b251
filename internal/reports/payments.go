package reports

import (
	"context"
	"fmt"
	"strings"
)

var paymentSortFields = map[string]string{
	"period":   "p.period",
	"amount":   "p.amount",
	"address":  "b.address",
	"district": "d.name",
	"owner":    "o.full_name",
}

// Payments builds the billing report: one detail row per payment with its
// responsible owner, grouped per district, with flat totals.
//
// Recognized filters: period, address, district (substring), status
// ("paid"/"unpaid"), min_amount (inclusive lower bound).
func (g *Generator) Payments(ctx context.Context, filters Filters, order Sort) (Result, error) {
	var wheres []string
	var args []any

	if v := filters["period"]; v != "" {
		wheres = append(wheres, "p.period LIKE ?")
		args = append(args, "%"+v+"%")
	}
	if v := filters["address"]; v != "" {
		wheres = append(wheres, "b.address LIKE ?")
		args = append(args, "%"+v+"%")
	}
	if v := filters["district"]; v != "" {
		wheres = append(wheres, "d.name LIKE ?")
		args = append(args, "%"+v+"%")
	}
	switch filters["status"] {
	case "paid":
		wheres = append(wheres, "p.is_paid = 1")
	case "unpaid":
		wheres = append(wheres, "p.is_paid = 0")
	}
	if v := filters["min_amount"]; v != "" {
		if min, ok := parseAmount(v); ok {
			wheres = append(wheres, "p.amount >= ?")
			args = append(args, min)
		}
	}

	query := `
		SELECT d.name, b.address, a.number, o.full_name, s.name,
		       p.period, p.amount, p.is_paid, COALESCE(p.payment_date, '')
		FROM payments p
		JOIN apartments a ON p.apartment_id = a.id
		JOIN buildings b ON a.building_id = b.id
		JOIN districts d ON b.district_id = d.id
		JOIN services s ON p.service_id = s.id` + ownerJoin
	if len(wheres) > 0 {
		query += "\n\tWHERE " + strings.Join(wheres, " AND ")
	}
	query += "\n\tORDER BY " + orderClause(order, paymentSortFields, "p.period DESC, b.address, a.number")

	rows, err := g.store.Query(ctx, query, args...)
	if err != nil {
		return Result{}, fmt.Errorf("failed to query payments report: %w", err)
	}
	defer rows.Close()

	result := emptyResult()
	groups := map[string]map[string]float64{}
	var totalAmount, paidAmount float64
	var paidCount int

	for rows.Next() {
		var district, address, number, owner, service, period, paymentDate string
		var amount float64
		var isPaid bool
		if err := rows.Scan(&district, &address, &number, &owner, &service, &period, &amount, &isPaid, &paymentDate); err != nil {
			return Result{}, fmt.Errorf("failed to scan payments report row: %w", err)
		}

		result.Detail = append(result.Detail, Row{
			"district":              district,
			"address":               address,
			"apartment":             number,
			"owner":                 owner,
			"service":               service,
			"period":                period,
			"amount":                amount,
			"amount_with_surcharge": amount * surchargeMultiplier,
			"paid":                  isPaid,
			"payment_date":          paymentDate,
		})

		grp, ok := groups[district]
		if !ok {
			grp = map[string]float64{}
			groups[district] = grp
		}
		grp["total"] += amount
		grp["count"]++
		if isPaid {
			grp["paid_count"]++
		}

		totalAmount += amount
		if isPaid {
			paidAmount += amount
			paidCount++
		}
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("failed to read payments report rows: %w", err)
	}

	if len(result.Detail) == 0 {
		return result, nil
	}

	for _, grp := range groups {
		grp["mean"] = grp["total"] / grp["count"]
		grp["paid_percent"] = 100 * grp["paid_count"] / grp["count"]
		delete(grp, "paid_count")
	}
	result.Groups = sortedGroups(groups)

	count := float64(len(result.Detail))
	result.Totals = map[string]float64{
		"total":        totalAmount,
		"paid_total":   paidAmount,
		"mean":         totalAmount / count,
		"count":        count,
		"paid_percent": 100 * float64(paidCount) / count,
	}
	return result, nil
}
