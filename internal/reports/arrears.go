package reports

import (
	"context"
	"fmt"
	"strings"
)

var arrearsSortFields = map[string]string{
	"debt":     "SUM(p.amount)",
	"months":   "COUNT(p.id)",
	"address":  "b.address",
	"district": "d.name",
	"debtor":   "o.full_name",
}

// Arrears builds the unpaid-balance report: one detail row per indebted
// apartment/owner, grouped per district, with flat totals.
//
// Recognized filters: address, district (substring), min_debt (inclusive
// lower bound on the summed debt, applied after aggregation).
func (g *Generator) Arrears(ctx context.Context, filters Filters, order Sort) (Result, error) {
	wheres := []string{"p.is_paid = 0"}
	var args []any

	if v := filters["address"]; v != "" {
		wheres = append(wheres, "b.address LIKE ?")
		args = append(args, "%"+v+"%")
	}
	if v := filters["district"]; v != "" {
		wheres = append(wheres, "d.name LIKE ?")
		args = append(args, "%"+v+"%")
	}

	having := "SUM(p.amount) > 0"
	if v := filters["min_debt"]; v != "" {
		if min, ok := parseAmount(v); ok {
			having += " AND SUM(p.amount) >= ?"
			args = append(args, min)
		}
	}

	query := `
		SELECT d.name, b.address, a.number, o.full_name, a.area,
		       COUNT(p.id), SUM(p.amount), MAX(p.period)
		FROM payments p
		JOIN apartments a ON p.apartment_id = a.id
		JOIN buildings b ON a.building_id = b.id
		JOIN districts d ON b.district_id = d.id` + ownerJoin + `
		WHERE ` + strings.Join(wheres, " AND ") + `
		GROUP BY d.name, b.address, a.number, o.full_name, a.area
		HAVING ` + having + `
		ORDER BY ` + orderClause(order, arrearsSortFields, "SUM(p.amount) DESC")

	rows, err := g.store.Query(ctx, query, args...)
	if err != nil {
		return Result{}, fmt.Errorf("failed to query arrears report: %w", err)
	}
	defer rows.Close()

	result := emptyResult()
	groups := map[string]map[string]float64{}
	var totalDebt, maxDebt float64

	for rows.Next() {
		var district, address, number, debtor, lastPeriod string
		var area, debt float64
		var months int64
		if err := rows.Scan(&district, &address, &number, &debtor, &area, &months, &debt, &lastPeriod); err != nil {
			return Result{}, fmt.Errorf("failed to scan arrears report row: %w", err)
		}

		row := Row{
			"district":    district,
			"address":     address,
			"apartment":   number,
			"debtor":      debtor,
			"months":      months,
			"debt":        debt,
			"last_period": lastPeriod,
		}
		if area > 0 {
			row["debt_per_m2"] = debt / area
		}
		result.Detail = append(result.Detail, row)

		grp, ok := groups[district]
		if !ok {
			grp = map[string]float64{}
			groups[district] = grp
		}
		grp["total_debt"] += debt
		grp["debtor_count"]++

		totalDebt += debt
		if debt > maxDebt {
			maxDebt = debt
		}
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("failed to read arrears report rows: %w", err)
	}

	if len(result.Detail) == 0 {
		return result, nil
	}

	for _, grp := range groups {
		grp["mean_debt"] = grp["total_debt"] / grp["debtor_count"]
	}
	result.Groups = sortedGroups(groups)

	count := float64(len(result.Detail))
	result.Totals = map[string]float64{
		"total_debt":   totalDebt,
		"mean_debt":    totalDebt / count,
		"debtor_count": count,
		"max_debt":     maxDebt,
	}
	return result, nil
}
