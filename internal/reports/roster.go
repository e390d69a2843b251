package reports

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var rosterSortFields = map[string]string{
	"name":     "r.full_name",
	"address":  "b.address",
	"district": "d.name",
	// Older residents were born earlier, so age sorts by inverted birth date.
	"age": "r.birth_date",
}

// Roster builds the eligible-voter roster: owner-flagged residents of voting
// age, grouped per district and age bracket, with flat totals.
//
// Recognized filters: address, district (substring), min_age, max_age
// (inclusive bounds on the computed age).
func (g *Generator) Roster(ctx context.Context, filters Filters, order Sort) (Result, error) {
	wheres := []string{"r.is_owner = 1"}
	var args []any

	if v := filters["address"]; v != "" {
		wheres = append(wheres, "b.address LIKE ?")
		args = append(args, "%"+v+"%")
	}
	if v := filters["district"]; v != "" {
		wheres = append(wheres, "d.name LIKE ?")
		args = append(args, "%"+v+"%")
	}

	minAge, maxAge := votingAge, -1
	if v := filters["min_age"]; v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > minAge {
			minAge = n
		}
	}
	if v := filters["max_age"]; v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			maxAge = n
		}
	}

	if order.Field == "age" {
		// Invert direction: ascending age means descending birth date.
		order.Descending = !order.Descending
	}

	query := `
		SELECT d.name, b.address, a.number, r.full_name, r.birth_date,
		       COALESCE(r.registration_date, '')
		FROM residents r
		JOIN apartments a ON r.apartment_id = a.id
		JOIN buildings b ON a.building_id = b.id
		JOIN districts d ON b.district_id = d.id
		WHERE ` + strings.Join(wheres, " AND ") + `
		ORDER BY ` + orderClause(order, rosterSortFields, "b.address, a.number, r.full_name")

	rows, err := g.store.Query(ctx, query, args...)
	if err != nil {
		return Result{}, fmt.Errorf("failed to query roster report: %w", err)
	}
	defer rows.Close()

	now := g.Now()
	result := emptyResult()
	groups := map[string]map[string]float64{}
	var ageSum, ageMin, ageMax int

	for rows.Next() {
		var district, address, number, fullName, birthDate, registrationDate string
		if err := rows.Scan(&district, &address, &number, &fullName, &birthDate, &registrationDate); err != nil {
			return Result{}, fmt.Errorf("failed to scan roster report row: %w", err)
		}

		birth, err := time.Parse("2006-01-02", birthDate)
		if err != nil {
			return Result{}, fmt.Errorf("failed to parse birth date %q for %q: %w", birthDate, fullName, err)
		}
		age := Age(birth, now)
		if age < minAge || (maxAge >= 0 && age > maxAge) {
			continue
		}

		result.Detail = append(result.Detail, Row{
			"district":          district,
			"address":           address,
			"apartment":         number,
			"full_name":         fullName,
			"birth_date":        birthDate,
			"age":               age,
			"registration_date": registrationDate,
		})

		key := groupKey(district, ageBracket(age))
		grp, ok := groups[key]
		if !ok {
			grp = map[string]float64{}
			groups[key] = grp
		}
		grp["count"]++
		grp["age_sum"] += float64(age)

		if len(result.Detail) == 1 {
			ageMin, ageMax = age, age
		}
		ageSum += age
		if age < ageMin {
			ageMin = age
		}
		if age > ageMax {
			ageMax = age
		}
	}
	if err := rows.Err(); err != nil {
		return Result{}, fmt.Errorf("failed to read roster report rows: %w", err)
	}

	if len(result.Detail) == 0 {
		return result, nil
	}

	for _, grp := range groups {
		grp["mean_age"] = grp["age_sum"] / grp["count"]
		delete(grp, "age_sum")
	}
	result.Groups = sortedGroups(groups)

	count := len(result.Detail)
	result.Totals = map[string]float64{
		"count":    float64(count),
		"mean_age": float64(ageSum) / float64(count),
		"min_age":  float64(ageMin),
		"max_age":  float64(ageMax),
	}
	return result, nil
}
