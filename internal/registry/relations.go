package registry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"housing-registry/internal/domain"
)

// BuildingInfo is a building row joined with its district name.
type BuildingInfo struct {
	domain.Building
	DistrictName string
}

// ApartmentInfo is an apartment row joined with its building address.
type ApartmentInfo struct {
	domain.Apartment
	BuildingAddress string
}

// ResidentInfo is a resident row joined with its apartment and building.
type ResidentInfo struct {
	domain.Resident
	ApartmentNumber string
	BuildingAddress string
}

// PaymentInfo is a payment row joined with its service name and apartment
// number.
type PaymentInfo struct {
	domain.Payment
	ServiceName     string
	ApartmentNumber string
}

// BuildingsInDistrict returns the district's buildings ordered by address.
func (r *Repository) BuildingsInDistrict(ctx context.Context, districtID int64) ([]BuildingInfo, error) {
	query := `
		SELECT b.id, b.district_id, b.address,
		       COALESCE(b.year_built, 0), COALESCE(b.floors, 0), b.total_apartments,
		       d.name
		FROM buildings b
		JOIN districts d ON b.district_id = d.id
		WHERE b.district_id = ?
		ORDER BY b.address
	`
	rows, err := r.store.Query(ctx, query, districtID)
	if err != nil {
		return nil, fmt.Errorf("failed to query buildings in district: %w", err)
	}
	defer rows.Close()

	var buildings []BuildingInfo
	for rows.Next() {
		var b BuildingInfo
		if err := rows.Scan(
			&b.ID, &b.DistrictID, &b.Address,
			&b.YearBuilt, &b.Floors, &b.TotalApartments,
			&b.DistrictName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan building: %w", err)
		}
		buildings = append(buildings, b)
	}
	return buildings, rows.Err()
}

// ApartmentsInBuilding returns the building's apartments ordered by number.
func (r *Repository) ApartmentsInBuilding(ctx context.Context, buildingID int64) ([]ApartmentInfo, error) {
	query := `
		SELECT a.id, a.building_id, a.number, a.area, COALESCE(a.rooms, 0),
		       a.privatized, a.has_water, a.has_heating, a.has_electricity,
		       b.address
		FROM apartments a
		JOIN buildings b ON a.building_id = b.id
		WHERE a.building_id = ?
		ORDER BY a.number
	`
	rows, err := r.store.Query(ctx, query, buildingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query apartments in building: %w", err)
	}
	defer rows.Close()

	var apartments []ApartmentInfo
	for rows.Next() {
		var a ApartmentInfo
		if err := rows.Scan(
			&a.ID, &a.BuildingID, &a.Number, &a.Area, &a.Rooms,
			&a.Privatized, &a.HasWater, &a.HasHeating, &a.HasElectricity,
			&a.BuildingAddress,
		); err != nil {
			return nil, fmt.Errorf("failed to scan apartment: %w", err)
		}
		apartments = append(apartments, a)
	}
	return apartments, rows.Err()
}

// ResidentsInApartment returns the apartment's residents, owners first, then
// by full name.
func (r *Repository) ResidentsInApartment(ctx context.Context, apartmentID int64) ([]ResidentInfo, error) {
	query := `
		SELECT r.id, r.apartment_id, r.full_name, r.birth_date,
		       COALESCE(r.passport, ''), r.is_owner, COALESCE(r.phone, ''),
		       COALESCE(r.registration_date, ''),
		       a.number, b.address
		FROM residents r
		JOIN apartments a ON r.apartment_id = a.id
		JOIN buildings b ON a.building_id = b.id
		WHERE r.apartment_id = ?
		ORDER BY r.is_owner DESC, r.full_name
	`
	rows, err := r.store.Query(ctx, query, apartmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query residents in apartment: %w", err)
	}
	defer rows.Close()

	var residents []ResidentInfo
	for rows.Next() {
		var res ResidentInfo
		if err := rows.Scan(
			&res.ID, &res.ApartmentID, &res.FullName, &res.BirthDate,
			&res.Passport, &res.IsOwner, &res.Phone,
			&res.RegistrationDate,
			&res.ApartmentNumber, &res.BuildingAddress,
		); err != nil {
			return nil, fmt.Errorf("failed to scan resident: %w", err)
		}
		residents = append(residents, res)
	}
	return residents, rows.Err()
}

// PaymentsForApartment returns the apartment's payments, newest period first.
func (r *Repository) PaymentsForApartment(ctx context.Context, apartmentID int64) ([]PaymentInfo, error) {
	query := `
		SELECT p.id, p.apartment_id, p.service_id, p.period, p.amount,
		       p.is_paid, COALESCE(p.payment_date, ''),
		       s.name, a.number
		FROM payments p
		JOIN services s ON p.service_id = s.id
		JOIN apartments a ON p.apartment_id = a.id
		WHERE p.apartment_id = ?
		ORDER BY p.period DESC
	`
	rows, err := r.store.Query(ctx, query, apartmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments for apartment: %w", err)
	}
	defer rows.Close()

	var payments []PaymentInfo
	for rows.Next() {
		var p PaymentInfo
		if err := rows.Scan(
			&p.ID, &p.ApartmentID, &p.ServiceID, &p.Period, &p.Amount,
			&p.IsPaid, &p.PaymentDate,
			&p.ServiceName, &p.ApartmentNumber,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// AddApartmentWithResidents inserts an apartment, bumps the building's
// apartment counter and inserts every resident, all inside one transaction.
// On any failure nothing is visible afterwards.
func (r *Repository) AddApartmentWithResidents(ctx context.Context, buildingID int64, apartment domain.Apartment, residents []domain.Resident) (int64, error) {
	var apartmentID int64

	err := r.store.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO apartments (building_id, number, area, rooms, privatized, has_water, has_heating, has_electricity)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			buildingID, apartment.Number, apartment.Area, apartment.Rooms,
			apartment.Privatized, apartment.HasWater, apartment.HasHeating, apartment.HasElectricity,
		)
		if err != nil {
			return fmt.Errorf("failed to insert apartment: %w", err)
		}
		apartmentID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read apartment id: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE buildings SET total_apartments = total_apartments + 1 WHERE id = ?`,
			buildingID,
		); err != nil {
			return fmt.Errorf("failed to update apartment counter: %w", err)
		}

		for _, resident := range residents {
			var birthDate any
			if resident.BirthDate != "" {
				birthDate = resident.BirthDate
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO residents (apartment_id, full_name, birth_date, passport, is_owner, phone)
				VALUES (?, ?, ?, ?, ?, ?)`,
				apartmentID, resident.FullName, birthDate,
				resident.Passport, resident.IsOwner, resident.Phone,
			); err != nil {
				return fmt.Errorf("failed to insert resident %q: %w", resident.FullName, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return apartmentID, nil
}

// CalculatePayment returns apartment area times the service price per square
// meter, or 0 when either record does not exist.
func (r *Repository) CalculatePayment(ctx context.Context, apartmentID, serviceID int64) (float64, error) {
	query := `
		SELECT a.area, s.price_per_m2
		FROM apartments a, services s
		WHERE a.id = ? AND s.id = ?
	`
	var area, price float64
	err := r.store.QueryRow(ctx, query, apartmentID, serviceID).Scan(&area, &price)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to calculate payment: %w", err)
	}
	return area * price, nil
}

// MarkPaymentPaid flags a payment as paid and stamps the payment date in the
// same statement. Returns false when no payment matched.
func (r *Repository) MarkPaymentPaid(ctx context.Context, paymentID int64) (bool, error) {
	res, err := r.store.Execute(ctx,
		`UPDATE payments SET is_paid = 1, payment_date = ? WHERE id = ?`,
		time.Now().Format("2006-01-02"), paymentID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark payment paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read payment update result: %w", err)
	}
	return n > 0, nil
}

// UnpaidPayments lists every unpaid payment with its address, oldest period
// first.
func (r *Repository) UnpaidPayments(ctx context.Context) ([]PaymentInfo, error) {
	query := `
		SELECT p.id, p.apartment_id, p.service_id, p.period, p.amount,
		       p.is_paid, COALESCE(p.payment_date, ''),
		       s.name, a.number
		FROM payments p
		JOIN services s ON p.service_id = s.id
		JOIN apartments a ON p.apartment_id = a.id
		WHERE p.is_paid = 0
		ORDER BY p.period
	`
	rows, err := r.store.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query unpaid payments: %w", err)
	}
	defer rows.Close()

	var payments []PaymentInfo
	for rows.Next() {
		var p PaymentInfo
		if err := rows.Scan(
			&p.ID, &p.ApartmentID, &p.ServiceID, &p.Period, &p.Amount,
			&p.IsPaid, &p.PaymentDate,
			&p.ServiceName, &p.ApartmentNumber,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// ApartmentStats summarizes the payment history of one apartment.
type ApartmentStats struct {
	TotalPayments int
	PaidCount     int
	UnpaidCount   int
	TotalAmount   float64
}

// ApartmentDetails bundles one apartment with its residents, payments and
// payment statistics.
type ApartmentDetails struct {
	Apartment ApartmentInfo
	Residents []ResidentInfo
	Payments  []PaymentInfo
	Stats     ApartmentStats
}

// ApartmentDetailsByID returns the full picture of one apartment, or nil when
// the apartment does not exist.
func (r *Repository) ApartmentDetailsByID(ctx context.Context, apartmentID int64) (*ApartmentDetails, error) {
	query := `
		SELECT a.id, a.building_id, a.number, a.area, COALESCE(a.rooms, 0),
		       a.privatized, a.has_water, a.has_heating, a.has_electricity,
		       b.address
		FROM apartments a
		JOIN buildings b ON a.building_id = b.id
		WHERE a.id = ?
	`
	var details ApartmentDetails
	a := &details.Apartment
	err := r.store.QueryRow(ctx, query, apartmentID).Scan(
		&a.ID, &a.BuildingID, &a.Number, &a.Area, &a.Rooms,
		&a.Privatized, &a.HasWater, &a.HasHeating, &a.HasElectricity,
		&a.BuildingAddress,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query apartment details: %w", err)
	}

	if details.Residents, err = r.ResidentsInApartment(ctx, apartmentID); err != nil {
		return nil, err
	}
	if details.Payments, err = r.PaymentsForApartment(ctx, apartmentID); err != nil {
		return nil, err
	}

	for _, p := range details.Payments {
		details.Stats.TotalPayments++
		details.Stats.TotalAmount += p.Amount
		if p.IsPaid {
			details.Stats.PaidCount++
		} else {
			details.Stats.UnpaidCount++
		}
	}
	return &details, nil
}

// BuildingSummary is one building with the summed area of its apartments.
type BuildingSummary struct {
	ID              int64
	Address         string
	Floors          int64
	YearBuilt       int64
	TotalApartments int64
	TotalArea       float64
}

// BuildingsSummary returns every building with its apartment count and total
// living area, ordered by address.
func (r *Repository) BuildingsSummary(ctx context.Context) ([]BuildingSummary, error) {
	query := `
		SELECT b.id, b.address, COALESCE(b.floors, 0), COALESCE(b.year_built, 0),
		       b.total_apartments, COALESCE(SUM(a.area), 0)
		FROM buildings b
		LEFT JOIN apartments a ON a.building_id = b.id
		GROUP BY b.id, b.address, b.floors, b.year_built, b.total_apartments
		ORDER BY b.address
	`
	rows, err := r.store.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query buildings summary: %w", err)
	}
	defer rows.Close()

	var summaries []BuildingSummary
	for rows.Next() {
		var s BuildingSummary
		if err := rows.Scan(&s.ID, &s.Address, &s.Floors, &s.YearBuilt, &s.TotalApartments, &s.TotalArea); err != nil {
			return nil, fmt.Errorf("failed to scan building summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
