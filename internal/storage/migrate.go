package storage

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS districts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		manager TEXT,
		phone TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS buildings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		district_id INTEGER NOT NULL,
		address TEXT NOT NULL,
		year_built INTEGER,
		floors INTEGER,
		total_apartments INTEGER DEFAULT 0,
		FOREIGN KEY (district_id) REFERENCES districts(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS apartments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		building_id INTEGER NOT NULL,
		number TEXT NOT NULL,
		area REAL NOT NULL CHECK(area > 0),
		rooms INTEGER,
		privatized BOOLEAN DEFAULT 0,
		has_water BOOLEAN DEFAULT 1,
		has_heating BOOLEAN DEFAULT 1,
		has_electricity BOOLEAN DEFAULT 1,
		FOREIGN KEY (building_id) REFERENCES buildings(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS residents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		apartment_id INTEGER NOT NULL,
		full_name TEXT NOT NULL,
		birth_date TEXT NOT NULL,
		passport TEXT,
		is_owner BOOLEAN DEFAULT 0,
		phone TEXT,
		registration_date TEXT DEFAULT CURRENT_DATE,
		FOREIGN KEY (apartment_id) REFERENCES apartments(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS services (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		price_per_m2 REAL NOT NULL CHECK(price_per_m2 > 0),
		description TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		apartment_id INTEGER NOT NULL,
		service_id INTEGER NOT NULL,
		period TEXT NOT NULL,
		amount REAL NOT NULL CHECK(amount >= 0),
		is_paid BOOLEAN DEFAULT 0,
		payment_date TEXT,
		FOREIGN KEY (apartment_id) REFERENCES apartments(id) ON DELETE CASCADE,
		FOREIGN KEY (service_id) REFERENCES services(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_buildings_district ON buildings(district_id)`,
	`CREATE INDEX IF NOT EXISTS idx_apartments_building ON apartments(building_id)`,
	`CREATE INDEX IF NOT EXISTS idx_residents_apartment ON residents(apartment_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_apartment ON payments(apartment_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_period ON payments(period)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_paid ON payments(is_paid)`,
}

// Migrate creates the registry tables and indexes. Safe to run repeatedly.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.Execute(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}

// Seed inserts the reference districts and services when the store is empty.
func (s *Store) Seed(ctx context.Context) error {
	var count int
	if err := s.QueryRow(ctx, `SELECT COUNT(*) FROM districts`).Scan(&count); err != nil {
		return fmt.Errorf("failed to check seed state: %w", err)
	}
	if count > 0 {
		return nil
	}

	districts := []struct {
		name, manager, phone string
	}{
		{"Central District", "I. Ivanov", "+7-111-222-3333"},
		{"Northern District", "P. Petrov", "+7-111-222-4444"},
		{"Southern District", "S. Sidorov", "+7-111-222-5555"},
	}
	for _, d := range districts {
		if _, err := s.Execute(ctx,
			`INSERT INTO districts (name, manager, phone) VALUES (?, ?, ?)`,
			d.name, d.manager, d.phone,
		); err != nil {
			return fmt.Errorf("failed to seed districts: %w", err)
		}
	}

	services := []struct {
		name        string
		price       float64
		description string
	}{
		{"Cold water supply", 25.50, "Cold water service"},
		{"Hot water supply", 45.30, "Hot water service"},
		{"Heating", 35.20, "Space heating"},
		{"Electricity", 4.80, "Electric power"},
		{"Waste removal", 8.90, "Household waste collection"},
	}
	for _, svc := range services {
		if _, err := s.Execute(ctx,
			`INSERT INTO services (name, price_per_m2, description) VALUES (?, ?, ?)`,
			svc.name, svc.price, svc.description,
		); err != nil {
			return fmt.Errorf("failed to seed services: %w", err)
		}
	}

	return nil
}
