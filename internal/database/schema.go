package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the tables the booking core needs.  available_beds is
// bounded by the CHECK constraint as a second line of defence behind the
// guarded UPDATE statements, and payment_ref is unique so one payment can
// never produce two reservations.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS hostels (
	id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	owner_id BIGINT UNSIGNED NOT NULL,
	name VARCHAR(255) NOT NULL,
	status ENUM('pending','approved','rejected') NOT NULL DEFAULT 'pending',
	rejection_reason VARCHAR(500) NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	KEY idx_hostels_owner (owner_id),
	KEY idx_hostels_status (status, created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	`CREATE TABLE IF NOT EXISTS rooms (
	id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	hostel_id BIGINT UNSIGNED NOT NULL,
	room_number VARCHAR(64) NOT NULL,
	total_beds INT NOT NULL,
	available_beds INT NOT NULL,
	price_per_bed_cents BIGINT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_room_number (hostel_id, room_number),
	CONSTRAINT fk_rooms_hostel FOREIGN KEY (hostel_id) REFERENCES hostels(id),
	CONSTRAINT chk_rooms_beds CHECK (available_beds >= 0 AND available_beds <= total_beds AND total_beds > 0),
	CONSTRAINT chk_rooms_price CHECK (price_per_bed_cents >= 0)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	`CREATE TABLE IF NOT EXISTS reservations (
	id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	hostel_id BIGINT UNSIGNED NOT NULL,
	room_id BIGINT UNSIGNED NOT NULL,
	user_id BIGINT UNSIGNED NOT NULL,
	seats_booked INT NOT NULL,
	check_in_date DATE NOT NULL,
	check_out_date DATE NOT NULL,
	status ENUM('pending','completed','cancelled','discarded') NOT NULL DEFAULT 'pending',
	payment_ref VARCHAR(255) NOT NULL,
	amount_cents BIGINT NOT NULL,
	currency VARCHAR(8) NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_payment_ref (payment_ref),
	KEY idx_res_user (user_id, created_at),
	KEY idx_res_room_status (room_id, status, created_at),
	CONSTRAINT fk_res_room FOREIGN KEY (room_id) REFERENCES rooms(id),
	CONSTRAINT chk_res_seats CHECK (seats_booked > 0)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
}

// Migrate applies the schema.  Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
