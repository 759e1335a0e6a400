package db

import (
	"fmt"

	"gorm.io/gorm"
)

// ChangeChannel is the LISTEN/NOTIFY channel carrying complaint row changes.
const ChangeChannel = "complaint_changes"

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'complaint_status') THEN
			CREATE TYPE complaint_status AS ENUM ('New', 'In Progress', 'In Review', 'Resolved', 'Denied');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'complaint_category') THEN
			CREATE TYPE complaint_category AS ENUM ('Pothole', 'Graffiti', 'Trash', 'Broken Streetlight', 'Other');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'complaint_department') THEN
			CREATE TYPE complaint_department AS ENUM ('Public Works', 'Sanitation', 'Community Services', 'General Administration');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS complaints (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		complaint_number BIGINT GENERATED ALWAYS AS IDENTITY UNIQUE,
		issue TEXT NOT NULL,
		location_description TEXT NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		category complaint_category,
		department complaint_department,
		status complaint_status NOT NULL DEFAULT 'New',
		image_url TEXT NOT NULL,
		resolution_image_url TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		resolved_at TIMESTAMPTZ,
		CONSTRAINT complaints_resolution_consistent CHECK (
			(status = 'Resolved' AND resolution_image_url IS NOT NULL AND resolved_at IS NOT NULL)
			OR (status <> 'Resolved' AND resolution_image_url IS NULL AND resolved_at IS NULL)
		)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_created_at ON complaints (created_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_status ON complaints (status);`,
	`CREATE INDEX IF NOT EXISTS idx_complaints_category ON complaints (category);`,
	`CREATE OR REPLACE FUNCTION complaints_image_url_immutable()
	RETURNS TRIGGER AS $$
	BEGIN
		IF NEW.image_url IS DISTINCT FROM OLD.image_url THEN
			RAISE EXCEPTION 'image_url is immutable';
		END IF;
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;`,
	`CREATE OR REPLACE FUNCTION complaints_no_delete()
	RETURNS TRIGGER AS $$
	BEGIN
		RAISE EXCEPTION 'complaints are never deleted';
	END;
	$$ LANGUAGE plpgsql;`,
	`CREATE TABLE IF NOT EXISTS complaint_status_log (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		complaint_id UUID NOT NULL REFERENCES complaints(id),
		old_status complaint_status,
		new_status complaint_status NOT NULL,
		note TEXT,
		changed_by UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_complaint_status_log_complaint_id ON complaint_status_log (complaint_id);`,
	`CREATE TABLE IF NOT EXISTS employees (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) NOT NULL,
		full_name VARCHAR(255) NOT NULL,
		password_hash TEXT NOT NULL,
		role VARCHAR(32) NOT NULL DEFAULT 'EMPLOYEE',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_employees_email ON employees (email);`,
	`CREATE OR REPLACE FUNCTION notify_complaint_change()
	RETURNS TRIGGER AS $$
	BEGIN
		PERFORM pg_notify('` + ChangeChannel + `', json_build_object('type', TG_OP, 'id', NEW.id)::text);
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_complaints_image_url_immutable') THEN
			CREATE TRIGGER trg_complaints_image_url_immutable
				BEFORE UPDATE OF image_url ON complaints
				FOR EACH ROW
				EXECUTE PROCEDURE complaints_image_url_immutable();
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_complaints_no_delete') THEN
			CREATE TRIGGER trg_complaints_no_delete
				BEFORE DELETE ON complaints
				FOR EACH ROW
				EXECUTE PROCEDURE complaints_no_delete();
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_complaints_notify') THEN
			CREATE TRIGGER trg_complaints_notify
				AFTER INSERT OR UPDATE ON complaints
				FOR EACH ROW
				EXECUTE PROCEDURE notify_complaint_change();
		END IF;
	END
	$$;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
