package database

import (
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestDSN(t *testing.T) {
	dsn := DSN("app", "s3cret", "db.local", "3306", "restaurant")

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("ParseDSN(%q): %v", dsn, err)
	}
	if cfg.User != "app" || cfg.Passwd != "s3cret" {
		t.Errorf("credentials = %q/%q", cfg.User, cfg.Passwd)
	}
	if cfg.Addr != "db.local:3306" {
		t.Errorf("Addr = %q, want db.local:3306", cfg.Addr)
	}
	if cfg.DBName != "restaurant" {
		t.Errorf("DBName = %q", cfg.DBName)
	}
	if !cfg.ParseTime {
		t.Error("parseTime not set")
	}
	if !cfg.ClientFoundRows {
		t.Error("clientFoundRows not set")
	}
}

func TestSchemaDeclaresSlotKey(t *testing.T) {
	var found bool
	for _, stmt := range schema {
		if strings.Contains(stmt, "UNIQUE KEY uk_reservations_slot (table_id, date, time)") {
			found = true
		}
	}
	if !found {
		t.Fatal("reservations table must declare the slot unique key")
	}
}
