package tests

import (
	"fmt"
	"testing"
	"time"
)

func reportUrl(start, end time.Time) string {
	return fmt.Sprintf("/payroll/report?start=%v&end=%v",
		start.Format("2006-01-02"), end.Format("2006-01-02"))
}

func TestPayrollReportOverHttp(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	worker, err := env.newUser("maria")
	if err != nil {
		t.Fatal(err)
	}

	productId, err := admin.createProduct("Cesto", 0, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := admin.setWorkerSettings(worker.userId, map[string]interface{}{
		"payment_type": "mixed", "fixed_salary": "1000",
		"production_rate": "2.50", "active": true,
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := worker.logAction(map[string]interface{}{
		"product_id": productId, "action": "produced", "quantity": 4,
	}); err != nil {
		t.Fatal(err)
	}
	// sent actions move stock but never count as paid production
	if _, err := worker.logAction(map[string]interface{}{
		"product_id": productId, "action": "sent", "quantity": 3,
	}); err != nil {
		t.Fatal(err)
	}

	// raising the rate must not rewrite pay for work already logged
	if err := admin.setWorkerSettings(worker.userId, map[string]interface{}{
		"payment_type": "mixed", "fixed_salary": "1000",
		"production_rate": "99", "active": true,
	}); err != nil {
		t.Fatal(err)
	}

	start := time.Now().UTC().AddDate(0, 0, -1)
	end := time.Now().UTC().AddDate(0, 0, 1)

	var report map[string]interface{}
	if err := admin.Get(reportUrl(start, end)).Do(&report); err != nil {
		t.Fatal(err)
	}

	entries := report["entries"].([]interface{})
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0].(map[string]interface{})
	if entry["name"] != "maria" || entry["payment_type"] != "mixed" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if entry["units"].(float64) != 4 {
		t.Fatalf("expected 4 units, got %v", entry["units"])
	}
	if entry["total"] != "1010" {
		t.Fatalf("expected total 1010, got %v", entry["total"])
	}
	if report["total"] != "1010" {
		t.Fatalf("expected report total 1010, got %v", report["total"])
	}
}

func TestPayrollReportEmptyPeriod(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	worker, err := env.newUser("zeca")
	if err != nil {
		t.Fatal(err)
	}

	if err := admin.setWorkerSettings(worker.userId, map[string]interface{}{
		"payment_type": "fixed", "fixed_salary": "800", "active": true,
	}); err != nil {
		t.Fatal(err)
	}

	// a window with no production still lists the worker with the fixed part
	start := time.Now().UTC().AddDate(0, 0, -1)
	end := time.Now().UTC().AddDate(0, 0, 1)

	var report map[string]interface{}
	if err := admin.Get(reportUrl(start, end)).Do(&report); err != nil {
		t.Fatal(err)
	}

	entries := report["entries"].([]interface{})
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	entry := entries[0].(map[string]interface{})
	if entry["total"] != "800" {
		t.Fatalf("expected total 800, got %v", entry["total"])
	}
}

func TestPayrollReportRejectsBadPeriod(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 1, 0)

	err = admin.Get(reportUrl(start, end)).Do(nil)
	if err == nil {
		t.Fatal("expected error for inverted period")
	}
}

func TestPayrollExportXlsx(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	worker, err := env.newUser("maria")
	if err != nil {
		t.Fatal(err)
	}

	if err := admin.setWorkerSettings(worker.userId, map[string]interface{}{
		"payment_type": "fixed", "fixed_salary": "500", "active": true,
	}); err != nil {
		t.Fatal(err)
	}

	if err := admin.Get("/payroll/report/xlsx").Do(nil); err != nil {
		t.Fatal(err)
	}
}
