package payroll

import (
	"testing"
	"time"

	"nipeihu_platform/platform/schema"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func producedLog(userId uuid.UUID, qty int, unitCost string, at time.Time) schema.ProductionLog {
	return schema.ProductionLog{
		Id:            uuid.New(),
		ProductId:     uuid.New(),
		UserId:        userId,
		Action:        schema.ActionProduced,
		Quantity:      qty,
		UnitLaborCost: dec(unitCost),
		CreatedAt:     at,
	}
}

func TestComputeMixedWorker(t *testing.T) {
	userId := uuid.New()
	period := MonthPeriod(2026, time.March)
	workers := []Worker{{
		UserId: userId,
		Name:   "maria",
		Settings: schema.WorkerSettings{
			UserId:      userId,
			PaymentType: schema.PaymentMixed,
			FixedSalary: dec("1000"),
			Active:      true,
		},
	}}
	logs := []schema.ProductionLog{
		producedLog(userId, 10, "5", period.Start.Add(24*time.Hour)),
		producedLog(userId, 20, "4", period.Start.Add(48*time.Hour)),
	}

	report := Compute(workers, logs, period)
	if len(report.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(report.Entries))
	}
	entry := report.Entries[0]
	if entry.Units != 30 {
		t.Fatalf("expected 30 units, got %d", entry.Units)
	}
	if !entry.Total.Equal(dec("1130")) {
		t.Fatalf("expected total 1130, got %v", entry.Total)
	}
	if !report.Total.Equal(dec("1130")) {
		t.Fatalf("expected report total 1130, got %v", report.Total)
	}
}

func TestComputeUsesCostRecordedOnLog(t *testing.T) {
	userId := uuid.New()
	period := MonthPeriod(2026, time.March)
	workers := []Worker{{
		UserId: userId,
		Name:   "maria",
		Settings: schema.WorkerSettings{
			UserId:      userId,
			PaymentType: schema.PaymentProduction,
			// current rate differs from what the logs recorded
			ProductionRate: dec("99"),
			Active:         true,
		},
	}}
	logs := []schema.ProductionLog{
		producedLog(userId, 4, "2.50", period.Start.Add(time.Hour)),
	}

	report := Compute(workers, logs, period)
	if !report.Entries[0].Total.Equal(dec("10")) {
		t.Fatalf("expected 4 x 2.50 = 10, got %v", report.Entries[0].Total)
	}
}

func TestComputeZeroProductionWorkerIncluded(t *testing.T) {
	fixedId, prodId := uuid.New(), uuid.New()
	period := MonthPeriod(2026, time.March)
	workers := []Worker{
		{UserId: prodId, Name: "zeca", Settings: schema.WorkerSettings{
			UserId: prodId, PaymentType: schema.PaymentProduction, ProductionRate: dec("5"), Active: true,
		}},
		{UserId: fixedId, Name: "ana", Settings: schema.WorkerSettings{
			UserId: fixedId, PaymentType: schema.PaymentFixed, FixedSalary: dec("800"), Active: true,
		}},
	}

	report := Compute(workers, nil, period)
	if len(report.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(report.Entries))
	}
	// ordered by name
	if report.Entries[0].Name != "ana" || report.Entries[1].Name != "zeca" {
		t.Fatalf("unexpected order: %v, %v", report.Entries[0].Name, report.Entries[1].Name)
	}
	if !report.Entries[0].Total.Equal(dec("800")) {
		t.Fatalf("fixed worker should earn salary, got %v", report.Entries[0].Total)
	}
	if !report.Entries[1].Total.Equal(dec("0")) {
		t.Fatalf("idle production worker should earn 0, got %v", report.Entries[1].Total)
	}
}

func TestComputeIgnoresLogsOutsidePeriod(t *testing.T) {
	userId := uuid.New()
	period := MonthPeriod(2026, time.March)
	workers := []Worker{{UserId: userId, Name: "maria", Settings: schema.WorkerSettings{
		UserId: userId, PaymentType: schema.PaymentProduction, Active: true,
	}}}
	logs := []schema.ProductionLog{
		producedLog(userId, 5, "2", period.Start.Add(-time.Hour)),
		producedLog(userId, 5, "2", period.End),
		producedLog(userId, 5, "2", period.Start),
		{Id: uuid.New(), UserId: userId, Action: schema.ActionSent, Quantity: 5, UnitLaborCost: dec("2"), CreatedAt: period.Start},
	}

	report := Compute(workers, logs, period)
	if report.Entries[0].Units != 5 {
		t.Fatalf("only the in-period produced log should count, got %d units", report.Entries[0].Units)
	}
	if !report.Entries[0].Total.Equal(dec("10")) {
		t.Fatalf("expected 10, got %v", report.Entries[0].Total)
	}
}

func TestComputeSkipsInactiveWorkers(t *testing.T) {
	userId := uuid.New()
	period := MonthPeriod(2026, time.March)
	workers := []Worker{{UserId: userId, Name: "maria", Settings: schema.WorkerSettings{
		UserId: userId, PaymentType: schema.PaymentFixed, FixedSalary: dec("800"), Active: false,
	}}}

	report := Compute(workers, nil, period)
	if len(report.Entries) != 0 {
		t.Fatalf("inactive workers must not appear, got %d entries", len(report.Entries))
	}
}

func TestExportXlsx(t *testing.T) {
	userId := uuid.New()
	period := MonthPeriod(2026, time.March)
	workers := []Worker{{UserId: userId, Name: "maria", Settings: schema.WorkerSettings{
		UserId: userId, PaymentType: schema.PaymentFixed, FixedSalary: dec("800"), Active: true,
	}}}

	report := Compute(workers, nil, period)
	buf, filename, err := ExportXlsx(report)
	if err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected non-empty spreadsheet")
	}
	if filename != "folha_2026_03.xlsx" {
		t.Fatalf("unexpected filename %v", filename)
	}
}
