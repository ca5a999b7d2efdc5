package payroll

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"nipeihu_platform/platform/schema"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Period struct {
	Start time.Time
	End   time.Time
}

func MonthPeriod(year int, month time.Month) Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}
}

func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Worker pairs a user's payment configuration with their display name for
// report ordering.
type Worker struct {
	UserId   uuid.UUID
	Name     string
	Settings schema.WorkerSettings
}

type Entry struct {
	UserId      uuid.UUID       `json:"user_id"`
	Name        string          `json:"name"`
	PaymentType string          `json:"payment_type"`
	Units       int             `json:"units"`
	FixedPay    decimal.Decimal `json:"fixed_pay"`
	UnitPay     decimal.Decimal `json:"unit_pay"`
	Total       decimal.Decimal `json:"total"`
}

type Report struct {
	Start   time.Time       `json:"start"`
	End     time.Time       `json:"end"`
	Entries []Entry         `json:"entries"`
	Total   decimal.Decimal `json:"total"`
}

// Compute builds the payroll report for a period. Unit pay multiplies each
// produced quantity by the labor cost recorded on the log itself, so a later
// rate change never rewrites history. Every active worker gets an entry even
// without production in the period. The result is deterministic, ordered by
// worker name.
func Compute(workers []Worker, logs []schema.ProductionLog, period Period) Report {
	type accum struct {
		units int
		pay   decimal.Decimal
	}
	produced := map[uuid.UUID]accum{}
	for _, log := range logs {
		if log.Action != schema.ActionProduced || !period.Contains(log.CreatedAt) {
			continue
		}
		acc := produced[log.UserId]
		acc.units += log.Quantity
		acc.pay = acc.pay.Add(log.UnitLaborCost.Mul(decimal.NewFromInt(int64(log.Quantity))))
		produced[log.UserId] = acc
	}

	report := Report{Start: period.Start, End: period.End, Entries: make([]Entry, 0, len(workers))}
	for _, worker := range workers {
		if !worker.Settings.Active {
			continue
		}

		entry := Entry{
			UserId:      worker.UserId,
			Name:        worker.Name,
			PaymentType: worker.Settings.PaymentType,
		}

		acc := produced[worker.UserId]
		switch worker.Settings.PaymentType {
		case schema.PaymentFixed:
			entry.FixedPay = worker.Settings.FixedSalary
		case schema.PaymentProduction:
			entry.Units = acc.units
			entry.UnitPay = acc.pay
		case schema.PaymentMixed:
			entry.FixedPay = worker.Settings.FixedSalary
			entry.Units = acc.units
			entry.UnitPay = acc.pay
		}
		entry.Total = entry.FixedPay.Add(entry.UnitPay)

		report.Entries = append(report.Entries, entry)
		report.Total = report.Total.Add(entry.Total)
	}

	sort.Slice(report.Entries, func(i, j int) bool {
		if report.Entries[i].Name != report.Entries[j].Name {
			return report.Entries[i].Name < report.Entries[j].Name
		}
		return report.Entries[i].UserId.String() < report.Entries[j].UserId.String()
	})

	return report
}

// BuildReport loads the active workers and the period's production logs and
// computes the report.
func BuildReport(db *gorm.DB, period Period) (Report, error) {
	var settings []schema.WorkerSettings
	if err := db.Where("active = ?", true).Find(&settings).Error; err != nil {
		slog.Error("sql error listing worker settings", "error", err)
		return Report{}, schema.ErrDbAccessFailed
	}

	workers := make([]Worker, 0, len(settings))
	for _, s := range settings {
		user, err := schema.GetUser(s.UserId, db)
		if err != nil {
			return Report{}, fmt.Errorf("error loading worker %v: %w", s.UserId, err)
		}
		workers = append(workers, Worker{UserId: s.UserId, Name: user.Username, Settings: s})
	}

	var logs []schema.ProductionLog
	err := db.
		Where("action = ? AND created_at >= ? AND created_at < ?", schema.ActionProduced, period.Start, period.End).
		Find(&logs).Error
	if err != nil {
		slog.Error("sql error listing production logs", "error", err)
		return Report{}, schema.ErrDbAccessFailed
	}

	return Compute(workers, logs, period), nil
}
