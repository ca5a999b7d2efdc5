package services

import (
	"fmt"
	"net/http"
	"time"

	"nipeihu_platform/platform/auth"
	"nipeihu_platform/platform/payroll"
	"nipeihu_platform/utils"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

// PayrollService computes and exports payment reports. Everything here is
// admin only.
type PayrollService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
}

func (s *PayrollService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.AdminOnly(s.db))

		r.Get("/report", s.Report)
		r.Get("/report/xlsx", s.ExportReport)
	})

	return r
}

// reportPeriod reads the period from the query string: either explicit
// start/end dates or nothing, which means the current month.
func reportPeriod(r *http.Request) (payroll.Period, error) {
	startParam := r.URL.Query().Get("start")
	endParam := r.URL.Query().Get("end")

	if startParam == "" && endParam == "" {
		now := time.Now().UTC()
		return payroll.MonthPeriod(now.Year(), now.Month()), nil
	}

	start, err := utils.QueryParamDate(r, "start")
	if err != nil {
		return payroll.Period{}, err
	}
	end, err := utils.QueryParamDate(r, "end")
	if err != nil {
		return payroll.Period{}, err
	}
	if !start.Before(end) {
		return payroll.Period{}, fmt.Errorf("start date must come before end date")
	}

	return payroll.Period{Start: start, End: end}, nil
}

func (s *PayrollService) Report(w http.ResponseWriter, r *http.Request) {
	period, err := reportPeriod(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := payroll.BuildReport(s.db, period)
	if err != nil {
		http.Error(w, err.Error(), recordErrorCode(err))
		return
	}

	utils.WriteJsonResponse(w, report)
}

func (s *PayrollService) ExportReport(w http.ResponseWriter, r *http.Request) {
	period, err := reportPeriod(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := payroll.BuildReport(s.db, period)
	if err != nil {
		http.Error(w, err.Error(), recordErrorCode(err))
		return
	}

	buf, filename, err := payroll.ExportXlsx(report)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := buf.WriteTo(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
