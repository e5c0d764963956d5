package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/dispensary-pos/api/responses"
	"github.com/angelmondragon/dispensary-pos/api/validators"
	"github.com/angelmondragon/dispensary-pos/internal/reports"
	"github.com/angelmondragon/dispensary-pos/pkg/logger"
)

const defaultReportWindow = 30 * 24 * time.Hour

// reportRange reads ?from&to; to defaults to now and from to thirty days earlier.
func reportRange(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	from, err := validators.ParseQueryTime(r, "from")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := validators.ParseQueryTime(r, "to")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end := now.UTC()
	if to != nil {
		end = to.UTC()
	}
	start := end.Add(-defaultReportWindow)
	if from != nil {
		start = from.UTC()
	}
	return start, end, nil
}

func ReportSales(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("reports"))
			return
		}
		from, to, err := reportRange(r, time.Now())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Summary(r.Context(), from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// ReportNarrative returns generated prose about the sales summary.
func ReportNarrative(svc reports.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("reports"))
			return
		}
		from, to, err := reportRange(r, time.Now())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		narrative, err := svc.Narrative(r.Context(), from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, narrative)
	}
}
