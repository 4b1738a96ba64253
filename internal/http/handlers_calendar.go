package http

import (
	"net/http"
	"sync/atomic"

	"paycal/internal/cache"
	"paycal/internal/calendar"
	"paycal/internal/log"
	"paycal/internal/services"
)

// defaultUpcomingDays is the window of /api/payments/upcoming without ?days.
const defaultUpcomingDays = 7

// handleCalendar serves the 42-day grid for ?kind=&year=&month=, cached per
// (kind, year, month, today) until the next mutation or TTL expiry.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter, err := services.ParseKindFilter(query.Get("kind"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	period, err := ParseMonthParams(query, s.payments.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := calendar.ValidatePeriod(period.Year, period.Month); err != nil {
		writeError(w, r, err)
		return
	}

	key := cache.ViewKey("calendar", string(filter), period.Year, period.Month, s.payments.Now())
	if cached, ok := s.calendarCache.Get(key); ok {
		s.recordCache(true)
		NewJSONResponse().Header("X-Cache", "HIT").Data(cached).Write(w)
		return
	}
	s.recordCache(false)

	days, err := s.payments.Calendar(r.Context(), filter, period.Year, period.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := calendarResponse{
		Year:  period.Year,
		Month: int(period.Month),
		Kind:  string(filter),
		Days:  newCalendarViews(days),
	}
	s.calendarCache.Set(key, resp)
	NewJSONResponse().Header("X-Cache", "MISS").Data(resp).Write(w)
}

// handlePayments lists the payments of a month most urgent first, one page at a time.
func (s *Server) handlePayments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter, err := services.ParseKindFilter(query.Get("kind"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	period, err := ParseMonthParams(query, s.payments.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := ParseIntParam(query, "page", 1)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pageSize, err := ParseIntParam(query, "pageSize", DefaultPageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}

	annotated, err := s.payments.Annotated(r.Context(), filter, period.Year, period.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p := Paginate(len(annotated), page, pageSize)
	start, end := p.Bounds()
	NewJSONResponse().Data(paymentsPage{
		Items:      newPaymentViews(annotated[start:end]),
		Pagination: p,
	}).Write(w)
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	days, err := ParseIntParam(r.URL.Query(), "days", defaultUpcomingDays)
	if err != nil {
		writeError(w, r, err)
		return
	}
	upcoming, err := s.payments.Upcoming(r.Context(), days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(map[string]any{
		"days":     days,
		"count":    len(upcoming),
		"payments": newPaymentViews(upcoming),
	}).Write(w)
}

func (s *Server) handleOverdue(w http.ResponseWriter, r *http.Request) {
	summary, err := s.payments.Overdue(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(summary).Write(w)
}

// handleExport appends the schedule of ?year=&month= to the configured exporter.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		ErrorResponse(http.StatusServiceUnavailable, "schedule export is not configured").Write(w)
		return
	}
	period, err := ParseMonthParams(r.URL.Query(), s.payments.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	ref, rows, err := s.payments.ExportMonth(r.Context(), s.exporter, period.Year, period.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.exports, 1)
	fields := log.NewFields().WithPeriod(period.Year, int(period.Month)).WithOperation(log.OpExport)
	fields[log.FieldCount] = rows
	log.FromContext(r.Context()).WithComponent(log.ComponentSheets).InfoContext(r.Context(), "Schedule export requested", fields.ToSlice()...)
	NewJSONResponse().Data(exportResponse{Ref: ref, Rows: rows}).Write(w)
}
