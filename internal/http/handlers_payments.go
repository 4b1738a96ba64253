package http

import (
	"net/http"
	"sync/atomic"

	"paycal/internal/calendar"
	"paycal/internal/core"
)

func (s *Server) handleListFixed(w http.ResponseWriter, r *http.Request) {
	ps, err := s.payments.ListFixedPayments(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]fixedPaymentView, 0, len(ps))
	for _, p := range ps {
		views = append(views, newFixedPaymentView(p))
	}
	NewJSONResponse().Data(views).Write(w)
}

func (s *Server) handleCreateFixed(w http.ResponseWriter, r *http.Request) {
	var req fixedPaymentRequest
	if err := DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.payments.CreateFixedPayment(r.Context(), req.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.paymentsCreated, 1)
	s.invalidateViews()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/fixed-payments/"+itoa(p.ID)).
		Data(newFixedPaymentView(p)).
		Write(w)
}

func (s *Server) handleGetFixed(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.payments.GetFixedPayment(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(newFixedPaymentView(p)).Write(w)
}

func (s *Server) handleUpdateFixed(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req fixedPaymentRequest
	if err := DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.payments.UpdateFixedPayment(r.Context(), id, req.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateViews()
	NewJSONResponse().Data(newFixedPaymentView(p)).Write(w)
}

// handleFixedTotal reports what the active fixed payments cost per month.
func (s *Server) handleFixedTotal(w http.ResponseWriter, r *http.Request) {
	total, err := s.payments.FixedMonthlyTotal(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(fixedTotalView{TotalAmount: total.TotalAmount, Count: total.Count}).Write(w)
}

func (s *Server) handleDeleteFixed(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.payments.DeleteFixedPayment(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateViews()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// handleMarkFixedPaid records (year, month) as paid; both default to the current month.
func (s *Server) handleMarkFixedPaid(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	period, err := ParseMonthParams(r.URL.Query(), s.payments.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := calendar.ValidatePeriod(period.Year, period.Month); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.payments.MarkFixedPaid(r.Context(), id, period.Year, period.Month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateViews()
	NewJSONResponse().Data(newFixedPaymentView(p)).Write(w)
}

func (s *Server) handleListInstallments(w http.ResponseWriter, r *http.Request) {
	ps, err := s.payments.ListInstallmentPayments(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]installmentPaymentView, 0, len(ps))
	for _, p := range ps {
		views = append(views, newInstallmentPaymentView(p))
	}
	NewJSONResponse().Data(views).Write(w)
}

func (s *Server) handleCreateInstallment(w http.ResponseWriter, r *http.Request) {
	var req installmentPaymentRequest
	if err := DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.payments.CreateInstallmentPayment(r.Context(), req.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.paymentsCreated, 1)
	s.invalidateViews()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/installment-payments/"+itoa(p.ID)).
		Data(newInstallmentPaymentView(p)).
		Write(w)
}

func (s *Server) handleGetInstallment(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.payments.GetInstallmentPayment(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(newInstallmentPaymentView(p)).Write(w)
}

// handleUpdateInstallment edits a plan. paidInstallments in the body is
// ignored; progress only moves through the payment endpoint.
func (s *Server) handleUpdateInstallment(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req installmentPaymentRequest
	if err := DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.payments.UpdateInstallmentPayment(r.Context(), id, req.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateViews()
	NewJSONResponse().Data(newInstallmentPaymentView(p)).Write(w)
}

func (s *Server) handleInstallmentHistory(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	records, err := s.payments.InstallmentHistory(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(newInstallmentRecordViews(records)).Write(w)
}

func (s *Server) handleInstallmentSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.payments.InstallmentSummary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(newInstallmentSummaryView(sum)).Write(w)
}

func (s *Server) handleDeleteInstallment(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.payments.DeleteInstallmentPayment(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateViews()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleRecordInstallment(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.payments.RecordInstallmentPayment(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateViews()
	NewJSONResponse().Data(newInstallmentPaymentView(p)).Write(w)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	kind, err := core.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	cats, err := s.payments.Categories(r.Context(), kind)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if cats == nil {
		cats = []string{}
	}
	NewJSONResponse().
		Header("Cache-Control", "private, max-age=60").
		Data(cats).
		Write(w)
}
