package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/log"
	"finanzas/internal/services"
)

// User-facing feedback messages.
const (
	msgSaved           = "Guardado correctamente!"
	msgSettingsSaved   = "Configuración actualizada"
	msgNoData          = "No hay datos para mostrar aún."
	msgInvalidAmount   = "Pon un importe válido"
	msgInvalidDate     = "Fecha no válida"
	msgInvalidKind     = "Tipo de movimiento no válido"
	msgEmptyCategory   = "Elige una categoría"
	msgInvalidMonth    = "Mes no válido"
	msgBadRequest      = "Formato de petición no válido"
	msgInternal        = "Error interno, inténtalo de nuevo"
	msgRecurringFormat = "Gastos fijos añadidos: %d"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks the storage backend with a bounded timeout.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready == nil {
		NewJSONResponse().Data(map[string]any{"status": "ready"}).Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.ready(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		NewJSONResponse().
			Status(http.StatusServiceUnavailable).
			Data(map[string]any{"status": "not_ready", "error": err.Error()}).
			Write(w)
		return
	}
	NewJSONResponse().Data(map[string]any{"status": "ready"}).Write(w)
}

func (s *Server) handleTaxonomy(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(newTaxonomyView(core.DefaultTaxonomy())).Write(w)
}

func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	opts, err := s.svc.Dashboard.Months(r.Context())
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Data(newMonthOptionViews(opts)).Write(w)
}

// handleDashboard shows the latest month, or the empty state for an empty ledger.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.writeMonth(w, r, "")
}

// handleMonth shows one month. Keys absent from the ledger get the all-zero
// view of that month.
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	key, err := ParseMonthPath(r)
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	s.writeMonth(w, r, key)
}

func (s *Server) writeMonth(w http.ResponseWriter, r *http.Request, key core.MonthKey) {
	v, err := s.svc.Dashboard.Month(r.Context(), key)
	if errors.Is(err, services.ErrEmptyLedger) {
		NewJSONResponse().Data(emptyMonthView(v.Skipped)).Write(w)
		return
	}
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Data(newMonthView(v)).Write(w)
}

func (s *Server) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	limit, err := ParseLimit(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	ts, err := s.svc.Transactions.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, log.OpList, err)
		return
	}
	NewJSONResponse().Data(newTransactionViews(ts)).Write(w)
}

func (s *Server) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRecordRequest(w, r)
	if err != nil {
		s.writeError(w, r, log.OpRecord, err)
		return
	}
	t, err := s.svc.Transactions.Record(r.Context(), req)
	if err != nil {
		s.writeError(w, r, log.OpRecord, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Message(msgSaved, newTransactionView(t)).
		Write(w)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.svc.Settings.Load(r.Context())
	if err != nil {
		s.writeError(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Data(newSettingsView(settings)).Write(w)
}

// handleSaveSettings replaces the whole document. Out-of-range values are
// saved and echoed back as warnings.
func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var body settingsView
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, r, log.OpSave, err)
		return
	}
	settings := body.Settings()
	if err := s.svc.Settings.Save(r.Context(), settings); err != nil {
		s.writeError(w, r, log.OpSave, err)
		return
	}
	NewJSONResponse().Message(msgSettingsSaved, newSettingsView(settings)).Write(w)
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Recurring.Reconcile(r.Context(), s.now())
	if err != nil {
		s.writeError(w, r, log.OpReconcile, err)
		return
	}
	NewJSONResponse().
		Message(formatAdded(len(res.Added)), newReconcileView(res)).
		Write(w)
}

// writeError maps domain errors to a status and a user-facing message.
// Anything unrecognized is logged and reported as 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var resp *JSONResponseBuilder
	switch {
	case errors.Is(err, errBadBody):
		resp = BadRequestError(msgBadRequest)
	case errors.Is(err, core.ErrInvalidAmount):
		resp = BadRequestError(msgInvalidAmount)
	case errors.Is(err, core.ErrInvalidDate):
		resp = BadRequestError(msgInvalidDate)
	case errors.Is(err, core.ErrInvalidKind):
		resp = BadRequestError(msgInvalidKind)
	case errors.Is(err, core.ErrEmptyCategory):
		resp = BadRequestError(msgEmptyCategory)
	case errors.Is(err, core.ErrUnknownCategory), errors.Is(err, core.ErrUnknownSubcategory):
		resp = BadRequestError(err.Error())
	case errors.Is(err, core.ErrInvalidMonth):
		resp = BadRequestError(msgInvalidMonth)
	default:
		fields := log.NewFields().
			WithOperation(op).
			WithError(err, log.ErrorTypeInternal)
		log.FromContext(r.Context()).LogFields(r.Context(), slog.LevelError, "Request failed", fields)
		InternalServerError(msgInternal).Write(w)
		return
	}

	fields := log.NewFields().
		WithOperation(op).
		WithError(err, log.ErrorTypeValidation)
	log.FromContext(r.Context()).LogFields(r.Context(), slog.LevelDebug, "Request rejected", fields)
	resp.Write(w)
}

func formatAdded(n int) string {
	return fmt.Sprintf(msgRecurringFormat, n)
}
