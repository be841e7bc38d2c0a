package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/diewo77/haulage/httpx"
	"github.com/diewo77/haulage/i18n"
	"github.com/diewo77/haulage/internal/api"
	"github.com/diewo77/haulage/internal/notify"
	"github.com/diewo77/haulage/internal/services"
	"github.com/diewo77/haulage/internal/settlement"
	"github.com/diewo77/haulage/pdf"
	"github.com/diewo77/haulage/validation"
)

// StatementMailer sends a rendered statement as an attachment.
type StatementMailer interface {
	SendStatement(ctx context.Context, to, subject, body, filename string, pdf []byte) error
}

// CalculationHandler serves settlement previews and saved calculations.
// Derived values are always recomputed from the referenced trips; the ones a
// client sends are ignored.
type CalculationHandler struct {
	Trips   *services.TripService
	Calcs   *services.CalculationService
	Dir     *services.DirectoryService
	Mailer  StatementMailer // nil disables email
	Company string
}

func validateSettlement(req api.SettlementRequest) validation.Violations {
	v := validation.Violations{}
	if len(req.TripIDs) == 0 {
		v.Add("tripIds", "required")
	}
	validation.UniqueIDs("tripIds", req.TripIDs, v)
	switch {
	case req.DriverID == nil && req.FleetOwnerID == nil:
		v.Add("driverId", "required")
	case req.DriverID != nil && req.FleetOwnerID != nil:
		v.Add("fleetOwnerId", "invalid_value")
	}
	validation.NonNegative("oldKm", req.OldKm, v)
	validation.Greater("newKm", req.NewKm, req.OldKm, v)
	validation.NonNegative("perKmRate", req.PerKmRate, v)
	return v
}

func (h *CalculationHandler) settle(ctx context.Context, req api.SettlementRequest) (services.Settled, error) {
	if v := validateSettlement(req); !v.Empty() {
		return services.Settled{}, violationsError(v)
	}
	return h.Trips.Settle(ctx, req)
}

// Preview computes a settlement and its statement tables without saving.
func (h *CalculationHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req api.SettlementRequest
	if !decode(w, r, &req) {
		return
	}
	settled, err := h.settle(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, api.NewPreview(api.NewPayload(req, settled.Result), settled.Statement))
}

func (h *CalculationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p api.CalculationPayload
	if !decode(w, r, &p) {
		return
	}
	h.save(w, r, "", p)
}

// Update accepts a full calculation record as returned by Get. Its id and
// timestamps are ignored; the path names the record.
func (h *CalculationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, services.ErrMissingID)
		return
	}
	var c api.Calculation
	if !decode(w, r, &c) {
		return
	}
	h.save(w, r, id, c.CalculationPayload)
}

func (h *CalculationHandler) save(w http.ResponseWriter, r *http.Request, existingID string, p api.CalculationPayload) {
	settled, err := h.settle(r.Context(), p.SettlementRequest)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := h.Calcs.SaveOrUpdate(r.Context(), services.SaveRequest{
		Party:      settled.Party,
		Result:     settled.Result,
		TripIDs:    p.TripIDs,
		IsEdit:     existingID != "",
		ExistingID: existingID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusCreated
	if existingID != "" {
		status = http.StatusOK
	}
	httpx.JSON(w, status, out)
}

func (h *CalculationHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Calcs.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *CalculationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Calcs.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CalculationHandler) ForDriver(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	calcs, err := h.Calcs.ListForDriver(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, api.List[api.Calculation]{Items: nonNil(calcs)})
}

func (h *CalculationHandler) ForFleetOwner(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	calcs, err := h.Calcs.ListForFleetOwner(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, api.List[api.Calculation]{Items: nonNil(calcs)})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// document rebuilds the printable statement of a saved calculation from its
// stored result and the current trip ledgers. It also returns the party's
// email address when one is on file.
func (h *CalculationHandler) document(ctx context.Context, c api.Calculation) (pdf.StatementDocument, string, error) {
	stored, err := h.Trips.TripsByIDs(ctx, c.TripIDs)
	if err != nil {
		return pdf.StatementDocument{}, "", err
	}
	trips := make([]settlement.Trip, 0, len(stored))
	for _, t := range stored {
		trips = append(trips, api.FromTrip(t).Settlement())
	}
	var partyName, email string
	switch {
	case c.Ownership == string(settlement.OwnershipFleet) && c.FleetOwnerID != nil:
		f, err := h.Dir.FleetOwner(ctx, *c.FleetOwnerID)
		if err != nil && !errors.Is(err, services.ErrNotFound) {
			return pdf.StatementDocument{}, "", err
		}
		partyName, email = f.Name, f.Email
	case c.DriverID != nil:
		d, err := h.Dir.Driver(ctx, *c.DriverID)
		if err != nil && !errors.Is(err, services.ErrNotFound) {
			return pdf.StatementDocument{}, "", err
		}
		partyName = d.Name
	}
	result := c.Result()
	return pdf.StatementDocument{
		Company:       h.Company,
		PartyName:     partyName,
		CalculationID: c.ID,
		Date:          c.CreatedAt,
		Lang:          i18n.LangFrom(ctx),
		Statement:     settlement.BuildStatement(trips, result),
		LedgerChanged: settlement.LedgerChanged(trips, result),
	}, email, nil
}

func (h *CalculationHandler) render(ctx context.Context, id string) ([]byte, string, error) {
	c, err := h.Calcs.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	doc, email, err := h.document(ctx, c)
	if err != nil {
		return nil, "", err
	}
	out, err := pdf.RenderStatement(doc)
	if err != nil {
		return nil, "", err
	}
	return out, email, nil
}

func statementFilename(id string) string { return "statement-" + id + ".pdf" }

// StatementPDF answers GET /calculations/{id}/statement.pdf.
func (h *CalculationHandler) StatementPDF(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	out, _, err := h.render(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+statementFilename(id)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

type emailRequest struct {
	To string `json:"to"`
}

// Email sends the statement PDF to the given address, or to the fleet owner's
// address on file. The body is optional.
func (h *CalculationHandler) Email(w http.ResponseWriter, r *http.Request) {
	if h.Mailer == nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "email_disabled", nil)
		return
	}
	var in emailRequest
	if r.ContentLength != 0 && !decode(w, r, &in) {
		return
	}
	id := r.PathValue("id")
	out, email, err := h.render(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	to := in.To
	if to == "" {
		to = email
	}
	v := validation.Violations{}
	validation.Required("to", to, v)
	if !v.Empty() {
		writeError(w, violationsError(v))
		return
	}
	lang := i18n.LangFrom(r.Context())
	err = h.Mailer.SendStatement(r.Context(), to, i18n.T(lang, "email_subject"), i18n.T(lang, "email_body"), statementFilename(id), out)
	switch {
	case errors.Is(err, notify.ErrInvalidRecipient):
		writeError(w, violationsError{"to": "invalid_value"})
		return
	case err != nil:
		log.Printf("[handlers] email statement %s: %v", id, err)
		httpx.JSONError(w, http.StatusBadGateway, "email_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"sent": true, "to": to})
}
