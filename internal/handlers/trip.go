package handlers

import (
	"net/http"
	"strconv"

	"github.com/diewo77/haulage/httpx"
	"github.com/diewo77/haulage/internal/api"
	"github.com/diewo77/haulage/internal/pod"
	"github.com/diewo77/haulage/internal/services"
	"github.com/diewo77/haulage/validation"
)

type TripHandler struct {
	Trips *services.TripService
}

func NewTripHandler(trips *services.TripService) *TripHandler { return &TripHandler{Trips: trips} }

// List answers GET /trips?driver_id=&fleet_owner_id=&limit=&offset=.
func (h *TripHandler) List(w http.ResponseWriter, r *http.Request) {
	f := services.TripFilter{
		DriverID:     queryUint(r, "driver_id"),
		FleetOwnerID: queryUint(r, "fleet_owner_id"),
		Limit:        queryInt(r, "limit"),
		Offset:       queryInt(r, "offset"),
	}
	trips, total, err := h.Trips.List(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	page := api.Page[api.Trip]{Items: make([]api.Trip, 0, len(trips)), Total: total, Limit: limit, Offset: f.Offset}
	for _, t := range trips {
		page.Items = append(page.Items, api.FromTrip(t))
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *TripHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in api.TripBooking
	if !decode(w, r, &in) {
		return
	}
	v := validation.Violations{}
	validation.Required("tripNumber", in.TripNumber, v)
	validation.RequiredID("vehicleId", in.VehicleID, v)
	if in.ScheduledDate.IsZero() {
		v.Add("scheduledDate", "required")
	}
	for i, l := range in.Loads {
		validation.Required("loads["+strconv.Itoa(i)+"].clientName", l.ClientName, v)
	}
	if !v.Empty() {
		writeError(w, violationsError(v))
		return
	}
	t, err := h.Trips.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, api.FromTrip(t))
}

func (h *TripHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.Trips.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, api.FromTrip(t))
}

func (h *TripHandler) ForDriver(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	trips, err := h.Trips.TripsForDriver(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, api.List[api.Trip]{Items: trips})
}

func (h *TripHandler) ForFleetOwner(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	trips, err := h.Trips.TripsForFleetOwner(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, api.List[api.Trip]{Items: trips})
}

// AddEntry returns a handler appending an entry of the given category.
func (h *TripHandler) AddEntry(category string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var in api.LedgerEntry
		if !decode(w, r, &in) {
			return
		}
		v := validation.Violations{}
		if in.Amount.Valid {
			validation.NonNegative("amount", in.Amount.Decimal, v)
		}
		if !v.Empty() {
			writeError(w, violationsError(v))
			return
		}
		if _, err := h.Trips.AppendEntry(r.Context(), id, category, in); err != nil {
			writeError(w, err)
			return
		}
		h.respondTrip(w, r, id, http.StatusCreated)
	}
}

// DeleteEntry returns a handler removing the {index}th entry of the category.
func (h *TripHandler) DeleteEntry(category string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		index, err := strconv.Atoi(r.PathValue("index"))
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_entry_index", nil)
			return
		}
		if err := h.Trips.DeleteEntry(r.Context(), id, category, index); err != nil {
			writeError(w, err)
			return
		}
		h.respondTrip(w, r, id, http.StatusOK)
	}
}

func (h *TripHandler) respondTrip(w http.ResponseWriter, r *http.Request, id uint, status int) {
	t, err := h.Trips.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, status, api.FromTrip(t))
}

// UpdatePodStatus answers PATCH /trips/{id}/pod-status with {"status": next}.
// A concurrent stage change is reported as success=false.
func (h *TripHandler) UpdatePodStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in api.PodStatusUpdate
	if !decode(w, r, &in) {
		return
	}
	v := validation.Violations{}
	validation.Required("status", in.Status, v)
	if !v.Empty() {
		writeError(w, violationsError(v))
		return
	}
	next, err := pod.ParseStage(in.Status)
	if err != nil {
		writeError(w, violationsError{"status": "invalid_value"})
		return
	}
	okUpdate, err := h.Trips.UpdateTripPodStatus(r.Context(), id, next)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, api.PodStatusResult{Success: okUpdate, Status: string(next)})
}

// AdvancePod moves the trip to the stage after its current one.
func (h *TripHandler) AdvancePod(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	next, err := h.Trips.AdvancePod(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, api.PodStatusResult{Success: true, Status: string(next)})
}
