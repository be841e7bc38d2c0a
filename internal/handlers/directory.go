package handlers

import (
	"net/http"

	"github.com/diewo77/haulage/httpx"
	"github.com/diewo77/haulage/internal/api"
	"github.com/diewo77/haulage/internal/models"
	"github.com/diewo77/haulage/internal/services"
	"github.com/diewo77/haulage/validation"
)

// DirectoryHandler serves drivers, fleet owners and vehicles.
type DirectoryHandler struct {
	Dir *services.DirectoryService
}

func NewDirectoryHandler(dir *services.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{Dir: dir}
}

func (h *DirectoryHandler) ListDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := h.Dir.Drivers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := api.List[api.Driver]{Items: make([]api.Driver, 0, len(drivers))}
	for _, d := range drivers {
		out.Items = append(out.Items, api.FromDriver(d))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *DirectoryHandler) CreateDriver(w http.ResponseWriter, r *http.Request) {
	var in api.Driver
	if !decode(w, r, &in) {
		return
	}
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	if !v.Empty() {
		writeError(w, violationsError(v))
		return
	}
	d, err := h.Dir.CreateDriver(r.Context(), models.Driver{Name: in.Name, Phone: in.Phone, License: in.License})
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, api.FromDriver(d))
}

func (h *DirectoryHandler) ListFleetOwners(w http.ResponseWriter, r *http.Request) {
	owners, err := h.Dir.FleetOwners(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := api.List[api.FleetOwner]{Items: make([]api.FleetOwner, 0, len(owners))}
	for _, f := range owners {
		out.Items = append(out.Items, api.FromFleetOwner(f))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *DirectoryHandler) CreateFleetOwner(w http.ResponseWriter, r *http.Request) {
	var in api.FleetOwner
	if !decode(w, r, &in) {
		return
	}
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	if !v.Empty() {
		writeError(w, violationsError(v))
		return
	}
	f, err := h.Dir.CreateFleetOwner(r.Context(), models.FleetOwner{Name: in.Name, Phone: in.Phone, Email: in.Email})
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, api.FromFleetOwner(f))
}

func (h *DirectoryHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.Dir.Vehicles(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := api.List[api.Vehicle]{Items: make([]api.Vehicle, 0, len(vehicles))}
	for _, veh := range vehicles {
		out.Items = append(out.Items, api.FromVehicle(veh))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *DirectoryHandler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var in api.Vehicle
	if !decode(w, r, &in) {
		return
	}
	if in.Ownership == "" {
		in.Ownership = models.OwnershipSelf
	}
	v := validation.Violations{}
	validation.Required("number", in.Number, v)
	validation.OneOf("ownership", in.Ownership, []string{models.OwnershipSelf, models.OwnershipFleet}, v)
	if in.Ownership == models.OwnershipFleet && in.FleetOwnerID == nil {
		v.Add("fleetOwnerId", "required")
	}
	if !v.Empty() {
		writeError(w, violationsError(v))
		return
	}
	veh, err := h.Dir.CreateVehicle(r.Context(), models.Vehicle{Number: in.Number, Ownership: in.Ownership, FleetOwnerID: in.FleetOwnerID})
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, api.FromVehicle(veh))
}
