package registry

import (
	"encoding/json"
	"net/http"

	"github.com/diagnosis/guest-registry/internal/domain"
	"github.com/diagnosis/guest-registry/internal/http/response"
	"github.com/diagnosis/guest-registry/internal/service"
	"github.com/diagnosis/guest-registry/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// RPC method paths, relative to where Routes is mounted.
const (
	PathCheckInGuest              = "/checkInGuest"
	PathGetGuestByLastNameAndRoom = "/getGuestByLastNameAndRoom"
	PathIncrementWifiLoginCount   = "/incrementWifiLoginCount"
)

type Handler struct {
	svc         service.RegistryService
	idempotency func(http.Handler) http.Handler
}

// NewHandler builds the RPC handler. idempotency wraps check-in and may be nil.
func NewHandler(svc service.RegistryService, idempotency func(http.Handler) http.Handler) *Handler {
	return &Handler{svc: svc, idempotency: idempotency}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(cr chi.Router) {
		if h.idempotency != nil {
			cr.Use(h.idempotency)
		}
		cr.Post(PathCheckInGuest, h.checkIn)
	})
	r.Post(PathGetGuestByLastNameAndRoom, h.getGuest)
	r.Post(PathIncrementWifiLoginCount, h.incrementWifiLoginCount)

	return r
}

func (h *Handler) checkIn(w http.ResponseWriter, r *http.Request) {
	var in domain.CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}

	room, err := h.svc.CheckIn(r.Context(), in.FirstName, in.LastName)
	if err != nil {
		h.fail(w, r, "check in", err)
		return
	}
	response.WriteJSON(w, http.StatusOK, domain.CheckInResponse{RoomNumber: room})
}

func (h *Handler) getGuest(w http.ResponseWriter, r *http.Request) {
	var in domain.GuestKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}

	g, err := h.svc.GetGuestByLastNameAndRoom(r.Context(), in.LastName, in.RoomNumber)
	if err != nil {
		h.fail(w, r, "get guest", err)
		return
	}
	response.WriteJSON(w, http.StatusOK, g)
}

func (h *Handler) incrementWifiLoginCount(w http.ResponseWriter, r *http.Request) {
	var in domain.GuestKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}

	ok, err := h.svc.IncrementWifiLoginCount(r.Context(), in.LastName, in.RoomNumber)
	if err != nil {
		h.fail(w, r, "increment wifi login count", err)
		return
	}
	response.WriteJSON(w, http.StatusOK, domain.IncrementWifiLoginCountResponse{Success: ok})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, body := response.FromError(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "RPC failed", "op", op, "code", body.Code, "error", err)
	} else {
		logger.DebugContext(r.Context(), "RPC rejected", "op", op, "code", body.Code, "error", err)
	}
	response.ServiceError(w, err)
}
