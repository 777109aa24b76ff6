package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	jsoniter "github.com/json-iterator/go"

	"bikerent/internal/rentals/service"
	apperrors "bikerent/pkg/errors"
	httputil "bikerent/pkg/http"
	"bikerent/pkg/logger"
	"bikerent/pkg/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type RentalHandler struct {
	service service.RentalService
	log     *logger.Logger
}

func NewRentalHandler(service service.RentalService, log *logger.Logger) *RentalHandler {
	return &RentalHandler{
		service: service,
		log:     log,
	}
}

func (h *RentalHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/rentals", h.Create)
	router.GET("/api/v1/rentals", h.Search)
	router.GET("/api/v1/rentals/id/:id", h.GetByID)
	router.PATCH("/api/v1/rentals/id/:id/return", h.Return)
	router.GET("/api/v1/renters/:id/rentals", h.ListByRenter)
}

func (h *RentalHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.RentalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	rental, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, rental); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *RentalHandler) Return(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.ReturnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Return", apperrors.InvalidInput("Invalid request body"))
		return
	}

	rental, err := h.service.Return(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "Return", err)
		return
	}

	if err := httputil.WriteSuccess(w, rental); err != nil {
		h.log.Error("failed to write success response", "handler", "Return", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RentalHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	rental, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, rental); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RentalHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	filter := model.RentalFilter{
		Serial: httputil.OptionalQuery(r, "serial"),
		TaxID:  httputil.OptionalQuery(r, "tax_id"),
	}

	rentals, total, err := h.service.Search(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	if err := httputil.WritePaginated(w, rentals, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Search", "operation", "WritePaginated", "error", err)
	}
}

func (h *RentalHandler) ListByRenter(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListByRenter", err)
		return
	}

	rentals, total, err := h.service.ListByRenter(r.Context(), ps.ByName("id"), limit, offset)
	if err != nil {
		h.writeError(w, "ListByRenter", err)
		return
	}

	if err := httputil.WritePaginated(w, rentals, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListByRenter", "operation", "WritePaginated", "error", err)
	}
}

func (h *RentalHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
