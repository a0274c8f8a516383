package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mrequena/cesta/internal/auth"
	"github.com/mrequena/cesta/internal/list"
	"github.com/mrequena/cesta/internal/model"
	"github.com/mrequena/cesta/internal/store"
)

// Localized list error messages.
const (
	msgItemNotFound = "Artículo no encontrado."
	msgNameRequired = "El nombre del artículo es obligatorio."
	msgClearFailed  = "No se pudieron limpiar los artículos comprados."
	msgEmptyFailed  = "No se pudo vaciar la lista."
	msgConfirmEmpty = "Vaciar la lista requiere confirmación."
)

type ListHandler struct {
	svc    *list.Service
	prefs  *store.PreferenceStore
	logger *slog.Logger
}

func NewListHandler(svc *list.Service, prefs *store.PreferenceStore, logger *slog.Logger) *ListHandler {
	return &ListHandler{svc: svc, prefs: prefs, logger: logger}
}

func (h *ListHandler) GetList(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot()
	if err != nil {
		h.logger.Error("snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, msgGenericError)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type addItemRequest struct {
	Name string `json:"name"`
	Lang string `json:"lang"`
}

func (h *ListHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgNameRequired)
		return
	}

	lang := model.Language(req.Lang)
	if !model.ValidLanguage(req.Lang) {
		// Fall back to the user's stored preference.
		var err error
		if lang, err = h.prefs.GetLanguage(auth.UserID(r.Context())); err != nil {
			lang = model.LangES
		}
	}

	item, err := h.svc.Add(r.Context(), req.Name, auth.DisplayName(r.Context()), lang)
	if err != nil {
		h.writeListError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

type quickAddRequest struct {
	Name     string `json:"name"` // catalog entry's Spanish name
	Quantity int    `json:"quantity"`
}

func (h *ListHandler) QuickAdd(w http.ResponseWriter, r *http.Request) {
	var req quickAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgNameRequired)
		return
	}

	item, err := h.svc.QuickAdd(req.Name, req.Quantity, auth.DisplayName(r.Context()))
	if err != nil {
		h.writeListError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *ListHandler) TogglePurchased(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.TogglePurchased(r.PathValue("id"))
	if err != nil {
		h.writeListError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *ListHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgGenericError)
		return
	}

	if err := h.svc.UpdateQuantity(r.PathValue("id"), req.Quantity); err != nil {
		h.writeListError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type priceRequest struct {
	Supermarket string `json:"supermarket"`
	// Price arrives as raw text; anything that fails numeric parsing is
	// stored as null rather than rejected.
	Price string `json:"price"`
}

func (h *ListHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgGenericError)
		return
	}

	if err := h.svc.UpdatePrice(r.PathValue("id"), req.Supermarket, req.Price); err != nil {
		h.writeListError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ListHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Remove(r.PathValue("id")); err != nil {
		h.writeListError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ListHandler) ClearPurchased(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ClearPurchased(); err != nil {
		h.logger.Error("clear purchased", "error", err)
		writeError(w, http.StatusInternalServerError, msgClearFailed)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EmptyList deletes the whole active list. The client must send
// ?confirm=true, which backs the blocking yes/no prompt in the UI.
func (h *ListHandler) EmptyList(w http.ResponseWriter, r *http.Request) {
	confirmed := r.URL.Query().Get("confirm") == "true"
	if err := h.svc.EmptyList(confirmed); err != nil {
		if errors.Is(err, list.ErrNotConfirmed) {
			writeError(w, http.StatusBadRequest, msgConfirmEmpty)
			return
		}
		h.logger.Error("empty list", "error", err)
		writeError(w, http.StatusInternalServerError, msgEmptyFailed)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ListHandler) writeListError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, list.ErrNotFound):
		writeError(w, http.StatusNotFound, msgItemNotFound)
	case errors.Is(err, list.ErrEmptyName):
		writeError(w, http.StatusBadRequest, msgNameRequired)
	case errors.Is(err, list.ErrUnknownUser),
		errors.Is(err, list.ErrUnknownSupermarket),
		errors.Is(err, list.ErrUnknownCatalogItem):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("list operation", "error", err)
		writeError(w, http.StatusInternalServerError, msgGenericError)
	}
}
