package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mrequena/cesta/internal/auth"
	"github.com/mrequena/cesta/internal/model"
	"github.com/mrequena/cesta/internal/store"
)

const msgInvalidLanguage = "Idioma no válido."

type PreferenceHandler struct {
	prefs  *store.PreferenceStore
	logger *slog.Logger
}

func NewPreferenceHandler(prefs *store.PreferenceStore, logger *slog.Logger) *PreferenceHandler {
	return &PreferenceHandler{prefs: prefs, logger: logger}
}

type languageResponse struct {
	Language model.Language `json:"language"`
}

func (h *PreferenceHandler) GetLanguage(w http.ResponseWriter, r *http.Request) {
	lang, err := h.prefs.GetLanguage(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("get language", "error", err)
		writeError(w, http.StatusInternalServerError, msgGenericError)
		return
	}
	writeJSON(w, http.StatusOK, languageResponse{Language: lang})
}

func (h *PreferenceHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	var req languageResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidLanguage)
		return
	}
	if !model.ValidLanguage(string(req.Language)) {
		writeError(w, http.StatusBadRequest, msgInvalidLanguage)
		return
	}

	if err := h.prefs.SetLanguage(auth.UserID(r.Context()), req.Language); err != nil {
		h.logger.Error("set language", "error", err)
		writeError(w, http.StatusInternalServerError, msgGenericError)
		return
	}
	writeJSON(w, http.StatusOK, languageResponse{Language: req.Language})
}
