package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mrequena/cesta/internal/classify"
	"github.com/mrequena/cesta/internal/model"
)

const (
	msgMissingItemName  = "Falta el nombre del artículo."
	msgCategorizeFailed = "No se pudo categorizar el artículo."
)

// CategorizeHandler exposes the classifier directly, so the client can
// preview a categorization without adding anything to the list. Unlike the
// Add path, upstream failures here are reported instead of falling back.
type CategorizeHandler struct {
	classifier *classify.Client
	logger     *slog.Logger
}

func NewCategorizeHandler(classifier *classify.Client, logger *slog.Logger) *CategorizeHandler {
	return &CategorizeHandler{classifier: classifier, logger: logger}
}

type categorizeRequest struct {
	ItemName string `json:"itemName"`
	Lang     string `json:"lang"`
}

type categorizeResponse struct {
	NameES     string `json:"name_es"`
	NameIT     string `json:"name_it"`
	CategoryES string `json:"category_es"`
	CategoryIT string `json:"category_it"`
	Emoji      string `json:"emoji"`
}

func (h *CategorizeHandler) Categorize(w http.ResponseWriter, r *http.Request) {
	var req categorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ItemName == "" {
		writeError(w, http.StatusBadRequest, msgMissingItemName)
		return
	}

	lang := model.Language(req.Lang)
	if !model.ValidLanguage(req.Lang) {
		lang = model.LangES
	}

	res, err := h.classifier.Do(r.Context(), req.ItemName, lang)
	if err != nil {
		h.logger.Error("categorize", "item", req.ItemName, "error", err)
		writeError(w, http.StatusInternalServerError, msgCategorizeFailed)
		return
	}

	writeJSON(w, http.StatusOK, categorizeResponse{
		NameES:     res.Name.ES,
		NameIT:     res.Name.IT,
		CategoryES: res.Category.ES,
		CategoryIT: res.Category.IT,
		Emoji:      res.Icon,
	})
}
