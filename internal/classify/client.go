// Package classify calls the generative-language API to name, categorize,
// and iconify grocery items. Classification is best-effort: the Add path
// always gets a usable record, falling back to an uncategorized one when
// the upstream is unreachable or replies with garbage.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/mrequena/cesta/internal/model"
)

const defaultModel = "gemini-2.5-flash"

// ErrNoAPIKey is returned when classification is attempted without a
// configured upstream credential.
var ErrNoAPIKey = errors.New("classify: API key not configured")

const systemInstruction = `Eres un asistente de listas de la compra bilingüe (español e italiano).
Para el artículo proporcionado, devuelve un JSON con las claves name_es, name_it, category_es, category_it y emoji.
Las categorías en español deben ser una de: Frutas, Verduras, Carne y Pescado, Lácteos y Huevos, Panadería, Despensa, Congelados, Bebidas, Aperitivos, Hogar, Cuidado Personal, Otros.
category_it debe ser la traducción italiana de la categoría. El emoji debe ser un único carácter común.`

// Config holds upstream API settings.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string // override for tests; defaults to the Google endpoint
}

// Result is the two-outcome classification result. Fallback marks results
// produced locally after an upstream failure, so callers can tell a real
// classification from the deterministic stand-in without the error blocking
// them.
type Result struct {
	Name     model.Bilingual
	Category model.Bilingual
	Icon     string
	Fallback bool
}

// Client talks to the generative-language API.
type Client struct {
	cfg    Config
	http   *retryablehttp.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	rc := retryablehttp.NewClient()
	rc.Logger = stdlog.New(io.Discard, "", 0)
	rc.RetryMax = 2
	rc.HTTPClient.Timeout = 15 * time.Second

	return &Client{cfg: cfg, http: rc, logger: logger}
}

// HasKey reports whether an upstream credential is configured.
func (c *Client) HasKey() bool {
	return c.cfg.APIKey != ""
}

// Classify returns a classification for itemText, falling back to the
// uncategorized record on any failure. It never returns an error: adds must
// always complete.
func (c *Client) Classify(ctx context.Context, itemText string, lang model.Language) Result {
	res, err := c.Do(ctx, itemText, lang)
	if err != nil {
		c.logger.Warn("classification failed, using fallback", "item", itemText, "error", err)
		return Fallback(itemText)
	}
	return res
}

// Do performs one classification call and surfaces the error. The categorize
// HTTP handler uses this to report upstream failures; the Add path goes
// through Classify instead.
func (c *Client) Do(ctx context.Context, itemText string, lang model.Language) (Result, error) {
	if c.cfg.APIKey == "" {
		return Result{}, ErrNoAPIKey
	}

	payload := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{
				{"text": fmt.Sprintf("Clasifica este artículo (idioma activo: %s): %s", lang, itemText)},
			}},
		},
		"systemInstruction": map[string]any{
			"parts": []map[string]string{{"text": systemInstruction}},
		},
		"generationConfig": map[string]any{
			"responseMimeType": "application/json",
			"temperature":      0.2,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.cfg.BaseURL, c.cfg.Model, c.cfg.APIKey)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("upstream status %d", resp.StatusCode)
	}

	// The model reply is JSON text nested inside the API envelope.
	text := gjson.GetBytes(respBody, "candidates.0.content.parts.0.text").Str
	if text == "" {
		return Result{}, fmt.Errorf("empty model reply")
	}

	fields := gjson.Parse(text)
	res := Result{
		Name: model.Bilingual{
			ES: fields.Get("name_es").Str,
			IT: fields.Get("name_it").Str,
		},
		Category: model.Bilingual{
			ES: fields.Get("category_es").Str,
			IT: fields.Get("category_it").Str,
		},
		Icon: fields.Get("emoji").Str,
	}
	if res.Name.ES == "" || res.Name.IT == "" || res.Category.ES == "" || res.Category.IT == "" || res.Icon == "" {
		return Result{}, fmt.Errorf("malformed model reply: %s", text)
	}
	return res, nil
}

// Fallback builds the deterministic uncategorized result for itemText.
func Fallback(itemText string) Result {
	return Result{
		Name:     model.Bilingual{ES: itemText, IT: itemText},
		Category: model.Uncategorized(),
		Icon:     model.FallbackIcon,
		Fallback: true,
	}
}
