// Package normalize coerces stored grocery records of unknown vintage into
// the canonical Item shape. Early records stored single-language strings for
// name and category, had no quantity, and no price map. The tree keeps those
// records as written, so every reader runs this coercion on every snapshot.
package normalize

import (
	"encoding/json"

	"github.com/mrequena/cesta/internal/model"
)

// rawRecord mirrors Item but leaves the historically ambiguous fields as
// raw JSON so their shape can be inspected.
type rawRecord struct {
	Name      json.RawMessage `json:"name"`
	Category  json.RawMessage `json:"category"`
	Icon      string          `json:"icon"`
	Purchased bool            `json:"purchased"`
	AddedBy   string          `json:"addedBy"`
	Quantity  json.RawMessage `json:"quantity"`
	Prices    json.RawMessage `json:"prices"`
}

// Record coerces a stored record into a canonical Item with the given id.
// It never fails: unparseable input degrades to a minimal valid item rather
// than an error, so one corrupt record cannot break a snapshot.
func Record(id string, raw json.RawMessage) model.Item {
	var rec rawRecord
	_ = json.Unmarshal(raw, &rec)

	item := model.Item{
		ID:        id,
		Name:      bilingualField(rec.Name, nil),
		Category:  bilingualField(rec.Category, model.CategoryTranslations),
		Icon:      rec.Icon,
		Purchased: rec.Purchased,
		AddedBy:   rec.AddedBy,
		Quantity:  quantityField(rec.Quantity),
		Prices:    pricesField(rec.Prices),
	}

	if item.Icon == "" {
		item.Icon = model.FallbackIcon
	}
	if !model.KnownUser(item.AddedBy) {
		item.AddedBy = model.Users[0]
	}
	return item
}

// bilingualField expands a legacy plain string into both language slots.
// When a translation table is supplied and the string matches a known key,
// the counterpart slot gets the translated text; otherwise the same text
// fills both slots. Already-bilingual values pass through, with an empty
// slot backfilled from the other.
func bilingualField(raw json.RawMessage, translations map[string]string) model.Bilingual {
	if len(raw) == 0 {
		return model.Bilingual{}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		b := model.Bilingual{ES: s, IT: s}
		if t, ok := translations[s]; ok {
			b.IT = t
		}
		return b
	}

	var b model.Bilingual
	if err := json.Unmarshal(raw, &b); err != nil {
		return model.Bilingual{}
	}
	if b.ES == "" {
		b.ES = b.IT
	}
	if b.IT == "" {
		b.IT = b.ES
	}
	return b
}

// quantityField defaults absent, non-numeric, or sub-1 quantities to 1.
func quantityField(raw json.RawMessage) int {
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil || n < 1 {
		return 1
	}
	return int(n)
}

// pricesField guarantees one entry (possibly nil) per known supermarket.
// Unknown vendor keys are dropped; a missing or malformed map is replaced
// with an all-nil one.
func pricesField(raw json.RawMessage) map[string]*float64 {
	prices := model.EmptyPrices()
	if len(raw) == 0 {
		return prices
	}

	var stored map[string]*float64
	if err := json.Unmarshal(raw, &stored); err != nil {
		return prices
	}
	for _, s := range model.Supermarkets {
		if p, ok := stored[s]; ok {
			prices[s] = p
		}
	}
	return prices
}

// Collection normalizes a whole snapshot, keyed by record id.
func Collection(snapshot map[string]json.RawMessage) []model.Item {
	items := make([]model.Item, 0, len(snapshot))
	for id, raw := range snapshot {
		items = append(items, Record(id, raw))
	}
	return items
}
