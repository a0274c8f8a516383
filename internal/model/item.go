package model

// Language is a supported display language.
type Language string

const (
	LangES Language = "es"
	LangIT Language = "it"
)

// ValidLanguage reports whether s is one of the supported language codes.
func ValidLanguage(s string) bool {
	return s == string(LangES) || s == string(LangIT)
}

// Bilingual holds an item or category name in both supported languages.
// After normalization both fields are always non-empty.
type Bilingual struct {
	ES string `json:"es"`
	IT string `json:"it"`
}

// In returns the text for the given language, defaulting to Spanish.
func (b Bilingual) In(lang Language) string {
	if lang == LangIT {
		return b.IT
	}
	return b.ES
}

// Users is the fixed set of household members. A session display name
// outside this set is not a valid application user.
var Users = []string{"Andrea", "Rocío"}

// KnownUser reports whether name is a member of the fixed user set.
func KnownUser(name string) bool {
	for _, u := range Users {
		if u == name {
			return true
		}
	}
	return false
}

// Supermarkets is the fixed set of vendors tracked per item.
var Supermarkets = []string{"Mercadona", "Carrefour", "Cash", "Aldi", "Lidl"}

// KnownSupermarket reports whether name is a member of the fixed vendor set.
func KnownSupermarket(name string) bool {
	for _, s := range Supermarkets {
		if s == name {
			return true
		}
	}
	return false
}

// Item is one entry in the active list or the purchase history.
// Prices holds one entry per supermarket; nil means the price is unknown.
type Item struct {
	ID        string              `json:"id"`
	Name      Bilingual           `json:"name"`
	Category  Bilingual           `json:"category"`
	Icon      string              `json:"icon"`
	Purchased bool                `json:"purchased"`
	AddedBy   string              `json:"addedBy"`
	Quantity  int                 `json:"quantity"`
	Prices    map[string]*float64 `json:"prices"`
}

// EmptyPrices returns a price map with a nil entry for every supermarket.
func EmptyPrices() map[string]*float64 {
	prices := make(map[string]*float64, len(Supermarkets))
	for _, s := range Supermarkets {
		prices[s] = nil
	}
	return prices
}

// CategoryTranslations maps Spanish category names to their Italian
// counterparts. Used when normalizing legacy single-language records.
var CategoryTranslations = map[string]string{
	"Frutas":          "Frutta",
	"Verduras":        "Verdura",
	"Carne y Pescado": "Carne e Pesce",
	"Lácteos y Huevos": "Latticini e Uova",
	"Panadería":       "Panetteria",
	"Despensa":        "Dispensa",
	"Congelados":      "Surgelati",
	"Bebidas":         "Bevande",
	"Aperitivos":      "Snack",
	"Hogar":           "Casa",
	"Cuidado Personal": "Cura Personale",
	"Otros":           "Altro",
	"Sin categoría":   "Senza categoria",
}

const (
	// UncategorizedES and UncategorizedIT label items the classifier
	// could not categorize.
	UncategorizedES = "Otros"
	UncategorizedIT = "Altro"

	// FallbackIcon is the generic glyph used when classification fails.
	FallbackIcon = "🛒"
)

// Uncategorized returns the bilingual fallback category label.
func Uncategorized() Bilingual {
	return Bilingual{ES: UncategorizedES, IT: UncategorizedIT}
}
