package model

// QuickAddEntry is a pre-classified catalog item. Quick adds bypass the
// classifier entirely: name, category, and icon come straight from here.
type QuickAddEntry struct {
	Name     Bilingual `json:"name"`
	Category Bilingual `json:"category"`
	Icon     string    `json:"icon"`
}

// QuickAddCatalog is the fixed set of common items offered for one-tap adds.
var QuickAddCatalog = []QuickAddEntry{
	{Name: Bilingual{ES: "Leche", IT: "Latte"}, Icon: "🥛", Category: Bilingual{ES: "Lácteos y Huevos", IT: "Latticini e Uova"}},
	{Name: Bilingual{ES: "Agua", IT: "Acqua"}, Icon: "💧", Category: Bilingual{ES: "Bebidas", IT: "Bevande"}},
	{Name: Bilingual{ES: "Plátanos", IT: "Banane"}, Icon: "🍌", Category: Bilingual{ES: "Frutas", IT: "Frutta"}},
	{Name: Bilingual{ES: "Pan", IT: "Pane"}, Icon: "🍞", Category: Bilingual{ES: "Panadería", IT: "Panetteria"}},
	{Name: Bilingual{ES: "Hielo", IT: "Ghiaccio"}, Icon: "🧊", Category: Bilingual{ES: "Congelados", IT: "Surgelati"}},
	{Name: Bilingual{ES: "Pescado", IT: "Pesce"}, Icon: "🐟", Category: Bilingual{ES: "Carne y Pescado", IT: "Carne e Pesce"}},
	{Name: Bilingual{ES: "Carne", IT: "Carne"}, Icon: "🥩", Category: Bilingual{ES: "Carne y Pescado", IT: "Carne e Pesce"}},
	{Name: Bilingual{ES: "Queso", IT: "Formaggio"}, Icon: "🧀", Category: Bilingual{ES: "Lácteos y Huevos", IT: "Latticini e Uova"}},
	{Name: Bilingual{ES: "Pasta", IT: "Pasta"}, Icon: "🍝", Category: Bilingual{ES: "Despensa", IT: "Dispensa"}},
	{Name: Bilingual{ES: "Arroz", IT: "Riso"}, Icon: "🍚", Category: Bilingual{ES: "Despensa", IT: "Dispensa"}},
	{Name: Bilingual{ES: "Verduras", IT: "Verdure"}, Icon: "🥦", Category: Bilingual{ES: "Verduras", IT: "Verdura"}},
	{Name: Bilingual{ES: "Huevos", IT: "Uova"}, Icon: "🥚", Category: Bilingual{ES: "Lácteos y Huevos", IT: "Latticini e Uova"}},
}

// QuickAddByName looks up a catalog entry by its Spanish name, which is the
// stable key clients use to reference an entry.
func QuickAddByName(es string) (QuickAddEntry, bool) {
	for _, e := range QuickAddCatalog {
		if e.Name.ES == es {
			return e, true
		}
	}
	return QuickAddEntry{}, false
}
