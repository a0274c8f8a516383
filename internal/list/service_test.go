package list

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/mrequena/cesta/internal/classify"
	"github.com/mrequena/cesta/internal/database"
	"github.com/mrequena/cesta/internal/model"
	"github.com/mrequena/cesta/internal/store"
)

// stubClassifier returns a canned result and counts calls.
type stubClassifier struct {
	res   classify.Result
	calls int
}

func (s *stubClassifier) Classify(_ context.Context, itemText string, _ model.Language) classify.Result {
	s.calls++
	if s.res.Name.ES == "" {
		return classify.Fallback(itemText)
	}
	return s.res
}

func setupService(t *testing.T, c Classifier) (*Service, *store.TreeStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	tree := store.NewTreeStore(db)
	return NewService(tree, c, slog.New(slog.DiscardHandler)), tree
}

func TestAddClassifiedItem(t *testing.T) {
	stub := &stubClassifier{res: classify.Result{
		Name:     model.Bilingual{ES: "Tomate", IT: "Pomodoro"},
		Category: model.Bilingual{ES: "Verduras", IT: "Verdura"},
		Icon:     "🍅",
	}}
	svc, _ := setupService(t, stub)

	item, err := svc.Add(context.Background(), "tomate", "Andrea", model.LangES)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if item.Quantity != 1 {
		t.Errorf("quantity = %d, want 1", item.Quantity)
	}
	if item.Purchased {
		t.Error("expected unpurchased")
	}
	if item.Category.ES != "Verduras" || item.Category.IT != "Verdura" {
		t.Errorf("category = %+v", item.Category)
	}
	for _, s := range model.Supermarkets {
		if item.Prices[s] != nil {
			t.Errorf("price for %s = %v, want nil", s, *item.Prices[s])
		}
	}
}

func TestAddEmptyName(t *testing.T) {
	svc, _ := setupService(t, &stubClassifier{})
	if _, err := svc.Add(context.Background(), "   ", "Andrea", model.LangES); err != ErrEmptyName {
		t.Errorf("err = %v, want ErrEmptyName", err)
	}
}

func TestAddMergesOnDuplicateName(t *testing.T) {
	stub := &stubClassifier{res: classify.Result{
		Name:     model.Bilingual{ES: "Leche", IT: "Latte"},
		Category: model.Bilingual{ES: "Lácteos y Huevos", IT: "Latticini e Uova"},
		Icon:     "🥛",
	}}
	svc, _ := setupService(t, stub)

	first, err := svc.Add(context.Background(), "Leche", "Andrea", model.LangES)
	if err != nil {
		t.Fatalf("first add: %v", err)
	}
	second, err := svc.Add(context.Background(), "leche ", "Rocío", model.LangES)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("second add created new record %q, want merge into %q", second.ID, first.ID)
	}
	if second.Quantity != 2 {
		t.Errorf("quantity = %d, want 2", second.Quantity)
	}
	if stub.calls != 1 {
		t.Errorf("classifier called %d times, want 1 (merge must not classify)", stub.calls)
	}

	snap, _ := svc.Snapshot()
	if len(snap.Items) != 1 {
		t.Errorf("active list has %d items, want 1", len(snap.Items))
	}
}

func TestAddMatchesEitherLanguage(t *testing.T) {
	stub := &stubClassifier{res: classify.Result{
		Name:     model.Bilingual{ES: "Leche", IT: "Latte"},
		Category: model.Bilingual{ES: "Lácteos y Huevos", IT: "Latticini e Uova"},
		Icon:     "🥛",
	}}
	svc, _ := setupService(t, stub)

	svc.Add(context.Background(), "Leche", "Andrea", model.LangES)
	// Re-add under the Italian name: still a merge.
	item, err := svc.Add(context.Background(), "LATTE", "Rocío", model.LangIT)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if item.Quantity != 2 {
		t.Errorf("quantity = %d, want 2 via Italian-name match", item.Quantity)
	}
}

func TestAddFallbackOnClassifierFailure(t *testing.T) {
	svc, _ := setupService(t, &stubClassifier{}) // zero result → fallback

	item, err := svc.Add(context.Background(), "algo raro", "Andrea", model.LangES)
	if err != nil {
		t.Fatalf("add must complete despite classifier failure: %v", err)
	}
	if item.Category.ES != model.UncategorizedES || item.Category.IT != model.UncategorizedIT {
		t.Errorf("category = %+v, want uncategorized", item.Category)
	}
	if item.Icon != model.FallbackIcon {
		t.Errorf("icon = %q, want %q", item.Icon, model.FallbackIcon)
	}
	if item.Name.ES != "algo raro" || item.Name.IT != "algo raro" {
		t.Errorf("name = %+v, want input text in both slots", item.Name)
	}
}

func TestQuickAdd(t *testing.T) {
	stub := &stubClassifier{}
	svc, _ := setupService(t, stub)

	item, err := svc.QuickAdd("Pan", 3, "Rocío")
	if err != nil {
		t.Fatalf("quick add: %v", err)
	}
	if item.Quantity != 3 {
		t.Errorf("quantity = %d, want 3", item.Quantity)
	}
	if item.Name.IT != "Pane" {
		t.Errorf("name.it = %q, want %q", item.Name.IT, "Pane")
	}
	if stub.calls != 0 {
		t.Errorf("classifier called %d times, want 0 for quick add", stub.calls)
	}

	// Quick-adding again merges by the caller-chosen quantity.
	item, err = svc.QuickAdd("Pan", 2, "Andrea")
	if err != nil {
		t.Fatalf("second quick add: %v", err)
	}
	if item.Quantity != 5 {
		t.Errorf("quantity = %d, want 5", item.Quantity)
	}
}

func TestQuickAddUnknownEntry(t *testing.T) {
	svc, _ := setupService(t, &stubClassifier{})
	if _, err := svc.QuickAdd("Caviar", 1, "Andrea"); err != ErrUnknownCatalogItem {
		t.Errorf("err = %v, want ErrUnknownCatalogItem", err)
	}
}

func TestTogglePurchased(t *testing.T) {
	svc, _ := setupService(t, &stubClassifier{})

	item, _ := svc.QuickAdd("Agua", 1, "Andrea")

	toggled, err := svc.TogglePurchased(item.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !toggled.Purchased {
		t.Error("expected purchased after toggle")
	}

	toggled, _ = svc.TogglePurchased(item.ID)
	if toggled.Purchased {
		t.Error("expected unpurchased after second toggle")
	}

	if _, err := svc.TogglePurchased("nope"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	svc, _ := setupService(t, &stubClassifier{})

	item, _ := svc.QuickAdd("Arroz", 2, "Andrea")

	if err := svc.UpdateQuantity(item.ID, 0); err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	snap, _ := svc.Snapshot()
	if len(snap.Items) != 0 {
		t.Errorf("active list has %d items, want 0 after zero-quantity update", len(snap.Items))
	}

	item, _ = svc.QuickAdd("Arroz", 2, "Andrea")
	if err := svc.UpdateQuantity(item.ID, -3); err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	snap, _ = svc.Snapshot()
	if len(snap.Items) != 0 {
		t.Errorf("negative quantity must also remove, got %d items", len(snap.Items))
	}
}

func TestUpdateQuantitySetsValue(t *testing.T) {
	svc, _ := setupService(t, &stubClassifier{})

	item, _ := svc.QuickAdd("Queso", 1, "Andrea")
	if err := svc.UpdateQuantity(item.ID, 4); err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	snap, _ := svc.Snapshot()
	if snap.Items[0].Quantity != 4 {
		t.Errorf("quantity = %d, want 4", snap.Items[0].Quantity)
	}
}

func TestUpdatePrice(t *testing.T) {
	svc, _ := setupService(t, &stubClassifier{})
	item, _ := svc.QuickAdd("Leche", 1, "Andrea")

	if err := svc.UpdatePrice(item.ID, "Mercadona", "0.90"); err != nil {
		t.Fatalf("update price: %v", err)
	}
	snap, _ := svc.Snapshot()
	p := snap.Items[0].Prices["Mercadona"]
	if p == nil || *p != 0.90 {
		t.Errorf("Mercadona price = %v, want 0.90", p)
	}
}

func TestUpdatePriceUnparsableStoresNull(t *testing.T) {
	svc, _ := setupService(t, &stubClassifier{})
	item, _ := svc.QuickAdd("Leche", 1, "Andrea")

	svc.UpdatePrice(item.ID, "Lidl", "1.20")
	for _, bad := range []string{"", "gratis", "1,2x"} {
		if err := svc.UpdatePrice(item.ID, "Lidl", bad); err != nil {
			t.Fatalf("update price %q: %v", bad, err)
		}
		snap, _ := svc.Snapshot()
		if p := snap.Items[0].Prices["Lidl"]; p != nil {
			t.Errorf("price after %q = %v, want nil", bad, *p)
		}
		svc.UpdatePrice(item.ID, "Lidl", "1.20")
	}
}

func TestUpdatePriceUnknownSupermarket(t *testing.T) {
	svc, _ := setupService(t, &stubClassifier{})
	item, _ := svc.QuickAdd("Leche", 1, "Andrea")
	if err := svc.UpdatePrice(item.ID, "Eroski", "1.00"); err != ErrUnknownSupermarket {
		t.Errorf("err = %v, want ErrUnknownSupermarket", err)
	}
}

func TestClearPurchasedMovesToHistory(t *testing.T) {
	svc, _ := setupService(t, &stubClassifier{})

	milk, _ := svc.QuickAdd("Leche", 1, "Andrea")
	svc.QuickAdd("Pan", 1, "Rocío")
	svc.TogglePurchased(milk.ID)

	if err := svc.ClearPurchased(); err != nil {
		t.Fatalf("clear purchased: %v", err)
	}

	snap, _ := svc.Snapshot()
	if len(snap.Items) != 1 || snap.Items[0].Name.ES != "Pan" {
		t.Errorf("active list = %+v, want only Pan", snap.Items)
	}
	if len(snap.History) != 1 || snap.History[0].Name.ES != "Leche" {
		t.Errorf("history = %+v, want Leche", snap.History)
	}
}

func TestClearPurchasedSkipsExistingHistoryNames(t *testing.T) {
	svc, _ := setupService(t, &stubClassifier{})

	// First purchase cycle puts Leche into history.
	milk, _ := svc.QuickAdd("Leche", 1, "Andrea")
	svc.TogglePurchased(milk.ID)
	svc.ClearPurchased()

	// Second cycle: the name is already in history and must not duplicate.
	milk, _ = svc.QuickAdd("Leche", 1, "Rocío")
	svc.TogglePurchased(milk.ID)
	if err := svc.ClearPurchased(); err != nil {
		t.Fatalf("clear purchased: %v", err)
	}

	snap, _ := svc.Snapshot()
	if len(snap.Items) != 0 {
		t.Errorf("active list has %d items, want 0", len(snap.Items))
	}
	if len(snap.History) != 1 {
		t.Errorf("history has %d entries, want 1 (no duplicate by name)", len(snap.History))
	}
}

func TestClearPurchasedNoPurchasedItems(t *testing.T) {
	svc, _ := setupService(t, &stubClassifier{})
	svc.QuickAdd("Pan", 1, "Andrea")

	if err := svc.ClearPurchased(); err != nil {
		t.Fatalf("clear purchased: %v", err)
	}
	snap, _ := svc.Snapshot()
	if len(snap.Items) != 1 || len(snap.History) != 0 {
		t.Errorf("no-op clear changed state: %+v", snap)
	}
}

func TestEmptyListRequiresConfirmation(t *testing.T) {
	svc, _ := setupService(t, &stubClassifier{})
	milk, _ := svc.QuickAdd("Leche", 1, "Andrea")
	svc.TogglePurchased(milk.ID)
	svc.ClearPurchased()
	svc.QuickAdd("Pan", 1, "Andrea")

	if err := svc.EmptyList(false); err != ErrNotConfirmed {
		t.Errorf("err = %v, want ErrNotConfirmed", err)
	}
	if err := svc.EmptyList(true); err != nil {
		t.Fatalf("empty list: %v", err)
	}

	snap, _ := svc.Snapshot()
	if len(snap.Items) != 0 {
		t.Errorf("active list has %d items, want 0", len(snap.Items))
	}
	if len(snap.History) != 1 {
		t.Errorf("history has %d entries, want 1 (untouched)", len(snap.History))
	}
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	svc, _ := setupService(t, &stubClassifier{})

	var got []Snapshot
	unsubscribe := svc.Subscribe(func(s Snapshot) { got = append(got, s) })

	svc.QuickAdd("Pan", 1, "Andrea")
	if len(got) != 1 {
		t.Fatalf("received %d snapshots, want 1", len(got))
	}
	if len(got[0].Items) != 1 {
		t.Errorf("snapshot has %d items, want 1", len(got[0].Items))
	}

	unsubscribe()
	svc.QuickAdd("Agua", 1, "Andrea")
	if len(got) != 1 {
		t.Errorf("received %d snapshots after unsubscribe, want 1", len(got))
	}
}

func TestLegacyRecordsNormalizedInSnapshot(t *testing.T) {
	svc, tree := setupService(t, &stubClassifier{})

	// A record written by an old client: string fields, no quantity, no prices.
	tree.Push(store.CollectionItems, map[string]any{
		"name":      "Aguacate",
		"category":  "Frutas",
		"icon":      "🥑",
		"purchased": false,
		"addedBy":   "Andrea",
	})

	snap, err := svc.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Items) != 1 {
		t.Fatalf("active list has %d items, want 1", len(snap.Items))
	}
	it := snap.Items[0]
	if it.Name.IT != "Aguacate" {
		t.Errorf("name.it = %q, want legacy duplication", it.Name.IT)
	}
	if it.Category.IT != "Frutta" {
		t.Errorf("category.it = %q, want translated %q", it.Category.IT, "Frutta")
	}
	if it.Quantity != 1 {
		t.Errorf("quantity = %d, want 1", it.Quantity)
	}
	if len(it.Prices) != len(model.Supermarkets) {
		t.Errorf("prices has %d entries, want %d", len(it.Prices), len(model.Supermarkets))
	}

	// Normalization is read-side only: the stored record keeps its shape.
	snapRaw, _ := tree.Snapshot(store.CollectionItems)
	for _, raw := range snapRaw {
		if string(raw) == "" {
			t.Fatal("missing raw record")
		}
		if !strings.Contains(string(raw), `"name":"Aguacate"`) {
			t.Errorf("stored record rewritten: %s", raw)
		}
	}
}
