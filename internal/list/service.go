// Package list implements the grocery-list operations: adds with
// merge-on-add, purchases, per-supermarket prices, and the atomic move of
// purchased items into history. Every mutation ends with a full snapshot
// published to subscribers; consumers replace their state wholesale.
package list

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/mrequena/cesta/internal/classify"
	"github.com/mrequena/cesta/internal/model"
	"github.com/mrequena/cesta/internal/normalize"
	"github.com/mrequena/cesta/internal/store"
)

var (
	ErrEmptyName          = errors.New("item name is empty")
	ErrUnknownUser        = errors.New("unknown user")
	ErrUnknownSupermarket = errors.New("unknown supermarket")
	ErrUnknownCatalogItem = errors.New("unknown catalog item")
	ErrNotFound           = errors.New("item not found")
	ErrNotConfirmed       = errors.New("empty list requires confirmation")
)

// Snapshot is the full application state delivered to clients.
type Snapshot struct {
	Items   []model.Item `json:"items"`
	History []model.Item `json:"history"`
}

// Classifier names, categorizes, and iconifies free-text item names.
type Classifier interface {
	Classify(ctx context.Context, itemText string, lang model.Language) classify.Result
}

// record is the wire shape written to the tree. The id lives in the tree
// key, not the record.
type record struct {
	Name      model.Bilingual     `json:"name"`
	Category  model.Bilingual     `json:"category"`
	Icon      string              `json:"icon"`
	Purchased bool                `json:"purchased"`
	AddedBy   string              `json:"addedBy"`
	Quantity  int                 `json:"quantity"`
	Prices    map[string]*float64 `json:"prices"`
}

func itemRecord(it model.Item) record {
	return record{
		Name:      it.Name,
		Category:  it.Category,
		Icon:      it.Icon,
		Purchased: it.Purchased,
		AddedBy:   it.AddedBy,
		Quantity:  it.Quantity,
		Prices:    it.Prices,
	}
}

// Service owns the grocery tree and translates user intents into mutations.
type Service struct {
	tree       *store.TreeStore
	classifier Classifier
	logger     *slog.Logger

	mu      sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

func NewService(tree *store.TreeStore, classifier Classifier, logger *slog.Logger) *Service {
	return &Service{
		tree:       tree,
		classifier: classifier,
		logger:     logger,
		subs:       make(map[int]func(Snapshot)),
	}
}

// Subscribe registers fn to receive the full snapshot after every mutation.
// The returned function cancels the subscription; it does not interrupt a
// delivery already in flight.
func (s *Service) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Service) publish() {
	snap, err := s.Snapshot()
	if err != nil {
		s.logger.Error("snapshot for publish", "error", err)
		return
	}
	s.mu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// Snapshot returns the normalized active list and history, ordered by
// category then name for stable output.
func (s *Service) Snapshot() (Snapshot, error) {
	items, err := s.collection(store.CollectionItems)
	if err != nil {
		return Snapshot{}, err
	}
	history, err := s.collection(store.CollectionHistory)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Items: items, History: history}, nil
}

func (s *Service) collection(name string) ([]model.Item, error) {
	raw, err := s.tree.Snapshot(name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	items := normalize.Collection(raw)
	sort.Slice(items, func(i, j int) bool {
		if items[i].Category.ES != items[j].Category.ES {
			return items[i].Category.ES < items[j].Category.ES
		}
		if items[i].Name.ES != items[j].Name.ES {
			return items[i].Name.ES < items[j].Name.ES
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

// canonical is the comparison form of a name: trimmed and casefolded.
func canonical(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// findActive returns the active item whose name matches in either language.
func (s *Service) findActive(name string) (*model.Item, error) {
	want := canonical(name)
	raw, err := s.tree.Snapshot(store.CollectionItems)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	for _, it := range normalize.Collection(raw) {
		if canonical(it.Name.ES) == want || canonical(it.Name.IT) == want {
			found := it
			return &found, nil
		}
	}
	return nil, nil
}

// Add creates an item from free text. A name already on the active list (in
// either language, case-insensitive) increments that item's quantity instead
// of creating a duplicate row. New names go through the classifier, which
// falls back rather than fail, so an add always completes.
//
// Two users adding the same new name before either classification resolves
// will produce two records; that race is accepted, not deduplicated.
func (s *Service) Add(ctx context.Context, name, addedBy string, lang model.Language) (model.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Item{}, ErrEmptyName
	}
	if !model.KnownUser(addedBy) {
		return model.Item{}, ErrUnknownUser
	}

	existing, err := s.findActive(name)
	if err != nil {
		return model.Item{}, err
	}
	if existing != nil {
		return s.increment(*existing, 1)
	}

	res := s.classifier.Classify(ctx, name, lang)
	if res.Fallback {
		s.logger.Info("added with fallback classification", "name", name)
	}

	item := model.Item{
		Name:      res.Name,
		Category:  res.Category,
		Icon:      res.Icon,
		Purchased: false,
		AddedBy:   addedBy,
		Quantity:  1,
		Prices:    model.EmptyPrices(),
	}
	key, err := s.tree.Push(store.CollectionItems, itemRecord(item))
	if err != nil {
		return model.Item{}, fmt.Errorf("push item: %w", err)
	}
	item.ID = key
	s.publish()
	return item, nil
}

// QuickAdd creates an item from the fixed catalog without calling the
// classifier. catalogName is the entry's Spanish name; qty below 1 is
// clamped to 1.
func (s *Service) QuickAdd(catalogName string, qty int, addedBy string) (model.Item, error) {
	entry, ok := model.QuickAddByName(catalogName)
	if !ok {
		return model.Item{}, ErrUnknownCatalogItem
	}
	if !model.KnownUser(addedBy) {
		return model.Item{}, ErrUnknownUser
	}
	if qty < 1 {
		qty = 1
	}

	existing, err := s.findActive(entry.Name.ES)
	if err != nil {
		return model.Item{}, err
	}
	if existing != nil {
		return s.increment(*existing, qty)
	}

	item := model.Item{
		Name:      entry.Name,
		Category:  entry.Category,
		Icon:      entry.Icon,
		Purchased: false,
		AddedBy:   addedBy,
		Quantity:  qty,
		Prices:    model.EmptyPrices(),
	}
	key, err := s.tree.Push(store.CollectionItems, itemRecord(item))
	if err != nil {
		return model.Item{}, fmt.Errorf("push item: %w", err)
	}
	item.ID = key
	s.publish()
	return item, nil
}

func (s *Service) increment(it model.Item, by int) (model.Item, error) {
	it.Quantity += by
	found, err := s.tree.Update(store.CollectionItems, it.ID, map[string]any{"quantity": it.Quantity})
	if err != nil {
		return model.Item{}, fmt.Errorf("increment quantity: %w", err)
	}
	if !found {
		return model.Item{}, ErrNotFound
	}
	s.publish()
	return it, nil
}

// TogglePurchased flips the purchased flag. It never moves the item between
// collections; only ClearPurchased does that.
func (s *Service) TogglePurchased(id string) (model.Item, error) {
	raw, err := s.tree.Get(store.CollectionItems, id)
	if err != nil {
		return model.Item{}, err
	}
	if raw == nil {
		return model.Item{}, ErrNotFound
	}
	item := normalize.Record(id, raw)
	item.Purchased = !item.Purchased

	if _, err := s.tree.Update(store.CollectionItems, id, map[string]any{"purchased": item.Purchased}); err != nil {
		return model.Item{}, fmt.Errorf("toggle purchased: %w", err)
	}
	s.publish()
	return item, nil
}

// UpdateQuantity sets the item's quantity. A requested quantity of 0 or
// below removes the item instead of storing a non-positive value.
func (s *Service) UpdateQuantity(id string, qty int) error {
	if qty <= 0 {
		return s.Remove(id)
	}
	found, err := s.tree.Update(store.CollectionItems, id, map[string]any{"quantity": qty})
	if err != nil {
		return fmt.Errorf("update quantity: %w", err)
	}
	if !found {
		return ErrNotFound
	}
	s.publish()
	return nil
}

// UpdatePrice sets one supermarket's price from raw user text. Text that
// does not parse as a number is stored as null, never as zero or as the
// raw string.
func (s *Service) UpdatePrice(id, supermarket, rawPrice string) error {
	if !model.KnownSupermarket(supermarket) {
		return ErrUnknownSupermarket
	}

	raw, err := s.tree.Get(store.CollectionItems, id)
	if err != nil {
		return err
	}
	if raw == nil {
		return ErrNotFound
	}
	item := normalize.Record(id, raw)

	var price *float64
	if v, err := strconv.ParseFloat(strings.TrimSpace(rawPrice), 64); err == nil {
		price = &v
	}
	item.Prices[supermarket] = price

	if _, err := s.tree.Update(store.CollectionItems, id, map[string]any{"prices": item.Prices}); err != nil {
		return fmt.Errorf("update price: %w", err)
	}
	s.publish()
	return nil
}

// Remove deletes an item from the active list unconditionally.
func (s *Service) Remove(id string) error {
	if err := s.tree.Remove(store.CollectionItems, id); err != nil {
		return err
	}
	s.publish()
	return nil
}

// ClearPurchased moves every purchased item out of the active list in one
// atomic batch. Each moved item is copied into history unless an entry with
// the same canonical Spanish name already exists there. On failure neither
// collection changes.
func (s *Service) ClearPurchased() error {
	snap, err := s.Snapshot()
	if err != nil {
		return err
	}

	inHistory := make(map[string]bool, len(snap.History))
	for _, h := range snap.History {
		inHistory[canonical(h.Name.ES)] = true
	}

	var ops []store.BatchOp
	for _, it := range snap.Items {
		if !it.Purchased {
			continue
		}
		ops = append(ops, store.BatchOp{Collection: store.CollectionItems, Key: it.ID})
		name := canonical(it.Name.ES)
		if !inHistory[name] {
			inHistory[name] = true
			ops = append(ops, store.BatchOp{Collection: store.CollectionHistory, Record: itemRecord(it)})
		}
	}
	if len(ops) == 0 {
		return nil
	}

	if err := s.tree.UpdateBatch(ops); err != nil {
		return fmt.Errorf("clear purchased: %w", err)
	}
	s.publish()
	return nil
}

// EmptyList deletes every active item. It refuses to act without the
// caller's explicit confirmation. History is untouched.
func (s *Service) EmptyList(confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if err := s.tree.RemoveAll(store.CollectionItems); err != nil {
		return fmt.Errorf("empty list: %w", err)
	}
	s.publish()
	return nil
}
