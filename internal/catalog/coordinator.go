// Package catalog mediates between the product store and the
// presentation layer. A Coordinator tracks two independent view axes
// (search and filter), keeps the derived visible product list
// consistent with storage, and publishes every change on an event bus.
package catalog

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/asaskevich/EventBus"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/pricetrack/pricetrack/internal/domain"
	"github.com/pricetrack/pricetrack/internal/store"
)

// Event bus topics published by the Coordinator. Publications run
// synchronously on the Coordinator's event loop: a subscriber must not
// call back into Visible or Modes from its handler, or the loop
// deadlocks. Hand the payload off to another goroutine instead.
const (
	TopicVisibleChanged = "catalog.visible.changed"
	TopicStorageError   = "catalog.storage.error"
)

// DefaultSentinelCategory is the label standing in for products
// without a category, in display and in filters.
const DefaultSentinelCategory = "Uncategorized"

// DefaultPredictionMinChars is the minimum typed length before place
// autocomplete queries the store.
const DefaultPredictionMinChars = 2

type SearchMode int

const (
	SearchIdle SearchMode = iota
	Searching
)

type FilterMode int

const (
	FilterIdle FilterMode = iota
	Filtering
)

// Coordinator owns the transient view state: mode axes, active
// criteria and the derived result sets. All state transitions run on a
// single internal event loop; store queries run on a worker pool and
// post their results back to the loop tagged with a per-axis sequence
// number so a stale result can never overwrite a newer one.
type Coordinator struct {
	repo store.ProductRepository
	bus  EventBus.Bus
	pool *ants.Pool

	events chan func()
	done   chan struct{}

	sentinel           string
	predictionMinChars int

	// Loop-confined state. Never touched outside the event loop.
	searchMode     SearchMode
	filterMode     FilterMode
	searchText     string
	categoryFilter string
	placeFilter    string
	barcodeFilter  string

	fullList      []domain.Product
	searchResults []domain.Product
	filterResults []domain.Product
	visible       []domain.Product

	listSeq, listApplied     uint64
	searchSeq, searchApplied uint64
	filterSeq, filterApplied uint64
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithSentinelCategory overrides the uncategorized sentinel label.
func WithSentinelCategory(label string) Option {
	return func(c *Coordinator) { c.sentinel = label }
}

// WithPredictionMinChars overrides the autocomplete threshold.
func WithPredictionMinChars(n int) Option {
	return func(c *Coordinator) { c.predictionMinChars = n }
}

// NewCoordinator creates a Coordinator. The repository and bus are
// injected; the Coordinator is constructed once at process start and
// passed by reference to its consumers.
func NewCoordinator(repo store.ProductRepository, bus EventBus.Bus, opts ...Option) (*Coordinator, error) {
	pool, err := ants.NewPool(8)
	if err != nil {
		return nil, err
	}
	c := &Coordinator{
		repo:               repo,
		bus:                bus,
		pool:               pool,
		events:             make(chan func(), 256),
		done:               make(chan struct{}),
		sentinel:           DefaultSentinelCategory,
		predictionMinChars: DefaultPredictionMinChars,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start launches the event loop and schedules the initial full-list load.
func (c *Coordinator) Start(ctx context.Context) {
	go c.loop(ctx)
	c.post(func() { c.reloadFullList() })
}

// Stop shuts the Coordinator down. Pending pool results are discarded.
func (c *Coordinator) Stop() {
	close(c.done)
	c.pool.Release()
}

func (c *Coordinator) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case fn := <-c.events:
			fn()
		}
	}
}

// post hands a state transition to the event loop.
func (c *Coordinator) post(fn func()) {
	select {
	case c.events <- fn:
	case <-c.done:
	}
}

// submit runs a store query off the event loop. If the pool rejects the
// task it runs inline as a degraded fallback.
func (c *Coordinator) submit(task func()) {
	if err := c.pool.Submit(task); err != nil {
		task()
	}
}

// SetSearchText enters search mode and recomputes the search result
// set for the given text. Calling with empty text keeps search mode
// active; the result set then mirrors the filter set or the full list.
func (c *Coordinator) SetSearchText(text string) {
	c.post(func() {
		c.searchMode = Searching
		c.searchText = text
		c.recomputeSearch()
	})
}

// ClearSearch leaves search mode and discards the search result set.
func (c *Coordinator) ClearSearch() {
	c.post(func() {
		c.searchMode = SearchIdle
		c.searchText = ""
		c.searchResults = nil
		c.refreshVisible()
	})
}

// ApplyAttributeFilter enters filter mode with the given category and
// place constraints and recomputes the filter result set.
func (c *Coordinator) ApplyAttributeFilter(category, place string) {
	c.post(func() {
		c.filterMode = Filtering
		c.categoryFilter = category
		c.placeFilter = place
		c.barcodeFilter = ""
		c.recomputeFilter()
		if c.searchMode == Searching {
			c.recomputeSearch()
		}
	})
}

// ApplyBarcodeFilter enters filter mode with a barcode result set. It
// bypasses the attribute filter path but shares the filter-mode
// visibility rule.
func (c *Coordinator) ApplyBarcodeFilter(code string) {
	c.post(func() {
		c.filterMode = Filtering
		c.categoryFilter = ""
		c.placeFilter = ""
		c.barcodeFilter = code
		c.recomputeFilter()
		if c.searchMode == Searching {
			c.recomputeSearch()
		}
	})
}

// ClearFilters leaves filter mode and discards the filter result set.
func (c *Coordinator) ClearFilters() {
	c.post(func() {
		c.filterMode = FilterIdle
		c.categoryFilter = ""
		c.placeFilter = ""
		c.barcodeFilter = ""
		c.filterResults = nil
		if c.searchMode == Searching {
			c.recomputeSearch()
		} else {
			c.refreshVisible()
		}
	})
}

// OnProductMutated re-derives every active result set after an insert,
// update, delete or bulk restore, so the visible list never shows a
// deleted product and never misses a fresh one.
func (c *Coordinator) OnProductMutated() {
	c.post(func() {
		c.reloadFullList()
		if c.filterMode == Filtering {
			c.recomputeFilter()
		}
		if c.searchMode == Searching {
			c.recomputeSearch()
		}
	})
}

// PlacePredictions returns autocomplete suggestions for a partially
// typed place of purchase. Below the threshold it returns nothing
// without touching the store.
func (c *Coordinator) PlacePredictions(ctx context.Context, partial string) ([]string, error) {
	partial = strings.TrimSpace(partial)
	if utf8.RuneCountInString(partial) < c.predictionMinChars {
		return nil, nil
	}
	return c.repo.DistinctPlacesContaining(ctx, partial)
}

// AddProduct runs the duplicate guard and inserts the product. The
// write is refused before reaching storage when a live product already
// carries the same description and place.
func (c *Coordinator) AddProduct(ctx context.Context, p *domain.Product) (int64, error) {
	dup, err := c.repo.ExistsDuplicate(ctx, p.Description, p.PlaceOfPurchase, 0)
	if err != nil {
		return 0, err
	}
	if dup {
		return 0, store.ErrDuplicate
	}
	id, err := c.repo.Insert(ctx, p)
	if err != nil {
		return 0, err
	}
	c.OnProductMutated()
	return id, nil
}

// UpdateProduct runs the duplicate guard (excluding the record itself)
// and persists the edit.
func (c *Coordinator) UpdateProduct(ctx context.Context, p *domain.Product) error {
	dup, err := c.repo.ExistsDuplicate(ctx, p.Description, p.PlaceOfPurchase, p.ID)
	if err != nil {
		return err
	}
	if dup {
		return store.ErrDuplicate
	}
	if err := c.repo.Update(ctx, p); err != nil {
		return err
	}
	c.OnProductMutated()
	return nil
}

// UpdatePrice changes only the price of an existing product.
func (c *Coordinator) UpdatePrice(ctx context.Context, id int64, price float64) error {
	p, err := c.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	p.Price = price
	if err := c.repo.Update(ctx, p); err != nil {
		return err
	}
	c.OnProductMutated()
	return nil
}

// DeleteProduct removes a product and re-derives the visible list.
// Deleting an unknown id succeeds silently, matching the store.
func (c *Coordinator) DeleteProduct(ctx context.Context, id int64) error {
	if err := c.repo.Delete(ctx, id); err != nil {
		return err
	}
	c.OnProductMutated()
	return nil
}

// Visible returns a snapshot of the current visible list. The read
// runs through the event loop so it observes a consistent state. Must
// not be called from a bus subscriber's handler (see the topic docs).
func (c *Coordinator) Visible() []domain.Product {
	out := make(chan []domain.Product, 1)
	c.post(func() {
		out <- append([]domain.Product(nil), c.visible...)
	})
	select {
	case v := <-out:
		return v
	case <-c.done:
		return nil
	}
}

// Modes returns the current search and filter modes. Like Visible, it
// must not be called from a bus subscriber's handler.
func (c *Coordinator) Modes() (SearchMode, FilterMode) {
	type modes struct {
		s SearchMode
		f FilterMode
	}
	out := make(chan modes, 1)
	c.post(func() { out <- modes{c.searchMode, c.filterMode} })
	select {
	case m := <-out:
		return m.s, m.f
	case <-c.done:
		return SearchIdle, FilterIdle
	}
}

// reloadFullList refreshes the live full product list. Runs on the loop.
func (c *Coordinator) reloadFullList() {
	c.listSeq++
	seq := c.listSeq
	c.submit(func() {
		rows, err := c.repo.SearchByDescription(context.Background(), "")
		c.post(func() {
			if seq <= c.listApplied {
				return
			}
			c.listApplied = seq
			if err != nil {
				c.publishError(err)
				return
			}
			c.fullList = rows
			c.refreshVisible()
		})
	})
}

// recomputeSearch derives the search result set for the current text
// and filter constraints. Runs on the loop.
func (c *Coordinator) recomputeSearch() {
	c.searchSeq++
	seq := c.searchSeq
	text := c.searchText
	filtering := c.filterMode == Filtering
	category, place := c.categoryFilter, c.placeFilter
	barcode := c.barcodeFilter

	c.submit(func() {
		ctx := context.Background()
		var rows []domain.Product
		var err error
		switch {
		case text == "" && filtering && barcode != "":
			rows, err = c.repo.FilterByBarcode(ctx, barcode)
		case text == "" && filtering:
			rows, err = c.repo.FilterBy(ctx, category, place)
		case text == "":
			rows, err = c.repo.SearchByDescription(ctx, "")
		case filtering:
			rows, err = c.repo.SearchByDescriptionFiltered(ctx, text, category, place)
		default:
			rows, err = c.repo.SearchByDescription(ctx, text)
		}
		c.post(func() {
			if seq <= c.searchApplied {
				return
			}
			c.searchApplied = seq
			if err != nil {
				c.publishError(err)
				return
			}
			c.searchResults = rows
			c.refreshVisible()
		})
	})
}

// recomputeFilter derives the filter result set, either from the
// attribute constraints or from the barcode. Runs on the loop.
func (c *Coordinator) recomputeFilter() {
	c.filterSeq++
	seq := c.filterSeq
	category, place := c.categoryFilter, c.placeFilter
	barcode := c.barcodeFilter

	c.submit(func() {
		ctx := context.Background()
		var rows []domain.Product
		var err error
		if barcode != "" {
			rows, err = c.repo.FilterByBarcode(ctx, barcode)
		} else {
			rows, err = c.repo.FilterBy(ctx, category, place)
		}
		c.post(func() {
			if seq <= c.filterApplied {
				return
			}
			c.filterApplied = seq
			if err != nil {
				c.publishError(err)
				return
			}
			c.filterResults = rows
			c.refreshVisible()
		})
	})
}

// refreshVisible applies the visibility resolution rule and notifies
// subscribers. Searching wins over Filtering, Filtering over the full
// list. Runs on the loop.
func (c *Coordinator) refreshVisible() {
	switch {
	case c.searchMode == Searching:
		c.visible = c.searchResults
	case c.filterMode == Filtering:
		c.visible = c.filterResults
	default:
		c.visible = c.fullList
	}
	c.bus.Publish(TopicVisibleChanged, append([]domain.Product(nil), c.visible...))
}

// publishError surfaces a storage failure without touching the view
// state: the visible list keeps its last consistent value.
func (c *Coordinator) publishError(err error) {
	zap.L().Error("catalog storage failure", zap.Error(err))
	c.bus.Publish(TopicStorageError, err)
}
