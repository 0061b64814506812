package store

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pricetrack/pricetrack/internal/domain"
)

// setupTestRepo creates a repository over an in-memory SQLite database.
func setupTestRepo(t *testing.T) *GormProductRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&domain.Product{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}
	return NewGormProductRepository(db, node, "Uncategorized")
}

// setUpdateDate pins a product's update date so ordering is deterministic.
func setUpdateDate(t *testing.T, r *GormProductRepository, id int64, ts time.Time) {
	t.Helper()
	if err := r.db.Model(&domain.Product{}).Where("id = ?", id).
		Update("update_date", ts).Error; err != nil {
		t.Fatalf("failed to pin update date: %v", err)
	}
}

func mustInsert(t *testing.T, r *GormProductRepository, p domain.Product) int64 {
	t.Helper()
	id, err := r.Insert(context.Background(), &p)
	if err != nil {
		t.Fatalf("Insert(%q) error = %v", p.Description, err)
	}
	return id
}

func TestInsertAndGetRoundTrip(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	in := domain.Product{
		Description:     "Olive oil 1L",
		Price:           8.49,
		PlaceOfPurchase: "Corner Market",
		Category:        "Pantry",
		Size:            "1L",
		Quantity:        "1",
		Barcode:         "4006381333931",
	}
	id, err := repo.Insert(ctx, &in)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if id == 0 {
		t.Fatal("Insert() returned zero id")
	}

	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Description != in.Description || got.Price != in.Price ||
		got.PlaceOfPurchase != in.PlaceOfPurchase || got.Category != in.Category ||
		got.Size != in.Size || got.Quantity != in.Quantity || got.Barcode != in.Barcode {
		t.Errorf("round trip mismatch: got %+v", got)
	}
	if got.UpdateDate.IsZero() {
		t.Error("UpdateDate was not assigned on insert")
	}
}

func TestInsertRejectsBlankDescription(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Insert(context.Background(), &domain.Product{Description: "   "})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestInsertRejectsNegativePrice(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Insert(context.Background(), &domain.Product{Description: "Milk", Price: -1})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestUpdateUnknownIDReturnsNotFound(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.Update(context.Background(), &domain.Product{ID: 12345, Description: "Ghost"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateRefreshesUpdateDate(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	id := mustInsert(t, repo, domain.Product{Description: "Butter", Price: 2.10})
	setUpdateDate(t, repo, id, time.Now().Add(-24*time.Hour))

	p, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	before := p.UpdateDate

	p.Price = 2.35
	if err := repo.Update(ctx, p); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	after, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !after.UpdateDate.After(before) {
		t.Errorf("UpdateDate not refreshed: before=%v after=%v", before, after.UpdateDate)
	}
	if after.Price != 2.35 {
		t.Errorf("price not persisted: %v", after.Price)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	id := mustInsert(t, repo, domain.Product{Description: "Jam", Price: 3})
	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	// deleting again, and deleting an id that never existed, both succeed
	if err := repo.Delete(ctx, id); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, 99999); err != nil {
		t.Errorf("Delete(unknown) error = %v", err)
	}
	if _, err := repo.Get(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestClearRemovesEverything(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	mustInsert(t, repo, domain.Product{Description: "One"})
	mustInsert(t, repo, domain.Product{Description: "Two"})

	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	rows, err := repo.SearchByDescription(ctx, "")
	if err != nil {
		t.Fatalf("SearchByDescription() error = %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected empty store, got %d rows", len(rows))
	}
}

func TestExistsDuplicateIsCaseInsensitive(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	id := mustInsert(t, repo, domain.Product{
		Description:     "Greek Yogurt",
		PlaceOfPurchase: "Corner Market",
	})

	dup, err := repo.ExistsDuplicate(ctx, "greek yogurt", "CORNER MARKET", 0)
	if err != nil {
		t.Fatalf("ExistsDuplicate() error = %v", err)
	}
	if !dup {
		t.Error("expected case-insensitive duplicate to be detected")
	}

	// the record itself is excluded during an edit
	dup, err = repo.ExistsDuplicate(ctx, "Greek Yogurt", "Corner Market", id)
	if err != nil {
		t.Fatalf("ExistsDuplicate() error = %v", err)
	}
	if dup {
		t.Error("record collided with itself during edit")
	}

	dup, err = repo.ExistsDuplicate(ctx, "Greek Yogurt", "Other Shop", 0)
	if err != nil {
		t.Fatalf("ExistsDuplicate() error = %v", err)
	}
	if dup {
		t.Error("different place must not count as duplicate")
	}
}

func TestWritesTrimPlaceOfPurchase(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	// untrimmed input, as it arrives from a CSV restore
	id := mustInsert(t, repo, domain.Product{
		Description:     "Olive Oil",
		PlaceOfPurchase: " Market",
	})

	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.PlaceOfPurchase != "Market" {
		t.Errorf("place not trimmed on insert: %q", got.PlaceOfPurchase)
	}

	for _, place := range []string{"Market", " Market", "MARKET "} {
		dup, err := repo.ExistsDuplicate(ctx, "Olive Oil", place, 0)
		if err != nil {
			t.Fatalf("ExistsDuplicate(%q) error = %v", place, err)
		}
		if !dup {
			t.Errorf("ExistsDuplicate(%q) = false, want true", place)
		}
	}

	got.PlaceOfPurchase = "Deli "
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	after, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if after.PlaceOfPurchase != "Deli" {
		t.Errorf("place not trimmed on update: %q", after.PlaceOfPurchase)
	}
}

func TestSearchByDescriptionSubstring(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	mustInsert(t, repo, domain.Product{Description: "Whole Milk"})
	mustInsert(t, repo, domain.Product{Description: "milkshake mix"})
	mustInsert(t, repo, domain.Product{Description: "Bread"})

	rows, err := repo.SearchByDescription(ctx, "MILK")
	if err != nil {
		t.Fatalf("SearchByDescription() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(rows))
	}
}

func TestListOrdering(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	older := mustInsert(t, repo, domain.Product{Description: "Older"})
	setUpdateDate(t, repo, older, base.Add(-time.Hour))
	newerB := mustInsert(t, repo, domain.Product{Description: "Beta"})
	setUpdateDate(t, repo, newerB, base)
	newerA := mustInsert(t, repo, domain.Product{Description: "Alpha"})
	setUpdateDate(t, repo, newerA, base)

	rows, err := repo.SearchByDescription(ctx, "")
	if err != nil {
		t.Fatalf("SearchByDescription() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	// newest first, description as tie-break
	if rows[0].Description != "Alpha" || rows[1].Description != "Beta" || rows[2].Description != "Older" {
		t.Errorf("wrong order: %q %q %q", rows[0].Description, rows[1].Description, rows[2].Description)
	}
}

func TestFilterByCategorySentinel(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	mustInsert(t, repo, domain.Product{Description: "No category"})
	mustInsert(t, repo, domain.Product{Description: "Cheese", Category: "Dairy"})

	rows, err := repo.FilterBy(ctx, "Uncategorized", "")
	if err != nil {
		t.Fatalf("FilterBy() error = %v", err)
	}
	if len(rows) != 1 || rows[0].Description != "No category" {
		t.Errorf("sentinel filter must match the uncategorized product, got %+v", rows)
	}

	rows, err = repo.FilterBy(ctx, "", "")
	if err != nil {
		t.Fatalf("FilterBy() error = %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("empty filter means no constraint, got %d rows", len(rows))
	}
}

func TestFilterByCategoryAndPlace(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	mustInsert(t, repo, domain.Product{Description: "Cheese", Category: "Dairy", PlaceOfPurchase: "Deli"})
	mustInsert(t, repo, domain.Product{Description: "Milk", Category: "Dairy", PlaceOfPurchase: "Market"})
	mustInsert(t, repo, domain.Product{Description: "Rye", Category: "Bakery", PlaceOfPurchase: "Deli"})

	rows, err := repo.FilterBy(ctx, "Dairy", "Deli")
	if err != nil {
		t.Fatalf("FilterBy() error = %v", err)
	}
	if len(rows) != 1 || rows[0].Description != "Cheese" {
		t.Errorf("expected only Cheese, got %+v", rows)
	}
}

func TestSearchByDescriptionFiltered(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	mustInsert(t, repo, domain.Product{Description: "Whole Milk", Category: "Dairy"})
	mustInsert(t, repo, domain.Product{Description: "Milk Chocolate", Category: "Sweets"})

	rows, err := repo.SearchByDescriptionFiltered(ctx, "milk", "Dairy", "")
	if err != nil {
		t.Fatalf("SearchByDescriptionFiltered() error = %v", err)
	}
	if len(rows) != 1 || rows[0].Description != "Whole Milk" {
		t.Errorf("expected only Whole Milk, got %+v", rows)
	}
}

func TestFilterByBarcode(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	mustInsert(t, repo, domain.Product{Description: "Soda", Barcode: "5449000000996"})
	mustInsert(t, repo, domain.Product{Description: "Water", Barcode: "3068320115900"})

	rows, err := repo.FilterByBarcode(ctx, "5449000000996")
	if err != nil {
		t.Fatalf("FilterByBarcode() error = %v", err)
	}
	if len(rows) != 1 || rows[0].Description != "Soda" {
		t.Errorf("expected exact barcode match, got %+v", rows)
	}
}

func TestDistinctPlacesContaining(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	mustInsert(t, repo, domain.Product{Description: "A", PlaceOfPurchase: "Corner Market"})
	mustInsert(t, repo, domain.Product{Description: "B", PlaceOfPurchase: "Corner Market"})
	mustInsert(t, repo, domain.Product{Description: "C", PlaceOfPurchase: "Central Market"})
	mustInsert(t, repo, domain.Product{Description: "D", PlaceOfPurchase: "Deli"})
	mustInsert(t, repo, domain.Product{Description: "E"})

	places, err := repo.DistinctPlacesContaining(ctx, "market")
	if err != nil {
		t.Fatalf("DistinctPlacesContaining() error = %v", err)
	}
	if len(places) != 2 || places[0] != "Central Market" || places[1] != "Corner Market" {
		t.Errorf("expected sorted distinct markets, got %v", places)
	}
}

func TestDistinctCategoriesAppliesSentinel(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	mustInsert(t, repo, domain.Product{Description: "A", Category: "Dairy"})
	mustInsert(t, repo, domain.Product{Description: "B", Category: "Bakery"})
	mustInsert(t, repo, domain.Product{Description: "C"})

	categories, err := repo.DistinctCategories(ctx, "Uncategorized")
	if err != nil {
		t.Fatalf("DistinctCategories() error = %v", err)
	}
	if len(categories) != 3 {
		t.Fatalf("expected 3 categories, got %v", categories)
	}
	if categories[0] != "Bakery" || categories[1] != "Dairy" || categories[2] != "Uncategorized" {
		t.Errorf("wrong categories: %v", categories)
	}
}
