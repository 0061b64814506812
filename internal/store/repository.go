package store

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/pkg/errors"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/pricetrack/pricetrack/internal/domain"
)

// ProductRepository handles database operations for tracked products.
// All list results are ordered by update date descending with the
// description as an ascending tie-break.
type ProductRepository interface {
	// Insert assigns an id and update date to the product and persists it
	Insert(ctx context.Context, p *domain.Product) (int64, error)

	// Update persists the mutable fields of an existing product and
	// refreshes its update date
	Update(ctx context.Context, p *domain.Product) error

	// Delete removes a product by id, silently succeeding if absent
	Delete(ctx context.Context, id int64) error

	// Clear removes all products
	Clear(ctx context.Context) error

	// Get retrieves a product by id
	Get(ctx context.Context, id int64) (*domain.Product, error)

	// ExistsDuplicate reports whether another live product carries the
	// same description and place of purchase, compared case-insensitively.
	// excludeID is ignored during the comparison so an edit does not
	// collide with the record being edited
	ExistsDuplicate(ctx context.Context, description, place string, excludeID int64) (bool, error)

	// SearchByDescription returns products whose description contains the
	// substring anywhere, case-insensitively
	SearchByDescription(ctx context.Context, substring string) ([]domain.Product, error)

	// SearchByDescriptionFiltered is SearchByDescription constrained by
	// category and place filters (empty filter = no constraint)
	SearchByDescriptionFiltered(ctx context.Context, substring, category, place string) ([]domain.Product, error)

	// FilterBy returns all products meeting both category and place
	// constraints. A category filter equal to the sentinel label matches
	// products without a category
	FilterBy(ctx context.Context, category, place string) ([]domain.Product, error)

	// FilterByBarcode returns products with an exact barcode match
	FilterByBarcode(ctx context.Context, code string) ([]domain.Product, error)

	// DistinctPlacesContaining returns distinct places of purchase
	// containing the substring, sorted alphabetically ascending
	DistinctPlacesContaining(ctx context.Context, substring string) ([]string, error)

	// DistinctCategories returns every category in use, with the empty
	// category replaced by the sentinel label, sorted ascending
	DistinctCategories(ctx context.Context, sentinel string) ([]string, error)
}

// GormProductRepository is the GORM implementation of ProductRepository
type GormProductRepository struct {
	db       *gorm.DB
	node     *snowflake.Node
	sentinel string
	coll     *collate.Collator
}

// NewGormProductRepository creates a new GORM-based repository. Product
// ids come from the snowflake node so ids are never reused after a
// deletion. sentinel is the label standing in for the empty category.
func NewGormProductRepository(db *gorm.DB, node *snowflake.Node, sentinel string) *GormProductRepository {
	return &GormProductRepository{
		db:       db,
		node:     node,
		sentinel: sentinel,
		coll:     collate.New(language.English),
	}
}

// Sentinel returns the label standing in for the empty category.
func (r *GormProductRepository) Sentinel() string {
	return r.sentinel
}

func (r *GormProductRepository) Insert(ctx context.Context, p *domain.Product) (int64, error) {
	p.Description = strings.TrimSpace(p.Description)
	p.PlaceOfPurchase = strings.TrimSpace(p.PlaceOfPurchase)
	if p.Description == "" {
		return 0, errors.Wrap(ErrValidation, "description is required")
	}
	if p.Price < 0 {
		return 0, errors.Wrap(ErrValidation, "price must not be negative")
	}
	p.ID = r.node.Generate().Int64()
	p.UpdateDate = time.Now()
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return 0, err
	}
	return p.ID, nil
}

func (r *GormProductRepository) Update(ctx context.Context, p *domain.Product) error {
	p.Description = strings.TrimSpace(p.Description)
	p.PlaceOfPurchase = strings.TrimSpace(p.PlaceOfPurchase)
	if p.Description == "" {
		return errors.Wrap(ErrValidation, "description is required")
	}
	if p.Price < 0 {
		return errors.Wrap(ErrValidation, "price must not be negative")
	}
	var existing domain.Product
	err := r.db.WithContext(ctx).First(&existing, p.ID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case err != nil:
		return err
	}
	p.UpdateDate = time.Now()
	return r.db.WithContext(ctx).Save(p).Error
}

// Delete silently succeeds for unknown ids. Documented behavior,
// pending product-owner confirmation.
func (r *GormProductRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&domain.Product{}, id).Error
}

func (r *GormProductRepository) Clear(ctx context.Context) error {
	return r.db.WithContext(ctx).Where("1 = 1").Delete(&domain.Product{}).Error
}

func (r *GormProductRepository) Get(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).First(&p, id).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, err
	}
	return &p, nil
}

func (r *GormProductRepository) ExistsDuplicate(ctx context.Context, description, place string, excludeID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("LOWER(description) = ? AND LOWER(place_of_purchase) = ?",
			strings.ToLower(strings.TrimSpace(description)),
			strings.ToLower(strings.TrimSpace(place))).
		Where("id <> ?", excludeID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormProductRepository) SearchByDescription(ctx context.Context, substring string) ([]domain.Product, error) {
	return r.SearchByDescriptionFiltered(ctx, substring, "", "")
}

func (r *GormProductRepository) SearchByDescriptionFiltered(ctx context.Context, substring, category, place string) ([]domain.Product, error) {
	db := r.db.WithContext(ctx).Model(&domain.Product{})
	if substring != "" {
		db = r.descriptionContains(db, substring)
	}
	db = r.categoryScope(db, category)
	db = placeScope(db, place)

	var rows []domain.Product
	if err := ordered(db).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *GormProductRepository) FilterBy(ctx context.Context, category, place string) ([]domain.Product, error) {
	db := r.db.WithContext(ctx).Model(&domain.Product{})
	db = r.categoryScope(db, category)
	db = placeScope(db, place)

	var rows []domain.Product
	if err := ordered(db).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *GormProductRepository) FilterByBarcode(ctx context.Context, code string) ([]domain.Product, error) {
	var rows []domain.Product
	err := ordered(r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("barcode = ?", code)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *GormProductRepository) DistinctPlacesContaining(ctx context.Context, substring string) ([]string, error) {
	var places []string
	err := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Distinct("place_of_purchase").
		Where("place_of_purchase <> ''").
		Where("LOWER(place_of_purchase) LIKE ?", "%"+strings.ToLower(substring)+"%").
		Pluck("place_of_purchase", &places).Error
	if err != nil {
		return nil, err
	}
	r.coll.SortStrings(places)
	return places, nil
}

func (r *GormProductRepository) DistinctCategories(ctx context.Context, sentinel string) ([]string, error) {
	var raw []string
	err := r.db.WithContext(ctx).
		Model(&domain.Product{}).
		Distinct("category").
		Pluck("category", &raw).Error
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(raw))
	categories := make([]string, 0, len(raw))
	for _, cat := range raw {
		if cat == "" {
			cat = sentinel
		}
		if _, ok := seen[cat]; ok {
			continue
		}
		seen[cat] = struct{}{}
		categories = append(categories, cat)
	}
	r.coll.SortStrings(categories)
	return categories, nil
}

// categoryScope narrows a query by category. The sentinel label matches
// products whose category is empty, which is how "uncategorized" is stored.
func (r *GormProductRepository) categoryScope(db *gorm.DB, category string) *gorm.DB {
	switch category {
	case "":
		return db
	case r.sentinel:
		return db.Where("(category = '' OR category = ?)", category)
	default:
		return db.Where("category = ?", category)
	}
}

func placeScope(db *gorm.DB, place string) *gorm.DB {
	if place == "" {
		return db
	}
	return db.Where("place_of_purchase = ?", place)
}

func (r *GormProductRepository) descriptionContains(db *gorm.DB, substring string) *gorm.DB {
	if strings.EqualFold(r.db.Name(), "postgres") {
		return db.Where("description ILIKE ?", "%"+substring+"%")
	}
	return db.Where("LOWER(description) LIKE ?", "%"+strings.ToLower(substring)+"%")
}

func ordered(db *gorm.DB) *gorm.DB {
	return db.Order("update_date DESC").Order("description ASC")
}
