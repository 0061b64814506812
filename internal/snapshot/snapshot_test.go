package snapshot

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pricetrack/pricetrack/internal/domain"
	"github.com/pricetrack/pricetrack/internal/store"
)

func newTestRepo(t *testing.T) *store.GormProductRepository {
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
	return store.NewGormProductRepository(db, node, "Uncategorized")
}

type recordingNotifier struct {
	calls int
}

func (n *recordingNotifier) OnProductMutated() { n.calls++ }

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := newTestRepo(t)
	for _, p := range []domain.Product{
		{Description: "Olive Oil", Price: 8.49, PlaceOfPurchase: "Market", Category: "Pantry", Barcode: "123"},
		{Description: "Rye Bread", Price: 2.20, PlaceOfPurchase: "Bakery"},
	} {
		prod := p
		if _, err := source.Insert(ctx, &prod); err != nil {
			t.Fatalf("seed insert failed: %v", err)
		}
	}

	var buf bytes.Buffer
	exporter := NewExporter(source, nil)
	if err := exporter.ExportCSV(ctx, &buf); err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Olive Oil") {
		t.Fatalf("export missing product: %s", buf.String())
	}

	target := newTestRepo(t)
	notifier := &recordingNotifier{}
	importer := NewExporter(target, notifier)

	inserted, skipped, err := importer.ImportCSV(ctx, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ImportCSV() error = %v", err)
	}
	if inserted != 2 || skipped != 0 {
		t.Fatalf("inserted=%d skipped=%d, want 2/0", inserted, skipped)
	}
	if notifier.calls != 1 {
		t.Errorf("restore must trigger one mutation notification, got %d", notifier.calls)
	}

	rows, err := target.SearchByDescription(ctx, "")
	if err != nil {
		t.Fatalf("SearchByDescription() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 restored products, got %d", len(rows))
	}
}

func TestImportSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	prod := domain.Product{Description: "Olive Oil", PlaceOfPurchase: "Market", Price: 8.49}
	if _, err := repo.Insert(ctx, &prod); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	var buf bytes.Buffer
	exporter := NewExporter(repo, nil)
	if err := exporter.ExportCSV(ctx, &buf); err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}

	notifier := &recordingNotifier{}
	importer := NewExporter(repo, notifier)
	inserted, skipped, err := importer.ImportCSV(ctx, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ImportCSV() error = %v", err)
	}
	if inserted != 0 || skipped != 1 {
		t.Errorf("inserted=%d skipped=%d, want 0/1", inserted, skipped)
	}
	if notifier.calls != 0 {
		t.Errorf("no mutation happened, notifier must stay quiet, got %d calls", notifier.calls)
	}
}

func TestExportXLSXProducesWorkbook(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	prod := domain.Product{Description: "Olive Oil", Price: 8.49}
	if _, err := repo.Insert(ctx, &prod); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	var buf bytes.Buffer
	exporter := NewExporter(repo, nil)
	if err := exporter.ExportXLSX(ctx, &buf); err != nil {
		t.Fatalf("ExportXLSX() error = %v", err)
	}
	// xlsx files are zip archives
	if !strings.HasPrefix(buf.String(), "PK") {
		t.Error("expected a zip-packaged workbook")
	}
}
