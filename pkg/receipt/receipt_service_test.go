package receipt

import (
	"context"
	"io"
	"testing"

	"Cooki-Backend/domain"
	"Cooki-Backend/entities"
	"Cooki-Backend/internal/testutil"
	"Cooki-Backend/pkg/event"
	"Cooki-Backend/pkg/item"
	"Cooki-Backend/pkg/pantry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubParser struct {
	data  *domain.ReceiptData
	err   error
	calls int
	seen  []string
}

func (p *stubParser) ProcessReceipt(ctx context.Context, file File) (*domain.ReceiptData, error) {
	p.calls++
	src, err := file.Open(ctx)
	if err != nil {
		return nil, &domain.FileAccessError{Name: file.Name(), Err: err}
	}
	defer src.Close()
	b, _ := io.ReadAll(src)
	p.seen = append(p.seen, string(b))
	return p.data, p.err
}

type receiptFixture struct {
	store   *testutil.Store
	objects *testutil.ObjectStore
	parser  *stubParser
	service ReceiptService
	alice   domain.Session
	bob     domain.Session
	home    *entities.Pantry
}

func setupReceipts(t *testing.T) receiptFixture {
	t.Helper()
	store := testutil.NewStore()
	objects := testutil.NewObjectStore()
	events := event.NewEventService(store, store)
	pantries := pantry.NewPantryService(store, events)
	items := item.NewItemService(store, pantries, events, objects)
	parser := &stubParser{data: &domain.ReceiptData{
		StoreName: "FreshMart",
		Items: []domain.ReceiptItem{
			{Name: "Milk", Qty: 2, Weight: &domain.ReceiptWeight{Value: 1, Unit: "l"}},
			{Name: "Bread", Qty: 1},
		},
	}}

	alice := store.SeedUser("Alice")
	bob := store.SeedUser("Bob")
	home := store.SeedPantry("Home", alice)
	other := store.SeedPantry("Elsewhere", bob)

	return receiptFixture{
		store:   store,
		objects: objects,
		parser:  parser,
		service: NewReceiptService(store, parser, NewConverter(), pantries, items, objects),
		alice:   domain.Session{UserID: alice.ID, PantryID: home.ID},
		bob:     domain.Session{UserID: bob.ID, PantryID: other.ID},
		home:    home,
	}
}

func upload(t *testing.T, name string) domain.UploadReceiptRequest {
	t.Helper()
	header, err := testutil.FileHeader("file", name, "image/jpeg", []byte("receipt"))
	require.NoError(t, err)
	return domain.UploadReceiptRequest{ReceiptFile: header}
}

func TestUploadReceiptPreviewsWithoutSaving(t *testing.T) {
	f := setupReceipts(t)

	res, err := f.service.UploadReceipt(context.Background(), f.alice, upload(t, "shop.jpg"))
	require.NoError(t, err)

	assert.Equal(t, entities.ReceiptScanProcessed, res.Status)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "Milk", res.Items[0].Title)
	assert.Empty(t, f.store.ItemsIn(f.home.ID))

	scan, err := f.service.GetReceiptScan(context.Background(), f.alice, res.ScanID)
	require.NoError(t, err)
	assert.Equal(t, "FreshMart", scan.StoreName)
	assert.Equal(t, f.home.ID.String(), scan.PantryID)
	require.NotNil(t, scan.Receipt)
	assert.Len(t, scan.Receipt.Items, 2)

	assert.Len(t, f.objects.Objects, 1)
	assert.Equal(t, []string{"receipt"}, f.parser.seen)
}

func TestUploadReceiptRejectsUnknownExtension(t *testing.T) {
	f := setupReceipts(t)

	_, err := f.service.UploadReceipt(context.Background(), f.alice, upload(t, "notes.txt"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	assert.Zero(t, f.parser.calls)
	assert.Empty(t, f.objects.Objects)
}

func TestUploadReceiptParserFailureMarksScanFailed(t *testing.T) {
	f := setupReceipts(t)
	f.parser.err = &domain.HTTPError{StatusCode: 500}

	_, err := f.service.UploadReceipt(context.Background(), f.alice, upload(t, "shop.jpg"))
	require.ErrorIs(t, err, domain.ErrTransport)

	require.Len(t, f.store.Scans, 1)
	var scanID string
	for id, scan := range f.store.Scans {
		scanID = id.String()
		assert.Equal(t, entities.ReceiptScanFailed, scan.Status)
		assert.NotEmpty(t, scan.ErrorMessage)
	}

	f.parser.err = nil
	res, err := f.service.RetryReceipt(context.Background(), f.alice, scanID)
	require.NoError(t, err)
	assert.Equal(t, entities.ReceiptScanProcessed, res.Status)
	assert.Equal(t, []string{"receipt", "receipt"}, f.parser.seen)
}

func TestSaveScannedItems(t *testing.T) {
	f := setupReceipts(t)
	ctx := context.Background()

	res, err := f.service.UploadReceipt(ctx, f.alice, upload(t, "shop.jpg"))
	require.NoError(t, err)

	saved, err := f.service.SaveScannedItems(ctx, f.alice, res.ScanID, domain.SaveScannedItemsRequest{})
	require.NoError(t, err)
	assert.Len(t, saved.Saved, 2)
	assert.Empty(t, saved.Failed)

	items := f.store.ItemsIn(f.home.ID)
	require.Len(t, items, 2)
	for _, it := range items {
		require.NotNil(t, it.ReceiptScanID)
		assert.Equal(t, res.ScanID, it.ReceiptScanID.String())
	}

	_, err = f.service.SaveScannedItems(ctx, f.alice, res.ScanID, domain.SaveScannedItemsRequest{})
	assert.ErrorIs(t, err, domain.ErrReceiptAlreadySaved)
}

func TestSaveEditedItemsReportsFailures(t *testing.T) {
	f := setupReceipts(t)
	ctx := context.Background()

	res, err := f.service.UploadReceipt(ctx, f.alice, upload(t, "shop.jpg"))
	require.NoError(t, err)

	saved, err := f.service.SaveScannedItems(ctx, f.alice, res.ScanID, domain.SaveScannedItemsRequest{
		Items: []domain.ScannedItemRequest{
			{Title: "Whole milk", Quantity: domain.QuantityRequest{Value: 2, Unit: "l"}, Location: domain.LocationFridge, Category: domain.CategoryDairy},
			{Title: "Bread", Quantity: domain.QuantityRequest{Value: 1, Unit: "loaf"}},
			{Title: "Cheese", Quantity: domain.QuantityRequest{Value: 200, Unit: "g"}, ExpiryDate: "not-a-date"},
		},
	})
	require.NoError(t, err)

	require.Len(t, saved.Saved, 1)
	assert.Equal(t, "Whole milk", saved.Saved[0].Title)
	require.Len(t, saved.Failed, 2)
	assert.Equal(t, 1, saved.Failed[0].Index)
	assert.Equal(t, 2, saved.Failed[1].Index)
	assert.Equal(t, entities.ReceiptScanProcessed, saved.Status)
	assert.Len(t, f.store.ItemsIn(f.home.ID), 1)
}

func TestResubmitFixedLinesSavesOnlyFailedOnes(t *testing.T) {
	f := setupReceipts(t)
	ctx := context.Background()

	res, err := f.service.UploadReceipt(ctx, f.alice, upload(t, "shop.jpg"))
	require.NoError(t, err)

	lines := []domain.ScannedItemRequest{
		{Title: "Whole milk", Quantity: domain.QuantityRequest{Value: 2, Unit: "l"}},
		{Title: "Bread", Quantity: domain.QuantityRequest{Value: 1, Unit: "loaf"}},
	}
	first, err := f.service.SaveScannedItems(ctx, f.alice, res.ScanID, domain.SaveScannedItemsRequest{Items: lines})
	require.NoError(t, err)
	require.Len(t, first.Saved, 1)
	require.Len(t, first.Failed, 1)

	scan, err := f.service.GetReceiptScan(ctx, f.alice, res.ScanID)
	require.NoError(t, err)
	assert.Equal(t, entities.ReceiptScanProcessed, scan.Status)
	assert.Equal(t, []int{0}, scan.SavedLines)

	lines[1].Quantity.Unit = "piece"
	second, err := f.service.SaveScannedItems(ctx, f.alice, res.ScanID, domain.SaveScannedItemsRequest{Items: lines})
	require.NoError(t, err)
	require.Len(t, second.Saved, 1)
	assert.Equal(t, "Bread", second.Saved[0].Title)
	assert.Equal(t, []int{0}, second.Skipped)
	assert.Empty(t, second.Failed)
	assert.Equal(t, entities.ReceiptScanCompleted, second.Status)

	items := f.store.ItemsIn(f.home.ID)
	require.Len(t, items, 2)

	_, err = f.service.SaveScannedItems(ctx, f.alice, res.ScanID, domain.SaveScannedItemsRequest{Items: lines})
	assert.ErrorIs(t, err, domain.ErrReceiptAlreadySaved)
	assert.Len(t, f.store.ItemsIn(f.home.ID), 2)
}

func TestReceiptScanIsPantryScoped(t *testing.T) {
	f := setupReceipts(t)
	ctx := context.Background()

	res, err := f.service.UploadReceipt(ctx, f.alice, upload(t, "shop.jpg"))
	require.NoError(t, err)

	_, err = f.service.GetReceiptScan(ctx, f.bob, res.ScanID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.service.SaveScannedItems(ctx, f.bob, res.ScanID, domain.SaveScannedItemsRequest{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Empty(t, f.store.ItemsIn(f.home.ID))

	_, err = f.service.GetReceiptScan(ctx, f.alice, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, domain.ErrReceiptScanNotFound)
	_, err = f.service.RetryReceipt(ctx, f.alice, "receipt-1")
	assert.ErrorIs(t, err, domain.ErrReceiptScanNotFound)
}

func TestUploadReceiptNeedsPantry(t *testing.T) {
	f := setupReceipts(t)
	session := domain.Session{UserID: f.alice.UserID}

	_, err := f.service.UploadReceipt(context.Background(), session, upload(t, "shop.jpg"))
	assert.ErrorIs(t, err, domain.ErrNoPantrySelected)
	assert.Zero(t, f.parser.calls)
}
