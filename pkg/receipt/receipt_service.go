package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"Cooki-Backend/domain"
	"Cooki-Backend/entities"
	"Cooki-Backend/internal/utils/storage"
	"Cooki-Backend/pkg/item"
	"Cooki-Backend/pkg/pantry"
	"Cooki-Backend/pkg/quantity"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	ReceiptService interface {
		UploadReceipt(ctx context.Context, session domain.Session, req domain.UploadReceiptRequest) (domain.UploadReceiptResponse, error)
		ImportReceipt(ctx context.Context, session domain.Session, file File) (domain.SaveScannedItemsResponse, error)
		GetReceiptScan(ctx context.Context, session domain.Session, id string) (domain.ReceiptScanResponse, error)
		RetryReceipt(ctx context.Context, session domain.Session, id string) (domain.UploadReceiptResponse, error)
		SaveScannedItems(ctx context.Context, session domain.Session, id string, req domain.SaveScannedItemsRequest) (domain.SaveScannedItemsResponse, error)
	}

	receiptService struct {
		receiptRepository ReceiptRepository
		parser            Parser
		converter         *Converter
		pantryService     pantry.PantryService
		itemService       item.ItemService
		s3                storage.AwsS3
	}
)

func NewReceiptService(
	receiptRepository ReceiptRepository,
	parser Parser,
	converter *Converter,
	pantryService pantry.PantryService,
	itemService item.ItemService,
	s3 storage.AwsS3,
) ReceiptService {
	return &receiptService{
		receiptRepository: receiptRepository,
		parser:            parser,
		converter:         converter,
		pantryService:     pantryService,
		itemService:       itemService,
		s3:                s3,
	}
}

// UploadReceipt archives the upload, parses it and returns the converted items
// as a preview. Nothing is added to the pantry until SaveScannedItems.
func (s *receiptService) UploadReceipt(ctx context.Context, session domain.Session, req domain.UploadReceiptRequest) (domain.UploadReceiptResponse, error) {
	scan, data, err := s.scan(ctx, session, FormFile{Header: req.ReceiptFile})
	if err != nil {
		return domain.UploadReceiptResponse{}, err
	}
	return s.preview(scan, data, session)
}

// ImportReceipt parses a receipt and saves every converted line in one call.
func (s *receiptService) ImportReceipt(ctx context.Context, session domain.Session, file File) (domain.SaveScannedItemsResponse, error) {
	scan, _, err := s.scan(ctx, session, file)
	if err != nil {
		return domain.SaveScannedItemsResponse{}, err
	}
	return s.SaveScannedItems(ctx, session, scan.ID.String(), domain.SaveScannedItemsRequest{})
}

func (s *receiptService) GetReceiptScan(ctx context.Context, session domain.Session, id string) (domain.ReceiptScanResponse, error) {
	scan, err := s.authorizedScan(ctx, session, id)
	if err != nil {
		return domain.ReceiptScanResponse{}, err
	}

	res := domain.ReceiptScanResponse{
		ID:           scan.ID.String(),
		PantryID:     scan.PantryID.String(),
		FileName:     scan.FileName,
		Status:       scan.Status,
		StoreName:    scan.StoreName,
		ErrorMessage: scan.ErrorMessage,
		SavedLines:   scan.SavedIndexes(),
		CreatedAt:    scan.CreatedAt,
	}
	if data, err := decodeResults(scan); err == nil {
		res.Receipt = data
	}
	return res, nil
}

// RetryReceipt parses the archived file of a failed or processed scan again.
// Lines saved before the retry keep their indexes and are not saved twice.
func (s *receiptService) RetryReceipt(ctx context.Context, session domain.Session, id string) (domain.UploadReceiptResponse, error) {
	scan, err := s.authorizedScan(ctx, session, id)
	if err != nil {
		return domain.UploadReceiptResponse{}, err
	}
	if scan.Status == entities.ReceiptScanCompleted {
		return domain.UploadReceiptResponse{}, domain.ErrReceiptAlreadySaved
	}

	file := StoredFile{Key: scan.FileKey, FileName: scan.FileName, Store: s.s3}
	data, err := s.process(ctx, scan, file)
	if err != nil {
		return domain.UploadReceiptResponse{}, err
	}
	return s.preview(scan, data, session)
}

// SaveScannedItems persists the scan's items one by one through the pantry
// gate. A failing item is reported and does not undo the items saved before it.
// Lines saved by an earlier call are skipped, so the same list can be sent
// again with the failed lines fixed. The scan completes once every line is in.
func (s *receiptService) SaveScannedItems(ctx context.Context, session domain.Session, id string, req domain.SaveScannedItemsRequest) (domain.SaveScannedItemsResponse, error) {
	scan, err := s.authorizedScan(ctx, session, id)
	if err != nil {
		return domain.SaveScannedItemsResponse{}, err
	}
	switch scan.Status {
	case entities.ReceiptScanProcessed:
	case entities.ReceiptScanCompleted:
		return domain.SaveScannedItemsResponse{}, domain.ErrReceiptAlreadySaved
	default:
		return domain.SaveScannedItemsResponse{}, domain.ErrReceiptNotProcessed
	}

	target := domain.Session{UserID: session.UserID, PantryID: scan.PantryID}
	saved := scan.Saved()

	var items []*entities.Item
	var failed []domain.ItemFailure
	if len(req.Items) > 0 {
		items, failed = s.fromEdited(req.Items, target, saved)
	} else {
		data, err := decodeResults(scan)
		if err != nil {
			return domain.SaveScannedItemsResponse{}, err
		}
		if items, err = s.converter.Convert(data, target); err != nil {
			return domain.SaveScannedItemsResponse{}, err
		}
	}

	res := domain.SaveScannedItemsResponse{
		ScanID:  scan.ID.String(),
		Saved:   make([]domain.ItemResponse, 0, len(items)),
		Skipped: make([]int, 0),
		Failed:  failed,
	}
	if res.Failed == nil {
		res.Failed = make([]domain.ItemFailure, 0)
	}

	now := time.Now()
	added := 0
	for i, it := range items {
		if saved[i] {
			res.Skipped = append(res.Skipped, i)
			continue
		}
		if it == nil {
			continue
		}
		it.ReceiptScanID = &scan.ID
		created, err := s.itemService.CreateItem(ctx, target, it)
		if err != nil {
			log.Warnw("scanned item not saved", "scan_id", scan.ID, "index", i, "title", it.Title, "error", err)
			res.Failed = append(res.Failed, domain.ItemFailure{Index: i, Title: it.Title, Error: err.Error()})
			continue
		}
		saved[i] = true
		added++
		res.Saved = append(res.Saved, item.ToResponse(created, now))
	}

	complete := len(res.Failed) == 0
	if added > 0 || complete {
		scan.SetSaved(saved)
		if complete {
			scan.Status = entities.ReceiptScanCompleted
		}
		if err := s.receiptRepository.UpdateReceiptScan(ctx, scan); err != nil {
			return res, err
		}
	}
	res.Status = scan.Status

	log.Infow("scanned items saved", "scan_id", scan.ID, "saved", len(res.Saved), "skipped", len(res.Skipped), "failed", len(res.Failed))
	return res, nil
}

// scan archives file, records a pending scan in the session's current pantry
// and parses it.
func (s *receiptService) scan(ctx context.Context, session domain.Session, file File) (*entities.ReceiptScan, *domain.ReceiptData, error) {
	current, err := s.pantryService.CurrentPantry(ctx, session)
	if err != nil {
		return nil, nil, err
	}

	ext := strings.ToLower(filepath.Ext(file.Name()))
	if !contains(storage.AllowReceipt, ext) {
		return nil, nil, domain.ErrUnsupportedFileType
	}

	scanID := uuid.New()
	objectKey := fmt.Sprintf("receipts/receipt-%s%s", scanID, ext)
	if err := s.archive(ctx, file, objectKey); err != nil {
		return nil, nil, err
	}

	scan := &entities.ReceiptScan{
		ID:       scanID,
		UserID:   session.UserID,
		PantryID: current.ID,
		FileName: file.Name(),
		FileKey:  objectKey,
		Status:   entities.ReceiptScanPending,
	}
	if err := s.receiptRepository.CreateReceiptScan(ctx, scan); err != nil {
		_ = s.s3.DeleteFile(objectKey)
		return nil, nil, err
	}

	data, err := s.process(ctx, scan, file)
	if err != nil {
		return scan, nil, err
	}
	return scan, data, nil
}

func (s *receiptService) archive(ctx context.Context, file File, key string) error {
	src, err := file.Open(ctx)
	if err != nil {
		return &domain.FileAccessError{Name: file.Name(), Err: err}
	}
	defer src.Close()

	return s.s3.PutObject(ctx, key, src, MimeType(file.Name()))
}

// process runs the parser and records the outcome on the scan.
func (s *receiptService) process(ctx context.Context, scan *entities.ReceiptScan, file File) (*domain.ReceiptData, error) {
	data, err := s.parser.ProcessReceipt(ctx, file)
	if err != nil {
		scan.Status = entities.ReceiptScanFailed
		scan.ErrorMessage = err.Error()
		if uerr := s.receiptRepository.UpdateReceiptScan(ctx, scan); uerr != nil {
			log.Errorw("updating failed receipt scan", "scan_id", scan.ID, "error", uerr)
		}
		log.Warnw("receipt parsing failed", "scan_id", scan.ID, "error", err)
		return nil, err
	}

	results, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	scan.Status = entities.ReceiptScanProcessed
	scan.StoreName = data.StoreName
	scan.OcrResults = string(results)
	scan.ErrorMessage = ""
	if err := s.receiptRepository.UpdateReceiptScan(ctx, scan); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *receiptService) preview(scan *entities.ReceiptScan, data *domain.ReceiptData, session domain.Session) (domain.UploadReceiptResponse, error) {
	items, err := s.converter.Convert(data, domain.Session{UserID: session.UserID, PantryID: scan.PantryID})
	if err != nil {
		return domain.UploadReceiptResponse{}, err
	}

	now := time.Now()
	res := domain.UploadReceiptResponse{
		ScanID:  scan.ID.String(),
		Status:  scan.Status,
		Receipt: data,
		Items:   make([]domain.ItemResponse, 0, len(items)),
	}
	for _, it := range items {
		res.Items = append(res.Items, item.ToResponse(it, now))
	}
	return res, nil
}

// fromEdited builds items from lines the user corrected before saving.
func (s *receiptService) fromEdited(lines []domain.ScannedItemRequest, target domain.Session, saved map[int]bool) ([]*entities.Item, []domain.ItemFailure) {
	items := make([]*entities.Item, len(lines))
	var failed []domain.ItemFailure

	now := time.Now()
	for i, line := range lines {
		if saved[i] {
			continue
		}
		q, err := quantity.New(line.Quantity.Value, line.Quantity.Unit)
		if err != nil {
			failed = append(failed, domain.ItemFailure{Index: i, Title: line.Title, Error: err.Error()})
			continue
		}

		var expiry *time.Time
		if line.ExpiryDate != "" {
			t, err := time.Parse("2006-01-02", line.ExpiryDate)
			if err != nil {
				failed = append(failed, domain.ItemFailure{Index: i, Title: line.Title, Error: domain.ErrInvalidExpiryDate.Error()})
				continue
			}
			expiry = &t
		}

		items[i] = &entities.Item{
			ID:            uuid.New(),
			PantryID:      target.PantryID,
			Title:         line.Title,
			QuantityValue: q.Value,
			QuantityUnit:  string(q.Unit),
			ExpiryDate:    expiry,
			AddedDate:     now,
			Location:      line.Location,
			Category:      line.Category,
			CreatedBy:     target.UserID,
		}
	}
	return items, failed
}

// authorizedScan loads a scan and checks the caller belongs to its pantry.
func (s *receiptService) authorizedScan(ctx context.Context, session domain.Session, id string) (*entities.ReceiptScan, error) {
	if !session.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrReceiptScanNotFound
	}

	scan, err := s.receiptRepository.GetReceiptScanByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrReceiptScanNotFound
		}
		return nil, err
	}

	if err := s.pantryService.Authorize(ctx, scan.PantryID.String(), session.UserID.String()); err != nil {
		return nil, err
	}
	return scan, nil
}

func decodeResults(scan *entities.ReceiptScan) (*domain.ReceiptData, error) {
	if scan.OcrResults == "" {
		return nil, domain.ErrReceiptNotProcessed
	}
	var data domain.ReceiptData
	if err := json.Unmarshal([]byte(scan.OcrResults), &data); err != nil {
		return nil, &domain.DecodeError{Err: err}
	}
	return &data, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
