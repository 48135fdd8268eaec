package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"time"
)

const (
	WeightUnitGram       = "g"
	WeightUnitKilogram   = "kg"
	WeightUnitMilliliter = "ml"
	WeightUnitLiter      = "l"
	WeightUnitPack       = "pack"
	WeightUnitPacks      = "packs"
)

var (
	MessageSuccessUploadReceipt    = "receipt processed successfully"
	MessageSuccessGetReceiptScan   = "receipt scan retrieved successfully"
	MessageSuccessRetryReceipt     = "receipt reprocessed successfully"
	MessageSuccessSaveScannedItems = "scanned items saved successfully"

	MessageFailedUploadReceipt    = "failed to upload receipt"
	MessageFailedProcessReceipt   = "failed to process receipt"
	MessageFailedGetReceiptScan   = "failed to retrieve receipt scan"
	MessageFailedRetryReceipt     = "failed to reprocess receipt"
	MessageFailedSaveScannedItems = "failed to save scanned items"

	ErrReceiptScanNotFound = errors.New("receipt scan not found")
	ErrReceiptNotProcessed = errors.New("receipt has not been processed")
	ErrReceiptAlreadySaved = errors.New("receipt items were already saved")
	ErrUnsupportedFileType = errors.New("unsupported receipt file type")
)

// ReceiptWeight is the weight printed on a receipt line.
type ReceiptWeight struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// ReceiptItem is one parsed receipt line. Name and Qty are required.
type ReceiptItem struct {
	Name   string         `json:"name"`
	Qty    int            `json:"qty"`
	Weight *ReceiptWeight `json:"weight,omitempty"`
	Price  *float64       `json:"price,omitempty"`
}

// ReceiptData is the structured answer of the receipt parser. It is never
// persisted as such; it feeds the converter.
type ReceiptData struct {
	StoreName   string        `json:"store_name"`
	Date        *string       `json:"date,omitempty"`
	TotalAmount *float64      `json:"total_amount,omitempty"`
	Items       []ReceiptItem `json:"items"`
}

func IsWeightUnit(unit string) bool {
	switch unit {
	case WeightUnitGram, WeightUnitKilogram, WeightUnitMilliliter, WeightUnitLiter, WeightUnitPack, WeightUnitPacks:
		return true
	}
	return false
}

// UnmarshalJSON decodes optional fields leniently: a malformed date, total,
// price or weight value becomes nil. A missing store name fails the receipt.
func (d *ReceiptData) UnmarshalJSON(b []byte) error {
	var raw struct {
		StoreName   *string         `json:"store_name"`
		Date        json.RawMessage `json:"date"`
		TotalAmount json.RawMessage `json:"total_amount"`
		Items       []ReceiptItem   `json:"items"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.StoreName == nil {
		return errors.New("missing required field store_name")
	}

	d.StoreName = *raw.StoreName
	d.Date = optionalString(raw.Date)
	d.TotalAmount = optionalFloat(raw.TotalAmount)
	d.Items = raw.Items
	if d.Items == nil {
		d.Items = []ReceiptItem{}
	}
	return nil
}

// UnmarshalJSON fails when name or qty is missing, or when the weight carries a
// unit the normalizer does not know.
func (i *ReceiptItem) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name   *string         `json:"name"`
		Qty    *int            `json:"qty"`
		Weight json.RawMessage `json:"weight"`
		Price  json.RawMessage `json:"price"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Name == nil {
		return errors.New("missing required field name")
	}
	if raw.Qty == nil {
		return fmt.Errorf("missing required field qty for %q", *raw.Name)
	}
	if *raw.Qty < 0 {
		return fmt.Errorf("negative qty %d for %q", *raw.Qty, *raw.Name)
	}

	weight, err := decodeWeight(raw.Weight)
	if err != nil {
		return fmt.Errorf("%q: %w", *raw.Name, err)
	}

	i.Name = *raw.Name
	i.Qty = *raw.Qty
	i.Weight = weight
	i.Price = optionalFloat(raw.Price)
	return nil
}

func decodeWeight(b json.RawMessage) (*ReceiptWeight, error) {
	if isNull(b) {
		return nil, nil
	}
	var raw struct {
		Value json.RawMessage `json:"value"`
		Unit  *string         `json:"unit"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, nil
	}
	if raw.Unit == nil {
		return nil, nil
	}
	if !IsWeightUnit(*raw.Unit) {
		return nil, fmt.Errorf("unknown weight unit %q", *raw.Unit)
	}
	value := optionalFloat(raw.Value)
	if value == nil {
		return nil, nil
	}
	if *value < 0 {
		return nil, fmt.Errorf("negative weight %v %s", *value, *raw.Unit)
	}
	return &ReceiptWeight{Value: *value, Unit: *raw.Unit}, nil
}

func isNull(b json.RawMessage) bool {
	return len(b) == 0 || bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}

func optionalString(b json.RawMessage) *string {
	if isNull(b) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	return &s
}

func optionalFloat(b json.RawMessage) *float64 {
	if isNull(b) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return nil
	}
	return &f
}

type (
	UploadReceiptRequest struct {
		ReceiptFile *multipart.FileHeader `json:"receipt_file" form:"file" validate:"required"`
	}

	UploadReceiptResponse struct {
		ScanID  string         `json:"scan_id"`
		Status  string         `json:"status"`
		Receipt *ReceiptData   `json:"receipt,omitempty"`
		Items   []ItemResponse `json:"items"`
	}

	ReceiptScanResponse struct {
		ID           string       `json:"id"`
		PantryID     string       `json:"pantry_id"`
		FileName     string       `json:"file_name"`
		Status       string       `json:"status"`
		StoreName    string       `json:"store_name,omitempty"`
		Receipt      *ReceiptData `json:"receipt,omitempty"`
		ErrorMessage string       `json:"error_message,omitempty"`
		SavedLines   []int        `json:"saved_lines"`
		CreatedAt    time.Time    `json:"created_at"`
	}

	ScannedItemRequest struct {
		Title      string          `json:"title" validate:"required"`
		Quantity   QuantityRequest `json:"quantity"`
		ExpiryDate string          `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
		Location   string          `json:"location" validate:"omitempty,oneof=fridge freezer pantry cupboard"`
		Category   string          `json:"category" validate:"omitempty,oneof=fruits vegetables dairy meat seafood grains bakery condiments beverages other"`
	}

	// SaveScannedItemsRequest optionally replaces the converted lines with the
	// user's edited version. An empty list saves the conversion as is.
	SaveScannedItemsRequest struct {
		Items []ScannedItemRequest `json:"items" validate:"omitempty,dive"`
	}

	ItemFailure struct {
		Index int    `json:"index"`
		Title string `json:"title"`
		Error string `json:"error"`
	}

	// SaveScannedItemsResponse reports the lines added by this call. Skipped
	// lists the indexes saved by an earlier call and left untouched.
	SaveScannedItemsResponse struct {
		ScanID  string         `json:"scan_id"`
		Status  string         `json:"status"`
		Saved   []ItemResponse `json:"saved"`
		Skipped []int          `json:"skipped"`
		Failed  []ItemFailure  `json:"failed"`
	}
)
