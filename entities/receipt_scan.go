package entities

import (
	"encoding/json"
	"sort"

	"github.com/google/uuid"
)

const (
	ReceiptScanPending   = "Pending"
	ReceiptScanProcessed = "Processed"
	ReceiptScanFailed    = "Failed"
	ReceiptScanCompleted = "Completed"
)

type ReceiptScan struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	PantryID     uuid.UUID `gorm:"type:uuid;index" json:"pantry_id"`
	FileName     string    `json:"file_name"`
	FileKey      string    `json:"file_key"`
	Status       string    `gorm:"size:16" json:"status"`
	StoreName    string    `json:"store_name,omitempty"`
	OcrResults   string    `gorm:"type:text" json:"ocr_results,omitempty"`
	ErrorMessage string    `gorm:"type:text" json:"error_message,omitempty"`
	// SavedLines is a JSON array of the line indexes already added to the pantry.
	SavedLines string `gorm:"type:text" json:"saved_lines,omitempty"`

	User  *User   `gorm:"foreignKey:UserID" json:"-"`
	Items []*Item `gorm:"foreignKey:ReceiptScanID" json:"-"`
	Timestamp
}

// Saved returns the set of line indexes already persisted from this scan.
func (r *ReceiptScan) Saved() map[int]bool {
	saved := make(map[int]bool)
	if r.SavedLines == "" {
		return saved
	}
	var lines []int
	if err := json.Unmarshal([]byte(r.SavedLines), &lines); err != nil {
		return saved
	}
	for _, i := range lines {
		saved[i] = true
	}
	return saved
}

// SavedIndexes returns the saved line indexes in ascending order.
func (r *ReceiptScan) SavedIndexes() []int {
	saved := r.Saved()
	lines := make([]int, 0, len(saved))
	for i := range saved {
		lines = append(lines, i)
	}
	sort.Ints(lines)
	return lines
}

func (r *ReceiptScan) SetSaved(saved map[int]bool) {
	r.SavedLines = ""
	if len(saved) == 0 {
		return
	}
	lines := make([]int, 0, len(saved))
	for i := range saved {
		lines = append(lines, i)
	}
	sort.Ints(lines)
	b, _ := json.Marshal(lines)
	r.SavedLines = string(b)
}
