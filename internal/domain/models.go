package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DocumentMetrics describes a document's size, shape, and difficulty.
// Computed once per parse request by the analyzer; never persisted.
type DocumentMetrics struct {
	SizeBytes       int64   `json:"size_bytes"`
	PageCount       int     `json:"page_count"`
	EstimatedDPI    int     `json:"estimated_dpi"`
	ComplexityScore float64 `json:"complexity_score"` // [0,1]
	IsScanned       bool    `json:"is_scanned"`
}

// Tile is a rendered sub-image of a page region plus its provenance.
// Tiles are ephemeral: created, sent to one extraction call, discarded.
type Tile struct {
	Origin      BoundingBox // page coordinates covered by this tile
	Overlap     float64     // fraction of each dimension shared with neighbors
	ImageBytes  []byte      // encoded JPEG payload
	ContentType string
	Quality     int // JPEG quality the payload was encoded at
}

// LineItem is a single quantity line extracted from a document.
type LineItem struct {
	ItemNumber  string   `json:"item_number,omitempty"`
	Description string   `json:"description"`
	Quantity    float64  `json:"quantity"`
	Unit        string   `json:"unit"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
}

// Specification is a referenced standard (e.g. an ASTM or DOT section code).
type Specification struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ProjectInfo holds document-level project metadata.
type ProjectInfo struct {
	Name     string `json:"name,omitempty"`
	Location string `json:"location,omitempty"`
	BidDate  string `json:"bid_date,omitempty"`
}

// Material is a material requirement extracted from the document.
type Material struct {
	Name          string  `json:"name"`
	Quantity      float64 `json:"quantity"`
	Unit          string  `json:"unit"`
	Specification string  `json:"specification,omitempty"`
}

// CanonicalDocument is the single normalized schema every extraction
// strategy converges to.
type CanonicalDocument struct {
	LineItems      []LineItem      `json:"line_items"`
	Specifications []Specification `json:"specifications"`
	ProjectInfo    ProjectInfo     `json:"project_info"`
	Materials      []Material      `json:"materials"`
}

// ParseResult is the outcome of one strategy attempt. A result with
// Success=true always carries non-nil Data.
type ParseResult struct {
	Success          bool               `json:"success"`
	Data             *CanonicalDocument `json:"data,omitempty"`
	StrategyName     string             `json:"strategy"`
	Confidence       float64            `json:"confidence"`
	ProcessingTimeMs int64              `json:"processing_time_ms"`
	Error            string             `json:"error,omitempty"`
	PagesAnalyzed    int                `json:"pages_analyzed"`
	Metadata         map[string]string  `json:"metadata,omitempty"`
}

// ParseJob tracks one asynchronous parse request through the queue.
type ParseJob struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	FileID        uuid.UUID       `db:"file_id" json:"file_id"`
	Status        JobStatus       `db:"status" json:"status"`
	MaxPages      int             `db:"max_pages" json:"max_pages"`
	Attempts      int             `db:"attempts" json:"attempts"`
	StrategyUsed  string          `db:"strategy_used" json:"strategy_used,omitempty"`
	Confidence    float64         `db:"confidence" json:"confidence"`
	PagesAnalyzed int             `db:"pages_analyzed" json:"pages_analyzed"`
	DurationMs    int64           `db:"duration_ms" json:"duration_ms"`
	Result        json.RawMessage `db:"result" json:"result,omitempty"`
	ErrorMessage  string          `db:"error_message" json:"error_message,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
	CompletedAt   *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
}

// FileMeta is the stored metadata for an uploaded document.
type FileMeta struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	FileName     string     `db:"file_name" json:"file_name"`
	OriginalName string     `db:"original_name" json:"original_name"`
	FileType     FileType   `db:"file_type" json:"file_type"`
	FileSize     int64      `db:"file_size" json:"file_size"`
	S3Bucket     string     `db:"s3_bucket" json:"-"`
	S3Key        string     `db:"s3_key" json:"-"`
	ContentType  string     `db:"content_type" json:"content_type"`
	Status       FileStatus `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
