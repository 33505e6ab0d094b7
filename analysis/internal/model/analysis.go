package model

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisRecord caches the statistics computed for one stored file. FileID
// is the primary key, so a file is analyzed at most once. FileHash is the
// SHA-256 of the decoded text and carries a unique index: textually
// identical content under a different file id is rejected rather than
// analyzed again. WordCloudFileID is set exactly once, after the first
// successful artifact generation.
type AnalysisRecord struct {
	FileID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"fileId"`
	FileHash        string     `gorm:"size:64;not null;uniqueIndex" json:"fileHash"`
	Paragraphs      int        `gorm:"not null" json:"paragraphs"`
	Words           int        `gorm:"not null" json:"words"`
	Characters      int        `gorm:"not null" json:"characters"`
	WordCloudFileID *uuid.UUID `gorm:"type:uuid" json:"wordCloudId,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
