package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tgo/filepipe/analysis/internal/model"
)

type AnalysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

func (r *AnalysisRepository) FindByFileID(ctx context.Context, fileID uuid.UUID) (*model.AnalysisRecord, error) {
	var rec model.AnalysisRecord
	err := r.db.WithContext(ctx).Where("file_id = ?", fileID).First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ExistsByHash reports whether some other file already owns this text hash.
func (r *AnalysisRepository) ExistsByHash(ctx context.Context, hash string, excludeFileID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.AnalysisRecord{}).
		Where("file_hash = ? AND file_id <> ?", hash, excludeFileID).
		Count(&count).Error
	return count > 0, err
}

// CreateIfAbsent inserts the record unless one already exists for its file
// id, in which case the existing record is returned (first writer wins). A
// unique-index violation on file_hash is passed through to the caller as
// gorm.ErrDuplicatedKey.
func (r *AnalysisRepository) CreateIfAbsent(ctx context.Context, rec *model.AnalysisRecord) (*model.AnalysisRecord, bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "file_id"}},
			DoNothing: true,
		}).
		Create(rec)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return rec, true, nil
	}
	existing, err := r.FindByFileID(ctx, rec.FileID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// SetWordCloudFileID records the artifact id, but only if none is set yet.
// Returns whether this call performed the update; a false result means a
// concurrent writer got there first and its value stands.
func (r *AnalysisRepository) SetWordCloudFileID(ctx context.Context, fileID, artifactID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.AnalysisRecord{}).
		Where("file_id = ? AND word_cloud_file_id IS NULL", fileID).
		Update("word_cloud_file_id", artifactID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
