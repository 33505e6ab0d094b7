package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tgo/filepipe/filestore/internal/model"
)

type FileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{db: db}
}

// CreateIfAbsent inserts the file unless a row with the same hash already
// exists. It returns the row that owns the hash after the call and whether
// this call created it. The insert races through the unique index on hash,
// so two concurrent uploads of identical bytes converge on one row.
func (r *FileRepository) CreateIfAbsent(ctx context.Context, file *model.StoredFile) (*model.StoredFile, bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "hash"}},
			DoNothing: true,
		}).
		Create(file)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return file, true, nil
	}
	existing, err := r.FindByHash(ctx, file.Hash)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *FileRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.StoredFile, error) {
	var file model.StoredFile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&file).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *FileRepository) FindByHash(ctx context.Context, hash string) (*model.StoredFile, error) {
	var file model.StoredFile
	err := r.db.WithContext(ctx).Where("hash = ?", hash).First(&file).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}
