package service

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tgo/filepipe/filestore/internal/model"
)

var (
	// ErrNotFound means no stored file matches the requested id.
	ErrNotFound = errors.New("file not found")
)

// FileRepository is the slice of the persistence layer the service needs.
type FileRepository interface {
	CreateIfAbsent(ctx context.Context, file *model.StoredFile) (*model.StoredFile, bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.StoredFile, error)
	FindByHash(ctx context.Context, hash string) (*model.StoredFile, error)
}

// BlobStore persists and reads back raw payload bytes.
type BlobStore interface {
	Save(ctx context.Context, key string, content io.Reader) (string, error)
	Open(ctx context.Context, location string) (io.ReadCloser, error)
	Remove(ctx context.Context, location string) error
}

// StoreResult reports the id owning the uploaded content and whether the
// bytes were already present under another upload.
type StoreResult struct {
	ID        uuid.UUID
	Duplicate bool
}

type FileService struct {
	repo  FileRepository
	blobs BlobStore
}

func NewFileService(repo FileRepository, blobs BlobStore) *FileService {
	return &FileService{repo: repo, blobs: blobs}
}

// Store persists the payload and returns its id. Identity is the MD5 of the
// raw bytes: if a file with the same hash exists the existing id is returned
// and nothing new is written. The record insert goes through the hash unique
// index, so concurrent uploads of identical bytes cannot create two rows;
// the loser of that race discards its blob and adopts the winner's id.
func (s *FileService) Store(ctx context.Context, name string, data []byte) (*StoreResult, error) {
	sum := md5.Sum(data)
	hash := strings.ToUpper(hex.EncodeToString(sum[:]))

	if existing, err := s.repo.FindByHash(ctx, hash); err == nil {
		return &StoreResult{ID: existing.ID, Duplicate: true}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	id := uuid.New()
	location, err := s.blobs.Save(ctx, id.String()+filepath.Ext(name), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("save blob: %w", err)
	}

	file := &model.StoredFile{
		ID:       id,
		Name:     name,
		Hash:     hash,
		Location: location,
	}
	owner, created, err := s.repo.CreateIfAbsent(ctx, file)
	if err != nil {
		if rmErr := s.blobs.Remove(ctx, location); rmErr != nil {
			log.Printf("[FileService] Failed to remove orphan blob %s: %v", location, rmErr)
		}
		return nil, err
	}
	if !created {
		// Lost the insert race: another request stored identical bytes first.
		if rmErr := s.blobs.Remove(ctx, location); rmErr != nil {
			log.Printf("[FileService] Failed to remove orphan blob %s: %v", location, rmErr)
		}
	}
	return &StoreResult{ID: owner.ID, Duplicate: !created}, nil
}

// Retrieve returns the exact bytes previously stored under id together with
// the original client-supplied filename.
func (s *FileService) Retrieve(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	file, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}

	r, err := s.blobs.Open(ctx, file.Location)
	if err != nil {
		return nil, "", fmt.Errorf("open blob for %s: %w", id, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("read blob for %s: %w", id, err)
	}
	return data, file.Name, nil
}
