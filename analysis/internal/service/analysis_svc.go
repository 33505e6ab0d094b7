package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tgo/filepipe/analysis/internal/model"
	"github.com/tgo/filepipe/analysis/internal/pkg/keylock"
)

var (
	// ErrNotFound means the file store has no file under the requested id.
	ErrNotFound = errors.New("file not found")

	// ErrUpstreamUnavailable means the file store could not be reached.
	ErrUpstreamUnavailable = errors.New("file store unavailable")

	// ErrDuplicateContent means another file id already owns textually
	// identical content; the caller likely meant the existing file.
	ErrDuplicateContent = errors.New("identical content already analyzed under another file")

	// ErrAnalysisNotRun means an artifact was requested before analysis.
	ErrAnalysisNotRun = errors.New("analysis has not been run for this file")

	// ErrGenerationFailed means the external renderer call (or persisting
	// its output) failed; the record is untouched and the call is retryable.
	ErrGenerationFailed = errors.New("word cloud generation failed")
)

// ContentStore is the slice of the file store the analysis service uses.
type ContentStore interface {
	FetchFile(ctx context.Context, id string) ([]byte, int, error)
	UploadFile(ctx context.Context, filename, contentType string, content io.Reader) (uuid.UUID, error)
}

// Renderer produces an image payload for a token stream.
type Renderer interface {
	Render(ctx context.Context, tokens []string) ([]byte, error)
}

// AnalysisRepository is the persistence surface for analysis records.
type AnalysisRepository interface {
	FindByFileID(ctx context.Context, fileID uuid.UUID) (*model.AnalysisRecord, error)
	ExistsByHash(ctx context.Context, hash string, excludeFileID uuid.UUID) (bool, error)
	CreateIfAbsent(ctx context.Context, rec *model.AnalysisRecord) (*model.AnalysisRecord, bool, error)
	SetWordCloudFileID(ctx context.Context, fileID, artifactID uuid.UUID) (bool, error)
}

// ResultCache is an optional hot cache in front of the record store.
type ResultCache interface {
	Get(ctx context.Context, fileID string) (*model.AnalysisRecord, bool)
	Set(ctx context.Context, rec *model.AnalysisRecord)
	Invalidate(ctx context.Context, fileID string)
}

type AnalysisService struct {
	repo     AnalysisRepository
	store    ContentStore
	renderer Renderer
	cache    ResultCache // nil when no cache is configured
	locker   *keylock.KeyLock
}

func NewAnalysisService(repo AnalysisRepository, store ContentStore, renderer Renderer, cache ResultCache) *AnalysisService {
	return &AnalysisService{
		repo:     repo,
		store:    store,
		renderer: renderer,
		cache:    cache,
		locker:   keylock.New(),
	}
}

// Analyze returns the statistics for fileID, computing and persisting them
// on first request. Repeat calls are served from the record store (or the
// hot cache) without re-fetching the bytes.
func (s *AnalysisService) Analyze(ctx context.Context, fileID uuid.UUID) (*model.AnalysisRecord, error) {
	if s.cache != nil {
		if rec, ok := s.cache.Get(ctx, fileID.String()); ok {
			return rec, nil
		}
	}

	rec, err := s.repo.FindByFileID(ctx, fileID)
	if err == nil {
		if s.cache != nil {
			s.cache.Set(ctx, rec)
		}
		return rec, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	text, err := s.fetchText(ctx, fileID)
	if err != nil {
		return nil, err
	}

	hash := hashText(text)
	taken, err := s.repo.ExistsByHash(ctx, hash, fileID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateContent
	}

	stats := ComputeStats(text)
	rec = &model.AnalysisRecord{
		FileID:     fileID,
		FileHash:   hash,
		Paragraphs: stats.Paragraphs,
		Words:      stats.Words,
		Characters: stats.Characters,
	}

	stored, created, err := s.repo.CreateIfAbsent(ctx, rec)
	if err != nil {
		// The hash unique index caught a concurrent analysis of identical
		// text under another file id.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateContent
		}
		return nil, err
	}
	if !created {
		log.Printf("[AnalysisService] Lost analyze race for %s, returning existing record", fileID)
	}

	if s.cache != nil {
		s.cache.Set(ctx, stored)
	}
	return stored, nil
}

// EnsureWordCloud returns the word-cloud image for an analyzed file,
// generating and persisting it on first request. Generation for one file is
// serialized by a keyed lock, and the artifact id is written through a
// conditional update so a value, once set, is never replaced.
func (s *AnalysisService) EnsureWordCloud(ctx context.Context, fileID uuid.UUID) ([]byte, string, error) {
	name := fileID.String() + ".png"

	rec, err := s.findRecord(ctx, fileID)
	if err != nil {
		return nil, "", err
	}
	if rec.WordCloudFileID != nil {
		data, err := s.fetchBytes(ctx, rec.WordCloudFileID.String())
		if err != nil {
			return nil, "", err
		}
		return data, name, nil
	}

	s.locker.Lock(fileID.String())
	defer s.locker.Unlock(fileID.String())

	// Re-check under the lock: a concurrent caller may have generated the
	// artifact while this one waited.
	rec, err = s.findRecord(ctx, fileID)
	if err != nil {
		return nil, "", err
	}
	if rec.WordCloudFileID != nil {
		data, err := s.fetchBytes(ctx, rec.WordCloudFileID.String())
		if err != nil {
			return nil, "", err
		}
		return data, name, nil
	}

	text, err := s.fetchText(ctx, fileID)
	if err != nil {
		return nil, "", err
	}

	png, err := s.renderer.Render(ctx, Tokenize(text))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	artifactID, err := s.store.UploadFile(ctx, name, "image/png", bytes.NewReader(png))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	updated, err := s.repo.SetWordCloudFileID(ctx, fileID, artifactID)
	if err != nil {
		return nil, "", err
	}
	if !updated {
		log.Printf("[AnalysisService] Artifact for %s was set concurrently, keeping the persisted one", fileID)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, fileID.String())
	}
	return png, name, nil
}

func (s *AnalysisService) findRecord(ctx context.Context, fileID uuid.UUID) (*model.AnalysisRecord, error) {
	rec, err := s.repo.FindByFileID(ctx, fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnalysisNotRun
		}
		return nil, err
	}
	return rec, nil
}

func (s *AnalysisService) fetchText(ctx context.Context, fileID uuid.UUID) (string, error) {
	data, err := s.fetchBytes(ctx, fileID.String())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *AnalysisService) fetchBytes(ctx context.Context, id string) ([]byte, error) {
	data, status, err := s.store.FetchFile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	switch status {
	case http.StatusOK:
		return data, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("file store returned status %d", status)
	}
}
