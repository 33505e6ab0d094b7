package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tgo/filepipe/analysis/internal/model"
)

type fakeAnalysisRepo struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]*model.AnalysisRecord
	byHash map[string]uuid.UUID

	// blindHashCheck makes ExistsByHash report no conflict, forcing the
	// duplicate to surface from the insert itself.
	blindHashCheck bool
}

func newFakeAnalysisRepo() *fakeAnalysisRepo {
	return &fakeAnalysisRepo{
		byID:   make(map[uuid.UUID]*model.AnalysisRecord),
		byHash: make(map[string]uuid.UUID),
	}
}

func (r *fakeAnalysisRepo) FindByFileID(ctx context.Context, fileID uuid.UUID) (*model.AnalysisRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.byID[fileID]; ok {
		cp := *rec
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAnalysisRepo) ExistsByHash(ctx context.Context, hash string, excludeFileID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.blindHashCheck {
		return false, nil
	}
	owner, ok := r.byHash[hash]
	return ok && owner != excludeFileID, nil
}

func (r *fakeAnalysisRepo) CreateIfAbsent(ctx context.Context, rec *model.AnalysisRecord) (*model.AnalysisRecord, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byID[rec.FileID]; ok {
		cp := *existing
		return &cp, false, nil
	}
	if owner, ok := r.byHash[rec.FileHash]; ok && owner != rec.FileID {
		return nil, false, gorm.ErrDuplicatedKey
	}
	cp := *rec
	r.byID[rec.FileID] = &cp
	r.byHash[rec.FileHash] = rec.FileID
	return rec, true, nil
}

func (r *fakeAnalysisRepo) SetWordCloudFileID(ctx context.Context, fileID, artifactID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byID[fileID]
	if !ok || rec.WordCloudFileID != nil {
		return false, nil
	}
	id := artifactID
	rec.WordCloudFileID = &id
	return true, nil
}

func (r *fakeAnalysisRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// fakeContentStore serves stored payloads and accepts uploads, counting
// fetches so caching behavior is observable.
type fakeContentStore struct {
	mu          sync.Mutex
	files       map[string][]byte
	fetchCalls  int32
	uploadCalls int32
	unreachable bool
}

func newFakeContentStore() *fakeContentStore {
	return &fakeContentStore{files: make(map[string][]byte)}
}

func (s *fakeContentStore) put(id uuid.UUID, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[id.String()] = data
}

func (s *fakeContentStore) FetchFile(ctx context.Context, id string) ([]byte, int, error) {
	atomic.AddInt32(&s.fetchCalls, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unreachable {
		return nil, 0, fmt.Errorf("connection refused")
	}
	if data, ok := s.files[id]; ok {
		return data, http.StatusOK, nil
	}
	return []byte("not found"), http.StatusNotFound, nil
}

func (s *fakeContentStore) UploadFile(ctx context.Context, filename, contentType string, content io.Reader) (uuid.UUID, error) {
	atomic.AddInt32(&s.uploadCalls, 1)
	data, err := io.ReadAll(content)
	if err != nil {
		return uuid.Nil, err
	}
	id := uuid.New()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[id.String()] = data
	return id, nil
}

type fakeRenderer struct {
	calls int32
	fail  bool
	image []byte
}

func (r *fakeRenderer) Render(ctx context.Context, tokens []string) ([]byte, error) {
	atomic.AddInt32(&r.calls, 1)
	if r.fail {
		return nil, fmt.Errorf("renderer exploded")
	}
	return r.image, nil
}

type fakeResultCache struct {
	mu          sync.Mutex
	entries     map[string]*model.AnalysisRecord
	invalidated []string
}

func newFakeResultCache() *fakeResultCache {
	return &fakeResultCache{entries: make(map[string]*model.AnalysisRecord)}
}

func (c *fakeResultCache) Get(ctx context.Context, fileID string) (*model.AnalysisRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.entries[fileID]
	return rec, ok
}

func (c *fakeResultCache) Set(ctx context.Context, rec *model.AnalysisRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[rec.FileID.String()] = rec
}

func (c *fakeResultCache) Invalidate(ctx context.Context, fileID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, fileID)
	c.invalidated = append(c.invalidated, fileID)
}

func newTestService(repo *fakeAnalysisRepo, store *fakeContentStore, renderer *fakeRenderer, cache ResultCache) *AnalysisService {
	return NewAnalysisService(repo, store, renderer, cache)
}

func TestAnalyzeComputesStatisticsOnce(t *testing.T) {
	repo := newFakeAnalysisRepo()
	store := newFakeContentStore()
	svc := newTestService(repo, store, &fakeRenderer{}, nil)
	ctx := context.Background()

	fileID := uuid.New()
	text := "Hello world.\n\nThis is a test."
	store.put(fileID, []byte(text))

	rec, err := svc.Analyze(ctx, fileID)
	require.NoError(t, err)
	require.Equal(t, fileID, rec.FileID)
	require.Equal(t, 2, rec.Paragraphs)
	require.Equal(t, 6, rec.Words)
	require.Equal(t, len(text), rec.Characters)
	require.Len(t, rec.FileHash, 64)

	again, err := svc.Analyze(ctx, fileID)
	require.NoError(t, err)
	require.Equal(t, rec.FileHash, again.FileHash)
	require.Equal(t, rec.Paragraphs, again.Paragraphs)
	require.Equal(t, int32(1), atomic.LoadInt32(&store.fetchCalls),
		"a cached record must not re-fetch the bytes")
}

func TestAnalyzeRejectsDuplicateTextUnderDifferentID(t *testing.T) {
	repo := newFakeAnalysisRepo()
	store := newFakeContentStore()
	svc := newTestService(repo, store, &fakeRenderer{}, nil)
	ctx := context.Background()

	first := uuid.New()
	second := uuid.New()
	store.put(first, []byte("exactly the same words"))
	store.put(second, []byte("exactly the same words"))

	_, err := svc.Analyze(ctx, first)
	require.NoError(t, err)

	_, err = svc.Analyze(ctx, second)
	require.ErrorIs(t, err, ErrDuplicateContent)
	require.Equal(t, 1, repo.count(), "no record may be created for the rejected file")
}

func TestAnalyzeUnknownFileReturnsNotFound(t *testing.T) {
	svc := newTestService(newFakeAnalysisRepo(), newFakeContentStore(), &fakeRenderer{}, nil)

	_, err := svc.Analyze(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAnalyzeUnreachableStoreReturnsUpstreamUnavailable(t *testing.T) {
	store := newFakeContentStore()
	store.unreachable = true
	svc := newTestService(newFakeAnalysisRepo(), store, &fakeRenderer{}, nil)

	_, err := svc.Analyze(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestAnalyzeUsesResultCache(t *testing.T) {
	repo := newFakeAnalysisRepo()
	store := newFakeContentStore()
	cache := newFakeResultCache()
	svc := newTestService(repo, store, &fakeRenderer{}, cache)
	ctx := context.Background()

	fileID := uuid.New()
	store.put(fileID, []byte("cache me"))

	_, err := svc.Analyze(ctx, fileID)
	require.NoError(t, err)

	_, ok := cache.Get(ctx, fileID.String())
	require.True(t, ok, "analyze must populate the cache")
}

func TestWordCloudRequiresAnalysis(t *testing.T) {
	svc := newTestService(newFakeAnalysisRepo(), newFakeContentStore(), &fakeRenderer{}, nil)

	_, _, err := svc.EnsureWordCloud(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrAnalysisNotRun)
}

func TestWordCloudGeneratedExactlyOnce(t *testing.T) {
	repo := newFakeAnalysisRepo()
	store := newFakeContentStore()
	renderer := &fakeRenderer{image: []byte("png-bytes")}
	svc := newTestService(repo, store, renderer, nil)
	ctx := context.Background()

	fileID := uuid.New()
	store.put(fileID, []byte("Words for the cloud."))
	_, err := svc.Analyze(ctx, fileID)
	require.NoError(t, err)

	png, name, err := svc.EnsureWordCloud(ctx, fileID)
	require.NoError(t, err)
	require.Equal(t, []byte("png-bytes"), png)
	require.Equal(t, fileID.String()+".png", name)
	require.Equal(t, int32(1), atomic.LoadInt32(&renderer.calls))
	require.Equal(t, int32(1), atomic.LoadInt32(&store.uploadCalls))

	rec, err := repo.FindByFileID(ctx, fileID)
	require.NoError(t, err)
	require.NotNil(t, rec.WordCloudFileID)

	again, _, err := svc.EnsureWordCloud(ctx, fileID)
	require.NoError(t, err)
	require.Equal(t, png, again)
	require.Equal(t, int32(1), atomic.LoadInt32(&renderer.calls),
		"second request must be served from the stored artifact")
	require.Equal(t, int32(1), atomic.LoadInt32(&store.uploadCalls))
}

func TestWordCloudRendererFailureIsRetryable(t *testing.T) {
	repo := newFakeAnalysisRepo()
	store := newFakeContentStore()
	renderer := &fakeRenderer{fail: true, image: []byte("png")}
	svc := newTestService(repo, store, renderer, nil)
	ctx := context.Background()

	fileID := uuid.New()
	store.put(fileID, []byte("some text"))
	_, err := svc.Analyze(ctx, fileID)
	require.NoError(t, err)

	_, _, err = svc.EnsureWordCloud(ctx, fileID)
	require.ErrorIs(t, err, ErrGenerationFailed)

	rec, err := repo.FindByFileID(ctx, fileID)
	require.NoError(t, err)
	require.Nil(t, rec.WordCloudFileID, "a failed generation must not touch the record")

	renderer.fail = false
	png, _, err := svc.EnsureWordCloud(ctx, fileID)
	require.NoError(t, err)
	require.Equal(t, []byte("png"), png)
}

func TestWordCloudConcurrentCallsRenderOnce(t *testing.T) {
	repo := newFakeAnalysisRepo()
	store := newFakeContentStore()
	renderer := &fakeRenderer{image: []byte("shared-png")}
	svc := newTestService(repo, store, renderer, nil)
	ctx := context.Background()

	fileID := uuid.New()
	store.put(fileID, []byte("concurrent cloud text"))
	_, err := svc.Analyze(ctx, fileID)
	require.NoError(t, err)

	const workers = 8
	results := make([][]byte, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			png, _, err := svc.EnsureWordCloud(ctx, fileID)
			require.NoError(t, err)
			results[i] = png
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&renderer.calls),
		"generation must be serialized per file")
	for _, png := range results {
		require.Equal(t, []byte("shared-png"), png)
	}
}

func TestWordCloudInvalidatesCacheAfterGeneration(t *testing.T) {
	repo := newFakeAnalysisRepo()
	store := newFakeContentStore()
	cache := newFakeResultCache()
	svc := newTestService(repo, store, &fakeRenderer{image: []byte("p")}, cache)
	ctx := context.Background()

	fileID := uuid.New()
	store.put(fileID, []byte("text"))
	_, err := svc.Analyze(ctx, fileID)
	require.NoError(t, err)

	_, _, err = svc.EnsureWordCloud(ctx, fileID)
	require.NoError(t, err)

	cache.mu.Lock()
	defer cache.mu.Unlock()
	require.Contains(t, cache.invalidated, fileID.String())
}

func TestAnalyzeConcurrentSameFileCreatesOneRecord(t *testing.T) {
	repo := newFakeAnalysisRepo()
	store := newFakeContentStore()
	svc := newTestService(repo, store, &fakeRenderer{}, nil)

	fileID := uuid.New()
	store.put(fileID, []byte("raced text"))

	const workers = 8
	records := make([]*model.AnalysisRecord, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec, err := svc.Analyze(context.Background(), fileID)
			require.NoError(t, err)
			records[i] = rec
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, repo.count())
	for _, rec := range records {
		require.Equal(t, records[0].FileHash, rec.FileHash)
	}
}

func TestAnalyzeMapsDuplicateKeyFromConcurrentInsert(t *testing.T) {
	// Simulates the narrow race where the hash pre-check passes but the
	// insert then trips the unique index on file_hash.
	repo := newFakeAnalysisRepo()
	store := newFakeContentStore()
	svc := newTestService(repo, store, &fakeRenderer{}, nil)
	ctx := context.Background()

	winner := uuid.New()
	loser := uuid.New()
	store.put(winner, []byte("contended text"))
	store.put(loser, []byte("contended text"))

	_, err := svc.Analyze(ctx, winner)
	require.NoError(t, err)

	repo.blindHashCheck = true
	_, err = svc.Analyze(ctx, loser)
	require.ErrorIs(t, err, ErrDuplicateContent)
	require.False(t, errors.Is(err, gorm.ErrDuplicatedKey),
		"storage-level errors must not leak to callers")
}
