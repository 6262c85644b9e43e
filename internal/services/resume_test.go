package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/resumatch/apiserver/internal/store"
	"github.com/resumatch/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResumeRepo struct {
	nextID  int
	resumes map[int]types.Resume
}

func newFakeResumeRepo() *fakeResumeRepo {
	return &fakeResumeRepo{nextID: 1, resumes: make(map[int]types.Resume)}
}

func (r *fakeResumeRepo) CreateActive(ctx context.Context, resume types.Resume) (types.Resume, error) {
	for id, existing := range r.resumes {
		if existing.UserID == resume.UserID && existing.IsActive {
			existing.IsActive = false
			r.resumes[id] = existing
		}
	}
	resume.ID = r.nextID
	r.nextID++
	resume.IsActive = true
	resume.Skills = resume.Structured.Skills
	r.resumes[resume.ID] = resume
	return resume, nil
}

func (r *fakeResumeRepo) Get(ctx context.Context, id, userID int) (types.Resume, error) {
	resume, ok := r.resumes[id]
	if !ok || resume.UserID != userID {
		return types.Resume{}, store.ErrNotFound
	}
	return resume, nil
}

func (r *fakeResumeRepo) GetActiveForUser(ctx context.Context, userID int) (types.Resume, error) {
	for _, resume := range r.resumes {
		if resume.UserID == userID && resume.IsActive {
			return resume, nil
		}
	}
	return types.Resume{}, store.ErrNotFound
}

func (r *fakeResumeRepo) ListForUser(ctx context.Context, userID int) ([]types.Resume, error) {
	var out []types.Resume
	for _, resume := range r.resumes {
		if resume.UserID == userID {
			out = append(out, resume)
		}
	}
	return out, nil
}

func (r *fakeResumeRepo) ReplaceStructured(ctx context.Context, id, userID int, structured types.StructuredResume, meta types.ParseMetadata) error {
	resume, ok := r.resumes[id]
	if !ok || resume.UserID != userID {
		return store.ErrNotFound
	}
	resume.Structured = structured
	resume.Skills = structured.Skills
	resume.ParseMeta = meta
	r.resumes[id] = resume
	return nil
}

func (r *fakeResumeRepo) Delete(ctx context.Context, id, userID int) error {
	resume, ok := r.resumes[id]
	if !ok || resume.UserID != userID {
		return store.ErrNotFound
	}
	delete(r.resumes, id)
	return nil
}

func (r *fakeResumeRepo) activeCount(userID int) int {
	count := 0
	for _, resume := range r.resumes {
		if resume.UserID == userID && resume.IsActive {
			count++
		}
	}
	return count
}

type fakeObjectStore struct {
	objects   map[string][]byte
	putErr    error
	deleteErr error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (s *fakeObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *fakeObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeObjectStore) Delete(ctx context.Context, key string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, key)
	return nil
}

type fakeStructurer struct {
	structured types.StructuredResume
	meta       types.ParseMetadata
	err        error
	calls      int
}

func (f *fakeStructurer) StructureResume(ctx context.Context, rawText string) (types.StructuredResume, types.ParseMetadata, error) {
	f.calls++
	if f.err != nil {
		return types.StructuredResume{}, types.ParseMetadata{}, f.err
	}
	return f.structured, f.meta, nil
}

func testFallback(rawText string) (types.StructuredResume, types.ParseMetadata) {
	return types.StructuredResume{Summary: rawText}, types.ParseMetadata{Model: "fallback", Confidence: 0.2}
}

func newTestResumeService(repo *fakeResumeRepo, objects *fakeObjectStore, structurer *fakeStructurer) *ResumeService {
	return NewResumeService(repo, objects, structurer, testFallback)
}

func TestResumeUploadUnsupportedType(t *testing.T) {
	svc := newTestResumeService(newFakeResumeRepo(), newFakeObjectStore(), &fakeStructurer{})

	_, err := svc.Upload(context.Background(), 1, "resume.png", "image/png", []byte("not a resume"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestResumeUploadStructuringFallback(t *testing.T) {
	repo := newFakeResumeRepo()
	objects := newFakeObjectStore()
	structurer := &fakeStructurer{err: errors.New("model unavailable")}
	svc := newTestResumeService(repo, objects, structurer)

	resume, err := svc.Upload(context.Background(), 1, "resume.txt", "text/plain", []byte("ten years of Go"))
	require.NoError(t, err)

	assert.Equal(t, "fallback", resume.ParseMeta.Model)
	assert.True(t, resume.IsActive)
	assert.Len(t, objects.objects, 1)
}

func TestResumeUploadKeepsOneActive(t *testing.T) {
	repo := newFakeResumeRepo()
	structurer := &fakeStructurer{
		structured: types.StructuredResume{Skills: []string{"go", "postgres"}},
		meta:       types.ParseMetadata{Model: "gemini-2.5-flash", Confidence: 0.9},
	}
	svc := newTestResumeService(repo, newFakeObjectStore(), structurer)

	var lastID int
	for i := 0; i < 4; i++ {
		resume, err := svc.Upload(context.Background(), 7, "resume.txt", "text/plain", []byte("some text"))
		require.NoError(t, err)
		lastID = resume.ID
	}
	// Interleave a second user to make sure activation is scoped.
	_, err := svc.Upload(context.Background(), 8, "resume.txt", "text/plain", []byte("other user"))
	require.NoError(t, err)

	assert.Equal(t, 1, repo.activeCount(7))
	assert.Equal(t, 1, repo.activeCount(8))

	active, err := svc.GetActive(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, lastID, active.ID)

	history, err := svc.History(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, history, 4)
}

func TestResumeReanalyzeSurfacesError(t *testing.T) {
	repo := newFakeResumeRepo()
	structurer := &fakeStructurer{structured: types.StructuredResume{Skills: []string{"go"}}}
	svc := newTestResumeService(repo, newFakeObjectStore(), structurer)

	resume, err := svc.Upload(context.Background(), 1, "resume.txt", "text/plain", []byte("original"))
	require.NoError(t, err)

	structurer.err = errors.New("model unavailable")
	_, err = svc.Reanalyze(context.Background(), resume.ID, 1)
	require.Error(t, err)

	// The stored payload is untouched by the failed attempt.
	kept, err := svc.Get(context.Background(), resume.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, kept.Structured.Skills)
}

func TestResumeReanalyzeReplacesStructured(t *testing.T) {
	repo := newFakeResumeRepo()
	structurer := &fakeStructurer{structured: types.StructuredResume{Skills: []string{"go"}}}
	svc := newTestResumeService(repo, newFakeObjectStore(), structurer)

	resume, err := svc.Upload(context.Background(), 1, "resume.txt", "text/plain", []byte("original"))
	require.NoError(t, err)

	structurer.structured = types.StructuredResume{Skills: []string{"go", "kubernetes"}}
	structurer.meta = types.ParseMetadata{Model: "gemini-2.5-flash", Confidence: 0.95}

	updated, err := svc.Reanalyze(context.Background(), resume.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "kubernetes"}, updated.Structured.Skills)
	assert.Equal(t, []string{"go", "kubernetes"}, updated.Skills)
	assert.InDelta(t, 0.95, updated.ParseMeta.Confidence, 1e-9)
}

func TestResumeDeleteSurvivesObjectDeleteFailure(t *testing.T) {
	repo := newFakeResumeRepo()
	objects := newFakeObjectStore()
	structurer := &fakeStructurer{}
	svc := newTestResumeService(repo, objects, structurer)

	resume, err := svc.Upload(context.Background(), 1, "resume.txt", "text/plain", []byte("bye"))
	require.NoError(t, err)

	objects.deleteErr = errors.New("bucket unreachable")
	require.NoError(t, svc.Delete(context.Background(), resume.ID, 1))

	_, err = svc.Get(context.Background(), resume.ID, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
