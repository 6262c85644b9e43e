package services

import (
	"bytes"
	"context"
	"io"
	"log"

	"github.com/resumatch/apiserver/internal/extract"
	"github.com/resumatch/apiserver/internal/storage"
	"github.com/resumatch/apiserver/types"
)

// ResumeRepository defines persistence operations for resumes.
type ResumeRepository interface {
	CreateActive(ctx context.Context, resume types.Resume) (types.Resume, error)
	Get(ctx context.Context, id, userID int) (types.Resume, error)
	GetActiveForUser(ctx context.Context, userID int) (types.Resume, error)
	ListForUser(ctx context.Context, userID int) ([]types.Resume, error)
	ReplaceStructured(ctx context.Context, id, userID int, structured types.StructuredResume, meta types.ParseMetadata) error
	Delete(ctx context.Context, id, userID int) error
}

// ObjectStore is the object-storage surface the resume lifecycle needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Structurer turns raw resume text into a structured payload.
type Structurer interface {
	StructureResume(ctx context.Context, rawText string) (types.StructuredResume, types.ParseMetadata, error)
}

// FallbackStructure substitutes for the structuring collaborator.
type FallbackStructure func(rawText string) (types.StructuredResume, types.ParseMetadata)

// ResumeService encapsulates the resume lifecycle: upload, activation,
// reanalysis and deletion.
type ResumeService struct {
	repo       ResumeRepository
	store      ObjectStore
	structurer Structurer
	fallback   FallbackStructure
}

func NewResumeService(repo ResumeRepository, store ObjectStore, structurer Structurer, fallback FallbackStructure) *ResumeService {
	return &ResumeService{
		repo:       repo,
		store:      store,
		structurer: structurer,
		fallback:   fallback,
	}
}

// Upload extracts text from the file, structures it, stores the original
// and persists the resume as the user's active one. A structuring
// failure degrades to the fallback extractor instead of failing the
// upload; an unsupported file type fails outright.
func (s *ResumeService) Upload(ctx context.Context, userID int, fileName, contentType string, data []byte) (types.Resume, error) {
	if !extract.Supported(contentType) {
		return types.Resume{}, ErrUnsupportedFile
	}

	rawText, err := extract.Text(contentType, data)
	if err != nil {
		return types.Resume{}, err
	}

	structured, meta, err := s.structurer.StructureResume(ctx, rawText)
	if err != nil {
		log.Printf("resume structuring failed, using fallback extraction: %v", err)
		structured, meta = s.fallback(rawText)
	}

	key := storage.ResumeKey(userID, fileName)
	if err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return types.Resume{}, err
	}

	resume := types.Resume{
		UserID:      userID,
		ObjectKey:   key,
		FileName:    fileName,
		ContentType: contentType,
		RawText:     rawText,
		Structured:  structured,
		ParseMeta:   meta,
	}
	return s.repo.CreateActive(ctx, resume)
}

func (s *ResumeService) Get(ctx context.Context, id, userID int) (types.Resume, error) {
	return s.repo.Get(ctx, id, userID)
}

func (s *ResumeService) GetActive(ctx context.Context, userID int) (types.Resume, error) {
	return s.repo.GetActiveForUser(ctx, userID)
}

func (s *ResumeService) History(ctx context.Context, userID int) ([]types.Resume, error) {
	return s.repo.ListForUser(ctx, userID)
}

// File opens the stored original for download.
func (s *ResumeService) File(ctx context.Context, id, userID int) (io.ReadCloser, types.Resume, error) {
	resume, err := s.repo.Get(ctx, id, userID)
	if err != nil {
		return nil, types.Resume{}, err
	}
	reader, err := s.store.Get(ctx, resume.ObjectKey)
	if err != nil {
		return nil, types.Resume{}, err
	}
	return reader, resume, nil
}

// Reanalyze re-runs structuring over the stored raw text and overwrites
// the structured payload and its denormalized copies in one update.
// Unlike upload there is no fallback here: a collaborator failure leaves
// the existing payload untouched and is surfaced to the caller.
func (s *ResumeService) Reanalyze(ctx context.Context, id, userID int) (types.Resume, error) {
	resume, err := s.repo.Get(ctx, id, userID)
	if err != nil {
		return types.Resume{}, err
	}

	structured, meta, err := s.structurer.StructureResume(ctx, resume.RawText)
	if err != nil {
		return types.Resume{}, err
	}

	if err := s.repo.ReplaceStructured(ctx, id, userID, structured, meta); err != nil {
		return types.Resume{}, err
	}
	return s.repo.Get(ctx, id, userID)
}

// Delete removes the stored file first, then the row. A file-delete
// failure is logged and accepted rather than blocking the row delete;
// if the row delete then fails, the orphaned file removal stands as a
// non-fatal side effect.
func (s *ResumeService) Delete(ctx context.Context, id, userID int) error {
	resume, err := s.repo.Get(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, resume.ObjectKey); err != nil {
		log.Printf("failed to delete resume object %s: %v", resume.ObjectKey, err)
	}

	return s.repo.Delete(ctx, id, userID)
}
