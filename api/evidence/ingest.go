package evidence

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/linesmerrill/secure-evidence-api/api"
	"github.com/linesmerrill/secure-evidence-api/databases"
	"github.com/linesmerrill/secure-evidence-api/models"
)

// Ingest failures. Each one leaves no uploaded file behind.
var (
	ErrNoFileProvided        = errors.New("no file uploaded")
	ErrCaseNotFound          = errors.New("case not found")
	ErrForbidden             = errors.New("not permitted to add evidence to this case")
	ErrHashComputationFailed = errors.New("failed to compute file hash")
	ErrPersistenceFailed     = errors.New("failed to save evidence")
)

// Notifier delivers a notification to a single recipient
type Notifier interface {
	Notify(ctx context.Context, recipientID primitive.ObjectID, message, relatedLink string, t models.NotificationType) (*models.Notification, error)
}

// Archiver copies a stored evidence file to secondary storage
type Archiver interface {
	Archive(ctx context.Context, key, path, sha256Hex string) error
}

// IngestRequest is an upload that has already been written to local storage
type IngestRequest struct {
	CaseID      string
	UploaderID  primitive.ObjectID
	File        *StoredFile
	Description string
	// CanAccess, when set, is asked whether the uploader may add evidence to the loaded case
	CanAccess func(*models.Case) bool
}

// Service records uploaded files as evidence of a case
type Service struct {
	Cases    databases.CaseDatabase
	Evidence databases.EvidenceDatabase
	Notifier Notifier
	Archive  Archiver
	Now      func() time.Time

	wg sync.WaitGroup
}

// Ingest hashes the stored file and persists its Evidence record. Once the record is saved the
// file is never removed, and the case creator is notified on a best-effort basis.
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*models.Evidence, error) {
	if req.File == nil {
		return nil, ErrNoFileProvided
	}

	caseID, err := primitive.ObjectIDFromHex(req.CaseID)
	if err != nil {
		return nil, s.discard(req.File, ErrCaseNotFound)
	}

	kase, err := s.findCase(ctx, caseID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, s.discard(req.File, ErrCaseNotFound)
		}
		return nil, s.discard(req.File, fmt.Errorf("%w: %v", ErrPersistenceFailed, err))
	}
	if req.CanAccess != nil && !req.CanAccess(kase) {
		return nil, s.discard(req.File, ErrForbidden)
	}

	sum, size, err := HashFile(req.File.Path)
	if err != nil {
		return nil, s.discard(req.File, fmt.Errorf("%w: %v", ErrHashComputationFailed, err))
	}

	evidence := &models.Evidence{
		CaseID:      caseID,
		Uploader:    req.UploaderID,
		FileName:    req.File.OriginalName,
		FilePath:    req.File.Path,
		FileType:    req.File.ContentType,
		FileSize:    size,
		Hash:        sum,
		Description: api.Sanitize(req.Description),
		UploadedAt:  s.now(),
	}
	insertCtx, cancel := api.WithQueryTimeout(ctx)
	err = s.Evidence.InsertOne(insertCtx, evidence)
	cancel()
	if err != nil {
		return nil, s.discard(req.File, fmt.Errorf("%w: %v", ErrPersistenceFailed, err))
	}

	zap.S().Infow("evidence ingested",
		"evidenceId", evidence.ID.Hex(),
		"caseId", caseID.Hex(),
		"hash", sum,
		"size", size)

	s.notifyCreator(context.WithoutCancel(ctx), caseID, req.UploaderID)
	s.archive(evidence)
	return evidence, nil
}

// notifyCreator reads the case again right before use so a reassignment made while the file was
// uploading is seen. The read is not transactional; a change landing between this read and the
// notification is accepted. Callers pass a context that outlives the upload request, since the
// Evidence row is already committed.
func (s *Service) notifyCreator(ctx context.Context, caseID, uploaderID primitive.ObjectID) {
	if s.Notifier == nil {
		return
	}
	current, err := s.findCase(ctx, caseID)
	if err != nil {
		zap.S().Errorw("failed to re-read case for notification",
			"caseId", caseID.Hex(),
			"error", err)
		return
	}
	if current.CreatedBy == uploaderID {
		return
	}
	_, err = s.Notifier.Notify(ctx, current.CreatedBy,
		"New evidence uploaded for case: "+current.Title,
		models.CaseLink(caseID.Hex()),
		models.NotificationInfo)
	if err != nil {
		zap.S().Errorw("failed to notify case creator",
			"caseId", caseID.Hex(),
			"recipient", current.CreatedBy.Hex(),
			"error", err)
	}
}

func (s *Service) archive(e *models.Evidence) {
	if s.Archive == nil {
		return
	}
	key := fmt.Sprintf("evidence/%s/%s", e.CaseID.Hex(), filepath.Base(e.FilePath))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := s.Archive.Archive(ctx, key, e.FilePath, e.Hash); err != nil {
			zap.S().Errorw("failed to archive evidence",
				"evidenceId", e.ID.Hex(),
				"key", key,
				"error", err)
		}
	}()
}

// Wait blocks until pending archive copies have finished
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) findCase(ctx context.Context, id primitive.ObjectID) (*models.Case, error) {
	ctx, cancel := api.WithQueryTimeout(ctx)
	defer cancel()
	return s.Cases.FindOne(ctx, bson.M{"_id": id})
}

// discard removes an upload that will not be recorded and returns cause
func (s *Service) discard(f *StoredFile, cause error) error {
	if err := f.Remove(); err != nil {
		zap.S().Errorw("failed to remove orphaned upload",
			"path", f.Path,
			"error", err)
	}
	return cause
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
