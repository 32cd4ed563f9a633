package service

import (
	"context"
	"crypto/subtle"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/valokuva/cms-admin-api/internal/dto"
	"github.com/valokuva/cms-admin-api/internal/models"
	appErrors "github.com/valokuva/cms-admin-api/pkg/errors"
	"github.com/valokuva/cms-admin-api/pkg/storage"
)

type siteFileRepository interface {
	FindByID(ctx context.Context, id int64) (*models.SiteFile, error)
	FindByLocation(ctx context.Context, filePath, fileName string) (*models.SiteFile, error)
	Upsert(ctx context.Context, file *models.SiteFile) (bool, error)
	ListImagesWithoutThumb(ctx context.Context, limit int) ([]models.SiteFile, error)
}

type galleryRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Gallery, error)
	FindByShortname(ctx context.Context, shortname string) (*models.Gallery, error)
	Create(ctx context.Context, gallery *models.Gallery) error
	UpdateDescription(ctx context.Context, id int64, description string, modifier string) error
	AppendFile(ctx context.Context, galleryID, fileID int64) error
	Files(ctx context.Context, galleryID int64) ([]models.SiteFile, error)
}

type aclGroupCreator interface {
	CreateGroup(ctx context.Context, rows []models.Acl) (int64, error)
}

type thumbGenerator interface {
	Generate(ctx context.Context, file *models.SiteFile, sourcePath string) (*models.FileThumb, error)
	Remove(ctx context.Context, file *models.SiteFile) error
}

// IngestService receives files pushed by the desktop tooling, lands them in
// the class bucket, verifies integrity and records metadata. Re-ingesting the
// same logical file refreshes it in place.
type IngestService struct {
	files        siteFileRepository
	galleries    galleryRepository
	acls         aclGroupCreator
	thumbs       thumbGenerator
	store        *storage.BucketStorage
	presharedKey string
	metrics      *MetricsService
	logger       *zap.Logger
}

// NewIngestService constructs an IngestService.
func NewIngestService(files siteFileRepository, galleries galleryRepository, acls aclGroupCreator,
	thumbs thumbGenerator, store *storage.BucketStorage, presharedKey string,
	metrics *MetricsService, logger *zap.Logger) *IngestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestService{
		files:        files,
		galleries:    galleries,
		acls:         acls,
		thumbs:       thumbs,
		store:        store,
		presharedKey: presharedKey,
		metrics:      metrics,
		logger:       logger,
	}
}

// VerifyKey checks the pre-shared ingest key in constant time.
func (s *IngestService) VerifyKey(key string) error {
	if s.presharedKey == "" {
		return appErrors.Clone(appErrors.ErrForbidden, "ingest is not configured")
	}
	if subtle.ConstantTimeCompare([]byte(key), []byte(s.presharedKey)) != 1 {
		return appErrors.Clone(appErrors.ErrUnauthorized, "invalid ingest key")
	}
	return nil
}

// Ingest lands one uploaded file. The declared checksum is verified against
// the bytes written to disk; on mismatch the landed file is removed again.
func (s *IngestService) Ingest(ctx context.Context, req dto.IngestRequest, content io.Reader, actor int64) (*dto.IngestResponse, error) {
	name, err := storage.SanitizeFileName(req.FileName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "illegal file name")
	}
	rel, err := storage.SanitizeRelPath(req.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "illegal file path")
	}
	mainType, subType, found := strings.Cut(req.MimeType, "/")
	if !found || strings.TrimSpace(mainType) == "" || strings.TrimSpace(subType) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "mime type must be type/subtype")
	}

	class := models.FileClassForMime(req.MimeType)
	bucketDir, err := s.store.BucketDir(string(class))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "storage bucket unavailable")
	}
	target, err := storage.ResolveWithin(bucketDir, rel, name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "illegal file path")
	}

	written, err := storage.WriteStream(target, content)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}

	sum, err := storage.Sha256File(target)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash file")
	}
	if !strings.EqualFold(sum, req.Sha256) {
		s.discard(target)
		if s.metrics != nil {
			s.metrics.ObserveIngest(class, "checksum_mismatch")
		}
		return nil, appErrors.Clone(appErrors.ErrValidation, "checksum mismatch")
	}

	file := &models.SiteFile{
		FileName:  name,
		FilePath:  filepath.ToSlash(rel),
		MimeType:  req.MimeType,
		FileClass: class,
		Size:      written,
		Sha256Sum: strings.ToLower(sum),
		Metadata:  optionalString(req.Metadata),
		Comment:   optionalString(req.Comment),
		Creator:   actor,
	}
	updated, err := s.files.Upsert(ctx, file)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record file")
	}

	resp := &dto.IngestResponse{FileID: file.ID, FileClass: string(class), Updated: updated}

	if thumb, err := s.thumbs.Generate(ctx, file, target); err != nil {
		// A broken thumbnail does not fail the ingest; the sweep retries it.
		s.logger.Warn("thumbnail generation failed", zap.Int64("file_id", file.ID), zap.Error(err))
	} else if thumb != nil {
		resp.ThumbID = &thumb.ID
	} else if updated {
		// The refreshed content is not an image; a thumbnail from an earlier
		// ingest of this location would be stale.
		if err := s.thumbs.Remove(ctx, file); err != nil {
			s.logger.Warn("stale thumbnail cleanup failed", zap.Int64("file_id", file.ID), zap.Error(err))
		}
	}

	if req.Gallery != "" {
		gallery, err := s.attachToGallery(ctx, req, file, actor)
		if err != nil {
			return nil, err
		}
		resp.GalleryID = &gallery.ID
		resp.GalleryName = gallery.Shortname
	}

	if s.metrics != nil {
		outcome := "created"
		if updated {
			outcome = "updated"
		}
		s.metrics.ObserveIngest(class, outcome)
	}
	s.logger.Info("file ingested",
		zap.Int64("file_id", file.ID),
		zap.String("class", string(class)),
		zap.Bool("updated", updated))
	return resp, nil
}

// attachToGallery upserts the target gallery and appends the file. A missing
// gallery is created with a fresh single-owner permission group; an existing
// one has its description patched when the request carries a new one.
func (s *IngestService) attachToGallery(ctx context.Context, req dto.IngestRequest, file *models.SiteFile, actor int64) (*models.Gallery, error) {
	description := req.GalleryDesc
	if description == "" {
		description = req.Comment
	}
	gallery, err := s.galleries.FindByShortname(ctx, req.Gallery)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load gallery")
	}
	if gallery == nil {
		aclID, err := s.acls.CreateGroup(ctx, []models.Acl{{
			UserID:     &actor,
			CreatePriv: true,
			ReadPriv:   true,
			ModifyPriv: true,
			DeletePriv: true,
		}})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create gallery acl")
		}
		gallery = &models.Gallery{
			Shortname:   req.Gallery,
			Description: description,
			AclID:       aclID,
			Creator:     actor,
		}
		if err := s.galleries.Create(ctx, gallery); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create gallery")
		}
	} else if description != "" && description != gallery.Description {
		if err := s.galleries.UpdateDescription(ctx, gallery.ID, description, ""); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update gallery")
		}
		gallery.Description = description
	}

	if err := s.galleries.AppendFile(ctx, gallery.ID, file.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach file to gallery")
	}
	return gallery, nil
}

func (s *IngestService) discard(path string) {
	if err := removeFile(path); err != nil {
		s.logger.Warn("failed to discard rejected file", zap.String("path", path), zap.Error(err))
	}
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
