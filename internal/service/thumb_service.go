package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/valokuva/cms-admin-api/internal/models"
	"github.com/valokuva/cms-admin-api/pkg/config"
	appErrors "github.com/valokuva/cms-admin-api/pkg/errors"
	"github.com/valokuva/cms-admin-api/pkg/storage"
)

type fileThumbRepository interface {
	FindByParentID(ctx context.Context, parentID int64) (*models.FileThumb, error)
	Upsert(ctx context.Context, thumb *models.FileThumb) error
	DeleteByParentID(ctx context.Context, parentID int64) error
}

// ThumbService derives thumbnails for image files. A source file has at most
// one thumbnail; regeneration replaces both the artifact and the row.
type ThumbService struct {
	repo    fileThumbRepository
	store   *storage.BucketStorage
	cfg     config.StorageConfig
	metrics *MetricsService
	logger  *zap.Logger
}

// NewThumbService constructs a ThumbService.
func NewThumbService(repo fileThumbRepository, store *storage.BucketStorage, cfg config.StorageConfig, metrics *MetricsService, logger *zap.Logger) *ThumbService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ThumbService{repo: repo, store: store, cfg: cfg, metrics: metrics, logger: logger}
}

// ThumbPath returns the on-disk location of the thumbnail derived from a
// source file: <base>/<thumbdir>/<class>/<relpath>/<name>.<format>.
func (s *ThumbService) ThumbPath(file *models.SiteFile) (string, error) {
	name := storage.ReplaceExtension(file.FileName, s.cfg.ThumbFormat)
	rel := filepath.Join(s.cfg.ThumbSubDir, string(file.FileClass), filepath.FromSlash(file.FilePath))
	return storage.ResolveWithin(s.store.BaseDir(), rel, name)
}

// RemotePath returns the path of the thumbnail relative to the storage base,
// used when shipping the artifact to the site host.
func (s *ThumbService) RemotePath(file *models.SiteFile) string {
	name := storage.ReplaceExtension(file.FileName, s.cfg.ThumbFormat)
	return filepath.ToSlash(filepath.Join(s.cfg.ThumbSubDir, string(file.FileClass), filepath.FromSlash(file.FilePath), name))
}

// Generate renders the thumbnail of an image file, replacing any previous
// artifact and row. Non-image files are skipped with a nil thumb.
func (s *ThumbService) Generate(ctx context.Context, file *models.SiteFile, sourcePath string) (*models.FileThumb, error) {
	if file.FileClass != models.FileClassImage {
		return nil, nil
	}

	target, err := s.ThumbPath(file)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "illegal thumbnail path")
	}

	src, err := imaging.Open(sourcePath, imaging.AutoOrientation(true))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "source image cannot be decoded")
	}
	size := s.cfg.ThumbSize
	if size <= 0 {
		size = 250
	}
	thumbImg := imaging.Fit(src, size, size, imaging.Lanczos)

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to prepare thumbnail directory")
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace thumbnail")
	}
	if err := imaging.Save(thumbImg, target); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write thumbnail")
	}

	thumbSize, err := storage.FileSize(target)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat thumbnail")
	}
	// The checksum is taken over the source file so a re-ingest of identical
	// content is detectable without decoding the artifact.
	checksum, err := sha1File(sourcePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash source file")
	}

	bounds := thumbImg.Bounds()
	thumb := &models.FileThumb{
		ParentID: file.ID,
		FilePath: filepath.ToSlash(filepath.Join(s.cfg.ThumbSubDir, string(file.FileClass), filepath.FromSlash(file.FilePath))),
		FileName: storage.ReplaceExtension(file.FileName, s.cfg.ThumbFormat),
		FileSize: thumbSize,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Sha1Sum:  checksum,
	}
	if err := s.repo.Upsert(ctx, thumb); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store thumbnail row")
	}
	if s.metrics != nil {
		s.metrics.ObserveThumbnail()
	}
	s.logger.Debug("thumbnail generated",
		zap.Int64("file_id", file.ID),
		zap.String("thumb", thumb.FileName),
		zap.Int("width", thumb.Width),
		zap.Int("height", thumb.Height))
	return thumb, nil
}

// Remove deletes the thumbnail artifact and row of a file.
func (s *ThumbService) Remove(ctx context.Context, file *models.SiteFile) error {
	target, err := s.ThumbPath(file)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove thumbnail %s: %w", target, err)
	}
	return s.repo.DeleteByParentID(ctx, file.ID)
}

func sha1File(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close() //nolint:errcheck
	hasher := sha1.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
