package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/valokuva/cms-admin-api/internal/dto"
	"github.com/valokuva/cms-admin-api/internal/models"
	appErrors "github.com/valokuva/cms-admin-api/pkg/errors"
)

type galleryAdminRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Gallery, error)
	ReplaceFiles(ctx context.Context, galleryID int64, fileIDs []int64) error
	Files(ctx context.Context, galleryID int64) ([]models.SiteFile, error)
	SearchByTokens(ctx context.Context, tokens []string) ([]models.Gallery, error)
}

// GalleryService manages gallery membership on the admin side. Ordering is
// owned by the caller: an update replaces the whole membership wholesale.
type GalleryService struct {
	repo   galleryAdminRepository
	logger *zap.Logger
}

// NewGalleryService constructs a GalleryService.
func NewGalleryService(repo galleryAdminRepository, logger *zap.Logger) *GalleryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GalleryService{repo: repo, logger: logger}
}

// Search finds admin galleries matching every term of the query. Quoted
// substrings count as one term. Unlike the site resource directory, the match
// is conjunctive across terms.
func (s *GalleryService) Search(ctx context.Context, query string) ([]models.Gallery, error) {
	tokens := models.SplitQueryTerms(strings.TrimSpace(query))
	if len(tokens) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "search query is required")
	}
	galleries, err := s.repo.SearchByTokens(ctx, tokens)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search galleries")
	}
	if galleries == nil {
		galleries = []models.Gallery{}
	}
	return galleries, nil
}

// ReplaceMembership swaps the gallery's file list for the given ids, keeping
// their order. An empty list clears the gallery.
func (s *GalleryService) ReplaceMembership(ctx context.Context, galleryID int64, fileIDs []int64) (*dto.GalleryFilesResponse, error) {
	if galleryID < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "gallery id must be positive")
	}
	seen := make(map[int64]struct{}, len(fileIDs))
	for _, id := range fileIDs {
		if id < 1 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "file ids must be positive")
		}
		if _, dup := seen[id]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, "file ids must be unique")
		}
		seen[id] = struct{}{}
	}

	gallery, err := s.repo.FindByID(ctx, galleryID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load gallery")
	}
	if gallery == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "gallery not found")
	}

	if err := s.repo.ReplaceFiles(ctx, galleryID, fileIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace gallery files")
	}
	s.logger.Info("gallery membership replaced",
		zap.Int64("gallery_id", galleryID), zap.Int("files", len(fileIDs)))

	files, err := s.repo.Files(ctx, galleryID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list gallery files")
	}
	ids := make([]int64, len(files))
	for i, file := range files {
		ids[i] = file.ID
	}
	return &dto.GalleryFilesResponse{
		GalleryID: galleryID,
		Shortname: gallery.Shortname,
		FileIDs:   ids,
	}, nil
}
