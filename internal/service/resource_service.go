package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/valokuva/cms-admin-api/internal/dto"
	"github.com/valokuva/cms-admin-api/internal/models"
	appErrors "github.com/valokuva/cms-admin-api/pkg/errors"
)

const (
	resourceDefaultSize = 20
	resourceMaxSize     = 200
)

type webResourceReader interface {
	ListFiles(ctx context.Context, filter models.ResourceFilter, limit, offset int) ([]models.ResourceSummary, error)
	CountFiles(ctx context.Context, filter models.ResourceFilter) (int, error)
	SearchGalleriesToken(ctx context.Context, token string, filter models.ResourceFilter, limit int) ([]models.ResourceSummary, error)
	CountGalleries(ctx context.Context, filter models.ResourceFilter) (int, error)
	SearchPagesToken(ctx context.Context, token string, filter models.ResourceFilter, limit int) ([]models.ResourceSummary, error)
	CountPages(ctx context.Context, filter models.ResourceFilter) (int, error)
}

type resourceCache interface {
	GetResourceList(ctx context.Context, key string) *dto.ResourceListResponse
	SetResourceList(ctx context.Context, key string, resp *dto.ResourceListResponse)
}

// ResourceService serves the unified directory over published files,
// galleries and pages. When no type is requested, the three listings are
// concatenated files first, then galleries, then pages, and the page window
// is cut from the concatenation.
type ResourceService struct {
	repo   webResourceReader
	cache  resourceCache
	logger *zap.Logger
}

// NewResourceService constructs a ResourceService.
func NewResourceService(repo webResourceReader, cache resourceCache, logger *zap.Logger) *ResourceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResourceService{repo: repo, cache: cache, logger: logger}
}

// List resolves one directory page.
func (s *ResourceService) List(ctx context.Context, req dto.ResourceListRequest) (*dto.ResourceListResponse, error) {
	filter, err := s.normalizeRequest(req)
	if err != nil {
		return nil, err
	}

	cacheKey := resourceCacheKey(filter)
	if s.cache != nil {
		if cached := s.cache.GetResourceList(ctx, cacheKey); cached != nil {
			return cached, nil
		}
	}

	var resp *dto.ResourceListResponse
	if filter.Type != nil {
		resp, err = s.listSingleType(ctx, *filter)
	} else {
		resp, err = s.listAllTypes(ctx, *filter)
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.SetResourceList(ctx, cacheKey, resp)
	}
	return resp, nil
}

func (s *ResourceService) listSingleType(ctx context.Context, filter models.ResourceFilter) (*dto.ResourceListResponse, error) {
	offset := filter.Page * filter.Size
	switch *filter.Type {
	case models.ResourceTypeFile:
		items, err := s.repo.ListFiles(ctx, filter, filter.Size, offset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list files")
		}
		total, err := s.repo.CountFiles(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count files")
		}
		return &dto.ResourceListResponse{
			Items:      items,
			Pagination: *models.NewPagination(filter.Page, filter.Size, int64(total)),
		}, nil
	case models.ResourceTypeGallery:
		merged, err := s.searchMerged(ctx, filter, s.repo.SearchGalleriesToken)
		if err != nil {
			return nil, err
		}
		total, err := s.repo.CountGalleries(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count galleries")
		}
		return &dto.ResourceListResponse{
			Items:      sliceWindow(merged, filter.Page, filter.Size),
			Pagination: *models.NewPagination(filter.Page, filter.Size, int64(total)),
		}, nil
	case models.ResourceTypePage:
		merged, err := s.searchMerged(ctx, filter, s.repo.SearchPagesToken)
		if err != nil {
			return nil, err
		}
		total, err := s.repo.CountPages(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pages")
		}
		return &dto.ResourceListResponse{
			Items:      sliceWindow(merged, filter.Page, filter.Size),
			Pagination: *models.NewPagination(filter.Page, filter.Size, int64(total)),
		}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, "unknown resource type")
}

// listAllTypes over-fetches each store up to the end of the requested window,
// concatenates files, galleries and pages in that order and cuts the window
// from the concatenation. Totals are the true combined counts.
func (s *ResourceService) listAllTypes(ctx context.Context, filter models.ResourceFilter) (*dto.ResourceListResponse, error) {
	fetchCap := (filter.Page + 1) * filter.Size

	files, err := s.repo.ListFiles(ctx, filter, fetchCap, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list files")
	}
	galleries, err := s.searchMerged(ctx, filter, s.repo.SearchGalleriesToken)
	if err != nil {
		return nil, err
	}
	pages, err := s.searchMerged(ctx, filter, s.repo.SearchPagesToken)
	if err != nil {
		return nil, err
	}

	combined := make([]models.ResourceSummary, 0, len(files)+len(galleries)+len(pages))
	combined = append(combined, files...)
	combined = append(combined, galleries...)
	combined = append(combined, pages...)

	fileTotal, err := s.repo.CountFiles(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count files")
	}
	galleryTotal, err := s.repo.CountGalleries(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count galleries")
	}
	pageTotal, err := s.repo.CountPages(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pages")
	}

	return &dto.ResourceListResponse{
		Items:      sliceWindow(combined, filter.Page, filter.Size),
		Pagination: *models.NewPagination(filter.Page, filter.Size, int64(fileTotal+galleryTotal+pageTotal)),
	}, nil
}

type tokenSearch func(ctx context.Context, token string, filter models.ResourceFilter, limit int) ([]models.ResourceSummary, error)

// searchMerged runs one search per query token and merges the results in
// first-appearance order, de-duplicated by resource id. An empty query runs a
// single unfiltered search.
func (s *ResourceService) searchMerged(ctx context.Context, filter models.ResourceFilter, search tokenSearch) ([]models.ResourceSummary, error) {
	limit := (filter.Page + 1) * filter.Size
	tokens := models.SplitQueryTerms(filter.Query)
	if len(tokens) == 0 {
		tokens = []string{""}
	}

	seen := map[int64]struct{}{}
	merged := make([]models.ResourceSummary, 0, limit)
	for _, token := range tokens {
		items, err := search(ctx, token, filter, limit)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search resources")
		}
		for _, item := range items {
			if _, ok := seen[item.ResourceID]; ok {
				continue
			}
			seen[item.ResourceID] = struct{}{}
			merged = append(merged, item)
		}
	}
	return merged, nil
}

// sliceWindow cuts the requested page out of a merged listing. Pages are
// numbered from zero.
func sliceWindow(items []models.ResourceSummary, page, size int) []models.ResourceSummary {
	start := page * size
	if start >= len(items) {
		return []models.ResourceSummary{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// normalizeRequest applies defaults and bounds. Pages are numbered from zero.
func (s *ResourceService) normalizeRequest(req dto.ResourceListRequest) (*models.ResourceFilter, error) {
	filter := models.ResourceFilter{
		Query:     strings.TrimSpace(req.Query),
		Sort:      req.Sort,
		Direction: strings.ToLower(req.Direction),
		Page:      req.Page,
		Size:      req.Size,
	}
	if filter.Page < 0 {
		filter.Page = 0
	}
	if filter.Size < 1 {
		filter.Size = resourceDefaultSize
	}
	if filter.Size > resourceMaxSize {
		filter.Size = resourceMaxSize
	}

	if req.Type != "" {
		resourceType, ok := models.ParseResourceType(req.Type)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown resource type")
		}
		filter.Type = &resourceType
	}
	if req.FileType != "" {
		class := models.FileClass(strings.ToLower(req.FileType))
		switch class {
		case models.FileClassImage, models.FileClassVideo, models.FileClassAudio,
			models.FileClassDocument, models.FileClassOther:
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown file type")
		}
		filter.FileType = &class
	}
	if req.AclID > 0 {
		aclID := req.AclID
		filter.AclID = &aclID
	}

	switch filter.Sort {
	case "":
		filter.Sort = "id"
	case "id", "name", "created":
	default:
		// Unknown sort keys fall back to the id ordering instead of failing.
		s.logger.Warn("unknown resource sort key, falling back to id", zap.String("sort", filter.Sort))
		filter.Sort = "id"
	}
	switch filter.Direction {
	case "":
		filter.Direction = "asc"
	case "asc", "desc":
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported sort direction")
	}
	return &filter, nil
}

func resourceCacheKey(filter *models.ResourceFilter) string {
	typePart := "ALL"
	if filter.Type != nil {
		typePart = string(*filter.Type)
	}
	filePart := ""
	if filter.FileType != nil {
		filePart = string(*filter.FileType)
	}
	aclPart := int64(0)
	if filter.AclID != nil {
		aclPart = *filter.AclID
	}
	return fmt.Sprintf("%s|%s|%s|%d|%s|%s|%d|%d",
		typePart, filePart, filter.Query, aclPart, filter.Sort, filter.Direction, filter.Page, filter.Size)
}
