package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valokuva/cms-admin-api/internal/dto"
	"github.com/valokuva/cms-admin-api/internal/models"
	appErrors "github.com/valokuva/cms-admin-api/pkg/errors"
)

type webResourceStub struct {
	files     []models.ResourceSummary
	galleries map[string][]models.ResourceSummary
	pages     map[string][]models.ResourceSummary
}

func (s *webResourceStub) ListFiles(ctx context.Context, filter models.ResourceFilter, limit, offset int) ([]models.ResourceSummary, error) {
	items := s.files
	if offset >= len(items) {
		return nil, nil
	}
	items = items[offset:]
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *webResourceStub) CountFiles(ctx context.Context, filter models.ResourceFilter) (int, error) {
	return len(s.files), nil
}

func (s *webResourceStub) SearchGalleriesToken(ctx context.Context, token string, filter models.ResourceFilter, limit int) ([]models.ResourceSummary, error) {
	return s.galleries[token], nil
}

func (s *webResourceStub) CountGalleries(ctx context.Context, filter models.ResourceFilter) (int, error) {
	seen := map[int64]struct{}{}
	for _, items := range s.galleries {
		for _, item := range items {
			seen[item.ResourceID] = struct{}{}
		}
	}
	return len(seen), nil
}

func (s *webResourceStub) SearchPagesToken(ctx context.Context, token string, filter models.ResourceFilter, limit int) ([]models.ResourceSummary, error) {
	return s.pages[token], nil
}

func (s *webResourceStub) CountPages(ctx context.Context, filter models.ResourceFilter) (int, error) {
	seen := map[int64]struct{}{}
	for _, items := range s.pages {
		for _, item := range items {
			seen[item.ResourceID] = struct{}{}
		}
	}
	return len(seen), nil
}

func fileSummary(id int64, path string) models.ResourceSummary {
	return models.ResourceSummary{ResourceType: models.ResourceTypeFile, ResourceID: id, Name: path, Path: path}
}

func gallerySummary(id int64, name string) models.ResourceSummary {
	return models.ResourceSummary{ResourceType: models.ResourceTypeGallery, ResourceID: id, Name: name, Path: name}
}

func pageSummary(id int64, title string) models.ResourceSummary {
	return models.ResourceSummary{ResourceType: models.ResourceTypePage, ResourceID: id, Name: title, Path: "/" + title}
}

func TestResourceServiceAllTypesConcatenatesInOrder(t *testing.T) {
	repo := &webResourceStub{
		files:     []models.ResourceSummary{fileSummary(1, "a.jpg"), fileSummary(2, "b.jpg")},
		galleries: map[string][]models.ResourceSummary{"": {gallerySummary(10, "summer")}},
		pages:     map[string][]models.ResourceSummary{"": {pageSummary(20, "about")}},
	}
	svc := NewResourceService(repo, nil, nil)

	resp, err := svc.List(context.Background(), dto.ResourceListRequest{Page: 0, Size: 10})
	require.NoError(t, err)
	require.Len(t, resp.Items, 4)
	assert.Equal(t, models.ResourceTypeFile, resp.Items[0].ResourceType)
	assert.Equal(t, models.ResourceTypeFile, resp.Items[1].ResourceType)
	assert.Equal(t, models.ResourceTypeGallery, resp.Items[2].ResourceType)
	assert.Equal(t, models.ResourceTypePage, resp.Items[3].ResourceType)
	assert.Equal(t, int64(4), resp.Pagination.TotalElements)
}

func TestResourceServiceAllTypesWindowSpansStores(t *testing.T) {
	repo := &webResourceStub{
		files:     []models.ResourceSummary{fileSummary(1, "a.jpg"), fileSummary(2, "b.jpg")},
		galleries: map[string][]models.ResourceSummary{"": {gallerySummary(10, "summer")}},
		pages:     map[string][]models.ResourceSummary{"": {pageSummary(20, "about")}},
	}
	svc := NewResourceService(repo, nil, nil)

	resp, err := svc.List(context.Background(), dto.ResourceListRequest{Page: 1, Size: 3})
	require.NoError(t, err)
	// Pages count from zero, so page 1 is window [3:6) of files+galleries+pages
	// and holds only the page entry.
	require.Len(t, resp.Items, 1)
	assert.Equal(t, models.ResourceTypePage, resp.Items[0].ResourceType)
	assert.Equal(t, int64(4), resp.Pagination.TotalElements)
	assert.Equal(t, 2, resp.Pagination.TotalPages)
}

func TestResourceServiceMergeDeduplicatesAcrossTokens(t *testing.T) {
	repo := &webResourceStub{
		galleries: map[string][]models.ResourceSummary{
			"summer": {gallerySummary(10, "summer-trip"), gallerySummary(11, "summer-sea")},
			"trip":   {gallerySummary(10, "summer-trip"), gallerySummary(12, "road-trip")},
		},
	}
	svc := NewResourceService(repo, nil, nil)

	resp, err := svc.List(context.Background(), dto.ResourceListRequest{
		Type: "GALLERY", Query: "summer trip", Page: 0, Size: 10,
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 3)
	assert.Equal(t, int64(10), resp.Items[0].ResourceID)
	assert.Equal(t, int64(11), resp.Items[1].ResourceID)
	assert.Equal(t, int64(12), resp.Items[2].ResourceID)
}

func TestResourceServiceSizeCap(t *testing.T) {
	repo := &webResourceStub{}
	svc := NewResourceService(repo, nil, nil)

	resp, err := svc.List(context.Background(), dto.ResourceListRequest{Type: "SITE_FILE", Size: 9999})
	require.NoError(t, err)
	assert.Equal(t, resourceMaxSize, resp.Pagination.Size)
}

func TestResourceServiceRejectsUnknownType(t *testing.T) {
	svc := NewResourceService(&webResourceStub{}, nil, nil)

	_, err := svc.List(context.Background(), dto.ResourceListRequest{Type: "WIDGET"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestResourceServiceUnknownSortFallsBackToID(t *testing.T) {
	repo := &webResourceStub{
		files: []models.ResourceSummary{fileSummary(1, "a.jpg")},
	}
	svc := NewResourceService(repo, nil, nil)

	resp, err := svc.List(context.Background(), dto.ResourceListRequest{Sort: "size"})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
}

func TestResourceServiceQuotedQuerySearchesAsOneToken(t *testing.T) {
	repo := &webResourceStub{
		galleries: map[string][]models.ResourceSummary{
			"summer trip": {gallerySummary(10, "summer-trip")},
			"beach":       {gallerySummary(11, "beach")},
		},
	}
	svc := NewResourceService(repo, nil, nil)

	resp, err := svc.List(context.Background(), dto.ResourceListRequest{
		Type: "GALLERY", Query: `"summer trip" beach`, Page: 0, Size: 10,
	})
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, int64(10), resp.Items[0].ResourceID)
	assert.Equal(t, int64(11), resp.Items[1].ResourceID)
}

func TestResourceServiceRejectsUnknownFileType(t *testing.T) {
	svc := NewResourceService(&webResourceStub{}, nil, nil)

	_, err := svc.List(context.Background(), dto.ResourceListRequest{FileType: "hologram"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
