package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valokuva/cms-admin-api/internal/dto"
	"github.com/valokuva/cms-admin-api/internal/models"
	appErrors "github.com/valokuva/cms-admin-api/pkg/errors"
	"github.com/valokuva/cms-admin-api/pkg/storage"
	"github.com/valokuva/cms-admin-api/pkg/transport"
)

type pageReaderStub struct {
	pages      map[int64]*models.Page
	forms      map[int64]*models.Form
	layouts    map[int64]*models.Layout
	components map[int64][]models.Component
	galleries  map[int64][]int64
	nicks      map[int64]string
}

func (s *pageReaderStub) FindByID(ctx context.Context, id int64) (*models.Page, error) {
	return s.pages[id], nil
}

func (s *pageReaderStub) FindForm(ctx context.Context, formID int64) (*models.Form, error) {
	return s.forms[formID], nil
}

func (s *pageReaderStub) FindLayout(ctx context.Context, layoutID int64) (*models.Layout, error) {
	return s.layouts[layoutID], nil
}

func (s *pageReaderStub) FormComponents(ctx context.Context, formID int64) ([]models.Component, error) {
	return s.components[formID], nil
}

func (s *pageReaderStub) PageGalleries(ctx context.Context, pageID int64) ([]int64, error) {
	return s.galleries[pageID], nil
}

func (s *pageReaderStub) FindUserNick(ctx context.Context, userID int64) (string, error) {
	if nick, ok := s.nicks[userID]; ok {
		return nick, nil
	}
	return "", errors.New("user not found")
}

type webMirrorStub struct {
	nextAclID    int64
	aclGroups    map[int64][]models.WebSiteAcl
	pages        map[int64]*models.WebSitePage
	galleries    map[int64]*models.WebSiteGallery
	galleryFiles map[int64][]int64
	files        []models.WebSiteFile
	users        []models.WebSiteUser
	nextID       int64
}

func newWebMirrorStub() *webMirrorStub {
	return &webMirrorStub{
		nextAclID:    100,
		aclGroups:    map[int64][]models.WebSiteAcl{},
		pages:        map[int64]*models.WebSitePage{},
		galleries:    map[int64]*models.WebSiteGallery{},
		galleryFiles: map[int64][]int64{},
	}
}

func (s *webMirrorStub) NextAclID(ctx context.Context) (int64, error) {
	s.nextAclID++
	return s.nextAclID, nil
}

func (s *webMirrorStub) ReplaceAclGroup(ctx context.Context, aclID int64, rows []models.WebSiteAcl) error {
	s.aclGroups[aclID] = rows
	return nil
}

func (s *webMirrorStub) FindPageByPageID(ctx context.Context, pageID int64) (*models.WebSitePage, error) {
	return s.pages[pageID], nil
}

func (s *webMirrorStub) UpsertPage(ctx context.Context, page *models.WebSitePage) error {
	if existing, ok := s.pages[page.PageID]; ok {
		page.ID = existing.ID
	} else {
		s.nextID++
		page.ID = s.nextID
	}
	s.pages[page.PageID] = page
	return nil
}

func (s *webMirrorStub) FindGalleryByGalleryID(ctx context.Context, galleryID int64) (*models.WebSiteGallery, error) {
	return s.galleries[galleryID], nil
}

func (s *webMirrorStub) UpsertGallery(ctx context.Context, gallery *models.WebSiteGallery) error {
	if existing, ok := s.galleries[gallery.GalleryID]; ok {
		gallery.ID = existing.ID
	} else {
		s.nextID++
		gallery.ID = s.nextID
	}
	s.galleries[gallery.GalleryID] = gallery
	return nil
}

func (s *webMirrorStub) ReplaceGalleryFiles(ctx context.Context, siteGalleryID int64, siteFileIDs []int64) error {
	s.galleryFiles[siteGalleryID] = siteFileIDs
	return nil
}

func (s *webMirrorStub) UpsertFile(ctx context.Context, file *models.WebSiteFile) error {
	s.nextID++
	file.ID = s.nextID
	s.files = append(s.files, *file)
	return nil
}

func (s *webMirrorStub) UpsertUser(ctx context.Context, user *models.WebSiteUser) error {
	s.nextID++
	user.ID = s.nextID
	s.users = append(s.users, *user)
	return nil
}

func (s *webMirrorStub) DeletePageByPageID(ctx context.Context, pageID int64) error {
	delete(s.pages, pageID)
	return nil
}

func (s *webMirrorStub) DeleteGalleryByGalleryID(ctx context.Context, galleryID int64) error {
	if gallery, ok := s.galleries[galleryID]; ok {
		delete(s.galleryFiles, gallery.ID)
	}
	delete(s.galleries, galleryID)
	return nil
}

type scheduleStoreStub struct {
	rows    map[int64]*models.PublishSchedule
	due     []models.PublishSchedule
	status  map[int64]models.PublishStatus
	message map[int64]*string
	nextID  int64
}

func newScheduleStoreStub() *scheduleStoreStub {
	return &scheduleStoreStub{
		rows:    map[int64]*models.PublishSchedule{},
		status:  map[int64]models.PublishStatus{},
		message: map[int64]*string{},
	}
}

func (s *scheduleStoreStub) Create(ctx context.Context, sched *models.PublishSchedule) error {
	s.nextID++
	sched.ID = s.nextID
	if sched.PublishStatus == "" {
		sched.PublishStatus = models.PublishStatusPending
	}
	s.rows[sched.ID] = sched
	return nil
}

func (s *scheduleStoreStub) FindByID(ctx context.Context, id int64) (*models.PublishSchedule, error) {
	return s.rows[id], nil
}

func (s *scheduleStoreStub) ClaimDue(ctx context.Context, now time.Time, limit int) ([]models.PublishSchedule, error) {
	return s.due, nil
}

func (s *scheduleStoreStub) Reclaim(ctx context.Context, id int64) error {
	row, ok := s.rows[id]
	if !ok {
		return errors.New("missing row")
	}
	if row.PublishStatus == models.PublishStatusPublished {
		return errors.New("not retryable")
	}
	row.PublishStatus = models.PublishStatusPending
	return nil
}

func (s *scheduleStoreStub) UpdateStatus(ctx context.Context, id int64, status models.PublishStatus, message *string) error {
	s.status[id] = status
	s.message[id] = message
	return nil
}

type deployerStub struct {
	batches [][]transport.TransferItem
	removed []transport.RemoveItem
	err     error
}

func (s *deployerStub) TransferFiles(ctx context.Context, items []transport.TransferItem) error {
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, items)
	return nil
}

func (s *deployerStub) RemoveFiles(ctx context.Context, items []transport.RemoveItem) error {
	if s.err != nil {
		return s.err
	}
	s.removed = append(s.removed, items...)
	return nil
}

type thumbLocStub struct{}

func (thumbLocStub) ThumbPath(file *models.SiteFile) (string, error) {
	return "/data/.thumb/" + file.FileName, nil
}

func (thumbLocStub) RemotePath(file *models.SiteFile) string {
	return ".thumb/image/" + file.FilePath + "/" + file.FileName
}

type cacheStub struct {
	invalidations int
}

func (s *cacheStub) InvalidateSiteContent(ctx context.Context) {
	s.invalidations++
}

type publishFixture struct {
	svc       *PublishService
	pages     *pageReaderStub
	galleries *galleryRepoStub
	acls      *aclRepoStub
	mirror    *webMirrorStub
	schedules *scheduleStoreStub
	deployer  *deployerStub
	cache     *cacheStub
}

func newPublishFixture(t *testing.T) *publishFixture {
	t.Helper()
	store, err := storage.NewBucketStorage(t.TempDir(), map[string]string{
		"image": "image", "other": "other",
	})
	require.NoError(t, err)

	userID := int64(1)
	f := &publishFixture{
		pages: &pageReaderStub{
			pages: map[int64]*models.Page{
				3: {ID: 3, FormID: 10, Path: "/about", Title: "About", Header: "About us",
					Body: "page body", AclID: 5, Creator: 1},
			},
			forms:   map[int64]*models.Form{10: {ID: 10, LayoutID: 20, AclID: 5}},
			layouts: map[int64]*models.Layout{20: {ID: 20, Structure: "<html><!--page--></html>", AclID: 5}},
			components: map[int64][]models.Component{
				10: {{ID: 1, CompData: "<nav/>"}, {ID: 2, CompData: "<footer/>"}},
			},
			galleries: map[int64][]int64{},
			nicks:     map[int64]string{1: "admin"},
		},
		galleries: &galleryRepoStub{
			byShortname: map[string]*models.Gallery{
				"summer": {ID: 8, Shortname: "summer", Description: "summer trip", AclID: 5},
			},
			files: map[int64][]models.SiteFile{
				8: {
					{ID: 40, FileName: "a.jpg", FilePath: "2024", FileClass: models.FileClassImage,
						MimeType: "image/jpeg", Size: 1000},
					{ID: 41, FileName: "b.pdf", FilePath: "2024", FileClass: models.FileClassOther,
						MimeType: "application/pdf", Size: 2000},
				},
			},
		},
		acls: &aclRepoStub{groups: map[int64][]models.Acl{
			5: {
				{AclID: 5, UserID: &userID, CreatePriv: true, ReadPriv: true, ModifyPriv: true, DeletePriv: true},
				{AclID: 5, UnitID: &userID, ReadPriv: false, ModifyPriv: true},
			},
		}},
		mirror:    newWebMirrorStub(),
		schedules: newScheduleStoreStub(),
		deployer:  &deployerStub{},
		cache:     &cacheStub{},
	}
	f.svc = NewPublishService(f.pages, f.galleries, f.acls, f.mirror, f.schedules,
		f.deployer, thumbLocStub{}, store, f.cache, nil, nil)
	return f
}

func TestPublishPageRendersLayout(t *testing.T) {
	f := newPublishFixture(t)

	resp, err := f.svc.Publish(context.Background(), dto.PublishRequest{
		PublishType: models.PublishTypePage,
		PublishID:   3,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PublishStatusPublished, resp.Status)
	require.NotNil(t, resp.SiteID)

	sitePage := f.mirror.pages[3]
	require.NotNil(t, sitePage)
	assert.Equal(t, "<html><nav/>\n<footer/>\npage body</html>", sitePage.Body)
	assert.Equal(t, "admin", sitePage.Creator)
	assert.Equal(t, 1, f.cache.invalidations)
}

func TestPublishPageMirrorsOnlyReadGrants(t *testing.T) {
	f := newPublishFixture(t)

	_, err := f.svc.Publish(context.Background(), dto.PublishRequest{
		PublishType: models.PublishTypePage,
		PublishID:   3,
	})
	require.NoError(t, err)

	sitePage := f.mirror.pages[3]
	rows := f.mirror.aclGroups[sitePage.AclID]
	// The second admin row has no read grant and must not cross over.
	require.Len(t, rows, 1)
	assert.True(t, rows[0].ReadPriv)
}

func TestPublishPageNotFound(t *testing.T) {
	f := newPublishFixture(t)

	_, err := f.svc.Publish(context.Background(), dto.PublishRequest{
		PublishType: models.PublishTypePage,
		PublishID:   999,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPublishGalleryShipsFilesAndThumbs(t *testing.T) {
	f := newPublishFixture(t)

	resp, err := f.svc.Publish(context.Background(), dto.PublishRequest{
		PublishType: models.PublishTypeGallery,
		PublishID:   8,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PublishStatusPublished, resp.Status)

	require.Len(t, f.deployer.batches, 1)
	batch := f.deployer.batches[0]
	// Two files plus one thumbnail for the single image.
	require.Len(t, batch, 3)
	assert.Equal(t, "image/2024/a.jpg", batch[0].RemotePath)
	assert.Equal(t, ".thumb/image/2024/a.jpg", batch[1].RemotePath)
	assert.Equal(t, "other/2024/b.pdf", batch[2].RemotePath)

	siteGallery := f.mirror.galleries[8]
	require.NotNil(t, siteGallery)
	assert.Len(t, f.mirror.galleryFiles[siteGallery.ID], 2)
}

func TestPublishGalleryTransportFailure(t *testing.T) {
	f := newPublishFixture(t)
	f.deployer.err = errors.New("connection reset")

	_, err := f.svc.Publish(context.Background(), dto.PublishRequest{
		PublishType: models.PublishTypeGallery,
		PublishID:   8,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTransport.Code, appErrors.FromError(err).Code)
}

func TestPublishFutureTimeCreatesSchedule(t *testing.T) {
	f := newPublishFixture(t)
	future := time.Now().Add(2 * time.Hour)

	resp, err := f.svc.Publish(context.Background(), dto.PublishRequest{
		PublishType: models.PublishTypePage,
		PublishID:   3,
		PublishTime: &future,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PublishStatusPending, resp.Status)
	require.NotNil(t, resp.ScheduleID)
	assert.Empty(t, f.mirror.pages)
	assert.Len(t, f.schedules.rows, 1)
}

func TestPublishRejectsUnknownType(t *testing.T) {
	f := newPublishFixture(t)

	_, err := f.svc.Publish(context.Background(), dto.PublishRequest{
		PublishType: "LAYOUT",
		PublishID:   1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestProcessDueIsolatesFailures(t *testing.T) {
	f := newPublishFixture(t)
	f.schedules.due = []models.PublishSchedule{
		{ID: 1, PublishType: models.PublishTypePage, PublishID: 999, PublishStatus: models.PublishStatusProcessing},
		{ID: 2, PublishType: models.PublishTypePage, PublishID: 3, PublishStatus: models.PublishStatusProcessing},
	}

	published, failed := f.svc.ProcessDue(context.Background(), time.Now(), 10)
	assert.Equal(t, 1, published)
	assert.Equal(t, 1, failed)
	assert.Equal(t, models.PublishStatusFailed, f.schedules.status[1])
	require.NotNil(t, f.schedules.message[1])
	assert.Equal(t, models.PublishStatusPublished, f.schedules.status[2])
	assert.Nil(t, f.schedules.message[2])
}

func TestRetriggerFailedSchedule(t *testing.T) {
	f := newPublishFixture(t)
	f.schedules.rows[4] = &models.PublishSchedule{ID: 4, PublishStatus: models.PublishStatusFailed}

	require.NoError(t, f.svc.Retrigger(context.Background(), 4))
	assert.Equal(t, models.PublishStatusPending, f.schedules.rows[4].PublishStatus)
}

func TestUnpublishGalleryRemovesRemoteArtifacts(t *testing.T) {
	f := newPublishFixture(t)

	_, err := f.svc.Publish(context.Background(), dto.PublishRequest{
		PublishType: models.PublishTypeGallery,
		PublishID:   8,
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Unpublish(context.Background(), models.PublishTypeGallery, 8))

	// Two files plus one thumbnail for the single image.
	require.Len(t, f.deployer.removed, 3)
	assert.Equal(t, "image/2024/a.jpg", f.deployer.removed[0].RemotePath)
	assert.Equal(t, ".thumb/image/2024/a.jpg", f.deployer.removed[1].RemotePath)
	assert.Equal(t, "other/2024/b.pdf", f.deployer.removed[2].RemotePath)
	assert.Nil(t, f.mirror.galleries[8])
	assert.Equal(t, 2, f.cache.invalidations)
}

func TestUnpublishPageNotPublished(t *testing.T) {
	f := newPublishFixture(t)

	err := f.svc.Unpublish(context.Background(), models.PublishTypePage, 3)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUnpublishPageDropsMirrorRow(t *testing.T) {
	f := newPublishFixture(t)

	_, err := f.svc.Publish(context.Background(), dto.PublishRequest{
		PublishType: models.PublishTypePage,
		PublishID:   3,
	})
	require.NoError(t, err)
	require.NotNil(t, f.mirror.pages[3])

	require.NoError(t, f.svc.Unpublish(context.Background(), models.PublishTypePage, 3))
	assert.Nil(t, f.mirror.pages[3])
	assert.Empty(t, f.deployer.removed)
}

func TestRetriggerPublishedScheduleConflicts(t *testing.T) {
	f := newPublishFixture(t)
	f.schedules.rows[4] = &models.PublishSchedule{ID: 4, PublishStatus: models.PublishStatusPublished}

	err := f.svc.Retrigger(context.Background(), 4)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
