package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/valokuva/cms-admin-api/internal/dto"
	"github.com/valokuva/cms-admin-api/internal/models"
	appErrors "github.com/valokuva/cms-admin-api/pkg/errors"
	"github.com/valokuva/cms-admin-api/pkg/storage"
	"github.com/valokuva/cms-admin-api/pkg/transport"
)

// bodyPlaceholder marks the spot in a layout structure where the rendered
// page content is substituted.
const bodyPlaceholder = "<!--page-->"

type pageReader interface {
	FindByID(ctx context.Context, id int64) (*models.Page, error)
	FindForm(ctx context.Context, formID int64) (*models.Form, error)
	FindLayout(ctx context.Context, layoutID int64) (*models.Layout, error)
	FormComponents(ctx context.Context, formID int64) ([]models.Component, error)
	PageGalleries(ctx context.Context, pageID int64) ([]int64, error)
	FindUserNick(ctx context.Context, userID int64) (string, error)
}

type aclReader interface {
	FindByAclID(ctx context.Context, aclID int64) ([]models.Acl, error)
}

type webMirror interface {
	NextAclID(ctx context.Context) (int64, error)
	ReplaceAclGroup(ctx context.Context, aclID int64, rows []models.WebSiteAcl) error
	FindPageByPageID(ctx context.Context, pageID int64) (*models.WebSitePage, error)
	UpsertPage(ctx context.Context, page *models.WebSitePage) error
	FindGalleryByGalleryID(ctx context.Context, galleryID int64) (*models.WebSiteGallery, error)
	UpsertGallery(ctx context.Context, gallery *models.WebSiteGallery) error
	ReplaceGalleryFiles(ctx context.Context, siteGalleryID int64, siteFileIDs []int64) error
	UpsertFile(ctx context.Context, file *models.WebSiteFile) error
	UpsertUser(ctx context.Context, user *models.WebSiteUser) error
	DeletePageByPageID(ctx context.Context, pageID int64) error
	DeleteGalleryByGalleryID(ctx context.Context, galleryID int64) error
}

type publishScheduleStore interface {
	Create(ctx context.Context, sched *models.PublishSchedule) error
	FindByID(ctx context.Context, id int64) (*models.PublishSchedule, error)
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]models.PublishSchedule, error)
	Reclaim(ctx context.Context, id int64) error
	UpdateStatus(ctx context.Context, id int64, status models.PublishStatus, message *string) error
}

type siteDeployer interface {
	TransferFiles(ctx context.Context, items []transport.TransferItem) error
	RemoveFiles(ctx context.Context, items []transport.RemoveItem) error
}

type thumbLocator interface {
	ThumbPath(file *models.SiteFile) (string, error)
	RemotePath(file *models.SiteFile) string
}

type siteCacheInvalidator interface {
	InvalidateSiteContent(ctx context.Context)
}

// PublishService replicates authored content into the site database and
// ships file artifacts to the site host. The two databases share no
// transaction, so every step is idempotent and a failed publish can simply be
// run again.
type PublishService struct {
	pages     pageReader
	galleries galleryRepository
	acls      aclReader
	mirror    webMirror
	schedules publishScheduleStore
	deployer  siteDeployer
	thumbs    thumbLocator
	store     *storage.BucketStorage
	cache     siteCacheInvalidator
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewPublishService constructs a PublishService.
func NewPublishService(pages pageReader, galleries galleryRepository, acls aclReader,
	mirror webMirror, schedules publishScheduleStore, deployer siteDeployer,
	thumbs thumbLocator, store *storage.BucketStorage, cache siteCacheInvalidator,
	metrics *MetricsService, logger *zap.Logger) *PublishService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublishService{
		pages:     pages,
		galleries: galleries,
		acls:      acls,
		mirror:    mirror,
		schedules: schedules,
		deployer:  deployer,
		thumbs:    thumbs,
		store:     store,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
	}
}

// Publish runs an immediate publish, or records a schedule row when the
// request carries a future publish time.
func (s *PublishService) Publish(ctx context.Context, req dto.PublishRequest) (*dto.PublishResponse, error) {
	if !req.PublishType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown publish type")
	}
	if req.PublishID < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "publish id must be positive")
	}

	if req.PublishTime != nil && req.PublishTime.After(time.Now()) {
		sched := &models.PublishSchedule{
			PublishTime:    req.PublishTime.UTC(),
			PublishType:    req.PublishType,
			PublishID:      req.PublishID,
			PublishMessage: optionalString(req.Message),
		}
		if err := s.schedules.Create(ctx, sched); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule publish")
		}
		s.logger.Info("publish scheduled",
			zap.Int64("schedule_id", sched.ID),
			zap.String("type", string(req.PublishType)),
			zap.Int64("publish_id", req.PublishID),
			zap.Time("publish_time", sched.PublishTime))
		return &dto.PublishResponse{
			PublishType: req.PublishType,
			PublishID:   req.PublishID,
			Status:      models.PublishStatusPending,
			ScheduleID:  &sched.ID,
			PublishTime: &sched.PublishTime,
		}, nil
	}

	siteID, err := s.publishNow(ctx, req.PublishType, req.PublishID)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ObservePublish(req.PublishType, "failed")
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObservePublish(req.PublishType, "published")
	}
	return &dto.PublishResponse{
		PublishType: req.PublishType,
		PublishID:   req.PublishID,
		Status:      models.PublishStatusPublished,
		SiteID:      &siteID,
	}, nil
}

// ProcessDue claims every due schedule row and publishes it. Rows fail and
// succeed independently; one broken publish never blocks the rest of the
// batch.
func (s *PublishService) ProcessDue(ctx context.Context, now time.Time, limit int) (published, failed int) {
	claimed, err := s.schedules.ClaimDue(ctx, now, limit)
	if err != nil {
		s.logger.Error("failed to claim due schedules", zap.Error(err))
		return 0, 0
	}
	for _, row := range claimed {
		if _, err := s.publishNow(ctx, row.PublishType, row.PublishID); err != nil {
			failed++
			message := err.Error()
			if s.metrics != nil {
				s.metrics.ObservePublish(row.PublishType, "failed")
			}
			if uerr := s.schedules.UpdateStatus(ctx, row.ID, models.PublishStatusFailed, &message); uerr != nil {
				s.logger.Error("failed to record publish failure", zap.Int64("schedule_id", row.ID), zap.Error(uerr))
			}
			s.logger.Error("scheduled publish failed",
				zap.Int64("schedule_id", row.ID),
				zap.String("type", string(row.PublishType)),
				zap.Int64("publish_id", row.PublishID),
				zap.Error(err))
			continue
		}
		published++
		if s.metrics != nil {
			s.metrics.ObservePublish(row.PublishType, "published")
		}
		if uerr := s.schedules.UpdateStatus(ctx, row.ID, models.PublishStatusPublished, nil); uerr != nil {
			s.logger.Error("failed to record publish success", zap.Int64("schedule_id", row.ID), zap.Error(uerr))
		}
	}
	return published, failed
}

// Retrigger flips a stuck or failed schedule row back to pending.
func (s *PublishService) Retrigger(ctx context.Context, scheduleID int64) error {
	row, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if row == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
	}
	if err := s.schedules.Reclaim(ctx, scheduleID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "schedule is not retryable")
	}
	s.logger.Info("schedule retriggered", zap.Int64("schedule_id", scheduleID))
	return nil
}

// Unpublish removes the site mirror of a page or gallery. A gallery unpublish
// also deletes its shipped artifacts from the site host. The admin-side
// content stays untouched and can be published again later.
func (s *PublishService) Unpublish(ctx context.Context, publishType models.PublishType, publishID int64) error {
	if !publishType.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown publish type")
	}
	if publishID < 1 {
		return appErrors.Clone(appErrors.ErrValidation, "publish id is required")
	}

	var err error
	switch publishType {
	case models.PublishTypePage:
		err = s.unpublishPage(ctx, publishID)
	case models.PublishTypeGallery:
		err = s.unpublishGallery(ctx, publishID)
	}
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.ObservePublish(publishType, "unpublished")
	}
	if s.cache != nil {
		s.cache.InvalidateSiteContent(ctx)
	}
	return nil
}

func (s *PublishService) unpublishPage(ctx context.Context, pageID int64) error {
	existing, err := s.mirror.FindPageByPageID(ctx, pageID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mirrored page")
	}
	if existing == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "page is not published")
	}
	if err := s.mirror.DeletePageByPageID(ctx, pageID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove mirrored page")
	}
	s.logger.Info("page unpublished", zap.Int64("page_id", pageID))
	return nil
}

func (s *PublishService) unpublishGallery(ctx context.Context, galleryID int64) error {
	existing, err := s.mirror.FindGalleryByGalleryID(ctx, galleryID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mirrored gallery")
	}
	if existing == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "gallery is not published")
	}

	// Remote artifact paths are recomputed from the current admin-side
	// membership, the same derivation the publish used.
	files, err := s.galleries.Files(ctx, galleryID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load gallery files")
	}
	removals := make([]transport.RemoveItem, 0, len(files)*2)
	for i := range files {
		file := &files[i]
		removals = append(removals, transport.RemoveItem{
			RemotePath: path.Join(string(file.FileClass), file.FilePath, file.FileName),
		})
		if file.FileClass == models.FileClassImage {
			removals = append(removals, transport.RemoveItem{RemotePath: s.thumbs.RemotePath(file)})
		}
	}
	if err := s.deployer.RemoveFiles(ctx, removals); err != nil {
		return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "site transport failed")
	}

	if err := s.mirror.DeleteGalleryByGalleryID(ctx, galleryID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove mirrored gallery")
	}
	s.logger.Info("gallery unpublished",
		zap.Int64("gallery_id", galleryID),
		zap.Int("files", len(files)))
	return nil
}

func (s *PublishService) publishNow(ctx context.Context, publishType models.PublishType, publishID int64) (int64, error) {
	var siteID int64
	var err error
	switch publishType {
	case models.PublishTypePage:
		siteID, err = s.publishPage(ctx, publishID)
	case models.PublishTypeGallery:
		siteID, err = s.publishGallery(ctx, publishID)
	default:
		return 0, appErrors.Clone(appErrors.ErrValidation, "unknown publish type")
	}
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		s.cache.InvalidateSiteContent(ctx)
	}
	return siteID, nil
}

// publishPage renders the page with its layout and components and mirrors it
// into the site database. Galleries embedded in the page are published along
// with it.
func (s *PublishService) publishPage(ctx context.Context, pageID int64) (int64, error) {
	page, err := s.pages.FindByID(ctx, pageID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load page")
	}
	if page == nil {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "page not found")
	}

	body, err := s.renderPage(ctx, page)
	if err != nil {
		return 0, err
	}

	siteAclID, err := s.mirrorPageAcl(ctx, page)
	if err != nil {
		return 0, err
	}

	nick, err := s.pages.FindUserNick(ctx, page.Creator)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve creator")
	}
	if err := s.mirror.UpsertUser(ctx, &models.WebSiteUser{UserID: page.Creator, Nick: nick}); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mirror user")
	}

	var modifier *string
	if page.Modifier != nil {
		if modNick, err := s.pages.FindUserNick(ctx, *page.Modifier); err == nil {
			modifier = &modNick
		}
	}

	sitePage := &models.WebSitePage{
		PageID:    page.ID,
		ParentID:  page.ParentID,
		Path:      page.Path,
		Title:     page.Title,
		Header:    page.Header,
		Body:      body,
		Secure:    page.Secure,
		IndexList: page.IndexList,
		Creator:   nick,
		Modifier:  modifier,
		AclID:     siteAclID,
		Published: time.Now().UTC(),
	}
	if err := s.mirror.UpsertPage(ctx, sitePage); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mirror page")
	}

	galleryIDs, err := s.pages.PageGalleries(ctx, page.ID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list page galleries")
	}
	for _, galleryID := range galleryIDs {
		if _, err := s.publishGallery(ctx, galleryID); err != nil {
			return 0, fmt.Errorf("publish embedded gallery %d: %w", galleryID, err)
		}
	}

	s.logger.Info("page published",
		zap.Int64("page_id", page.ID),
		zap.Int64("site_page_id", sitePage.ID),
		zap.String("path", page.Path))
	return sitePage.ID, nil
}

// renderPage composes the deliverable body: the form's components in order,
// with the page body substituted into the layout placeholder.
func (s *PublishService) renderPage(ctx context.Context, page *models.Page) (string, error) {
	form, err := s.pages.FindForm(ctx, page.FormID)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load form")
	}
	if form == nil {
		return "", appErrors.Clone(appErrors.ErrNotFound, "page form not found")
	}
	layout, err := s.pages.FindLayout(ctx, form.LayoutID)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load layout")
	}
	if layout == nil {
		return "", appErrors.Clone(appErrors.ErrNotFound, "form layout not found")
	}
	components, err := s.pages.FormComponents(ctx, form.ID)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load components")
	}

	var content strings.Builder
	for _, component := range components {
		content.WriteString(component.CompData)
		content.WriteString("\n")
	}
	content.WriteString(page.Body)

	if !strings.Contains(layout.Structure, bodyPlaceholder) {
		// A layout without a placeholder delivers the content appended, so a
		// misauthored layout still publishes something inspectable.
		return layout.Structure + "\n" + content.String(), nil
	}
	return strings.Replace(layout.Structure, bodyPlaceholder, content.String(), 1), nil
}

// mirrorPageAcl replicates the read grants of the page's permission group to
// the site database, reusing the site-side group id of an earlier publish.
func (s *PublishService) mirrorPageAcl(ctx context.Context, page *models.Page) (int64, error) {
	existing, err := s.mirror.FindPageByPageID(ctx, page.ID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mirrored page")
	}
	var siteAclID int64
	if existing != nil {
		siteAclID = existing.AclID
	}
	return s.mirrorAcl(ctx, page.AclID, siteAclID)
}

// mirrorAcl copies the read grants of an admin permission group into a
// site-side group. Site group numbering is independent; a zero siteAclID
// allocates a fresh one.
func (s *PublishService) mirrorAcl(ctx context.Context, adminAclID, siteAclID int64) (int64, error) {
	rows, err := s.acls.FindByAclID(ctx, adminAclID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load acl group")
	}
	if siteAclID == 0 {
		siteAclID, err = s.mirror.NextAclID(ctx)
		if err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate site acl id")
		}
	}
	siteRows := make([]models.WebSiteAcl, 0, len(rows))
	for _, row := range rows {
		if !row.ReadPriv {
			continue
		}
		siteRows = append(siteRows, models.WebSiteAcl{
			AclID:    siteAclID,
			UserID:   row.UserID,
			UnitID:   row.UnitID,
			ReadPriv: true,
		})
	}
	if err := s.mirror.ReplaceAclGroup(ctx, siteAclID, siteRows); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mirror acl group")
	}
	return siteAclID, nil
}

// publishGallery mirrors the gallery and its files into the site database and
// ships the artifacts to the site host.
func (s *PublishService) publishGallery(ctx context.Context, galleryID int64) (int64, error) {
	gallery, err := s.galleries.FindByID(ctx, galleryID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load gallery")
	}
	if gallery == nil {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "gallery not found")
	}
	files, err := s.galleries.Files(ctx, galleryID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load gallery files")
	}

	existing, err := s.mirror.FindGalleryByGalleryID(ctx, galleryID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mirrored gallery")
	}
	var siteAclID int64
	if existing != nil {
		siteAclID = existing.AclID
	}
	siteAclID, err = s.mirrorAcl(ctx, gallery.AclID, siteAclID)
	if err != nil {
		return 0, err
	}

	siteGallery := &models.WebSiteGallery{
		GalleryID:   gallery.ID,
		Shortname:   gallery.Shortname,
		Description: gallery.Description,
		AclID:       siteAclID,
	}
	if err := s.mirror.UpsertGallery(ctx, siteGallery); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mirror gallery")
	}

	siteFileIDs := make([]int64, 0, len(files))
	transfers := make([]transport.TransferItem, 0, len(files)*2)
	var transferred int64
	for i := range files {
		file := &files[i]
		remote := path.Join(string(file.FileClass), file.FilePath, file.FileName)
		siteFile := &models.WebSiteFile{
			FileID:   file.ID,
			Path:     remote,
			MimeType: file.MimeType,
			FileType: file.FileClass,
			Metadata: file.Metadata,
			Comment:  file.Comment,
			AclID:    siteAclID,
		}
		if err := s.mirror.UpsertFile(ctx, siteFile); err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mirror file")
		}
		siteFileIDs = append(siteFileIDs, siteFile.ID)

		local, err := s.localFilePath(file)
		if err != nil {
			return 0, err
		}
		transfers = append(transfers, transport.TransferItem{LocalPath: local, RemotePath: remote})
		transferred += file.Size

		if file.FileClass == models.FileClassImage {
			if thumbLocal, err := s.thumbs.ThumbPath(file); err == nil {
				transfers = append(transfers, transport.TransferItem{
					LocalPath:  thumbLocal,
					RemotePath: s.thumbs.RemotePath(file),
				})
			}
		}
	}

	if err := s.mirror.ReplaceGalleryFiles(ctx, siteGallery.ID, siteFileIDs); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mirror gallery membership")
	}

	// Delivery is at-least-once: a transfer error after some uploads leaves
	// the remote side partially refreshed and the whole publish retryable.
	if err := s.deployer.TransferFiles(ctx, transfers); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "site transport failed")
	}
	if s.metrics != nil {
		s.metrics.AddTransferBytes(transferred)
	}

	s.logger.Info("gallery published",
		zap.Int64("gallery_id", gallery.ID),
		zap.Int64("site_gallery_id", siteGallery.ID),
		zap.Int("files", len(files)))
	return siteGallery.ID, nil
}

func (s *PublishService) localFilePath(file *models.SiteFile) (string, error) {
	bucketDir, err := s.store.BucketDir(string(file.FileClass))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "storage bucket unavailable")
	}
	local, err := storage.ResolveWithin(bucketDir, file.FilePath, file.FileName)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "illegal file location")
	}
	return local, nil
}
