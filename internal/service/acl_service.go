package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/valokuva/cms-admin-api/internal/dto"
	"github.com/valokuva/cms-admin-api/internal/models"
	appErrors "github.com/valokuva/cms-admin-api/pkg/errors"
)

type aclRepository interface {
	FindByAclID(ctx context.Context, aclID int64) ([]models.Acl, error)
	NextAclID(ctx context.Context) (int64, error)
	CreateGroup(ctx context.Context, rows []models.Acl) (int64, error)
	ReplaceGroup(ctx context.Context, aclID int64, rows []models.Acl) error
	DeleteGroup(ctx context.Context, aclID int64) error
	DistinctAclIDs(ctx context.Context) ([]int64, error)
	EntityAclRefs(ctx context.Context) ([]models.AclEntityRef, error)
}

// AclService manages permission groups. Entities reference a group by id;
// the service owns the row-level invariants.
type AclService struct {
	repo   aclRepository
	logger *zap.Logger
}

// NewAclService constructs an AclService.
func NewAclService(repo aclRepository, logger *zap.Logger) *AclService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AclService{repo: repo, logger: logger}
}

// GetGroup returns the permission rows of a group.
func (s *AclService) GetGroup(ctx context.Context, aclID int64) (*dto.AclGroupResponse, error) {
	if aclID < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "acl group id must be positive")
	}
	rows, err := s.repo.FindByAclID(ctx, aclID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load acl group")
	}
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "acl group not found")
	}
	return &dto.AclGroupResponse{AclID: aclID, Permissions: toPermissionDTOs(rows)}, nil
}

// CreateGroup validates and stores a new permission group, returning the
// allocated group id.
func (s *AclService) CreateGroup(ctx context.Context, req dto.AclCreateRequest) (*dto.AclGroupResponse, error) {
	rows, err := fromPermissionDTOs(req.Permissions)
	if err != nil {
		return nil, err
	}
	aclID, err := s.repo.CreateGroup(ctx, rows)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create acl group")
	}
	s.logger.Info("acl group created", zap.Int64("acl_id", aclID), zap.Int("rows", len(rows)))
	return &dto.AclGroupResponse{AclID: aclID, Permissions: req.Permissions}, nil
}

// ReplaceGroup swaps the rows of an existing group.
func (s *AclService) ReplaceGroup(ctx context.Context, aclID int64, req dto.AclCreateRequest) error {
	if aclID < 1 {
		return appErrors.Clone(appErrors.ErrValidation, "acl group id must be positive")
	}
	existing, err := s.repo.FindByAclID(ctx, aclID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load acl group")
	}
	if len(existing) == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "acl group not found")
	}
	rows, err := fromPermissionDTOs(req.Permissions)
	if err != nil {
		return err
	}
	if err := s.repo.ReplaceGroup(ctx, aclID, rows); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace acl group")
	}
	s.logger.Info("acl group replaced", zap.Int64("acl_id", aclID), zap.Int("rows", len(rows)))
	return nil
}

// DeleteGroup removes a group. Callers are responsible for detaching entity
// references first; a dangling reference will surface in the next
// consistency sweep.
func (s *AclService) DeleteGroup(ctx context.Context, aclID int64) error {
	if aclID < 1 {
		return appErrors.Clone(appErrors.ErrValidation, "acl group id must be positive")
	}
	if err := s.repo.DeleteGroup(ctx, aclID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "acl group not found")
	}
	s.logger.Info("acl group deleted", zap.Int64("acl_id", aclID))
	return nil
}

func fromPermissionDTOs(perms []dto.AclPermissionRequest) ([]models.Acl, error) {
	if len(perms) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "acl group requires at least one permission row")
	}
	rows := make([]models.Acl, 0, len(perms))
	for _, perm := range perms {
		row := models.Acl{
			UserID:     perm.UserID,
			UnitID:     perm.UnitID,
			CreatePriv: perm.Create,
			ReadPriv:   perm.Read,
			ModifyPriv: perm.Modify,
			DeletePriv: perm.Delete,
		}
		if err := row.Validate(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func toPermissionDTOs(rows []models.Acl) []dto.AclPermissionRequest {
	perms := make([]dto.AclPermissionRequest, 0, len(rows))
	for _, row := range rows {
		perms = append(perms, dto.AclPermissionRequest{
			UserID: row.UserID,
			UnitID: row.UnitID,
			Create: row.CreatePriv,
			Read:   row.ReadPriv,
			Modify: row.ModifyPriv,
			Delete: row.DeletePriv,
		})
	}
	return perms
}
