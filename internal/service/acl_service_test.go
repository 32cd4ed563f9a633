package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valokuva/cms-admin-api/internal/dto"
	"github.com/valokuva/cms-admin-api/internal/models"
	appErrors "github.com/valokuva/cms-admin-api/pkg/errors"
)

type aclRepoStub struct {
	groups  map[int64][]models.Acl
	refs    []models.AclEntityRef
	nextID  int64
	err     error
	deleted []int64
}

func (s *aclRepoStub) FindByAclID(ctx context.Context, aclID int64) ([]models.Acl, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.groups[aclID], nil
}

func (s *aclRepoStub) NextAclID(ctx context.Context) (int64, error) {
	return s.nextID, s.err
}

func (s *aclRepoStub) CreateGroup(ctx context.Context, rows []models.Acl) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	if s.groups == nil {
		s.groups = map[int64][]models.Acl{}
	}
	id := s.nextID
	if id == 0 {
		id = int64(len(s.groups) + 1)
	}
	s.groups[id] = rows
	return id, nil
}

func (s *aclRepoStub) ReplaceGroup(ctx context.Context, aclID int64, rows []models.Acl) error {
	if s.err != nil {
		return s.err
	}
	s.groups[aclID] = rows
	return nil
}

func (s *aclRepoStub) DeleteGroup(ctx context.Context, aclID int64) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.groups[aclID]; !ok {
		return errors.New("acl group not found")
	}
	delete(s.groups, aclID)
	s.deleted = append(s.deleted, aclID)
	return nil
}

func (s *aclRepoStub) DistinctAclIDs(ctx context.Context) ([]int64, error) {
	if s.err != nil {
		return nil, s.err
	}
	ids := make([]int64, 0, len(s.groups))
	for id := range s.groups {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *aclRepoStub) EntityAclRefs(ctx context.Context) ([]models.AclEntityRef, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.refs, nil
}

func userPerm(userID int64) dto.AclPermissionRequest {
	return dto.AclPermissionRequest{UserID: &userID, Create: true, Read: true, Modify: true, Delete: true}
}

func TestAclServiceCreateGroup(t *testing.T) {
	repo := &aclRepoStub{nextID: 7}
	svc := NewAclService(repo, nil)

	resp, err := svc.CreateGroup(context.Background(), dto.AclCreateRequest{
		Permissions: []dto.AclPermissionRequest{userPerm(3)},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), resp.AclID)
	require.Len(t, repo.groups[7], 1)
	assert.True(t, repo.groups[7][0].ReadPriv)
}

func TestAclServiceCreateGroupRejectsBothSubjects(t *testing.T) {
	svc := NewAclService(&aclRepoStub{}, nil)
	userID, unitID := int64(1), int64(2)

	_, err := svc.CreateGroup(context.Background(), dto.AclCreateRequest{
		Permissions: []dto.AclPermissionRequest{{UserID: &userID, UnitID: &unitID, Read: true}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAclServiceCreateGroupRejectsNoSubject(t *testing.T) {
	svc := NewAclService(&aclRepoStub{}, nil)

	_, err := svc.CreateGroup(context.Background(), dto.AclCreateRequest{
		Permissions: []dto.AclPermissionRequest{{Read: true}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAclServiceCreateGroupRejectsEmpty(t *testing.T) {
	svc := NewAclService(&aclRepoStub{}, nil)

	_, err := svc.CreateGroup(context.Background(), dto.AclCreateRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAclServiceGetGroupNotFound(t *testing.T) {
	svc := NewAclService(&aclRepoStub{groups: map[int64][]models.Acl{}}, nil)

	_, err := svc.GetGroup(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAclServiceReplaceGroupKeepsID(t *testing.T) {
	userID := int64(3)
	repo := &aclRepoStub{groups: map[int64][]models.Acl{
		5: {{AclID: 5, UserID: &userID, ReadPriv: true}},
	}}
	svc := NewAclService(repo, nil)

	err := svc.ReplaceGroup(context.Background(), 5, dto.AclCreateRequest{
		Permissions: []dto.AclPermissionRequest{userPerm(4)},
	})
	require.NoError(t, err)
	require.Len(t, repo.groups[5], 1)
	assert.Equal(t, int64(4), *repo.groups[5][0].UserID)
}
