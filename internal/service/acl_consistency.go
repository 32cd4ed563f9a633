package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/valokuva/cms-admin-api/internal/models"
	appErrors "github.com/valokuva/cms-admin-api/pkg/errors"
)

// AclConsistencyService diffs entity acl references against the acl table.
// The sweep only reports; repairing divergence is an operator decision.
type AclConsistencyService struct {
	repo    aclRepository
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAclConsistencyService constructs the sweep service.
func NewAclConsistencyService(repo aclRepository, metrics *MetricsService, logger *zap.Logger) *AclConsistencyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AclConsistencyService{repo: repo, metrics: metrics, logger: logger}
}

// Sweep builds a consistency report. Missing groups are referenced by an
// entity but absent from the acl table. Orphan groups exist in the acl table
// but no entity references them. Duplicate refs are second and later entities
// sharing a group that should be owned by exactly one entity.
func (s *AclConsistencyService) Sweep(ctx context.Context) (*models.ConsistencyReport, error) {
	groupIDs, err := s.repo.DistinctAclIDs(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list acl groups")
	}
	refs, err := s.repo.EntityAclRefs(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to collect entity acl refs")
	}

	known := make(map[int64]bool, len(groupIDs))
	for _, id := range groupIDs {
		known[id] = false
	}

	report := &models.ConsistencyReport{
		MissingGroups: []int64{},
		OrphanGroups:  []int64{},
		DuplicateRefs: []models.AclEntityRef{},
		CheckedGroups: len(groupIDs),
	}

	missing := map[int64]struct{}{}
	firstRef := map[int64]models.AclEntityRef{}
	for _, ref := range refs {
		if _, ok := known[ref.AclID]; !ok {
			missing[ref.AclID] = struct{}{}
			continue
		}
		known[ref.AclID] = true
		if _, seen := firstRef[ref.AclID]; seen {
			report.DuplicateRefs = append(report.DuplicateRefs, ref)
			continue
		}
		firstRef[ref.AclID] = ref
	}

	for id := range missing {
		report.MissingGroups = append(report.MissingGroups, id)
	}
	for id, referenced := range known {
		if !referenced {
			report.OrphanGroups = append(report.OrphanGroups, id)
		}
	}
	sort.Slice(report.MissingGroups, func(i, j int) bool { return report.MissingGroups[i] < report.MissingGroups[j] })
	sort.Slice(report.OrphanGroups, func(i, j int) bool { return report.OrphanGroups[i] < report.OrphanGroups[j] })

	if s.metrics != nil {
		s.metrics.ObserveConsistencySweep(report)
	}
	if !report.Clean() {
		s.logger.Warn("acl consistency divergence",
			zap.Int64s("missing_groups", report.MissingGroups),
			zap.Int64s("orphan_groups", report.OrphanGroups),
			zap.Int("duplicate_refs", len(report.DuplicateRefs)))
	}
	return report, nil
}
