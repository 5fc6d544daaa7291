package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/dandihub/dandinotes"
	"github.com/dandihub/dandinotes/internal/domain"
)

// ModeratorInfo identifies the moderator performing a deletion.
type ModeratorInfo struct {
	Name   string
	Email  string
	Reason string
}

// ArchiveResult reports where a soft-deleted record was backed up.
type ArchiveResult struct {
	ResourceID     string `json:"resource_id"`
	ResourceName   string `json:"resource_name"`
	BackupLocation string `json:"backup_location"`
}

type ResourceUsecase struct {
	repo ResourceRepository
	now  func() time.Time
}

func NewResourceUsecase(repo ResourceRepository) *ResourceUsecase {
	return &ResourceUsecase{repo: repo, now: time.Now}
}

// Submit stores a new pending record, stamping the annotation timestamp,
// and returns it with location metadata populated.
func (uc *ResourceUsecase) Submit(ctx context.Context, dandisetID string, res *dandinotes.Resource) (*dandinotes.Resource, error) {
	res.SchemaKey = dandinotes.SchemaKeyResource
	res.AnnotationContributor.SchemaKey = dandinotes.SchemaKeyContributor
	res.AnnotationDate = uc.now().Format(time.RFC3339)

	recordID, err := uc.repo.Create(ctx, dandisetID, res, domain.StatusPending)
	if err != nil {
		return nil, err
	}
	return uc.repo.Read(ctx, dandisetID, recordID, domain.StatusPending)
}

// Approve transitions a pending record to approved, stamping the
// approver identity and timestamp. Fails with NotFoundError when no
// pending record exists at the id, and with StateError when the
// approved destination is already occupied.
func (uc *ResourceUsecase) Approve(ctx context.Context, dandisetID, recordID string, approver dandinotes.Contributor) (*dandinotes.Resource, error) {
	if _, err := uc.repo.Read(ctx, dandisetID, recordID, domain.StatusPending); err != nil {
		return nil, err
	}

	approver.SchemaKey = dandinotes.SchemaKeyContributor
	approvalDate := uc.now().Format(time.RFC3339)

	err := uc.repo.Transition(ctx, dandisetID, recordID, domain.StatusPending, domain.StatusApproved,
		func(res *dandinotes.Resource) {
			res.ApprovalContributor = &approver
			res.ApprovalDate = approvalDate
		})
	if err != nil {
		return nil, err
	}

	return uc.repo.Read(ctx, dandisetID, recordID, domain.StatusApproved)
}

// Archive soft-deletes a record, keeping a backup copy with deletion
// metadata under the deleted tree.
func (uc *ResourceUsecase) Archive(ctx context.Context, dandisetID, recordID string, status domain.Status, moderator ModeratorInfo) (*ArchiveResult, error) {
	res, err := uc.repo.Read(ctx, dandisetID, recordID, status)
	if err != nil {
		return nil, err
	}

	reason := moderator.Reason
	if reason == "" {
		reason = "No reason provided"
	}
	backup, err := uc.repo.Archive(ctx, dandisetID, recordID, status, dandinotes.DeletionInfo{
		DeletedBy:      moderator.Email,
		DeletionReason: reason,
		ModeratorName:  moderator.Name,
	})
	if err != nil {
		return nil, err
	}

	return &ArchiveResult{
		ResourceID:     recordID,
		ResourceName:   res.Name,
		BackupLocation: backup,
	}, nil
}

// DeleteByID resolves a record's dandiset and status first, then archives it.
func (uc *ResourceUsecase) DeleteByID(ctx context.Context, recordID string, moderator ModeratorInfo) (*ArchiveResult, error) {
	res, err := uc.repo.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	status, ok := domain.ParseStatus(res.Status)
	if !ok {
		return nil, errors.Errorf("record %s has unknown status %q", recordID, res.Status)
	}
	return uc.Archive(ctx, res.DandisetID, recordID, status, moderator)
}

// FindByID scans all dandisets and both live statuses.
func (uc *ResourceUsecase) FindByID(ctx context.Context, recordID string) (*dandinotes.Resource, error) {
	return uc.repo.FindByID(ctx, recordID)
}

// DandisetResources returns one page of a dandiset's resources, approved
// always, pending only when requested.
func (uc *ResourceUsecase) DandisetResources(ctx context.Context, dandisetID string, includePending bool, page, perPage int) ([]dandinotes.Resource, domain.Page, error) {
	all, err := uc.repo.List(ctx, dandisetID, domain.StatusApproved)
	if err != nil {
		return nil, domain.Page{}, err
	}
	if includePending {
		pending, err := uc.repo.List(ctx, dandisetID, domain.StatusPending)
		if err != nil {
			return nil, domain.Page{}, err
		}
		all = append(all, pending...)
		sort.SliceStable(all, func(i, j int) bool {
			return all[i].AnnotationDate > all[j].AnnotationDate
		})
	}
	return paginateResources(all, page, perPage)
}

// StatusResources returns one page of a dandiset's resources in one status.
func (uc *ResourceUsecase) StatusResources(ctx context.Context, dandisetID string, status domain.Status, page, perPage int) ([]dandinotes.Resource, domain.Page, error) {
	all, err := uc.repo.List(ctx, dandisetID, status)
	if err != nil {
		return nil, domain.Page{}, err
	}
	return paginateResources(all, page, perPage)
}

// AllPending returns one page of pending submissions across all dandisets.
func (uc *ResourceUsecase) AllPending(ctx context.Context, page, perPage int) ([]dandinotes.Resource, domain.Page, error) {
	all, err := uc.repo.ListAll(ctx, domain.StatusPending)
	if err != nil {
		return nil, domain.Page{}, err
	}
	return paginateResources(all, page, perPage)
}

// UserResources returns independently paginated pending and approved
// records annotated by one contributor email.
func (uc *ResourceUsecase) UserResources(ctx context.Context, email string, pendingPage, approvedPage, perPage int) (pending []dandinotes.Resource, pendingMeta domain.Page, approved []dandinotes.Resource, approvedMeta domain.Page, err error) {
	allPending, allApproved, err := uc.repo.UserResources(ctx, email)
	if err != nil {
		return nil, domain.Page{}, nil, domain.Page{}, err
	}
	pending, pendingMeta, _ = paginateResources(allPending, pendingPage, perPage)
	approved, approvedMeta, _ = paginateResources(allApproved, approvedPage, perPage)
	return pending, pendingMeta, approved, approvedMeta, nil
}

func paginateResources(all []dandinotes.Resource, page, perPage int) ([]dandinotes.Resource, domain.Page, error) {
	start, end, meta := domain.Paginate(len(all), page, perPage)
	return all[start:end], meta, nil
}
