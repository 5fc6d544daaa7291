package usecase

import (
	"context"

	"github.com/dandihub/dandinotes"
	"github.com/dandihub/dandinotes/internal/domain"
)

// DandisetInfo summarizes one dandiset's submission counts.
type DandisetInfo struct {
	DandisetID    string `json:"dandiset_id"`
	DisplayID     string `json:"display_id"`
	PendingCount  int    `json:"pending_count"`
	ApprovedCount int    `json:"approved_count"`
	TotalCount    int    `json:"total_count"`
}

type DandisetUsecase struct {
	repo ResourceRepository
}

func NewDandisetUsecase(repo ResourceRepository) *DandisetUsecase {
	return &DandisetUsecase{repo: repo}
}

// List returns one page of dandisets holding at least one record,
// sorted by id.
func (uc *DandisetUsecase) List(ctx context.Context, page, perPage int) ([]DandisetInfo, domain.Page, error) {
	ids, err := uc.repo.ListDandisets(ctx)
	if err != nil {
		return nil, domain.Page{}, err
	}

	infos := make([]DandisetInfo, 0, len(ids))
	for _, id := range ids {
		info, err := uc.summarize(ctx, id)
		if err != nil {
			return nil, domain.Page{}, err
		}
		infos = append(infos, *info)
	}

	start, end, meta := domain.Paginate(len(infos), page, perPage)
	return infos[start:end], meta, nil
}

// Get returns the summary for one dandiset; NotFoundError when it holds
// no records.
func (uc *DandisetUsecase) Get(ctx context.Context, dandisetID string) (*DandisetInfo, error) {
	info, err := uc.summarize(ctx, dandisetID)
	if err != nil {
		return nil, err
	}
	if info.TotalCount == 0 {
		return nil, domain.NotFoundError{Resource: "dandiset"}
	}
	return info, nil
}

func (uc *DandisetUsecase) summarize(ctx context.Context, dandisetID string) (*DandisetInfo, error) {
	dir, err := dandinotes.DandisetDirName(dandisetID)
	if err != nil {
		return nil, domain.ValidationError{Message: err.Error()}
	}
	pending, err := uc.repo.Count(ctx, dandisetID, domain.StatusPending)
	if err != nil {
		return nil, err
	}
	approved, err := uc.repo.Count(ctx, dandisetID, domain.StatusApproved)
	if err != nil {
		return nil, err
	}
	return &DandisetInfo{
		DandisetID:    dir,
		DisplayID:     dandinotes.DisplayID(dandisetID),
		PendingCount:  pending,
		ApprovedCount: approved,
		TotalCount:    pending + approved,
	}, nil
}
