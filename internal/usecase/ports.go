package usecase

import (
	"context"

	"github.com/dandihub/dandinotes"
	"github.com/dandihub/dandinotes/internal/domain"
)

// ResourceRepository defines storage operations for resource records.
type ResourceRepository interface {
	Create(ctx context.Context, dandisetID string, res *dandinotes.Resource, status domain.Status) (string, error)
	Read(ctx context.Context, dandisetID, recordID string, status domain.Status) (*dandinotes.Resource, error)
	Transition(ctx context.Context, dandisetID, recordID string, from, to domain.Status, apply func(*dandinotes.Resource)) error
	Archive(ctx context.Context, dandisetID, recordID string, status domain.Status, info dandinotes.DeletionInfo) (string, error)
	List(ctx context.Context, dandisetID string, status domain.Status) ([]dandinotes.Resource, error)
	ListAll(ctx context.Context, status domain.Status) ([]dandinotes.Resource, error)
	ListDandisets(ctx context.Context) ([]string, error)
	FindByID(ctx context.Context, recordID string) (*dandinotes.Resource, error)
	Count(ctx context.Context, dandisetID string, status domain.Status) (int, error)
	UserResources(ctx context.Context, email string) (pending, approved []dandinotes.Resource, err error)
}
