package usecase

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/dandihub/dandinotes"
	"github.com/dandihub/dandinotes/internal/domain"
)

// Stats is the aggregate read model for one dandiset or the whole site.
type Stats struct {
	TotalDandisets         int            `json:"total_dandisets"`
	TotalApprovedResources int            `json:"total_approved_resources"`
	TotalPendingResources  int            `json:"total_pending_resources"`
	TotalResources         int            `json:"total_resources"`
	UniqueContributors     int            `json:"unique_contributors"`
	DandisetsWithResources int            `json:"dandisets_with_resources"`
	ResourceTypes          map[string]int `json:"resource_types"`
	Repositories           map[string]int `json:"repositories"`
}

const overviewCacheSeconds = 60

// StatsUsecase computes aggregates by scanning the store. The overview
// is the most expensive scan and is cached in memcached when available.
type StatsUsecase struct {
	repo ResourceRepository
	mc   *memcache.Client
}

func NewStatsUsecase(repo ResourceRepository, mc *memcache.Client) *StatsUsecase {
	return &StatsUsecase{repo: repo, mc: mc}
}

// Overview returns the global aggregate. Pending/community counts are
// only revealed to moderators; everyone sees approved totals.
func (uc *StatsUsecase) Overview(ctx context.Context, includePending bool) (*Stats, error) {
	cacheKey := "stats:overview:anon"
	if includePending {
		cacheKey = "stats:overview:mod"
	}
	if cached := uc.cacheGet(cacheKey); cached != nil {
		return cached, nil
	}

	approved, err := uc.repo.ListAll(ctx, domain.StatusApproved)
	if err != nil {
		return nil, err
	}
	pending, err := uc.repo.ListAll(ctx, domain.StatusPending)
	if err != nil {
		return nil, err
	}
	ids, err := uc.repo.ListDandisets(ctx)
	if err != nil {
		return nil, err
	}

	withApproved := map[string]struct{}{}
	for _, res := range approved {
		withApproved[res.DandisetID] = struct{}{}
	}

	if !includePending {
		pending = nil
	}

	stats := tally(append(append([]dandinotes.Resource{}, approved...), pending...))
	stats.TotalDandisets = len(ids)
	stats.TotalApprovedResources = len(approved)
	stats.TotalPendingResources = len(pending)
	stats.TotalResources = len(approved) + len(pending)
	stats.DandisetsWithResources = len(withApproved)

	uc.cacheSet(cacheKey, stats)
	return stats, nil
}

// Dandiset returns the aggregate for one dandiset across both statuses.
func (uc *StatsUsecase) Dandiset(ctx context.Context, dandisetID string) (*Stats, error) {
	approved, err := uc.repo.List(ctx, dandisetID, domain.StatusApproved)
	if err != nil {
		return nil, err
	}
	pending, err := uc.repo.List(ctx, dandisetID, domain.StatusPending)
	if err != nil {
		return nil, err
	}

	stats := tally(append(append([]dandinotes.Resource{}, approved...), pending...))
	stats.TotalDandisets = 1
	stats.TotalApprovedResources = len(approved)
	stats.TotalPendingResources = len(pending)
	stats.TotalResources = len(approved) + len(pending)
	stats.DandisetsWithResources = 1
	return stats, nil
}

func tally(resources []dandinotes.Resource) *Stats {
	contributors := map[string]struct{}{}
	types := map[string]int{}
	repos := map[string]int{}
	for _, res := range resources {
		if email := res.AnnotationContributor.Email; email != "" {
			contributors[email] = struct{}{}
		}
		typeKey := string(res.ResourceType)
		if typeKey == "" {
			typeKey = "Unknown"
		}
		types[typeKey]++
		repoKey := res.Repository
		if repoKey == "" {
			repoKey = "Unknown"
		}
		repos[repoKey]++
	}
	return &Stats{
		UniqueContributors: len(contributors),
		ResourceTypes:      types,
		Repositories:       repos,
	}
}

func (uc *StatsUsecase) cacheGet(key string) *Stats {
	if uc.mc == nil {
		return nil
	}
	item, err := uc.mc.Get(key)
	if err != nil {
		return nil
	}
	var stats Stats
	if err := json.Unmarshal(item.Value, &stats); err != nil {
		return nil
	}
	return &stats
}

func (uc *StatsUsecase) cacheSet(key string, stats *Stats) {
	if uc.mc == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := uc.mc.Set(&memcache.Item{Key: key, Value: raw, Expiration: overviewCacheSeconds}); err != nil {
		slog.Debug("overview cache write failed",
			slog.String("error", err.Error()),
			slog.String("module", "stats"),
		)
	}
}
