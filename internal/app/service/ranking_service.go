package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"
	"trailquest/internal/domain/model"
	"trailquest/internal/domain/repository"
	"trailquest/internal/platform/config"
	"trailquest/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

// RankingService computes leaderboards from current point balances. The
// computation itself is a pure read; results are served through a short-TTL
// Redis cache that validation invalidates. Redis being down only costs the
// cache, never the query.
type RankingService struct {
	memberRepo repository.MemberRepository
	groupRepo  repository.GroupRepository
	rdb        *redis.Client
	log        *logger.Logger
}

func NewRankingService(memberRepo repository.MemberRepository, groupRepo repository.GroupRepository, rdb *redis.Client, log *logger.Logger) *RankingService {
	return &RankingService{memberRepo: memberRepo, groupRepo: groupRepo, rdb: rdb, log: log}
}

// rankMembers orders members by points descending, member ID ascending on
// ties, so repeated queries over unchanged data return an identical order.
// limit <= 0 means no truncation.
func rankMembers(members []model.Member, limit int) []model.RankedEntry {
	sorted := make([]model.Member, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Points != sorted[j].Points {
			return sorted[i].Points > sorted[j].Points
		}
		return sorted[i].ID < sorted[j].ID
	})

	entries := make([]model.RankedEntry, 0, len(sorted))
	for i, m := range sorted {
		if limit > 0 && i >= limit {
			break
		}
		entries = append(entries, model.RankedEntry{
			Rank:      i + 1,
			MemberID:  m.ID,
			Username:  m.Username,
			SectionID: m.SectionID,
			Points:    m.Points,
		})
	}
	return entries
}

// rankSections buckets members into their sections and orders sections by
// total points descending, section ID ascending on ties. Sections with no
// members still appear, with zero totals.
func rankSections(sections []model.Section, members []model.Member) []model.SectionRankedEntry {
	totals := make(map[string]int, len(sections))
	counts := make(map[string]int, len(sections))
	for _, m := range members {
		if m.SectionID == nil {
			continue
		}
		totals[*m.SectionID] += m.Points
		counts[*m.SectionID]++
	}

	entries := make([]model.SectionRankedEntry, 0, len(sections))
	for _, sec := range sections {
		total := totals[sec.ID]
		count := counts[sec.ID]
		avg := 0
		if count > 0 {
			avg = int(math.Round(float64(total) / float64(count)))
		}
		entries = append(entries, model.SectionRankedEntry{
			SectionID:     sec.ID,
			SectionName:   sec.Name,
			TotalPoints:   total,
			MemberCount:   count,
			AveragePoints: avg,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		return entries[i].SectionID < entries[j].SectionID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// IndividualRanking returns the group's leaderboard truncated to limit.
// An empty group yields an empty list, never an error.
func (s *RankingService) IndividualRanking(ctx context.Context, groupID string, limit int) ([]model.RankedEntry, error) {
	if limit <= 0 {
		limit = config.AppConfig.RankingDefaultLimit
	}

	cacheKey := fmt.Sprintf("ranking:individual:%s:%d", groupID, limit)
	if cached, ok := s.cacheGet(ctx, cacheKey); ok {
		var entries []model.RankedEntry
		if err := json.Unmarshal(cached, &entries); err == nil {
			return entries, nil
		}
	}

	members, err := s.memberRepo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	entries := rankMembers(members, limit)

	s.cacheSet(ctx, cacheKey, entries)
	return entries, nil
}

// fullRanking returns the group's complete leaderboard, cached under the
// limit-0 key so rank lookups and the truncated views share one invalidation.
func (s *RankingService) fullRanking(ctx context.Context, groupID string) ([]model.RankedEntry, error) {
	cacheKey := fmt.Sprintf("ranking:individual:%s:0", groupID)
	if cached, ok := s.cacheGet(ctx, cacheKey); ok {
		var entries []model.RankedEntry
		if err := json.Unmarshal(cached, &entries); err == nil {
			return entries, nil
		}
	}

	members, err := s.memberRepo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	entries := rankMembers(members, 0)

	s.cacheSet(ctx, cacheKey, entries)
	return entries, nil
}

// IndividualRank returns the member's position in their group's leaderboard.
// When the member is not ranked (empty group, or not part of it) it returns 1
// rather than an error, so screens expecting an integer rank keep working.
func (s *RankingService) IndividualRank(ctx context.Context, memberID, groupID string) (int, error) {
	entries, err := s.fullRanking(ctx, groupID)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if e.MemberID == memberID {
			return e.Rank, nil
		}
	}
	return 1, nil
}

// SectionRanking returns the group's sections ranked by total points.
func (s *RankingService) SectionRanking(ctx context.Context, groupID string) ([]model.SectionRankedEntry, error) {
	cacheKey := fmt.Sprintf("ranking:sections:%s", groupID)
	if cached, ok := s.cacheGet(ctx, cacheKey); ok {
		var entries []model.SectionRankedEntry
		if err := json.Unmarshal(cached, &entries); err == nil {
			return entries, nil
		}
	}

	sections, err := s.groupRepo.ListSectionsByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	members, err := s.memberRepo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	entries := rankSections(sections, members)

	s.cacheSet(ctx, cacheKey, entries)
	return entries, nil
}

// InvalidateGroup drops every cached leaderboard for the group. Called after
// a validation commits; best effort, the TTL bounds staleness anyway.
func (s *RankingService) InvalidateGroup(ctx context.Context, groupID string) {
	if s.rdb == nil {
		return
	}
	patterns := []string{
		fmt.Sprintf("ranking:individual:%s:*", groupID),
		fmt.Sprintf("ranking:sections:%s", groupID),
	}
	for _, pattern := range patterns {
		keys, err := s.rdb.Keys(ctx, pattern).Result()
		if err != nil {
			s.log.Warn("ranking cache invalidation failed", "pattern", pattern, "error", err)
			continue
		}
		if len(keys) > 0 {
			s.rdb.Del(ctx, keys...)
		}
	}
}

func (s *RankingService) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if s.rdb == nil {
		return nil, false
	}
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (s *RankingService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	ttl := time.Duration(config.AppConfig.RankingCacheTTLSeconds) * time.Second
	if err := s.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		s.log.Warn("ranking cache write failed", "key", key, "error", err)
	}
}
