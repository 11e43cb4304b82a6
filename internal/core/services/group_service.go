package services

import (
	"context"

	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/analytics"
	"github.com/comitanigiacomo/kanso-insights-engine/internal/core/domain"
)

// GroupService serves the group read surface: live dynamics, the persisted
// metrics history and generated team challenges.
type GroupService struct {
	groupRepo     domain.GroupRepository
	eventRepo     domain.EventRepository
	analyticsRepo domain.AnalyticsRepository
}

func NewGroupService(groupRepo domain.GroupRepository, eventRepo domain.EventRepository, analyticsRepo domain.AnalyticsRepository) *GroupService {
	return &GroupService{
		groupRepo:     groupRepo,
		eventRepo:     eventRepo,
		analyticsRepo: analyticsRepo,
	}
}

func (s *GroupService) memberOf(group *domain.Group, userID string) bool {
	for _, id := range group.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type GroupInput struct {
	UserID  string
	GroupID string
	Range   domain.DateRange
}

// GetDynamics recomputes the group's collective behavior record over the
// requested range. Only members can read a group.
func (s *GroupService) GetDynamics(ctx context.Context, input GroupInput) (*domain.GroupDynamics, error) {
	if err := domain.ValidateRange(input.Range.Start, input.Range.End); err != nil {
		return nil, err
	}

	group, err := s.groupRepo.GetByID(ctx, input.GroupID)
	if err != nil {
		return nil, err
	}
	if !s.memberOf(group, input.UserID) {
		return nil, domain.ErrGroupNotFound
	}

	events, err := s.eventRepo.ListByGroupID(ctx, input.GroupID, input.Range.Start, input.Range.End)
	if err != nil {
		return nil, err
	}

	return analytics.ComputeGroupDynamics(events, group, input.Range.Start, input.Range.End, input.Range.End)
}

// GetLatestMetrics returns the newest persisted history row for the group,
// as appended by the weekly recompute.
func (s *GroupService) GetLatestMetrics(ctx context.Context, userID, groupID string) (*domain.GroupMetrics, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !s.memberOf(group, userID) {
		return nil, domain.ErrGroupNotFound
	}

	return s.analyticsRepo.LatestGroupMetrics(ctx, groupID)
}

// GetChallenges generates the current challenge slate from a fresh dynamics
// record: one candidate per archetype, difficulty-adjusted to the group's
// health, ranked by how much the targeted dimension needs the work.
func (s *GroupService) GetChallenges(ctx context.Context, input GroupInput) ([]*domain.TeamChallenge, error) {
	dynamics, err := s.GetDynamics(ctx, input)
	if err != nil {
		return nil, err
	}

	challenges := analytics.GenerateChallenges(dynamics, input.Range.End)
	return analytics.AdjustChallengeDifficulty(challenges, dynamics), nil
}
