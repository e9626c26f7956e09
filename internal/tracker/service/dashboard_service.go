package service

import (
	"context"
	"fmt"

	"github.com/tradelens/hts-tracker/internal/auth"
	"github.com/tradelens/hts-tracker/internal/tracker/model"
)

// Dashboard is the landing view: who the user is, their plan, what they track and
// how the newest statistics of those codes look.
type Dashboard struct {
	DisplayName  string                  `json:"displayName"`
	Email        string                  `json:"email,omitempty"`
	Subscription *model.Subscription     `json:"subscription"`
	TrackedCodes []model.TrackedCodeView `json:"trackedCodes"`
	RecentStats  []model.TradeStatRecord `json:"recentStats"`
	Summary      model.TradeSummary      `json:"summary"`
}

type latestSubscriptionProvider interface {
	GetLatestSubscription(ctx context.Context, userID string) (*model.Subscription, error)
}

type recentStatsProvider interface {
	LatestForCodes(ctx context.Context, codes []string, limit int) ([]model.TradeStatRecord, error)
}

// DashboardService assembles the dashboard from the tracker's other services.
type DashboardService struct {
	subs     latestSubscriptionProvider
	stats    recentStatsProvider
	workflow *TrackingWorkflow
}

func NewDashboardService(subs latestSubscriptionProvider, stats recentStatsProvider, workflow *TrackingWorkflow) *DashboardService {
	return &DashboardService{subs: subs, stats: stats, workflow: workflow}
}

// Build returns the dashboard for the authenticated user.
func (s *DashboardService) Build(ctx context.Context, authCtx *auth.AuthContext) (*Dashboard, error) {
	sess := &Session{UserID: authCtx.UserID}

	sub, err := s.subs.GetLatestSubscription(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if sub.Active() {
		sess.Subscription = sub
	}

	tracked, err := s.workflow.List(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked codes: %w", err)
	}

	codes := make([]string, 0, len(tracked))
	for _, t := range tracked {
		codes = append(codes, t.HSCode)
	}
	recent, err := s.stats.LatestForCodes(ctx, codes, RecentStatsLimit)
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{
		DisplayName:  authCtx.Profile.DisplayName(),
		Subscription: sub,
		TrackedCodes: tracked,
		RecentStats:  recent,
		Summary:      Summarize(recent),
	}
	if authCtx.Profile != nil {
		dashboard.Email = authCtx.Profile.Email
	}
	return dashboard, nil
}
