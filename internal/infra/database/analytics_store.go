package database

import (
	"context"
	"fmt"
	"time"

	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

// AVG is cast because SQLite yields an integer for COALESCE(NULL, 0).
type assessmentTotals struct {
	Total     int     `bun:"total"`
	AvgScore  float64 `bun:"avg_score"`
	BestScore int     `bun:"best_score"`
	TotalTime int     `bun:"total_time"`
}

type subjectRow struct {
	Subject  string  `bun:"subject"`
	Count    int     `bun:"count"`
	AvgScore float64 `bun:"avg_score"`
}

const mixedSubject = "mixed"

func (s *Store) Analytics(ctx context.Context, userID string, recent int) (domain.Analytics, error) {
	var totals assessmentTotals
	err := s.db.NewSelect().Model((*assessmentModel)(nil)).
		ColumnExpr("COUNT(*) AS total").
		ColumnExpr("CAST(COALESCE(AVG(score), 0) AS DOUBLE PRECISION) AS avg_score").
		ColumnExpr("COALESCE(MAX(score), 0) AS best_score").
		ColumnExpr("COALESCE(SUM(time_taken), 0) AS total_time").
		Where("user_id = ?", userID).
		Scan(ctx, &totals)
	if err != nil {
		return domain.Analytics{}, fmt.Errorf("assessment totals: %w", err)
	}

	var subjects []subjectRow
	err = s.db.NewSelect().Model((*assessmentModel)(nil)).
		Column("subject").
		ColumnExpr("COUNT(*) AS count").
		ColumnExpr("CAST(AVG(score) AS DOUBLE PRECISION) AS avg_score").
		Where("user_id = ?", userID).
		Where("subject <> ?", mixedSubject).
		Group("subject").
		Order("subject").
		Scan(ctx, &subjects)
	if err != nil {
		return domain.Analytics{}, fmt.Errorf("subject stats: %w", err)
	}

	unlocked, err := s.db.NewSelect().Model((*achievementModel)(nil)).Where("user_id = ?", userID).Count(ctx)
	if err != nil {
		return domain.Analytics{}, fmt.Errorf("count achievements: %w", err)
	}

	var events []eventModel
	err = s.db.NewSelect().Model(&events).
		Where("user_id = ?", userID).
		OrderExpr("created_at DESC, id DESC").
		Limit(recent).
		Scan(ctx)
	if err != nil {
		return domain.Analytics{}, fmt.Errorf("recent events: %w", err)
	}

	out := domain.Analytics{
		TotalAssessments: totals.Total,
		AverageScore:     totals.AvgScore,
		BestScore:        totals.BestScore,
		TotalTime:        totals.TotalTime,
		Subjects:         make([]domain.SubjectStats, 0, len(subjects)),
		Unlocked:         unlocked,
		RecentActivity:   make([]domain.AnalyticsEvent, 0, len(events)),
	}
	for _, r := range subjects {
		out.Subjects = append(out.Subjects, domain.SubjectStats{Subject: r.Subject, Count: r.Count, AvgScore: r.AvgScore})
	}
	for _, e := range events {
		out.RecentActivity = append(out.RecentActivity, e.toDomain())
	}
	return out, nil
}

func (s *Store) UnlockedAchievements(ctx context.Context, userID string) (map[domain.AchievementID]time.Time, error) {
	var rows []achievementModel
	if err := s.db.NewSelect().Model(&rows).Where("user_id = ?", userID).Scan(ctx); err != nil {
		return nil, fmt.Errorf("load achievements: %w", err)
	}
	out := make(map[domain.AchievementID]time.Time, len(rows))
	for _, r := range rows {
		out[domain.AchievementID(r.AchievementID)] = r.UnlockedAt
	}
	return out, nil
}
