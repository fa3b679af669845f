package migrations

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

type dailyChallenge struct {
	bun.BaseModel `bun:"table:daily_challenges"`
	ID            int64      `bun:"id,pk,autoincrement"`
	UserID        string     `bun:"user_id,notnull"`
	ChallengeDate string     `bun:"challenge_date,notnull"`
	ChallengeType string     `bun:"challenge_type,notnull"`
	Completed     bool       `bun:"completed,notnull,default:false"`
	Score         *int       `bun:"score"`
	CompletedAt   *time.Time `bun:"completed_at"`
}

type tournament struct {
	bun.BaseModel   `bun:"table:tournaments"`
	ID              int64     `bun:"id,pk,autoincrement"`
	Name            string    `bun:"name,notnull"`
	Description     string    `bun:"description,notnull,default:''"`
	StartDate       time.Time `bun:"start_date,notnull"`
	EndDate         time.Time `bun:"end_date,notnull"`
	MaxParticipants int       `bun:"max_participants,notnull,default:100"`
	PrizePool       int       `bun:"prize_pool,notnull,default:0"`
	IsActive        bool      `bun:"is_active,notnull,default:true"`
}

type tournamentParticipant struct {
	bun.BaseModel `bun:"table:tournament_participants"`
	TournamentID  int64     `bun:"tournament_id,pk"`
	UserID        string    `bun:"user_id,pk"`
	Score         int       `bun:"score,notnull,default:0"`
	JoinedAt      time.Time `bun:"joined_at,notnull,default:current_timestamp"`
}

type helpTicket struct {
	bun.BaseModel `bun:"table:help_tickets"`
	ID            int64      `bun:"id,pk,autoincrement"`
	UserID        string     `bun:"user_id,notnull"`
	Subject       string     `bun:"subject,notnull"`
	Category      string     `bun:"category,notnull"`
	Priority      string     `bun:"priority,notnull"`
	Description   string     `bun:"description,notnull"`
	Status        string     `bun:"status,notnull,default:'open'"`
	CreatedAt     time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	ResolvedAt    *time.Time `bun:"resolved_at"`
}

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
				tables := []struct {
					model       interface{}
					foreignKeys []string
				}{
					{(*dailyChallenge)(nil), []string{userFK}},
					{(*tournament)(nil), nil},
					{(*tournamentParticipant)(nil), []string{
						`("tournament_id") REFERENCES "tournaments" ("id") ON DELETE CASCADE`,
						userFK,
					}},
					{(*helpTicket)(nil), []string{userFK}},
				}
				for _, t := range tables {
					q := tx.NewCreateTable().Model(t.model).IfNotExists()
					for _, fk := range t.foreignKeys {
						q = q.ForeignKey(fk)
					}
					if _, err := q.Exec(ctx); err != nil {
						return err
					}
				}

				if _, err := tx.NewCreateIndex().Model((*dailyChallenge)(nil)).
					Unique().
					Index("daily_challenges_user_date_type_idx").
					Column("user_id", "challenge_date", "challenge_type").
					IfNotExists().
					Exec(ctx); err != nil {
					return err
				}
				_, err := tx.NewCreateIndex().Model((*tournament)(nil)).
					Index("tournaments_active_end_idx").
					Column("is_active", "end_date").
					IfNotExists().
					Exec(ctx)
				return err
			})
		},
		func(ctx context.Context, db *bun.DB) error {
			return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
				for _, model := range []interface{}{
					(*helpTicket)(nil),
					(*tournamentParticipant)(nil),
					(*tournament)(nil),
					(*dailyChallenge)(nil),
				} {
					if _, err := tx.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
						return err
					}
				}
				return nil
			})
		},
	)
}
