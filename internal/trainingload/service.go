package trainingload

import (
	"context"
	"time"

	"github.com/deancochran/gradientpeak-sub006/internal/db"
	"github.com/deancochran/gradientpeak-sub006/internal/shared/clock"
)

type Service struct {
	db  db.Querier
	clk clock.Clock
}

func NewService(q db.Querier, clk clock.Clock) *Service {
	return &Service{db: q, clk: clk}
}

// Append records one finalized session's TSS. Multiple sessions on the same
// day accumulate.
func (s *Service) Append(ctx context.Context, userID string, date time.Time, tss float64) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO training_load (user_id, day, tss)
		VALUES ($1,$2,$3)
		ON CONFLICT (user_id, day) DO UPDATE SET tss = training_load.tss + EXCLUDED.tss
	`, userID, date.UTC().Truncate(24*time.Hour), tss)
	return err
}

// History returns the trailing N days of entries in date order.
func (s *Service) History(ctx context.Context, userID string, days int) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT day, tss FROM training_load
		WHERE user_id=$1 AND day >= $2
		ORDER BY day
	`, userID, s.clk.Now().UTC().AddDate(0, 0, -days))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Date, &e.TSS); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CurrentLoad computes CTL/ATL/TSB from the trailing history window.
func (s *Service) CurrentLoad(ctx context.Context, userID string, days int) (Load, error) {
	history, err := s.History(ctx, userID, days)
	if err != nil {
		return Load{}, err
	}
	return Compute(history), nil
}
