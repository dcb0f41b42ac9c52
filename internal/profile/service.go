package profile

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/deancochran/gradientpeak-sub006/internal/db"
)

type Service struct {
	db db.Querier
}

func NewService(q db.Querier) *Service {
	return &Service{db: q}
}

// Get returns the stored profile, or an empty one when the user has never
// saved thresholds. Absence is not an error at this boundary.
func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	var p Profile
	row := s.db.QueryRow(ctx, `
		SELECT user_id, ftp_watts, threshold_hr_bpm, weight_kg, dob, updated_at
		FROM profiles WHERE user_id=$1
	`, userID)
	if err := row.Scan(&p.UserID, &p.FTPWatts, &p.ThresholdHR, &p.WeightKg, &p.DOB, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{UserID: userID}, nil
		}
		return Profile{}, err
	}
	return p, nil
}

// Upsert stores the thresholds, replacing any previous values.
func (s *Service) Upsert(ctx context.Context, p Profile) (Profile, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO profiles (user_id, ftp_watts, threshold_hr_bpm, weight_kg, dob, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
		ON CONFLICT (user_id) DO UPDATE SET
			ftp_watts=EXCLUDED.ftp_watts,
			threshold_hr_bpm=EXCLUDED.threshold_hr_bpm,
			weight_kg=EXCLUDED.weight_kg,
			dob=EXCLUDED.dob,
			updated_at=now()
		RETURNING updated_at
	`, p.UserID, p.FTPWatts, p.ThresholdHR, p.WeightKg, p.DOB)
	if err := row.Scan(&p.UpdatedAt); err != nil {
		return Profile{}, err
	}
	return p, nil
}
