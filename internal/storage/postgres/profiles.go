package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kind-match/internal/models"

	"github.com/gocraft/dbr/v2"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

func (s *Store) CreateUser(ctx context.Context, user *models.User) (bool, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	res, err := s.sess.
		InsertBySql(`
			INSERT INTO users (id, username, first_name, last_name, role, credits, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING
		`, user.ID, user.Username, user.FirstName, user.LastName, user.Role, user.Credits, user.CreatedAt).
		ExecContext(ctx)
	if err != nil {
		s.logger.Error("failed to create user",
			zap.Int64("user_id", user.ID),
			zap.Error(err),
		)
		return false, fmt.Errorf("create user: %w", err)
	}

	created, err := rowsChanged(res)
	if err != nil {
		return false, err
	}
	if created {
		s.logger.Info("user created",
			zap.Int64("user_id", user.ID),
			zap.Stringp("username", user.Username),
			zap.String("role", string(user.Role)),
		)
	}
	return created, nil
}

func (s *Store) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User

	err := s.sess.
		Select("id", "username", "first_name", "last_name", "role", "credits", "created_at").
		From("users").
		Where("id = ?", userID).
		LoadOneContext(ctx, &user)
	if errors.Is(err, dbr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("failed to get user",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

// GetOrCreateUser returns the stored user, inserting user when it is new.
func (s *Store) GetOrCreateUser(ctx context.Context, user *models.User) (*models.User, bool, error) {
	created, err := s.CreateUser(ctx, user)
	if err != nil {
		return nil, false, err
	}

	stored, err := s.GetUser(ctx, user.ID)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, fmt.Errorf("user %d vanished after insert", user.ID)
	}
	return stored, created, nil
}

func (s *Store) SetUserRole(ctx context.Context, userID int64, role models.Role) (bool, error) {
	res, err := s.sess.
		Update("users").
		Set("role", role).
		Where("id = ?", userID).
		ExecContext(ctx)
	if err != nil {
		s.logger.Error("failed to set role",
			zap.Int64("user_id", userID),
			zap.String("role", string(role)),
			zap.Error(err),
		)
		return false, fmt.Errorf("set user role: %w", err)
	}
	return rowsChanged(res)
}

type workerProfileRow struct {
	UserID            int64          `db:"user_id"`
	PreferredJobTypes pq.StringArray `db:"preferred_job_types"`
	Province          string         `db:"province"`
	Region            string         `db:"region"`
	ExpectedSalaryMin int            `db:"expected_salary_min"`
	ExpectedSalaryMax int            `db:"expected_salary_max"`
	Skills            pq.StringArray `db:"skills"`
	YearsExperience   float64        `db:"years_experience"`
	Availability      models.Slots   `db:"availability"`
	Rating            float64        `db:"rating"`
	Boosted           bool           `db:"boosted"`
	BoostExpiresAt    *time.Time     `db:"boost_expires_at"`
}

func (r workerProfileRow) model() *models.WorkerProfile {
	return &models.WorkerProfile{
		UserID:            r.UserID,
		PreferredJobTypes: []string(r.PreferredJobTypes),
		Location:          models.Location{Province: r.Province, Region: r.Region},
		ExpectedSalaryMin: r.ExpectedSalaryMin,
		ExpectedSalaryMax: r.ExpectedSalaryMax,
		Skills:            []string(r.Skills),
		YearsExperience:   r.YearsExperience,
		Availability:      r.Availability,
		Rating:            r.Rating,
		Boosted:           r.Boosted,
		BoostExpiresAt:    r.BoostExpiresAt,
	}
}

func (s *Store) GetWorkerProfile(ctx context.Context, userID int64) (*models.WorkerProfile, error) {
	var row workerProfileRow

	err := s.sess.
		Select("*").
		From("worker_profiles").
		Where("user_id = ?", userID).
		LoadOneContext(ctx, &row)
	if errors.Is(err, dbr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("failed to get worker profile",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get worker profile: %w", err)
	}

	return row.model(), nil
}

func (s *Store) UpsertWorkerProfile(ctx context.Context, p *models.WorkerProfile) error {
	availability, err := p.Availability.Value()
	if err != nil {
		return fmt.Errorf("encode availability: %w", err)
	}

	_, err = s.sess.
		InsertBySql(`
			INSERT INTO worker_profiles (
				user_id, preferred_job_types, province, region,
				expected_salary_min, expected_salary_max, skills,
				years_experience, availability, rating, boosted, boost_expires_at
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id) DO UPDATE SET
				preferred_job_types = EXCLUDED.preferred_job_types,
				province            = EXCLUDED.province,
				region              = EXCLUDED.region,
				expected_salary_min = EXCLUDED.expected_salary_min,
				expected_salary_max = EXCLUDED.expected_salary_max,
				skills              = EXCLUDED.skills,
				years_experience    = EXCLUDED.years_experience,
				availability        = EXCLUDED.availability
		`,
			p.UserID,
			pq.StringArray(p.PreferredJobTypes),
			p.Location.Province,
			p.Location.Region,
			p.ExpectedSalaryMin,
			p.ExpectedSalaryMax,
			pq.StringArray(p.Skills),
			p.YearsExperience,
			availability,
			p.Rating,
			p.Boosted,
			p.BoostExpiresAt,
		).
		ExecContext(ctx)
	if err != nil {
		s.logger.Error("failed to upsert worker profile",
			zap.Int64("user_id", p.UserID),
			zap.Error(err),
		)
		return fmt.Errorf("upsert worker profile: %w", err)
	}

	return nil
}

func (s *Store) GetWorkHistory(ctx context.Context, userID int64) ([]models.WorkHistory, error) {
	var history []models.WorkHistory

	_, err := s.sess.
		Select("id", "user_id", "employer", "position", "started_at", "ended_at").
		From("work_history").
		Where("user_id = ?", userID).
		OrderDesc("started_at").
		LoadContext(ctx, &history)
	if err != nil {
		s.logger.Error("failed to get work history",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("get work history: %w", err)
	}

	return history, nil
}
