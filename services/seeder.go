package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/hireready/backend/models"
	"github.com/hireready/backend/repository"
)

// DatabaseSeeder handles database seeding operations
type DatabaseSeeder struct {
	repo *repository.GORMRepository
}

// NewDatabaseSeeder creates a new database seeder
func NewDatabaseSeeder(repo *repository.GORMRepository) *DatabaseSeeder {
	return &DatabaseSeeder{repo: repo}
}

// SeedDatabase seeds the database with initial data (idempotent)
func (s *DatabaseSeeder) SeedDatabase() error {
	ctx := context.Background()

	existing, err := s.repo.GetUserByEmail(ctx, "test@example.com")
	if err != nil {
		return fmt.Errorf("failed to check seed user: %w", err)
	}
	if existing != nil {
		slog.Info("Database seeding already completed, skipping")
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	users := []models.User{
		{
			Email:    "test@example.com",
			Password: string(hashedPassword),
			FullName: "Test User",
			Role:     "user",
		},
		{
			Email:    "demo@example.com",
			Password: string(hashedPassword),
			FullName: "Demo User",
			Role:     "user",
		},
	}

	for i := range users {
		if err := s.repo.CreateUser(ctx, &users[i]); err != nil {
			slog.Error("Failed to seed user", "email", users[i].Email, "error", err)
		}
	}

	firstUser, err := s.repo.GetUserByEmail(ctx, "test@example.com")
	if err != nil || firstUser == nil {
		return fmt.Errorf("failed to get seed user: %w", err)
	}

	// A sample interview so the session workflow is exercisable without an
	// AI round trip.
	interview := models.Interview{
		UserID:      firstUser.ID,
		Position:    "Backend Engineer",
		Description: "Design and operate HTTP APIs backed by Postgres.",
		Experience:  3,
		TechStack:   "Go, PostgreSQL, REST",
		Questions: []models.InterviewQuestion{
			{
				QuestionIndex: 0,
				Question:      "What is the difference between a slice and an array in Go?",
				Answer:        "Arrays have a fixed length that is part of their type; slices are dynamically sized views over an underlying array with a length and capacity.",
			},
			{
				QuestionIndex: 1,
				Question:      "How would you prevent duplicate rows for the same logical record?",
				Answer:        "Add a composite unique constraint at the database level so concurrent writers cannot both succeed, and map the violation to a domain error.",
			},
			{
				QuestionIndex: 2,
				Question:      "When would you choose a transaction over independent writes?",
				Answer:        "When multiple writes must succeed or fail together, such as replacing a child collection while updating its parent.",
			},
		},
	}

	if err := s.repo.CreateInterview(ctx, &interview); err != nil {
		slog.Error("Failed to seed interview", "error", err)
	}

	slog.Info("Database seeding completed")
	return nil
}
