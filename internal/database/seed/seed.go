// internal/database/seed/seed.go

// Package seed loads the demo catalog into an empty store.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/rifas-backend/internal/models"
	"github.com/javajoker/rifas-backend/internal/services"
)

// DemoRaffles are created with every number still available.
func DemoRaffles(now time.Time) []services.CreateRaffleRequest {
	draw := func(months int) models.Date {
		d := now.AddDate(0, months, 0)
		return models.NewDate(d.Year(), d.Month(), d.Day())
	}

	return []services.CreateRaffleRequest{
		{
			Title:        "Rifa del iPhone 15 Pro Max",
			Description:  "Participa por un iPhone 15 Pro Max y más premios.",
			TicketPrice:  decimal.NewFromInt(10),
			TotalTickets: 100,
			Prizes: []models.Prize{
				{Name: "iPhone 15 Pro Max 256GB", Position: 1},
				{Name: "AirPods Pro 2da Gen", Position: 2},
				{Name: "Apple Watch SE", Position: 3},
			},
			DrawDate: draw(2),
			Image:    "https://images.unsplash.com/photo-1592286927505-b0c2fc1dd9bd?w=800&q=80",
		},
		{
			Title:        "Rifa de Laptop Gaming",
			Description:  "Una laptop gamer para el ganador.",
			TicketPrice:  decimal.NewFromInt(15),
			TotalTickets: 80,
			Prizes: []models.Prize{
				{Name: "Laptop ASUS ROG Strix G15", Position: 1},
				{Name: "Mouse Logitech G502", Position: 2},
			},
			DrawDate: draw(1),
			Image:    "https://images.unsplash.com/photo-1603302576837-37561b2e2302?w=800&q=80",
		},
	}
}

// SeedDemoData creates the demo raffles when the catalog is empty.
func SeedDemoData(ctx context.Context, raffles *services.RaffleService) error {
	logrus.Info("Seeding demo data...")

	stats, err := raffles.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to inspect catalog: %w", err)
	}
	if stats.TotalRaffles > 0 {
		logrus.WithField("raffles", stats.TotalRaffles).Info("Catalog not empty, skipping demo data")
		return nil
	}

	for _, req := range DemoRaffles(time.Now()) {
		raffle, err := raffles.CreateRaffle(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to create demo raffle %q: %w", req.Title, err)
		}
		logrus.WithField("raffle_id", raffle.ID).Debug("Demo raffle created")
	}

	logrus.Info("Demo data seeding completed")
	return nil
}
