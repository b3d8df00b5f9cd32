package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"tiktip/pkg/config"
	"tiktip/pkg/database"
	"tiktip/pkg/jwt"
	"tiktip/pkg/logger"
	"tiktip/services/ledger/internal/entity"
	"tiktip/services/ledger/internal/notifier"
	"tiktip/services/ledger/internal/repo/persistent"
	"tiktip/services/ledger/internal/usecase"

	"github.com/shopspring/decimal"
)

type seedCreator struct {
	username    string
	displayName string
	tips        []string
}

var seedCreators = []seedCreator{
	{"ada", "Ada Obi", []string{"2500.00", "1000.00", "750.50"}},
	{"tunde", "Tunde Bakare", []string{"5000.00"}},
	{"zainab", "Zainab Musa", nil},
}

func main() {
	withTips := flag.Bool("tips", true, "record sample completed tips for each creator")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New()
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}
	defer database.Close(db)

	repo := persistent.NewLedgerRepository(db)
	ledger := usecase.NewLedgerUseCase(repo, notifier.NewDispatcher(notifier.NoOp{}, 0, log), log)
	jwtService := jwt.NewService(cfg.JWTSecret)

	if err := seedDatabase(context.Background(), ledger, jwtService, *withTips, log); err != nil {
		log.Error("Failed to seed database: %v", err)
		panic(err)
	}

	adminToken, err := jwtService.GenerateToken("admin", jwt.RoleAdmin)
	if err != nil {
		panic(err)
	}
	fmt.Printf("admin token: %s\n", adminToken)

	log.Info("Database seeded successfully!")
}

func seedDatabase(ctx context.Context, ledger usecase.LedgerUseCase, jwtService *jwt.Service, withTips bool, log *logger.Logger) error {
	for _, sc := range seedCreators {
		creator, err := ledger.CreateCreator(ctx, sc.username, sc.displayName)
		if errors.Is(err, entity.ErrCreatorExists) {
			log.Info("Creator %s already exists, skipping", sc.username)
			if creator, err = ledger.GetCreatorByUsername(ctx, sc.username); err != nil {
				return err
			}
		} else if err != nil {
			return fmt.Errorf("create creator %s: %w", sc.username, err)
		} else if withTips {
			for i, amount := range sc.tips {
				_, err := ledger.Apply(ctx, creator.ID, decimal.RequireFromString(amount), entity.TransactionTypeTip, usecase.ApplyOptions{
					PaymentReference: fmt.Sprintf("seed_%s_%d", sc.username, i),
					SupporterName:    "Seed Supporter",
					Message:          "Welcome to TikTip!",
				})
				if err != nil {
					return fmt.Errorf("seed tip for %s: %w", sc.username, err)
				}
			}
		}

		token, err := jwtService.GenerateToken(creator.ID, jwt.RoleCreator)
		if err != nil {
			return err
		}
		fmt.Printf("creator %-8s id=%s token=%s\n", creator.Username, creator.ID, token)
	}
	return nil
}
