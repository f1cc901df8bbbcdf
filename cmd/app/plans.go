package main

import (
	"context"

	"github.com/spf13/cobra"

	"signaldesk/internal/repository"
	"signaldesk/internal/service"
	"signaldesk/pkg/logger"
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Manage subscription plans",
}

var plansSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the default plan catalog, leaving existing tiers untouched",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, appLogger, db, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
		defer func() { _ = appLogger.Sync() }()

		plans := service.NewPlanService(repository.NewPlanRepository(db), cfg.Cache.PlanTTL, appLogger)
		created, err := plans.SeedDefaults(ctx)
		if err != nil {
			return err
		}
		appLogger.Info("Seeded plans", logger.Field("created", created))
		return nil
	},
}

func init() {
	plansCmd.AddCommand(plansSeedCmd)
}
