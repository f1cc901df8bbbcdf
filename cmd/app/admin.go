package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"signaldesk/internal/domain"
	"signaldesk/internal/middleware"
	"signaldesk/internal/repository"
	"signaldesk/internal/service"
	"signaldesk/pkg/logger"
)

var (
	staffEmail    string
	staffPassword string
	staffName     string
	staffRole     string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage staff accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin or customer-service account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !domain.IsValidRole(staffRole) {
			return fmt.Errorf("unknown role %q", staffRole)
		}

		ctx := context.Background()
		cfg, appLogger, db, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
		defer func() { _ = appLogger.Sync() }()

		tokens := middleware.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		auth := service.NewAuthService(repository.NewUserRepository(db), tokens, nil, appLogger)

		user, err := auth.CreateStaff(ctx, staffEmail, staffPassword, staffName, staffRole)
		if err != nil {
			return err
		}
		appLogger.Info("Created account",
			logger.Field("user_id", user.ID.String()),
			logger.Field("email", user.Email),
			logger.Field("role", user.Role),
		)
		return nil
	},
}

func init() {
	adminCreateCmd.Flags().StringVar(&staffEmail, "email", "", "account email")
	adminCreateCmd.Flags().StringVar(&staffPassword, "password", "", "account password")
	adminCreateCmd.Flags().StringVar(&staffName, "name", "", "full name")
	adminCreateCmd.Flags().StringVar(&staffRole, "role", domain.RoleAdmin, "ADMIN, CUSTOMER_SERVICE or USER")
	_ = adminCreateCmd.MarkFlagRequired("email")
	_ = adminCreateCmd.MarkFlagRequired("password")

	adminCmd.AddCommand(adminCreateCmd)
}
