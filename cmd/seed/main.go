package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/viniuy/e-barangay/internal/config"
	"github.com/viniuy/e-barangay/internal/database"
	"github.com/viniuy/e-barangay/internal/models"
	"github.com/viniuy/e-barangay/internal/repository"
	"github.com/viniuy/e-barangay/internal/service"
	"github.com/viniuy/e-barangay/internal/utils"
)

var defaultBarangays = []string{"San Jose", "San Roque", "Poblacion", "Santa Cruz"}

var defaultCategories = []string{"Certificates", "Permits", "Health", "Facilities"}

var (
	adminUsername string
	adminEmail    string
	adminPassword string

	rootCmd = &cobra.Command{
		Use:   "seed",
		Short: "Seed the E-Barangay database",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err = database.Connect(cfg)
			if err != nil {
				return err
			}
			return database.Migrate(db)
		},
		SilenceUsage: true,
	}

	adminCmd = &cobra.Command{
		Use:   "admin",
		Short: "Create the SUPER_ADMIN account",
		Long: `admin creates a SUPER_ADMIN user. Credentials come from flags, falling back
to ADMIN_USERNAME, ADMIN_EMAIL and ADMIN_PASSWORD.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return seedAdmin(cmd.Context())
		},
	}

	barangaysCmd = &cobra.Command{
		Use:   "barangays [name...]",
		Short: "Create barangays (defaults to a starter list)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = defaultBarangays
			}
			return seedBarangays(cmd.Context(), args)
		},
	}

	categoriesCmd = &cobra.Command{
		Use:   "categories [name...]",
		Short: "Create item categories (defaults to a starter list)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = defaultCategories
			}
			return seedCategories(cmd.Context(), args)
		},
	}

	db *gorm.DB
)

func init() {
	adminCmd.Flags().StringVar(&adminUsername, "username", os.Getenv("ADMIN_USERNAME"), "Admin username")
	adminCmd.Flags().StringVar(&adminEmail, "email", os.Getenv("ADMIN_EMAIL"), "Admin email")
	adminCmd.Flags().StringVar(&adminPassword, "password", os.Getenv("ADMIN_PASSWORD"), "Admin password")

	rootCmd.AddCommand(adminCmd, barangaysCmd, categoriesCmd)
}

func seedAdmin(ctx context.Context) error {
	if adminUsername == "" || adminEmail == "" || adminPassword == "" {
		return errors.New("missing admin credentials: set --username/--email/--password or ADMIN_USERNAME, ADMIN_EMAIL, ADMIN_PASSWORD")
	}

	users := repository.NewUserRepository(db)
	existing, err := users.GetUserByEmail(ctx, adminEmail)
	if err != nil {
		return err
	}
	if existing != nil {
		fmt.Printf("Admin user already exists: %s (%s)\n", existing.Username, existing.Email)
		return nil
	}

	hash, err := utils.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	admin := &models.User{
		Username:     adminUsername,
		Email:        strings.ToLower(adminEmail),
		PasswordHash: hash,
		Role:         models.RoleSuperAdmin,
		IsVerified:   true,
	}
	if err := users.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Printf("Super admin created: %s (%s)\n", admin.Username, admin.Email)
	return nil
}

func seedBarangays(ctx context.Context, names []string) error {
	svc := service.NewBarangayService(repository.NewBarangayRepository(db), nil)
	for _, name := range names {
		b, err := svc.Create(ctx, name)
		if errors.Is(err, service.ErrBarangayExists) {
			fmt.Printf("skip %q: already exists\n", name)
			continue
		}
		if err != nil {
			return fmt.Errorf("barangay %q: %w", name, err)
		}
		fmt.Printf("created barangay %s (%s)\n", b.Name, b.ID)
	}
	return nil
}

func seedCategories(ctx context.Context, names []string) error {
	svc := service.NewCategoryService(repository.NewCategoryRepository(db), nil)
	for _, name := range names {
		c, err := svc.Create(ctx, name, nil)
		if errors.Is(err, service.ErrCategoryExists) {
			fmt.Printf("skip %q: already exists\n", name)
			continue
		}
		if err != nil {
			return fmt.Errorf("category %q: %w", name, err)
		}
		fmt.Printf("created category %s (%s)\n", c.Name, c.ID)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
