package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/gks77/user-account-service/internal/config"
	"github.com/gks77/user-account-service/internal/database"
	"github.com/gks77/user-account-service/internal/domain"
	"github.com/gks77/user-account-service/internal/service"
	"github.com/gks77/user-account-service/internal/tools/common"
	"github.com/gks77/user-account-service/internal/tools/ui"
)

type options struct {
	ci      bool
	timeout time.Duration
	envFile string
}

func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "seed",
		Short: "Manage seeded reference data",
	}
	root.PersistentFlags().BoolVar(&opts.ci, "ci", false, "print a JSON result instead of the interactive view")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "per-command timeout")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "env file to load before reading configuration")

	root.AddCommand(&cobra.Command{
		Use:   "apply",
		Short: "Insert missing seed rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := run(opts, "seed apply", "Applying seed data", func(ctx context.Context) ([]string, error) {
				cfg, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				report, err := database.SeedSync(db.WithContext(ctx), database.SuperuserSeed{
					Email:    cfg.BootstrapSuperuserEmail,
					Username: cfg.BootstrapSuperuserUsername,
					Password: cfg.BootstrapSuperuserPassword,
				})
				if err != nil {
					return nil, err
				}
				if report.Noop {
					return []string{"no changes"}, nil
				}
				details := []string{fmt.Sprintf("created %d user types", report.CreatedUserTypes)}
				if report.CreatedSuperuser {
					details = append(details, "created bootstrap superuser")
				}
				return details, nil
			})
			return err
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "dry-run",
		Short: "Report what a seed run would change",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := run(opts, "seed dry-run", "Planning seed run", func(ctx context.Context) ([]string, error) {
				cfg, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				return planSeed(db.WithContext(ctx), cfg)
			})
			return err
		},
	})

	promote := &cobra.Command{
		Use:   "promote-superuser",
		Short: "Grant superuser access to an existing account",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			_, err := run(opts, "seed promote-superuser", "Promoting superuser", func(ctx context.Context) ([]string, error) {
				_, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				return promoteSuperuser(db.WithContext(ctx), email)
			})
			return err
		},
	}
	promote.Flags().String("email", "", "email of the account to promote")
	root.AddCommand(promote)

	return root
}

func run(opts *options, title, activity string, action func(context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		ctx := context.Background()
		if opts.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, opts.timeout)
			defer cancel()
		}
		details, err := action(ctx)
		common.PrintCIResult(err == nil, title, details, err)
		return details, err
	}
	return ui.Run(activity, opts.timeout, action)
}

func planSeed(db *gorm.DB, cfg *config.Config) ([]string, error) {
	var details []string
	for _, seedType := range service.SeededUserTypes {
		var existing domain.UserType
		err := db.Where("code = ?", seedType.Code).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			details = append(details, fmt.Sprintf("would create user type %s", seedType.Code))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lookup user type %s: %w", seedType.Code, err)
		}
	}
	if cfg.BootstrapSuperuserEmail != "" {
		var existing domain.User
		err := db.Where("email = ?", cfg.BootstrapSuperuserEmail).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			details = append(details, "would create bootstrap superuser")
		} else if err != nil {
			return nil, fmt.Errorf("lookup superuser: %w", err)
		}
	}
	if len(details) == 0 {
		details = []string{"no changes"}
	}
	return details, nil
}

func promoteSuperuser(db *gorm.DB, email string) ([]string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, errors.New("email is required")
	}

	var user domain.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, fmt.Errorf("lookup user %s: %w", email, err)
	}
	if user.IsSuperuser {
		return []string{fmt.Sprintf("%s is already a superuser", email)}, nil
	}
	if err := db.Model(&user).Update("is_superuser", true).Error; err != nil {
		return nil, fmt.Errorf("promote user %s: %w", email, err)
	}
	return []string{fmt.Sprintf("%s promoted to superuser", email)}, nil
}

func loadConfigDB(envFile string) (*config.Config, *gorm.DB, error) {
	if err := common.LoadEnvFile(envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
