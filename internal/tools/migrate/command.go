package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/gks77/user-account-service/internal/config"
	"github.com/gks77/user-account-service/internal/database"
	"github.com/gks77/user-account-service/internal/domain"
	"github.com/gks77/user-account-service/internal/tools/common"
	"github.com/gks77/user-account-service/internal/tools/ui"
)

type options struct {
	ci      bool
	timeout time.Duration
	envFile string
}

var schemaTables = []struct {
	name  string
	model any
}{
	{"user_types", &domain.UserType{}},
	{"users", &domain.User{}},
	{"profiles", &domain.Profile{}},
	{"addresses", &domain.Address{}},
	{"sessions", &domain.Session{}},
}

func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "migrate",
		Short: "Apply and inspect the database schema",
	}
	root.PersistentFlags().BoolVar(&opts.ci, "ci", false, "print a JSON result instead of the interactive view")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "per-command timeout")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "env file to load before reading configuration")

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending schema changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := run(opts, "migrate up", "Applying schema", func(ctx context.Context) ([]string, error) {
				_, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				if err := database.Migrate(db.WithContext(ctx)); err != nil {
					return nil, err
				}
				return []string{fmt.Sprintf("schema migrated (%d tables)", len(schemaTables))}, nil
			})
			return err
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Report which tables exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := run(opts, "migrate status", "Inspecting schema", func(ctx context.Context) ([]string, error) {
				_, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				migrator := db.WithContext(ctx).Migrator()
				details := make([]string, 0, len(schemaTables))
				for _, table := range schemaTables {
					state := "present"
					if !migrator.HasTable(table.model) {
						state = "missing"
					}
					details = append(details, fmt.Sprintf("%s: %s", table.name, state))
				}
				return details, nil
			})
			return err
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "plan",
		Short: "List tables a migration run would create",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := run(opts, "migrate plan", "Planning migration", func(ctx context.Context) ([]string, error) {
				_, db, err := loadConfigDB(opts.envFile)
				if err != nil {
					return nil, err
				}
				migrator := db.WithContext(ctx).Migrator()
				var details []string
				for _, table := range schemaTables {
					if !migrator.HasTable(table.model) {
						details = append(details, fmt.Sprintf("create table %s", table.name))
					}
				}
				if len(details) == 0 {
					details = []string{"schema up to date"}
				}
				return details, nil
			})
			return err
		},
	})

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
