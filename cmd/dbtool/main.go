package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/gks77/user-account-service/internal/tools/migrate"
	"github.com/gks77/user-account-service/internal/tools/seed"
)

func main() {
	root := &cobra.Command{
		Use:   "dbtool",
		Short: "Database maintenance commands",
	}
	root.AddCommand(migrate.NewRootCommand())
	root.AddCommand(seed.NewRootCommand())
	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}
