// Command adminctl provides administrative operations for the pipeline
// database: running migrations, listing and resetting projects, and
// triggering an out-of-band archive cycle.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dataunify/pipeline/internal/config"
	"github.com/dataunify/pipeline/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

// resetTimeout bounds every destructive admin operation.
const resetTimeout = 30 * time.Second

func main() {
	root := &cobra.Command{
		Use:   "adminctl",
		Short: "Administrative operations for the data pipeline",
	}

	root.AddCommand(migrateCmd())
	root.AddCommand(listProjectsCmd())
	root.AddCommand(resetProjectCmd())
	root.AddCommand(archiveCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dbURL() (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	return cfg.Database.URL, nil
}

func connect(ctx context.Context) (*store.Store, func(), error) {
	url, err := dbURL()
	if err != nil {
		return nil, nil, err
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return store.New(pool), pool.Close, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := dbURL()
			if err != nil {
				return err
			}
			return store.Migrate(url)
		},
	}
}

func listProjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-projects",
		Short: "List every project and its status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
			defer cancel()

			repo, closePool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer closePool()

			projects, err := repo.ListProjects(ctx)
			if err != nil {
				return err
			}
			for _, p := range projects {
				domain := "unclassified"
				if p.DetectedDomain != nil {
					domain = *p.DetectedDomain
				}
				fmt.Printf("%s\t%-12s\t%-20s\t%s\n", p.ID, p.Status, domain, p.Name)
			}
			return nil
		},
	}
}

func resetProjectCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "reset-project <projectID>",
		Short: "Delete a project and every artifact derived from it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("refusing to delete project %s without --force", args[0])
			}
			ctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
			defer cancel()

			repo, closePool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer closePool()

			if err := repo.DeleteProject(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("project %s deleted\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "confirm the destructive delete")
	return cmd
}

func archiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive-run",
		Short: "Run one archive/purge cycle against the cleaning log tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), resetTimeout)
			defer cancel()

			repo, closePool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer closePool()

			archived, err := repo.ArchiveOldCleaningLogs(ctx, cfg.Archive.HotRetentionDays, cfg.Archive.BatchSize)
			if err != nil {
				return err
			}
			purged, err := repo.PurgeOldArchives(ctx, cfg.Archive.ArchiveRetentionYears)
			if err != nil {
				return err
			}
			fmt.Printf("archived %d rows, purged %d rows\n", archived, purged)
			return nil
		},
	}
}
