package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/grid-nexus/nexus-api/internal/models"
	"github.com/grid-nexus/nexus-api/internal/seed"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import users and articles",
	Long:  `Import users (CSV) and articles (NDJSON). Without --file the built-in sample data is used.`,
}

var seedUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Import users from CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed(cmd, seed.Users, func(ctx context.Context, imp importer, r io.Reader) (*models.ImportResult, error) {
			return imp.ImportUsers(ctx, r)
		})
	},
}

var seedArticlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "Import articles from NDJSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed(cmd, seed.Articles, func(ctx context.Context, imp importer, r io.Reader) (*models.ImportResult, error) {
			return imp.ImportArticles(ctx, r)
		})
	},
}

func init() {
	seedCmd.PersistentFlags().StringVarP(&seedFile, "file", "f", "", "path to the seed file")
	seedCmd.AddCommand(seedUsersCmd, seedArticlesCmd)
	rootCmd.AddCommand(seedCmd)
}

type importer interface {
	ImportUsers(ctx context.Context, r io.Reader) (*models.ImportResult, error)
	ImportArticles(ctx context.Context, r io.Reader) (*models.ImportResult, error)
}

func runSeed(cmd *cobra.Command, builtin func() io.Reader, run func(ctx context.Context, imp importer, r io.Reader) (*models.ImportResult, error)) error {
	ctx := cmd.Context()

	r := builtin()
	if seedFile != "" {
		f, err := os.Open(seedFile)
		if err != nil {
			return fmt.Errorf("failed to open seed file: %w", err)
		}
		defer f.Close()
		r = f
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	result, err := run(ctx, a.Services.Import, r)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}
	if result.FailedCount > 0 {
		return fmt.Errorf("%d of %d records failed validation", result.FailedCount, result.TotalRecords)
	}
	return nil
}
