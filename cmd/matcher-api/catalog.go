// cmd/matcher-api/catalog.go
package main

import (
	"context"
	"fmt"
	"io"

	"scholarship-matcher/internal/catalog"
	apperrors "scholarship-matcher/internal/common/errors"
	"scholarship-matcher/internal/matching"
	"scholarship-matcher/pkg/registry"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and maintain the scholarship catalog",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate <catalog.json>",
	Short: "Check a seed file for records the matcher would reject",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return validateCatalogFile(args[0], cmd.OutOrStdout())
	},
}

var catalogRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Drop the cached catalog and fetch it again from the configured provider",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return refreshCatalog(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	catalogCmd.AddCommand(catalogValidateCmd, catalogRefreshCmd)
	rootCmd.AddCommand(catalogCmd)
}

func validateCatalogFile(path string, out io.Writer) error {
	file, err := registry.LoadCatalog(path)
	if err != nil {
		return err
	}
	if len(file.Scholarships) == 0 {
		return fmt.Errorf("catalog %s contains no scholarships", path)
	}

	ids := make(map[string]bool, len(file.Scholarships))
	for i := range file.Scholarships {
		record := &file.Scholarships[i]
		if err := matching.ValidateRecord(record); err != nil {
			return fmt.Errorf("record %d: %s", i, apperrors.Normalize(err).Details)
		}
		if ids[record.ID] {
			return fmt.Errorf("duplicate scholarship id: %s", record.ID)
		}
		ids[record.ID] = true
	}

	fmt.Fprintf(out, "Catalog validation passed. Found %d scholarships.\n", len(file.Scholarships))
	return nil
}

func refreshCatalog(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	comp, err := buildComponents(ctx)
	if err != nil {
		return err
	}
	defer comp.Close(context.Background())

	p := comp.provider
	if inst, ok := p.(*catalog.Instrumented); ok {
		p = inst.Unwrap()
	}
	if cached, ok := p.(*catalog.CachedProvider); ok {
		if err := cached.Invalidate(ctx); err != nil {
			return fmt.Errorf("invalidating %s: %w", cached.Key(), err)
		}
	}

	records, err := comp.provider.Fetch(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Fetched %d scholarships from %s.\n", len(records), comp.provider.Name())
	return nil
}
