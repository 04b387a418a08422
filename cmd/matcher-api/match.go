// cmd/matcher-api/match.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"scholarship-matcher/internal/common/validation"
	"scholarship-matcher/internal/models"

	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match <profile.json>",
	Short: "Score a profile file against the configured catalog and print the matches",
	Long: "Reads an applicant profile (or a search request body with a userProfile key) " +
		"from a file, or from stdin when the path is \"-\", and prints the match response as JSON.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		maxResults, _ := cmd.Flags().GetInt("max-results")
		return runMatch(cmd.Context(), args[0], maxResults, cmd.OutOrStdout())
	},
}

func init() {
	matchCmd.Flags().Int("max-results", 0, "cap the number of matches (overrides matching.max_results)")
	rootCmd.AddCommand(matchCmd)
}

func runMatch(ctx context.Context, path string, maxResults int, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if maxResults > 0 {
		cfg.Matching.MaxResults = maxResults
	}

	raw, err := readInput(path)
	if err != nil {
		return err
	}
	profileJSON, err := extractProfile(raw)
	if err != nil {
		return err
	}

	result, err := validation.ValidateProfile(profileJSON)
	if err != nil {
		return err
	}
	if !result.Valid {
		return fmt.Errorf("invalid profile: %s", result.Summary())
	}

	var profile models.ApplicantProfile
	if err := json.Unmarshal(profileJSON, &profile); err != nil {
		return fmt.Errorf("decoding profile: %w", err)
	}

	comp, err := buildComponents(ctx)
	if err != nil {
		return err
	}
	defer comp.Close(context.Background())

	resp, err := comp.matcher.Search(ctx, &profile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(models.SearchResponse{Success: true, Data: resp})
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	return data, nil
}

// extractProfile accepts either a bare profile or {"userProfile": {...}}.
func extractProfile(raw []byte) (json.RawMessage, error) {
	var wrapper struct {
		UserProfile json.RawMessage `json:"userProfile"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("profile is not valid JSON: %w", err)
	}
	if len(wrapper.UserProfile) > 0 && string(wrapper.UserProfile) != "null" {
		return wrapper.UserProfile, nil
	}
	return raw, nil
}
