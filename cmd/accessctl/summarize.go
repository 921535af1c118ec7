package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Oldhoon/accessible-journeys/internal/accessibility"
	"github.com/Oldhoon/accessible-journeys/internal/domain"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Summarize an exported report set",
	Long: `Reads a report export and prints the accessibility summary the API would
derive from it: the average rating and the features reported by at least half
of the reports.

The file may be YAML or JSON, either a bare list of reports or an object with
a "reports" key.

Examples:
  # Summarize every report in the file
  summarize --file reports.yaml

  # One summary per location_id
  summarize --file reports.json --by-location`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		byLocation, _ := cmd.Flags().GetBool("by-location")

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		reports, err := parseReports(data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		log.Debug("loaded reports", "file", path, "count", len(reports))
		return writeSummary(cmd.OutOrStdout(), reports, byLocation)
	},
}

func init() {
	f := summarizeCmd.Flags()
	f.String("file", "", "report export (.yaml, .yml or .json)")
	f.Bool("by-location", false, "print one summary per location_id")
	_ = summarizeCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(summarizeCmd)
}

// reportRecord is one exported report. JSON parses as YAML, so a single
// decoder handles both formats.
type reportRecord struct {
	LocationID string   `yaml:"location_id"`
	Features   []string `yaml:"features"`
	Rating     int      `yaml:"rating"`
	Comments   string   `yaml:"comments"`
}

type reportExport struct {
	Reports []reportRecord `yaml:"reports"`
}

func parseReports(data []byte) ([]domain.Report, error) {
	var records []reportRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		var export reportExport
		if err2 := yaml.Unmarshal(data, &export); err2 != nil {
			return nil, err2
		}
		records = export.Reports
	}

	reports := make([]domain.Report, 0, len(records))
	for i, rec := range records {
		rating, err := domain.NewRating(rec.Rating)
		if err != nil {
			return nil, fmt.Errorf("report %d: %w", i, err)
		}
		features, err := domain.ParseFeatures(rec.Features)
		if err != nil {
			return nil, fmt.Errorf("report %d: %w", i, err)
		}
		reports = append(reports, domain.Report{
			LocationID: rec.LocationID,
			Features:   features,
			Rating:     rating,
			Comments:   rec.Comments,
		})
	}
	return reports, nil
}

func writeSummary(out io.Writer, reports []domain.Report, byLocation bool) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if !byLocation {
		return enc.Encode(accessibility.Summarize(reports))
	}

	grouped := make(map[string][]domain.Report)
	for _, r := range reports {
		grouped[r.LocationID] = append(grouped[r.LocationID], r)
	}
	summaries := make(map[string]domain.Summary, len(grouped))
	for id, rs := range grouped {
		summaries[id] = accessibility.Summarize(rs)
	}
	return enc.Encode(summaries)
}
