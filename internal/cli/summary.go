package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackscout/pkg/dataset"
	errs "github.com/matzehuels/stackscout/pkg/errors"
	pkgio "github.com/matzehuels/stackscout/pkg/io"
)

// datasetFlags maps configuration keys to the flags locating a dataset.
var datasetFlags = map[string]string{
	"export.dir":      "output",
	"export.basename": "basename",
}

// summaryCommand creates the summary command.
func (c *CLI) summaryCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary [dataset.json]",
		Short: "Print the report for an exported dataset",
		Long: `Summary reads a JSON dataset written by collect and prints the run report:
top packages, quality signals, categories, production candidates and licenses.

Without an argument it reads <output>/<basename>.json from the configuration.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := c.loadDataset(cmd, args)
			if err != nil {
				return err
			}
			s := dataset.Summarize(records, time.Now())
			if asJSON {
				return writeSummaryJSON(os.Stdout, s)
			}
			renderSummary(os.Stdout, s)
			return nil
		},
	}

	addDatasetFlags(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

// topCommand creates the top command.
func (c *CLI) topCommand() *cobra.Command {
	var (
		by string
		n  int
	)

	cmd := &cobra.Command{
		Use:   "top [dataset.json]",
		Short: "Rank an exported dataset by one metric",
		Example: `  stackscout top --by github_stars -n 20
  stackscout top out/npm_packages.json --by documentation_score`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := c.loadDataset(cmd, args)
			if err != nil {
				return err
			}
			top, err := dataset.TopN(records, by, n)
			if err != nil {
				return err
			}
			renderTop(os.Stdout, top, by)
			return nil
		},
	}

	addDatasetFlags(cmd)
	cmd.Flags().StringVar(&by, "by", "activity_score", "metric: "+strings.Join(dataset.MetricNames(), ", "))
	cmd.Flags().IntVarP(&n, "number", "n", dataset.SummaryTopN, "number of packages")
	_ = cmd.RegisterFlagCompletionFunc("by", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return dataset.MetricNames(), cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func addDatasetFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "directory holding the dataset")
	cmd.Flags().String("basename", "", "dataset file name without extension")
}

// loadDataset reads the file named in args, or the configured JSON export.
func (c *CLI) loadDataset(cmd *cobra.Command, args []string) ([]dataset.Record, error) {
	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		cfg, err := c.loadConfig(cmd, datasetFlags)
		if err != nil {
			return nil, err
		}
		path = pkgio.Path(cfg.Export.Dir, cfg.Export.Basename, pkgio.FormatJSON)
	}
	records, err := pkgio.ImportJSON(path)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded dataset", "path", path, "records", len(records))
	return records, nil
}

func writeSummaryJSON(w io.Writer, s *dataset.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "encode summary")
	}
	return nil
}

// renderTop prints a ranking with the ranked metric next to the headline
// columns.
func renderTop(w io.Writer, records []dataset.Record, by string) {
	metric, _ := dataset.MetricByName(by)
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			r.Name,
			dataset.FormatCell(metric(r)),
			count(r.DownloadsLastMonth),
			count(r.GitHubStars),
			strings.Join(r.Categories, dataset.ListSeparator),
		}
	}
	fmt.Fprintln(w, newTable([]string{"#", "Package", by, "Downloads", "Stars", "Categories"}, rows, 0, 2, 3, 4))
}
