package reportcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/skillsetz/careercraft/cmd/careercraft/apiclient"
	"github.com/skillsetz/careercraft/pkg/analysis"
	"github.com/skillsetz/careercraft/pkg/logger"
	"github.com/skillsetz/careercraft/pkg/report"
)

const reportLongDesc string = `Render a stored analysis as a terminal report.

Fetches the analysis (and its parsed job, when one was saved) from a
running careercraft server and prints the scored report with every
interview question expanded.

Examples:
  careercraft report 42
  careercraft report 42 --json`

const reportShortDesc string = "Render a stored analysis"

type reportCommander struct {
	serverURL string
	token     string
	jsonOut   bool
}

func NewReportCmd() *cobra.Command {
	cmder := &reportCommander{}

	cmd := &cobra.Command{
		Use:   "report <analysis-id>",
		Short: reportShortDesc,
		Long:  reportLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&cmder.serverURL, "server", "s", "", "careercraft server URL (default: $CAREERCRAFT_SERVER or "+apiclient.DefaultServerURL+")")
	cmd.Flags().StringVar(&cmder.token, "token", "", "Bearer token (default: $CAREERCRAFT_TOKEN)")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print the analysis as JSON instead of a report")

	return cmd
}

func (c *reportCommander) run(ctx context.Context, cmd *cobra.Command, rawID string) error {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid analysis id %q", rawID)
	}

	client := apiclient.New(apiclient.ResolveServer(c.serverURL), apiclient.ResolveToken(c.token))

	var result analysis.Analysis
	if err := client.Get(ctx, fmt.Sprintf("/api/jobs/analyses/%d/", id), &result); err != nil {
		return fmt.Errorf("fetch analysis %d: %w", id, err)
	}

	out := cmd.OutOrStdout()
	if c.jsonOut {
		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(payload))
		return nil
	}

	// The job row may have been deleted since the analysis was saved;
	// the report then renders without its header.
	var job *analysis.ParsedJob
	if result.JobID != 0 {
		job = new(analysis.ParsedJob)
		if err := client.Get(ctx, fmt.Sprintf("/api/jobs/%d/", result.JobID), job); err != nil {
			job = nil
		}
	}

	renderer := report.NewRenderer(report.TermWidth(), logger.NewNop())
	fmt.Fprintln(out, renderer.Render(&result, job))
	return nil
}
