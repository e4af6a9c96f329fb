package analyzecmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/skillsetz/careercraft/cmd/careercraft/apiclient"
	"github.com/skillsetz/careercraft/pkg/analysis"
	"github.com/skillsetz/careercraft/pkg/logger"
	"github.com/skillsetz/careercraft/pkg/report"
	"github.com/skillsetz/careercraft/pkg/stream"
	"github.com/skillsetz/careercraft/pkg/ui/live"
)

const analyzeLongDesc string = `Analyze how well your profile fits a job description.

The job description can be passed as an argument, read from a file
with --file, or piped on stdin. The command streams the analysis from
a running careercraft server; on a terminal it shows live progress
while metrics arrive, then prints the full report.

Examples:
  careercraft analyze "Senior Go engineer. Kubernetes, gRPC, Postgres..."
  careercraft analyze --file posting.txt --context "open to relocation"
  pbpaste | careercraft analyze --no-save --json`

const analyzeShortDesc string = "Analyze your fit for a job description"

type analyzeCommander struct {
	file      string
	context   string
	serverURL string
	token     string
	noSave    bool
	jsonOut   bool
}

func NewAnalyzeCmd() *cobra.Command {
	cmder := &analyzeCommander{}

	cmd := &cobra.Command{
		Use:   "analyze [job-description]",
		Short: analyzeShortDesc,
		Long:  analyzeLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	cmd.Flags().StringVarP(&cmder.file, "file", "f", "", "Read the job description from a file")
	cmd.Flags().StringVar(&cmder.context, "context", "", "Additional context to weigh in the analysis")
	cmd.Flags().StringVarP(&cmder.serverURL, "server", "s", "", "careercraft server URL (default: $CAREERCRAFT_SERVER or "+apiclient.DefaultServerURL+")")
	cmd.Flags().StringVar(&cmder.token, "token", "", "Bearer token (default: $CAREERCRAFT_TOKEN)")
	cmd.Flags().BoolVar(&cmder.noSave, "no-save", false, "Do not save the parsed job on the server")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print the stored analysis as JSON instead of a report")

	return cmd
}

func (c *analyzeCommander) run(ctx context.Context, cmd *cobra.Command, args []string) error {
	description, err := c.readDescription(cmd, args)
	if err != nil {
		return err
	}

	serverURL := apiclient.ResolveServer(c.serverURL)
	token := apiclient.ResolveToken(c.token)

	req := stream.NewRequest(description)
	req.AdditionalContext = c.context
	req.SaveJob = !c.noSave

	interactive := !c.jsonOut && term.IsTerminal(int(os.Stdout.Fd()))

	var state stream.State
	var outcome stream.Outcome
	if interactive {
		state, outcome, err = c.runLive(ctx, serverURL, token, req)
	} else {
		state, outcome, err = c.runPlain(ctx, cmd, serverURL, token, req)
	}
	if err != nil {
		return err
	}
	if outcome == stream.OutcomeCancelled {
		fmt.Fprintln(cmd.OutOrStdout(), "Analysis cancelled.")
		return nil
	}

	return c.printResult(ctx, cmd, serverURL, token, state)
}

// runLive streams with the full-screen progress UI and hands back the
// terminal state once the session and the UI have both finished.
func (c *analyzeCommander) runLive(ctx context.Context, serverURL, token string, req stream.Request) (stream.State, stream.Outcome, error) {
	controller := live.Start(os.Stdout, live.Options{})

	client := stream.NewClient(stream.Config{
		BaseURL:  serverURL,
		Token:    token,
		OnUpdate: controller.OnUpdate,
	}, logger.NewNop())

	session := client.Start(ctx, req)
	controller.BindCancel(session.Cancel)

	outcome := session.Wait()
	controller.Close()
	controller.Wait()

	state := session.State()
	if outcome == stream.OutcomeFailed {
		return state, outcome, fmt.Errorf("analysis failed: %s", state.Error)
	}
	return state, outcome, nil
}

// runPlain streams without a TUI, printing one line per status change.
func (c *analyzeCommander) runPlain(ctx context.Context, cmd *cobra.Command, serverURL, token string, req stream.Request) (stream.State, stream.Outcome, error) {
	out := cmd.OutOrStdout()

	var lastStep string
	client := stream.NewClient(stream.Config{
		BaseURL: serverURL,
		Token:   token,
		OnUpdate: func(state stream.State) {
			if state.Status == nil || state.Status.Step == lastStep {
				return
			}
			lastStep = state.Status.Step
			fmt.Fprintf(out, "[%3d%%] %s\n", state.Progress, state.Status.Message)
		},
	}, logger.NewNop())

	session := client.Start(ctx, req)
	outcome := session.Wait()

	state := session.State()
	if outcome == stream.OutcomeFailed {
		return state, outcome, fmt.Errorf("analysis failed: %s", state.Error)
	}
	return state, outcome, nil
}

// printResult fetches the stored analysis and renders it.
func (c *analyzeCommander) printResult(ctx context.Context, cmd *cobra.Command, serverURL, token string, state stream.State) error {
	out := cmd.OutOrStdout()
	if state.AnalysisID == 0 {
		fmt.Fprintln(out, "No analysis was produced.")
		return nil
	}

	client := apiclient.New(serverURL, token)
	var result analysis.Analysis
	if err := client.Get(ctx, fmt.Sprintf("/api/jobs/analyses/%d/", state.AnalysisID), &result); err != nil {
		return fmt.Errorf("fetch analysis %d: %w", state.AnalysisID, err)
	}

	if c.jsonOut {
		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(payload))
		return nil
	}

	// The parsed job arrived on the stream's final event; a decode
	// failure just drops the job header from the report.
	var job *analysis.ParsedJob
	if len(state.ParsedJob) > 0 {
		job = new(analysis.ParsedJob)
		if err := json.Unmarshal(state.ParsedJob, job); err != nil {
			job = nil
		}
	}

	renderer := report.NewRenderer(report.TermWidth(), logger.NewNop())
	fmt.Fprintln(out, renderer.Render(&result, job))
	return nil
}

// readDescription resolves the job description from the file flag, the
// positional argument, or piped stdin, in that order.
func (c *analyzeCommander) readDescription(cmd *cobra.Command, args []string) (string, error) {
	if c.file != "" {
		data, err := os.ReadFile(c.file)
		if err != nil {
			return "", fmt.Errorf("read job description: %w", err)
		}
		return string(data), nil
	}

	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}

	in := cmd.InOrStdin()
	if hasPipedInput(in) {
		data, err := io.ReadAll(in)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		if strings.TrimSpace(string(data)) != "" {
			return string(data), nil
		}
	}

	return "", errors.New("no job description given (pass it as an argument, via --file, or on stdin)")
}

// hasPipedInput reports whether in carries piped data. Non-file
// readers (tests swap in buffers) always count as piped.
func hasPipedInput(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return true
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice == 0
}
