// Command careercraft is the CLI for the CareerCraft system: streamed
// job-fit analysis, stored reports, question bank management,
// certificate verification, and an MCP tool server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	analyzecmder "github.com/skillsetz/careercraft/cmd/careercraft/analyze"
	mcpcmder "github.com/skillsetz/careercraft/cmd/careercraft/mcp"
	questionscmder "github.com/skillsetz/careercraft/cmd/careercraft/questions"
	reportcmder "github.com/skillsetz/careercraft/cmd/careercraft/report"
	verifycmder "github.com/skillsetz/careercraft/cmd/careercraft/verify"
)

const rootLongDesc string = `careercraft analyzes your fit for job descriptions.

Most commands talk to a running careercraft server (careercraftd);
set the server with --server or $CAREERCRAFT_SERVER and the bearer
token with --token or $CAREERCRAFT_TOKEN.`

func main() {
	root := &cobra.Command{
		Use:          "careercraft",
		Short:        "Analyze job fit, render reports, and verify skill certificates",
		Long:         rootLongDesc,
		SilenceUsage: true,
	}

	root.AddCommand(
		analyzecmder.NewAnalyzeCmd(),
		reportcmder.NewReportCmd(),
		questionscmder.NewQuestionsCmd(),
		verifycmder.NewVerifyCmd(),
		mcpcmder.NewMCPCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
