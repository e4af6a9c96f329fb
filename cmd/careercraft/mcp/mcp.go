package mcpcmder

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/skillsetz/careercraft/pkg/analyzer"
	"github.com/skillsetz/careercraft/pkg/logger"
	"github.com/skillsetz/careercraft/pkg/profile"
	"github.com/skillsetz/careercraft/pkg/provider"
	"github.com/skillsetz/careercraft/pkg/storage"
	"github.com/skillsetz/careercraft/pkg/stream"
)

const mcpLongDesc string = `Run a Model Context Protocol server on stdio.

Exposes two tools backed by a local analyzer:
  analyze_job_fit        score a job description against a profile
  parse_job_description  extract structured fields from a posting

By default the offline keyword scorer runs, so no credentials are
needed. Select --provider openai or gemini to score with a model, and
--profile to analyze against a candidate profile.

Examples:
  careercraft mcp
  careercraft mcp --profile profile.yaml
  careercraft mcp --provider openai --api-key $OPENAI_API_KEY`

const mcpShortDesc string = "Serve analysis tools over MCP stdio"

const serverVersion = "1.0.0"

type mcpCommander struct {
	providerName string
	model        string
	apiKey       string
	baseURL      string
	profilePath  string
	debug        bool
}

func NewMCPCmd() *cobra.Command {
	cmder := &mcpCommander{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: mcpShortDesc,
		Long:  mcpLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cmder.providerName, "provider", "", "Model backend: openai, gemini, or keyword (default: keyword)")
	cmd.Flags().StringVar(&cmder.model, "model", "", "Override the provider's default model")
	cmd.Flags().StringVar(&cmder.apiKey, "api-key", "", "Provider API key")
	cmd.Flags().StringVar(&cmder.baseURL, "base-url", "", "Override the OpenAI-compatible endpoint")
	cmd.Flags().StringVar(&cmder.profilePath, "profile", "", "Path to candidate profile YAML")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Log to stderr (stdout carries the protocol)")

	return cmd
}

type analyzeArgs struct {
	JobDescription    string `json:"job_description" jsonschema:"the full job posting text to analyze"`
	AdditionalContext string `json:"additional_context,omitempty" jsonschema:"extra context about the candidate"`
}

type parseArgs struct {
	JobDescription string `json:"job_description" jsonschema:"the job posting text to parse"`
}

func (c *mcpCommander) run(ctx context.Context) error {
	log := logger.NewNop()
	if c.debug {
		log = logger.NewStderrLogger(true)
	}

	prov, err := provider.New(ctx, provider.Config{
		Provider: c.providerName,
		Model:    c.model,
		APIKey:   c.apiKey,
		BaseURL:  c.baseURL,
	}, log)
	if err != nil {
		return fmt.Errorf("create provider: %w", err)
	}

	profiles := analyzer.StaticProfile{}
	if c.profilePath != "" {
		prof, err := profile.Load(c.profilePath)
		if err != nil {
			return err
		}
		profiles.Profile = prof
	}

	// Analyses land in an in-memory store; MCP clients get the full
	// document back per call rather than an ID to fetch later.
	store := storage.NewMemoryStore()
	defer store.Close()

	engine := analyzer.New(prov, store, profiles, log)

	server := mcp.NewServer(&mcp.Implementation{Name: "careercraft", Version: serverVersion}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_job_fit",
		Description: "Analyze how well the configured candidate profile fits a job description. Returns match scores, strengths, improvement areas, and interview questions as JSON.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args analyzeArgs) (*mcp.CallToolResult, any, error) {
		sreq := stream.NewRequest(args.JobDescription)
		sreq.AdditionalContext = args.AdditionalContext
		sreq.SaveJob = false

		var analysisID int64
		emit := func(ev stream.Event) error {
			if ev.Type == stream.EventComplete {
				analysisID = ev.AnalysisID
			}
			return nil
		}
		if err := engine.StreamAnalyze(ctx, sreq, emit); err != nil {
			return nil, nil, err
		}

		result, err := store.GetAnalysis(ctx, analysisID)
		if err != nil {
			return nil, nil, err
		}
		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, nil, err
		}
		return textResult(string(payload)), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "parse_job_description",
		Description: "Extract structured fields (title, company, required skills, experience level) from a job posting.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args parseArgs) (*mcp.CallToolResult, any, error) {
		job, err := engine.ParseJob(ctx, args.JobDescription)
		if err != nil {
			return nil, nil, err
		}
		payload, err := json.MarshalIndent(job, "", "  ")
		if err != nil {
			return nil, nil, err
		}
		return textResult(string(payload)), nil, nil
	})

	log.Info("mcp server listening on stdio")
	return server.Run(ctx, &mcp.StdioTransport{})
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
