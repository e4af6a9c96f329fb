package questionscmder

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillsetz/careercraft/pkg/assessment"
	"github.com/skillsetz/careercraft/pkg/logger"
	"github.com/skillsetz/careercraft/pkg/storage"
)

const importLongDesc string = `Import assessment questions from a JSON bank file.

The file is an array of question records (skill, level, type, text,
options, correct answer, explanation, points). Questions already in
the bank are matched by skill, level, and text and skipped. --clear
first empties the bank for the skills named in the file.

The import writes straight to the server's SQLite database, so run it
against the same --db path the server uses.

Examples:
  careercraft questions import bank.json --db careercraft.db
  careercraft questions import bank.json --db careercraft.db --clear`

const importShortDesc string = "Import questions from a JSON bank file"

type importCommander struct {
	dbPath string
	clear  bool
}

func NewQuestionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "Manage the assessment question bank",
	}
	cmd.AddCommand(newImportCmd())
	return cmd
}

func newImportCmd() *cobra.Command {
	cmder := &importCommander{}

	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: importShortDesc,
		Long:  importLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&cmder.dbPath, "db", "careercraft.db", "Path to the server's SQLite database")
	cmd.Flags().BoolVar(&cmder.clear, "clear", false, "Clear existing questions for the skills in the file first")

	return cmd
}

func (c *importCommander) run(ctx context.Context, cmd *cobra.Command, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open bank file: %w", err)
	}
	defer f.Close()

	store, err := storage.NewSQLiteStore(c.dbPath)
	if err != nil {
		return fmt.Errorf("open database %s: %w", c.dbPath, err)
	}
	defer store.Close()

	stats, err := assessment.ImportQuestions(ctx, store, f, c.clear, logger.NewNop())
	if err != nil {
		return fmt.Errorf("import questions: %w", err)
	}

	out := cmd.OutOrStdout()
	if stats.Cleared > 0 {
		fmt.Fprintf(out, "Cleared %d existing questions\n", stats.Cleared)
	}
	fmt.Fprintf(out, "Imported %d questions (%d skipped, %d invalid) into %s\n",
		stats.Created, stats.Skipped, stats.Invalid, c.dbPath)
	return nil
}
