package questionscmder

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skillsetz/careercraft/pkg/assessment"
	"github.com/skillsetz/careercraft/pkg/storage"
)

var _ = Describe("Questions Import Command", func() {
	var (
		ctx      context.Context
		tmpDir   string
		dbPath   string
		bankPath string
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		tmpDir, err = os.MkdirTemp("", "careercraft-questions-test-*")
		Expect(err).NotTo(HaveOccurred())
		dbPath = filepath.Join(tmpDir, "careercraft.db")
		bankPath = filepath.Join(tmpDir, "bank.json")
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	writeBank := func(doc string) {
		Expect(os.WriteFile(bankPath, []byte(doc), 0644)).To(Succeed())
	}

	runImport := func(args ...string) (string, error) {
		cmd := NewQuestionsCmd()
		out := new(bytes.Buffer)
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(append([]string{"import"}, args...))
		err := cmd.ExecuteContext(ctx)
		return out.String(), err
	}

	loadQuestions := func(skill string, level int) []*assessment.Question {
		store, err := storage.NewSQLiteStore(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer store.Close()
		questions, err := store.Questions(ctx, skill, level)
		Expect(err).NotTo(HaveOccurred())
		return questions
	}

	It("imports a question bank into the database", func() {
		writeBank(`[
			{
				"skill": "Go",
				"level": 2,
				"question_type": "multiple_choice",
				"question_text": "Which keyword starts a goroutine?",
				"options": ["go", "run", "spawn", "fork"],
				"correct_answer": "go",
				"explanation": "The go statement runs a function concurrently.",
				"points": 15
			},
			{
				"skill": "Go",
				"level": "LEVEL_1",
				"question_type": "TRUE_FALSE",
				"question_text": "Slices are reference types.",
				"correct_answer": "true"
			},
			{
				"skill": "Go",
				"level": 1,
				"question_type": "TRUE_FALSE",
				"question_text": "This one has no answer."
			}
		]`)

		out, err := runImport(bankPath, "--db", dbPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Imported 2 questions (0 skipped, 1 invalid)"))

		level2 := loadQuestions("go", 2)
		Expect(level2).To(HaveLen(1))
		Expect(level2[0].Text).To(Equal("Which keyword starts a goroutine?"))
		Expect(level2[0].Type).To(Equal(assessment.MultipleChoice))
		Expect(level2[0].Choices).To(HaveLen(4))
		Expect(level2[0].Points).To(Equal(15))
		Expect(level2[0].Active).To(BeTrue())

		level1 := loadQuestions("go", 1)
		Expect(level1).To(HaveLen(1))
		Expect(level1[0].Points).To(Equal(10))
	})

	It("skips questions already in the bank", func() {
		writeBank(`[
			{
				"skill": "sql",
				"level": 1,
				"question_type": "TRUE_FALSE",
				"question_text": "SELECT reads rows.",
				"correct_answer": "true"
			}
		]`)

		_, err := runImport(bankPath, "--db", dbPath)
		Expect(err).NotTo(HaveOccurred())

		out, err := runImport(bankPath, "--db", dbPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Imported 0 questions (1 skipped, 0 invalid)"))
		Expect(loadQuestions("sql", 1)).To(HaveLen(1))
	})

	It("replaces the bank for a skill with --clear", func() {
		writeBank(`[
			{
				"skill": "python",
				"level": 1,
				"question_type": "TRUE_FALSE",
				"question_text": "Old question.",
				"correct_answer": "true"
			}
		]`)
		_, err := runImport(bankPath, "--db", dbPath)
		Expect(err).NotTo(HaveOccurred())

		writeBank(`[
			{
				"skill": "python",
				"level": 1,
				"question_type": "TRUE_FALSE",
				"question_text": "New question.",
				"correct_answer": "false"
			}
		]`)
		out, err := runImport(bankPath, "--db", dbPath, "--clear")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Cleared 1 existing questions"))
		Expect(out).To(ContainSubstring("Imported 1 questions"))

		questions := loadQuestions("python", 1)
		Expect(questions).To(HaveLen(1))
		Expect(questions[0].Text).To(Equal("New question."))
	})

	It("fails when the bank file does not exist", func() {
		_, err := runImport(filepath.Join(tmpDir, "missing.json"), "--db", dbPath)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("open bank file"))
	})

	It("fails on a malformed bank file", func() {
		writeBank(`{"not": "an array"`)
		_, err := runImport(bankPath, "--db", dbPath)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("import questions"))
	})
})
