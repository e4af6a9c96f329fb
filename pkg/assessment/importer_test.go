package assessment_test

import (
	"context"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/skillsetz/careercraft/pkg/assessment"
	"github.com/skillsetz/careercraft/pkg/storage"
)

var _ = Describe("ImportQuestions", func() {
	var (
		ctx   context.Context
		store *storage.MemoryStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = storage.NewMemoryStore()
	})

	importBank := func(doc string, clear bool) *assessment.ImportStats {
		stats, err := assessment.ImportQuestions(ctx, store, strings.NewReader(doc), clear, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		return stats
	}

	It("imports fresh records and applies defaults", func() {
		stats := importBank(`[
			{"skill": "Go", "level": 1, "question_type": "multiple_choice",
			 "question_text": "What is a goroutine?",
			 "options": ["A lightweight thread", "A package"],
			 "correct_answer": "A lightweight thread"},
			{"skill": "Go", "level": 2, "question_type": "TRUE_FALSE",
			 "question_text": "Slices share backing arrays.",
			 "correct_answer": "true", "points": 15, "time_limit_seconds": 60, "is_active": false}
		]`, false)

		Expect(stats.Created).To(Equal(2))
		Expect(stats.Skipped).To(BeZero())
		Expect(stats.Invalid).To(BeZero())

		l1, err := store.Questions(ctx, "go", 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(l1).To(HaveLen(1))
		Expect(l1[0].Type).To(Equal(assessment.MultipleChoice))
		Expect(l1[0].Points).To(Equal(10))
		Expect(l1[0].TimeLimit).To(Equal(120))
		Expect(l1[0].Active).To(BeTrue())

		l2, err := store.Questions(ctx, "go", 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(l2).To(HaveLen(1))
		Expect(l2[0].Points).To(Equal(15))
		Expect(l2[0].TimeLimit).To(Equal(60))
		Expect(l2[0].Active).To(BeFalse())
	})

	It("skips duplicates inside the file and against the bank", func() {
		_, err := store.PutQuestion(ctx, &assessment.Question{
			Skill: "Go", Level: 1, Type: assessment.MultipleChoice,
			Text: "Already banked", CorrectAnswer: "yes", Points: 10, Active: true,
		})
		Expect(err).NotTo(HaveOccurred())

		stats := importBank(`[
			{"skill": "go", "level": 1, "question_type": "MULTIPLE_CHOICE",
			 "question_text": "Already banked", "correct_answer": "yes"},
			{"skill": "Go", "level": 1, "question_type": "MULTIPLE_CHOICE",
			 "question_text": "Brand new", "correct_answer": "yes"},
			{"skill": "GO", "level": 1, "question_type": "MULTIPLE_CHOICE",
			 "question_text": "Brand new", "correct_answer": "yes"}
		]`, false)

		Expect(stats.Created).To(Equal(1))
		Expect(stats.Skipped).To(Equal(2))

		qs, err := store.Questions(ctx, "Go", 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(qs).To(HaveLen(2))
	})

	It("counts invalid records without aborting", func() {
		stats := importBank(`[
			{"skill": "Go", "level": 1, "question_type": "MULTIPLE_CHOICE",
			 "question_text": "Valid", "correct_answer": "yes"},
			{"skill": "", "level": 1, "question_type": "MULTIPLE_CHOICE",
			 "question_text": "No skill", "correct_answer": "yes"},
			{"skill": "Go", "level": 9, "question_type": "MULTIPLE_CHOICE",
			 "question_text": "Bad level", "correct_answer": "yes"},
			{"skill": "Go", "level": 1, "question_type": "ESSAY",
			 "question_text": "Bad type", "correct_answer": "yes"},
			{"skill": "Go", "level": 1, "question_type": "MULTIPLE_CHOICE",
			 "question_text": "No answer"}
		]`, false)

		Expect(stats.Created).To(Equal(1))
		Expect(stats.Invalid).To(Equal(4))
	})

	It("accepts legacy level strings", func() {
		stats := importBank(`[
			{"skill": "Go", "level": "LEVEL_3", "question_type": "SCENARIO",
			 "question_text": "Your deploy fails. What first?", "correct_answer": "logs"},
			{"skill": "Go", "level": "2", "question_type": "TRUE_FALSE",
			 "question_text": "Maps are ordered.", "correct_answer": "false"}
		]`, false)

		Expect(stats.Created).To(Equal(2))

		qs, err := store.Questions(ctx, "Go", 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(qs).To(HaveLen(1))
		Expect(qs[0].Type).To(Equal(assessment.Scenario))
	})

	It("clears the named skills first when asked", func() {
		_, err := store.PutQuestion(ctx, &assessment.Question{
			Skill: "Go", Level: 1, Type: assessment.MultipleChoice,
			Text: "Old question", CorrectAnswer: "yes", Points: 10, Active: true,
		})
		Expect(err).NotTo(HaveOccurred())
		_, err = store.PutQuestion(ctx, &assessment.Question{
			Skill: "Docker", Level: 1, Type: assessment.MultipleChoice,
			Text: "Untouched", CorrectAnswer: "yes", Points: 10, Active: true,
		})
		Expect(err).NotTo(HaveOccurred())

		stats := importBank(`[
			{"skill": "go", "level": 1, "question_type": "MULTIPLE_CHOICE",
			 "question_text": "Replacement", "correct_answer": "yes"}
		]`, true)

		Expect(stats.Cleared).To(Equal(1))
		Expect(stats.Created).To(Equal(1))

		qs, err := store.Questions(ctx, "Go", 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(qs).To(HaveLen(1))
		Expect(qs[0].Text).To(Equal("Replacement"))

		docker, err := store.Questions(ctx, "Docker", 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(docker).To(HaveLen(1))
	})

	It("rejects a document that is not a question array", func() {
		_, err := assessment.ImportQuestions(ctx, store, strings.NewReader(`{"skill": "Go"}`), false, zap.NewNop())
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("decode questions"))
	})
})
