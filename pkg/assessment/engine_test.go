package assessment_test

import (
	"context"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/skillsetz/careercraft/pkg/assessment"
	"github.com/skillsetz/careercraft/pkg/storage"
)

const candidate = "cand-1"

func seedBank(ctx context.Context, store *storage.MemoryStore, skill string, level, n int) {
	for i := 0; i < n; i++ {
		_, err := store.PutQuestion(ctx, &assessment.Question{
			Skill:         skill,
			Level:         level,
			Type:          assessment.MultipleChoice,
			Text:          fmt.Sprintf("%s level %d question %d", skill, level, i+1),
			Choices:       []string{"Correct", "Wrong"},
			CorrectAnswer: "Correct",
			Points:        10,
			Active:        true,
		})
		Expect(err).NotTo(HaveOccurred())
	}
}

// answersFor answers the first n questions correctly and the rest
// wrong. Each question is worth 10 points, so n of 20 sets the score
// to n*5 percent.
func answersFor(qs []*assessment.Question, n int) map[int64]string {
	out := make(map[int64]string, len(qs))
	for i, q := range qs {
		if i < n {
			out[q.ID] = q.CorrectAnswer
		} else {
			out[q.ID] = "wrong answer"
		}
	}
	return out
}

func passLevel(ctx context.Context, e *assessment.Engine, skill string, level int) *assessment.Result {
	a, qs, err := e.Start(ctx, candidate, skill, level)
	Expect(err).NotTo(HaveOccurred())
	res, err := e.Submit(ctx, a.ID, answersFor(qs, 14))
	Expect(err).NotTo(HaveOccurred())
	Expect(res.Passed).To(BeTrue())
	return res
}

var _ = Describe("Engine", func() {
	var (
		ctx    context.Context
		store  *storage.MemoryStore
		engine *assessment.Engine
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = storage.NewMemoryStore()
		engine = assessment.NewEngine(store, zap.NewNop())
	})

	Describe("Start", func() {
		It("selects the configured number of active questions", func() {
			seedBank(ctx, store, "Go", 1, 25)
			inactive, err := store.PutQuestion(ctx, &assessment.Question{
				Skill: "Go", Level: 1, Type: assessment.TrueFalse,
				Text: "Retired question", CorrectAnswer: "true", Points: 10,
			})
			Expect(err).NotTo(HaveOccurred())

			a, qs, err := engine.Start(ctx, candidate, "Go", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(qs).To(HaveLen(assessment.QuestionsPerLevel))
			Expect(a.Status).To(Equal(assessment.StatusInProgress))
			Expect(a.TotalQuestions).To(Equal(assessment.QuestionsPerLevel))
			Expect(a.TotalPoints).To(Equal(200))
			Expect(a.Attempt).To(Equal(1))
			Expect(a.QuestionIDs).To(HaveLen(assessment.QuestionsPerLevel))
			Expect(a.QuestionIDs).NotTo(ContainElement(inactive))
			Expect(a.ExpiresAt.Sub(a.StartedAt)).To(Equal(2 * time.Hour))
		})

		It("rejects an empty skill", func() {
			_, _, err := engine.Start(ctx, candidate, "  ", 1)
			Expect(err).To(MatchError("skill is required"))
		})

		It("rejects an out-of-range level", func() {
			_, _, err := engine.Start(ctx, candidate, "Go", 6)
			Expect(err).To(MatchError("level must be between 1 and 5"))
		})

		It("requires the previous level to be passed", func() {
			seedBank(ctx, store, "Go", 2, 20)

			_, _, err := engine.Start(ctx, candidate, "Go", 2)
			Expect(err).To(MatchError("you must pass level 1 before attempting level 2"))
		})

		It("blocks while an attempt for the skill is in progress", func() {
			seedBank(ctx, store, "Go", 1, 20)

			_, _, err := engine.Start(ctx, candidate, "Go", 1)
			Expect(err).NotTo(HaveOccurred())

			_, _, err = engine.Start(ctx, candidate, "Go", 1)
			Expect(err).To(MatchError("an assessment for Go is already in progress"))
		})

		It("expires a stale attempt and opens a fresh one", func() {
			seedBank(ctx, store, "Go", 1, 20)
			now := time.Now().UTC()
			stale := &assessment.Assessment{
				UserID: candidate, Skill: "Go", Level: 1,
				Status:    assessment.StatusInProgress,
				Attempt:   1,
				StartedAt: now.Add(-3 * time.Hour),
				ExpiresAt: now.Add(-time.Hour),
			}
			staleID, err := store.SaveAssessment(ctx, stale)
			Expect(err).NotTo(HaveOccurred())

			a, _, err := engine.Start(ctx, candidate, "Go", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Attempt).To(Equal(2))

			old, err := store.GetAssessment(ctx, staleID)
			Expect(err).NotTo(HaveOccurred())
			Expect(old.Status).To(Equal(assessment.StatusExpired))
		})

		It("fails when the bank is too small", func() {
			seedBank(ctx, store, "Go", 1, 19)

			_, _, err := engine.Start(ctx, candidate, "Go", 1)
			Expect(err).To(MatchError("insufficient questions for Go level 1: need 20, found 19"))
		})

		It("numbers attempts per level", func() {
			seedBank(ctx, store, "Go", 1, 20)

			a, qs, err := engine.Start(ctx, candidate, "Go", 1)
			Expect(err).NotTo(HaveOccurred())
			_, err = engine.Submit(ctx, a.ID, answersFor(qs, 0))
			Expect(err).NotTo(HaveOccurred())

			again, _, err := engine.Start(ctx, candidate, "Go", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Attempt).To(Equal(2))
		})
	})

	Describe("Submit", func() {
		BeforeEach(func() {
			seedBank(ctx, store, "Go", 1, 20)
		})

		It("passes at the threshold, issues a certificate, and verifies the skill", func() {
			a, qs, err := engine.Start(ctx, candidate, "Go", 1)
			Expect(err).NotTo(HaveOccurred())

			res, err := engine.Submit(ctx, a.ID, answersFor(qs, 14))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Passed).To(BeTrue())
			Expect(res.Assessment.Status).To(Equal(assessment.StatusPassed))
			Expect(res.Assessment.Percentage).To(Equal(70.0))
			Expect(res.Assessment.PointsEarned).To(Equal(140))
			Expect(res.Assessment.QuestionsAnswered).To(Equal(20))
			Expect(res.Assessment.CompletedAt.IsZero()).To(BeFalse())

			correct := 0
			for _, r := range res.Reviews {
				if r.Correct {
					correct++
				}
				Expect(r.CorrectAnswer).To(Equal("Correct"))
			}
			Expect(res.Reviews).To(HaveLen(20))
			Expect(correct).To(Equal(14))

			Expect(res.Certificate).NotTo(BeNil())
			Expect(res.Certificate.ID).To(MatchRegexp(`^CC-GO-L1-[0-9A-F]{8}$`))
			Expect(res.Certificate.Score).To(Equal(70.0))
			Expect(res.Certificate.Active).To(BeTrue())

			got, err := engine.Verify(ctx, res.Certificate.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.UserID).To(Equal(candidate))

			profs, err := store.ListProficiencies(ctx, candidate)
			Expect(err).NotTo(HaveOccurred())
			Expect(profs).To(HaveLen(1))
			Expect(profs[0].Skill).To(Equal("Go"))
			Expect(profs[0].Level).To(Equal(assessment.Beginner))
			Expect(profs[0].Verified).To(BeTrue())
			Expect(profs[0].VerifiedBy).To(Equal("CareerCraft Assessment - Level 1"))
		})

		It("fails below the threshold without a certificate", func() {
			a, qs, err := engine.Start(ctx, candidate, "Go", 1)
			Expect(err).NotTo(HaveOccurred())

			res, err := engine.Submit(ctx, a.ID, answersFor(qs, 13))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Passed).To(BeFalse())
			Expect(res.Assessment.Status).To(Equal(assessment.StatusFailed))
			Expect(res.Assessment.Percentage).To(Equal(65.0))
			Expect(res.Certificate).To(BeNil())

			profs, err := store.ListProficiencies(ctx, candidate)
			Expect(err).NotTo(HaveOccurred())
			Expect(profs).To(BeEmpty())
		})

		It("treats unanswered questions as wrong", func() {
			a, qs, err := engine.Start(ctx, candidate, "Go", 1)
			Expect(err).NotTo(HaveOccurred())

			answers := answersFor(qs[:14], 14)
			res, err := engine.Submit(ctx, a.ID, answers)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Passed).To(BeTrue())
			Expect(res.Assessment.QuestionsAnswered).To(Equal(14))
			Expect(res.Assessment.PointsEarned).To(Equal(140))
		})

		It("rejects a second submission", func() {
			a, qs, err := engine.Start(ctx, candidate, "Go", 1)
			Expect(err).NotTo(HaveOccurred())
			_, err = engine.Submit(ctx, a.ID, answersFor(qs, 14))
			Expect(err).NotTo(HaveOccurred())

			_, err = engine.Submit(ctx, a.ID, answersFor(qs, 14))
			Expect(err).To(MatchError("assessment is not in progress"))
		})

		It("expires an overdue attempt unscored", func() {
			now := time.Now().UTC()
			a := &assessment.Assessment{
				UserID: candidate, Skill: "Go", Level: 1,
				Status:    assessment.StatusInProgress,
				StartedAt: now.Add(-3 * time.Hour),
				ExpiresAt: now.Add(-time.Hour),
			}
			id, err := store.SaveAssessment(ctx, a)
			Expect(err).NotTo(HaveOccurred())

			_, err = engine.Submit(ctx, id, nil)
			Expect(err).To(MatchError("assessment has expired"))

			got, err := store.GetAssessment(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(assessment.StatusExpired))
			Expect(got.Percentage).To(BeZero())
		})
	})

	Describe("verified proficiency", func() {
		BeforeEach(func() {
			for level := 1; level <= 3; level++ {
				seedBank(ctx, store, "Go", level, 20)
			}
		})

		It("upgrades as higher levels pass", func() {
			passLevel(ctx, engine, "Go", 1)
			passLevel(ctx, engine, "Go", 2)
			passLevel(ctx, engine, "Go", 3)

			profs, err := store.ListProficiencies(ctx, candidate)
			Expect(err).NotTo(HaveOccurred())
			Expect(profs).To(HaveLen(1))
			Expect(profs[0].Level).To(Equal(assessment.Advanced))
			Expect(profs[0].VerifiedBy).To(Equal("CareerCraft Assessment - Level 3"))
		})

		It("never downgrades but refreshes the verifier", func() {
			passLevel(ctx, engine, "Go", 1)
			passLevel(ctx, engine, "Go", 2)
			passLevel(ctx, engine, "Go", 3)
			passLevel(ctx, engine, "Go", 1)

			profs, err := store.ListProficiencies(ctx, candidate)
			Expect(err).NotTo(HaveOccurred())
			Expect(profs).To(HaveLen(1))
			Expect(profs[0].Level).To(Equal(assessment.Advanced))
			Expect(profs[0].VerifiedBy).To(Equal("CareerCraft Assessment - Level 1"))
		})
	})

	Describe("UnlockedLevels", func() {
		It("opens level 1 for a fresh candidate", func() {
			levels, err := engine.UnlockedLevels(ctx, candidate, "Go")
			Expect(err).NotTo(HaveOccurred())
			Expect(levels).To(Equal([]int{1}))
		})

		It("opens the next level after a pass", func() {
			seedBank(ctx, store, "Go", 1, 20)
			passLevel(ctx, engine, "Go", 1)

			levels, err := engine.UnlockedLevels(ctx, candidate, "Go")
			Expect(err).NotTo(HaveOccurred())
			Expect(levels).To(Equal([]int{1, 2}))
		})
	})

	Describe("Progress", func() {
		It("summarizes attempts, best scores, and certificates", func() {
			seedBank(ctx, store, "Go", 1, 20)
			seedBank(ctx, store, "Go", 2, 20)

			passLevel(ctx, engine, "Go", 1)

			a, qs, err := engine.Start(ctx, candidate, "Go", 2)
			Expect(err).NotTo(HaveOccurred())
			res, err := engine.Submit(ctx, a.ID, answersFor(qs, 10))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Passed).To(BeFalse())

			p, err := engine.Progress(ctx, candidate, "Go")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.HighestPassed).To(Equal(1))
			Expect(p.Unlocked).To(Equal([]int{1, 2}))
			Expect(p.LevelScores).To(HaveKeyWithValue(1, 70.0))
			Expect(p.LevelScores).NotTo(HaveKey(2))
			Expect(p.Certificates).To(Equal(1))
			Expect(p.Attempts).To(Equal(2))
		})
	})

	Describe("Verify", func() {
		It("returns ErrNotFound for an unknown certificate", func() {
			_, err := engine.Verify(ctx, "CC-GO-L1-FFFFFFFF")
			Expect(err).To(BeAssignableToTypeOf(storage.ErrNotFound{}))
		})
	})

	Describe("History", func() {
		It("lists attempts newest first", func() {
			seedBank(ctx, store, "Go", 1, 20)

			a, qs, err := engine.Start(ctx, candidate, "Go", 1)
			Expect(err).NotTo(HaveOccurred())
			_, err = engine.Submit(ctx, a.ID, answersFor(qs, 0))
			Expect(err).NotTo(HaveOccurred())

			b, _, err := engine.Start(ctx, candidate, "Go", 1)
			Expect(err).NotTo(HaveOccurred())

			history, err := engine.History(ctx, candidate, "Go")
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(2))
			Expect(history[0].ID).To(Equal(b.ID))
			Expect(history[1].ID).To(Equal(a.ID))
		})
	})
})
