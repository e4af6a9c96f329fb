package storage_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skillsetz/careercraft/pkg/analysis"
	"github.com/skillsetz/careercraft/pkg/assessment"
	"github.com/skillsetz/careercraft/pkg/storage"
)

func sampleAnalysis() *analysis.Analysis {
	return &analysis.Analysis{
		EligibilityLevel:   analysis.EligibilityGood,
		Metrics:            analysis.Metrics{MatchScore: 72, SkillsMatchScore: 70},
		Summary:            "Solid fit with some gaps.",
		Strengths:          []string{"Go depth"},
		Gaps:               []string{"Kafka"},
		Recommendations:    []string{"Ship a Kafka project"},
		MatchingSkills:     []string{"go", "postgres"},
		MissingSkills:      []string{"kafka"},
		ConfidenceLevel:    analysis.ConfidenceMedium,
		InterviewQuestions: json.RawMessage(`[{"question":"Why Go?"}]`),
		Provider:           "keyword",
		Model:              "keyword",
	}
}

func sampleJob(title string, skills ...string) *analysis.ParsedJob {
	return &analysis.ParsedJob{
		Title:          title,
		Company:        "Acme",
		Description:    "Do the work.",
		RequiredSkills: skills,
	}
}

func sampleQuestion(skill string, level int) *assessment.Question {
	return &assessment.Question{
		Skill:         skill,
		Level:         level,
		Type:          assessment.MultipleChoice,
		Text:          "What does the blank identifier do?",
		Choices:       []string{"Discards a value", "Declares a constant", "Imports for side effects", "Panics"},
		CorrectAnswer: "Discards a value",
		Points:        10,
		TimeLimit:     120,
		Active:        true,
	}
}

func sampleAttempt(userID, skill string, level int) *assessment.Assessment {
	now := time.Now().UTC()
	return &assessment.Assessment{
		UserID:         userID,
		Skill:          skill,
		Level:          level,
		Status:         assessment.StatusInProgress,
		QuestionIDs:    []int64{1, 2, 3},
		TotalQuestions: 3,
		TotalPoints:    30,
		Attempt:        1,
		StartedAt:      now,
		ExpiresAt:      now.Add(2 * time.Hour),
	}
}

// behavesLikeAStore is the conformance suite both backends run.
func behavesLikeAStore(factory func() storage.Store) {
	var (
		store storage.Store
		ctx   context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = factory()
	})

	AfterEach(func() {
		if store != nil {
			store.Close()
		}
	})

	Describe("PutAnalysis and GetAnalysis", func() {
		It("stores and retrieves an analysis", func() {
			a := sampleAnalysis()

			id, err := store.PutAnalysis(ctx, a)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(BeNumerically(">", 0))
			Expect(a.ID).To(Equal(id))

			got, err := store.GetAnalysis(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(id))
			Expect(got.Summary).To(Equal("Solid fit with some gaps."))
			Expect(got.MatchScore).To(Equal(72))
			Expect(got.MatchingSkills).To(Equal([]string{"go", "postgres"}))
			Expect(got.InterviewQuestions).To(MatchJSON(`[{"question":"Why Go?"}]`))
			Expect(got.CreatedAt.IsZero()).To(BeFalse())
		})

		It("assigns increasing ids", func() {
			first, err := store.PutAnalysis(ctx, sampleAnalysis())
			Expect(err).NotTo(HaveOccurred())
			second, err := store.PutAnalysis(ctx, sampleAnalysis())
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(BeNumerically(">", first))
		})

		It("returns ErrNotFound for a missing analysis", func() {
			_, err := store.GetAnalysis(ctx, 999)
			Expect(err).To(BeAssignableToTypeOf(storage.ErrNotFound{}))
		})
	})

	Describe("ListAnalyses", func() {
		It("returns newest first and honors the limit", func() {
			_, err := store.PutAnalysis(ctx, sampleAnalysis())
			Expect(err).NotTo(HaveOccurred())
			second, err := store.PutAnalysis(ctx, sampleAnalysis())
			Expect(err).NotTo(HaveOccurred())
			third, err := store.PutAnalysis(ctx, sampleAnalysis())
			Expect(err).NotTo(HaveOccurred())

			out, err := store.ListAnalyses(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HaveLen(2))
			Expect(out[0].ID).To(Equal(third))
			Expect(out[1].ID).To(Equal(second))
		})
	})

	Describe("DeleteAnalysis", func() {
		It("removes the analysis and its transcript", func() {
			id, err := store.PutAnalysis(ctx, sampleAnalysis())
			Expect(err).NotTo(HaveOccurred())
			Expect(store.AppendMessage(ctx, id, storage.ChatMessage{Role: "user", Content: "hi"})).To(Succeed())

			Expect(store.DeleteAnalysis(ctx, id)).To(Succeed())

			_, err = store.GetAnalysis(ctx, id)
			Expect(err).To(BeAssignableToTypeOf(storage.ErrNotFound{}))
			_, err = store.Messages(ctx, id)
			Expect(err).To(BeAssignableToTypeOf(storage.ErrNotFound{}))
		})

		It("returns ErrNotFound for a missing analysis", func() {
			err := store.DeleteAnalysis(ctx, 999)
			Expect(err).To(BeAssignableToTypeOf(storage.ErrNotFound{}))
		})
	})

	Describe("Jobs", func() {
		It("stores and retrieves a job", func() {
			j := sampleJob("Backend Engineer", "go", "postgres")

			id, err := store.PutJob(ctx, j)
			Expect(err).NotTo(HaveOccurred())
			Expect(j.ID).To(Equal(id))

			got, err := store.GetJob(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Title).To(Equal("Backend Engineer"))
			Expect(got.RequiredSkills).To(Equal([]string{"go", "postgres"}))
		})

		It("lists newest first", func() {
			_, err := store.PutJob(ctx, sampleJob("First"))
			Expect(err).NotTo(HaveOccurred())
			second, err := store.PutJob(ctx, sampleJob("Second"))
			Expect(err).NotTo(HaveOccurred())

			out, err := store.ListJobs(ctx, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HaveLen(2))
			Expect(out[0].ID).To(Equal(second))
		})

		It("returns ErrNotFound for a missing job", func() {
			_, err := store.GetJob(ctx, 999)
			Expect(err).To(BeAssignableToTypeOf(storage.ErrNotFound{}))
		})

		It("deletes a job along with its similarity vector", func() {
			id, err := store.PutJob(ctx, sampleJob("Backend Engineer", "go"))
			Expect(err).NotTo(HaveOccurred())
			other, err := store.PutJob(ctx, sampleJob("Platform Engineer", "go"))
			Expect(err).NotTo(HaveOccurred())

			Expect(store.DeleteJob(ctx, id)).To(Succeed())

			_, err = store.GetJob(ctx, id)
			Expect(err).To(BeAssignableToTypeOf(storage.ErrNotFound{}))
			_, err = store.SimilarJobs(ctx, id, 5)
			Expect(err).To(BeAssignableToTypeOf(storage.ErrNotFound{}))

			similar, err := store.SimilarJobs(ctx, other, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(similar).To(BeEmpty())
		})

		It("returns ErrNotFound deleting a missing job", func() {
			err := store.DeleteJob(ctx, 999)
			Expect(err).To(BeAssignableToTypeOf(storage.ErrNotFound{}))
		})
	})

	Describe("SimilarJobs", func() {
		It("ranks lexically similar jobs first and excludes the query job", func() {
			backend, err := store.PutJob(ctx, sampleJob("Backend Engineer", "go", "kubernetes", "postgres"))
			Expect(err).NotTo(HaveOccurred())
			platform, err := store.PutJob(ctx, sampleJob("Platform Engineer", "go", "kubernetes", "terraform"))
			Expect(err).NotTo(HaveOccurred())
			chef, err := store.PutJob(ctx, sampleJob("Pastry Chef", "baking", "lamination", "plating"))
			Expect(err).NotTo(HaveOccurred())

			similar, err := store.SimilarJobs(ctx, backend, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(similar).To(HaveLen(2))
			Expect(similar[0].ID).To(Equal(platform))
			Expect(similar[1].ID).To(Equal(chef))

			for _, j := range similar {
				Expect(j.ID).NotTo(Equal(backend))
			}
		})

		It("returns ErrNotFound for a missing job", func() {
			_, err := store.SimilarJobs(ctx, 999, 5)
			Expect(err).To(BeAssignableToTypeOf(storage.ErrNotFound{}))
		})
	})

	Describe("Chat transcript", func() {
		It("appends and lists messages in order", func() {
			id, err := store.PutAnalysis(ctx, sampleAnalysis())
			Expect(err).NotTo(HaveOccurred())

			Expect(store.AppendMessage(ctx, id, storage.ChatMessage{Role: "user", Content: "Am I ready?"})).To(Succeed())
			Expect(store.AppendMessage(ctx, id, storage.ChatMessage{Role: "assistant", Content: "Close the Kafka gap first."})).To(Succeed())

			msgs, err := store.Messages(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(2))
			Expect(msgs[0].Role).To(Equal("user"))
			Expect(msgs[0].Content).To(Equal("Am I ready?"))
			Expect(msgs[1].Role).To(Equal("assistant"))
			Expect(msgs[0].CreatedAt.IsZero()).To(BeFalse())
		})

		It("rejects messages for a missing analysis", func() {
			err := store.AppendMessage(ctx, 999, storage.ChatMessage{Role: "user", Content: "hello?"})
			Expect(err).To(BeAssignableToTypeOf(storage.ErrNotFound{}))
		})
	})

	Describe("Question bank", func() {
		It("stores and lists questions per skill and level, case-insensitively", func() {
			first, err := store.PutQuestion(ctx, sampleQuestion("Go", 1))
			Expect(err).NotTo(HaveOccurred())
			second, err := store.PutQuestion(ctx, sampleQuestion("go", 1))
			Expect(err).NotTo(HaveOccurred())
			_, err = store.PutQuestion(ctx, sampleQuestion("Go", 2))
			Expect(err).NotTo(HaveOccurred())
			_, err = store.PutQuestion(ctx, sampleQuestion("Docker", 1))
			Expect(err).NotTo(HaveOccurred())

			qs, err := store.Questions(ctx, "GO", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(qs).To(HaveLen(2))
			Expect(qs[0].ID).To(Equal(first))
			Expect(qs[1].ID).To(Equal(second))
			Expect(qs[0].Choices).To(HaveLen(4))
			Expect(qs[0].CorrectAnswer).To(Equal("Discards a value"))
			Expect(qs[0].CreatedAt.IsZero()).To(BeFalse())
		})

		It("clears every level of a skill and reports the count", func() {
			_, err := store.PutQuestion(ctx, sampleQuestion("Go", 1))
			Expect(err).NotTo(HaveOccurred())
			_, err = store.PutQuestion(ctx, sampleQuestion("Go", 2))
			Expect(err).NotTo(HaveOccurred())
			_, err = store.PutQuestion(ctx, sampleQuestion("Docker", 1))
			Expect(err).NotTo(HaveOccurred())

			n, err := store.ClearQuestions(ctx, "go")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(2))

			qs, err := store.Questions(ctx, "Go", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(qs).To(BeEmpty())

			qs, err = store.Questions(ctx, "Docker", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(qs).To(HaveLen(1))
		})
	})

	Describe("Assessments", func() {
		It("inserts, updates, and retrieves an attempt", func() {
			att := sampleAttempt("u1", "Go", 1)

			id, err := store.SaveAssessment(ctx, att)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(BeNumerically(">", 0))
			Expect(att.ID).To(Equal(id))

			att.Status = assessment.StatusPassed
			att.QuestionsAnswered = 3
			att.PointsEarned = 25
			att.Percentage = 83.33
			again, err := store.SaveAssessment(ctx, att)
			Expect(err).NotTo(HaveOccurred())
			Expect(again).To(Equal(id))

			got, err := store.GetAssessment(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(assessment.StatusPassed))
			Expect(got.Percentage).To(Equal(83.33))
			Expect(got.QuestionIDs).To(Equal([]int64{1, 2, 3}))
		})

		It("returns ErrNotFound updating an unknown attempt", func() {
			att := sampleAttempt("u1", "Go", 1)
			att.ID = 999

			_, err := store.SaveAssessment(ctx, att)
			Expect(err).To(BeAssignableToTypeOf(storage.ErrNotFound{}))
		})

		It("lists a user's attempts newest first with an optional skill filter", func() {
			_, err := store.SaveAssessment(ctx, sampleAttempt("u1", "Go", 1))
			Expect(err).NotTo(HaveOccurred())
			_, err = store.SaveAssessment(ctx, sampleAttempt("u1", "Docker", 1))
			Expect(err).NotTo(HaveOccurred())
			third, err := store.SaveAssessment(ctx, sampleAttempt("u1", "Go", 2))
			Expect(err).NotTo(HaveOccurred())
			_, err = store.SaveAssessment(ctx, sampleAttempt("u2", "Go", 1))
			Expect(err).NotTo(HaveOccurred())

			all, err := store.ListAssessments(ctx, "u1", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(3))
			Expect(all[0].ID).To(Equal(third))

			goOnly, err := store.ListAssessments(ctx, "u1", "GO")
			Expect(err).NotTo(HaveOccurred())
			Expect(goOnly).To(HaveLen(2))
			for _, a := range goOnly {
				Expect(a.Skill).To(Equal("Go"))
			}
		})

		It("returns ErrNotFound for a missing attempt", func() {
			_, err := store.GetAssessment(ctx, 999)
			Expect(err).To(BeAssignableToTypeOf(storage.ErrNotFound{}))
		})
	})

	Describe("Proficiencies", func() {
		It("keeps one record per user and skill, last write wins", func() {
			Expect(store.UpsertProficiency(ctx, &assessment.Proficiency{
				UserID: "u1", Skill: "Go", Level: assessment.Beginner,
				Verified: true, VerifiedBy: assessment.VerifiedBy(1),
			})).To(Succeed())
			Expect(store.UpsertProficiency(ctx, &assessment.Proficiency{
				UserID: "u1", Skill: "go", Level: assessment.Advanced,
				Verified: true, VerifiedBy: assessment.VerifiedBy(3),
			})).To(Succeed())

			out, err := store.ListProficiencies(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HaveLen(1))
			Expect(out[0].Level).To(Equal(assessment.Advanced))
			Expect(out[0].VerifiedBy).To(Equal("CareerCraft Assessment - Level 3"))
			Expect(out[0].UpdatedAt.IsZero()).To(BeFalse())
		})

		It("orders a user's proficiencies by skill", func() {
			for _, skill := range []string{"Kubernetes", "go", "Docker"} {
				Expect(store.UpsertProficiency(ctx, &assessment.Proficiency{
					UserID: "u1", Skill: skill, Level: assessment.Beginner, Verified: true,
				})).To(Succeed())
			}
			Expect(store.UpsertProficiency(ctx, &assessment.Proficiency{
				UserID: "u2", Skill: "Rust", Level: assessment.Beginner, Verified: true,
			})).To(Succeed())

			out, err := store.ListProficiencies(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HaveLen(3))
			Expect(out[0].Skill).To(Equal("Docker"))
			Expect(out[1].Skill).To(Equal("go"))
			Expect(out[2].Skill).To(Equal("Kubernetes"))
		})
	})

	Describe("Certificates", func() {
		It("stores and retrieves a certificate by its public id", func() {
			cert := &assessment.Certificate{
				ID:     "CC-GO-L2-DEADBEEF",
				UserID: "u1",
				Skill:  "Go",
				Level:  2,
				Score:  86.67,
				Active: true,
			}
			Expect(store.SaveCertificate(ctx, cert)).To(Succeed())

			got, err := store.GetCertificate(ctx, "CC-GO-L2-DEADBEEF")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Skill).To(Equal("Go"))
			Expect(got.Level).To(Equal(2))
			Expect(got.Score).To(Equal(86.67))
			Expect(got.IssuedAt.IsZero()).To(BeFalse())
		})

		It("lists a user's certificates", func() {
			Expect(store.SaveCertificate(ctx, &assessment.Certificate{
				ID: "CC-GO-L1-00000001", UserID: "u1", Skill: "Go", Level: 1, Active: true,
			})).To(Succeed())
			Expect(store.SaveCertificate(ctx, &assessment.Certificate{
				ID: "CC-DOC-L1-00000002", UserID: "u1", Skill: "Docker", Level: 1, Active: true,
			})).To(Succeed())
			Expect(store.SaveCertificate(ctx, &assessment.Certificate{
				ID: "CC-RUS-L1-00000003", UserID: "u2", Skill: "Rust", Level: 1, Active: true,
			})).To(Succeed())

			out, err := store.ListCertificates(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HaveLen(2))
			for _, c := range out {
				Expect(c.UserID).To(Equal("u1"))
			}
		})

		It("returns ErrNotFound for a missing certificate", func() {
			_, err := store.GetCertificate(ctx, "CC-XX-L9-FFFFFFFF")
			Expect(err).To(BeAssignableToTypeOf(storage.ErrNotFound{}))
		})
	})
}

var _ = Describe("MemoryStore", func() {
	behavesLikeAStore(func() storage.Store {
		return storage.NewMemoryStore()
	})
})

var _ = Describe("SQLiteStore", func() {
	behavesLikeAStore(func() storage.Store {
		s, err := storage.NewSQLiteStore(":memory:")
		Expect(err).NotTo(HaveOccurred())
		return s
	})

	It("creates a database file on disk", func() {
		tmpDir := GinkgoT().TempDir()
		dbPath := filepath.Join(tmpDir, "careercraft.db")

		s, err := storage.NewSQLiteStore(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()

		_, err = os.Stat(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})
})
