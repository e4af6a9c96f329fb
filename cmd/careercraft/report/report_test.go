package reportcmder

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const analysisDoc = `{
	"id": 7,
	"job_id": 3,
	"eligibility_level": "ELIGIBLE",
	"match_score": 82,
	"skills_match_score": 85,
	"experience_match_score": 74,
	"analysis_summary": "Strong backend match with a container orchestration gap.",
	"strengths": ["Go concurrency", "gRPC services"],
	"gaps": ["Kubernetes operations"],
	"matching_skills": ["go", "grpc"],
	"missing_skills": ["kubernetes"],
	"recommendations": ["Ship a side project on a managed cluster"],
	"confidence_level": "HIGH"
}`

const jobDoc = `{
	"id": 3,
	"title": "Staff Go Engineer",
	"company": "Initech",
	"location": "Remote",
	"description": "Build the platform.",
	"required_skills": ["go", "grpc", "kubernetes"]
}`

var _ = Describe("Report Command", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	runReport := func(server *httptest.Server, args ...string) (string, error) {
		cmd := NewReportCmd()
		out := new(bytes.Buffer)
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(append(args, "--server", server.URL))
		err := cmd.ExecuteContext(ctx)
		return out.String(), err
	}

	newServer := func(jobStatus int) *httptest.Server {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/jobs/analyses/7/", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(analysisDoc))
		})
		mux.HandleFunc("/api/jobs/3/", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if jobStatus != http.StatusOK {
				w.WriteHeader(jobStatus)
				w.Write([]byte(`{"error": "job not found"}`))
				return
			}
			w.Write([]byte(jobDoc))
		})
		return httptest.NewServer(mux)
	}

	It("renders the stored analysis with its job header", func() {
		server := newServer(http.StatusOK)
		defer server.Close()

		out, err := runReport(server, "7")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Staff Go Engineer at Initech"))
		Expect(out).To(ContainSubstring("Match Score: 82/100"))
		Expect(out).To(ContainSubstring("Strengths"))
		Expect(out).To(ContainSubstring("Go concurrency"))
		Expect(out).To(ContainSubstring("Kubernetes operations"))
	})

	It("still renders when the job row is gone", func() {
		server := newServer(http.StatusNotFound)
		defer server.Close()

		out, err := runReport(server, "7")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Match Score: 82/100"))
		Expect(out).NotTo(ContainSubstring("Staff Go Engineer"))
	})

	It("prints the raw document with --json", func() {
		server := newServer(http.StatusOK)
		defer server.Close()

		out, err := runReport(server, "7", "--json")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring(`"match_score": 82`))
		Expect(out).To(ContainSubstring(`"eligibility_level": "ELIGIBLE"`))
		Expect(out).NotTo(ContainSubstring("Match Score: 82/100"))
	})

	It("rejects a non-numeric analysis id", func() {
		server := newServer(http.StatusOK)
		defer server.Close()

		_, err := runReport(server, "seven")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring(`invalid analysis id "seven"`))
	})

	It("surfaces a missing analysis as an error", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": "analysis not found"}`))
		}))
		defer server.Close()

		_, err := runReport(server, "99")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("fetch analysis 99"))
		Expect(err.Error()).To(ContainSubstring("analysis not found"))
	})
})
