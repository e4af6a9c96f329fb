package analyzecmder

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/skillsetz/careercraft/pkg/stream"
)

const storedAnalysis = `{
	"id": 42,
	"eligibility_level": "ELIGIBLE",
	"match_score": 82,
	"analysis_summary": "Strong match.",
	"strengths": ["Go concurrency"],
	"confidence_level": "HIGH"
}`

// fakeBackend serves the streaming analyze endpoint plus the stored
// analysis the command fetches afterwards, and records the request.
func fakeBackend(events ...stream.Event) (*httptest.Server, *stream.Request) {
	received := new(stream.Request)

	mux := http.NewServeMux()
	mux.HandleFunc(stream.AnalyzePath, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(received)
		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, ev := range events {
			record, _ := ev.Encode()
			_, _ = w.Write(record)
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	})
	mux.HandleFunc("/api/jobs/analyses/42/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(storedAnalysis))
	})
	return httptest.NewServer(mux), received
}

var _ = Describe("Analyze Command", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	runAnalyze := func(server *httptest.Server, stdin string, args ...string) (string, error) {
		cmd := NewAnalyzeCmd()
		out := new(bytes.Buffer)
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetIn(bytes.NewBufferString(stdin))
		cmd.SetArgs(append(args, "--server", server.URL))
		err := cmd.ExecuteContext(ctx)
		return out.String(), err
	}

	happyPath := func() []stream.Event {
		return []stream.Event{
			stream.StatusEvent("parsing", "Parsing job description", 10),
			stream.StatusEvent("analyzing", "Scoring your fit", 60),
			stream.CompleteEvent(42, "Analysis complete", 100),
			stream.FinalEvent(json.RawMessage(`{"title": "Staff Go Engineer", "company": "Initech"}`), 3),
		}
	}

	It("streams progress and renders the report", func() {
		server, received := fakeBackend(happyPath()...)
		defer server.Close()

		out, err := runAnalyze(server, "", "Senior Go engineer. Kubernetes, gRPC.")
		Expect(err).NotTo(HaveOccurred())

		Expect(received.JobDescription).To(Equal("Senior Go engineer. Kubernetes, gRPC."))
		Expect(received.SaveJob).To(BeTrue())

		Expect(out).To(ContainSubstring("Parsing job description"))
		Expect(out).To(ContainSubstring("Scoring your fit"))
		Expect(out).To(ContainSubstring("Staff Go Engineer at Initech"))
		Expect(out).To(ContainSubstring("Match Score: 82/100"))
		Expect(out).To(ContainSubstring("Go concurrency"))
	})

	It("prints the stored analysis with --json", func() {
		server, _ := fakeBackend(happyPath()...)
		defer server.Close()

		out, err := runAnalyze(server, "", "some posting", "--json")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring(`"match_score": 82`))
		Expect(out).NotTo(ContainSubstring("Match Score: 82/100"))
	})

	It("passes the context flag and --no-save through to the server", func() {
		server, received := fakeBackend(happyPath()...)
		defer server.Close()

		_, err := runAnalyze(server, "", "some posting", "--context", "open to relocation", "--no-save")
		Expect(err).NotTo(HaveOccurred())
		Expect(received.AdditionalContext).To(Equal("open to relocation"))
		Expect(received.SaveJob).To(BeFalse())
	})

	It("reads the job description from a file", func() {
		tmpDir, err := os.MkdirTemp("", "careercraft-analyze-test-*")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(tmpDir)

		posting := filepath.Join(tmpDir, "posting.txt")
		Expect(os.WriteFile(posting, []byte("Platform engineer, Go and Terraform."), 0644)).To(Succeed())

		server, received := fakeBackend(happyPath()...)
		defer server.Close()

		_, err = runAnalyze(server, "", "--file", posting)
		Expect(err).NotTo(HaveOccurred())
		Expect(received.JobDescription).To(Equal("Platform engineer, Go and Terraform."))
	})

	It("reads the job description from stdin", func() {
		server, received := fakeBackend(happyPath()...)
		defer server.Close()

		_, err := runAnalyze(server, "Data engineer. Python, dbt, Snowflake.")
		Expect(err).NotTo(HaveOccurred())
		Expect(received.JobDescription).To(Equal("Data engineer. Python, dbt, Snowflake."))
	})

	It("errors when no description is given anywhere", func() {
		server, _ := fakeBackend()
		defer server.Close()

		_, err := runAnalyze(server, "")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("no job description given"))
	})

	It("reports a failed analysis", func() {
		server, _ := fakeBackend(
			stream.StatusEvent("parsing", "Parsing job description", 10),
			stream.ErrorEvent("model unavailable"),
		)
		defer server.Close()

		_, err := runAnalyze(server, "", "some posting")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("model unavailable"))
	})

	It("notes when the stream finished without a stored analysis", func() {
		server, _ := fakeBackend(
			stream.StatusEvent("parsing", "Parsing job description", 10),
			stream.CompleteEvent(0, "Analysis complete", 100),
		)
		defer server.Close()

		out, err := runAnalyze(server, "", "some posting")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("No analysis was produced."))
	})

	Describe("readDescription", func() {
		newCmd := func(stdin string) *cobra.Command {
			cmd := &cobra.Command{}
			cmd.SetIn(bytes.NewBufferString(stdin))
			return cmd
		}

		It("prefers the file flag over the argument", func() {
			tmpDir, err := os.MkdirTemp("", "careercraft-analyze-test-*")
			Expect(err).NotTo(HaveOccurred())
			defer os.RemoveAll(tmpDir)

			posting := filepath.Join(tmpDir, "posting.txt")
			Expect(os.WriteFile(posting, []byte("from the file"), 0644)).To(Succeed())

			c := &analyzeCommander{file: posting}
			got, err := c.readDescription(newCmd("from stdin"), []string{"from the arg"})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal("from the file"))
		})

		It("prefers the argument over stdin", func() {
			c := &analyzeCommander{}
			got, err := c.readDescription(newCmd("from stdin"), []string{"from the arg"})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal("from the arg"))
		})

		It("ignores a blank argument", func() {
			c := &analyzeCommander{}
			got, err := c.readDescription(newCmd("from stdin"), []string{"   "})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal("from stdin"))
		})

		It("fails on a missing file", func() {
			c := &analyzeCommander{file: "/does/not/exist.txt"}
			_, err := c.readDescription(newCmd(""), nil)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("read job description"))
		})
	})
})
