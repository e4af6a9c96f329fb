package verifycmder

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Verify Command", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	runVerify := func(server *httptest.Server, args ...string) (string, error) {
		cmd := NewVerifyCmd()
		out := new(bytes.Buffer)
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(append(args, "--server", server.URL))
		err := cmd.ExecuteContext(ctx)
		return out.String(), err
	}

	It("prints the certificate details for a valid certificate", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/api/profiles/certificates/CERT-GO-3-1234/verify/"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"valid": true,
				"certificate": {
					"certificate_id": "CERT-GO-3-1234",
					"user_id": "alice",
					"skill": "Go",
					"level": 3,
					"score_achieved": 91.5,
					"issued_at": "2026-02-14T10:00:00Z",
					"is_active": true
				}
			}`))
		}))
		defer server.Close()

		out, err := runVerify(server, "CERT-GO-3-1234")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Certificate CERT-GO-3-1234 is valid."))
		Expect(out).To(ContainSubstring("Skill:    Go"))
		Expect(out).To(ContainSubstring("Level:    3"))
		Expect(out).To(ContainSubstring("Score:    91.5%"))
		Expect(out).To(ContainSubstring("Issued:   2026-02-14"))
		Expect(out).To(ContainSubstring("Holder:   alice"))
		Expect(out).To(ContainSubstring("CareerCraft Assessment - Level 3"))
	})

	It("reports a revoked certificate as inactive", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"valid": false,
				"certificate": {
					"certificate_id": "CERT-SQL-2-9",
					"user_id": "bob",
					"skill": "SQL",
					"level": 2,
					"score_achieved": 78,
					"issued_at": "2025-11-01T00:00:00Z",
					"is_active": false
				}
			}`))
		}))
		defer server.Close()

		out, err := runVerify(server, "CERT-SQL-2-9")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Certificate CERT-SQL-2-9 exists but is no longer active."))
	})

	It("surfaces the server error for an unknown certificate", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": "certificate not found"}`))
		}))
		defer server.Close()

		_, err := runVerify(server, "CERT-NOPE")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("verify certificate"))
		Expect(err.Error()).To(ContainSubstring("certificate not found"))
	})

	It("sends the bearer token with the request", func() {
		var gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"valid": true, "certificate": {"certificate_id": "C1", "level": 1}}`))
		}))
		defer server.Close()

		_, err := runVerify(server, "C1", "--token", "sekrit")
		Expect(err).NotTo(HaveOccurred())
		Expect(gotAuth).To(Equal("Bearer sekrit"))
	})
})
