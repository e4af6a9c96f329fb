package verifycmder

import (
	"context"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/skillsetz/careercraft/cmd/careercraft/apiclient"
	"github.com/skillsetz/careercraft/pkg/assessment"
)

const verifyLongDesc string = `Verify a skill certificate by ID.

Certificate IDs look like CC-GOL-L3-1A2B3C4D and are printed with the
assessment result. Verification asks a running careercraft server
whether the certificate exists and is still active.

Examples:
  careercraft verify CC-GOL-L3-1A2B3C4D`

const verifyShortDesc string = "Verify a skill certificate"

type verifyCommander struct {
	serverURL string
	token     string
}

func NewVerifyCmd() *cobra.Command {
	cmder := &verifyCommander{}

	cmd := &cobra.Command{
		Use:   "verify <certificate-id>",
		Short: verifyShortDesc,
		Long:  verifyLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&cmder.serverURL, "server", "s", "", "careercraft server URL (default: $CAREERCRAFT_SERVER or "+apiclient.DefaultServerURL+")")
	cmd.Flags().StringVar(&cmder.token, "token", "", "Bearer token (default: $CAREERCRAFT_TOKEN)")

	return cmd
}

func (c *verifyCommander) run(ctx context.Context, cmd *cobra.Command, certID string) error {
	client := apiclient.New(apiclient.ResolveServer(c.serverURL), apiclient.ResolveToken(c.token))

	var result struct {
		Valid       bool                   `json:"valid"`
		Certificate assessment.Certificate `json:"certificate"`
	}
	path := "/api/profiles/certificates/" + url.PathEscape(certID) + "/verify/"
	if err := client.Get(ctx, path, &result); err != nil {
		return fmt.Errorf("verify certificate: %w", err)
	}

	out := cmd.OutOrStdout()
	if result.Valid {
		fmt.Fprintf(out, "Certificate %s is valid.\n", result.Certificate.ID)
	} else {
		fmt.Fprintf(out, "Certificate %s exists but is no longer active.\n", result.Certificate.ID)
	}
	fmt.Fprintf(out, "  Skill:    %s\n", result.Certificate.Skill)
	fmt.Fprintf(out, "  Level:    %d\n", result.Certificate.Level)
	fmt.Fprintf(out, "  Score:    %.1f%%\n", result.Certificate.Score)
	fmt.Fprintf(out, "  Issued:   %s\n", result.Certificate.IssuedAt.Format("2006-01-02"))
	fmt.Fprintf(out, "  Holder:   %s\n", result.Certificate.UserID)
	fmt.Fprintf(out, "  Issuer:   %s\n", assessment.VerifiedBy(result.Certificate.Level))
	return nil
}
