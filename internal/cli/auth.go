package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/taskdesk/internal/apperr"
	"github.com/nhle/taskdesk/internal/model"
)

// credentialFlags are shared by login and register.
type credentialFlags struct {
	email    string
	password string
	confirm  string
}

// readSecret returns flagValue, or the next line of in when the flag was
// not given.
func readSecret(in io.Reader, flagValue string) string {
	if flagValue != "" || in == nil {
		return flagValue
	}
	sc := bufio.NewScanner(in)
	if sc.Scan() {
		return strings.TrimRight(sc.Text(), "\r")
	}
	return ""
}

func newLoginCmd(env *Env, flags *rootFlags) *cobra.Command {
	var cf credentialFlags

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long:  "Sign in and store the session. Without --password the password is read from stdin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := load(env, flags)
			if err != nil {
				return err
			}
			password := readSecret(cmd.InOrStdin(), cf.password)

			res := rt.sessions.SignIn(cmd.Context(), strings.TrimSpace(cf.email), password)
			if !res.Success {
				return failed(res)
			}
			return printSignedIn(cmd, rt.sessions.GetSession(cmd.Context()))
		},
	}
	cmd.Flags().StringVar(&cf.email, "email", "", "account email")
	cmd.Flags().StringVar(&cf.password, "password", "", "account password")
	return cmd
}

func newRegisterCmd(env *Env, flags *rootFlags) *cobra.Command {
	var cf credentialFlags

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := load(env, flags)
			if err != nil {
				return err
			}
			password := readSecret(cmd.InOrStdin(), cf.password)
			confirm := cf.confirm
			if confirm == "" {
				confirm = password
			}

			res := rt.sessions.SignUp(cmd.Context(), strings.TrimSpace(cf.email), password, confirm)
			if !res.Success {
				return failed(res)
			}
			return printSignedIn(cmd, rt.sessions.GetSession(cmd.Context()))
		},
	}
	cmd.Flags().StringVar(&cf.email, "email", "", "account email")
	cmd.Flags().StringVar(&cf.password, "password", "", "account password")
	cmd.Flags().StringVar(&cf.confirm, "confirm", "", "password confirmation (defaults to --password)")
	return cmd
}

func printSignedIn(cmd *cobra.Command, s *model.Session) error {
	if s == nil {
		return apperr.NotAuthenticated("Signed in, but the session could not be verified")
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", s.User.Email)
	return nil
}

func newLogoutCmd(env *Env, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := load(env, flags)
			if err != nil {
				return err
			}
			rt.sessions.SignOut(cmd.Context())
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func newWhoamiCmd(env *Env, flags *rootFlags) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := load(env, flags)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if offline {
				claims, err := rt.sessions.Claims()
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "subject: %s\n", claims.Subject)
				if claims.Email != "" {
					_, _ = fmt.Fprintf(out, "email: %s\n", claims.Email)
				}
				if !claims.ExpiresAt.IsZero() {
					_, _ = fmt.Fprintf(out, "expires: %s\n", claims.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"))
				}
				_, _ = fmt.Fprintf(out, "verified: %t\n", claims.Verified)
				return nil
			}

			s := rt.sessions.GetSession(cmd.Context())
			if s == nil {
				return apperr.NotAuthenticated("Not signed in")
			}
			_, _ = fmt.Fprintf(out, "%s\t%s\n", s.User.ID, s.User.Email)
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "decode the stored token without contacting the API")
	return cmd
}
