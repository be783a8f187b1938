package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/taskdesk/internal/apperr"
	"github.com/nhle/taskdesk/internal/chat"
)

func newChatCmd(env *Env, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <message>",
		Short: "Ask the task assistant one question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := load(env, flags)
			if err != nil {
				return err
			}

			relay := chat.NewRelay(rt.client)
			text, ok := relay.Begin(strings.Join(args, " "))
			if !ok {
				return apperr.Invalid("message", "message is empty")
			}
			res := rt.client.SendChat(cmd.Context(), text)
			reply := relay.Complete(res)

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), reply.Content)
			if !res.Success {
				return failed(res)
			}
			return nil
		},
	}
}
