package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MrWong99/tripmate/internal/agent"
	"github.com/MrWong99/tripmate/internal/offers"
)

// Turner answers one user message; *agent.Agent satisfies it.
type Turner interface {
	HandleTurn(ctx context.Context, conversationID, message string) agent.Result
}

func newChatCmd(v *viper.Viper) *cobra.Command {
	var conversationID string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the agent in the terminal",
		Long: `Starts an interactive session against the configured store and
language model. Type "exit" or press Ctrl+D to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Shutdown(context.WithoutCancel(ctx)) //nolint:errcheck

			if conversationID == "" {
				conversationID = uuid.NewString()
			}
			return repl(ctx, a.Agent(), conversationID, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&conversationID, "conversation", "", "resume an existing conversation ID")
	return cmd
}

// repl reads one message per line from in and writes each reply to out
// until EOF or "exit".
func repl(ctx context.Context, t Turner, conversationID string, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "conversation %s\n", conversationID)
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		printResult(out, t.HandleTurn(ctx, conversationID, line))
	}
}

func printResult(out io.Writer, res agent.Result) {
	fmt.Fprintln(out, res.Reply)
	printCards(out, res.Cards)
	if res.Mode == agent.ModeFallback {
		fmt.Fprintf(out, "  (offline mode: %s)\n", res.FallbackReason)
	}
}

func printCards(out io.Writer, cards []offers.Card) {
	for _, c := range cards {
		fmt.Fprintf(out, "  [%s] %s: %s\n      %s\n", c.Type, c.ProviderMeta.Name, c.Title, c.CallToAction.URL)
	}
}
