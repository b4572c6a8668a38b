package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/matheus3301/melo/internal/chat"
	"github.com/matheus3301/melo/internal/domain"
)

type conversationView struct {
	ID        string    `json:"conversation_id" yaml:"conversation_id"`
	StartedAt time.Time `json:"started_at" yaml:"started_at"`
	Messages  int       `json:"message_count" yaml:"message_count"`
}

type messageView struct {
	Sender    string    `json:"sender" yaml:"sender"`
	Text      string    `json:"text" yaml:"text"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp,omitempty"`
}

func newConversationsCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv"},
		Short:   "List, show and delete saved conversations",
	}
	cmd.AddCommand(
		newConversationsListCmd(g),
		newConversationsShowCmd(g),
		newConversationsDeleteCmd(g),
		newConversationsCleanupCmd(g),
	)
	return cmd
}

func newConversationsListCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List conversations, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnv(cmd, g, envOptions{}, func(ctx context.Context, e *env) error {
				if _, err := e.restore(ctx); err != nil {
					return err
				}
				items, err := e.list.Refresh(ctx)
				if err != nil {
					return err
				}
				return e.emit(conversationViews(items), func(w io.Writer) {
					writeConversations(w, items)
				})
			})
		},
	}
}

func conversationViews(items []domain.Conversation) []conversationView {
	out := make([]conversationView, 0, len(items))
	for _, c := range items {
		out = append(out, conversationView{ID: c.ID.String(), StartedAt: c.StartedAt.Time, Messages: c.MessageCount})
	}
	return out
}

func writeConversations(w io.Writer, items []domain.Conversation) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No conversations yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tMESSAGES")
	for _, c := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Label(), c.CountLabel())
	}
	_ = tw.Flush()
}

func newConversationsShowCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print the messages of a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnv(cmd, g, envOptions{}, func(ctx context.Context, e *env) error {
				if _, err := e.restore(ctx); err != nil {
					return err
				}
				if err := e.list.Select(ctx, args[0]); err != nil {
					return err
				}
				msgs := e.session.Transcript().Messages()
				views := make([]messageView, 0, len(msgs))
				for _, m := range msgs {
					views = append(views, messageView{Sender: string(m.Sender), Text: m.Text, Timestamp: m.Timestamp})
				}
				return e.emit(views, func(w io.Writer) {
					writeMessages(w, msgs)
				})
			})
		},
	}
}

func writeMessages(w io.Writer, msgs []domain.Message) {
	for i, m := range msgs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		who := "Melo"
		if m.Sender == domain.SenderUser {
			who = "You"
		}
		if !m.Timestamp.IsZero() {
			who += " · " + m.Timestamp.Local().Format("Jan 2 15:04")
		}
		fmt.Fprintln(w, who)
		for _, line := range m.Lines() {
			fmt.Fprintln(w, "  "+line)
		}
	}
}

func newConversationsDeleteCmd(g *globalFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a conversation on the server",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnv(cmd, g, envOptions{assumeYes: yes}, func(ctx context.Context, e *env) error {
				if _, err := e.restore(ctx); err != nil {
					return err
				}
				err := e.list.Delete(ctx, args[0])
				if errors.Is(err, chat.ErrCancelled) {
					fmt.Fprintln(e.errOut, "Cancelled.")
					return nil
				}
				if err != nil {
					return err
				}
				return e.emit(map[string]string{"deleted": args[0]}, func(w io.Writer) {
					fmt.Fprintf(w, "Deleted conversation %s.\n", args[0])
				})
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

type cleanupResult struct {
	Deleted int `json:"deleted" yaml:"deleted"`
	Days    int `json:"days" yaml:"days"`
}

func newConversationsCleanupCmd(g *globalFlags) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete conversations older than the retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 0 {
				return fmt.Errorf("--days must be positive")
			}
			return runEnv(cmd, g, envOptions{retentionDays: days}, func(ctx context.Context, e *env) error {
				// Read the identity directly: a full restore would start the
				// background sweep and leave this one nothing to report.
				id, err := e.db.LoadIdentity(ctx)
				if err != nil {
					return err
				}
				if id == nil {
					return errNotSignedIn
				}
				deleted, err := e.sweeper.Sweep(ctx, id.UserID)
				if err != nil {
					return err
				}
				res := cleanupResult{Deleted: deleted, Days: e.cfg.RetentionDays}
				return e.emit(res, func(w io.Writer) {
					fmt.Fprintf(w, "Deleted %d conversation(s) older than %d day(s).\n", res.Deleted, res.Days)
				})
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Retention in days (default from config)")
	return cmd
}
