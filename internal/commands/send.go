package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matheus3301/melo/internal/chat"
	"github.com/matheus3301/melo/internal/domain"
)

type emotionView struct {
	Label      string `json:"label" yaml:"label"`
	Confidence int    `json:"confidence_pct" yaml:"confidence_pct"`
}

type sendResult struct {
	ConversationID string       `json:"conversation_id" yaml:"conversation_id"`
	Reply          string       `json:"reply" yaml:"reply"`
	Fallback       bool         `json:"fallback" yaml:"fallback"`
	Emotion        *emotionView `json:"emotion,omitempty" yaml:"emotion,omitempty"`
	Escalation     bool         `json:"needs_escalation" yaml:"needs_escalation"`
}

func newSendCmd(g *globalFlags) *cobra.Command {
	var conversationID string
	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Send a message and print Melo's reply",
		Long: `Send one message. Without --conversation a new conversation is started;
the reply shows its id so the next message can continue it.

Examples:
  meloctl send "I had a rough day"
  meloctl send --conversation 12 "still thinking about it"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnv(cmd, g, envOptions{}, func(ctx context.Context, e *env) error {
				if _, err := e.restore(ctx); err != nil {
					return err
				}
				if conversationID != "" {
					if err := e.list.Select(ctx, conversationID); err != nil {
						return err
					}
				}
				if err := e.session.Submit(ctx, strings.Join(args, " ")); err != nil {
					return err
				}
				return e.emitSendResult()
			})
		},
	}
	cmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "Continue this conversation")
	return cmd
}

func (e *env) emitSendResult() error {
	res := sendResult{
		ConversationID: e.session.CurrentConversationID(),
		Escalation:     e.escalated.Load(),
	}
	msgs := e.session.Transcript().Messages()
	if n := len(msgs); n > 0 && msgs[n-1].Sender == domain.SenderBot {
		res.Reply = msgs[n-1].Text
	}
	res.Fallback = res.Reply == chat.FallbackReply
	em := e.session.Emotion().Current()
	if em != nil {
		res.Emotion = &emotionView{Label: em.Label, Confidence: em.Percent()}
	}

	return e.emit(res, func(w io.Writer) {
		writeSendResult(w, res, em)
	})
}

func writeSendResult(w io.Writer, res sendResult, em *domain.Emotion) {
	fmt.Fprintf(w, "Melo: %s\n", res.Reply)
	if em != nil {
		fmt.Fprintf(w, "\nemotion: %s\n", em)
	}
	if res.ConversationID != "" {
		fmt.Fprintf(w, "conversation: %s\n", res.ConversationID)
	}
}
