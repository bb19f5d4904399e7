package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"fiscal-sentinel/pkg/client"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [question]",
		Short: "Ask the financial analyst",
		Long:  "With an argument, sends a single question. Without one, opens an interactive session; /new starts a fresh conversation, /quit exits.",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			session := client.NewSession(c)

			if len(args) > 0 {
				return sendOnce(cmd, session, strings.Join(args, " "))
			}
			return chatLoop(cmd, session)
		},
	}
	return cmd
}

func sendOnce(cmd *cobra.Command, session *client.Session, question string) error {
	transcript, err := session.Send(context.Background(), question)
	if err != nil {
		return err
	}
	printLastReply(cmd.OutOrStdout(), transcript)
	return nil
}

func chatLoop(cmd *cobra.Command, session *client.Session) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Fiscal Sentinel chat. /new starts over, /quit exits.")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "/quit", "/exit":
			return nil
		case "/new":
			session.Reset()
			fmt.Fprintln(out, "Started a new conversation.")
			continue
		case "":
			continue
		}

		transcript, err := session.Send(context.Background(), line)
		if err != nil {
			if errors.Is(err, client.ErrEmptyInput) {
				continue
			}
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		printLastReply(out, transcript)
	}
}

func printLastReply(out io.Writer, transcript []client.Message) {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role == client.RoleAssistant {
			fmt.Fprintln(out, transcript[i].Content)
			return
		}
	}
}
