package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/research-assistant/internal/assistant"
	"github.com/sells-group/research-assistant/internal/model"
)

var chatSessionID string

var chatCmd = &cobra.Command{
	Use:   "chat <file>",
	Short: "Interactive Q&A and quiz over a document",
	Long:  "Uploads a document, prints its summary, then reads questions from stdin. Type /challenge for a quiz, /summary to reprint the summary, or /quit to exit.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initAssistant(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read %s", args[0])
		}

		res, err := env.Service.Upload(ctx, assistant.UploadInput{
			Filename:  filepath.Base(args[0]),
			Data:      data,
			SessionID: chatSessionID,
		})
		if err != nil {
			return err
		}

		return runChat(ctx, env.Service, res, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

// chatService is the subset of the assistant used by the REPL.
type chatService interface {
	Ask(ctx context.Context, key, question string) (*model.Answer, error)
	Challenge(ctx context.Context, key string) (*model.ChallengeSet, error)
	Evaluate(ctx context.Context, key, question, userAnswer string) (*model.Evaluation, error)
}

var (
	boldGreen  = color.New(color.FgGreen, color.Bold).SprintFunc()
	boldCyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
	boldYellow = color.New(color.FgYellow, color.Bold).SprintFunc()
	faint      = color.New(color.Faint).SprintFunc()
)

// runChat reads commands and questions from in until EOF or /quit.
func runChat(ctx context.Context, svc chatService, doc *model.UploadResult, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, boldGreen("Document: ")+doc.Filename+faint(" (session "+doc.SessionID+")"))
	fmt.Fprintln(out, boldCyan("Summary: ")+doc.Summary)
	fmt.Fprintln(out, "Ask a question, or type /challenge, /summary, /quit.")
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(in)
	readLine := func(prefix string) (string, bool) {
		fmt.Fprint(out, prefix)
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}

	for {
		line, ok := readLine(boldGreen("You: "))
		if !ok {
			break
		}

		switch strings.ToLower(line) {
		case "":
			continue
		case "/quit", "/exit", "exit":
			return nil
		case "/summary":
			fmt.Fprintln(out, boldCyan("Summary: ")+doc.Summary)
			continue
		case "/challenge":
			if err := runQuiz(ctx, svc, doc.SessionID, readLine, out); err != nil {
				return err
			}
			continue
		}

		ans, err := svc.Ask(ctx, doc.SessionID, line)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, boldCyan("Assistant: ")+ans.Answer)
		fmt.Fprintln(out, faint("Evidence: "+ans.HighlightedText))
		fmt.Fprintln(out)
	}
	return scanner.Err()
}

func runQuiz(ctx context.Context, svc chatService, key string, readLine func(string) (string, bool), out io.Writer) error {
	set, err := svc.Challenge(ctx, key)
	if err != nil {
		return err
	}

	var total float64
	for i, q := range set.Questions {
		fmt.Fprintf(out, "%s %s\n", boldYellow(fmt.Sprintf("Q%d [%s]:", i+1, q.Difficulty)), q.Question)
		answer, ok := readLine(boldGreen("Answer: "))
		if !ok {
			return nil
		}
		ev, err := svc.Evaluate(ctx, key, q.Question, answer)
		if err != nil {
			return err
		}
		total += ev.Score
		fmt.Fprintf(out, "%s %.0f%%\n%s\n\n", boldCyan("Grade:"), ev.Score*100, ev.Feedback)
	}
	if n := len(set.Questions); n > 0 {
		fmt.Fprintf(out, "%s %.0f%%\n\n", boldYellow("Quiz average:"), total/float64(n)*100)
	}
	return nil
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session-id", "", "use this session key instead of generating one")
	rootCmd.AddCommand(chatCmd)
}
