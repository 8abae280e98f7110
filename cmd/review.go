package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/lexiz/internal/app"
	"github.com/abhisek/lexiz/internal/session"
	"github.com/abhisek/lexiz/internal/spacedrep"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Start a review session",
	RunE: func(cmd *cobra.Command, args []string) error {
		plain, _ := cmd.Flags().GetBool("plain")
		return runReview(cmd, plain)
	},
}

func init() {
	reviewCmd.Flags().Bool("plain", false, "Line-based prompts instead of the full-screen UI")
}

// runReview opens the store, builds the session service and runs one
// session in the terminal UI or in plain mode.
func runReview(cmd *cobra.Command, plain bool) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	sessCfg, err := e.cfg.SessionConfig()
	if err != nil {
		return err
	}
	selCfg, err := e.cfg.SelectorConfig()
	if err != nil {
		return err
	}

	svc := session.NewService(session.Deps{
		Records:        e.repos.Records(),
		Items:          e.repos.Items(),
		Events:         e.repos.Events(),
		Config:         sessCfg,
		SelectorConfig: selCfg,
		Logger:         e.log,
		Metrics:        e.metrics,
	})

	ctx := cmd.Context()
	if plain {
		p := newLinePresenter(cmd.InOrStdin(), cmd.OutOrStdout(), time.Now)
		sum, err := svc.Run(ctx, p)
		printSummary(cmd.OutOrStdout(), sum)
		return err
	}

	runErr := app.Run(ctx, svc, nil)
	// Quitting the UI mid-session keeps what was reviewed.
	if s := svc.Session(); s != nil && s.Phase() == session.PhaseInProgress {
		if _, err := svc.Abort(context.WithoutCancel(ctx)); err != nil {
			e.log.Warn("abort session", zap.Error(err))
		}
	}
	return runErr
}

// linePresenter asks each prompt on a plain line-oriented terminal.
type linePresenter struct {
	in  *bufio.Scanner
	out io.Writer
	now func() time.Time
}

func newLinePresenter(in io.Reader, out io.Writer, now func() time.Time) *linePresenter {
	return &linePresenter{in: bufio.NewScanner(in), out: out, now: now}
}

func (p *linePresenter) readLine() (string, error) {
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", session.ErrAborted
	}
	return strings.TrimSpace(p.in.Text()), nil
}

func (p *linePresenter) Present(_ context.Context, pr session.Prompt) (session.Response, error) {
	fmt.Fprintf(p.out, "\n[%d/%d] %s\n  %s\n", pr.Position, pr.Total, pr.Instruction(), pr.Question())
	for i, c := range pr.Choices {
		fmt.Fprintf(p.out, "  %c) %s\n", 'a'+i, c)
	}
	fmt.Fprint(p.out, "> ")

	shown := p.now()
	answer, err := p.readLine()
	if err != nil {
		return session.Response{}, err
	}
	elapsed := p.now().Sub(shown).Milliseconds()
	if answer == "q" {
		return session.Response{}, session.ErrAborted
	}

	var correct bool
	if len(pr.Choices) > 0 {
		correct = len(answer) == 1 && int(answer[0]-'a') == pr.AnswerIndex
	} else {
		correct = session.MatchesAnswer(answer, pr.Expected())
	}
	verdict := "Answer"
	if correct {
		verdict = "Correct"
	}
	fmt.Fprintf(p.out, "%s: %s\n", verdict, pr.Answer())

	for {
		fmt.Fprint(p.out, "Rate 1=forgot 2=hard 3=good 4=easy (q to stop): ")
		line, err := p.readLine()
		if err != nil {
			return session.Response{}, err
		}
		if line == "q" {
			return session.Response{}, session.ErrAborted
		}
		if r, err := spacedrep.ParseRating(line); err == nil {
			return session.Response{Rating: r, ResponseTimeMs: elapsed}, nil
		}
	}
}

func printSummary(w io.Writer, sum session.Summary) {
	switch {
	case sum.SessionID == "":
		return
	case sum.Candidates == 0:
		fmt.Fprintln(w, "Nothing due right now.")
		return
	case sum.Aborted():
		fmt.Fprintln(w, "\nSession ended early.")
	default:
		fmt.Fprintln(w, "\nSession complete!")
	}
	fmt.Fprintf(w, "Reviewed %d/%d, %d correct (%.0f%%) in %s\n",
		sum.Reviewed, sum.Candidates, sum.Correct, sum.Accuracy*100, sum.Duration.Round(time.Second))
	for _, tr := range sum.Transitions {
		fmt.Fprintf(w, "  %s: %s > %s\n", tr.ItemID, tr.From.Label(), tr.To.Label())
	}
}

var _ session.Presenter = (*linePresenter)(nil)
