package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/interview-screener/internal/analysis"
	"github.com/spigell/interview-screener/internal/interview"
)

const (
	PromptBegin = "Begin the interview"
	PromptExit  = "Exit"
)

var startPrompt = promptui.Select{
	Label: "Ready to begin?",
	Items: []string{PromptBegin, PromptExit},
}

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run a screening interview in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		runInterview(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)

	interviewCmd.Flags().StringP("candidate", "c", "", "candidate id used for result delivery. Empty means results are not delivered.")
}

func runInterview(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, config := bootstrap("interview")
	defer logger.Sync()

	d, err := newDeps(ctx, config, logger)
	if err != nil {
		logger.Fatal("connecting to backends", zap.Error(err))
	}
	defer d.Close(context.Background())

	questions, err := d.loadCatalog(ctx)
	if err != nil {
		logger.Fatal("loading the question catalog", zap.Error(err))
	}

	evaluator, err := d.evaluator(ctx)
	if err != nil {
		logger.Fatal("creating the answer evaluator", zap.Error(err))
	}

	dispatcher, err := d.dispatcher()
	if err != nil {
		logger.Fatal("configuring result delivery", zap.Error(err))
	}

	var finalizer interview.Finalizer
	if dispatcher != nil {
		finalizer = dispatcher
		defer dispatcher.Wait()
	}

	candidate, _ := cmd.Flags().GetString("candidate")
	machine := interview.NewMachine(questions, evaluator, finalizer, logger)

	session, err := conduct(ctx, machine, machine.NewSession(candidate))
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) ||
			errors.Is(err, errExit) || errors.Is(err, context.Canceled) {
			logger.Info("interview stopped", zap.String("session_id", session.ID), zap.Int("answered", len(session.Answers)))
			return
		}
		logger.Fatal("running the interview", zap.Error(err))
	}

	a, err := analysis.Analyze(session.Answers, session.AverageScore, session.OverallLevel)
	if err != nil {
		logger.Fatal("analyzing the interview", zap.Error(err))
	}

	printAnalysis(a)
}

var errExit = errors.New("exit requested")

// conduct asks every question until the session completes. The last session
// value is returned with any error so partial progress can be reported.
func conduct(ctx context.Context, machine *interview.Machine, session interview.Session) (interview.Session, error) {
	fmt.Println(machine.Welcome())
	fmt.Println()

	_, selected, err := startPrompt.Run()
	if err != nil {
		return session, err
	}
	if selected == PromptExit {
		return session, errExit
	}

	for !session.IsComplete {
		q, ok := machine.CurrentQuestion(session)
		if !ok {
			return session, fmt.Errorf("no question at index %d", session.CurrentQuestionIndex)
		}

		answerPrompt := promptui.Prompt{
			Label: fmt.Sprintf("Answer %d/%d", q.ID, machine.Catalog().Len()),
			Validate: func(input string) error {
				if strings.TrimSpace(input) == "" {
					return interview.ErrEmptyAnswer
				}
				return nil
			},
		}

		answer, err := answerPrompt.Run()
		if err != nil {
			return session, err
		}

		next, reply, err := machine.Submit(ctx, session, answer)
		if err != nil {
			return session, err
		}
		session = next

		if reply.Completes() {
			machine.Finalize(ctx, session)
		}

		if reply.Evaluation != nil {
			fmt.Printf("\nScore: %d (%s)\n%s\n", reply.Evaluation.Score, reply.Evaluation.Level, reply.Evaluation.Feedback)
		}
		fmt.Printf("\n%s\n\n", reply.Message)
	}

	return session, nil
}

func printAnalysis(a analysis.Analysis) {
	fmt.Printf("Overall score: %s (%s)\n", formatScore(a.OverallScore), a.OverallLevel)
	fmt.Printf("  %-20s %s/25\n", analysis.DimensionTechnicalAccuracy, formatScore(a.TechnicalAccuracy))
	fmt.Printf("  %-20s %s/25\n", analysis.DimensionProblemSolving, formatScore(a.ProblemSolving))
	fmt.Printf("  %-20s %s/25\n", analysis.DimensionCommunication, formatScore(a.Communication))
	fmt.Printf("  %-20s %s/25\n", analysis.DimensionDocumentation, formatScore(a.Documentation))

	if a.AIDetected {
		fmt.Printf("AI-generated answers detected: %d of %d\n", a.AIDetectedCount, a.TotalQuestions)
	}

	fmt.Printf("\n%s\n", analysis.Synthesize(a))
}

func formatScore(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
