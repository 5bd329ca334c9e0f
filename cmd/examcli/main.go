package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hirewell/codeassess/internal/config"
	"github.com/hirewell/codeassess/internal/logger"
	"github.com/hirewell/codeassess/internal/model"
	"github.com/hirewell/codeassess/internal/taker"
)

// examcli is a terminal exam client. It drives the same candidate core a
// graphical client would: a durable local answer store, a debounced
// autosaver, the countdown clock, and the status reconciler.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	client := taker.NewClient(cfg.APIBaseURL, log)
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== CodeAssess Terminal Client ===")

	// ─── Login ─────────────────────────────────────────────────────────
	fmt.Print("Name: ")
	name, _ := reader.ReadString('\n')
	fmt.Print("Email: ")
	email, _ := reader.ReadString('\n')

	identity, err := client.Login(ctx, strings.TrimSpace(name), strings.TrimSpace(email))
	if err != nil {
		log.Fatal().Err(err).Msg("Login failed")
	}
	fmt.Printf("Welcome, %s.\n\n", identity.Name)

	// ─── Wire the candidate core ───────────────────────────────────────
	store, err := taker.OpenStore(cfg.StateDir, client.Token())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open local answer store")
	}

	saver := taker.NewSaver(store, client, cfg.AutosaveDebounce, log)

	// The expiry callback closes over the coordinator, which in turn owns
	// the clock so an accepted submission disarms it. The callback only runs
	// once ticking starts, well after the assignment below.
	var coordinator *taker.Coordinator
	expired := make(chan struct{}, 1)
	clock := taker.NewClock(log,
		taker.WithOnExpire(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if _, err := coordinator.Submit(ctx, true); err != nil {
				log.Error().Err(err).Msg("Auto-submit failed")
			}
			select {
			case expired <- struct{}{}:
			default:
			}
		}),
	)
	coordinator = taker.NewCoordinator(store, client, saver, clock, log)
	reconciler := taker.NewReconciler(client, clock, store, coordinator, log)

	// ─── Reconcile on entry ────────────────────────────────────────────
	decision := reconciler.Reconcile(ctx)
	switch decision.Route {
	case taker.RouteDashboard:
		showSummary(ctx, client)
		fmt.Print("Type 'start' to begin the exam: ")
		cmd, _ := reader.ReadString('\n')
		if strings.TrimSpace(cmd) != "start" {
			fmt.Println("Bye.")
			return
		}
		status, err := client.StartExam(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to start exam")
		}
		clock.Arm(status.RemainingSeconds)
		fmt.Printf("Exam started. %s remaining.\n\n", fmtDuration(status.RemainingSeconds))
	case taker.RouteCompletion:
		fmt.Println("Your exam is already finished. Thank you.")
		return
	default:
		if decision.TimerArmed {
			fmt.Printf("Resuming exam. %s remaining.\n\n", fmtDuration(decision.Remaining))
		} else {
			fmt.Println("Resuming exam (offline, no countdown shown).")
		}
	}

	// ─── REPL ──────────────────────────────────────────────────────────
	repl(ctx, reader, client, store, saver, coordinator, clock, expired)
	saver.Close()
}

func repl(
	ctx context.Context,
	reader *bufio.Reader,
	client *taker.Client,
	store *taker.Store,
	saver *taker.Saver,
	coordinator *taker.Coordinator,
	clock *taker.Clock,
	expired chan struct{},
) {
	fmt.Println("Commands: list <python|sql>, show <id>, edit <id>, run <id>, time, submit, quit")

	for {
		select {
		case <-expired:
			fmt.Println("\nTime is up. Your answers were submitted automatically.")
			return
		default:
		}

		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "list":
			lang := model.LanguagePython
			if len(fields) > 1 && fields[1] == "sql" {
				lang = model.LanguageSQL
			}
			problems, err := client.Problems(ctx, lang)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			for _, p := range problems {
				marker := " "
				if _, saved := store.Get(p.ID); saved {
					marker = "*"
				}
				fmt.Printf("%s %-12s %-40s %s/%d marks\n", marker, p.ID, p.Title, p.Difficulty, p.Marks)
			}

		case "show":
			if len(fields) < 2 {
				fmt.Println("usage: show <id>")
				continue
			}
			problem, err := client.Problem(ctx, fields[1])
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			fmt.Printf("\n%s (%s, %d marks)\n\n%s\n", problem.Title, problem.Language, problem.Marks, problem.Statement)
			if problem.SampleInput != "" {
				fmt.Printf("\nSample input:\n%s\nSample output:\n%s\n", problem.SampleInput, problem.SampleOutput)
			}
			fmt.Println()

		case "edit":
			if len(fields) < 2 {
				fmt.Println("usage: edit <id>")
				continue
			}
			id := fields[1]
			language := "python"
			if strings.HasPrefix(id, "sql") {
				language = "sql"
			}
			if a, ok := store.Get(id); ok {
				fmt.Printf("--- current answer ---\n%s\n----------------------\n", a.Code)
			}
			fmt.Println("Enter your answer, end with a single '.' line:")
			var b strings.Builder
			for {
				codeLine, err := reader.ReadString('\n')
				if err != nil || strings.TrimSpace(codeLine) == "." {
					break
				}
				b.WriteString(codeLine)
			}
			saver.Edit(id, b.String(), language)
			fmt.Println("Saved (autosave in flight).")

		case "run":
			if len(fields) < 2 {
				fmt.Println("usage: run <id>")
				continue
			}
			id := fields[1]
			a, ok := store.Get(id)
			if !ok {
				fmt.Println("No saved answer for", id, "- use 'edit' first.")
				continue
			}

			var result *taker.RunResult
			var err error
			if a.Language == "sql" {
				result, err = client.SQLRun(ctx, id, a.Code)
			} else {
				fmt.Println("Custom input, end with a single '.' line (empty for none):")
				var b strings.Builder
				for {
					inputLine, readErr := reader.ReadString('\n')
					if readErr != nil || strings.TrimSpace(inputLine) == "." {
						break
					}
					b.WriteString(inputLine)
				}
				result, err = client.Run(ctx, a.Code, b.String())
			}
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			if result.Error != "" {
				fmt.Printf("--- error (%dms) ---\n%s\n", result.TimeMS, result.Error)
			} else {
				fmt.Printf("--- output (%dms) ---\n%s\n", result.TimeMS, result.Output)
			}

		case "time":
			if clock.Expired() {
				fmt.Println("Time is up.")
			} else if r := clock.Remaining(); r > 0 {
				fmt.Println(fmtDuration(r), "remaining")
			} else {
				fmt.Println("No countdown running.")
			}

		case "submit":
			receipt, err := coordinator.Submit(ctx, false)
			if err != nil {
				fmt.Println("Submit failed, your answers are kept locally. Try again:", err)
				continue
			}
			if receipt.AlreadySubmitted {
				fmt.Println("Already submitted.")
			} else {
				fmt.Printf("Submitted %d answers. Thank you.\n", receipt.AnswersSent)
			}
			return

		case "quit", "exit":
			fmt.Println("Your answers stay saved locally. Bye.")
			return

		default:
			fmt.Println("Unknown command.")
		}
	}
}

func showSummary(ctx context.Context, client *taker.Client) {
	summary, err := client.ExamSummary(ctx)
	if err != nil {
		fmt.Println("Could not load exam summary:", err)
		return
	}
	fmt.Printf("This exam has %d questions (%d Python, %d SQL), %d marks total.\n",
		summary.TotalQuestions, summary.PythonQuestions, summary.SQLQuestions, summary.TotalMarks)
}

func fmtDuration(seconds int) string {
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
