// Package console runs the questionnaire interactively in a terminal.
package console

import (
	"adaptivestrategy/internal/model"
	"adaptivestrategy/internal/service"
	"adaptivestrategy/internal/tiebreak"
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// errQuit ends the run without reporting a failure
var errQuit = errors.New("quit")

// Console drives one respondent through the questionnaire over a line-based terminal
type Console struct {
	svc    *service.SessionService
	in     *bufio.Scanner
	out    io.Writer
	outDir string
	st     styles
}

// New creates a console reading answers from in and rendering to out.
// Exports are written to outDir.
func New(svc *service.SessionService, in io.Reader, out io.Writer, outDir string) *Console {
	return &Console{
		svc:    svc,
		in:     bufio.NewScanner(in),
		out:    out,
		outDir: outDir,
		st:     newStyles(out),
	}
}

// Run collects the profile, walks the questionnaire and offers export and restart
func (c *Console) Run(ctx context.Context) error {
	err := c.run(ctx)
	if errors.Is(err, errQuit) {
		c.println(c.st.muted.Render("Bye."))
		return nil
	}
	return err
}

func (c *Console) run(ctx context.Context) error {
	c.println(c.st.title.Render("EFL 학습전략 추천"))
	c.println(c.st.muted.Render("Answer each statement from 1 (strongly disagree) to 5 (strongly agree). Type q to quit."))

	profile, err := c.promptProfile()
	if err != nil {
		return err
	}

	session, _, err := c.svc.Create(ctx, profile)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	for {
		if err := c.answerPrimary(ctx, session.ID); err != nil {
			return err
		}
		session, err = c.resolve(ctx, session.ID)
		if err != nil {
			return err
		}
		c.renderResult(session)

		restart, err := c.resultMenu(ctx, session.ID)
		if err != nil {
			return err
		}
		if !restart {
			return errQuit
		}
		if session, err = c.svc.Restart(ctx, session.ID); err != nil {
			return err
		}
		c.println(c.st.notice.Render("Starting over."))
	}
}

func (c *Console) promptProfile() (model.UserProfile, error) {
	var p model.UserProfile
	fields := []struct {
		label string
		dst   *string
	}{
		{"Name", &p.Name},
		{"Education", &p.Education},
		{"Age", &p.Age},
	}
	for _, f := range fields {
		for strings.TrimSpace(*f.dst) == "" {
			line, err := c.prompt(f.label + ": ")
			if err != nil {
				return p, err
			}
			*f.dst = strings.TrimSpace(line)
			if *f.dst == "" {
				c.println(c.st.err.Render(f.label + " is required."))
			}
		}
	}
	return p, nil
}

func (c *Console) answerPrimary(ctx context.Context, id string) error {
	page, err := c.svc.QuestionPage(ctx, id, 0)
	if err != nil {
		return err
	}
	for n := 0; n < page.TotalPages; n++ {
		if page, err = c.svc.QuestionPage(ctx, id, n); err != nil {
			return err
		}
		c.println("")
		c.println(c.st.header.Render(fmt.Sprintf("Page %d/%d", page.Page+1, page.TotalPages)) +
			c.st.muted.Render(fmt.Sprintf("  (%d/%d answered)", page.Answered, page.Total)))
		for i, item := range page.Items {
			if item.Answer != nil {
				continue
			}
			label := fmt.Sprintf("%d. %s", n*page.PageSize+i+1, item.Question.Text)
			if err := c.askLikert(ctx, id, label, item.Question); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolve submits and follows supplementary rounds and the fallback until a result exists
func (c *Console) resolve(ctx context.Context, id string) (*tiebreak.Session, error) {
	session, err := c.svc.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	for {
		switch session.State {
		case tiebreak.StateResolved:
			return session, nil

		case tiebreak.StateEscalatingFallback:
			c.println(c.st.err.Render("Fallback recommendation failed: " + session.LastError))
			retry, err := c.confirm("Retry the fallback recommendation? [Y/n] ")
			if err != nil {
				return nil, err
			}
			if !retry {
				return session, nil
			}
			if session, err = c.call(func() (*tiebreak.Session, error) { return c.svc.RetryFallback(ctx, id) }); err != nil {
				return nil, err
			}

		case tiebreak.StateAwaitingRequestionAnswers:
			if session.Missing() > 0 {
				if err := c.answerRequestion(ctx, session); err != nil {
					return nil, err
				}
			}
			if session, err = c.submit(ctx, id); err != nil {
				return nil, err
			}

		case tiebreak.StateAwaitingPrimaryAnswers:
			if session, err = c.submit(ctx, id); err != nil {
				return nil, err
			}

		default:
			return nil, fmt.Errorf("session %s is %s", id, session.State)
		}
	}
}

func (c *Console) submit(ctx context.Context, id string) (*tiebreak.Session, error) {
	c.println(c.st.muted.Render("Submitting..."))
	session, err := c.call(func() (*tiebreak.Session, error) { return c.svc.Submit(ctx, id) })
	if err != nil || session.State == tiebreak.StateEscalatingFallback || session.LastError == "" {
		return session, err
	}

	c.println(c.st.err.Render(session.LastError))
	retry, err := c.confirm("Retry? [Y/n] ")
	if err != nil {
		return nil, err
	}
	if !retry {
		return nil, errQuit
	}
	return session, nil
}

// call runs an operation that may reach the recommendation service. Service outages come
// back with a snapshot recording the error, which the caller renders.
func (c *Console) call(op func() (*tiebreak.Session, error)) (*tiebreak.Session, error) {
	session, err := op()
	if errors.Is(err, service.ErrRecommenderUnavailable) && session != nil {
		return session, nil
	}
	return session, err
}

func (c *Console) answerRequestion(ctx context.Context, session *tiebreak.Session) error {
	view := service.NewSessionView(session)
	c.println("")
	c.println(c.st.notice.Render(view.Notice))
	c.println(c.st.header.Render(fmt.Sprintf("Additional questions (round %d/%d)",
		view.Requestion.Round, view.Requestion.MaxRounds)))
	for i, item := range view.Requestion.Items {
		if item.Answer != nil {
			continue
		}
		label := fmt.Sprintf("R%d. %s", i+1, item.Question.Text)
		if err := c.askLikert(ctx, session.ID, label, item.Question); err != nil {
			return err
		}
	}
	return nil
}

func (c *Console) askLikert(ctx context.Context, id, label string, q model.Question) error {
	lo, hi := q.Bounds()
	c.println(label)
	for {
		line, err := c.prompt(fmt.Sprintf("  (%d-%d): ", lo, hi))
		if err != nil {
			return err
		}
		value, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || !q.Accepts(value) {
			c.println(c.st.err.Render(fmt.Sprintf("  Enter a number from %d to %d.", lo, hi)))
			continue
		}
		_, err = c.svc.Answer(ctx, id, q.QuestionID, value)
		if errors.Is(err, tiebreak.ErrInvalidAnswer) {
			c.println(c.st.err.Render("  " + err.Error()))
			continue
		}
		return err
	}
}

func (c *Console) renderResult(session *tiebreak.Session) {
	view := service.NewSessionView(session)
	r := view.Result
	if r == nil {
		return
	}

	var b strings.Builder
	b.WriteString(c.st.accent.Render("Recommended strategy: "+r.Strategy) + "\n")
	if r.Guide != nil {
		b.WriteString(c.st.header.Render(r.Guide.Title) + "\n")
		b.WriteString(r.Guide.Summary + "\n")
		b.WriteString(c.st.muted.Render(r.Guide.Definition) + "\n")
		for _, tip := range r.Guide.Tips {
			b.WriteString("  • " + tip + "\n")
		}
	}
	if r.Fallback != nil {
		b.WriteString("\n" + c.st.header.Render("Why") + "\n" + r.Reason + "\n")
	} else if r.Reason != "" {
		b.WriteString("\n" + r.Reason + "\n")
	}
	if !r.Final {
		b.WriteString(c.st.notice.Render("Provisional: the fallback decision is not available.") + "\n")
	}

	b.WriteString("\n" + c.st.header.Render("Top EQ subscales") + "\n")
	writeScores(&b, r.TopEQ)
	b.WriteString(c.st.header.Render("Top FLA subscales") + "\n")
	writeScores(&b, r.TopFLA)

	if len(r.Recommendation.StrategyRanking) > 0 {
		b.WriteString(c.st.header.Render("Strategy ranking") + "\n")
		for i, s := range r.Recommendation.StrategyRanking {
			fmt.Fprintf(&b, "  %d. %-16s %.3f\n", i+1, s.StrategySubscale, s.Score)
		}
	}
	if len(r.Recommendation.Candidates) > 0 {
		b.WriteString(c.st.header.Render("Candidates") + "\n")
		for _, cand := range r.Recommendation.Candidates {
			fmt.Fprintf(&b, "  %s/%s → %s  r=%.2f  score=%.3f\n",
				cand.Driver, cand.DriverSubscale, cand.StrategySubscale, cand.Correlation, cand.FinalScore)
		}
	}

	c.println("")
	c.println(c.st.card.Render(strings.TrimRight(b.String(), "\n")))
}

func writeScores(b *strings.Builder, scores []model.ScoreEntry) {
	for _, s := range scores {
		fmt.Fprintf(b, "  %-24s %.2f\n", s.Name, s.Score)
	}
}

// resultMenu handles export and reports whether the user wants to start over
func (c *Console) resultMenu(ctx context.Context, id string) (bool, error) {
	for {
		line, err := c.prompt("[s] save  [r] restart  [q] quit: ")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "s", "save":
			path, err := c.save(ctx, id)
			if err != nil {
				c.println(c.st.err.Render("Save failed: " + err.Error()))
				continue
			}
			c.println(c.st.accent.Render("Saved results to " + path))
		case "r", "restart":
			return true, nil
		case "q", "quit":
			return false, nil
		}
	}
}

func (c *Console) save(ctx context.Context, id string) (string, error) {
	export, fileName, err := c.svc.Export(ctx, id)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(c.outDir, fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (c *Console) confirm(question string) (bool, error) {
	line, err := c.prompt(question)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y", "yes":
		return true, nil
	}
	return false, nil
}

// prompt reads one line. "q" and end of input both quit.
func (c *Console) prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	line := c.in.Text()
	if strings.TrimSpace(line) == "q" {
		return "", errQuit
	}
	return line, nil
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}
