package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"
)

// ErrInputTerminated is returned when input ends before an answer is given.
var ErrInputTerminated = errors.New("input terminated")

// Prompter asks the user questions on a terminal.
type Prompter struct {
	writer io.Writer
	reader *NonBlockingReader
}

// NewPrompter creates a prompter. Nil arguments default to stdin and stdout.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		reader: NewNonBlockingReader(reader),
		writer: writer,
	}
}

// Confirm asks a yes/no question. Anything but y or yes counts as no.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	if _, err := fmt.Fprintf(p.writer, "%s [y/N]: ", PromptStyle.Render(question)); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}

	answer, err := p.readLine(ctx)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Ask reads a free-form answer. An empty answer yields def.
func (p *Prompter) Ask(ctx context.Context, label, def string) (string, error) {
	prompt := label
	if def != "" {
		prompt = fmt.Sprintf("%s (%s)", label, def)
	}
	if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	answer, err := p.readLine(ctx)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// AskAmount reads a non-negative number, asking again until one is given.
func (p *Prompter) AskAmount(ctx context.Context, label string) (float64, error) {
	for {
		answer, err := p.Ask(ctx, label, "")
		if err != nil {
			return 0, err
		}

		amount, err := ParseAmount(answer)
		if err == nil {
			return amount, nil
		}
		if _, werr := fmt.Fprintln(p.writer, FormatError(err.Error())); werr != nil {
			slog.Warn("failed to write error message", "error", werr)
		}
	}
}

func (p *Prompter) readLine(ctx context.Context) (string, error) {
	line, err := p.reader.ReadLine(ctx)
	if errors.Is(err, io.EOF) {
		return "", ErrInputTerminated
	}
	return line, err
}

// ParseAmount parses a money amount such as "12.50" or "$1,200".
func ParseAmount(s string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, errors.New("amount is required")
	}
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	if amount < 0 {
		return 0, fmt.Errorf("amount cannot be negative: %s", s)
	}
	return amount, nil
}

// NewProgressBar creates the progress bar used by long running commands.
func NewProgressBar(total int, description string, writer io.Writer) *progressbar.ProgressBar {
	if writer == nil {
		writer = os.Stderr
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(writer); err != nil {
				slog.Warn("failed to write newline after progress bar", "error", err)
			}
		}),
	)
}
