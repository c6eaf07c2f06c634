package dispatcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const CancelQuestion = "Are you sure you want to cancel this ticket?"

// Confirmer asks the user a blocking yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// Answer is a confirmation given up front, e.g. a --yes flag or a
// "confirm" field of a request.
type Answer bool

func (a Answer) Confirm(context.Context, string) (bool, error) {
	return bool(a), nil
}

type PromptConfirmer struct {
	In  io.Reader
	Out io.Writer
}

func (p PromptConfirmer) Confirm(_ context.Context, question string) (bool, error) {
	if _, err := fmt.Fprintf(p.Out, "%s [y/N] ", question); err != nil {
		return false, fmt.Errorf("could not write prompt: %w", err)
	}

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("could not read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
