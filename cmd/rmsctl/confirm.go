package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// promptConfirmer asks a yes/no question on out and reads the answer from in.
// With assumeYes set it answers yes without prompting.
type promptConfirmer struct {
	in        *bufio.Reader
	out       io.Writer
	assumeYes bool
}

func newPromptConfirmer(in io.Reader, out io.Writer, assumeYes bool) *promptConfirmer {
	return &promptConfirmer{in: bufio.NewReader(in), out: out, assumeYes: assumeYes}
}

// Confirm implements workflow.Confirmer. Only "y" and "yes" accept; end of
// input declines.
func (p *promptConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	if p.assumeYes {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(p.out, "%s [y/N]: ", prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
