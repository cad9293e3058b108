package hitl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/meridian-grc/riskflow/internal/model"
)

// TerminalReviewer collects a decision interactively. It writes the review
// packet to out and reads the officer's choice from in.
type TerminalReviewer struct {
	in  io.Reader
	out io.Writer
}

func NewTerminalReviewer(in io.Reader, out io.Writer) *TerminalReviewer {
	return &TerminalReviewer{in: in, out: out}
}

func (r *TerminalReviewer) Review(ctx context.Context, s *model.RequestState, draft string) (Decision, error) {
	fmt.Fprintln(r.out, BuildReviewPacket(s, draft))

	scanner := bufio.NewScanner(r.in)
	for {
		if err := ctx.Err(); err != nil {
			return Decision{}, err
		}
		fmt.Fprint(r.out, "Decision [a]pprove / [e]dit / [r]eject: ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return Decision{}, eris.Wrap(err, "hitl: read reviewer decision")
			}
			return Decision{}, ErrNoReviewer
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "a", "approve":
			return Decision{
				Action: ActionApprove,
				Notes:  r.promptLine(scanner, "Reviewer notes (optional): "),
				Source: SourceHuman,
			}, nil
		case "e", "edit":
			edited := r.promptLine(scanner, "Edited response: ")
			if strings.TrimSpace(edited) == "" {
				fmt.Fprintln(r.out, "edited response cannot be empty")
				continue
			}
			return Decision{
				Action:         ActionEdit,
				Notes:          r.promptLine(scanner, "Reviewer notes (optional): "),
				EditedResponse: edited,
				Source:         SourceHuman,
			}, nil
		case "r", "reject":
			return Decision{
				Action: ActionReject,
				Notes:  r.promptLine(scanner, "Rejection notes: "),
				Source: SourceHuman,
			}, nil
		default:
			fmt.Fprintln(r.out, "unrecognized choice")
		}
	}
}

func (r *TerminalReviewer) promptLine(scanner *bufio.Scanner, prompt string) string {
	fmt.Fprint(r.out, prompt)
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(scanner.Text())
}
