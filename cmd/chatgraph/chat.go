package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/tailored-agentic-units/chatgraph/server"
)

// turn submits text and writes the answer as it is displayed. Each update
// extends the previous one, so only the new suffix is printed.
func turn(ctx context.Context, sub server.Submitter, threadID, text string, out io.Writer) error {
	var shown string
	for chunk, err := range sub.Submit(ctx, threadID, text) {
		if err != nil {
			if shown != "" {
				fmt.Fprintln(out)
			}
			return err
		}
		if strings.HasPrefix(chunk.Text, shown) {
			fmt.Fprint(out, chunk.Text[len(shown):])
		} else {
			fmt.Fprint(out, "\n"+chunk.Text)
		}
		shown = chunk.Text
	}
	fmt.Fprintln(out)
	return nil
}

// repl runs one turn per input line. Turn failures are reported and the loop
// continues.
func repl(ctx context.Context, sub server.Submitter, threadID string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		}

		if err := turn(ctx, sub, threadID, line, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}
