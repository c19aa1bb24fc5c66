package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLinked() bool
	Status(ctx context.Context) error
	Connect(ctx context.Context) error
	Callback(ctx context.Context, args []string) error
	Dismiss(ctx context.Context) error
	Disconnect(ctx context.Context) error
	CheckIn(ctx context.Context, args []string) error
	Cancel(ctx context.Context, args []string) error
	Wait(ctx context.Context, args []string) error
	Pending(ctx context.Context) error
	Comment(ctx context.Context, args []string) error
	Rate(ctx context.Context, args []string) error
	AddTitle(ctx context.Context, args []string) error
	Titles(ctx context.Context) error
	Refresh(ctx context.Context) error
}

const (
	helpUnlinked = "Available commands: status, connect, callback <url>, dismiss, title add, titles, exit"
	helpLinked   = "Available commands: status, checkin, cancel, wait, pending, comment, rate, title add, titles, refresh, disconnect, exit"
)

// runREPL reads commands line by line and dispatches them to a. Command
// handlers print their own results; the loop only reports usage errors and
// unknown commands. It returns on EOF, ctx cancellation or "exit"/"quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("sgt %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLinked() {
				printlnFn(helpLinked)
			} else {
				printlnFn(helpUnlinked)
			}

		case "status":
			err = a.Status(ctx)
		case "connect":
			err = a.Connect(ctx)
		case "callback":
			err = a.Callback(ctx, args)
		case "dismiss":
			err = a.Dismiss(ctx)
		case "disconnect":
			err = a.Disconnect(ctx)
		case "checkin":
			err = a.CheckIn(ctx, args)
		case "cancel":
			err = a.Cancel(ctx, args)
		case "wait":
			err = a.Wait(ctx, args)
		case "pending":
			err = a.Pending(ctx)
		case "comment":
			err = a.Comment(ctx, args)
		case "rate":
			err = a.Rate(ctx, args)
		case "title":
			if len(args) == 0 || args[0] != "add" {
				err = usageError(usageTitleAdd)
			} else {
				err = a.AddTitle(ctx, args[1:])
			}
		case "titles":
			err = a.Titles(ctx)
		case "refresh":
			err = a.Refresh(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		var usage usageError
		if errors.As(err, &usage) {
			printlnFn(usage.Error())
		}
	}
}
