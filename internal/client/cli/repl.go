package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	isAdmin() bool
	Browse(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Inquire(ctx context.Context, args []string) error
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Stats(ctx context.Context) error
	CreateProperty(ctx context.Context) error
	UpdateProperty(ctx context.Context, args []string) error
	DeleteProperty(ctx context.Context, args []string) error
	ListInquiries(ctx context.Context, args []string) error
	MarkInquiryRead(ctx context.Context, args []string) error
}

const (
	helpAnonymous = "Available commands: (b)rowse, show, inquire, register, login, stats, exit"
	helpUser      = "Available commands: (b)rowse, show, inquire, whoami, logout, stats, exit"
	helpAdmin     = helpUser + "\n" +
		"Admin commands: create, update <id>, delete <id>, inquiries [skip] [limit], read <id>"
)

// runREPL starts a simple read–eval–print loop for the Homes CLI.
//
// It reads a line from reader, parses the first token as the command and
// passes the rest as arguments. The loop exits on EOF or when the user
// types "exit" or "quit". Admin commands are only dispatched while the
// session carries the ADMIN role; the catalog service enforces the same
// rule again.
//
// Handlers prompt through the same reader, so it must not be wrapped in a
// buffering scanner here. Handlers print their own errors, so the loop
// ignores them.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("homes %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			switch {
			case a.isAdmin():
				printlnFn(helpAdmin)
			case a.isLoggedIn():
				printlnFn(helpUser)
			default:
				printlnFn(helpAnonymous)
			}

		case "b", "browse":
			_ = a.Browse(ctx, args)

		case "show":
			_ = a.Show(ctx, args)

		case "inquire":
			_ = a.Inquire(ctx, args)

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "stats":
			_ = a.Stats(ctx)

		case "create", "update", "delete", "inquiries", "read":
			if !a.isAdmin() {
				printlnFn("Admin access required")
				continue
			}
			switch cmd {
			case "create":
				_ = a.CreateProperty(ctx)
			case "update":
				_ = a.UpdateProperty(ctx, args)
			case "delete":
				_ = a.DeleteProperty(ctx, args)
			case "inquiries":
				_ = a.ListInquiries(ctx, args)
			case "read":
				_ = a.MarkInquiryRead(ctx, args)
			}

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
