package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	admin    bool

	calls []string
	args  [][]string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) isAdmin() bool { return f.admin }

func (f *fakeExec) call(name string, args []string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return nil
}

func (f *fakeExec) Browse(_ context.Context, args []string) error { return f.call("browse", args) }
func (f *fakeExec) Show(_ context.Context, args []string) error { return f.call("show", args) }
func (f *fakeExec) Inquire(_ context.Context, args []string) error { return f.call("inquire", args) }
func (f *fakeExec) Register(context.Context) error { return f.call("register", nil) }
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.call("login", nil)
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn, f.admin = false, false
	return f.call("logout", nil)
}
func (f *fakeExec) WhoAmI(context.Context) error { return f.call("whoami", nil) }
func (f *fakeExec) Stats(context.Context) error { return f.call("stats", nil) }
func (f *fakeExec) CreateProperty(context.Context) error { return f.call("create", nil) }
func (f *fakeExec) UpdateProperty(_ context.Context, args []string) error {
	return f.call("update", args)
}
func (f *fakeExec) DeleteProperty(_ context.Context, args []string) error {
	return f.call("delete", args)
}
func (f *fakeExec) ListInquiries(_ context.Context, args []string) error {
	return f.call("inquiries", args)
}
func (f *fakeExec) MarkInquiryRead(_ context.Context, args []string) error {
	return f.call("read", args)
}

func runLines(t *testing.T, f *fakeExec, lines ...string) []string {
	t.Helper()
	printed := captureOutput(t)
	r := bufio.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	runREPL(context.Background(), f, func() string { return "" }, r)
	return *printed
}

func TestRunREPL_DispatchesWithArgs(t *testing.T) {
	f := &fakeExec{}
	runLines(t, f,
		"browse type=RENT city=Tirupur",
		"",
		"b",
		"show garden-villa",
		"inquire 5",
		"login",
		"whoami",
		"logout",
		"register",
		"stats",
	)

	assert.Equal(t, []string{"browse", "browse", "show", "inquire", "login", "whoami", "logout", "register", "stats"}, f.calls)
	assert.Equal(t, []string{"type=RENT", "city=Tirupur"}, f.args[0])
	assert.Empty(t, f.args[1])
	assert.Equal(t, []string{"garden-villa"}, f.args[2])
}

func TestRunREPL_AdminCommandsRequireRole(t *testing.T) {
	f := &fakeExec{loggedIn: true}
	printed := runLines(t, f, "create", "delete 3", "inquiries")

	assert.Empty(t, f.calls)
	assert.Contains(t, printed, "Admin access required")

	f = &fakeExec{loggedIn: true, admin: true}
	runLines(t, f, "create", "update 4", "delete 3", "inquiries 0 10", "read 2")
	assert.Equal(t, []string{"create", "update", "delete", "inquiries", "read"}, f.calls)
	assert.Equal(t, []string{"0", "10"}, f.args[3])
}

func TestRunREPL_HelpDependsOnRole(t *testing.T) {
	cases := []struct {
		name string
		exec *fakeExec
		want string
	}{
		{name: "anonymous", exec: &fakeExec{}, want: helpAnonymous},
		{name: "user", exec: &fakeExec{loggedIn: true}, want: helpUser},
		{name: "admin", exec: &fakeExec{loggedIn: true, admin: true}, want: helpAdmin},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			printed := runLines(t, tc.exec, "help")
			assert.Contains(t, printed, tc.want)
		})
	}
}

func TestRunREPL_ExitAndUnknown(t *testing.T) {
	f := &fakeExec{}
	printed := runLines(t, f, "frobnicate", "exit", "browse")

	assert.Contains(t, printed, "Unknown command: frobnicate")
	assert.Contains(t, printed, "Bye!")
	assert.Empty(t, f.calls, "commands after exit must not run")
}
