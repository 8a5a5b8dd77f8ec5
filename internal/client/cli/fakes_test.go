package cli

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/homes/internal/client/cache"
	"github.com/dmitrijs2005/homes/internal/client/models"
	"github.com/dmitrijs2005/homes/internal/client/query"
	"github.com/dmitrijs2005/homes/internal/client/services"
	"github.com/dmitrijs2005/homes/internal/logging"
)

type fakeSessions struct {
	session models.Session

	loginEmail, loginPassword string
	loginRes                  services.AuthResult

	registration models.Registration
	registerRes  services.AuthResult

	logoutCalled bool
	logoutErr    error
}

func (f *fakeSessions) Session() models.Session { return f.session }
func (f *fakeSessions) Subscribe(func(models.Session)) func() {
	return func() {}
}
func (f *fakeSessions) Login(_ context.Context, email, password string) services.AuthResult {
	f.loginEmail, f.loginPassword = email, password
	if f.loginRes.Success {
		f.session = f.loginRes.Session
	}
	return f.loginRes
}
func (f *fakeSessions) RegisterAndLogin(_ context.Context, r models.Registration) services.AuthResult {
	f.registration = r
	if f.registerRes.Success {
		f.session = f.registerRes.Session
	}
	return f.registerRes
}
func (f *fakeSessions) Logout(context.Context) error {
	f.logoutCalled = true
	f.session = models.Session{State: models.StateAnonymous}
	return f.logoutErr
}

// access derives answers from the fake session so both stay consistent.
type fakeAccess struct{ s *fakeSessions }

func (f fakeAccess) IsAuthenticated() bool { return f.s.session.IsAuthenticated() }
func (f fakeAccess) CanAccess(r models.Role) bool {
	return f.s.session.IsAuthenticated() && f.s.session.User.Role.Satisfies(r)
}

type fakeCatalog struct {
	calls []string

	descriptor query.Descriptor
	listRes    cache.Result[[]models.Property]
	listErr    error

	propertyRes cache.Result[models.Property]
	propertyErr error
	lookupID    int64
	lookupSlug  string

	inquiry    models.Inquiry
	inquiryErr error

	input     models.PropertyInput
	updatedID int64
	deletedID int64
	mutateErr error

	skip, limit  int
	inquiriesRes cache.Result[[]models.InquiryRecord]
	readID       int64
}

func (f *fakeCatalog) record(name string) { f.calls = append(f.calls, name) }

func (f *fakeCatalog) Properties(_ context.Context, d query.Descriptor) (cache.Result[[]models.Property], error) {
	f.record("properties")
	f.descriptor = d
	return f.listRes, f.listErr
}
func (f *fakeCatalog) Refresh(_ context.Context, d query.Descriptor) (cache.Result[[]models.Property], error) {
	f.record("refresh")
	f.descriptor = d
	return f.listRes, f.listErr
}
func (f *fakeCatalog) Property(_ context.Context, id int64) (cache.Result[models.Property], error) {
	f.record("property")
	f.lookupID = id
	return f.propertyRes, f.propertyErr
}
func (f *fakeCatalog) PropertyBySlug(_ context.Context, slug string) (cache.Result[models.Property], error) {
	f.record("slug")
	f.lookupSlug = slug
	return f.propertyRes, f.propertyErr
}
func (f *fakeCatalog) SubmitInquiry(_ context.Context, in models.Inquiry) (models.InquiryConfirmation, error) {
	f.record("inquiry")
	f.inquiry = in
	if f.inquiryErr != nil {
		return models.InquiryConfirmation{}, f.inquiryErr
	}
	return models.InquiryConfirmation{ID: 7, PropertyID: in.PropertyID}, nil
}
func (f *fakeCatalog) CreateProperty(_ context.Context, in models.PropertyInput) (models.Property, error) {
	f.record("create")
	f.input = in
	return models.Property{ID: 100, Slug: "new-listing"}, f.mutateErr
}
func (f *fakeCatalog) UpdateProperty(_ context.Context, id int64, in models.PropertyInput) (models.Property, error) {
	f.record("update")
	f.updatedID, f.input = id, in
	return models.Property{ID: id}, f.mutateErr
}
func (f *fakeCatalog) DeleteProperty(_ context.Context, id int64) error {
	f.record("delete")
	f.deletedID = id
	return f.mutateErr
}
func (f *fakeCatalog) Inquiries(_ context.Context, skip, limit int) (cache.Result[[]models.InquiryRecord], error) {
	f.record("inquiries")
	f.skip, f.limit = skip, limit
	return f.inquiriesRes, f.mutateErr
}
func (f *fakeCatalog) MarkInquiryRead(_ context.Context, id int64) error {
	f.record("read")
	f.readID = id
	return f.mutateErr
}

type testApp struct {
	*App
	sessions *fakeSessions
	catalog  *fakeCatalog
	out      *bytes.Buffer
	printed  *[]string
}

// newTestApp builds an App reading the given lines and capturing output.
func newTestApp(t *testing.T, lines ...string) testApp {
	t.Helper()
	s := &fakeSessions{session: models.Session{State: models.StateAnonymous}}
	c := &fakeCatalog{}
	out := &bytes.Buffer{}
	printed := captureOutput(t)

	app := NewApp(s, c, fakeAccess{s: s}, logging.Nop())
	app.reader = bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
	app.out = out
	return testApp{App: app, sessions: s, catalog: c, out: out, printed: printed}
}

func (ta testApp) signIn(role models.Role) {
	ta.sessions.session = models.Session{
		State: models.StateAuthenticated,
		User:  &models.User{ID: 1, Email: "asha@example.com", Name: "Asha", Role: role},
		Token: "tok",
	}
}

func (ta testApp) printedText() string { return strings.Join(*ta.printed, "\n") }

// captureOutput swaps printlnFn for a recorder.
func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

// stubPasswords makes getPassword return the given values in order.
func stubPasswords(t *testing.T, pws ...string) {
	t.Helper()
	orig := getPassword
	getPassword = func(string, io.Writer) (string, error) {
		if len(pws) == 0 {
			return "", io.EOF
		}
		pw := pws[0]
		pws = pws[1:]
		return pw, nil
	}
	t.Cleanup(func() { getPassword = orig })
}
