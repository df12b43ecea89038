package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oasip/internal/app/api"
	"oasip/internal/app/session"
	"oasip/internal/app/tokenstore"
	"oasip/internal/pkg/errs"
	"oasip/internal/testutil/fakeapi"
)

type testEnv struct {
	srv    *fakeapi.Server
	deps   *AppDeps
	router *Router
	tokens tokenstore.TokenStore
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	srv := fakeapi.New(t)
	tokens := tokenstore.NewMemoryStore()
	client, err := api.New(api.Config{BaseURL: srv.URL}, tokens)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	registry := session.NewRegistry()
	provider := session.NewProvider(client, tokens, registry, session.Config{})
	t.Cleanup(provider.Close)
	require.NoError(t, provider.Preload(context.Background()))

	env := &testEnv{srv: srv, tokens: tokens, stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}}
	env.deps = &AppDeps{
		Client:   client,
		Session:  provider,
		Registry: registry,
		Stdout:   env.stdout,
		Stderr:   env.stderr,
	}
	env.router = NewRouter(env.deps)
	return env
}

// run dispatches argv and decodes stdout into out.
func (e *testEnv) run(t *testing.T, out any, argv ...string) error {
	t.Helper()
	e.stdout.Reset()
	err := e.router.Dispatch(context.Background(), argv)
	if err == nil && out != nil {
		require.NoError(t, json.Unmarshal(e.stdout.Bytes(), out), e.stdout.String())
	}
	return err
}

func (e *testEnv) login(t *testing.T, email string) {
	t.Helper()
	require.NoError(t, e.run(t, nil, "login", "-email", email, "-password", fakeapi.Password))
}

func TestDispatch_Usage(t *testing.T) {
	env := newTestEnv(t)

	assert.ErrorIs(t, env.run(t, nil), ErrUsage)
	assert.Contains(t, env.stderr.String(), "event-create")

	env.stderr.Reset()
	assert.ErrorIs(t, env.run(t, nil, "book-everything"), ErrUsage)
	assert.Contains(t, env.stderr.String(), `unknown command "book-everything"`)

	err := env.run(t, nil, "-query", "[?", "whoami")
	assert.True(t, errs.Is(err, errs.ErrInvalidParams))
}

func TestWhoAmI_LoginLogout(t *testing.T) {
	env := newTestEnv(t)

	var state session.State
	require.NoError(t, env.run(t, &state, "whoami"))
	assert.Equal(t, session.StatusAnonymous, state.Status)

	require.NoError(t, env.run(t, &state, "login", "-email", fakeapi.AdminEmail, "-password", fakeapi.Password))
	assert.Equal(t, session.StatusAuthenticated, state.Status)
	assert.True(t, state.IsAdmin)
	assert.Equal(t, fakeapi.AdminEmail, state.User.Email)

	token, err := env.tokens.Get(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	require.NoError(t, env.run(t, &state, "logout"))
	assert.Equal(t, session.StatusAnonymous, state.Status)
	token, err = env.tokens.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)

	err := env.run(t, nil, "login", "-email", fakeapi.StudentEmail, "-password", "wrong-pass")
	assert.True(t, errs.Is(err, errs.ErrUnauthorized))
	assert.Equal(t, session.StatusAnonymous, env.deps.Session.State().Status)
}

func TestMatch(t *testing.T) {
	env := newTestEnv(t)

	var out struct {
		Match bool `json:"match"`
	}
	require.NoError(t, env.run(t, &out, "match", "-email", fakeapi.StudentEmail, "-password", fakeapi.Password))
	assert.True(t, out.Match)

	require.NoError(t, env.run(t, &out, "match", "-email", fakeapi.StudentEmail, "-password", "nope-nope"))
	assert.False(t, out.Match)
}

func TestEvents_Query(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, fakeapi.StudentEmail)

	var events []api.Event
	require.NoError(t, env.run(t, &events, "events"))
	require.Len(t, events, 1)
	assert.Equal(t, "seeded", events[0].EventNotes)

	var names []string
	require.NoError(t, env.run(t, &names, "-query", "[].bookingEmail", "events", "-category", "1"))
	assert.Equal(t, []string{fakeapi.StudentEmail}, names)

	err := env.run(t, nil, "events", "-type", "day")
	assert.True(t, errs.Is(err, errs.ErrInvalidParams))

	err = env.run(t, nil, "events", "-start", "tomorrow")
	assert.True(t, errs.Is(err, errs.ErrInvalidParams))
}

func TestEventLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, fakeapi.StudentEmail)

	attachment := filepath.Join(t.TempDir(), "plan.txt")
	require.NoError(t, os.WriteFile(attachment, []byte("project plan"), 0o600))

	var created api.Event
	require.NoError(t, env.run(t, &created, "event-create",
		"-category", "2",
		"-name", "Student",
		"-email", fakeapi.StudentEmail,
		"-start", "2030-06-01T10:00:00Z",
		"-notes", "first visit",
		"-file", attachment,
	))
	assert.Equal(t, "first visit", created.EventNotes)
	require.NotEmpty(t, created.BucketUUID)

	var name struct {
		FileName string `json:"fileName"`
	}
	require.NoError(t, env.run(t, &name, "file-name", "-uuid", created.BucketUUID))
	assert.Equal(t, "plan.txt", name.FileName)

	var updated api.Event
	id := strconv.Itoa(created.ID)
	require.NoError(t, env.run(t, &updated, "event-update", "-id", id, "-notes", "moved", "-delete-file"))
	assert.Equal(t, "moved", updated.EventNotes)
	assert.Empty(t, updated.BucketUUID)

	err := env.run(t, nil, "event-update", "-id", id, "-file", attachment, "-delete-file")
	assert.True(t, errs.Is(err, errs.ErrInvalidParams))

	var got api.Event
	require.NoError(t, env.run(t, &got, "event", "-id", id))
	assert.Equal(t, "moved", got.EventNotes)

	var deleted struct {
		Deleted bool `json:"deleted"`
	}
	require.NoError(t, env.run(t, &deleted, "event-delete", "-id", id))
	assert.True(t, deleted.Deleted)

	err = env.run(t, nil, "event", "-id", id)
	assert.True(t, errs.Is(err, errs.ErrNotFound))
}

func TestEventCreate_Overlap(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, fakeapi.StudentEmail)

	err := env.run(t, nil, "event-create",
		"-category", "1",
		"-name", "Student",
		"-email", fakeapi.StudentEmail,
		"-start", "2030-05-01T09:10:00Z",
	)
	var customErr *errs.CustomError
	require.True(t, errors.As(err, &customErr))
	assert.Equal(t, errs.ErrBadRequest, customErr.Code)
	assert.Contains(t, customErr.Details["eventStartTime"], "overlaps")
}

func TestEventCreate_MissingFlags(t *testing.T) {
	env := newTestEnv(t)

	err := env.run(t, nil, "event-create", "-category", "1")
	var customErr *errs.CustomError
	require.True(t, errors.As(err, &customErr))
	assert.Contains(t, customErr.Details, "name")
	assert.Contains(t, customErr.Details, "email")
	assert.Contains(t, customErr.Details, "start")
}

func TestSlots(t *testing.T) {
	env := newTestEnv(t)

	var slots []api.TimeSlot
	require.NoError(t, env.run(t, &slots, "slots", "-category", "1", "-start", "2030-05-01T00:00:00Z"))
	require.Len(t, slots, 1)
	assert.Equal(t, 30, slots[0].EventDuration)

	require.NoError(t, env.run(t, &slots, "slots", "-category", "1", "-start", "2030-05-01T00:00:00Z", "-exclude", "1"))
	assert.Empty(t, slots)
}

func TestCategories(t *testing.T) {
	env := newTestEnv(t)

	var all []api.Category
	require.NoError(t, env.run(t, &all, "categories"))
	assert.Len(t, all, 2)

	env.login(t, fakeapi.LecturerEmail)
	var owned []api.Category
	require.NoError(t, env.run(t, &owned, "categories", "-lecturer"))
	require.Len(t, owned, 1)
	assert.Equal(t, 1, owned[0].ID)

	var updated api.Category
	require.NoError(t, env.run(t, &updated, "category-update", "-id", "2", "-duration", "45"))
	assert.Equal(t, 45, updated.EventDuration)
	assert.Equal(t, "DevOps/Infra Clinic", updated.EventCategoryName)
}

func TestUsers(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, fakeapi.AdminEmail)

	var roles []string
	require.NoError(t, env.run(t, &roles, "roles"))
	assert.ElementsMatch(t, []string{"ADMIN", "LECTURER", "STUDENT"}, roles)

	var created api.Account
	require.NoError(t, env.run(t, &created, "user-create",
		"-name", "  New Student ",
		"-email", "new@oasip.test",
		"-password", "secret-123",
		"-role", "STUDENT",
	))
	assert.Equal(t, "New Student", created.Name)

	id := strconv.Itoa(created.ID)
	var updated api.Account
	require.NoError(t, env.run(t, &updated, "user-update", "-id", id, "-role", "LECTURER"))
	assert.Equal(t, "LECTURER", string(updated.Role))
	assert.Equal(t, "New Student", updated.Name)

	var emails []string
	require.NoError(t, env.run(t, &emails, "-query", "[].email", "users"))
	assert.Contains(t, emails, "new@oasip.test")

	require.NoError(t, env.run(t, nil, "user-delete", "-id", id))
	err := env.run(t, nil, "user", "-id", id)
	assert.True(t, errs.Is(err, errs.ErrNotFound))
}

func TestUserCreate_ValidatesLocally(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, fakeapi.AdminEmail)

	err := env.run(t, nil, "user-create", "-name", "x", "-email", "x@oasip.test", "-password", "short")
	var customErr *errs.CustomError
	require.True(t, errors.As(err, &customErr))
	assert.Equal(t, errs.ErrInvalidParams, customErr.Code)
	assert.Contains(t, customErr.Details, "password")
}

func TestFileDownload(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, fakeapi.StudentEmail)
	id := env.srv.AddFile("minutes.txt", "text/plain", []byte("minutes"))
	out := filepath.Join(t.TempDir(), "saved.txt")

	var result struct {
		Path  string `json:"path"`
		Bytes int64  `json:"bytes"`
	}
	require.NoError(t, env.run(t, &result, "file-download", "-uuid", id, "-o", out))
	assert.Equal(t, out, result.Path)
	assert.EqualValues(t, len("minutes"), result.Bytes)

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "minutes", string(content))
}

func TestFileMirror_NotConfigured(t *testing.T) {
	env := newTestEnv(t)
	env.login(t, fakeapi.StudentEmail)

	err := env.run(t, nil, "file-mirror", "-uuid", "anything")
	assert.True(t, errs.Is(err, errs.ErrFileStorageFailed))
}

func TestRenderError(t *testing.T) {
	var buf bytes.Buffer
	RenderError(&buf, errs.NewError(errs.ErrBadRequest).WithStatus(400).WithDetails(map[string]string{"bookingName": "must not be blank"}))

	var body map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &body))
	assert.EqualValues(t, errs.ErrBadRequest, body["code"])
	assert.EqualValues(t, 400, body["status"])
	assert.Equal(t, map[string]any{"bookingName": "must not be blank"}, body["details"])

	buf.Reset()
	RenderError(&buf, errors.New("boom"))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &body))
	assert.EqualValues(t, errs.ErrUnknown, body["code"])
	assert.Equal(t, "boom", body["message"])
}
