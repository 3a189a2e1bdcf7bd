package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"profile_sync/internal/accounts"
	"profile_sync/internal/config"
	"profile_sync/internal/logbus"
	"profile_sync/internal/model"
	"profile_sync/internal/provider/gologin"
	"profile_sync/internal/provider/gologin/gologintest"
	"profile_sync/internal/store/sqlite"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

const token = "engine-token"

func ptr(s string) *string { return &s }

type env struct {
	fake  *gologintest.Server
	store *sqlite.Store
	prov  *Provisioner
	logs  *observer.ObservedLogs
}

type recordingNotifier struct {
	mu        sync.Mutex
	summaries []model.BatchSummary
}

func (n *recordingNotifier) NotifyBatch(_ context.Context, s model.BatchSummary) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.summaries = append(n.summaries, s)
	return nil
}

func newEnv(t *testing.T, mutate func(*Options)) *env {
	t.Helper()
	ctx := context.Background()

	fake := gologintest.NewServer(token)
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := gologin.New(config.GoLoginConfig{BaseURL: srv.URL, QPS: 1000, Burst: 100}, token)
	require.NoError(t, err)

	store, err := sqlite.Open(ctx, sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	rows := []model.AccountRow{
		{Login: "alice", Cookies: ptr("c_user=1; xs=2; presence=p"), ProxyHost: ptr("10.0.0.1"), ProxyPort: ptr("3128")},
		{Login: "bob"},
		{Login: "carol", Cookies: ptr("datr=d")},
	}
	for _, r := range rows {
		require.NoError(t, store.UpsertAccount(ctx, model.NetworkFacebook, r))
	}

	core, logs := observer.New(zapcore.DebugLevel)
	opts := Options{
		API:      client,
		Accounts: accounts.NewFetcher(store),
		Logger:   zap.New(core),
	}
	if mutate != nil {
		mutate(&opts)
	}
	return &env{fake: fake, store: store, prov: New(opts), logs: logs}
}

func (e *env) storedProfileID(t *testing.T, login string) string {
	t.Helper()
	row, err := e.store.LookupAccount(context.Background(), model.NetworkFacebook, login)
	require.NoError(t, err)
	if row.ProfileID == nil {
		return ""
	}
	return *row.ProfileID
}

func cookies(names ...string) []model.Cookie {
	out := make([]model.Cookie, 0, len(names))
	for _, n := range names {
		out = append(out, model.Cookie{Name: n, Value: "v", Domain: ".facebook.com", Path: "/"})
	}
	return out
}

func TestProvision_CreatesRenamesAndWritesBack(t *testing.T) {
	e := newEnv(t, nil)
	proxy := &model.Proxy{Mode: model.ProxyModeHTTP, Host: "10.0.0.1", Port: 3128}

	out := e.prov.Provision(context.Background(), Request{
		Network:  model.NetworkFacebook,
		Username: "alice",
		Cookies:  cookies("c_user", "xs"),
		Proxy:    proxy,
	})

	assert.Equal(t, model.StateCreated, out.State)
	assert.Equal(t, model.WriteBackOK, out.WriteBack)
	assert.Empty(t, out.Warnings)
	require.NotEmpty(t, out.ProfileID)
	assert.Equal(t, "alice_"+out.ProfileID, out.ProfileName)

	p, ok := e.fake.Profile(out.ProfileID)
	require.True(t, ok)
	assert.Equal(t, "alice_"+out.ProfileID, p.Name)
	assert.Equal(t, "auto created alice", p.Notes)
	assert.Equal(t, proxy, p.Proxy)
	assert.Len(t, p.Cookies, 2)

	assert.Equal(t, out.ProfileID, e.storedProfileID(t, "alice"))
}

func TestProvision_CreateWithoutCookiesSkipsCookieCall(t *testing.T) {
	e := newEnv(t, nil)

	out := e.prov.Provision(context.Background(), Request{Network: model.NetworkFacebook, Username: "bob"})

	assert.Equal(t, model.StateCreated, out.State)
	assert.Equal(t, 0, e.fake.Calls(gologintest.OpSetCookies))
	p, _ := e.fake.Profile(out.ProfileID)
	require.NotNil(t, p.Proxy)
	assert.Equal(t, model.ProxyModeNone, p.Proxy.Mode)
}

func TestProvision_ExistingWithoutForceIsSkipped(t *testing.T) {
	e := newEnv(t, nil)
	id := e.fake.Seed("alice_existing", nil)
	e.fake.Reset()

	out := e.prov.Provision(context.Background(), Request{
		Network:  model.NetworkFacebook,
		Username: "alice",
		Cookies:  cookies("c_user"),
	})

	assert.Equal(t, model.StateSkipped, out.State)
	assert.Equal(t, id, out.ProfileID)
	assert.Equal(t, model.WriteBackNone, out.WriteBack)
	assert.Zero(t, e.fake.Mutations())
	assert.Empty(t, e.storedProfileID(t, "alice"))
}

func TestProvision_ConfirmedUpdate(t *testing.T) {
	var asked atomic.Int32
	e := newEnv(t, func(o *Options) {
		o.Confirm = ConfirmFunc(func(_ context.Context, _ model.Network, username string, existing model.RemoteProfile) (bool, error) {
			asked.Add(1)
			return username == "alice", nil
		})
	})
	id := e.fake.Seed("alice_existing", nil)
	proxy := &model.Proxy{Mode: model.ProxyModeHTTP, Host: "h", Port: 1}

	out := e.prov.Provision(context.Background(), Request{
		Network:  model.NetworkFacebook,
		Username: "alice",
		Cookies:  cookies("c_user"),
		Proxy:    proxy,
	})

	assert.Equal(t, model.StateUpdated, out.State)
	assert.Equal(t, model.WriteBackOK, out.WriteBack)
	assert.EqualValues(t, 1, asked.Load())
	p, _ := e.fake.Profile(id)
	assert.Equal(t, "alice_existing", p.Name)
	assert.Equal(t, proxy, p.Proxy)
	assert.Len(t, p.Cookies, 1)
	assert.Equal(t, id, e.storedProfileID(t, "alice"))
}

func TestProvision_ConfirmErrorDeclines(t *testing.T) {
	e := newEnv(t, func(o *Options) {
		o.Confirm = ConfirmFunc(func(context.Context, model.Network, string, model.RemoteProfile) (bool, error) {
			return true, errors.New("stdin closed")
		})
	})
	e.fake.Seed("alice_1", nil)

	out := e.prov.Provision(context.Background(), Request{Network: model.NetworkFacebook, Username: "alice"})
	assert.Equal(t, model.StateSkipped, out.State)
}

func TestProvision_ForcedUpdateFailure(t *testing.T) {
	e := newEnv(t, nil)
	e.fake.Seed("alice_1", nil)
	e.fake.Fail(gologintest.OpSetCookies, http.StatusInternalServerError)

	out := e.prov.Provision(context.Background(), Request{
		Network:  model.NetworkFacebook,
		Username: "alice",
		Cookies:  cookies("c_user"),
		Proxy:    &model.Proxy{Mode: model.ProxyModeHTTP, Host: "h", Port: 1},
		Force:    true,
	})

	assert.Equal(t, model.StateUpdateFailed, out.State)
	assert.Contains(t, out.Error, "set cookies")
	assert.NotContains(t, out.Error, "update proxy")
	assert.Equal(t, model.WriteBackNone, out.WriteBack)
	assert.Empty(t, e.storedProfileID(t, "alice"))
}

func TestProvision_CreateFailure(t *testing.T) {
	e := newEnv(t, nil)
	e.fake.Fail(gologintest.OpCreate, http.StatusBadRequest)

	out := e.prov.Provision(context.Background(), Request{Network: model.NetworkFacebook, Username: "alice"})

	assert.Equal(t, model.StateCreateFailed, out.State)
	assert.Contains(t, out.Error, "status 400")
	assert.Empty(t, out.ProfileID)
	assert.Empty(t, e.storedProfileID(t, "alice"))
}

func TestProvision_RenameAndCookieFailuresAreWarnings(t *testing.T) {
	e := newEnv(t, nil)
	e.fake.Fail(gologintest.OpUpdate, http.StatusInternalServerError)
	e.fake.Fail(gologintest.OpSetCookies, http.StatusInternalServerError)

	out := e.prov.Provision(context.Background(), Request{
		Network:  model.NetworkFacebook,
		Username: "alice",
		Cookies:  cookies("c_user"),
	})

	assert.Equal(t, model.StateCreated, out.State)
	assert.Equal(t, "facebook_alice", out.ProfileName)
	require.Len(t, out.Warnings, 2)
	assert.Contains(t, out.Warnings[0], "rename profile")
	assert.Contains(t, out.Warnings[1], "set cookies")
	assert.Equal(t, model.WriteBackOK, out.WriteBack)
	assert.Equal(t, out.ProfileID, e.storedProfileID(t, "alice"))
}

func TestProvision_WriteBackFailureKeepsProfile(t *testing.T) {
	e := newEnv(t, nil)

	out := e.prov.Provision(context.Background(), Request{Network: model.NetworkFacebook, Username: "nobody"})

	assert.Equal(t, model.StateCreated, out.State)
	assert.Equal(t, model.WriteBackFailed, out.WriteBack)
	_, ok := e.fake.Profile(out.ProfileID)
	assert.True(t, ok)
	assert.Equal(t, 1, e.logs.FilterMessage("write back failed").FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestProvision_WithoutAccountStore(t *testing.T) {
	e := newEnv(t, func(o *Options) { o.Accounts = nil })
	ctx := context.Background()

	out := e.prov.Provision(ctx, Request{Network: model.NetworkFacebook, Username: "alice", Cookies: cookies("c_user")})

	assert.Equal(t, model.StateCreated, out.State)
	assert.Equal(t, model.WriteBackFailed, out.WriteBack)
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], ErrNoAccounts.Error())
	_, ok := e.fake.Profile(out.ProfileID)
	assert.True(t, ok)
	assert.Empty(t, e.storedProfileID(t, "alice"))

	_, err := e.prov.Run(ctx, model.NetworkFacebook, []string{"alice"}, false)
	assert.ErrorIs(t, err, ErrNoAccounts)
	assert.ErrorIs(t, e.prov.RetryWriteBack(ctx, model.NetworkFacebook, "alice", "p-1"), ErrNoAccounts)
}

func TestProvision_ListFailure(t *testing.T) {
	e := newEnv(t, nil)
	e.fake.Fail(gologintest.OpList, http.StatusServiceUnavailable)

	out := e.prov.Provision(context.Background(), Request{Network: model.NetworkFacebook, Username: "alice"})

	assert.Equal(t, model.StateListFailed, out.State)
	assert.Zero(t, e.fake.Mutations())
}

func TestFindProfile_FirstPrefixMatchWins(t *testing.T) {
	profiles := []model.RemoteProfile{
		{ID: "1", Name: "alicex_1"},
		{ID: "2", Name: "alice_2"},
		{ID: "3", Name: "alice_3"},
	}
	got, ok := FindProfile(profiles, "alice")
	require.True(t, ok)
	assert.Equal(t, "2", got.ID)

	_, ok = FindProfile(profiles, "bob")
	assert.False(t, ok)
}

func TestRun_MixedBatch(t *testing.T) {
	notifier := &recordingNotifier{}
	bus := logbus.New(100)
	e := newEnv(t, func(o *Options) {
		o.Notifier = notifier
		o.Bus = bus
	})

	summary, err := e.prov.Run(context.Background(), model.NetworkFacebook, []string{"alice", "zoe", "bob", "alice"}, false)
	require.NoError(t, err)

	require.Len(t, summary.Outcomes, 3)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, "alice", summary.Outcomes[0].Username)
	assert.Equal(t, model.StateCreated, summary.Outcomes[0].State)
	assert.Equal(t, model.StatusSuccess, summary.Outcomes[0].FetchStatus)
	assert.Equal(t, 3, summary.Outcomes[0].Cookies)
	assert.True(t, summary.Outcomes[0].HasProxy)

	assert.Equal(t, "zoe", summary.Outcomes[1].Username)
	assert.Equal(t, model.StateIneligible, summary.Outcomes[1].State)
	assert.Equal(t, model.StatusNotFound, summary.Outcomes[1].FetchStatus)

	assert.Equal(t, "bob", summary.Outcomes[2].Username)
	assert.Equal(t, model.StateCreated, summary.Outcomes[2].State)
	assert.Equal(t, model.StatusNoData, summary.Outcomes[2].FetchStatus)

	assert.Equal(t, 2, summary.Succeeded())
	require.Len(t, notifier.summaries, 1)
	assert.Equal(t, summary.RunID, notifier.summaries[0].RunID)

	var outcomes, batches int
	for _, msg := range bus.Snapshot() {
		switch msg.Type {
		case logbus.TypeOutcome:
			outcomes++
		case logbus.TypeBatch:
			batches++
		}
	}
	assert.Equal(t, 3, outcomes)
	assert.Equal(t, 1, batches)
}

func TestRun_ForcedRerunIsIdempotent(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	first, err := e.prov.Run(ctx, model.NetworkFacebook, []string{"alice"}, true)
	require.NoError(t, err)
	second, err := e.prov.Run(ctx, model.NetworkFacebook, []string{"alice"}, true)
	require.NoError(t, err)

	assert.Equal(t, model.StateCreated, first.Outcomes[0].State)
	assert.Equal(t, model.StateUpdated, second.Outcomes[0].State)
	assert.Equal(t, first.Outcomes[0].ProfileID, second.Outcomes[0].ProfileID)
	assert.Len(t, e.fake.Profiles(), 1)
	assert.Equal(t, first.Outcomes[0].ProfileID, e.storedProfileID(t, "alice"))
}

func TestRun_WorkersSerializeConfirmations(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	e := newEnv(t, func(o *Options) {
		o.Workers = 3
		o.Confirm = ConfirmFunc(func(context.Context, model.Network, string, model.RemoteProfile) (bool, error) {
			n := inFlight.Add(1)
			defer inFlight.Add(-1)
			if n > maxInFlight.Load() {
				maxInFlight.Store(n)
			}
			time.Sleep(10 * time.Millisecond)
			return true, nil
		})
	})
	for _, u := range []string{"alice", "bob", "carol"} {
		e.fake.Seed(u+"_seed", nil)
	}

	summary, err := e.prov.Run(context.Background(), model.NetworkFacebook, []string{"alice", "bob", "carol"}, false)
	require.NoError(t, err)

	for _, o := range summary.Outcomes {
		assert.Equal(t, model.StateUpdated, o.State, o.Username)
	}
	assert.EqualValues(t, 1, maxInFlight.Load())
}

func TestRun_CallerErrors(t *testing.T) {
	e := newEnv(t, nil)

	_, err := e.prov.Run(context.Background(), model.Network("friendster"), []string{"a"}, false)
	assert.ErrorIs(t, err, model.ErrUnsupportedNetwork)

	_, err = e.prov.Run(context.Background(), model.NetworkFacebook, []string{" ", ""}, false)
	assert.Error(t, err)
}

func TestRetryWriteBack(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	require.NoError(t, e.prov.RetryWriteBack(ctx, model.NetworkFacebook, "carol", "p-77"))
	assert.Equal(t, "p-77", e.storedProfileID(t, "carol"))

	err := e.prov.RetryWriteBack(ctx, model.NetworkFacebook, "ghost", "p-77")
	assert.ErrorIs(t, err, model.ErrAccountNotFound)
}
