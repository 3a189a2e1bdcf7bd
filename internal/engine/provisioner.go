// Package engine creates or updates remote browser profiles from fetched
// account data and records the resulting profile ids.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"profile_sync/internal/logbus"
	"profile_sync/internal/model"
	"profile_sync/internal/notify"
	"profile_sync/internal/provider"
	"profile_sync/internal/provider/gologin"
)

// ErrNoAccounts is returned by operations that need an account store when the
// provisioner was built without one.
var ErrNoAccounts = errors.New("no account store configured")

// Accounts is the account data side of provisioning.
type Accounts interface {
	FetchUserData(ctx context.Context, network model.Network, usernames []string) (map[string]model.AccountResult, error)
	WriteBack(ctx context.Context, network model.Network, username, profileID string) error
}

// Confirmer decides whether an existing profile may be overwritten.
type Confirmer interface {
	ConfirmUpdate(ctx context.Context, network model.Network, username string, existing model.RemoteProfile) (bool, error)
}

type ConfirmFunc func(ctx context.Context, network model.Network, username string, existing model.RemoteProfile) (bool, error)

func (f ConfirmFunc) ConfirmUpdate(ctx context.Context, network model.Network, username string, existing model.RemoteProfile) (bool, error) {
	return f(ctx, network, username, existing)
}

// TemplateFunc builds the creation payload for a new profile.
type TemplateFunc func(name, notes string, proxy *model.Proxy) provider.ProfileSpec

type Options struct {
	API      provider.ProfileAPI
	Accounts Accounts
	// Confirm is asked before an existing profile is updated without force.
	// Nil declines every update.
	Confirm  Confirmer
	Bus      *logbus.Bus
	Notifier notify.Notifier
	Logger   *zap.Logger
	Template TemplateFunc
	// Workers bounds concurrent usernames in Run. Defaults to 1.
	Workers int
	Now     func() time.Time
}

type Provisioner struct {
	api      provider.ProfileAPI
	accounts Accounts
	confirm  Confirmer
	bus      *logbus.Bus
	notifier notify.Notifier
	log      *zap.Logger
	template TemplateFunc
	workers  int
	now      func() time.Time

	confirmMu sync.Mutex
}

// Request is the input for one username.
type Request struct {
	Network  model.Network
	Username string
	Cookies  []model.Cookie
	Proxy    *model.Proxy
	Force    bool
}

func New(opts Options) *Provisioner {
	p := &Provisioner{
		api:      opts.API,
		accounts: opts.Accounts,
		confirm:  opts.Confirm,
		bus:      opts.Bus,
		notifier: opts.Notifier,
		log:      opts.Logger,
		template: opts.Template,
		workers:  opts.Workers,
		now:      opts.Now,
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	p.log = p.log.Named("engine")
	if p.notifier == nil {
		p.notifier = notify.Nop{}
	}
	if p.template == nil {
		p.template = gologin.NewProfileSpec
	}
	if p.workers <= 0 {
		p.workers = 1
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// ProfilePrefix is the name prefix that identifies a username's profile.
func ProfilePrefix(username string) string {
	return username + "_"
}

// FindProfile returns the first profile whose name starts with the
// username's prefix.
func FindProfile(profiles []model.RemoteProfile, username string) (model.RemoteProfile, bool) {
	prefix := ProfilePrefix(username)
	for _, p := range profiles {
		if strings.HasPrefix(p.Name, prefix) {
			return p, true
		}
	}
	return model.RemoteProfile{}, false
}

// Provision brings one username's remote profile in line with req and
// writes the profile id back when the profile was created or updated.
func (p *Provisioner) Provision(ctx context.Context, req Request) model.Outcome {
	out := model.Outcome{
		Network:  req.Network,
		Username: req.Username,
		Cookies:  len(req.Cookies),
		HasProxy: req.Proxy != nil,
	}

	profiles, err := p.api.ListProfiles(ctx)
	if err != nil {
		out.State = model.StateListFailed
		out.Error = fmt.Sprintf("list profiles: %v", err)
		p.logf("error", "list profiles failed", map[string]any{"username": req.Username, "error": err.Error()})
		return out
	}

	if existing, ok := FindProfile(profiles, req.Username); ok {
		out.ProfileID = existing.ID
		out.ProfileName = existing.Name
		if !req.Force && !p.confirmUpdate(ctx, req, existing) {
			out.State = model.StateSkipped
			p.logf("info", "existing profile left unchanged", map[string]any{"username": req.Username, "profileId": existing.ID})
			return out
		}
		p.update(ctx, req, existing, &out)
	} else {
		p.create(ctx, req, &out)
	}

	if out.State.Mutated() {
		p.writeBack(ctx, req.Network, req.Username, &out)
	}
	return out
}

func (p *Provisioner) confirmUpdate(ctx context.Context, req Request, existing model.RemoteProfile) bool {
	if p.confirm == nil {
		return false
	}
	p.confirmMu.Lock()
	defer p.confirmMu.Unlock()
	ok, err := p.confirm.ConfirmUpdate(ctx, req.Network, req.Username, existing)
	if err != nil {
		p.logf("warn", "update confirmation failed", map[string]any{"username": req.Username, "error": err.Error()})
		return false
	}
	return ok
}

func (p *Provisioner) update(ctx context.Context, req Request, existing model.RemoteProfile, out *model.Outcome) {
	var failures []string
	if len(req.Cookies) > 0 {
		if err := p.api.SetCookies(ctx, existing.ID, req.Cookies); err != nil {
			failures = append(failures, fmt.Sprintf("set cookies: %v", err))
		}
	}
	if req.Proxy != nil {
		if err := p.api.UpdateProfile(ctx, existing.ID, provider.ProfilePatch{Proxy: req.Proxy}); err != nil {
			failures = append(failures, fmt.Sprintf("update proxy: %v", err))
		}
	}
	if len(failures) > 0 {
		out.State = model.StateUpdateFailed
		out.Error = strings.Join(failures, "; ")
		p.logf("error", "profile update failed", map[string]any{"username": req.Username, "profileId": existing.ID, "error": out.Error})
		return
	}
	out.State = model.StateUpdated
	p.logf("info", "profile updated", map[string]any{
		"username":  req.Username,
		"profileId": existing.ID,
		"cookies":   len(req.Cookies),
		"proxy":     req.Proxy != nil,
	})
}

func (p *Provisioner) create(ctx context.Context, req Request, out *model.Outcome) {
	name := fmt.Sprintf("%s_%s", req.Network, req.Username)
	notes := "auto created " + req.Username

	id, err := p.api.CreateProfile(ctx, p.template(name, notes, req.Proxy))
	if err != nil {
		out.State = model.StateCreateFailed
		out.Error = fmt.Sprintf("create profile: %v", err)
		p.logf("error", "profile create failed", map[string]any{"username": req.Username, "error": err.Error()})
		return
	}
	out.State = model.StateCreated
	out.ProfileID = id
	out.ProfileName = name

	final := ProfilePrefix(req.Username) + id
	if err := p.api.UpdateProfile(ctx, id, provider.ProfilePatch{Name: &final}); err != nil {
		p.warn(out, "rename profile", err)
	} else {
		out.ProfileName = final
	}

	if len(req.Cookies) > 0 {
		if err := p.api.SetCookies(ctx, id, req.Cookies); err != nil {
			p.warn(out, "set cookies", err)
		}
	}
	p.logf("info", "profile created", map[string]any{
		"username":  req.Username,
		"profileId": id,
		"name":      out.ProfileName,
		"cookies":   len(req.Cookies),
		"proxy":     req.Proxy != nil,
	})
}

func (p *Provisioner) writeBack(ctx context.Context, network model.Network, username string, out *model.Outcome) {
	if p.accounts == nil {
		out.WriteBack = model.WriteBackFailed
		p.warn(out, "write back", ErrNoAccounts)
		return
	}
	if err := p.accounts.WriteBack(ctx, network, username, out.ProfileID); err != nil {
		out.WriteBack = model.WriteBackFailed
		p.warn(out, "write back", err)
		return
	}
	out.WriteBack = model.WriteBackOK
}

func (p *Provisioner) warn(out *model.Outcome, step string, err error) {
	msg := fmt.Sprintf("%s: %v", step, err)
	out.Warnings = append(out.Warnings, msg)
	p.logf("warn", step+" failed", map[string]any{
		"username":  out.Username,
		"profileId": out.ProfileID,
		"error":     err.Error(),
	})
}

// Run fetches account data for usernames and provisions every username whose
// row exists. The summary has one outcome per distinct username, in request
// order. Only an unsupported network, an empty request or a fetch failure
// return an error.
func (p *Provisioner) Run(ctx context.Context, network model.Network, usernames []string, force bool) (model.BatchSummary, error) {
	if !network.Valid() {
		return model.BatchSummary{}, fmt.Errorf("%w: %q", model.ErrUnsupportedNetwork, string(network))
	}
	usernames = dedupe(usernames)
	if len(usernames) == 0 {
		return model.BatchSummary{}, errors.New("no usernames given")
	}

	summary := model.BatchSummary{
		RunID:     uuid.NewString(),
		Network:   network,
		StartedAt: p.now(),
	}
	p.logf("info", "batch started", map[string]any{"runId": summary.RunID, "network": string(network), "usernames": len(usernames)})

	if p.accounts == nil {
		return model.BatchSummary{}, ErrNoAccounts
	}
	results, err := p.accounts.FetchUserData(ctx, network, usernames)
	if err != nil {
		return model.BatchSummary{}, err
	}

	outcomes := make([]model.Outcome, len(usernames))
	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, username := range usernames {
		res := results[username]
		if !res.Provisionable() {
			outcomes[i] = model.Outcome{
				Network:     network,
				Username:    username,
				State:       model.StateIneligible,
				FetchStatus: res.Status,
				Error:       res.Error,
			}
			p.publishOutcome(outcomes[i])
			continue
		}
		g.Go(func() error {
			o := p.Provision(ctx, Request{
				Network:  network,
				Username: username,
				Cookies:  res.Cookies,
				Proxy:    res.Proxy,
				Force:    force,
			})
			o.FetchStatus = res.Status
			outcomes[i] = o
			p.publishOutcome(o)
			return nil
		})
	}
	_ = g.Wait()

	summary.Outcomes = outcomes
	summary.FinishedAt = p.now()
	if p.bus != nil {
		p.bus.Publish(logbus.TypeBatch, summary)
	}
	p.logf("info", "batch finished", map[string]any{
		"runId":     summary.RunID,
		"succeeded": summary.Succeeded(),
		"total":     len(outcomes),
	})

	if err := p.notifier.NotifyBatch(ctx, summary); err != nil {
		p.logf("warn", "batch notification failed", map[string]any{"runId": summary.RunID, "error": err.Error()})
	}
	return summary, nil
}

// RetryWriteBack repeats only the id write-back for a profile that already
// exists remotely.
func (p *Provisioner) RetryWriteBack(ctx context.Context, network model.Network, username, profileID string) error {
	if p.accounts == nil {
		return ErrNoAccounts
	}
	if err := p.accounts.WriteBack(ctx, network, username, profileID); err != nil {
		p.logf("warn", "write back retry failed", map[string]any{"username": username, "profileId": profileID, "error": err.Error()})
		return err
	}
	p.logf("info", "write back retried", map[string]any{"username": username, "profileId": profileID})
	return nil
}

func (p *Provisioner) publishOutcome(o model.Outcome) {
	if p.bus != nil {
		p.bus.Publish(logbus.TypeOutcome, o)
	}
}

// logf goes through the bus when there is one so stream subscribers see it.
func (p *Provisioner) logf(level, msg string, fields map[string]any) {
	if p.bus != nil {
		p.bus.Log(level, msg, fields)
		return
	}
	zf := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	switch level {
	case "debug":
		p.log.Debug(msg, zf...)
	case "warn":
		p.log.Warn(msg, zf...)
	case "error":
		p.log.Error(msg, zf...)
	default:
		p.log.Info(msg, zf...)
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
