// Package accounts reads login rows and turns them into provisioning input.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"profile_sync/internal/model"
	"profile_sync/internal/normalize"
)

// Store is the account table access the fetcher needs.
type Store interface {
	LookupAccount(ctx context.Context, network model.Network, login string) (model.AccountRow, error)
	SetProfileID(ctx context.Context, network model.Network, login, profileID string) error
}

type Fetcher struct {
	store      Store
	classifier *normalize.Classifier
	log        *zap.Logger
}

type Option func(*Fetcher)

func WithClassifier(c *normalize.Classifier) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.classifier = c
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.log = l
		}
	}
}

func NewFetcher(store Store, opts ...Option) *Fetcher {
	f := &Fetcher{
		store:      store,
		classifier: normalize.New(),
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.log = f.log.Named("accounts")
	return f
}

// FetchUserData returns one result per requested username. It fails as a
// whole only when the network is unsupported. Once the store fails, the
// failing username and every one after it are reported as errors.
func (f *Fetcher) FetchUserData(ctx context.Context, network model.Network, usernames []string) (map[string]model.AccountResult, error) {
	if !network.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrUnsupportedNetwork, string(network))
	}

	out := make(map[string]model.AccountResult, len(usernames))
	var storeErr error
	for _, username := range usernames {
		if storeErr == nil {
			if err := ctx.Err(); err != nil {
				storeErr = err
			}
		}
		if storeErr != nil {
			out[username] = errorResult(storeErr)
			continue
		}

		row, err := f.store.LookupAccount(ctx, network, username)
		switch {
		case errors.Is(err, model.ErrAccountNotFound):
			out[username] = model.AccountResult{Status: model.StatusNotFound}
			continue
		case err != nil:
			f.log.Error("account lookup failed",
				zap.String("network", string(network)),
				zap.String("username", username),
				zap.Error(err))
			storeErr = err
			out[username] = errorResult(err)
			continue
		}

		res, err := f.resultFor(network, row)
		if err != nil {
			out[username] = errorResult(err)
			continue
		}
		out[username] = res
	}
	return out, nil
}

func (f *Fetcher) resultFor(network model.Network, row model.AccountRow) (model.AccountResult, error) {
	cookies, err := f.classifier.Classify(normalize.BlobFromColumn(row.Cookies), network)
	if err != nil {
		return model.AccountResult{}, err
	}
	proxy := normalize.ProxyFromRow(row)

	status := model.StatusNoData
	if len(cookies) > 0 || proxy != nil {
		status = model.StatusSuccess
	}
	return model.AccountResult{
		Status:  status,
		Cookies: cookies,
		Proxy:   proxy,
		Count:   len(cookies),
	}, nil
}

// errorResult and the not_found envelope leave Cookies nil so both
// serialize cookies as null.
func errorResult(err error) model.AccountResult {
	return model.AccountResult{
		Status: model.StatusError,
		Error:  err.Error(),
	}
}

// WriteBack records profileID on the username's row.
func (f *Fetcher) WriteBack(ctx context.Context, network model.Network, username, profileID string) error {
	if !network.Valid() {
		return fmt.Errorf("%w: %q", model.ErrUnsupportedNetwork, string(network))
	}
	if strings.TrimSpace(profileID) == "" {
		return errors.New("profile id is required")
	}
	if err := f.store.SetProfileID(ctx, network, username, profileID); err != nil {
		return fmt.Errorf("write back %s/%s: %w", network, username, err)
	}
	f.log.Info("profile id written back",
		zap.String("network", string(network)),
		zap.String("username", username),
		zap.String("profile_id", profileID))
	return nil
}

// Usernames splits comma or space separated arguments, dropping blanks and
// repeats while keeping first-seen order.
func Usernames(args []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, arg := range args {
		for _, name := range strings.FieldsFunc(arg, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		}) {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

// Summarize counts results per status. The "total" key holds the number of
// results.
func Summarize(results map[string]model.AccountResult) map[string]int {
	out := map[string]int{
		string(model.StatusSuccess):  0,
		string(model.StatusNoData):   0,
		string(model.StatusNotFound): 0,
		string(model.StatusError):    0,
		"total":                      len(results),
	}
	for _, r := range results {
		out[string(r.Status)]++
	}
	return out
}
