package normalize

import "profile_sync/internal/model"

// Policy is the pair of attributes decided per cookie name.
type Policy struct {
	HTTPOnly bool
	Session  bool
}

type PolicyTable struct {
	Default Policy
	Names   map[string]Policy
}

var (
	httpOnlyPersistent = Policy{HTTPOnly: true}
	scriptPersistent   = Policy{}
	httpOnlySession    = Policy{HTTPOnly: true, Session: true}
)

// fallbackPolicy applies to networks without a table.
var fallbackPolicy = httpOnlyPersistent

// The facebook and instagram tables are kept apart even where they agree;
// they are tuned per site and change independently.
var policyTables = map[model.Network]PolicyTable{
	model.NetworkFacebook: {
		Default: httpOnlyPersistent,
		Names: withPolicy(nil, httpOnlyPersistent, "c_user", "xs", "fr", "datr", "sb").
			with(scriptPersistent, "wd", "dbln", "ps_l", "ps_n", "x-referer").
			with(httpOnlySession, "presence", "locale", "lu", "act", "csm", "spin"),
	},
	model.NetworkInstagram: {
		Default: httpOnlyPersistent,
		Names: withPolicy(nil, httpOnlySession, "rur").
			with(httpOnlyPersistent, "ig_did", "sessionid", "mid", "datr", "sb").
			with(scriptPersistent, "csrftoken", "ds_user_id", "ds_user", "username"),
	},
}

type nameTable map[string]Policy

func withPolicy(t nameTable, p Policy, names ...string) nameTable {
	if t == nil {
		t = make(nameTable, len(names))
	}
	for _, n := range names {
		t[n] = p
	}
	return t
}

func (t nameTable) with(p Policy, names ...string) nameTable {
	return withPolicy(t, p, names...)
}

// PolicyFor resolves a cookie name: exact name match, then the network
// default, then the global fallback.
func PolicyFor(network model.Network, name string) Policy {
	table, ok := policyTables[network]
	if !ok {
		return fallbackPolicy
	}
	if p, ok := table.Names[name]; ok {
		return p
	}
	return table.Default
}
