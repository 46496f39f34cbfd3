// Copyright (c) 2024 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/stakeledger/api/events"
	"github.com/vechain/stakeledger/api/params"
	"github.com/vechain/stakeledger/api/stakers"
	"github.com/vechain/stakeledger/api/subscriptions"
	"github.com/vechain/stakeledger/builtin"
	"github.com/vechain/stakeledger/builtin/pools"
	"github.com/vechain/stakeledger/builtin/staking"
	"github.com/vechain/stakeledger/config"
	"github.com/vechain/stakeledger/genesis"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/logdb"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/xenv"
)

const genesisTime = 1_000_000

var (
	alice       = ledger.BytesToAddress([]byte("alice"))
	dave        = ledger.BytesToAddress([]byte("dave"))
	operational = ledger.BytesToAddress([]byte("alice-node"))
)

type testServer struct {
	t    *testing.T
	ts   *httptest.Server
	pool ledger.Address
}

func newTestServer(t *testing.T) *testServer {
	metrics.InitializePrometheusMetrics()

	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	logDB, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { logDB.Close() })

	cfg := config.Default()
	cfg.GenesisTime = genesisTime
	cfg.MinStake = config.NewAmount(20_000)
	cfg.Roles = config.Roles{
		SecurityAdmin: ledger.BytesToAddress([]byte("admin")),
		SecurityAgent: ledger.BytesToAddress([]byte("agent")),
		AppGovernor:   ledger.BytesToAddress([]byte("governor")),
	}
	cfg.Accounts = []config.Account{
		{Address: alice, Balance: config.NewAmount(200_000)},
		{Address: dave, Balance: config.NewAmount(200_000)},
	}
	gen, err := genesis.New(cfg)
	require.NoError(t, err)

	st := state.New(db)
	contracts, err := gen.Build(st)
	require.NoError(t, err)
	contracts.Staking.SetEventSink(logDB)

	env := func(caller ledger.Address) *xenv.Environment {
		return xenv.New(&xenv.BlockContext{Time: genesisTime + 120, Number: 12}, caller)
	}
	amount := uint256.NewInt(100_000)
	require.NoError(t, contracts.Token.Approve(env(alice), builtin.Staking.Address, amount))
	require.NoError(t, contracts.Staking.Stake(env(alice), alice, operational, amount, true, 500))

	info, err := contracts.Staking.StakerInfo(alice)
	require.NoError(t, err)
	pool, err := contracts.Pools.Pool(info.PoolInfo.PoolContract)
	require.NoError(t, err)
	require.NoError(t, contracts.Token.Approve(env(dave), pool.Address(), amount))
	require.NoError(t, pool.Enter(env(dave), amount))
	_, err = pool.ExitIntent(env(dave), uint256.NewInt(400))
	require.NoError(t, err)

	require.NoError(t, st.Stage().Commit())

	handler, closeSubs := New(state.NewStater(db), logDB, Options{
		AllowedOrigins: "*",
		EnableMetrics:  true,
		LogsLimit:      100,
		PollInterval:   10 * time.Millisecond,
	})
	ts := httptest.NewServer(handler)
	t.Cleanup(func() {
		closeSubs()
		ts.Close()
	})

	return &testServer{t: t, ts: ts, pool: pool.Address()}
}

func (s *testServer) do(method, path string, body any) (int, []byte) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.ts.URL+path, reader)
	require.NoError(s.t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(s.t, err)
	return res.StatusCode, data
}

func (s *testServer) getJSON(path string, v any) {
	code, data := s.do(http.MethodGet, path, nil)
	require.Equal(s.t, http.StatusOK, code, string(data))
	require.NoError(s.t, json.Unmarshal(data, v))
}

func TestStakers(t *testing.T) {
	s := newTestServer(t)

	var staker stakers.Staker
	s.getJSON("/stakers/"+alice.String(), &staker)
	assert.Equal(t, alice, staker.Address)
	assert.Equal(t, operational, staker.OperationalAddress)
	assert.Equal(t, "100000", staker.AmountOwn)
	require.NotNil(t, staker.PoolInfo)
	assert.Equal(t, s.pool, staker.PoolInfo.PoolContract)
	assert.Equal(t, "99600", staker.PoolInfo.Amount)
	assert.Equal(t, uint16(500), staker.PoolInfo.Commission)
	assert.Nil(t, staker.UnstakeTime)

	var byOperational stakers.Staker
	s.getJSON("/stakers/operational/"+operational.String(), &byOperational)
	assert.Equal(t, staker, byOperational)

	code, _ := s.do(http.MethodGet, "/stakers/"+dave.String(), nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(http.MethodGet, "/stakers/operational/"+dave.String(), nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(http.MethodGet, "/stakers/0x1234", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestParams(t *testing.T) {
	s := newTestServer(t)

	var p params.Parameters
	s.getJSON("/params", &p)
	assert.Equal(t, "20000", p.MinStake)
	assert.Equal(t, ledger.DefaultExitWaitWindow, p.ExitWaitWindow)
	assert.Equal(t, "199600", p.TotalStake)
	assert.Equal(t, builtin.Token.Address, p.Token)
	assert.Equal(t, builtin.PoolFactory.Address, p.PoolFactory)
	assert.False(t, p.Paused)

	var total params.TotalStake
	s.getJSON("/total-stake", &total)
	assert.Equal(t, "199600", total.TotalStake)

	var intent params.Intent
	s.getJSON("/intents/"+s.pool.String()+"/"+pools.Identifier(dave).String(), &intent)
	assert.Equal(t, "400", intent.Amount)
	assert.Equal(t, genesisTime+120+ledger.DefaultExitWaitWindow, intent.UnpoolTime)

	s.getJSON("/intents/"+s.pool.String()+"/"+pools.Identifier(alice).String(), &intent)
	assert.Equal(t, "0", intent.Amount)

	code, _ := s.do(http.MethodGet, "/intents/"+s.pool.String()+"/0x01", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestEvents(t *testing.T) {
	s := newTestServer(t)

	var all []*events.FilteredEvent
	s.getJSON("/events", &all)
	require.NotEmpty(t, all)

	var created []*events.FilteredEvent
	s.getJSON("/events?name="+staking.EventNewStaker+"&subject="+alice.String(), &created)
	require.Len(t, created, 1)
	assert.Equal(t, "100000", created[0].Data["selfStake"])
	assert.Equal(t, uint32(12), created[0].BlockNumber)

	name := staking.EventPoolMemberExitIntent
	code, data := s.do(http.MethodPost, "/events", &events.EventFilter{
		CriteriaSet: []*events.EventCriteria{{Name: &name}},
	})
	require.Equal(t, http.StatusOK, code, string(data))
	var intents []*events.FilteredEvent
	require.NoError(t, json.Unmarshal(data, &intents))
	require.Len(t, intents, 1)
	assert.Equal(t, "400", intents[0].Data["amount"])

	var desc []*events.FilteredEvent
	s.getJSON("/events?order=desc&limit=1", &desc)
	require.Len(t, desc, 1)
	assert.Equal(t, all[len(all)-1].Seq, desc[0].Seq)

	code, _ = s.do(http.MethodGet, "/events?limit=1000", nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(http.MethodGet, "/events?unit=epoch&from=1", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(http.MethodGet, "/events?from=x", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(http.MethodPost, "/events", map[string]any{"unknown": 1})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(http.MethodGet, "/total-stake", nil)
	require.Equal(t, http.StatusOK, code)

	code, data := s.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(data), `stakeledger_api_request_count{code="200",method="GET",name="GET /total-stake"}`)
}

func TestSubscriptionsEndpoint(t *testing.T) {
	s := newTestServer(t)

	u := url.URL{
		Scheme:   "ws",
		Host:     strings.TrimPrefix(s.ts.URL, "http://"),
		Path:     "/subscriptions/event",
		RawQuery: "pos=0&name=" + staking.EventPoolMemberExitIntent,
	}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg subscriptions.EventMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, staking.EventPoolMemberExitIntent, msg.Name)
	assert.Equal(t, "400", msg.Data["amount"])
	conn.Close()

	// recorded once the subscription ends
	assert.Eventually(t, func() bool {
		code, data := s.do(http.MethodGet, "/metrics", nil)
		return code == http.StatusOK && strings.Contains(string(data), `code="101",method="GET",name="WS /subscriptions/event"`)
	}, 5*time.Second, 20*time.Millisecond)
}
