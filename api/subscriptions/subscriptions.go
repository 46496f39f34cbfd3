// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package subscriptions streams stored ledger events to websocket clients.
package subscriptions

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/utils"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/log"
	"github.com/vechain/stakeledger/logdb"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	readBatch  = 100
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	pongWait   = pingPeriod * 2
)

type Subscriptions struct {
	db       *logdb.LogDB
	origins  []string
	interval time.Duration

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New creates the subscriptions service. The event store is polled every interval.
// allowedOrigins are lower cased, "*" allows any origin.
func New(db *logdb.LogDB, allowedOrigins []string, interval time.Duration) *Subscriptions {
	return &Subscriptions{
		db:       db,
		origins:  allowedOrigins,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (s *Subscriptions) checkOrigin(req *http.Request) bool {
	origin := req.Header.Get("Origin")
	if origin == "" {
		return true
	}
	origin = strings.ToLower(origin)
	for _, allowed := range s.origins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// newEventReader parses ?pos=&name=&subject=. Without pos only events stored after the call are read.
func (s *Subscriptions) newEventReader(ctx context.Context, query map[string][]string) (*eventReader, error) {
	get := func(key string) string {
		if v := query[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	criteria := &logdb.EventCriteria{}
	if v := get("subject"); v != "" {
		subject, err := ledger.ParseAddress(v)
		if err != nil {
			return nil, utils.BadRequest(errors.WithMessage(err, "subject"))
		}
		criteria.Subject = &subject
	}
	if name := get("name"); name != "" {
		criteria.Name = &name
	}

	var pos uint64
	if v := get("pos"); v != "" {
		p, err := parseSeq(v)
		if err != nil {
			return nil, utils.BadRequest(errors.WithMessage(err, "pos"))
		}
		pos = p
	} else {
		latest, err := s.db.FilterEvents(ctx, &logdb.EventFilter{Order: logdb.DESC, Options: &logdb.Options{Limit: 1}})
		if err != nil {
			return nil, err
		}
		if len(latest) > 0 {
			pos = latest[0].Seq
		}
	}
	return newEventReader(s.db, pos, criteria), nil
}

func (s *Subscriptions) handleSubscribeEvents(w http.ResponseWriter, req *http.Request) error {
	reader, err := s.newEventReader(req.Context(), req.URL.Query())
	if err != nil {
		return err
	}
	upgrader := websocket.Upgrader{CheckOrigin: s.checkOrigin}
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		// the upgrader has responded
		logger.Debug("upgrade failed", "err", err)
		return nil
	}
	s.wg.Add(1)
	defer s.wg.Done()
	defer conn.Close()

	if err := s.pipe(conn, reader); err != nil {
		logger.Debug("subscription closed", "remote", conn.RemoteAddr(), "err", err)
	}
	return nil
}

// pipe writes the events read by reader to conn until the client goes away or the service closes.
func (s *Subscriptions) pipe(conn *websocket.Conn, reader *eventReader) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// the client only sends control frames, reading keeps them handled
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		defer cancel()
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	poll := time.NewTicker(s.interval)
	defer poll.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		msgs, err := reader.Read(ctx)
		if err != nil {
			return err
		}
		for _, msg := range msgs {
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return err
			}
			if err := conn.WriteJSON(msg); err != nil {
				return err
			}
		}
		if len(msgs) == readBatch {
			continue
		}

		select {
		case <-s.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing")
			return conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		case <-closed:
			return nil
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		case <-poll.C:
		}
	}
}

// Close ends every open subscription and waits for them to return.
func (s *Subscriptions) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/event").
		Methods(http.MethodGet).
		Name("WS /subscriptions/event").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeEvents))
}
