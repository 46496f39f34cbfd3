// Copyright (c) 2018 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/utils"
	"github.com/vechain/stakeledger/ledger"
	"github.com/vechain/stakeledger/logdb"
)

type Events struct {
	db    *logdb.LogDB
	limit uint64
}

func New(db *logdb.LogDB, logsLimit uint64) *Events {
	return &Events{
		db,
		logsLimit,
	}
}

// Filter query events with option
func (e *Events) filter(ctx context.Context, ef *EventFilter) ([]*FilteredEvent, error) {
	filter, err := convertFilter(ef)
	if err != nil {
		return nil, utils.BadRequest(err)
	}
	events, err := e.db.FilterEvents(ctx, filter)
	if err != nil {
		return nil, err
	}
	fes := make([]*FilteredEvent, len(events))
	for i, ev := range events {
		fes[i] = convertEvent(ev)
	}
	return fes, nil
}

func (e *Events) serveFilter(w http.ResponseWriter, req *http.Request, filter *EventFilter) error {
	if filter.Options != nil && filter.Options.Limit > e.limit {
		return utils.Forbidden(fmt.Errorf("options.limit exceeds the maximum allowed value of %d", e.limit))
	}
	if filter.Options != nil && filter.Options.Offset > math.MaxInt64 {
		return utils.BadRequest(fmt.Errorf("options.offset exceeds the maximum allowed value of %d", math.MaxInt64))
	}
	if filter.Order != "" && filter.Order != logdb.ASC && filter.Order != logdb.DESC {
		return utils.BadRequest(fmt.Errorf("unknown order %q", filter.Order))
	}
	for i, criterion := range filter.CriteriaSet {
		if criterion == nil {
			return utils.BadRequest(fmt.Errorf("criteriaSet[%d]: null not allowed", i))
		}
	}
	if filter.Options == nil {
		// one more than the limit, to detect whether there are more events than allowed
		filter.Options = &Options{Limit: e.limit + 1}
	}

	fes, err := e.filter(req.Context(), filter)
	if err != nil {
		return err
	}
	if len(fes) > int(e.limit) {
		return utils.Forbidden(fmt.Errorf("the number of filtered events exceeds the maximum allowed value of %d, please use pagination", e.limit))
	}
	return utils.WriteJSON(w, fes)
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	var filter EventFilter
	if err := utils.ParseJSON(req.Body, &filter); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	return e.serveFilter(w, req, &filter)
}

func parseUint(query map[string][]string, key string) (*uint64, error) {
	values := query[key]
	if len(values) == 0 || values[0] == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(values[0], 10, 64)
	if err != nil {
		return nil, utils.BadRequest(errors.WithMessage(err, key))
	}
	return &v, nil
}

// handleQuery serves the single criteria form: ?subject=&name=&unit=&from=&to=&offset=&limit=&order=
func (e *Events) handleQuery(w http.ResponseWriter, req *http.Request) error {
	query := req.URL.Query()

	var filter EventFilter
	criteria := &EventCriteria{}
	if s := query.Get("subject"); s != "" {
		subject, err := ledger.ParseAddress(s)
		if err != nil {
			return utils.BadRequest(errors.WithMessage(err, "subject"))
		}
		criteria.Subject = &subject
	}
	if name := query.Get("name"); name != "" {
		criteria.Name = &name
	}
	if criteria.Subject != nil || criteria.Name != nil {
		filter.CriteriaSet = []*EventCriteria{criteria}
	}

	from, err := parseUint(query, "from")
	if err != nil {
		return err
	}
	to, err := parseUint(query, "to")
	if err != nil {
		return err
	}
	if from != nil || to != nil || query.Get("unit") != "" {
		filter.Range = &Range{Unit: query.Get("unit"), From: from, To: to}
	}

	offset, err := parseUint(query, "offset")
	if err != nil {
		return err
	}
	limit, err := parseUint(query, "limit")
	if err != nil {
		return err
	}
	if limit != nil {
		filter.Options = &Options{Limit: *limit}
		if offset != nil {
			filter.Options.Offset = *offset
		}
	}
	filter.Order = logdb.Order(query.Get("order"))

	return e.serveFilter(w, req, &filter)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /events").
		HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /events").
		HandlerFunc(utils.WrapHandlerFunc(e.handleQuery))
}
