// Copyright (C) 2019-2024 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

// Package agreementtest produces useful functions for testing code.
package agreementtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/agreement"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/agreement/gossip"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/ledger"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/logging"
)

// Committee is a set of replicas of one graph sharing a gossip.Network.
type Committee struct {
	IDs       []string
	Apps      map[string]*agreement.App
	Network   *gossip.Network
	Committee agreement.Committee
}

// AgentIDs returns n agent ids agent0..agent<n-1>.
func AgentIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("agent%d", i)
	}
	return ids
}

// MakeCommittee starts n replicas of graph over stores holding setup.
// A zero threshold selects agreement.DefaultThreshold.
func MakeCommittee(tb testing.TB, graph *agreement.Graph, n, threshold int, setup ledger.Pairs) (*Committee, error) {
	log := logging.TestingLog(tb)
	ids := AgentIDs(n)
	committee, err := agreement.MakeCommittee(ids, threshold)
	if err != nil {
		return nil, err
	}
	c := &Committee{
		IDs:       committee.Members(),
		Apps:      make(map[string]*agreement.App, n),
		Network:   gossip.MakeNetwork(log),
		Committee: committee,
	}
	for _, id := range c.IDs {
		app, err := agreement.MakeApp(agreement.AppParams{
			Graph:     graph,
			Committee: committee,
			DB:        ledger.MakeDB(setup, graph.CrossPeriodKeys()),
			Log:       log.With("agent", id),
			Source:    id,
		})
		if err != nil {
			return nil, err
		}
		if err := c.Network.Register(id, app); err != nil {
			return nil, err
		}
		app.Start()
		c.Apps[id] = app
	}
	return c, nil
}

// View returns the view shared by every replica, or an error when they diverged.
func (c *Committee) View() (agreement.View, error) {
	first := c.Apps[c.IDs[0]].View()
	for _, id := range c.IDs[1:] {
		if v := c.Apps[id].View(); v != first {
			return first, fmt.Errorf("agreementtest: %s is at %+v, %s at %+v", c.IDs[0], first, id, v)
		}
	}
	return first, nil
}

// Snapshot returns the latest snapshot shared by every replica, or an error
// when their stores diverged.
func (c *Committee) Snapshot() (ledger.Snapshot, error) {
	first := c.Apps[c.IDs[0]].Snapshot()
	for _, id := range c.IDs[1:] {
		if s := c.Apps[id].Snapshot(); !s.Equal(first) {
			return first, fmt.Errorf("agreementtest: store of %s diverged from %s at version %d", id, c.IDs[0], s.Version())
		}
	}
	return first, nil
}

// Submit sends the payload of id for the current round.
func (c *Committee) Submit(ctx context.Context, p agreement.Payload) error {
	v, err := c.View()
	if err != nil {
		return err
	}
	return c.Network.Submit(ctx, v.RoundID, p)
}

// ProposeFunc returns the payload agent id submits in view, or nil to stay silent.
type ProposeFunc func(id string, view agreement.View, s ledger.Snapshot) agreement.Payload

// Simulate runs up to maxTicks commit ticks. Before each tick every agent
// submits what propose returns. It stops early once a final stage is reached
// and returns the views visited, starting with the initial one.
func (c *Committee) Simulate(ctx context.Context, maxTicks int, propose ProposeFunc) ([]agreement.View, error) {
	v, err := c.View()
	if err != nil {
		return nil, err
	}
	visited := []agreement.View{v}
	for tick := 0; tick < maxTicks && !v.Final; tick++ {
		for _, id := range c.IDs {
			s := c.Apps[id].Snapshot()
			p := propose(id, v, s)
			if p == nil {
				continue
			}
			if err := c.Network.Submit(ctx, v.RoundID, p); err != nil {
				return visited, fmt.Errorf("agreementtest: %s submit in %s: %w", id, v.Stage, err)
			}
		}
		if _, err := c.Network.Tick(ctx); err != nil {
			return visited, err
		}
		next, err := c.View()
		if err != nil {
			return visited, err
		}
		if next.RoundID != v.RoundID {
			visited = append(visited, next)
		}
		v = next
	}
	if _, err := c.Snapshot(); err != nil {
		return visited, err
	}
	return visited, nil
}
