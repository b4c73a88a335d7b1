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

// Package gossip provides the ordered broadcast agreement replicas share.
// Submissions are buffered and delivered, once per commit tick, in one
// identical order to every registered replica.
package gossip

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/algorand/go-deadlock"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/agreement"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/logging"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/protocol"
)

var submissionBufferSize = 10000

// ErrBufferFull is returned when a tick has too many pending submissions.
var ErrBufferFull = errors.New("submission buffer full")

// ErrUnknownAgent is returned for submissions from unregistered agents.
var ErrUnknownAgent = errors.New("unknown agent")

// Submission is the wire form of a payload addressed to a round.
type Submission struct {
	_struct struct{} `codec:",omitempty,omitemptyarray"`

	Stage   agreement.Stage `codec:"stage"`
	RoundID uint64          `codec:"round"`
	Tag     protocol.Tag    `codec:"tag"`
	Sender  string          `codec:"sender"`
	Body    []byte          `codec:"body"`
}

// MakeSubmission encodes p for the round of view.
func MakeSubmission(view agreement.View, p agreement.Payload) Submission {
	return Submission{
		Stage:   view.Stage,
		RoundID: view.RoundID,
		Tag:     p.Tag(),
		Sender:  p.Sender(),
		Body:    agreement.EncodePayload(p),
	}
}

// Network delivers submissions to a fixed set of replicas.
type Network struct {
	mu deadlock.Mutex

	replicas map[string]*agreement.App
	pending  []Submission
	log      logging.Logger
}

// MakeNetwork returns an empty Network.
func MakeNetwork(log logging.Logger) *Network {
	if log == nil {
		log = logging.Base()
	}
	return &Network{replicas: make(map[string]*agreement.App), log: log}
}

// Register attaches the replica of agentID.
func (n *Network) Register(agentID string, app *agreement.App) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, dup := n.replicas[agentID]; dup {
		return fmt.Errorf("%w: agent %s registered twice", agreement.ErrConfiguration, agentID)
	}
	n.replicas[agentID] = app
	return nil
}

// Replica returns the replica of agentID, or nil.
func (n *Network) Replica(agentID string) *agreement.App {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.replicas[agentID]
}

func (n *Network) agents() []string {
	ids := make([]string, 0, len(n.replicas))
	for id := range n.replicas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Submit queues p for roundID on behalf of its sender.
func (n *Network) Submit(ctx context.Context, roundID uint64, p agreement.Payload) error {
	return n.SubmitRaw(ctx, Submission{
		RoundID: roundID,
		Tag:     p.Tag(),
		Sender:  p.Sender(),
		Body:    agreement.EncodePayload(p),
	})
}

// SubmitRaw queues s once it passes validation on the sender's own replica.
// Validation failures are returned so the sender can resubmit.
func (n *Network) SubmitRaw(ctx context.Context, s Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := agreement.DecodePayload(s.Tag, s.Body)
	if err != nil {
		return err
	}
	if p.Sender() != s.Sender {
		return fmt.Errorf("%w: submission from %s carries a payload of %s", agreement.ErrValidation, s.Sender, p.Sender())
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	app, ok := n.replicas[s.Sender]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAgent, s.Sender)
	}
	if err := app.CheckPayload(s.RoundID, p); err != nil {
		return err
	}
	if s.Stage == "" {
		s.Stage = app.View().Stage
	}
	if len(n.pending) >= submissionBufferSize {
		return ErrBufferFull
	}
	n.pending = append(n.pending, s)
	return nil
}

// Pending returns the number of submissions waiting for the next tick.
func (n *Network) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pending)
}

// Tick delivers every pending submission to every replica, in submission
// order, then ends the block on each of them. It reports whether the
// replicas decided.
func (n *Network) Tick(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	batch := n.pending
	n.pending = nil

	var decided []bool
	for _, id := range n.agents() {
		app := n.replicas[id]
		for _, s := range batch {
			// each replica decodes its own copy
			p, err := agreement.DecodePayload(s.Tag, s.Body)
			if err != nil {
				n.log.Warnf("dropping undecodable %s submission from %s: %v", s.Tag, s.Sender, err)
				continue
			}
			if err := app.DeliverPayload(s.RoundID, p); err != nil {
				n.log.Debugf("%s: submission from %s not delivered: %v", id, s.Sender, err)
			}
		}
		ok, err := app.EndBlock()
		if err != nil {
			return false, fmt.Errorf("end block on %s: %w", id, err)
		}
		decided = append(decided, ok)
	}
	return agree(n.log, decided), nil
}

// RaiseTimeout applies a timeout event to every replica. Pending
// submissions addressed to the timed out round go stale.
func (n *Network) RaiseTimeout(roundID uint64, ev agreement.Event) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	var applied []bool
	for _, id := range n.agents() {
		ok, err := n.replicas[id].Timeout(roundID, ev)
		if err != nil {
			return false, fmt.Errorf("timeout on %s: %w", id, err)
		}
		applied = append(applied, ok)
	}
	return agree(n.log, applied), nil
}

func agree(log logging.Logger, outcomes []bool) bool {
	if len(outcomes) == 0 {
		return false
	}
	for _, o := range outcomes[1:] {
		if o != outcomes[0] {
			log.Errorf("replicas diverged on end block: %v", outcomes)
			break
		}
	}
	return outcomes[0]
}
