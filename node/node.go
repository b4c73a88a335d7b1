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

// Package node is the agent itself: configuration, replicated store,
// agreement replica and behaviour scheduler assembled into a running committee.
package node

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/algorand/go-deadlock"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/agreement"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/agreement/gossip"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/behaviour"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/config"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/ledger"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/logging"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/portfolio"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/cas"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/servicestest"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/util/timers"
)

// LockFilename is the lock file guarding a data directory.
const LockFilename = "agent.lock"

// ErrDataDirLocked is returned when another agent runs against the data directory.
var ErrDataDirLocked = errors.New("data directory is locked by another agent")

// ErrNotRunning is returned by Wait before Start.
var ErrNotRunning = errors.New("node is not running")

// Options tune how a Node is assembled. The zero value runs the committee
// named in the configuration against the configured services.
type Options struct {
	// CommitteeSize, when positive, replaces the configured participants
	// with agent-0..agent-<n-1>.
	CommitteeSize int

	// MockServices serves every external service from an in-process fake.
	MockServices bool

	// InMemory keeps snapshot and audit databases off the disk.
	InMemory bool
}

// StatusReport represents the current basic status of the node
type StatusReport struct {
	AgentID       string
	Session       string
	Stage         agreement.Stage
	RoundID       uint64
	Period        uint64
	Version       uint64
	Final         bool
	CommitteeSize int
	Threshold     int
	LastRoundTime time.Time
}

// TimeSinceLastRound returns the time since the last round change
func (status StatusReport) TimeSinceLastRound() time.Duration {
	if status.LastRoundTime.IsZero() {
		return time.Duration(0)
	}
	return time.Since(status.LastRoundTime)
}

// Node runs a local committee: one replica and one scheduler per agent,
// sharing a gossip.Network driven by commit ticks and round timeouts.
type Node struct {
	mu deadlock.Mutex

	log     logging.Logger
	rootDir string
	cfg     config.Local
	session string

	fileLock *flock.Flock
	graph    *agreement.Graph
	network  *gossip.Network
	agents   []*agent
	clock    *agreement.ClockDriver
	store    cas.Store
	fake     *servicestest.Fake

	running   bool
	cancel    context.CancelFunc
	group     *errgroup.Group
	lastRound time.Time
}

// MakeNode locks rootDir and assembles the committee. Nothing runs until Start.
func MakeNode(log logging.Logger, rootDir string, cfg config.Local, opts Options) (*Node, error) {
	fileLock := flock.New(filepath.Join(rootDir, LockFilename))
	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("unexpected failure in establishing %s: %w", LockFilename, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrDataDirLocked, rootDir)
	}

	n := &Node{
		rootDir:  rootDir,
		session:  uuid.NewString(),
		fileLock: fileLock,
	}
	n.log = log.With("session", n.session)
	if err := n.assemble(cfg, opts); err != nil {
		n.release()
		return nil, err
	}
	return n, nil
}

func (n *Node) assemble(cfg config.Local, opts Options) error {
	if opts.CommitteeSize > 0 {
		cfg.Participants = AgentIDs(opts.CommitteeSize)
		cfg.AgentID = cfg.Participants[0]
	}
	if opts.MockServices {
		n.fake = servicestest.NewFake()
		cfg = mockServices(n.fake, cfg)
		n.log.Infof("serving external services from %s", n.fake.Server.URL)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", agreement.ErrConfiguration, err)
	}
	n.cfg = cfg

	graph, err := portfolio.ChainedGraph(cfg.RoundTimeout)
	if err != nil {
		return err
	}
	n.graph = graph

	committee, err := agreement.MakeCommittee(cfg.Participants, cfg.ConsensusThreshold)
	if err != nil {
		return err
	}

	n.store, err = cas.Open(cas.Params{
		Kind:         cfg.AuditStore,
		IPFSEndpoint: cfg.IPFSEndpoint,
		S3Bucket:     cfg.S3Bucket,
		S3Region:     cfg.S3Region,
		S3Endpoint:   cfg.S3Endpoint,
		S3AccessKey:  cfg.Credentials.S3AccessKey,
		S3SecretKey:  cfg.Credentials.S3SecretKey,
		LocalDir:     n.rootDir,
		InMemory:     opts.InMemory,
	})
	if err != nil {
		return fmt.Errorf("%w: audit store: %v", agreement.ErrConfiguration, err)
	}

	registry, err := makeRegistry(cfg, n.store)
	if err != nil {
		return err
	}
	if err := registry.Validate(graph); err != nil {
		return err
	}

	n.network = gossip.MakeNetwork(n.log.With("component", "gossip"))
	for _, id := range committee.Members() {
		a, err := makeAgent(agentParams{
			id:        id,
			log:       n.log.With("agent", id),
			rootDir:   n.rootDir,
			cfg:       cfg,
			graph:     graph,
			committee: committee,
			network:   n.network,
			registry:  registry,
			inMemory:  opts.InMemory,
		})
		if err != nil {
			return err
		}
		n.agents = append(n.agents, a)
	}
	n.clock = agreement.MakeClockDriver(graph, timers.MakeMonotonicClock(time.Now()), n.log.With("component", "clock"))
	n.log.Infof("committee of %d agents, threshold %d", committee.Size(), committee.Threshold())
	return nil
}

// Config returns a copy of the node's Local configuration
func (n *Node) Config() config.Local {
	return n.cfg
}

// Graph returns the transition graph every replica runs.
func (n *Node) Graph() *agreement.Graph {
	return n.graph
}

// Session identifies this run of the node in logs.
func (n *Node) Session() string {
	return n.session
}

// AuditStore returns the content-addressed store audit reports are written to.
func (n *Node) AuditStore() cas.Store {
	return n.store
}

// Services returns the in-process fake services, or nil when real services are used.
func (n *Node) Services() *servicestest.Fake {
	return n.fake
}

// primary is the agent whose state the node reports.
func (n *Node) primary() *agent {
	for _, a := range n.agents {
		if a.id == n.cfg.AgentID {
			return a
		}
	}
	return n.agents[0]
}

// Start enters the initial stage on every replica and runs the committee
// until Stop is called or a component fails.
func (n *Node) Start(ctx context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.running {
		return
	}
	n.running = true

	ctx, n.cancel = context.WithCancel(ctx)
	n.group, ctx = errgroup.WithContext(ctx)

	for _, a := range n.agents {
		a.app.Start()
	}
	views := n.primary().app.Subscribe()
	clockViews := make(chan agreement.View, 1)

	n.group.Go(func() error {
		n.relayViews(ctx, views, clockViews)
		return nil
	})
	n.group.Go(func() error {
		n.clock.Run(ctx, clockViews, n.raiseTimeout)
		return nil
	})
	n.group.Go(func() error {
		return n.commitLoop(ctx)
	})
	for _, a := range n.agents {
		a := a
		n.group.Go(func() error {
			return a.scheduler.Run(ctx, n.cfg.BehaviourTickInterval)
		})
	}
	n.log.Infof("node started with graph %v", n.graph.Stages())
}

// relayViews records round changes and forwards them to the clock driver.
func (n *Node) relayViews(ctx context.Context, in <-chan agreement.View, out chan agreement.View) {
	for {
		select {
		case <-ctx.Done():
			return
		case v := <-in:
			n.mu.Lock()
			n.lastRound = time.Now()
			n.mu.Unlock()
			// only the latest view matters to the clock
			select {
			case <-out:
			default:
			}
			out <- v
		}
	}
}

func (n *Node) raiseTimeout(roundID uint64, ev agreement.Event) {
	applied, err := n.network.RaiseTimeout(roundID, ev)
	if err != nil {
		n.log.Errorf("raising %s on round %d: %v", ev, roundID, err)
		return
	}
	if applied {
		n.log.Infof("round %d timed out with %s", roundID, ev)
	}
}

// commitLoop delivers pending submissions every BlockInterval.
func (n *Node) commitLoop(ctx context.Context) error {
	ticker := time.NewTicker(n.cfg.BlockInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := n.network.Tick(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
	}
}

// Wait blocks until the node stops and returns the first component failure.
func (n *Node) Wait() error {
	n.mu.Lock()
	group := n.group
	n.mu.Unlock()
	if group == nil {
		return ErrNotRunning
	}
	return group.Wait()
}

// Stop cancels every component, waits for them and releases the data directory.
func (n *Node) Stop() {
	n.mu.Lock()
	cancel, group := n.cancel, n.group
	n.running = false
	n.mu.Unlock()

	if cancel != nil {
		cancel()
		if err := group.Wait(); err != nil {
			n.log.Warnf("node stopped with error: %v", err)
		}
	}
	n.release()
	n.log.Info("node stopped")
}

func (n *Node) release() {
	for _, a := range n.agents {
		a.close()
	}
	if n.store != nil {
		if err := n.store.Close(); err != nil {
			n.log.Warnf("closing audit store: %v", err)
		}
	}
	if n.fake != nil {
		n.fake.Close()
	}
	if err := n.fileLock.Unlock(); err != nil {
		n.log.Warnf("releasing %s: %v", LockFilename, err)
	}
}

// Status returns a StatusReport of the primary agent.
func (n *Node) Status() StatusReport {
	a := n.primary()
	v := a.app.View()
	s := a.app.Snapshot()
	n.mu.Lock()
	last := n.lastRound
	n.mu.Unlock()
	return StatusReport{
		AgentID:       a.id,
		Session:       n.session,
		Stage:         v.Stage,
		RoundID:       v.RoundID,
		Period:        s.Period(),
		Version:       s.Version(),
		Final:         v.Final,
		CommitteeSize: a.app.Committee().Size(),
		Threshold:     a.app.Committee().Threshold(),
		LastRoundTime: last,
	}
}

// Snapshot returns the latest committed snapshot of the primary agent.
func (n *Node) Snapshot() ledger.Snapshot {
	return n.primary().app.Snapshot()
}

// Gatherer returns the metrics registry of the primary agent.
func (n *Node) Gatherer() prometheus.Gatherer {
	return n.primary().metrics.Registry
}

// Replica returns the replica of agentID, or nil.
func (n *Node) Replica(agentID string) *agreement.App {
	return n.network.Replica(agentID)
}

// Scheduler returns the scheduler of agentID, or nil.
func (n *Node) Scheduler(agentID string) *behaviour.Scheduler {
	for _, a := range n.agents {
		if a.id == agentID {
			return a.scheduler
		}
	}
	return nil
}

// AgentIDs returns n agent ids agent-0..agent-<n-1>.
func AgentIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("agent-%d", i)
	}
	return ids
}
