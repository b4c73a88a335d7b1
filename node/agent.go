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

package node

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/agreement"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/agreement/gossip"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/behaviour"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/config"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/ledger"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/logging"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/portfolio"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/util/db"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/util/metrics"
)

// persistTimeout bounds the write of one committed snapshot.
const persistTimeout = 5 * time.Second

// snapshotsKept is how many persisted snapshots survive pruning.
const snapshotsKept = 64

// agent is one committee member: a replica of the agreement state and the
// scheduler running its behaviours.
type agent struct {
	id        string
	log       logging.Logger
	app       *agreement.App
	scheduler *behaviour.Scheduler
	metrics   *metrics.Collectors

	acc       *db.Accessor
	persister *ledger.Persister
}

type agentParams struct {
	id        string
	log       logging.Logger
	rootDir   string
	cfg       config.Local
	graph     *agreement.Graph
	committee agreement.Committee
	network   *gossip.Network
	registry  behaviour.Registry
	inMemory  bool
}

// genesis is the store content every agent starts from.
func genesis() ledger.Pairs {
	return ledger.Pairs{portfolio.KeyPeriodCount: uint64(0)}
}

func makeAgent(p agentParams) (*agent, error) {
	a := &agent{
		id:      p.id,
		log:     p.log,
		metrics: metrics.MakeCollectors(p.id),
	}

	store := ledger.MakeDB(genesis(), p.graph.CrossPeriodKeys())
	if p.cfg.PersistSnapshots {
		if err := a.openPersister(p.rootDir, p.inMemory); err != nil {
			return nil, err
		}
		s, err := a.persister.Restore(context.Background())
		switch {
		case err == nil:
			store.Restore(s)
			a.log.Infof("resumed from period %d, version %d", s.Period(), s.Version())
		case ledger.ErrNoSnapshotAvailable(err):
		default:
			a.close()
			return nil, fmt.Errorf("restoring snapshots of %s: %w", p.id, err)
		}
		store.AddCommitHook(a.persist)
	}
	store.AddCommitHook(func(s ledger.Snapshot) {
		a.metrics.StoreCommitted(s.Period(), s.Version())
	})

	app, err := agreement.MakeApp(agreement.AppParams{
		Graph:     p.graph,
		Committee: p.committee,
		DB:        store,
		Log:       p.log,
		Metrics:   a.metrics,
		Source:    p.id,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	if err := p.network.Register(p.id, app); err != nil {
		a.close()
		return nil, err
	}
	a.app = app

	a.scheduler, err = behaviour.MakeScheduler(behaviour.SchedulerParams{
		AgentID:   p.id,
		Replica:   app,
		Transport: p.network,
		Registry:  p.registry,
		Log:       p.log,
		Metrics:   a.metrics,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *agent) openPersister(rootDir string, inMemory bool) error {
	acc, err := db.MakeAccessor(filepath.Join(rootDir, a.id+".snapshots.sqlite"), false, inMemory)
	if err != nil {
		return fmt.Errorf("opening snapshot database of %s: %w", a.id, err)
	}
	a.acc = &acc
	a.persister, err = ledger.MakePersister(context.Background(), acc, a.log, a.id)
	if err != nil {
		a.close()
		return err
	}
	return nil
}

// persist writes s and prunes old snapshots. Failures are logged; the
// in-memory store stays authoritative.
func (a *agent) persist(s ledger.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := a.persister.Persist(ctx, s); err != nil {
		return
	}
	if s.Version()%snapshotsKept == 0 {
		if err := a.persister.Prune(ctx, snapshotsKept); err != nil {
			a.log.Warnf("pruning snapshots: %v", err)
		}
	}
}

func (a *agent) close() {
	if a.acc != nil {
		a.acc.Close()
		a.acc = nil
	}
}
