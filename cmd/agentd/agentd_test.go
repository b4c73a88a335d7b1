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

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/config"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/portfolio"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/test/partitiontest"
)

func TestGetObjectProperty(t *testing.T) {
	partitiontest.PartitionTest(t)

	cfg := config.GetDefaultLocal()
	v, err := getObjectProperty(cfg, "RoundTimeout")
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, v)

	v, err = getObjectProperty(&cfg, "AuditStore")
	require.NoError(t, err)
	require.Equal(t, "local", v)

	_, err = getObjectProperty(cfg, "NoSuchField")
	require.Error(t, err)
}

func TestPrintGraph(t *testing.T) {
	partitiontest.PartitionTest(t)

	color.NoColor = true
	g, err := portfolio.ChainedGraph(time.Minute)
	require.NoError(t, err)

	var buf bytes.Buffer
	printGraph(&buf, g)
	out := buf.String()
	require.Contains(t, out, "initial data_pull_round")
	require.Contains(t, out, "decision_making_round\n")
	require.Contains(t, out, "  --transact--> tx_preparation_round\n")
	require.Contains(t, out, "  --round_timeout--> data_pull_round (after 1m0s)\n")
	require.Contains(t, out, "  --done--> data_pull_round\n")
	require.Contains(t, out, "cross period keys [period_count]")
}

func TestVersionString(t *testing.T) {
	partitiontest.PartitionTest(t)

	v := config.Version{Major: 0, Minor: 3, BuildNumber: 12}
	require.Equal(t, "0.3.12", versionString(v))
	v.CommitHash, v.Branch = "abc123", "main"
	require.Equal(t, "0.3.12 abc123 [main]", versionString(v))
}
