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
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/agreement"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/config"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/portfolio"
)

func init() {
	rootCmd.AddCommand(graphCmd)
}

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the transition graph the agents run",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		timeout := config.GetDefaultLocal().RoundTimeout
		if dir := resolveDataDir(); dir != "" {
			cfg, err := config.LoadConfigFromDisk(dir)
			if err != nil && !os.IsNotExist(err) {
				reportErrorf("Error loading config file from '%s': %v", dir, err)
			}
			timeout = cfg.RoundTimeout
		}
		g, err := portfolio.ChainedGraph(timeout)
		if err != nil {
			reportErrorf("Cannot build graph: %v", err)
		}
		printGraph(os.Stdout, g)
	},
}

// printGraph writes one line per stage followed by its edges. Retry edges
// are yellow, edges leaving the stage green.
func printGraph(w io.Writer, g *agreement.Graph) {
	stage := color.New(color.Bold)
	retry := color.New(color.FgYellow)
	next := color.New(color.FgGreen)

	fmt.Fprintf(w, "%s (initial %s)\n", g.Name(), g.InitialStage())
	edges := g.Edges()
	for _, s := range g.Stages() {
		fmt.Fprintln(w, stage.Sprint(s))
		for _, e := range edges {
			if e.From != s {
				continue
			}
			c := next
			if e.To == e.From {
				c = retry
			}
			line := fmt.Sprintf("  --%s--> %s", e.Event, e.To)
			if d, ok := g.Timeout(e.Event); ok {
				line += fmt.Sprintf(" (after %s)", d)
			}
			fmt.Fprintln(w, c.Sprint(line))
		}
		if keys := g.PreConditions(s); len(keys) > 0 {
			fmt.Fprintf(w, "  requires %v\n", keys)
		}
	}
	fmt.Fprintf(w, "cross period keys %v\n", g.CrossPeriodKeys())
}
