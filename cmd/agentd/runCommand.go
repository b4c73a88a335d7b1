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
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/config"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/daemon/agentd/api"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/logging"
	"github.com/aytunc-tunay/ETHGlobal-Trifecta/node"
)

const (
	logFilename   = "agent.log"
	traceFilename = "trace.json"
)

var (
	committeeSize int
	mockServices  bool
	traceSpans    bool
)

func init() {
	runCmd.Flags().IntVarP(&committeeSize, "committee", "n", 0, "Run a local committee of n agents instead of the configured participants")
	runCmd.Flags().BoolVar(&mockServices, "mock-services", false, "Serve every external service from an in-process fake")
	runCmd.Flags().BoolVar(&traceSpans, "trace", false, "Write tracing spans to "+traceFilename+" in the data directory")

	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the agent committee until interrupted",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		os.Exit(run(ensureDataDir()))
	},
}

func run(dir string) int {
	absolutePath, err := filepath.Abs(dir)
	if err != nil {
		reportErrorf("Can't convert data directory's path to absolute, %v", dir)
	}
	if _, err := os.Stat(absolutePath); err != nil {
		reportErrorf("Data directory %s does not appear to be valid", dir)
	}

	log := logging.Base()
	cfg, err := config.LoadConfigFromDisk(absolutePath)
	if err != nil && !os.IsNotExist(err) {
		// log is not setup yet, this will log to stderr
		log.Fatalf("Cannot load config: %v", err)
	}
	if err := config.LoadEnvFiles(absolutePath); err != nil {
		log.Fatalf("Cannot load environment: %v", err)
	}
	cfg = cfg.WithCredentials(config.CredentialsFromEnv())

	reportInfof(infoConfigLoaded, absolutePath)
	// credentials are tagged out of the encoding
	if err := json.NewEncoder(os.Stdout).Encode(cfg); err != nil {
		reportWarnf("Error encoding config: %v", err)
	}

	log.SetLevel(logging.Level(cfg.BaseLoggerDebugLevel))
	liveLog := filepath.Join(absolutePath, logFilename)
	archive := filepath.Join(absolutePath, cfg.LogArchiveName)
	fileWriter, err := logging.MakeCyclicFileWriter(liveLog, archive, cfg.LogSizeLimit)
	if err != nil {
		reportWarnf("Cannot open %s, logging to stdout: %v", liveLog, err)
		log.SetOutput(os.Stdout)
	} else {
		defer fileWriter.Close()
		log.SetOutput(fileWriter)
		log.SetJSONFormatter()
	}

	n, err := node.MakeNode(log, absolutePath, cfg, node.Options{CommitteeSize: committeeSize, MockServices: mockServices})
	if err != nil {
		log.Fatalf("Cannot assemble node: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if traceSpans {
		traceFile, err := os.Create(filepath.Join(absolutePath, traceFilename))
		if err != nil {
			log.Fatalf("Cannot create trace file: %v", err)
		}
		defer traceFile.Close()
		shutdown, err := installTracer(traceFile, n.Session())
		if err != nil {
			log.Fatalf("Cannot install tracer: %v", err)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				log.Warnf("flushing traces: %v", err)
			}
		}()
	}

	n.Start(ctx)
	reportInfof("Agent committee %s running, session %s", versionString(config.GetCurrentVersion()), n.Session())

	if addr := n.Config().EndpointAddress; addr != "" {
		e := api.NewRouter(log.With("component", "api"), n)
		go func() {
			if err := api.Serve(e, addr); err != nil {
				log.Errorf("API server stopped: %v", err)
			}
		}()
		reportInfof("API listening on %s", addr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			e.Shutdown(shutdownCtx)
		}()
	}

	err = n.Wait()
	n.Stop()
	if err != nil {
		log.Errorf("node failed: %v", err)
		return 1
	}
	return 0
}
