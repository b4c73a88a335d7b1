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

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ConfigFilename is the name of the config.json file where we store per-agent settings
const ConfigFilename = "config.json"

// ErrInvalidConfig is returned by Validate for any inconsistent setting.
var ErrInvalidConfig = errors.New("invalid configuration")

// GetDefaultLocal returns a copy of the current defaultLocal config
func GetDefaultLocal() Local {
	return defaultLocal.clone()
}

// LoadConfigFromDisk returns a Local config loaded from root/ConfigFilename merged over the
// defaults. When the file does not exist the defaults are returned together with an error
// satisfying os.IsNotExist.
func LoadConfigFromDisk(root string) (c Local, err error) {
	return loadConfigFromFile(filepath.Join(root, ConfigFilename))
}

func loadConfigFromFile(configFile string) (c Local, err error) {
	c = GetDefaultLocal()
	f, err := os.Open(configFile)
	if err != nil {
		return c, err
	}
	defer f.Close()

	err = loadConfig(f, &c)
	return c, err
}

func loadConfig(reader io.Reader, config *Local) error {
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	return dec.Decode(config)
}

// SaveToDisk writes the Local settings into a root/ConfigFilename file
func (cfg Local) SaveToDisk(root string) error {
	configpath := filepath.Join(root, ConfigFilename)
	filename := os.ExpandEnv(configpath)
	return cfg.SaveToFile(filename)
}

// SaveToFile saves the config to a specific filename, allowing overriding the default name
func (cfg Local) SaveToFile(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "\t")
	return enc.Encode(cfg)
}

// Validate reports the first inconsistent setting, wrapped in ErrInvalidConfig.
func (cfg Local) Validate() error {
	if cfg.AgentID == "" {
		return fmt.Errorf("%w: AgentID is empty", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(cfg.Participants))
	for _, p := range cfg.Participants {
		if p == "" || seen[p] {
			return fmt.Errorf("%w: participant %q is empty or duplicated", ErrInvalidConfig, p)
		}
		seen[p] = true
	}
	if !seen[cfg.AgentID] {
		return fmt.Errorf("%w: AgentID %s is not a participant", ErrInvalidConfig, cfg.AgentID)
	}
	if cfg.BlockInterval <= 0 || cfg.RoundTimeout <= 0 || cfg.BehaviourTickInterval <= 0 {
		return fmt.Errorf("%w: intervals and timeouts must be positive", ErrInvalidConfig)
	}
	if cfg.ResetPauseDuration < 0 {
		return fmt.Errorf("%w: ResetPauseDuration is negative", ErrInvalidConfig)
	}
	switch cfg.AuditStore {
	case "ipfs", "local":
	case "s3":
		if cfg.S3Bucket == "" {
			return fmt.Errorf("%w: s3 audit store needs S3Bucket", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown AuditStore %q", ErrInvalidConfig, cfg.AuditStore)
	}
	for symbol := range cfg.Tokens {
		if _, ok := cfg.TokenDecimals[symbol]; !ok {
			return fmt.Errorf("%w: token %s has no decimals", ErrInvalidConfig, symbol)
		}
		if _, ok := cfg.PriceIDs[symbol]; !ok {
			return fmt.Errorf("%w: token %s has no price id", ErrInvalidConfig, symbol)
		}
	}
	return nil
}

// TokenSymbols returns the configured token symbols in sorted order.
func (cfg Local) TokenSymbols() []string {
	symbols := make([]string, 0, len(cfg.Tokens))
	for s := range cfg.Tokens {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// TokenBySymbol resolves a symbol case-insensitively.
func (cfg Local) TokenBySymbol(symbol string) (string, bool) {
	for s, addr := range cfg.Tokens {
		if strings.EqualFold(s, symbol) {
			return addr, true
		}
	}
	return "", false
}

func (cfg Local) clone() Local {
	out := cfg
	out.Participants = append([]string(nil), cfg.Participants...)
	out.Tokens = cloneMap(cfg.Tokens)
	out.TokenDecimals = cloneMap(cfg.TokenDecimals)
	out.PriceIDs = cloneMap(cfg.PriceIDs)
	return out
}

func cloneMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
