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
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Credentials holds the API keys of the external services.
type Credentials struct {
	OpenAIAPIKey        string
	CoinMarketCapAPIKey string
	CoinGeckoAPIKey     string
	TheGraphAPIKey      string
	S3AccessKey         string
	S3SecretKey         string
}

// EnvFiles are loaded from the data directory, first match wins per variable.
var EnvFiles = []string{".env.local", ".env"}

// LoadEnvFiles loads EnvFiles from root into the process environment.
// Variables already present in the environment are not overridden.
func LoadEnvFiles(root string) error {
	for _, file := range EnvFiles {
		path := filepath.Join(root, file)
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// CredentialsFromEnv reads Credentials from the process environment.
func CredentialsFromEnv() Credentials {
	return Credentials{
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		CoinMarketCapAPIKey: os.Getenv("COINMARKETCAP_API_KEY"),
		CoinGeckoAPIKey:     os.Getenv("COINGECKO_API_KEY"),
		TheGraphAPIKey:      os.Getenv("THEGRAPH_API_KEY"),
		S3AccessKey:         os.Getenv("AWS_ACCESS_KEY_ID"),
		S3SecretKey:         os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}
}

// WithCredentials returns a copy of cfg carrying creds.
func (cfg Local) WithCredentials(creds Credentials) Local {
	out := cfg.clone()
	out.Credentials = creds
	return out
}
