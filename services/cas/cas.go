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

// Package cas stores audit records in content-addressed storage. A Put
// returns a reference derived from the stored bytes; the same bytes always
// yield the same reference on a given backend.
package cas

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// Backend kinds accepted by Open.
const (
	KindIPFS  = "ipfs"
	KindS3    = "s3"
	KindLocal = "local"
)

var (
	// ErrNotFound is returned by Get when no object matches the reference.
	ErrNotFound = errors.New("cas: object not found")
	// ErrUnknownRef is returned by Get for a reference another backend produced.
	ErrUnknownRef = errors.New("cas: reference not served by this store")
)

// Store is a content-addressed object store.
type Store interface {
	Put(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
	Close() error
}

// Params selects and configures a backend.
type Params struct {
	Kind string

	IPFSEndpoint string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	// LocalDir holds the pebble database of the local backend.
	LocalDir string
	InMemory bool
}

// Open builds the Store named by p.Kind.
func Open(p Params) (Store, error) {
	switch p.Kind {
	case KindIPFS:
		return MakeIPFSStore(p.IPFSEndpoint)
	case KindS3:
		return MakeS3Store(p)
	case KindLocal:
		return OpenLocalStore(p.LocalDir, p.InMemory)
	default:
		return nil, fmt.Errorf("cas: unknown backend %q", p.Kind)
	}
}

// Digest returns the hex sha256 of data, the object key of the s3 and local
// backends.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
