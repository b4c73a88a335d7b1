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

package cas

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/services/restclient"
)

// IPFSStore talks to the HTTP RPC API of an IPFS node. References are CIDs.
type IPFSStore struct {
	client restclient.RestClient
}

type ipfsArg struct {
	Arg string `url:"arg"`
}

type ipfsAddParams struct {
	Pin bool `url:"pin"`
}

type ipfsAddResponse struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
}

// MakeIPFSStore returns a store for the node at endpoint.
func MakeIPFSStore(endpoint string) (*IPFSStore, error) {
	u, err := restclient.ParseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	return &IPFSStore{client: restclient.MakeRestClient(u, nil)}, nil
}

// Put adds and pins data.
func (s *IPFSStore) Put(ctx context.Context, data []byte) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "audit.json")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	var resp ipfsAddResponse
	err = s.client.PostRaw(ctx, &resp, "/api/v0/add", ipfsAddParams{Pin: true}, w.FormDataContentType(), &body)
	if err != nil {
		return "", fmt.Errorf("ipfs add: %w", err)
	}
	if resp.Hash == "" {
		return "", fmt.Errorf("ipfs add: empty hash in response")
	}
	return resp.Hash, nil
}

// Get fetches the object named by cid.
func (s *IPFSStore) Get(ctx context.Context, cid string) ([]byte, error) {
	if cid == "" {
		return nil, ErrUnknownRef
	}
	data, err := s.client.PostBytes(ctx, "/api/v0/cat", ipfsArg{Arg: cid})
	if err != nil {
		var herr restclient.HTTPError
		if errors.As(err, &herr) && herr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, cid)
		}
		return nil, fmt.Errorf("ipfs cat: %w", err)
	}
	return data, nil
}

// Close is a no-op.
func (s *IPFSStore) Close() error { return nil }
