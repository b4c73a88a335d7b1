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

package agreement

import (
	"fmt"
	"sort"

	"github.com/algorand/go-deadlock"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/protocol"
)

// Payload is the value an agent submits to a round.
//
// Selection returns the values that must match across agents for the round
// to decide, in the order of the round's selection keys. Values must be
// strings, booleans or numbers.
type Payload interface {
	Sender() string
	Tag() protocol.Tag
	Selection() []interface{}
}

// EventCarrier is implemented by payloads of branching rounds: the event
// they carry is part of the vote and becomes the round outcome.
type EventCarrier interface {
	PayloadEvent() Event
}

// PayloadFactory returns a pointer to a zero payload ready for decoding.
type PayloadFactory func() Payload

var payloadRegistry = struct {
	mu        deadlock.RWMutex
	factories map[protocol.Tag]PayloadFactory
}{factories: make(map[protocol.Tag]PayloadFactory)}

// RegisterPayload binds tag to factory. Registering a tag twice panics.
func RegisterPayload(tag protocol.Tag, factory PayloadFactory) {
	payloadRegistry.mu.Lock()
	defer payloadRegistry.mu.Unlock()
	if _, ok := payloadRegistry.factories[tag]; ok {
		panic(fmt.Sprintf("agreement: payload tag %s registered twice", tag))
	}
	payloadRegistry.factories[tag] = factory
}

// EncodePayload returns the msgpack encoding of p.
func EncodePayload(p Payload) []byte {
	return protocol.EncodeReflect(p)
}

// DecodePayload decodes body into a fresh payload of the type registered for tag.
func DecodePayload(tag protocol.Tag, body []byte) (Payload, error) {
	payloadRegistry.mu.RLock()
	factory, ok := payloadRegistry.factories[tag]
	payloadRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPayload, tag)
	}
	p := factory()
	if err := protocol.DecodeReflect(body, p); err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", tag, err)
	}
	if p.Tag() != tag {
		return nil, fmt.Errorf("%w: factory for %s built a %s payload", ErrUnknownPayload, tag, p.Tag())
	}
	return p, nil
}

// Collection maps each sender to its latest payload in the current round.
type Collection map[string]Payload

// Senders returns the senders in sorted order.
func (c Collection) Senders() []string {
	senders := make([]string, 0, len(c))
	for s := range c {
		senders = append(senders, s)
	}
	sort.Strings(senders)
	return senders
}

type collectionEntry struct {
	_struct struct{} `codec:","`

	Tag  protocol.Tag `codec:"tag"`
	Body string       `codec:"payload"`
}

// SerializeCollection encodes c as canonical JSON. Every agent holding the
// same collection produces the same string.
func SerializeCollection(c Collection) (string, error) {
	entries := make(map[string]collectionEntry, len(c))
	for sender, p := range c {
		if p.Sender() != sender {
			return "", fmt.Errorf("%w: payload from %s filed under %s", ErrValidation, p.Sender(), sender)
		}
		entries[sender] = collectionEntry{Tag: p.Tag(), Body: string(protocol.EncodeCanonicalJSON(p))}
	}
	return string(protocol.EncodeCanonicalJSON(entries)), nil
}

// DeserializeCollection reverses SerializeCollection.
func DeserializeCollection(s string) (Collection, error) {
	var entries map[string]collectionEntry
	if err := protocol.DecodeJSON([]byte(s), &entries); err != nil {
		return nil, fmt.Errorf("decoding collection: %w", err)
	}
	c := make(Collection, len(entries))
	for sender, e := range entries {
		payloadRegistry.mu.RLock()
		factory, ok := payloadRegistry.factories[e.Tag]
		payloadRegistry.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPayload, e.Tag)
		}
		p := factory()
		if err := protocol.DecodeJSON([]byte(e.Body), p); err != nil {
			return nil, fmt.Errorf("decoding payload of %s: %w", sender, err)
		}
		c[sender] = p
	}
	return c, nil
}

// selectionKey is the canonical encoding of the vote carried by p.
func selectionKey(p Payload, branching bool) string {
	vote := p.Selection()
	if branching {
		var ev Event
		if carrier, ok := p.(EventCarrier); ok {
			ev = carrier.PayloadEvent()
		}
		vote = append([]interface{}{string(ev)}, vote...)
	}
	return string(protocol.EncodeCanonicalJSON(vote))
}
