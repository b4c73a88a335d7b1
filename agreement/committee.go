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
)

// Committee is the fixed set of agents that vote in every round, together
// with the number of identical payloads required to decide.
type Committee struct {
	members   []string
	index     map[string]int
	threshold int
}

// DefaultThreshold returns the Byzantine quorum floor(2n/3)+1.
func DefaultThreshold(n int) int {
	return n*2/3 + 1
}

// MakeCommittee validates members and threshold. A zero threshold selects
// DefaultThreshold. The threshold must satisfy n/2 < t <= n so two
// conflicting values can never both reach it.
func MakeCommittee(members []string, threshold int) (Committee, error) {
	n := len(members)
	if n == 0 {
		return Committee{}, fmt.Errorf("%w: empty committee", ErrConfiguration)
	}
	if threshold == 0 {
		threshold = DefaultThreshold(n)
	}
	if 2*threshold <= n || threshold > n {
		return Committee{}, fmt.Errorf("%w: threshold %d is outside (%d/2, %d]", ErrConfiguration, threshold, n, n)
	}

	c := Committee{
		members:   append([]string(nil), members...),
		index:     make(map[string]int, n),
		threshold: threshold,
	}
	sort.Strings(c.members)
	for i, m := range c.members {
		if m == "" {
			return Committee{}, fmt.Errorf("%w: empty member id", ErrConfiguration)
		}
		if _, dup := c.index[m]; dup {
			return Committee{}, fmt.Errorf("%w: duplicate member %s", ErrConfiguration, m)
		}
		c.index[m] = i
	}
	return c, nil
}

// Size returns the number of members.
func (c Committee) Size() int {
	return len(c.members)
}

// Threshold returns the number of identical payloads needed to decide.
func (c Committee) Threshold() int {
	return c.threshold
}

// Members returns the sorted member ids.
func (c Committee) Members() []string {
	return append([]string(nil), c.members...)
}

// IsMember reports whether id belongs to the committee.
func (c Committee) IsMember(id string) bool {
	_, ok := c.index[id]
	return ok
}
