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
	"errors"
)

// ErrConfiguration marks an invalid committee or transition graph. It is
// raised at construction time and is fatal for the agent.
var ErrConfiguration = errors.New("configuration fault")

// ErrValidation marks a payload rejected by the current round. The
// submitting behaviour may retry.
var ErrValidation = errors.New("validation fault")

// ErrStaleRound is returned for payloads and timeouts addressed to a round
// that is no longer current.
var ErrStaleRound = errors.New("payload addressed to a stale round")

// ErrRoundDecided is returned for payloads arriving after the round decided.
var ErrRoundDecided = errors.New("round already decided")

// ErrUnknownPayload is returned when decoding a payload with an unregistered tag.
var ErrUnknownPayload = errors.New("unknown payload tag")
