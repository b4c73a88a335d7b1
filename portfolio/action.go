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

package portfolio

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/aytunc-tunay/ETHGlobal-Trifecta/protocol"
)

// ErrMalformedAction is returned for action strings that are neither a
// no-op nor a swap of the form "swap X% of A to B".
var ErrMalformedAction = errors.New("malformed action")

// ErrMalformedRecommendation is returned when a completion is not a strict
// {action, reason} object.
var ErrMalformedRecommendation = errors.New("malformed recommendation")

var swapPattern = regexp.MustCompile(`(?i)^\s*swap\s+(\d+(?:\.\d+)?)\s*%\s+of\s+([a-z0-9]+)\s+to\s+([a-z0-9]+)\s*\.?\s*$`)

var noActions = map[string]bool{"": true, "none": true, "hold": true, "no action": true}

// upperSymbol folds a token symbol to upper case. Casers hold state, so
// each call builds its own.
func upperSymbol(s string) string {
	return cases.Upper(language.Und).String(s)
}

// Action is a parsed swap instruction. Symbols are upper case.
type Action struct {
	Percent *big.Rat
	Sell    string
	Buy     string
}

// String formats the action the way ParseAction reads it.
func (a Action) String() string {
	return fmt.Sprintf("swap %s%% of %s to %s", a.Percent.FloatString(2), a.Sell, a.Buy)
}

// IsNoAction reports whether the action string asks to keep the portfolio as is.
func IsNoAction(s string) bool {
	return noActions[strings.ToLower(strings.TrimSpace(s))]
}

// ParseAction parses "swap X% of A to B", case-insensitively.
// X must be in (0, 100] and A must differ from B.
func ParseAction(s string) (Action, error) {
	m := swapPattern.FindStringSubmatch(s)
	if m == nil {
		return Action{}, fmt.Errorf("%w: %q", ErrMalformedAction, s)
	}
	pct, ok := new(big.Rat).SetString(m[1])
	if !ok || pct.Sign() <= 0 || pct.Cmp(big.NewRat(100, 1)) > 0 {
		return Action{}, fmt.Errorf("%w: percentage %s out of range", ErrMalformedAction, m[1])
	}
	a := Action{Percent: pct, Sell: upperSymbol(m[2]), Buy: upperSymbol(m[3])}
	if a.Sell == a.Buy {
		return Action{}, fmt.Errorf("%w: swapping %s to itself", ErrMalformedAction, a.Sell)
	}
	return a, nil
}

// SwapAmount returns balance * percent / 100, rounded down to a whole base unit.
func SwapAmount(balance *big.Int, percent *big.Rat) *big.Int {
	amount := new(big.Rat).SetInt(balance)
	amount.Mul(amount, percent)
	amount.Quo(amount, big.NewRat(100, 1))
	return new(big.Int).Quo(amount.Num(), amount.Denom())
}

// Recommendation is the structured answer of the completion service.
type Recommendation struct {
	_struct struct{} `codec:","`

	Action string `codec:"action"`
	Reason string `codec:"reason"`
}

// Encode returns the canonical serialization stored as adjustment_balances.
func (r Recommendation) Encode() string {
	return string(protocol.EncodeCanonicalJSON(r))
}

// stripFences removes a markdown code fence around s, if any.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// language tag, on its own line or not
	s = strings.TrimLeftFunc(s, unicode.IsLetter)
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

// ParseRecommendation decodes a completion into a Recommendation. The JSON
// object may be wrapped in a markdown fence but must hold exactly the
// action and reason fields.
func ParseRecommendation(content string) (Recommendation, error) {
	body := stripFences(content)
	var fields map[string]interface{}
	if err := protocol.DecodeJSON([]byte(body), &fields); err != nil {
		return Recommendation{}, fmt.Errorf("%w: %v", ErrMalformedRecommendation, err)
	}
	if len(fields) != 2 {
		return Recommendation{}, fmt.Errorf("%w: want fields action and reason, got %d fields", ErrMalformedRecommendation, len(fields))
	}
	action, ok1 := fields["action"].(string)
	reason, ok2 := fields["reason"].(string)
	if !ok1 || !ok2 {
		return Recommendation{}, fmt.Errorf("%w: action and reason must be strings", ErrMalformedRecommendation)
	}
	return Recommendation{Action: strings.TrimSpace(action), Reason: strings.TrimSpace(reason)}, nil
}

// DecodeRecommendation parses the adjustment_balances store entry.
func DecodeRecommendation(s string) (Recommendation, error) {
	var r Recommendation
	if err := protocol.DecodeJSON([]byte(s), &r); err != nil {
		return Recommendation{}, fmt.Errorf("%w: %v", ErrMalformedRecommendation, err)
	}
	return r, nil
}
