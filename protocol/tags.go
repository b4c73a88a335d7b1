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

package protocol

// Tag identifies the payload type carried by a submission. Rounds accept
// exactly one tag and the agreement transport routes on it.
type Tag string

// Tags, in lexicographic sort order of tag values to avoid duplicates.
const (
	UnknownPayloadTag        Tag = "??"
	DecisionMakingPayloadTag Tag = "DM"
	DataPullPayloadTag       Tag = "DP"
	ResetPayloadTag          Tag = "RP"
	TxPreparationPayloadTag  Tag = "TP"
)

// TagList is a list of all currently used protocol tags.
var TagList = []Tag{
	UnknownPayloadTag,
	DecisionMakingPayloadTag,
	DataPullPayloadTag,
	ResetPayloadTag,
	TxPreparationPayloadTag,
}

// Known reports whether t names a payload type.
func (t Tag) Known() bool {
	switch t {
	case DecisionMakingPayloadTag, DataPullPayloadTag, ResetPayloadTag, TxPreparationPayloadTag:
		return true
	default:
		return false
	}
}
