package types

import (
	"encoding/hex"
	"fmt"
	"strconv"

	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/ethereum/go-ethereum/common"
)

const (
	EventCreateTopicType = "create_topic"
	EventCancelTopicType = "cancel_topic"
	EventVoteTopicType   = "vote_topic"
	EventMigrateType     = "migrate"
)

type EventCreateTopic struct {
	Hash    Hash    `json:"hash"`
	Creator Address `json:"creator"`
	Title   []byte  `json:"title"`
	Detail  []byte  `json:"detail"`
}

func EncodeEventCreateTopic(event *EventCreateTopic) abci.Event {
	return abci.Event{
		Type: EventCreateTopicType,
		Attributes: []abci.EventAttribute{
			{Key: "hash", Value: event.Hash.Hex(), Index: true},
			{Key: "creator", Value: event.Creator.Hex(), Index: true},
			{Key: "title", Value: hex.EncodeToString(event.Title), Index: false},
			{Key: "detail", Value: hex.EncodeToString(event.Detail), Index: false},
		},
	}
}

func DecodeEventCreateTopic(originEvent abci.Event) *EventCreateTopic {
	event := &EventCreateTopic{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "hash":
			event.Hash = common.HexToHash(v.Value)
		case "creator":
			event.Creator = common.HexToAddress(v.Value)
		case "title":
			title, err := hex.DecodeString(v.Value)
			if err != nil {
				return nil
			}
			event.Title = title
		case "detail":
			detail, err := hex.DecodeString(v.Value)
			if err != nil {
				return nil
			}
			event.Detail = detail
		}
	}
	return event
}

type EventCancelTopic struct {
	Hash    Hash    `json:"hash"`
	Creator Address `json:"creator"`
}

func EncodeEventCancelTopic(event *EventCancelTopic) abci.Event {
	return abci.Event{
		Type: EventCancelTopicType,
		Attributes: []abci.EventAttribute{
			{Key: "hash", Value: event.Hash.Hex(), Index: true},
			{Key: "creator", Value: event.Creator.Hex(), Index: false},
		},
	}
}

type EventVoteTopic struct {
	Hash    Hash    `json:"hash"`
	Voter   Address `json:"voter"`
	Approve bool    `json:"approve"`
	Weight  uint64  `json:"weight"`
}

func EncodeEventVoteTopic(event *EventVoteTopic) abci.Event {
	return abci.Event{
		Type: EventVoteTopicType,
		Attributes: []abci.EventAttribute{
			{Key: "hash", Value: event.Hash.Hex(), Index: true},
			{Key: "voter", Value: event.Voter.Hex(), Index: true},
			{Key: "approve", Value: fmt.Sprintf("%v", event.Approve), Index: false},
			{Key: "weight", Value: fmt.Sprintf("%v", event.Weight), Index: false},
		},
	}
}

func DecodeEventVoteTopic(originEvent abci.Event) *EventVoteTopic {
	event := &EventVoteTopic{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "hash":
			event.Hash = common.HexToHash(v.Value)
		case "voter":
			event.Voter = common.HexToAddress(v.Value)
		case "approve":
			approve, err := strconv.ParseBool(v.Value)
			if err != nil {
				return nil
			}
			event.Approve = approve
		case "weight":
			weight, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.Weight = weight
		}
	}
	return event
}

type EventMigrate struct {
	Address Address `json:"address"`
	Name    string  `json:"name"`
	Version string  `json:"version"`
}

func EncodeEventMigrate(event *EventMigrate) abci.Event {
	return abci.Event{
		Type: EventMigrateType,
		Attributes: []abci.EventAttribute{
			{Key: "address", Value: event.Address.Hex(), Index: true},
			{Key: "name", Value: event.Name, Index: false},
			{Key: "version", Value: event.Version, Index: false},
		},
	}
}
