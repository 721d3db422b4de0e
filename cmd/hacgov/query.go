package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/calehh/hac-gov/api"
	"github.com/calehh/hac-gov/codec"
	"github.com/calehh/hac-gov/types"
	"github.com/cometbft/cometbft/rpc/client/http"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var queryUrl string

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query topics and votes from a node",
}

func abciQuery(path string, data []byte) ([]byte, error) {
	cli, err := http.New(queryUrl, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	res, err := cli.ABCIQuery(context.Background(), path, data)
	if err != nil {
		return nil, err
	}
	if res.Response.Code != 0 {
		return nil, fmt.Errorf("query %s: code %d %s", path, res.Response.Code, res.Response.Log)
	}
	return res.Response.Value, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func parseAddressArg(v string) (a common.Address, err error) {
	if !common.IsHexAddress(v) {
		return a, fmt.Errorf("invalid address %q", v)
	}
	return common.HexToAddress(v), nil
}

var queryTopicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List topic hashes",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		dat, err := abciQuery("/topics/", nil)
		if err != nil {
			return err
		}
		hashes, err := types.DecodeFromBytes(dat, func(s *codec.Source) ([]types.Hash, error) {
			return codec.ReadList(s, func(s *codec.Source) (types.Hash, error) { return s.ReadHash() })
		})
		if err != nil {
			return err
		}
		return printJSON(hashes)
	},
}

var queryGovNodesCmd = &cobra.Command{
	Use:   "govnodes",
	Short: "List governance nodes",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		dat, err := abciQuery("/govNodes/", nil)
		if err != nil {
			return err
		}
		nodes, err := types.DecodeFromBytes(dat, func(s *codec.Source) ([]types.Address, error) {
			return codec.ReadList(s, func(s *codec.Source) (types.Address, error) { return s.ReadAddress() })
		})
		if err != nil {
			return err
		}
		return printJSON(nodes)
	},
}

var queryTopicCmd = &cobra.Command{
	Use:   "topic <hash>",
	Short: "Show title and detail of a topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := parseHashArg(args[0])
		if err != nil {
			return err
		}
		dat, err := abciQuery("/topic/", hash[:])
		if err != nil {
			return err
		}
		if len(dat) == 0 {
			return printJSON(nil)
		}
		topic, err := types.DecodeFromBytes(dat, types.DecodeTopic)
		if err != nil {
			return err
		}
		return printJSON(api.TopicView{Title: topic.Title, Detail: topic.Detail})
	},
}

var queryTopicInfoCmd = &cobra.Command{
	Use:   "topicinfo <hash>",
	Short: "Show the state and tally of a topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := parseHashArg(args[0])
		if err != nil {
			return err
		}
		dat, err := abciQuery("/topicInfo/", hash[:])
		if err != nil {
			return err
		}
		if len(dat) == 0 {
			return printJSON(nil)
		}
		info, err := types.DecodeFromBytes(dat, types.DecodeTopicInfo)
		if err != nil {
			return err
		}
		return printJSON(api.NewTopicInfoView(info))
	},
}

var queryVotedInfoCmd = &cobra.Command{
	Use:   "votedinfo <hash> <voter>",
	Short: "Show the choice of a voter: 0 none, 1 approve, 2 reject",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := parseHashArg(args[0])
		if err != nil {
			return err
		}
		voter, err := parseAddressArg(args[1])
		if err != nil {
			return err
		}
		dat, err := abciQuery("/votedInfo/", append(hash.Bytes(), voter.Bytes()...))
		if err != nil {
			return err
		}
		if len(dat) != 1 {
			return fmt.Errorf("unexpected reply %s", hexutil.Encode(dat))
		}
		return printJSON(api.VotedInfoResponse{State: types.VotedState(dat[0])})
	},
}

var queryVotedAddressCmd = &cobra.Command{
	Use:   "votes <hash>",
	Short: "List the votes of a topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := parseHashArg(args[0])
		if err != nil {
			return err
		}
		dat, err := abciQuery("/votedAddress/", hash[:])
		if err != nil {
			return err
		}
		votes, err := types.DecodeFromBytes(dat, types.DecodeVotedInfos)
		if err != nil {
			return err
		}
		return printJSON(votes)
	},
}

var queryTopicsByAddressCmd = &cobra.Command{
	Use:   "created <address>",
	Short: "List the topics created by an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := parseAddressArg(args[0])
		if err != nil {
			return err
		}
		dat, err := abciQuery("/topicsByAddress/", addr[:])
		if err != nil {
			return err
		}
		infos, err := types.DecodeFromBytes(dat, func(s *codec.Source) ([]*types.TopicInfo, error) {
			return codec.ReadList(s, types.DecodeTopicInfo)
		})
		if err != nil {
			return err
		}
		views := make([]api.TopicInfoView, 0, len(infos))
		for _, info := range infos {
			views = append(views, api.NewTopicInfoView(info))
		}
		return printJSON(views)
	},
}

var queryNonceCmd = &cobra.Command{
	Use:   "nonce <address>",
	Short: "Show the nonce the next transaction of an address must carry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := parseAddressArg(args[0])
		if err != nil {
			return err
		}
		dat, err := abciQuery("/nonce/", addr[:])
		if err != nil {
			return err
		}
		nonce, err := codec.NewSource(dat).ReadU64()
		if err != nil {
			return err
		}
		return printJSON(api.NonceResponse{Nonce: nonce})
	},
}

func init() {
	queryCmd.PersistentFlags().StringVarP(&queryUrl, "url", "u", "http://127.0.0.1:26657", "hacgov node rpc url")
	queryCmd.AddCommand(
		queryTopicsCmd,
		queryGovNodesCmd,
		queryTopicCmd,
		queryTopicInfoCmd,
		queryVotedInfoCmd,
		queryVotedAddressCmd,
		queryTopicsByAddressCmd,
		queryNonceCmd,
	)
}
