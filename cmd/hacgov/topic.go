package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/calehh/hac-gov/codec"
	"github.com/calehh/hac-gov/crypto"
	"github.com/calehh/hac-gov/tx"
	"github.com/cometbft/cometbft/rpc/client/http"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

type sendArguments struct {
	Url    string
	Skey   string
	NoSend bool
	Nonce  int64
}

func sendFlags(cmd *cobra.Command, args *sendArguments) {
	urlFlag(cmd, &args.Url)
	skeyFlag(cmd, &args.Skey)
	cmd.Flags().BoolVarP(&args.NoSend, "nosend", "", false, "not send transaction but print it")
	cmd.Flags().Int64VarP(&args.Nonce, "nonce", "n", -1, "account nonce, read from the node when negative")
}

func accountNonce(ctx context.Context, cli *http.HTTP, addr common.Address) (uint64, error) {
	res, err := cli.ABCIQuery(ctx, "/nonce/", addr.Bytes())
	if err != nil {
		return 0, fmt.Errorf("query nonce: %w", err)
	}
	if res.Response.Code != 0 {
		return 0, fmt.Errorf("query nonce: code %d %s", res.Response.Code, res.Response.Log)
	}
	return codec.NewSource(res.Response.Value).ReadU64()
}

// sendTx signs body with the key at args.Skey and broadcasts it. build
// receives the governance address of the key.
func sendTx(args *sendArguments, tp tx.GovTxType, build func(pv *crypto.PV) any) error {
	cli, err := http.New(args.Url, "/websocket")
	if err != nil {
		return fmt.Errorf("new client: %w", err)
	}
	ctx := context.Background()
	gres, err := cli.Genesis(ctx)
	if err != nil {
		return fmt.Errorf("get chain genesis: %w", err)
	}
	pv, err := crypto.LoadFilePV(args.Skey)
	if err != nil {
		return err
	}
	nonce := uint64(args.Nonce)
	if args.Nonce < 0 {
		if nonce, err = accountNonce(ctx, cli, pv.Address()); err != nil {
			return err
		}
	}
	gtx := &tx.GovTx{
		Version: tx.GovTxVersion0,
		Type:    tp,
		Nonce:   nonce,
		Tx:      build(pv),
	}
	dat, err := pv.SignTx(gtx, gres.Genesis.ChainID)
	if err != nil {
		return fmt.Errorf("sign tx: %w", err)
	}
	fmt.Println("address:", pv.Address().Hex(), "nonce:", nonce)
	if args.NoSend {
		fmt.Println(string(dat))
		return nil
	}
	res, err := cli.BroadcastTxSync(ctx, dat)
	if err != nil {
		return fmt.Errorf("broadcast tx: %w", err)
	}
	out, _ := json.Marshal(res)
	fmt.Println(string(out))
	if res.Code != 0 {
		return errors.New(res.Log)
	}
	return nil
}

var topicCmd = &cobra.Command{
	Use:   "topic",
	Short: "Create, cancel and vote on topics",
}

type createTopicArguments struct {
	sendArguments
	Title  string
	Detail string
	Start  uint64
	End    uint64
}

var createTopicArgs createTopicArguments

var createTopicCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a topic open for voting between start and end (unix seconds)",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTx(&createTopicArgs.sendArguments, tx.GovTxTypeCreateTopic, func(pv *crypto.PV) any {
			return &tx.CreateTopicTx{
				Creator:   pv.Address(),
				Title:     []byte(createTopicArgs.Title),
				Detail:    []byte(createTopicArgs.Detail),
				StartTime: createTopicArgs.Start,
				EndTime:   createTopicArgs.End,
			}
		})
	},
}

var cancelTopicArgs sendArguments

var cancelTopicCmd = &cobra.Command{
	Use:   "cancel <hash>",
	Short: "Cancel a topic created by this key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := parseHashArg(args[0])
		if err != nil {
			return err
		}
		return sendTx(&cancelTopicArgs, tx.GovTxTypeCancelTopic, func(pv *crypto.PV) any {
			return &tx.CancelTopicTx{Hash: hash}
		})
	},
}

type voteTopicArguments struct {
	sendArguments
	Reject bool
}

var voteTopicArgs voteTopicArguments

var voteTopicCmd = &cobra.Command{
	Use:   "vote <hash>",
	Short: "Approve a topic, or reject it with --reject",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := parseHashArg(args[0])
		if err != nil {
			return err
		}
		return sendTx(&voteTopicArgs.sendArguments, tx.GovTxTypeVoteTopic, func(pv *crypto.PV) any {
			return &tx.VoteTopicTx{Hash: hash, Voter: pv.Address(), Approve: !voteTopicArgs.Reject}
		})
	},
}

type migrateArguments struct {
	sendArguments
	CodeFile    string
	VmType      uint32
	Name        string
	Version     string
	Author      string
	Email       string
	Description string
}

var migrateArgs migrateArguments

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the governance module to new code, super admin only",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := os.ReadFile(migrateArgs.CodeFile)
		if err != nil {
			return err
		}
		return sendTx(&migrateArgs.sendArguments, tx.GovTxTypeMigrate, func(pv *crypto.PV) any {
			return &tx.MigrateTx{
				Code:        code,
				VmType:      migrateArgs.VmType,
				Name:        migrateArgs.Name,
				Version:     migrateArgs.Version,
				Author:      migrateArgs.Author,
				Email:       migrateArgs.Email,
				Description: migrateArgs.Description,
			}
		})
	},
}

func parseHashArg(v string) (h common.Hash, err error) {
	dat, err := hexutil.Decode(v)
	if err != nil || len(dat) != common.HashLength {
		return h, fmt.Errorf("invalid topic hash %q", v)
	}
	return common.BytesToHash(dat), nil
}

func init() {
	sendFlags(createTopicCmd, &createTopicArgs.sendArguments)
	createTopicCmd.Flags().StringVarP(&createTopicArgs.Title, "title", "t", "", "topic title")
	createTopicCmd.Flags().StringVarP(&createTopicArgs.Detail, "detail", "", "", "topic detail")
	createTopicCmd.Flags().Uint64VarP(&createTopicArgs.Start, "start", "", 0, "voting start, unix seconds")
	createTopicCmd.Flags().Uint64VarP(&createTopicArgs.End, "end", "", 0, "voting end, unix seconds")

	sendFlags(cancelTopicCmd, &cancelTopicArgs)

	sendFlags(voteTopicCmd, &voteTopicArgs.sendArguments)
	voteTopicCmd.Flags().BoolVarP(&voteTopicArgs.Reject, "reject", "", false, "vote against the topic")

	topicCmd.AddCommand(createTopicCmd, cancelTopicCmd, voteTopicCmd)

	sendFlags(migrateCmd, &migrateArgs.sendArguments)
	migrateCmd.Flags().StringVarP(&migrateArgs.CodeFile, "code", "c", "", "code file")
	migrateCmd.Flags().Uint32VarP(&migrateArgs.VmType, "vmtype", "", 0, "vm type")
	migrateCmd.Flags().StringVarP(&migrateArgs.Name, "name", "", "", "module name")
	migrateCmd.Flags().StringVarP(&migrateArgs.Version, "version", "", "", "module version")
	migrateCmd.Flags().StringVarP(&migrateArgs.Author, "author", "", "", "author")
	migrateCmd.Flags().StringVarP(&migrateArgs.Email, "email", "", "", "author email")
	migrateCmd.Flags().StringVarP(&migrateArgs.Description, "desc", "", "", "description")
}
