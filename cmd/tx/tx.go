package tx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github/chapool/go-ethtx/internal/txn"
	"github/chapool/go-ethtx/internal/util/command"
	"github/chapool/go-ethtx/internal/wallet/node"
)

const (
	rpcFlag          = "rpc"
	recordFlag       = "record"
	pathFlag         = "path"
	passwordFileFlag = "password-file"
	noColorFlag      = "no-color"
	jsonFlag         = "json"
	broadcastFlag    = "broadcast"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("tx",
		newClassify(),
		newDecode(),
		newIntrinsic(),
		newSign(),
		newFetch(),
		newSend(),
	)
}

func readInput(cmd *cobra.Command, file string) ([]byte, error) {
	if file == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		return b, errors.Wrap(err, "failed to read stdin")
	}

	b, err := os.ReadFile(file)
	return b, errors.Wrapf(err, "failed to read %s", file)
}

// readRPC reads one RPC transaction object or an array of them.
func readRPC(cmd *cobra.Command, file string) ([]*txn.RPCTransaction, error) {
	b, err := readInput(cmd, file)
	if err != nil {
		return nil, err
	}

	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var many []*txn.RPCTransaction
		if err := json.Unmarshal(b, &many); err != nil {
			return nil, errors.Wrap(err, "failed to parse RPC transactions")
		}
		return many, nil
	}

	var one txn.RPCTransaction
	if err := json.Unmarshal(b, &one); err != nil {
		return nil, errors.Wrap(err, "failed to parse RPC transaction")
	}

	return []*txn.RPCTransaction{&one}, nil
}

// readRecord reads a stored field array as a JSON list of hex strings.
func readRecord(cmd *cobra.Command, file string) (txn.RawFields, error) {
	b, err := readInput(cmd, file)
	if err != nil {
		return nil, err
	}

	var fields []hexutil.Bytes
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, errors.Wrap(err, "failed to parse record")
	}

	raw := make(txn.RawFields, len(fields))
	for i, f := range fields {
		raw[i] = f
	}

	return raw, nil
}

// dialNode connects to the configured nodes and makes sure they serve the
// configured chain.
//
//nolint:ireturn
func dialNode(ctx context.Context, rt *command.Runtime) (node.Service, error) {
	svc, err := node.NewService(node.Config{
		URLs:    rt.Config.Node.URLs,
		Timeout: rt.Config.Node.Timeout,
	})
	if err != nil {
		return nil, err
	}
	if err := svc.CheckChain(ctx, rt.Config.Chain.ID); err != nil {
		svc.Close()
		return nil, err
	}

	return svc, nil
}
