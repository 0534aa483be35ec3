package txn

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Display is the JSON-RPC projection of a transaction. The block fields are
// always null here; whoever places the transaction in a block fills them in.
type Display struct {
	Type             hexutil.Uint64  `json:"type"`
	Hash             *common.Hash    `json:"hash"`
	Nonce            *hexutil.Big    `json:"nonce"`
	BlockHash        *common.Hash    `json:"blockHash"`
	BlockNumber      *hexutil.Big    `json:"blockNumber"`
	TransactionIndex *hexutil.Uint64 `json:"transactionIndex"`
	From             *common.Address `json:"from"`
	To               *common.Address `json:"to"`
	Value            *hexutil.Big    `json:"value"`
	Gas              *hexutil.Big    `json:"gas"`
	GasPrice         *hexutil.Big    `json:"gasPrice"`
	Input            hexutil.Bytes   `json:"input"`
	ChainID          *hexutil.Big    `json:"chainId,omitempty"`
	AccessList       *AccessList     `json:"accessList,omitempty"`
	V                *hexutil.Big    `json:"v"`
	R                *hexutil.Big    `json:"r"`
	S                *hexutil.Big    `json:"s"`
}

func displayCommon(typ byte, c *CommonTx) *Display {
	d := &Display{
		Type:  hexutil.Uint64(typ),
		Nonce: bigOf(c.Nonce),
		Value: bigOf(c.Value),
		Gas:   bigOf(c.Gas),
		Input: common.CopyBytes(c.Data),
	}
	if c.To != nil {
		to := *c.To
		d.To = &to
	}
	return d
}

func fillSigned(d *Display, tx SignedTransaction) {
	hash, from := tx.Hash(), tx.Sender()
	v, r, s := tx.SignatureValues()
	d.Hash = &hash
	d.From = &from
	d.V, d.R, d.S = bigOf(v), bigOf(r), bigOf(s)
}
