package cmd_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-ethtx/cmd"
	"github/chapool/go-ethtx/internal/txn"
)

//nolint:dupword // BIP39 test mnemonic
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := cmd.New()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func signedHex(t *testing.T) string {
	t.Helper()
	key, err := crypto.HexToECDSA("b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291")
	require.NoError(t, err)

	nonce, gasPrice, gas, to := "0x0", "0x1", "0x5208", "0x3535353535353535353535353535353535353535"
	tx, err := txn.FromRPC(&txn.RPCTransaction{Nonce: &nonce, GasPrice: &gasPrice, Gas: &gas, To: &to}, txn.Chain(1))
	require.NoError(t, err)
	signed, err := tx.Sign(key)
	require.NoError(t, err)

	return hexutil.Encode(signed.Serialized())
}

func TestClassify(t *testing.T) {
	out, err := run(t, "", "tx", "classify", "--json", signedHex(t))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"legacy","type":"0x0"}`, out)

	out, err = run(t, "", "tx", "classify", "--no-color", "0x02f8")
	require.NoError(t, err)
	assert.Equal(t, "unsupported\t0x2\n", out)

	out, err = run(t, `{"type":"0x1"}`, "tx", "classify", "--json", "--rpc", "-")
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"access_list","type":"0x1"}`, out)

	_, err = run(t, "", "tx", "classify")
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	textfile := filepath.Join(t.TempDir(), "ethtx.prom")
	t.Setenv("ETHTX_METRICS_TEXTFILE", textfile)

	out, err := run(t, "", "tx", "decode", signedHex(t))
	require.NoError(t, err)

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "legacy", report["kind"])
	assert.Equal(t, "0x5208", report["intrinsicGas"])
	transaction, ok := report["transaction"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "0x71562b71999873db5b286df957af199ec94617f7", strings.ToLower(transaction["from"].(string)))

	metrics, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `ethtx_transactions_decoded_total{kind="legacy"} 1`)

	_, err = run(t, "", "tx", "decode", "0x05c0")
	assert.ErrorIs(t, err, txn.ErrUnsupportedType)
}

func TestDecodeRepeatedInputHitsCache(t *testing.T) {
	textfile := filepath.Join(t.TempDir(), "ethtx.prom")
	t.Setenv("ETHTX_METRICS_TEXTFILE", textfile)

	raw := signedHex(t)
	out, err := run(t, "", "tx", "decode", raw, strings.ToUpper(raw[2:]))
	require.NoError(t, err)

	var reports []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 2)
	assert.Equal(t, reports[0], reports[1])

	metrics, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "ethtx_decode_cache_hits_total 1")
	assert.Contains(t, string(metrics), `ethtx_transactions_decoded_total{kind="legacy"} 2`)
}

func TestIntrinsicFromRPC(t *testing.T) {
	rpc := writeFile(t, "tx.json", `[
		{"nonce":"0x0","gas":"0x5208","gasPrice":"0x1","to":"0x3535353535353535353535353535353535353535"},
		{"type":"0x1","nonce":"0x0","gas":"0x10000","gasPrice":"0x1","data":"0x0001","to":"0x3535353535353535353535353535353535353535",
		 "accessList":[{"address":"0x3535353535353535353535353535353535353535","storageKeys":[]}]}
	]`)

	out, err := run(t, "", "tx", "intrinsic", "--rpc", rpc)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"kind":"legacy","intrinsicGas":"0x5208"},
		{"kind":"access_list","intrinsicGas":"0x5b7c"}
	]`, out)
}

func TestKeystoreAndSign(t *testing.T) {
	t.Setenv("ETHTX_KEYSTORE_LIGHT_SCRYPT", "true")
	ks := filepath.Join(t.TempDir(), "keystore.json")
	password := writeFile(t, "pw", "password1\n")
	mnemonic := writeFile(t, "mnemonic", testMnemonic+"\n")

	out, err := run(t, "", "--keystore", ks, "keystore", "create", "--password-file", password, "--mnemonic-file", mnemonic)
	require.NoError(t, err)
	assert.Contains(t, out, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94")

	out, err = run(t, "", "--keystore", ks, "keystore", "address", "--password-file", password, "--index", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94")

	rpc := `{"from":"0x9858EfFD232B4033E47d90003D41EC34EcaEda94","nonce":"0x0","gas":"0x5208","gasPrice":"0x1","to":"0x3535353535353535353535353535353535353535","value":"0x1"}`
	out, err = run(t, rpc, "--keystore", ks, "--chain-id", "5", "tx", "sign", "--rpc", "-", "--password-file", password)
	require.NoError(t, err)

	var res struct {
		Raw  hexutil.Bytes `json:"raw"`
		From string        `json:"from"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	decoded, err := txn.FromWire(res.Raw, txn.Chain(5))
	require.NoError(t, err)
	assert.Equal(t, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94", decoded.Sender().Hex())

	_, err = run(t, "", "--keystore", ks, "keystore", "address", "--password-file", writeFile(t, "bad", "wrong-password"))
	assert.Error(t, err)
}

type ethAPI struct {
	mu  sync.Mutex
	txs map[common.Hash]hexutil.Bytes
}

func (api *ethAPI) ChainId() hexutil.Uint64 { //nolint:revive,stylecheck // eth_chainId
	return 1
}

func (api *ethAPI) GetRawTransactionByHash(hash common.Hash) *hexutil.Bytes {
	api.mu.Lock()
	defer api.mu.Unlock()
	raw, ok := api.txs[hash]
	if !ok {
		return nil
	}
	return &raw
}

func (api *ethAPI) SendRawTransaction(raw hexutil.Bytes) common.Hash {
	api.mu.Lock()
	defer api.mu.Unlock()
	hash := crypto.Keccak256Hash(raw)
	api.txs[hash] = raw
	return hash
}

func TestSendAndFetch(t *testing.T) {
	srv := rpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", &ethAPI{txs: map[common.Hash]hexutil.Bytes{}}))
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		ts.Close()
		srv.Stop()
	})
	t.Setenv("ETHTX_NODE_URLS", ts.URL)

	raw := signedHex(t)
	out, err := run(t, "", "tx", "send", raw)
	require.NoError(t, err)

	var sent struct {
		Kind string      `json:"kind"`
		Hash common.Hash `json:"hash"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &sent))
	assert.Equal(t, "legacy", sent.Kind)
	assert.Equal(t, crypto.Keccak256Hash(hexutil.MustDecode(raw)), sent.Hash)

	out, err = run(t, "", "tx", "fetch", sent.Hash.Hex())
	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, raw, report["raw"])

	_, err = run(t, "", "tx", "fetch", common.Hash{0x01}.Hex())
	assert.Error(t, err)

	_, err = run(t, "", "--chain-id", "5", "tx", "fetch", sent.Hash.Hex())
	assert.ErrorIs(t, err, txn.ErrChainIDMismatch)
}
