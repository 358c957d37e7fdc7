package keys

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Recover returns the uncompressed public key that signed tx and the
// address derived from it.
func Recover(tx *types.Transaction, chainID *big.Int) ([]byte, common.Address, error) {
	if tx == nil {
		return nil, common.Address{}, fmt.Errorf("transaction is nil")
	}

	var signer types.Signer
	if tx.Type() == types.LegacyTxType && !tx.Protected() {
		signer = types.HomesteadSigner{}
	} else {
		if chainID == nil {
			chainID = tx.ChainId()
		}
		signer = types.LatestSignerForChainID(chainID)
	}

	v, r, s := tx.RawSignatureValues()
	recID, err := recoveryID(tx, v)
	if err != nil {
		return nil, common.Address{}, err
	}
	if !crypto.ValidateSignatureValues(recID, r, s, true) {
		return nil, common.Address{}, fmt.Errorf("invalid signature values")
	}

	sig := make([]byte, crypto.SignatureLength)
	r.FillBytes(sig[0:32])
	s.FillBytes(sig[32:64])
	sig[crypto.RecoveryIDOffset] = recID

	hash := signer.Hash(tx)
	pub, err := crypto.Ecrecover(hash.Bytes(), sig)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("ecrecover: %w", err)
	}
	key, err := crypto.UnmarshalPubkey(pub)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("unmarshal pubkey: %w", err)
	}

	return pub, crypto.PubkeyToAddress(*key), nil
}

// recoveryID extracts the 0/1 recovery id from a signature's V value.
func recoveryID(tx *types.Transaction, v *big.Int) (byte, error) {
	if v == nil {
		return 0, fmt.Errorf("missing signature")
	}

	id := new(big.Int).Set(v)
	switch {
	case tx.Type() != types.LegacyTxType:
	case tx.Protected():
		// v = id + 35 + 2*chainID
		id.Sub(id, new(big.Int).Mul(tx.ChainId(), big.NewInt(2)))
		id.Sub(id, big.NewInt(35))
	default:
		id.Sub(id, big.NewInt(27))
	}

	if !id.IsUint64() || id.Uint64() > 1 {
		return 0, fmt.Errorf("unexpected signature v: %s", v)
	}
	return byte(id.Uint64()), nil
}

// PublicKeyHex formats an uncompressed public key.
func PublicKeyHex(pub []byte) string {
	return hexutil.Encode(pub)
}
