package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"ledgerReplay/internal/token"
)

type fakeFilterer struct {
	logs  []types.Log
	head  uint64
	err   error
	calls [][2]uint64
}

func (f *fakeFilterer) FilterLogs(_ context.Context, fromBlock, toBlock uint64, _ common.Address, _ common.Hash) ([]types.Log, error) {
	f.calls = append(f.calls, [2]uint64{fromBlock, toBlock})
	if f.err != nil {
		return nil, f.err
	}
	return f.logs, nil
}

func (f *fakeFilterer) LatestBlockNumber(context.Context) (uint64, error) {
	return f.head, nil
}

func TestTransferSourceDecodesAndDropsForeignLogs(t *testing.T) {
	erc20, err := token.ERC20ABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := token.NewTransferDecoder(erc20, "Transfer")
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	data, err := erc20.Events["Transfer"].Inputs.NonIndexed().Pack(big.NewInt(100))
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	from := common.HexToAddress("0x1111111111111111111111111111111111111111")
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")

	filterer := &fakeFilterer{
		head: 77,
		logs: []types.Log{
			{
				Topics:      []common.Hash{decoder.Topic0(), common.BytesToHash(from.Bytes()), common.BytesToHash(to.Bytes())},
				Data:        data,
				BlockNumber: 10,
			},
			{Topics: []common.Hash{erc20.Events["Approval"].ID}},
		},
	}

	source := NewTransferSource(filterer, common.Address{}, decoder, nil)
	events, err := source.TransferEvents(context.Background(), 10, 20)
	if err != nil {
		t.Fatalf("transfer events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	if events[0].From != from || events[0].To != to || events[0].Value.Int64() != 100 {
		t.Fatalf("event mismatch: %+v", events[0])
	}
	if len(filterer.calls) != 1 || filterer.calls[0] != [2]uint64{10, 20} {
		t.Fatalf("filter range mismatch: %+v", filterer.calls)
	}

	head, err := source.LatestBlockNumber(context.Background())
	if err != nil || head != 77 {
		t.Fatalf("head mismatch: %d %v", head, err)
	}
}

func TestTransferSourcePropagatesErrors(t *testing.T) {
	erc20, _ := token.ERC20ABI()
	decoder, err := token.NewTransferDecoder(erc20, "Transfer")
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	source := NewTransferSource(&fakeFilterer{err: errors.New("node down")}, common.Address{}, decoder, nil)
	if _, err := source.TransferEvents(context.Background(), 1, 2); err == nil {
		t.Fatalf("expected error")
	}
}
