package market

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/0xDualCube/univ2-mev/types"
)

// poolRecord is the on-disk form of one venue. Reserves are JSON numbers.
type poolRecord struct {
	Venue          string   `json:"venue"`
	ReserveQuote   *big.Int `json:"reserve_quote"`
	ReserveOther   *big.Int `json:"reserve_other"`
	FeeNumerator   int64    `json:"fee_numerator,omitempty"`
	FeeDenominator int64    `json:"fee_denominator,omitempty"`
}

type snapshotFile struct {
	BlockNumber uint64       `json:"block_number"`
	Pools       []poolRecord `json:"pools"`
}

// LoadFile reads a snapshot written by WriteFile (or by hand). Missing fees
// default to 997/1000.
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var f snapshotFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	pools := make(map[string]types.Pool, len(f.Pools))
	for _, rec := range f.Pools {
		if _, dup := pools[rec.Venue]; dup {
			return nil, fmt.Errorf("duplicate venue %q: %w", rec.Venue, types.ErrInvalidArgument)
		}
		fee := types.DefaultFee
		if rec.FeeNumerator != 0 || rec.FeeDenominator != 0 {
			fee = types.Fee{Numerator: rec.FeeNumerator, Denominator: rec.FeeDenominator}
		}
		pools[rec.Venue] = types.Pool{
			ReserveQuote: rec.ReserveQuote,
			ReserveOther: rec.ReserveOther,
			Fee:          fee,
		}
	}

	return NewSnapshot(pools, f.BlockNumber)
}

// WriteFile stores the snapshot as indented JSON.
func (s *Snapshot) WriteFile(path string) error {
	f := snapshotFile{BlockNumber: s.blockNumber, Pools: make([]poolRecord, 0, len(s.venues))}
	for _, id := range s.venues {
		pool := s.pools[id]
		f.Pools = append(f.Pools, poolRecord{
			Venue:          id,
			ReserveQuote:   pool.ReserveQuote,
			ReserveOther:   pool.ReserveOther,
			FeeNumerator:   pool.Fee.Numerator,
			FeeDenominator: pool.Fee.Denominator,
		})
	}

	data, err := json.MarshalIndent(f, "", "    ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// FileBuilder serves a snapshot stored on disk, for offline evaluation
type FileBuilder struct {
	Path string
}

// Build reads the snapshot file
func (f FileBuilder) Build(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadFile(f.Path)
}
