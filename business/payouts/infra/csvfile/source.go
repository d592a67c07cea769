// Package csvfile reads input tables from and writes run artifacts to a
// local directory.
package csvfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cowprotocol/solver-rewards/business/payouts/app"
	"github.com/cowprotocol/solver-rewards/business/payouts/domain"
	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/frame"
	"github.com/cowprotocol/solver-rewards/internal/logger"
	"github.com/cowprotocol/solver-rewards/internal/period"
)

// Source reads <table>.csv files. A <dir>/<period> subdirectory takes
// precedence over dir itself.
type Source struct {
	dir    string
	logger logger.LoggerInterface
}

var _ app.Source = (*Source)(nil)

// NewSource creates a CSV source rooted at dir.
func NewSource(dir string, log logger.LoggerInterface) *Source {
	return &Source{dir: dir, logger: log}
}

// Name implements app.Source.
func (s *Source) Name() string { return "csv" }

// Load implements app.Source.
func (s *Source) Load(ctx context.Context, p period.Period) (domain.Tables, error) {
	dir := s.dir
	if info, err := os.Stat(filepath.Join(s.dir, p.String())); err == nil && info.IsDir() {
		dir = filepath.Join(s.dir, p.String())
	}

	var (
		tables domain.Tables
		err    error
	)
	targets := []struct {
		name string
		dst  **frame.Table
	}{
		{domain.TableBatchData, &tables.Batches},
		{domain.TableTradeData, &tables.Trades},
		{domain.TableSlippage, &tables.Slippage},
		{domain.TableRewardTargets, &tables.RewardTargets},
		{domain.TableServiceFees, &tables.ServiceFees},
	}
	for _, t := range targets {
		if *t.dst, err = readTable(dir, t.name); err != nil {
			return domain.Tables{}, err
		}
		s.logger.Debug(ctx, "table loaded", "table", t.name, "rows", (*t.dst).Len(), "dir", dir)
	}
	return tables, nil
}

func readTable(dir, name string) (*frame.Table, error) {
	path := filepath.Join(dir, name+".csv")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperror.New(apperror.CodeSourceFailed,
				apperror.WithComponent(apperror.ComponentOrchestrator),
				apperror.WithContext(fmt.Sprintf("table %s not found at %s", name, path)),
			)
		}
		return nil, apperror.External(apperror.CodeSourceFailed, "open "+path, err)
	}
	defer f.Close()

	t, err := frame.ReadCSV(name, f)
	if err != nil {
		return nil, apperror.External(apperror.CodeSourceFailed, "read "+path, err)
	}
	return t, nil
}
