package orderbook

import (
	"encoding/json"
	"fmt"
	"math/big"
	"slices"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/cowprotocol/solver-rewards/internal/frame"
)

// formatCell renders a decoded postgres value in the frame cell encoding:
// bytea as 0x hex, arrays as JSON lists, null as the empty cell.
func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return hexutil.Encode(x)
	case bool:
		return strconv.FormatBool(x)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case pgtype.Numeric:
		return numeric(x)
	case []any:
		items := make([]any, len(x))
		for i, item := range x {
			items[i] = jsonValue(item)
		}
		b, err := json.Marshal(items)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func jsonValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		return hexutil.Encode(x)
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		return json.Number(numeric(x))
	case int16, int32, int64, float32, float64, bool, string:
		return x
	default:
		return formatCell(x)
	}
}

// numeric renders an exact decimal without exponent.
func numeric(n pgtype.Numeric) string {
	if !n.Valid || n.NaN || n.Int == nil {
		return ""
	}
	if n.Exp >= 0 {
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n.Exp)), nil)
		return new(big.Int).Mul(n.Int, scale).String()
	}
	den := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-n.Exp)), nil)
	return new(big.Rat).SetFrac(n.Int, den).FloatString(int(-n.Exp))
}

// concat appends tables with identical columns. Nil parts are skipped.
func concat(name string, parts ...*frame.Table) (*frame.Table, error) {
	var out *frame.Table
	for _, p := range parts {
		if p == nil {
			continue
		}
		if out == nil {
			out = frame.New(name, p.Columns()...)
		}
		if !slices.Equal(out.Columns(), p.Columns()) {
			return nil, fmt.Errorf("orderbook: %s instances return different columns: %v and %v", name, out.Columns(), p.Columns())
		}
		for i := 0; i < p.Len(); i++ {
			row := p.Row(i)
			cells := make([]string, 0, len(p.Columns()))
			for _, c := range p.Columns() {
				cell, _ := row.Cell(c)
				cells = append(cells, cell)
			}
			if err := out.Append(cells...); err != nil {
				return nil, err
			}
		}
	}
	if out == nil {
		return nil, fmt.Errorf("orderbook: no instance returned %s", name)
	}
	return out, nil
}
