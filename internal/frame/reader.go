package frame

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/cowprotocol/solver-rewards/internal/apperror"
	"github.com/cowprotocol/solver-rewards/internal/asset"
)

// Reader decodes typed values from one row. The first decoding failure is
// kept and returned by Err; later calls return zero values.
type Reader struct {
	row Row
	err error
}

// NewReader creates a reader over row.
func NewReader(row Row) *Reader {
	return &Reader{row: row}
}

// Err returns the first decoding failure.
func (r *Reader) Err() error { return r.err }

// Key returns the row key.
func (r *Reader) Key() string { return r.row.Key() }

func (r *Reader) fail(column, raw string, cause error) {
	if r.err != nil {
		return
	}
	r.err = apperror.New(apperror.CodeInvalidValue,
		apperror.WithRowKey(r.row.Key()),
		apperror.WithContext(fmt.Sprintf("column %s = %q", column, raw)),
		apperror.WithCause(cause),
	)
}

func (r *Reader) cell(column string) (string, bool) {
	if r.err != nil {
		return "", false
	}
	raw, ok := r.row.Cell(column)
	if !ok {
		r.err = apperror.New(apperror.CodeMissingColumn,
			apperror.WithRowKey(r.row.Key()),
			apperror.WithContext(fmt.Sprintf("column %q", column)),
		)
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, !isNull(raw)
}

func isNull(raw string) bool {
	return raw == "" || strings.EqualFold(raw, "null") || strings.EqualFold(raw, "none")
}

// Has reports whether the column exists and is not null.
func (r *Reader) Has(column string) bool {
	raw, ok := r.row.Cell(column)
	return ok && !isNull(strings.TrimSpace(raw))
}

// String returns the cell, empty for null.
func (r *Reader) String(column string) string {
	raw, _ := r.cell(column)
	return raw
}

// Address decodes a required address.
func (r *Reader) Address(column string) common.Address {
	raw, ok := r.cell(column)
	if !ok {
		r.fail(column, raw, fmt.Errorf("address is null"))
		return common.Address{}
	}
	addr, err := asset.ParseAddress(raw)
	if err != nil {
		r.fail(column, raw, err)
	}
	return addr
}

// OptionalAddress decodes an address, nil for null or a missing column.
func (r *Reader) OptionalAddress(column string) *common.Address {
	if !r.row.table.Has(column) {
		return nil
	}
	raw, ok := r.cell(column)
	if !ok {
		return nil
	}
	addr, err := asset.ParseAddress(raw)
	if err != nil {
		r.fail(column, raw, err)
		return nil
	}
	return &addr
}

// Wei decodes a required integer amount.
func (r *Reader) Wei(column string) *big.Int {
	raw, ok := r.cell(column)
	if !ok {
		r.fail(column, raw, fmt.Errorf("amount is null"))
		return new(big.Int)
	}
	v, err := asset.ParseWei(raw)
	if err != nil {
		r.fail(column, raw, err)
		return new(big.Int)
	}
	return v
}

// WeiOrZero decodes an amount, zero for null or a missing column.
func (r *Reader) WeiOrZero(column string) *big.Int {
	if !r.row.table.Has(column) {
		return new(big.Int)
	}
	raw, ok := r.cell(column)
	if !ok {
		return new(big.Int)
	}
	v, err := asset.ParseWei(raw)
	if err != nil {
		r.fail(column, raw, err)
		return new(big.Int)
	}
	return v
}

// Rat decodes an exact rational from a decimal cell, nil for null.
func (r *Reader) Rat(column string) *big.Rat {
	raw, ok := r.cell(column)
	if !ok {
		return nil
	}
	v, err := asset.ParseRat(raw)
	if err != nil {
		r.fail(column, raw, err)
		return nil
	}
	return v
}

// Int decodes an integer count, zero for null.
func (r *Reader) Int(column string) int64 {
	raw, ok := r.cell(column)
	if !ok {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		w, werr := asset.ParseWei(raw)
		if werr != nil || !w.IsInt64() {
			r.fail(column, raw, err)
			return 0
		}
		return w.Int64()
	}
	return v
}

// Bool decodes a boolean, false for null.
func (r *Reader) Bool(column string) bool {
	raw, ok := r.cell(column)
	if !ok {
		return false
	}
	switch strings.ToLower(raw) {
	case "true", "t", "1":
		return true
	case "false", "f", "0":
		return false
	}
	r.fail(column, raw, fmt.Errorf("not a boolean"))
	return false
}

// Bytes decodes 0x hex, nil for null.
func (r *Reader) Bytes(column string) []byte {
	raw, ok := r.cell(column)
	if !ok {
		return nil
	}
	if raw == "0x" {
		return []byte{}
	}
	b, err := hexutil.Decode(raw)
	if err != nil {
		r.fail(column, raw, err)
		return nil
	}
	return b
}

func (r *Reader) list(column string) []json.RawMessage {
	if !r.row.table.Has(column) {
		return nil
	}
	raw, ok := r.cell(column)
	if !ok {
		return nil
	}
	if strings.HasPrefix(raw, "{") && strings.HasSuffix(raw, "}") {
		return arrayLiteral(raw)
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		r.fail(column, raw, err)
		return nil
	}
	return items
}

// arrayLiteral splits a postgres array literal such as {surplus,volume}.
func arrayLiteral(raw string) []json.RawMessage {
	inner := strings.TrimSpace(raw[1 : len(raw)-1])
	if inner == "" {
		return nil
	}
	parts := strings.Split(inner, ",")
	items := make([]json.RawMessage, len(parts))
	for i, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `"`)
		if strings.EqualFold(p, "null") {
			items[i] = json.RawMessage("null")
			continue
		}
		b, _ := json.Marshal(p)
		items[i] = b
	}
	return items
}

func isJSONNull(item json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(item), []byte("null"))
}

// jsonScalar returns the literal text of a JSON string or number.
func jsonScalar(item json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		return s, nil
	}
	var n json.Number
	d := json.NewDecoder(bytes.NewReader(item))
	d.UseNumber()
	if err := d.Decode(&n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// Strings decodes a JSON list of strings. Null entries become "".
func (r *Reader) Strings(column string) []string {
	items := r.list(column)
	out := make([]string, len(items))
	for i, item := range items {
		if isJSONNull(item) {
			continue
		}
		s, err := jsonScalar(item)
		if err != nil {
			r.fail(column, string(item), err)
			return nil
		}
		out[i] = s
	}
	return out
}

// Rats decodes a JSON list of decimals. Null entries stay nil.
func (r *Reader) Rats(column string) []*big.Rat {
	items := r.list(column)
	out := make([]*big.Rat, len(items))
	for i, item := range items {
		if isJSONNull(item) {
			continue
		}
		s, err := jsonScalar(item)
		if err != nil {
			r.fail(column, string(item), err)
			return nil
		}
		v, err := asset.ParseRat(s)
		if err != nil {
			r.fail(column, s, err)
			return nil
		}
		out[i] = v
	}
	return out
}

// WeiList decodes a JSON list of integer amounts. Null entries are zero.
func (r *Reader) WeiList(column string) []*big.Int {
	items := r.list(column)
	out := make([]*big.Int, len(items))
	for i, item := range items {
		out[i] = new(big.Int)
		if isJSONNull(item) {
			continue
		}
		s, err := jsonScalar(item)
		if err != nil {
			r.fail(column, string(item), err)
			return nil
		}
		v, err := asset.ParseWei(s)
		if err != nil {
			r.fail(column, s, err)
			return nil
		}
		out[i] = v
	}
	return out
}

// Ints decodes a JSON list of integers. Null entries are zero.
func (r *Reader) Ints(column string) []int64 {
	wei := r.WeiList(column)
	out := make([]int64, len(wei))
	for i, w := range wei {
		if !w.IsInt64() {
			r.fail(column, w.String(), fmt.Errorf("out of int64 range"))
			return nil
		}
		out[i] = w.Int64()
	}
	return out
}
