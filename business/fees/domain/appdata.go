package domain

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/cowprotocol/solver-rewards/internal/asset"
)

// AppData is the part of an order's app data the fee accounting reads.
type AppData struct {
	AppCode   string
	Recipient *common.Address
}

type appDataDoc struct {
	AppCode  string `json:"appCode"`
	Metadata struct {
		PartnerFee *struct {
			Recipient string `json:"recipient"`
		} `json:"partnerFee"`
	} `json:"metadata"`
}

// ParseAppData decodes the 0x hex app data cell. A cell that is not hex of a
// UTF-8 JSON object with a valid partner fee recipient yields no recipient.
func ParseAppData(cell string) AppData {
	raw, err := hexutil.Decode(cell)
	if err != nil || len(raw) == 0 || !utf8.Valid(raw) {
		return AppData{}
	}

	var doc appDataDoc
	if err = json.Unmarshal(raw, &doc); err != nil {
		return AppData{}
	}

	data := AppData{AppCode: doc.AppCode}
	if doc.Metadata.PartnerFee == nil {
		return data
	}
	if addr, err := asset.ParseAddress(doc.Metadata.PartnerFee.Recipient); err == nil {
		data.Recipient = &addr
	}
	return data
}
