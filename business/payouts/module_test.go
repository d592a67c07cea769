package payouts_test

import (
	"testing"

	"github.com/cowprotocol/solver-rewards/business/payouts"
	"github.com/cowprotocol/solver-rewards/internal/asset"
	"github.com/cowprotocol/solver-rewards/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Network: config.NetworkConfig{Name: "gnosis"},
		Reward: config.RewardConfig{
			RewardTokenAddress: "0x177127622c4A00F3d409B75571e12cB3c8973d3c",
			IncludeSlippage:    true,
		},
		ProtocolFee: config.ProtocolFeeConfig{
			ProtocolFeeSafeAddress: "0xB64963f95215FDe6510657e719bd832BB8bb941B",
		},
		Payment: config.PaymentConfig{
			PaymentSafeAddress:        "0xA03be496e67Ec29bC62F01a428683D7F9c204930",
			WrappedNativeTokenAddress: "0xe91d153e0b41518a2ce8dd3d7944fa863463a97d",
			MultisendAddress:          "0x40A2aCCbd92BCA938b02010E17A5b8929b49130D",
			MinTransferNativeWei:      "1000",
			MinTransferCowAtoms:       "0",
		},
		Output: config.OutputConfig{Consolidate: true},
	}
}

func TestSettings(t *testing.T) {
	s, err := payouts.Settings(testConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Network != "gnosis" {
		t.Errorf("expected network gnosis, got %s", s.Network)
	}
	if s.RewardToken != asset.MustParseAddress("0x177127622c4A00F3d409B75571e12cB3c8973d3c") {
		t.Errorf("unexpected reward token %s", s.RewardToken.Hex())
	}
	if s.MinNativeTransfer.String() != "1000" || s.MinCowTransfer.Sign() != 0 {
		t.Errorf("unexpected minimums %s and %s", s.MinNativeTransfer, s.MinCowTransfer)
	}
	if !s.IncludeSlippage || !s.Consolidate {
		t.Error("expected slippage and consolidation enabled")
	}
}

func TestSettings_InvalidMinimum(t *testing.T) {
	cfg := testConfig()
	cfg.Payment.MinTransferCowAtoms = "lots"

	if _, err := payouts.Settings(cfg); err == nil {
		t.Error("expected error for unparsable minimum")
	}
}
