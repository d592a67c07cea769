package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeInvalidValue  Code = "INVALID_VALUE"
	CodeConfigInvalid Code = "CONFIG_INVALID"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Payout computation error codes
const (
	// Input contracts
	CodeMissingColumn    Code = "MISSING_COLUMN"
	CodeInvalidTrade     Code = "INVALID_TRADE"
	CodeUnknownOrderKind Code = "UNKNOWN_ORDER_KIND"

	// Fee decomposition
	CodeUnknownFeeKind    Code = "UNKNOWN_FEE_KIND"
	CodeInvalidPartnerFee Code = "INVALID_PARTNER_FEE"

	// Pricing
	CodePriceUnavailable  Code = "PRICE_UNAVAILABLE"
	CodeUnrecognizedToken Code = "UNRECOGNIZED_TOKEN"

	// Recovered locally, only ever logged
	CodeNonPositiveTransfer Code = "NON_POSITIVE_TRANSFER"
	CodeDuplicateSolverInfo Code = "DUPLICATE_SOLVER_INFO"
)

// Boundary error codes
const (
	CodeSourceFailed      Code = "SOURCE_FAILED"
	CodeExportFailed      Code = "EXPORT_FAILED"
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"
	CodeChainReadFailed   Code = "CHAIN_READ_FAILED"
)

// Component tags attached to errors raised by the core.
const (
	ComponentPricing      = "pricing"
	ComponentFees         = "fees"
	ComponentAggregator   = "fee_aggregator"
	ComponentRewards      = "rewards"
	ComponentSlippage     = "slippage"
	ComponentSolverInfo   = "solver_info"
	ComponentPayouts      = "payouts"
	ComponentOrchestrator = "orchestrator"
	ComponentBlockchain   = "blockchain"
)
