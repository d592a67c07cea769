package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeInvalidValue:  "Invalid value",
	CodeConfigInvalid: "Invalid configuration",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeMissingColumn:    "Input table is missing a required column",
	CodeInvalidTrade:     "Trade violates settlement invariants",
	CodeUnknownOrderKind: "Order kind must be sell or buy",

	CodeUnknownFeeKind:    "Unknown protocol fee kind",
	CodeInvalidPartnerFee: "Partner fee must be a volume fee with the highest application order",

	CodePriceUnavailable:  "Token price unavailable",
	CodeUnrecognizedToken: "Token is not recognized by the price oracle",

	CodeNonPositiveTransfer: "Transfer amount must be positive",
	CodeDuplicateSolverInfo: "Duplicate solver info",

	CodeSourceFailed:      "Failed to load input data",
	CodeExportFailed:      "Failed to export payout results",
	CodeInsufficientFunds: "Payment safe cannot cover the native outflow",
	CodeChainReadFailed:   "Failed to read chain state",
}
