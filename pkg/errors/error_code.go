package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrder         ErrorCode = 102
	ErrCodeInvalidSizeType      ErrorCode = 103
	ErrCodeInvalidTimeIndex     ErrorCode = 104
	ErrCodeLengthMismatch       ErrorCode = 105
	ErrCodeColumnMismatch       ErrorCode = 106
	ErrCodeInvalidCallSeq       ErrorCode = 107
	ErrCodeInvalidGroup         ErrorCode = 108
	ErrCodeInvalidVersion       ErrorCode = 109

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound ErrorCode = 200
	ErrCodeQueryFailed  ErrorCode = 201
	ErrCodeNoDataFound  ErrorCode = 202

	// Simulation errors (300-399)
	ErrCodeSimulationFailed ErrorCode = 300
	ErrCodeColumnOutOfRange ErrorCode = 301
	ErrCodeNonFiniteInput   ErrorCode = 302
	ErrCodeOrderFuncFailed  ErrorCode = 303
	ErrCodeExtractionFailed ErrorCode = 304

	// Ledger errors (400-499)
	ErrCodeLedgerInitFailed  ErrorCode = 400
	ErrCodeLedgerWriteFailed ErrorCode = 401
	ErrCodeLedgerQueryFailed ErrorCode = 402

	// Market data errors (500-599)
	ErrCodeMarketDataFetchFailed ErrorCode = 500
	ErrCodeMarketDataParseFailed ErrorCode = 501
	ErrCodeMarketDataWriteFailed ErrorCode = 502
)
