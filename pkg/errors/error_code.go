package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Configuration errors (100-199)
	ErrCodeInvalidConfiguration ErrorCode = 100
	ErrCodeEmptyUniverse        ErrorCode = 101
	ErrCodeInvalidDateRange     ErrorCode = 102
	ErrCodeInvalidThreshold     ErrorCode = 103
	ErrCodeInvalidInitialCash   ErrorCode = 104
	ErrCodeInvalidLotSize       ErrorCode = 105
	ErrCodeUnknownFactor        ErrorCode = 106
	ErrCodeInvalidFactorParams  ErrorCode = 107
	ErrCodeInvalidRate          ErrorCode = 108

	// Data errors (200-299)
	ErrCodeSeriesNotFound ErrorCode = 200
	ErrCodeEmptySeries    ErrorCode = 201
	ErrCodeEmptyCalendar  ErrorCode = 202
	ErrCodeBadSeriesOrder ErrorCode = 203
	ErrCodeDataLoadFailed ErrorCode = 204

	// Trigger errors (300-399)
	ErrCodeTriggerCondition ErrorCode = 300
	ErrCodeTriggerAction    ErrorCode = 301
	ErrCodeOnBarAction      ErrorCode = 302

	// Rule errors (400-499)
	ErrCodeRuleEvaluation ErrorCode = 400
	ErrCodeRuleConfig     ErrorCode = 401

	// Ledger errors (500-599)
	ErrCodeLedgerApplication ErrorCode = 500

	// Engine errors (600-699)
	ErrCodeNotInitialized  ErrorCode = 600
	ErrCodeEndOfCalendar   ErrorCode = 601
	ErrCodeStartOfCalendar ErrorCode = 602

	// Store errors (700-799)
	ErrCodeStoreInit   ErrorCode = 700
	ErrCodeStoreQuery  ErrorCode = 701
	ErrCodeStoreExport ErrorCode = 702
)
