package tx

import (
	"fmt"
	"strings"
)

// Result represents a transaction result code
type Result int

// Transaction result codes, organized by class:
// tes success, tec rejected business rule, tef internal failure, tem malformed.
// Only tesSUCCESS writes state.
const (
	// tesSUCCESS (0)
	TesSUCCESS Result = 0

	// tec codes (100-199): the transaction was well formed but a ledger rule rejected it
	TecNO_PERMISSION           Result = 139
	TecNO_ENTRY                Result = 140
	TecDUPLICATE               Result = 149
	TecTOO_SOON                Result = 152
	TecINSUFFICIENT_FUNDS      Result = 159
	TecDEPOSITS_DISABLED       Result = 174
	TecDEPOSIT_TOO_SMALL       Result = 175
	TecDEPOSIT_EXCEEDS_CAP     Result = 176
	TecUNSTAKE_TOO_SMALL       Result = 177
	TecWITHDRAW_TOO_SMALL      Result = 178
	TecTICKET_DUST             Result = 179
	TecNOT_ENOUGH_TICKET_VALUE Result = 180
	TecNOT_ENOUGH_LST          Result = 181
	TecAMOUNT_IS_ZERO          Result = 182
	TecEXISTING_AMOUNT_ZERO    Result = 183
	TecEXCEEDS_AVAILABLE       Result = 184
	TecSTRATEGY_NOT_EMPTY      Result = 185
	TecEMPTY_POOL              Result = 186
	TecPRICE_STALE             Result = 187
	TecZERO_BACKING            Result = 188
	TecWRONG_ACCOUNT_OWNER     Result = 190
	TecINCORRECT_STATE_SOURCE  Result = 191
	TecUNEXPECTED_ACCOUNT_TYPE Result = 192
	TecINVALID_STORED_PRICE    Result = 193
	TecMINT_MISMATCH           Result = 194
	TecMISSING_LST_STATE       Result = 195
	TecBAD_EXTERNAL_STATE      Result = 196

	// tef codes (-199 to -100): internal failure, nothing applied
	TefFAILURE              Result = -199
	TefINTERNAL             Result = -198
	TefBAD_LEDGER           Result = -197
	TefINVARIANT_FAILED     Result = -196
	TefARITHMETIC_OVERFLOW  Result = -195
	TefARITHMETIC_UNDERFLOW Result = -194
	TefDIVISION_BY_ZERO     Result = -193

	// tem codes (-299 to -200): malformed transaction
	TemMALFORMED  Result = -299
	TemINVALID    Result = -298
	TemBAD_AMOUNT Result = -297
	TemBAD_SIGNER Result = -296
	TemBAD_FEE    Result = -295
	TemUNKNOWN    Result = -294
	TemREDUNDANT  Result = -293
)

type resultInfo struct {
	token   string
	message string
}

var resultTable = map[Result]resultInfo{
	TesSUCCESS: {"tesSUCCESS", "The transaction was applied."},

	TecNO_PERMISSION:           {"tecNO_PERMISSION", "Signer does not hold the required authority."},
	TecNO_ENTRY:                {"tecNO_ENTRY", "A referenced ledger entry does not exist."},
	TecDUPLICATE:               {"tecDUPLICATE", "The ledger entry already exists."},
	TecTOO_SOON:                {"tecTOO_SOON", "Ticket is not due yet."},
	TecINSUFFICIENT_FUNDS:      {"tecINSUFFICIENT_FUNDS", "Token account balance is too low."},
	TecDEPOSITS_DISABLED:       {"tecDEPOSITS_DISABLED", "Deposits in this vault are disabled."},
	TecDEPOSIT_TOO_SMALL:       {"tecDEPOSIT_TOO_SMALL", "Deposit amount too small."},
	TecDEPOSIT_EXCEEDS_CAP:     {"tecDEPOSIT_EXCEEDS_CAP", "Deposit exceeds vault cap."},
	TecUNSTAKE_TOO_SMALL:       {"tecUNSTAKE_TOO_SMALL", "Unstake amount too small."},
	TecWITHDRAW_TOO_SMALL:      {"tecWITHDRAW_TOO_SMALL", "Withdraw amount too small."},
	TecTICKET_DUST:             {"tecTICKET_DUST", "Can't leave dust in ticket, either remove all or leave a significant amount."},
	TecNOT_ENOUGH_TICKET_VALUE: {"tecNOT_ENOUGH_TICKET_VALUE", "Not enough SOL value in ticket."},
	TecNOT_ENOUGH_LST:          {"tecNOT_ENOUGH_LST", "Not enough LST in vault."},
	TecAMOUNT_IS_ZERO:          {"tecAMOUNT_IS_ZERO", "Amount is zero."},
	TecEXISTING_AMOUNT_ZERO:    {"tecEXISTING_AMOUNT_ZERO", "Nothing is available to move."},
	TecEXCEEDS_AVAILABLE:       {"tecEXCEEDS_AVAILABLE", "Amount exceeds what the vault can delegate."},
	TecSTRATEGY_NOT_EMPTY:      {"tecSTRATEGY_NOT_EMPTY", "New strategy LST amount should be 0."},
	TecEMPTY_POOL:              {"tecEMPTY_POOL", "Pool-share supply is zero."},
	TecZERO_BACKING:            {"tecZERO_BACKING", "Pool shares have no backing left."},
	TecPRICE_STALE:             {"tecPRICE_STALE", "LST price is stale."},
	TecWRONG_ACCOUNT_OWNER:     {"tecWRONG_ACCOUNT_OWNER", "External state is not owned by the expected program."},
	TecINCORRECT_STATE_SOURCE:  {"tecINCORRECT_STATE_SOURCE", "External state does not come from the expected address."},
	TecUNEXPECTED_ACCOUNT_TYPE: {"tecUNEXPECTED_ACCOUNT_TYPE", "External state has an unexpected account type."},
	TecINVALID_STORED_PRICE:    {"tecINVALID_STORED_PRICE", "LST price below 1.0."},
	TecMINT_MISMATCH:           {"tecMINT_MISMATCH", "External state refers to another mint."},
	TecMISSING_LST_STATE:       {"tecMISSING_LST_STATE", "LST state account is required for this LST."},
	TecBAD_EXTERNAL_STATE:      {"tecBAD_EXTERNAL_STATE", "External state could not be decoded."},

	TefFAILURE:              {"tefFAILURE", "Failed to apply."},
	TefINTERNAL:             {"tefINTERNAL", "Internal error."},
	TefBAD_LEDGER:           {"tefBAD_LEDGER", "Ledger is in an unexpected state."},
	TefINVARIANT_FAILED:     {"tefINVARIANT_FAILED", "A ledger invariant would be broken."},
	TefARITHMETIC_OVERFLOW:  {"tefARITHMETIC_OVERFLOW", "Arithmetic overflow."},
	TefARITHMETIC_UNDERFLOW: {"tefARITHMETIC_UNDERFLOW", "Arithmetic underflow."},
	TefDIVISION_BY_ZERO:     {"tefDIVISION_BY_ZERO", "Division by zero."},

	TemMALFORMED:  {"temMALFORMED", "Malformed transaction."},
	TemINVALID:    {"temINVALID", "The transaction is ill-formed."},
	TemBAD_AMOUNT: {"temBAD_AMOUNT", "Can only move positive amounts."},
	TemBAD_SIGNER: {"temBAD_SIGNER", "A signer is required."},
	TemBAD_FEE:    {"temBAD_FEE", "Fee rate above protocol maximum."},
	TemUNKNOWN:    {"temUNKNOWN", "Unknown transaction type."},
	TemREDUNDANT:  {"temREDUNDANT", "The transaction would change nothing."},
}

var resultByToken = func() map[string]Result {
	m := make(map[string]Result, len(resultTable))
	for r, info := range resultTable {
		m[info.token] = r
	}
	return m
}()

// String returns the string representation of the result code
func (r Result) String() string {
	if info, ok := resultTable[r]; ok {
		return info.token
	}
	return fmt.Sprintf("Unknown(%d)", int(r))
}

// MarshalText encodes the result as its token.
func (r Result) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses a result token.
func (r *Result) UnmarshalText(text []byte) error {
	res, ok := ResultFromToken(string(text))
	if !ok {
		return fmt.Errorf("unknown result %q", text)
	}
	*r = res
	return nil
}

// ResultFromToken looks a result up by its token, e.g. "tecPRICE_STALE".
func ResultFromToken(token string) (Result, bool) {
	r, ok := resultByToken[token]
	return r, ok
}

// IsSuccess returns true if the result indicates success
func (r Result) IsSuccess() bool {
	return r == TesSUCCESS
}

// IsTec returns true if this is a tec (rejected business rule) code
func (r Result) IsTec() bool {
	return r >= 100 && r < 200
}

// IsTef returns true if this is a tef (failure) code
func (r Result) IsTef() bool {
	return r >= -199 && r <= -100
}

// IsTem returns true if this is a tem (malformed) code
func (r Result) IsTem() bool {
	return r >= -299 && r <= -200
}

// IsApplied returns true if the transaction changed ledger state
func (r Result) IsApplied() bool {
	return r.IsSuccess()
}

// Message returns a human-readable message for the result
func (r Result) Message() string {
	if info, ok := resultTable[r]; ok {
		return info.message
	}
	return r.String()
}

// ErrorKind groups results by how a caller should react to them.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	// KindValidation is a rejected input or business rule; fix and resubmit.
	KindValidation
	// KindStalePrice requires a price refresh before resubmitting.
	KindStalePrice
	// KindUntrustedInput is external state failing owner, address or type checks.
	KindUntrustedInput
	// KindArithmetic is a checked overflow or underflow; a bug, not a user error.
	KindArithmetic
	// KindInternal is a storage or invariant failure.
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindStalePrice:
		return "stale_price"
	case KindUntrustedInput:
		return "untrusted_input"
	case KindArithmetic:
		return "arithmetic"
	case KindInternal:
		return "internal"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Kind classifies the result.
func (r Result) Kind() ErrorKind {
	switch r {
	case TesSUCCESS:
		return KindNone
	case TecPRICE_STALE:
		return KindStalePrice
	case TecWRONG_ACCOUNT_OWNER, TecINCORRECT_STATE_SOURCE, TecUNEXPECTED_ACCOUNT_TYPE,
		TecINVALID_STORED_PRICE, TecMINT_MISMATCH, TecMISSING_LST_STATE, TecBAD_EXTERNAL_STATE:
		return KindUntrustedInput
	case TefARITHMETIC_OVERFLOW, TefARITHMETIC_UNDERFLOW, TefDIVISION_BY_ZERO:
		return KindArithmetic
	}
	if r.IsTef() || !r.IsTec() && !r.IsTem() {
		return KindInternal
	}
	return KindValidation
}

// ResultError carries a non-success result as an error.
type ResultError struct {
	Result Result
	Detail string
}

func (e *ResultError) Error() string {
	var b strings.Builder
	b.WriteString(e.Result.String())
	b.WriteString(": ")
	b.WriteString(e.Result.Message())
	if e.Detail != "" {
		b.WriteString(" (")
		b.WriteString(e.Detail)
		b.WriteString(")")
	}
	return b.String()
}

// Err returns nil for success and a *ResultError otherwise.
func (r Result) Err() error {
	if r.IsSuccess() {
		return nil
	}
	return &ResultError{Result: r}
}
