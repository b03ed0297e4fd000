package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	dErrors "bloodledger/pkg/domain-errors"
	audit "bloodledger/pkg/platform/audit"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitAborted      = 1 // the registry call aborted; nothing was written
	ExitCommandError = 2 // bad flags, configuration or unreachable storage
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func commandError(message string, err error) *ExitError {
	return &ExitError{Code: ExitCommandError, Message: message, Err: err}
}

// ExitCode extracts the exit code from an error returned by Execute.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// Response is the JSON envelope every command prints.
type Response struct {
	Status    string        `json:"status"`
	Data      any           `json:"data,omitempty"`
	Error     *ErrorBody    `json:"error,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	Audit     []auditRecord `json:"audit,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type auditRecord struct {
	Action     string `json:"action"`
	Category   string `json:"category"`
	DonationID uint64 `json:"donation_id"`
	LedgerTime uint64 `json:"ledger_time"`
	Subject    string `json:"subject,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

func toAuditRecords(events []audit.Event) []auditRecord {
	out := make([]auditRecord, 0, len(events))
	for _, e := range events {
		out = append(out, auditRecord{
			Action:     e.Action,
			Category:   string(e.Category),
			DonationID: e.DonationID,
			LedgerTime: e.LedgerTime,
			Subject:    e.Subject,
			Detail:     e.Detail,
		})
	}
	return out
}

func writeJSON(w io.Writer, resp Response) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// errorBody renders a call failure. Domain errors keep their code and message;
// anything else is reported as internal.
func errorBody(err error) *ErrorBody {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return &ErrorBody{Code: string(de.Code), Message: de.Error()}
	}
	return &ErrorBody{Code: string(dErrors.CodeInternal), Message: err.Error()}
}
