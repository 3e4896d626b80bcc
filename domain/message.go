package domain

import (
	"encoding/json"
	"fmt"
)

// MessageRow is one archived message together with the outcome of its
// transaction and the masterchain block it was committed in.
type MessageRow struct {
	Source      string
	Destination string
	Value       int64
	CreatedLt   int64
	CreatedAt   int64
	Body        string // base64 bag of cells
	Description json.RawMessage
	BlockSeqno  int32
}

type txDescription struct {
	ComputePh struct {
		ExitCode *int `json:"exit_code"`
	} `json:"compute_ph"`
	Action *struct {
		ResultCode int `json:"result_code"`
	} `json:"action"`
	Bounce *bool `json:"bounce"`
}

// Outcome extracts the compute exit code and action result code of the
// transaction that carried the message.
func (m *MessageRow) Outcome() (exitCode, actionCode int, err error) {
	var descr txDescription
	if err := json.Unmarshal(m.Description, &descr); err != nil {
		return 0, 0, fmt.Errorf("parsing transaction description: %w", err)
	}
	if descr.ComputePh.ExitCode == nil {
		return 0, 0, fmt.Errorf("transaction description has no exit code")
	}
	exitCode = *descr.ComputePh.ExitCode
	if descr.Action != nil {
		actionCode = descr.Action.ResultCode
	}
	return exitCode, actionCode, nil
}

// Bounced reports whether the transaction bounced the message back.
func (m *MessageRow) Bounced() bool {
	var descr txDescription
	if err := json.Unmarshal(m.Description, &descr); err != nil {
		return false
	}
	return descr.Bounce != nil && *descr.Bounce
}
