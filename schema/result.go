package schema

import "encoding/json"

// ErrorInfo is the user-visible error half of a Result.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Result is the single outcome type surfaced by tool invocations, agent
// executions and the manager. Exactly one of Data and Error is populated.
type Result struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`

	// Execution metadata. ToolName is empty when no tool ran.
	ToolName  string `json:"tool_name,omitempty"`
	AgentRole string `json:"agent_role,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms,omitempty"`
	Steps     int    `json:"steps,omitempty"`
}

// Ok builds a success Result.
func Ok(data any) *Result {
	return &Result{Success: true, Data: data}
}

// Fail builds a failure Result from an error, deriving the kind from the
// error taxonomy.
func Fail(err error) *Result {
	return &Result{
		Success: false,
		Error:   &ErrorInfo{Kind: Kind(err), Message: err.Error()},
	}
}

// Failed reports whether the result carries an error.
func (r *Result) Failed() bool {
	return r != nil && !r.Success
}

// ToJSON renders the result for transcripts and logs.
func (r *Result) ToJSON() string {
	data, _ := json.Marshal(r)
	return string(data)
}
