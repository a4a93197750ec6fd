package types

// Category represents service categories
type Category string

const (
	CategoryAuth     Category = "auth"
	CategoryStorage  Category = "storage"
	CategoryTerminal Category = "terminal"
)

// Service represents a service definition
type Service struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Category     Category `json:"category"`
	Capabilities []string `json:"capabilities"`
	Tools        []Tool   `json:"tools"`
}

// Tool represents a service tool
type Tool struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
	Returns     string      `json:"returns"`
}

// Parameter represents a tool parameter
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Context identifies who a tool runs for.
type Context struct {
	SessionID *string `json:"session_id,omitempty"`
	UserID    *string `json:"user_id,omitempty"`
}

// Result represents a service execution result
type Result struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *string                `json:"error,omitempty"`
}

// Success wraps data in a successful result.
func Success(data map[string]interface{}) (*Result, error) {
	return &Result{Success: true, Data: data}, nil
}

// Failure reports a tool-level failure. The Go error stays nil because the
// call itself completed.
func Failure(message string) (*Result, error) {
	msg := message
	return &Result{Success: false, Error: &msg}, nil
}

// String reads an optional string parameter.
func String(params map[string]interface{}, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

// Bool reads an optional boolean parameter.
func Bool(params map[string]interface{}, key string) bool {
	v, _ := params[key].(bool)
	return v
}
