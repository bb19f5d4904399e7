package client

// Wire types for the Fiscal Sentinel API. The client keeps its own copies
// of these shapes; the server's internal DTOs are not importable from
// outside the module.

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

type AnalyzeRequest struct {
	Query          string    `json:"query"`
	ConversationID string    `json:"conversation_id,omitempty"`
	History        []Message `json:"history,omitempty"`
	Debug          bool      `json:"debug,omitempty"`
}

type AnalyzeResponse struct {
	Response       string    `json:"response"`
	ConversationID string    `json:"conversation_id,omitempty"`
	History        []Message `json:"history,omitempty"`
}

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	IsActive  bool   `json:"is_active"`
}

type AuthResponse struct {
	Message      string `json:"message"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	Data         User   `json:"data"`
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Transaction struct {
	ID        string  `json:"id"`
	Date      string  `json:"date"`
	Merchant  string  `json:"merchant"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Category  string  `json:"category"`
	Notes     string  `json:"notes,omitempty"`
	Source    string  `json:"source,omitempty"`
	CreatedAt string  `json:"created_at"`
}

type ConfidenceStats struct {
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

type PreviewResult struct {
	PreviewID        string              `json:"preview_id"`
	Columns          []string            `json:"columns"`
	SampleRows       []map[string]string `json:"sample_rows"`
	SuggestedMapping map[string]string   `json:"suggested_mapping"`
	Source           string              `json:"source"`
	Schema           map[string]string   `json:"schema"`
	ConfidenceStats  ConfidenceStats     `json:"confidence_stats"`
}

type ImportResult struct {
	Count int `json:"count"`
}
