package client

// CodeSent is returned after a code was requested
type CodeSent struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Verification is returned after a code was accepted
type Verification struct {
	Success bool   `json:"success"`
	UserID  int64  `json:"userId"`
	Phone   string `json:"phone"`
	Token   string `json:"token,omitempty"`
}

// Answer is the reply to a question
type Answer struct {
	Answer       string `json:"answer"`
	TokensUsed   int    `json:"tokensUsed"`
	RequestsLeft int    `json:"requestsLeft"`
}

// Checkout points at the gateway's payment page
type Checkout struct {
	PaymentURL string `json:"paymentUrl"`
	PaymentID  string `json:"paymentId"`
}

// Profile is the account summary
type Profile struct {
	Phone            string         `json:"phone"`
	FreeRequestsUsed int            `json:"freeRequestsUsed"`
	FreeRequestsLeft int            `json:"freeRequestsLeft"`
	MemberSince      string         `json:"memberSince"`
	Subscriptions    []Subscription `json:"subscriptions"`
	Stats            Stats          `json:"stats"`
}

// Subscription is one row of subscription history
type Subscription struct {
	PlanType      string  `json:"planType"`
	RequestsTotal *int    `json:"requestsTotal"`
	RequestsUsed  int     `json:"requestsUsed"`
	IsUnlimited   bool    `json:"isUnlimited"`
	ExpiresAt     *string `json:"expiresAt"`
	IsActive      bool    `json:"isActive"`
}

// Stats aggregates usage and spend
type Stats struct {
	TotalRequests int64   `json:"totalRequests"`
	TotalTokens   int64   `json:"totalTokens"`
	TotalSpent    float64 `json:"totalSpent"`
}

// Plan is a purchasable offer
type Plan struct {
	Type         string `json:"type"`
	Title        string `json:"title"`
	Price        int    `json:"price"`
	Requests     *int   `json:"requests"`
	Unlimited    bool   `json:"unlimited"`
	DurationDays int    `json:"durationDays"`
}

// HealthResponse is the liveness check body
type HealthResponse struct {
	Status string `json:"status"`
}
