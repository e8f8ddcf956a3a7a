package core

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

const (
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"
)

const (
	IconTransportation CategoryIcon = "transportation"
	IconEntertainment  CategoryIcon = "entertainment"
	IconOther          CategoryIcon = "other"
)

type (
	TransactionType string

	CategoryIcon string

	// Amount is a monetary value that tolerates the upstream API sending
	// numbers either as JSON numbers or as quoted strings (possibly with
	// thousands separators).
	Amount float64

	// TransactionCategory is the category attached to a raw transaction record.
	TransactionCategory struct {
		ID   string          `json:"id,omitempty"`
		Name string          `json:"name"`
		Type TransactionType `json:"type,omitempty"`
	}

	// TransactionWallet is the owning-wallet summary embedded in
	// user-wide transaction listings. Wallet-scoped listings omit it.
	TransactionWallet struct {
		ID       string `json:"id,omitempty"`
		Name     string `json:"name,omitempty"`
		Currency string `json:"currency,omitempty"`
		Balance  Amount `json:"balance,omitempty"`
	}

	// Transaction mirrors a raw record from the upstream transactions API.
	Transaction struct {
		ID              string              `json:"id"`
		WalletID        string              `json:"wallet_id,omitempty"`
		Amount          Amount              `json:"amount"`
		TransactionDate string              `json:"transaction_date"`
		TransactionType TransactionType     `json:"transaction_type"`
		Description     string              `json:"description,omitempty"`
		Category        TransactionCategory `json:"category,omitempty"`
		Wallet          TransactionWallet   `json:"wallet,omitempty"`
	}

	// Wallet mirrors a wallet detail record from the upstream API.
	Wallet struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		Currency    string `json:"currency"`
		Balance     Amount `json:"balance"`
	}
)

// Display-ready timeline structures. These are transient snapshots built
// by GroupTimeline; nothing in this package holds on to them.
type (
	TimelineCategory struct {
		Name string       `json:"name"`
		Icon CategoryIcon `json:"icon,omitempty"`
	}

	TimelineAmount struct {
		Value    float64 `json:"value"`
		Currency string  `json:"currency,omitempty"`
	}

	TimelineItem struct {
		ID       string           `json:"id"`
		Title    string           `json:"title"`
		Account  string           `json:"account,omitempty"`
		Category TimelineCategory `json:"category"`
		Amount   TimelineAmount   `json:"amount"`
		Date     time.Time        `json:"date"`
	}

	TimelineDay struct {
		Label string         `json:"label"`
		Items []TimelineItem `json:"items"`
	}

	TimelineMonth struct {
		Label string         `json:"label"`
		Total TimelineAmount `json:"total"`
		Days  []TimelineDay  `json:"days"`
	}

	GroupedTimeline struct {
		Today  *TimelineDay    `json:"today"`
		Months []TimelineMonth `json:"months"`
	}
)

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*a = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		*a = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*a = Amount(v)
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(a))
}

// Date parses the record's transaction_date. The upstream sends either a
// full RFC 3339 timestamp or a bare "2006-01-02" day.
func (t Transaction) Date() time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, t.TransactionDate); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// SignedValue returns the amount with direction applied: income is
// positive, expense and transfer are negative.
func (t Transaction) SignedValue() float64 {
	v := float64(t.Amount)
	if v < 0 {
		v = -v
	}
	if t.TransactionType == TypeIncome {
		return v
	}
	return -v
}

// CategoryName falls back to the transaction type when the record carries
// no category.
func (t Transaction) CategoryName() string {
	if t.Category.Name != "" {
		return t.Category.Name
	}
	return string(t.TransactionType)
}

// IconForCategory maps a category name onto one of the known icons.
func IconForCategory(name string) CategoryIcon {
	lowered := strings.ToLower(name)
	switch {
	case strings.Contains(lowered, "transport"):
		return IconTransportation
	case strings.Contains(lowered, "entertain"):
		return IconEntertainment
	default:
		return IconOther
	}
}

// TimelineItem shapes the raw record for display grouping. The sign of
// the amount is decided here, once; GroupTimeline never re-derives it.
func (t Transaction) TimelineItem() TimelineItem {
	name := t.CategoryName()
	title := t.Description
	if title == "" {
		title = name
	}
	return TimelineItem{
		ID:      t.ID,
		Title:   title,
		Account: t.Wallet.Name,
		Category: TimelineCategory{
			Name: name,
			Icon: IconForCategory(name),
		},
		Amount: TimelineAmount{
			Value:    t.SignedValue(),
			Currency: t.Wallet.Currency,
		},
		Date: t.Date(),
	}
}

// TimelineItems maps a batch of raw records in order.
func TimelineItems(txs []Transaction) []TimelineItem {
	items := make([]TimelineItem, 0, len(txs))
	for _, tx := range txs {
		items = append(items, tx.TimelineItem())
	}
	return items
}
