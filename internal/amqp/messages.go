package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// ExportMessage asks the worker to export one wallet's grouped timeline
// to the configured spreadsheet. The worker re-reads the transactions
// itself; the message carries only the coordinates.
type ExportMessage struct {
	WalletID    string    `json:"wallet_id"`
	Locale      string    `json:"locale,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewExportMessage(walletID, locale string) *ExportMessage {
	return &ExportMessage{
		WalletID:    walletID,
		Locale:      locale,
		RequestedAt: time.Now(),
	}
}

func (m *ExportMessage) Validate() error {
	if m.WalletID == "" {
		return errors.New("export message missing wallet_id")
	}
	return nil
}

func (m *ExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExportMessageFromJSON(data []byte) (*ExportMessage, error) {
	var msg ExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
