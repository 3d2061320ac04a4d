package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PaymentStatusPending    = "pending"
	PaymentStatusSuccessful = "successful"
	PaymentStatusFailed     = "failed"
)

// PaymentTransaction records a course purchase attempt against the gateway
type PaymentTransaction struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	TxRef                string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"tx_ref"`
	UserID               string         `gorm:"type:varchar(24);not null;index" json:"user_id"`
	CourseID             string         `gorm:"type:varchar(24);not null;index" json:"course_id"`
	Amount               float64        `gorm:"not null" json:"amount"`
	Currency             string         `gorm:"type:varchar(10);default:'USD'" json:"currency"`
	Status               string         `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	GatewayTransactionID string         `gorm:"type:varchar(64);index" json:"gateway_transaction_id"`
	GatewayResponse      datatypes.JSON `gorm:"type:jsonb" json:"gateway_response,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for PaymentTransaction
func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}
