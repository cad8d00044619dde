package domain

import "time"

const (
	ShopifyActionUpsert  = "upsert"
	ShopifyActionArchive = "archive"

	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncFailed  = "failed"
)

// ShopifySync queues one product change for the online store
type ShopifySync struct {
	ID           int64      `json:"id,string"`
	ProductID    int64      `gorm:"index" json:"product_id,string"`
	Sku          string     `gorm:"size:64;index" json:"sku"`
	Action       string     `gorm:"size:16" json:"action"`
	Status       string     `gorm:"size:16;index" json:"status"`
	RemoteID     string     `gorm:"size:64" json:"remote_id"`
	RetryCount   int        `json:"retry_count"`
	ErrorMessage string     `gorm:"size:500" json:"error_message"`
	LastSyncAt   *time.Time `json:"last_sync_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (ShopifySync) TableName() string {
	return "shopify_sync"
}

// ShopifySyncLog audits every push attempt
type ShopifySyncLog struct {
	ID           int64     `json:"id,string"`
	SyncID       int64     `gorm:"index" json:"sync_id,string"`
	Sku          string    `gorm:"size:64" json:"sku"`
	Action       string    `gorm:"size:16" json:"action"`
	Success      bool      `json:"success"`
	Request      string    `gorm:"type:text" json:"request"`
	Response     string    `gorm:"type:text" json:"response"`
	ErrorMessage string    `gorm:"size:500" json:"error_message"`
	CreatedAt    time.Time `json:"created_at"`
}

func (ShopifySyncLog) TableName() string {
	return "shopify_sync_log"
}
