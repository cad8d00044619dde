package domain

import "time"

// SysConfig stores runtime shop settings as type/name/value rows
type SysConfig struct {
	ID        int64     `json:"id,string" form:"id"`
	Sort      int       `json:"sort" form:"sort"`
	Type      string    `gorm:"index" json:"type" form:"type"`
	Name      string    `gorm:"index" json:"name" form:"name"`
	Value     string    `json:"value" form:"value"`
	Remark    string    `json:"remark" form:"remark"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SysConfig) TableName() string {
	return "sys_config"
}

// SysOpr is a shop operator account
type SysOpr struct {
	ID        int64     `json:"id,string" form:"id"`
	Realname  string    `json:"realname" form:"realname"`
	Mobile    string    `json:"mobile" form:"mobile"`
	Email     string    `json:"email" form:"email"`
	Username  string    `gorm:"uniqueIndex" json:"username" form:"username"`
	Password  string    `json:"-" form:"password"`
	Level     string    `json:"level" form:"level"` // super | opr
	Status    string    `json:"status" form:"status"`
	Remark    string    `json:"remark" form:"remark"`
	LastLogin time.Time `json:"last_login" form:"last_login"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SysOpr) TableName() string {
	return "sys_opr"
}

// SysOprLog operation log
type SysOprLog struct {
	ID        int64     `json:"id,string"`
	OprName   string    `gorm:"index" json:"opr_name"`
	OprIp     string    `json:"opr_ip"`
	DeviceID  string    `json:"device_id"`
	OptAction string    `json:"opt_action"`
	OptDesc   string    `json:"opt_desc"`
	OptTime   time.Time `gorm:"index" json:"opt_time"`
}

func (SysOprLog) TableName() string {
	return "sys_opr_log"
}

// SysDevice is a terminal allowed to use the API when the allow-list is enforced
type SysDevice struct {
	ID        int64     `json:"id,string" form:"id"`
	DeviceID  string    `gorm:"size:128;uniqueIndex" json:"device_id" form:"device_id"`
	Name      string    `gorm:"size:100" json:"name" form:"name"`
	Status    string    `gorm:"size:16" json:"status" form:"status"`
	LastSeen  time.Time `json:"last_seen"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SysDevice) TableName() string {
	return "sys_device"
}

const (
	TaskShopifySync  = "shopify_sync"
	TaskPrintRetry   = "print_retry"
	TaskPrinterProbe = "printer_probe"
)

// SysScheduler is a periodic background task definition
type SysScheduler struct {
	ID          int64     `json:"id,string" form:"id"`
	Name        string    `gorm:"size:100" json:"name" form:"name"`
	TaskType    string    `gorm:"size:50;index" json:"task_type" form:"task_type"`
	Interval    int       `json:"interval" form:"interval"` // seconds
	Status      string    `gorm:"size:16" json:"status" form:"status"`
	Config      string    `json:"config" form:"config"`
	NextRunAt   time.Time `json:"next_run_at"`
	LastRunAt   time.Time `json:"last_run_at"`
	LastResult  string    `json:"last_result"`
	LastMessage string    `json:"last_message"`
	Remark      string    `json:"remark" form:"remark"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (SysScheduler) TableName() string {
	return "sys_scheduler"
}
