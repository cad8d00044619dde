package domain

import "time"

// LabelLayout is a stored tag layout. Fields holds the JSON encoded field list.
type LabelLayout struct {
	ID         int64     `json:"id,string"`
	Name       string    `gorm:"size:100;uniqueIndex" json:"name"`
	WidthDots  int       `json:"width_dots"`
	HeightDots int       `json:"height_dots"`
	Panels     int       `json:"panels"`
	GapDots    int       `json:"gap_dots"`
	Fields     string    `gorm:"type:text" json:"fields"`
	IsDefault  bool      `json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (LabelLayout) TableName() string {
	return "label_layout"
}

const (
	TransportTCP  = "tcp"
	TransportSFTP = "sftp"
)

// Printer is a label printer reachable over raw TCP or an SFTP hot folder
type Printer struct {
	ID            int64     `json:"id,string"`
	Name          string    `gorm:"size:100" json:"name"`
	Transport     string    `gorm:"size:16" json:"transport"`
	Host          string    `gorm:"size:128" json:"host"`
	Port          int       `json:"port"`
	Username      string    `gorm:"size:64" json:"username"`
	Password      string    `gorm:"size:128" json:"-"`
	RemoteDir     string    `gorm:"size:255" json:"remote_dir"`
	SnmpCommunity string    `gorm:"size:64" json:"snmp_community"`
	Status        string    `gorm:"size:16" json:"status"`
	LastProbeAt   time.Time `json:"last_probe_at"`
	LastResult    string    `gorm:"size:16" json:"last_result"`
	LastMessage   string    `gorm:"size:255" json:"last_message"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Printer) TableName() string {
	return "printer"
}
