package printer

import (
	"fmt"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
)

const (
	oidSysDescr      = ".1.3.6.1.2.1.1.1.0"
	oidPrinterStatus = ".1.3.6.1.2.1.25.3.5.1.1.1"
	defaultSnmpPort  = 161
	maxProbeMessage  = 200
)

// hrPrinterStatus values
var printerStatus = map[int]string{
	1: "other",
	2: "unknown",
	3: "idle",
	4: "printing",
	5: "warmup",
}

// ProbeResult is what an SNMP probe learned about a printer
type ProbeResult struct {
	Model  string `json:"model"`
	Status string `json:"status"`
}

// Prober reads printer status
type Prober interface {
	Probe(p domain.Printer) (*ProbeResult, error)
}

// SNMPProber reads sysDescr and hrPrinterStatus over SNMP v2c
type SNMPProber struct {
	Timeout time.Duration
}

func (s SNMPProber) Probe(p domain.Printer) (*ProbeResult, error) {
	if p.SnmpCommunity == "" {
		return nil, fmt.Errorf("snmp community missing")
	}
	params := &gosnmp.GoSNMP{
		Target:    p.Host,
		Port:      defaultSnmpPort,
		Community: p.SnmpCommunity,
		Version:   gosnmp.Version2c,
		Timeout:   s.Timeout,
		Retries:   1,
	}
	if params.Timeout <= 0 {
		params.Timeout = 2 * time.Second
	}
	if err := params.Connect(); err != nil {
		return nil, err
	}
	defer params.Conn.Close()

	result, err := params.Get([]string{oidSysDescr, oidPrinterStatus})
	if err != nil {
		return nil, err
	}
	if result == nil || len(result.Variables) == 0 {
		return nil, fmt.Errorf("empty SNMP result")
	}
	res := &ProbeResult{Status: "unknown"}
	for _, v := range result.Variables {
		switch strings.TrimPrefix(v.Name, ".") {
		case strings.TrimPrefix(oidSysDescr, "."):
			res.Model = firstLine(pduString(v))
		case strings.TrimPrefix(oidPrinterStatus, "."):
			if st, ok := printerStatus[int(gosnmp.ToBigInt(v.Value).Int64())]; ok {
				res.Status = st
			}
		}
	}
	if res.Model == "" {
		return nil, fmt.Errorf("empty sysDescr")
	}
	return res, nil
}

func pduString(v gosnmp.SnmpPDU) string {
	if v.Type == gosnmp.OctetString {
		if b, ok := v.Value.([]byte); ok {
			return string(b)
		}
	}
	return fmt.Sprintf("%v", v.Value)
}

func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	if len(s) > maxProbeMessage {
		s = s[:maxProbeMessage]
	}
	return strings.TrimSpace(s)
}
