package common

import (
	"math"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

const (
	NA       = "N/A"
	ENABLED  = "enabled"
	DISABLED = "disabled"
)

var (
	idNode     *snowflake.Node
	idNodeOnce sync.Once
)

func node() *snowflake.Node {
	idNodeOnce.Do(func() {
		var err error
		idNode, err = snowflake.NewNode(1)
		if err != nil {
			zap.S().Fatal(err)
		}
	})
	return idNode
}

// UUIDint64 returns a time ordered 64 bit id used as row primary key
func UUIDint64() int64 {
	return node().Generate().Int64()
}

// UUID returns a random textual id
func UUID() string {
	return uuid.NewString()
}

func IfEmptyStr(src string, defval string) string {
	if strings.TrimSpace(src) == "" {
		return defval
	}
	return src
}

// ToFloat coerces any input to a finite float64. NaN, infinities and
// unparsable values become 0.
func ToFloat(v interface{}) float64 {
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// SplitTrim splits a comma separated list dropping blank items
func SplitTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func InSlice(v string, items []string) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}
