package labels

import (
	"fmt"
	"regexp"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
)

var placeholderRe = regexp.MustCompile(`\{([^{}]+)\}`)

// Substitute replaces every {key} in tpl with the string form of entity[key].
// Unknown keys are left as they are.
func Substitute(tpl string, entity map[string]interface{}) string {
	return placeholderRe.ReplaceAllStringFunc(tpl, func(tok string) string {
		key := tok[1 : len(tok)-1]
		v, ok := entity[key]
		if !ok {
			return tok
		}
		return stringOf(v)
	})
}

func stringOf(v interface{}) string {
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// ProductEntity flattens a product into the attribute map used by templates.
// extra values (price, shop name) win over product fields.
func ProductEntity(p domain.Product, extra map[string]interface{}) (map[string]interface{}, error) {
	m := map[string]interface{}{}
	if err := mapstructure.Decode(p.ProductFields, &m); err != nil {
		return nil, err
	}
	m["id"] = p.ID
	for k, v := range extra {
		m[k] = v
	}
	return m, nil
}
