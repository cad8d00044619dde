package catalog

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
)

const skuDigits = 6

var prefixRe = regexp.MustCompile(`^[A-Z0-9]{1,8}$`)

// NormalizePrefix upper-cases a category prefix and checks its shape
func NormalizePrefix(prefix string) (string, error) {
	p := strings.ToUpper(strings.TrimSpace(prefix))
	if !prefixRe.MatchString(p) {
		return "", errors.Errorf("invalid sku prefix %q", prefix)
	}
	return p, nil
}

// FormatSku builds PREFIX-000042
func FormatSku(prefix string, n int) string {
	return fmt.Sprintf("%s-%0*d", prefix, skuDigits, n)
}

// NextSku returns the SKU after the highest numeric suffix among existing for prefix
func NextSku(prefix string, existing []string) string {
	highest := 0
	head := prefix + "-"
	for _, s := range existing {
		if !strings.HasPrefix(s, head) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(s, head))
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return FormatSku(prefix, highest+1)
}

// GenerateSku allocates the next SKU for a prefix looking at both the live and sold tables
func GenerateSku(ctx context.Context, db *gorm.DB, prefix string) (string, error) {
	p, err := NormalizePrefix(prefix)
	if err != nil {
		return "", err
	}
	var skus, sold []string
	like := p + "-%"
	if err := db.WithContext(ctx).Model(&domain.Product{}).Where("sku LIKE ?", like).Pluck("sku", &skus).Error; err != nil {
		return "", errors.Wrap(err, "query product skus")
	}
	if err := db.WithContext(ctx).Model(&domain.SoldProduct{}).Where("sku LIKE ?", like).Pluck("sku", &sold).Error; err != nil {
		return "", errors.Wrap(err, "query sold skus")
	}
	return NextSku(p, append(skus, sold...)), nil
}

// NormalizeScan turns a scanned QR or barcode payload into a SKU. URLs yield their
// sku query parameter or last path segment, and a leading "SKU:" label is dropped.
func NormalizeScan(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, "\x00\r\n\t")
	if u, err := url.Parse(s); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		if q := u.Query().Get("sku"); q != "" {
			s = q
		} else if base := path.Base(strings.TrimRight(u.Path, "/")); base != "." && base != "/" {
			s = base
		}
	}
	s = strings.TrimSpace(s)
	if len(s) > 4 && strings.EqualFold(s[:4], "SKU:") {
		s = strings.TrimSpace(s[4:])
	}
	return strings.ToUpper(s)
}
