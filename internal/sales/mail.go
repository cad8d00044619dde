package sales

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"

	"github.com/Ammar282828/gemstrack-pos-sub002/config"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
)

// Mailer delivers invoices to customers
type Mailer interface {
	SendInvoice(inv *domain.Invoice, shop domain.ShopSettings, to string) error
}

// SMTPMailer sends mail through the configured SMTP relay
type SMTPMailer struct {
	cfg    config.MailConfig
	dialer *gomail.Dialer
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	return &SMTPMailer{cfg: cfg, dialer: gomail.NewDialer(cfg.Host, port, cfg.Username, cfg.Password)}
}

func (m *SMTPMailer) SendInvoice(inv *domain.Invoice, shop domain.ShopSettings, to string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("%s invoice %d", common.IfEmptyStr(shop.Name, "GemsTrack"), inv.ID))
	msg.SetBody("text/plain", InvoiceText(inv, shop))
	if err := m.dialer.DialAndSend(msg); err != nil {
		return errors.Wrap(err, "send invoice mail")
	}
	return nil
}

// InvoiceText renders a plain text invoice
func InvoiceText(inv *domain.Invoice, shop domain.ShopSettings) string {
	var b strings.Builder
	if shop.Name != "" {
		fmt.Fprintf(&b, "%s\n", shop.Name)
	}
	if shop.Address != "" {
		fmt.Fprintf(&b, "%s\n", shop.Address)
	}
	if shop.Contact != "" {
		fmt.Fprintf(&b, "%s\n", shop.Contact)
	}
	fmt.Fprintf(&b, "\nInvoice %d  %s\n", inv.ID, inv.CreatedAt.Format("2006-01-02 15:04"))
	if inv.CustomerName != "" {
		fmt.Fprintf(&b, "Customer: %s\n", inv.CustomerName)
	}
	b.WriteString("\n")
	for _, it := range inv.Items {
		fmt.Fprintf(&b, "%-12s %-24s %10sg %14s\n", it.Sku, it.Name,
			common.FormatGrams(common.Decimal(it.MetalWeightG)), common.FormatCurrency(common.Decimal(it.ItemTotal)))
	}
	fmt.Fprintf(&b, "\nSubtotal:    %s\n", common.FormatCurrency(common.Decimal(inv.Subtotal)))
	if inv.DiscountAmount != 0 {
		fmt.Fprintf(&b, "Discount:    %s\n", common.FormatCurrency(common.Decimal(inv.DiscountAmount)))
	}
	fmt.Fprintf(&b, "Grand total: %s\n", common.FormatCurrency(common.Decimal(inv.GrandTotal)))
	fmt.Fprintf(&b, "Paid:        %s\n", common.FormatCurrency(common.Decimal(inv.AmountPaid)))
	fmt.Fprintf(&b, "Balance due: %s\n", common.FormatCurrency(common.Decimal(inv.BalanceDue)))
	if shop.InvoiceFooter != "" {
		fmt.Fprintf(&b, "\n%s\n", shop.InvoiceFooter)
	}
	return b.String()
}
