package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	&SysOpr{},
	&SysOprLog{},
	&SysDevice{},
	&SysScheduler{},
	// Catalog
	&Category{},
	&Product{},
	&SoldProduct{},
	// Counterparties and ledger
	&Customer{},
	&Karigar{},
	&HisaabEntry{},
	// Sales
	&Invoice{},
	&InvoiceItem{},
	&Order{},
	&OrderItem{},
	// Printing
	&LabelLayout{},
	&Printer{},
	// Shopify
	&ShopifySync{},
	&ShopifySyncLog{},
}
