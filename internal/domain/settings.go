package domain

// Settings is the typed view of the sys_config rows. Values are decoded by category.
type Settings struct {
	Shop     ShopSettings     `mapstructure:"shop" json:"shop"`
	Rates    RateSettings     `mapstructure:"rates" json:"rates"`
	Pricing  PricingSettings  `mapstructure:"pricing" json:"pricing"`
	Security SecuritySettings `mapstructure:"security" json:"security"`
}

type ShopSettings struct {
	Name           string `mapstructure:"name" json:"name"`
	Address        string `mapstructure:"address" json:"address"`
	Contact        string `mapstructure:"contact" json:"contact"`
	LogoURL        string `mapstructure:"logo_url" json:"logo_url"`
	PaymentMethods string `mapstructure:"payment_methods" json:"payment_methods"`
	InvoiceFooter  string `mapstructure:"invoice_footer" json:"invoice_footer"`
}

// RateSettings are per-gram market rates
type RateSettings struct {
	Gold18k   float64 `mapstructure:"gold_18k" json:"gold_18k"`
	Gold21k   float64 `mapstructure:"gold_21k" json:"gold_21k"`
	Gold22k   float64 `mapstructure:"gold_22k" json:"gold_22k"`
	Gold24k   float64 `mapstructure:"gold_24k" json:"gold_24k"`
	Palladium float64 `mapstructure:"palladium" json:"palladium"`
	Platinum  float64 `mapstructure:"platinum" json:"platinum"`
}

type PricingSettings struct {
	PriceNonGoldMetals bool `mapstructure:"price_non_gold_metals" json:"price_non_gold_metals"`
}

type SecuritySettings struct {
	AllowedDevices         string `mapstructure:"allowed_devices" json:"allowed_devices"`
	EnforceDeviceAllowlist bool   `mapstructure:"enforce_device_allowlist" json:"enforce_device_allowlist"`
}

// Snapshot converts the live rates into the frozen form stored on invoices and orders
func (r RateSettings) Snapshot() RatesApplied {
	return RatesApplied{
		GoldRate18k:   r.Gold18k,
		GoldRate21k:   r.Gold21k,
		GoldRate22k:   r.Gold22k,
		GoldRate24k:   r.Gold24k,
		PalladiumRate: r.Palladium,
		PlatinumRate:  r.Platinum,
	}
}
