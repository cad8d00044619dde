package adminapi

// Init registers every back office route on the web server
func Init() {
	registerAuthRoutes()
	registerSystemRoutes()
	registerSettingsRoutes()
	registerCategoryRoutes()
	registerProductRoutes()
	registerCounterpartyRoutes()
	registerHisaabRoutes()
	registerPricingRoutes()
	registerSalesRoutes()
	registerOrderRoutes()
	registerAnalyticsRoutes()
	registerLabelRoutes()
	registerPrinterRoutes()
	registerShopifyRoutes()
	registerSchedulerRoutes()
}
