package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Supplier lookup API
	SupplierAPIURL   string
	LookupRPS        float64
	MaxFetchAttempts int

	// Catalog reconciliation
	CatalogFile      string
	StockLevel       int
	LeadTime         int
	LeadTime2        int
	UpdateFlag       int
	BatchSize        int
	ConcurrencyLimit int

	// Marketplace feed submission
	SellerID        string
	MarketplaceID   string
	ClientID        string
	ClientSecret    string
	RefreshToken    string
	SKUPrefix       string
	FeedSliceSize   int
	PollInterval    int
	MaxPollAttempts int
	SubmitRetries   int
	FeedsDir        string

	// Application configuration
	Port         string
	Daemon       bool
	SyncInterval int

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
