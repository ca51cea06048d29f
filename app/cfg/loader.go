package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"catalog_user" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" default:"catalog_password" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"catalog_sync" description:"Database name"`

	// Supplier lookup API
	SupplierAPIURL   string  `long:"supplier-api-url" env:"SUPPLIER_API_URL" description:"Base URL of the supplier price/availability API (required)" required:"true"`
	LookupRPS        float64 `long:"lookup-rps" env:"LOOKUP_RPS" default:"1.0" description:"Request rate cap toward the supplier API (requests per second, 0 = unlimited)"`
	MaxFetchAttempts int     `long:"max-fetch-attempts" env:"MAX_FETCH_ATTEMPTS" default:"3" description:"Lookup attempts per SKU before falling back to out-of-stock"`

	// Catalog reconciliation
	CatalogFile      string `long:"catalog-file" env:"CATALOG_FILE" default:"./catalog.yaml" description:"YAML file listing the SKUs to reconcile plus an optional skip list"`
	StockLevel       int    `long:"stock-level" env:"STOCK_LEVEL" default:"20" description:"Quantity reported for in-stock products"`
	LeadTime         int    `long:"lead-time" env:"LEAD_TIME" default:"1" description:"Base handling time in days"`
	LeadTime2        int    `long:"lead-time-2" env:"LEAD_TIME_2" default:"3" description:"Supplier-specific handling time in days"`
	UpdateFlag       int    `long:"update-flag" env:"UPDATE_FLAG" default:"4" description:"Flag value marking changed rows for feed submission"`
	BatchSize        int    `long:"batch-size" env:"BATCH_SIZE" default:"25" description:"SKUs per reconciliation group"`
	ConcurrencyLimit int    `long:"concurrency-limit" env:"CONCURRENCY_LIMIT" default:"10" description:"Concurrent supplier lookups per window"`

	// Marketplace feed submission
	SellerID        string `long:"seller-id" env:"SELLER_ID" description:"Marketplace seller identifier"`
	MarketplaceID   string `long:"marketplace-id" env:"MARKETPLACE_ID" description:"Marketplace identifier for feed submission"`
	ClientID        string `long:"client-id" env:"SP_CLIENT_ID" description:"OAuth2 client ID for the marketplace API"`
	ClientSecret    string `long:"client-secret" env:"SP_CLIENT_SECRET" description:"OAuth2 client secret for the marketplace API"`
	RefreshToken    string `long:"refresh-token" env:"SP_REFRESH_TOKEN" description:"OAuth2 refresh token for the marketplace API"`
	SKUPrefix       string `long:"sku-prefix" env:"SKU_PREFIX" default:"SEVC" description:"Marketplace SKU prefix selecting rows for feed submission"`
	FeedSliceSize   int    `long:"feed-slice-size" env:"FEED_SLICE_SIZE" default:"9990" description:"Products per feed document (marketplace payload limit)"`
	PollInterval    int    `long:"poll-interval" env:"POLL_INTERVAL" default:"30" description:"Seconds between feed status polls"`
	MaxPollAttempts int    `long:"max-poll-attempts" env:"MAX_POLL_ATTEMPTS" default:"20" description:"Feed status polls before giving up"`
	SubmitRetries   int    `long:"submit-retries" env:"SUBMIT_RETRIES" default:"3" description:"Feed submission attempts when rate-limited"`
	FeedsDir        string `long:"feeds-dir" env:"FEEDS_DIR" default:"./feeds" description:"Directory for local feed audit copies"`

	// Application configuration
	Port         string `long:"port" env:"PORT" description:"HTTP status server port (empty disables the server)"`
	Daemon       bool   `long:"daemon" env:"DAEMON" description:"Keep running and re-sync on an interval"`
	SyncInterval int    `long:"sync-interval" env:"SYNC_INTERVAL" default:"3600" description:"Seconds between sync cycles in daemon mode"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Catalog Sync/1.0" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	// Optional .env file for local development; flags and real env win.
	_ = godotenv.Load()

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBHost:           raw.DBHost,
		DBPort:           raw.DBPort,
		DBUser:           raw.DBUser,
		DBPassword:       raw.DBPassword,
		DBName:           raw.DBName,
		SupplierAPIURL:   raw.SupplierAPIURL,
		LookupRPS:        raw.LookupRPS,
		MaxFetchAttempts: raw.MaxFetchAttempts,
		CatalogFile:      raw.CatalogFile,
		StockLevel:       raw.StockLevel,
		LeadTime:         raw.LeadTime,
		LeadTime2:        raw.LeadTime2,
		UpdateFlag:       raw.UpdateFlag,
		BatchSize:        raw.BatchSize,
		ConcurrencyLimit: raw.ConcurrencyLimit,
		SellerID:         raw.SellerID,
		MarketplaceID:    raw.MarketplaceID,
		ClientID:         raw.ClientID,
		ClientSecret:     raw.ClientSecret,
		RefreshToken:     raw.RefreshToken,
		SKUPrefix:        raw.SKUPrefix,
		FeedSliceSize:    raw.FeedSliceSize,
		PollInterval:     raw.PollInterval,
		MaxPollAttempts:  raw.MaxPollAttempts,
		SubmitRetries:    raw.SubmitRetries,
		FeedsDir:         raw.FeedsDir,
		Port:             raw.Port,
		Daemon:           raw.Daemon,
		SyncInterval:     raw.SyncInterval,
		UserAgent:        raw.UserAgent,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}

	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", cfg.BatchSize)
	}
	if cfg.ConcurrencyLimit <= 0 {
		return nil, fmt.Errorf("concurrency limit must be positive, got %d", cfg.ConcurrencyLimit)
	}
	if cfg.MaxFetchAttempts <= 0 {
		return nil, fmt.Errorf("max fetch attempts must be positive, got %d", cfg.MaxFetchAttempts)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}
