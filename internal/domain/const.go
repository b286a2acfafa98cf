package domain

const (
	// Gateway constants
	DEFAULT_IPFS_GATEWAY    = "https://ipfs.io"
	DEFAULT_ARWEAVE_GATEWAY = "https://arweave.net"

	// DEFAULT_SOURCE_API_BASE_URL is the wallet token API used when none is configured
	DEFAULT_SOURCE_API_BASE_URL = "http://localhost:3000"

	// DEFAULT_SOURCE_ERROR_MESSAGE is reported when the source fails without saying why
	DEFAULT_SOURCE_ERROR_MESSAGE = "Failed to fetch tokens"

	// Enrichment fallbacks
	DEFAULT_BATCH_STATUS   = StatusCompleted
	DEFAULT_BATCH_PRODUCT  = "IceCream_NFT"
	DEFAULT_BATCH_QUANTITY = "500L"

	// START_DATE_LAYOUT renders dates as "Mon D, YYYY"
	START_DATE_LAYOUT = "Jan 2, 2006"

	// SOLANA_MINT_LENGTH is the decoded size of a Solana mint address
	SOLANA_MINT_LENGTH = 32
)

// Status is the lifecycle state of a batch or a station
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusProcessing Status = "processing"
	StatusPending    Status = "pending"
	StatusFailed     Status = "failed"

	// StatusAll is the filter value matching every status
	StatusAll Status = "all"
)

// MatchesFilter reports whether s passes a status filter; an empty filter or "all" passes everything
func (s Status) MatchesFilter(filter Status) bool {
	return filter == "" || filter == StatusAll || s == filter
}
