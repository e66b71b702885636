package constants

const (
	// Deployed environments. Anything else is treated as local.
	ProdEnvironment = "prod"
	DevEnvironment  = "dev"

	// Date layout for API date-only fields (period bounds, transaction
	// dates, rule effective dates)
	DateLayout = "2006-01-02"
)
