package log

// Component names shared across the binaries.
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentStorage  = "storage"
	ComponentEvents   = "events"
	ComponentWorker   = "worker"
	ComponentRates    = "rates"
	ComponentCurrency = "currency"
	ComponentImport   = "import"
	ComponentAuth     = "auth"
)
