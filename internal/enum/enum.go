package enum

// ── Cart events pushed over the WebSocket ──

const (
	EventCartUpdated   = "cart.updated"
	EventItemAdded     = "cart.item_added"
	EventTableSelected = "cart.table_selected"
	EventOrderPlaced   = "order.placed"
	EventLedgerCleared = "ledger.cleared"
)

// ── Snapshot backends (SNAPSHOT_BACKEND) ──

const (
	SnapshotBackendMemory   = "memory"
	SnapshotBackendRedis    = "redis"
	SnapshotBackendPostgres = "postgres"
	SnapshotBackendMySQL    = "mysql"
)

// ── Session roles ──

const (
	SessionRoleGuest   = "GUEST"
	SessionRoleCashier = "CASHIER"
)

// ── List filters ──

const (
	SortDirAsc  = "ASC"
	SortDirDesc = "DESC"
)

// DeletedNotNull asks list endpoints to return soft-deleted rows.
const DeletedNotNull = "not_null"
