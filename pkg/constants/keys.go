package constants

type ContextKey string

const (
	PoolKey   ContextKey = "pool"
	TxKey     ContextKey = "tx"
	UserKey   ContextKey = "user"
	LoggerKey ContextKey = "logger"
	NowKey    ContextKey = "now"
	ParamsKey ContextKey = "params"

	RequestIDKey ContextKey = "request-id"
)
