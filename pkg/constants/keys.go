package constants

type ContextKey string

const (
	LoggerKey    ContextKey = "logger"
	RequestStart ContextKey = "requestStart"
	ParamsKey    ContextKey = "params"
	PageContext  ContextKey = "pageContext"
	AppKey       ContextKey = "app"
	SessionKey   ContextKey = "session"
	NavItemsKey  ContextKey = "navItems"
)
