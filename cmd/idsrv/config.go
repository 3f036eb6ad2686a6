package main

import (
	"time"

	"github.com/dmitrymomot/idsrv/modules/login"
	"github.com/dmitrymomot/idsrv/pkg/clientip"
	"github.com/dmitrymomot/idsrv/pkg/cookie"
	"github.com/dmitrymomot/idsrv/pkg/csrf"
	"github.com/dmitrymomot/idsrv/pkg/httpserver"
	"github.com/dmitrymomot/idsrv/pkg/logger"
	"github.com/dmitrymomot/idsrv/pkg/pg"
	"github.com/dmitrymomot/idsrv/pkg/redis"
	"github.com/dmitrymomot/idsrv/pkg/signin"
	"github.com/dmitrymomot/idsrv/pkg/throttle"
	"github.com/dmitrymomot/idsrv/pkg/tracing"
)

type appConfig struct {
	UsersFile      string        `env:"USERS_FILE" envDefault:"config/users.yaml"`
	ClientsFile    string        `env:"CLIENTS_FILE" envDefault:"config/clients.yaml"`
	ProvidersFile  string        `env:"PROVIDERS_FILE"`
	ClientCacheTTL time.Duration `env:"CLIENT_CACHE_TTL" envDefault:"1m"`
	ClientCacheCap int           `env:"CLIENT_CACHE_CAPACITY" envDefault:"1024"`
	ReadyTimeout   time.Duration `env:"READY_TIMEOUT" envDefault:"2s"`
	MessagesFile   string        `env:"MESSAGES_FILE" envDefault:"config/messages.yaml"`
	// DevRoutes mounts /dev/signin and /dev/signout, which start flows
	// without a protocol layer. Never enable in production.
	DevRoutes bool `env:"DEV_ROUTES" envDefault:"false"`

	Log      logger.Config
	HTTP     httpserver.Config
	Login    login.Config
	Cookie   cookie.Config
	SignIn   signin.Config
	CSRF     csrf.Config
	Throttle throttle.Config
	ClientIP clientip.Config
	Tracing  tracing.Config
	Postgres pg.Config
	Redis    redis.Config
}
