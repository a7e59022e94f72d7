package server

import (
	"sync"
	"time"

	"github.com/woozymasta/masterstat/internal/models"
	"github.com/woozymasta/masterstat/pkg/masterstat"
	"golang.org/x/time/rate"
)

// Store is the read and delete surface of the storage used by the HTTP API.
type Store interface {
	GetServers() ([]models.Server, error)
	GetServer(ip string, port uint16) (*models.Server, error)
	DeleteServer(ip string, port uint16) error
	GetMasters() ([]models.Master, error)
}

// Server holds the dependencies, configuration, and runtime state required
// to handle HTTP requests.
type Server struct {
	// storage provides the servers and master status collected by the poller.
	storage Store

	// client performs live single-master queries for /api/query.
	client *masterstat.Client

	// allowedMasters maps the xxhash of each configured master address to the address.
	// Live queries are only sent to these, so the API cannot be used to send datagrams elsewhere.
	allowedMasters map[uint64]string

	// shutdown is closed to stop background cleanup goroutines.
	shutdown chan struct{}

	// limiters holds per client IP rate limiters for live queries.
	limiters map[string]*clientLimiter

	// queryCache keeps recent live query results keyed by master hash.
	queryCache sync.Map

	// authToken is the secret token required by administrative endpoints.
	authToken string

	// limitersMu guards limiters.
	limitersMu sync.Mutex

	// wg tracks background goroutines.
	wg sync.WaitGroup

	// hardLimitCount is the number of live queries allowed per client IP within hardLimitWin.
	hardLimitCount int

	// hardLimitWin is the time window of the hard rate limiter.
	hardLimitWin time.Duration

	// cacheTTL is how long a live query result is served from cache.
	cacheTTL time.Duration

	// trustProxy enables X-Forwarded-For and CF-Connecting-IP for the client address.
	trustProxy bool
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// cachedQuery is one live query result held in queryCache.
type cachedQuery struct {
	at      time.Time
	servers []masterstat.ServerAddress
}

// queryResponse is the body of a successful /api/query call.
type queryResponse struct {
	Master  string                     `json:"master"`
	Servers []masterstat.ServerAddress `json:"servers"`
	Cached  bool                       `json:"cached"`
}
