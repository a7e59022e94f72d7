package masterstat

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/masterstat/pkg/udp"
	"golang.org/x/sync/errgroup"
)

// DefaultMasters are well known public QuakeWorld master servers.
var DefaultMasters = []string{
	"master.quakeworld.nu:27000",
	"master.quakeservers.net:27000",
	"qwmaster.ocrete.ca:27000",
	"qwmaster.fodquake.net:27000",
}

// MasterResult describes the outcome of one master query inside a fan-out.
type MasterResult struct {
	Err      error
	Master   string
	Servers  int
	Duration time.Duration
}

// Client queries master servers. The zero value is ready to use and
// behaves like the package level functions.
type Client struct {
	// OnResult, when set, is called once per master during ServerAddressesFromMany.
	// It may be called from several goroutines at once.
	OnResult func(MasterResult)

	// Timeout bounds the wait for a reply. Zero waits forever.
	Timeout time.Duration

	// BufferSize is the maximum accepted reply size, udp.DefaultBufferSize when zero.
	BufferSize int

	// Concurrency limits the number of masters queried at once. Zero or less means no limit.
	Concurrency int
}

// ServerAddresses returns the sorted, unique server list of a single master.
func ServerAddresses(masterAddress string, timeout time.Duration) ([]ServerAddress, error) {
	c := Client{Timeout: timeout}
	return c.ServerAddresses(masterAddress)
}

// ServerAddressesFromMany queries all masters concurrently and merges their lists.
// Masters that fail contribute nothing; the call itself never fails.
func ServerAddressesFromMany(masterAddresses []string, timeout time.Duration) []ServerAddress {
	c := Client{Timeout: timeout}
	return c.ServerAddressesFromMany(masterAddresses)
}

// ServerAddresses returns the sorted, unique server list of a single master.
// Errors are *udp.ConnectivityError or ErrInvalidResponse.
func (c *Client) ServerAddresses(masterAddress string) ([]ServerAddress, error) {
	response, err := udp.Exchange(masterAddress, serversCommand, c.Timeout, c.BufferSize)
	if err != nil {
		return nil, err
	}

	servers, err := ParseServersResponse(response)
	if err != nil {
		return nil, err
	}

	return SortAndDeduplicate(servers), nil
}

// ServerAddressesFromMany queries all masters concurrently and merges their lists.
func (c *Client) ServerAddressesFromMany(masterAddresses []string) []ServerAddress {
	var (
		mu     sync.Mutex
		result []ServerAddress
		group  errgroup.Group
	)

	if c.Concurrency > 0 {
		group.SetLimit(c.Concurrency)
	}

	for _, master := range masterAddresses {
		master := master
		group.Go(func() error {
			start := time.Now()
			servers, err := c.ServerAddresses(master)
			c.report(MasterResult{
				Master:   master,
				Servers:  len(servers),
				Duration: time.Since(start),
				Err:      err,
			})
			if err != nil {
				log.Trace().Err(err).Str("master", master).Msg("Master query failed, skipping")
				return nil
			}

			mu.Lock()
			result = append(result, servers...)
			mu.Unlock()

			return nil
		})
	}

	_ = group.Wait()

	return SortAndDeduplicate(result)
}

func (c *Client) report(r MasterResult) {
	if c.OnResult != nil {
		c.OnResult(r)
	}
}
