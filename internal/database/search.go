package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// ConnectSearch opens a rueidis client against the RediSearch backend
// and verifies it with a ping. RESP2 is forced because the FT.SEARCH
// reply parsing expects the flat array format.
func ConnectSearch(ctx context.Context, addr, password string, db int, timeout time.Duration) (rueidis.Client, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{addr},
		Password:     password,
		SelectDB:     db,
		DisableCache: true,
		AlwaysRESP2:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("search connect: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("search ping: %w", err)
	}
	return client, nil
}
