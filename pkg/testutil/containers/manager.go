//go:build integration

// Package containers starts throwaway backing services for integration tests.
// Containers are shared by every suite in a test binary; Ryuk removes them when
// the binary exits, so suites must not terminate them.
package containers

import "sync"

// Manager owns the shared containers of one test binary.
type Manager struct {
	redisOnce sync.Once
	redis     *RedisContainer
	redisErr  error

	postgresOnce sync.Once
	postgres     *PostgresContainer
	postgresErr  error
}

var (
	manager     *Manager
	managerOnce sync.Once
)

// GetManager returns the process-wide container manager.
func GetManager() *Manager {
	managerOnce.Do(func() {
		manager = &Manager{}
	})
	return manager
}
