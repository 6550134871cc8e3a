package httpapi

import (
	"database/sql"
	"sync/atomic"

	"jobmarket-engine/internal/config"
	"jobmarket-engine/internal/events"
	"jobmarket-engine/internal/poll"
)

type Deps struct {
	DB *sql.DB

	Hub *events.Hub

	// Atomic store
	CfgVal *atomic.Value // stores config.Config

	// Run entrypoint, status and single-flight guard
	Runs *poll.Service

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)
}
