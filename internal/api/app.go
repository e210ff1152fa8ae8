package api

import (
	"time"

	"github.com/richdownie/healthme/internal"
	"github.com/richdownie/healthme/internal/analysis"
	"github.com/richdownie/healthme/internal/service"
	"github.com/richdownie/healthme/internal/storage"
)

type App interface {
	Logger() internal.Logger
	ActivityRepo() storage.ActivityRepository
	UserRepo() storage.UserRepository
	Gateway() analysis.Gateway
	Sessions() service.DismissalStore
	Now() time.Time
}

// Deps wires an App. Gateway defaults to analysis.Disabled and Clock to time.Now.
type Deps struct {
	Logger   internal.Logger
	Store    storage.Store
	Gateway  analysis.Gateway
	Sessions service.DismissalStore
	Clock    func() time.Time
}

type app struct {
	deps Deps
}

func NewApp(d Deps) App {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Gateway == nil {
		d.Gateway = analysis.Disabled{}
	}
	return &app{deps: d}
}

func (a *app) Logger() internal.Logger                  { return a.deps.Logger }
func (a *app) ActivityRepo() storage.ActivityRepository { return a.deps.Store }
func (a *app) UserRepo() storage.UserRepository         { return a.deps.Store }
func (a *app) Gateway() analysis.Gateway                { return a.deps.Gateway }
func (a *app) Sessions() service.DismissalStore         { return a.deps.Sessions }
func (a *app) Now() time.Time                           { return a.deps.Clock() }
