package app

import (
	"log/slog"
	"os"

	"github.com/verifeed/accounts/internal/auth"
	"github.com/verifeed/accounts/internal/notification"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.auth.enabled") {
		if err := auth.New(auth.Dependency{
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			UUID:        a.uuid,
			OID:         a.oid,
			Password:    a.password,
			HMAC:        a.hmac,
			OtpCode:     a.otpCode,
			Clock:       a.clock,
			Validator:   a.validator,
			Router:      a.router,
			DBConn:      a.dbConn,
			CacheConn:   a.cacheConn,
			Idempotency: a.idemp,
			Messaging:   a.messaging,
			Storage:     a.storage,
			Mail:        a.mail,
			Goroutine:   a.goroutine,
			JWT:         a.jwt,
		}); err != nil {
			slog.Error("failed to init module auth", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:        a.ctx,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UUID:       a.uuid,
			Clock:      a.clock,
			Goroutine:  a.goroutine,
			Validator:  a.validator,
			Mail:       a.mail,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}
}
