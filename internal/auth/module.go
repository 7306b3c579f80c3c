package auth

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/verifeed/accounts/internal/auth/inbound"
	"github.com/verifeed/accounts/internal/auth/outbound/db"
	authmail "github.com/verifeed/accounts/internal/auth/outbound/mail"
	"github.com/verifeed/accounts/internal/auth/outbound/mq"
	"github.com/verifeed/accounts/internal/auth/usecase"
	"github.com/verifeed/accounts/internal/pkg/clock"
	"github.com/verifeed/accounts/internal/pkg/config"
	"github.com/verifeed/accounts/internal/pkg/goroutine"
	"github.com/verifeed/accounts/internal/pkg/hash"
	"github.com/verifeed/accounts/internal/pkg/idempotency"
	"github.com/verifeed/accounts/internal/pkg/instrument"
	"github.com/verifeed/accounts/internal/pkg/jwt"
	"github.com/verifeed/accounts/internal/pkg/mail"
	"github.com/verifeed/accounts/internal/pkg/messaging"
	"github.com/verifeed/accounts/internal/pkg/otpcode"
	"github.com/verifeed/accounts/internal/pkg/router"
	"github.com/verifeed/accounts/internal/pkg/storage"
	"github.com/verifeed/accounts/internal/pkg/uid"
	"github.com/verifeed/accounts/internal/pkg/validator"
)

type Dependency struct {
	DBConn      *pgxpool.Pool              `validate:"required"`
	CacheConn   *redis.Client              `validate:"required"`
	Goroutine   *goroutine.Manager         `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Messaging   messaging.Messaging        `validate:"required"`
	Storage     storage.Storage            `validate:"required"`
	Mail        mail.Mail                  `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	UUID        uid.StringID               `validate:"required"`
	OID         uid.StringID               `validate:"required"`
	HMAC        hash.Hash                  `validate:"required"`
	Password    hash.Hash                  `validate:"required"`
	OtpCode     otpcode.Generator          `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
	JWT         jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbAuth := db.NewDB(dep.DBConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)
	repoMail := authmail.New(dep.Mail, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        dbAuth,
		RepoMessaging: repoMsg,
		RepoMail:      repoMail,
		Idempotency:   dep.Idempotency,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Storage:       dep.Storage,
		HMAC:          dep.HMAC,
		Password:      dep.Password,
		OtpCode:       dep.OtpCode,
		UID:           dep.UID,
		UUID:          dep.UUID,
		OID:           dep.OID,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
