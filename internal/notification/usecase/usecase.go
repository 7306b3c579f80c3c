package usecase

import (
	"bytes"
	"context"
	"html/template"

	"github.com/verifeed/accounts/internal/pkg/clock"
	"github.com/verifeed/accounts/internal/pkg/config"
	"github.com/verifeed/accounts/internal/pkg/instrument"
	"github.com/verifeed/accounts/internal/pkg/mail"
	"github.com/verifeed/accounts/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type Usecase struct {
	cfg       config.Config
	clock     clock.Clocker
	validator validator.Validator
	repoMail  repoMail
	ins       instrument.Instrumentation
}

type Dependency struct {
	Config     config.Config
	Clock      clock.Clocker
	Validator  validator.Validator
	RepoMail   repoMail
	Instrument instrument.Instrumentation
}

func NewNotification(dep Dependency) *Usecase {
	return &Usecase{
		cfg:       dep.Config,
		clock:     dep.Clock,
		validator: dep.Validator,
		repoMail:  dep.RepoMail,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

func (s *Usecase) renderTemplate(name, tpl string, data map[string]any) (string, error) {
	t, err := template.New(name).Option("missingkey=zero").Parse(tpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *Usecase) baseEmailTemplateData() map[string]any {
	return map[string]any{
		"support_email": s.cfg.GetString("modules.notification.support_email"),
		"company_name":  "VeriFeed",
		"year":          s.clock.Now().Format("2006"),
	}
}
