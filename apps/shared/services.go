// Package shared wires the services common to the API server and the admin CLI.
package shared

import (
	"github.com/pkg/errors"

	"github.com/studytrack/studytrack/assets"
	"github.com/studytrack/studytrack/core"
	"github.com/studytrack/studytrack/core/account"
	"github.com/studytrack/studytrack/core/catalog"
	"github.com/studytrack/studytrack/core/dashboard"
	"github.com/studytrack/studytrack/core/onboarding"
	"github.com/studytrack/studytrack/core/student"
	emailsvc "github.com/studytrack/studytrack/services/email"
	"github.com/studytrack/studytrack/storage/strapi"
)

type Services struct {
	CMS       *strapi.Client
	Account   *account.Service
	Catalog   *catalog.Service
	Student   *student.Service
	Dashboard *dashboard.Service
	Resolver  *onboarding.Resolver
}

// NewServices builds every service on top of the CMS configured in conf.
func NewServices(conf *core.Config, logger core.Logger, mailSvc core.EmailService) *Services {
	cms := strapi.NewClient(conf.CMS)
	catalogSvc := catalog.NewService(strapi.NewCatalogRepository(cms))

	studentSvc := student.NewService(strapi.NewStudentRepository(cms).Repositories(), catalogSvc, nil, mailSvc)
	resolver := onboarding.NewResolver(studentSvc, conf.ResolverCacheTTL, logger)
	studentSvc.SetObserver(resolver)

	return &Services{
		CMS:       cms,
		Account:   account.NewService(strapi.NewAccountGateway(cms), conf),
		Catalog:   catalogSvc,
		Student:   studentSvc,
		Dashboard: dashboard.NewService(studentSvc, conf.TimeZone),
		Resolver:  resolver,
	}
}

// NewEmailService prints emails in debug mode and sends them through SendGrid otherwise.
func NewEmailService(conf *core.Config, logger core.Logger) (core.EmailService, error) {
	tmpls, err := core.ParseEmailTemplates(assets.EmailTemplates(), conf, conf.Debug)
	if err != nil {
		return nil, errors.Wrap(err, "parsing email templates")
	}
	if conf.Debug {
		return emailsvc.NewConsoleService(tmpls, conf), nil
	}
	return emailsvc.NewSendgridService(tmpls, conf, logger), nil
}
