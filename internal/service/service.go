package service

import (
	"time"

	"github.com/Shido75/Spectrasynth-CRM/internal/mail"
	"github.com/Shido75/Spectrasynth-CRM/internal/repository"
	"github.com/Shido75/Spectrasynth-CRM/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services aggregates all application services.
type Services struct {
	Inquiry   *InquiryService
	Quotation *QuotationService
	Revision  *RevisionService
	Product   *ProductService
	PO        *POService
	Auth      *AuthService
}

// Options carries the cross-cutting collaborators services share.
type Options struct {
	DB            *gorm.DB
	Repos         *repository.Repositories
	Renderer      DocumentRenderer
	Mailer        *mail.Mailer
	Artifacts     *storage.ArtifactStore
	Redis         *redis.Client
	Logger        *zap.Logger
	UploadRoot    string
	RenderTimeout time.Duration
	JWTSecret     string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func NewServices(opts Options) *Services {
	return &Services{
		Inquiry: NewInquiryService(opts.Repos.Inquiry, opts.Repos.Quotation, opts.Logger),
		Quotation: NewQuotationService(
			opts.Repos.Quotation, opts.Repos.Inquiry, opts.Repos.Revision,
			opts.Renderer, opts.Mailer, opts.Artifacts,
			opts.Logger, opts.UploadRoot, opts.RenderTimeout,
		),
		Revision: NewRevisionService(
			opts.Repos.Quotation, opts.Repos.Revision,
			opts.Renderer, opts.Artifacts, opts.DB, opts.Logger, opts.RenderTimeout,
		),
		Product: NewProductService(opts.Repos.Product, opts.Logger),
		PO:      NewPOService(opts.Repos.PO, opts.DB, opts.Logger),
		Auth: NewAuthService(
			opts.Repos.User, opts.Repos.Permission, opts.Redis,
			opts.Logger, opts.JWTSecret, opts.AccessTTL, opts.RefreshTTL,
		),
	}
}
