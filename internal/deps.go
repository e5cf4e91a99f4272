package internal

import (
	"bitwise74/auth-api/aws"
	"bitwise74/auth-api/cloudflare"
	"bitwise74/auth-api/db"
	"bitwise74/auth-api/internal/auth"
	"bitwise74/auth-api/internal/service"
	"bitwise74/auth-api/internal/store"
	"bitwise74/auth-api/pkg/security"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Mount point of the local object storage
const MediaPath = "/media"

type Deps struct {
	DB        *gorm.DB
	Store     *store.Store
	Argon     *security.ArgonHash
	Tokens    *security.TokenIssuer
	Auth      *auth.Service
	MailQueue *service.MailQueue
	Objects   service.ObjectStore
	Avatars   *service.Avatars
	Janitor   *service.Janitor

	// Set when storage.type is local so the router can serve the files
	Local *service.LocalStorage
}

// NewDeps builds every dependency from the loaded configuration
func NewDeps(ctx context.Context) (*Deps, error) {
	d := &Deps{}

	gdb, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}
	d.DB = gdb
	d.Store = store.New(gdb)

	d.Argon = security.New(viper.GetInt64("auth.hash_concurrency"))

	d.Tokens, err = security.NewTokenIssuer(viper.GetString("jwt.secret"), viper.GetString("app.name"))
	if err != nil {
		return nil, err
	}

	var sender service.Deliverer = service.LogSender{}
	if viper.GetBool("mail.enabled") {
		sender, err = service.NewSMTPSender(service.MailConfig{
			Host:     viper.GetString("mail.host"),
			Port:     viper.GetInt("mail.port"),
			Username: viper.GetString("mail.username"),
			Password: viper.GetString("mail.password"),
			From:     viper.GetString("mail.from"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize mail sender, %w", err)
		}
	}

	d.MailQueue = service.NewMailQueue(sender, viper.GetInt("mail.queue_size"), viper.GetInt("mail.workers"), 30*time.Second)

	d.Auth, err = auth.NewService(d.Store, d.Argon, d.Tokens, d.MailQueue, auth.Config{
		AppName:         viper.GetString("app.name"),
		CodeTTL:         viper.GetDuration("auth.code_ttl"),
		MaxAttempts:     viper.GetInt("auth.max_attempts"),
		SessionTTL:      viper.GetDuration("jwt.session_ttl"),
		RememberTTL:     viper.GetDuration("jwt.remember_ttl"),
		ResendCooldown:  viper.GetDuration("auth.resend_cooldown"),
		MaxResends:      viper.GetInt("auth.max_resends"),
		RequireVerified: viper.GetBool("auth.require_verified"),
		UnverifiedTTL:   viper.GetDuration("auth.unverified_ttl"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth service, %w", err)
	}

	d.Objects, err = newObjectStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage, %w", viper.GetString("storage.type"), err)
	}
	if l, ok := d.Objects.(*service.LocalStorage); ok {
		d.Local = l
	}

	d.Avatars = service.NewAvatars(d.Store, d.Objects)

	d.Janitor, err = service.NewJanitor(d.Store, d.Avatars, service.CleanupConfig{
		LedgerSchedule:  viper.GetString("cleanup.ledger_schedule"),
		AccountSchedule: viper.GetString("cleanup.account_schedule"),
	})
	if err != nil {
		return nil, err
	}

	return d, nil
}

func newObjectStore(ctx context.Context) (service.ObjectStore, error) {
	switch viper.GetString("storage.type") {
	case "s3":
		return aws.NewS3(ctx, aws.S3Config{
			AccessKeyID:     viper.GetString("aws.access_key_id"),
			SecretAccessKey: viper.GetString("aws.secret_access_key"),
			Region:          viper.GetString("aws.region"),
			Bucket:          viper.GetString("aws.bucket"),
			Endpoint:        viper.GetString("aws.endpoint"),
			PublicURL:       viper.GetString("aws.public_url"),
		})
	case "r2":
		return cloudflare.NewR2(ctx, cloudflare.R2Config{
			AccountID:       viper.GetString("cloudflare.account_id"),
			AccessKeyID:     viper.GetString("cloudflare.access_key_id"),
			SecretAccessKey: viper.GetString("cloudflare.secret_access_key"),
			Bucket:          viper.GetString("cloudflare.bucket"),
			PublicURL:       viper.GetString("cloudflare.public_url"),
		})
	default:
		return service.NewLocalStorage(viper.GetString("storage.local_path"), publicBase()+MediaPath)
	}
}

func publicBase() string {
	scheme := "http"
	if viper.GetBool("host.ssl.enabled") {
		scheme = "https"
	}

	u := url.URL{Scheme: scheme, Host: fmt.Sprintf("%s:%d", viper.GetString("host.domain"), viper.GetInt("host.port"))}
	return u.String()
}

// Start launches the background workers
func (d *Deps) Start() {
	d.MailQueue.StartWorkerPool()
	d.Janitor.Start()
}

// Close stops the background workers and closes the database
func (d *Deps) Close() {
	d.Janitor.Stop()
	d.MailQueue.Close()

	if sqlDB, err := d.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			zap.L().Error("Failed to close database", zap.Error(err))
		}
	}
}
