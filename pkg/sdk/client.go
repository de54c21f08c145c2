package lostfound

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/lostfound/internal/db"
	dbRedis "github.com/kailas-cloud/lostfound/internal/db/redis"
	"github.com/kailas-cloud/lostfound/internal/domain"
	domitem "github.com/kailas-cloud/lostfound/internal/domain/item"
	"github.com/kailas-cloud/lostfound/internal/domain/similarity"
	domuser "github.com/kailas-cloud/lostfound/internal/domain/user"
	"github.com/kailas-cloud/lostfound/internal/imagecodec"
	"github.com/kailas-cloud/lostfound/internal/metrics"
	budgetrepo "github.com/kailas-cloud/lostfound/internal/repository/budget"
	imagerepo "github.com/kailas-cloud/lostfound/internal/repository/image"
	itemrepo "github.com/kailas-cloud/lostfound/internal/repository/item"
	"github.com/kailas-cloud/lostfound/internal/repository/scorecache"
	userrepo "github.com/kailas-cloud/lostfound/internal/repository/user"
	openaiTransport "github.com/kailas-cloud/lostfound/internal/transport/openai"
	healthuc "github.com/kailas-cloud/lostfound/internal/usecase/health"
	"github.com/kailas-cloud/lostfound/internal/usecase/imagesearch"
	itemuc "github.com/kailas-cloud/lostfound/internal/usecase/item"
	usageuc "github.com/kailas-cloud/lostfound/internal/usecase/usage"
	useruc "github.com/kailas-cloud/lostfound/internal/usecase/user"
	"github.com/kailas-cloud/lostfound/internal/usecase/vision"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultPublicBaseURL    = "http://localhost:8080"
	// DefaultMaxImageBytes caps photos read from caller-supplied readers.
	DefaultMaxImageBytes = 10 << 20
)

// Internal interfaces for substitution in tests.
type itemUseCase interface {
	Report(ctx context.Context, actor string, d domitem.Draft, image *imagecodec.Blob) (domitem.Item, error)
	Get(ctx context.Context, id string) (domitem.Item, error)
	List(ctx context.Context, f domitem.Filter) (itemuc.Page, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domitem.Item, error)
	Update(ctx context.Context, actor, id string, p domitem.Patch, image *imagecodec.Blob) (domitem.Item, error)
	SetStatus(ctx context.Context, actor, id, status string) (domitem.Item, error)
	Delete(ctx context.Context, actor, id string) error
}

type userUseCase interface {
	Register(ctx context.Context, email, username string) (domuser.User, error)
	Get(ctx context.Context, id string) (domuser.User, error)
	GetByEmail(ctx context.Context, email string) (domuser.User, error)
}

type searchUseCase interface {
	Search(ctx context.Context, image io.Reader) ([]similarity.Result, error)
}

// Client is the lostfound SDK entry point.
type Client struct {
	store     db.Store
	itemSvc   itemUseCase
	userSvc   userUseCase
	searchSvc searchUseCase // nil without a vision provider
	healthSvc healthUseCase
	usageSvc  usageUseCase
	obs       *observer
}

// New creates a Client, connects to Redis and makes sure the item index exists.
// The provided context is used for the readiness check and index creation.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{publicBaseURL: defaultPublicBaseURL}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("lostfound: database address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
		DB:       cfg.db,
	})
	if err != nil {
		return nil, fmt.Errorf("lostfound: create redis store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("lostfound: database not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}

	c, err := wireClient(ctx, store, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func wireClient(ctx context.Context, store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	// Internal services log through zap; SDK callers see slog via the observer.
	nop := zap.NewNop()

	items := itemrepo.New(store)
	if err := items.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("lostfound: ensure item index: %w", err)
	}
	images := imagerepo.NewStore(store, cfg.publicBaseURL)

	userSvc := useruc.New(userrepo.New(store))
	itemSvc := itemuc.New(items, images, userSvc)

	var budget *vision.BudgetTracker
	if cfg.dailyTokens > 0 || cfg.monthlyTokens > 0 {
		action := vision.BudgetActionWarn
		if cfg.rejectOverrun {
			action = vision.BudgetActionReject
		}
		budget = vision.NewBudgetTracker(cfg.dailyTokens, cfg.monthlyTokens, action, nop).
			WithStore(ctx, budgetrepo.New(store, 0, 0))
	}

	c := &Client{
		store:   store,
		itemSvc: itemSvc,
		userSvc: userSvc,
		obs:     obs,
	}

	var visionChecker healthuc.VisionChecker
	if cfg.apiKey != "" {
		base := openaiTransport.NewComparator(&openaiTransport.Config{
			APIKey:      cfg.apiKey,
			BaseURL:     cfg.baseURL,
			Model:       cfg.model,
			ImageDetail: cfg.imageDetail,
			Logger:      nop,
		})
		visionChecker = base

		var comparator domain.Comparator = base
		if cfg.inline {
			comparator = vision.NewInliningComparator(comparator, images)
		}
		if cfg.cacheTTL > 0 {
			comparator = scorecache.New(comparator, store, cfg.cacheTTL, metrics.VisionCacheTotal, nop)
		}
		// Pass a nil interface, not a typed nil pointer, when no budget is set.
		var checker vision.BudgetChecker
		if budget != nil {
			checker = budget
		}
		comparator = vision.NewInstrumentedComparator(comparator, base.Model(), checker, nop)

		search := imagesearch.New(items, comparator, nop)
		if cfg.batchSize > 0 {
			search = search.WithBatchSize(cfg.batchSize)
		}
		c.searchSvc = search
	}

	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetReader = budget
	}
	c.usageSvc = usageuc.New(budgetReader)
	c.healthSvc = healthuc.New(store, visionChecker).WithCatalog(items)
	return c, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Items returns the item catalog service.
func (c *Client) Items() *ItemService {
	return &ItemService{svc: c.itemSvc, obs: c.obs}
}

// Users returns the user directory service.
func (c *Client) Users() *UserService {
	return &UserService{svc: c.userSvc, obs: c.obs}
}

// readImage reads a caller-supplied photo. A nil reader means no photo.
func readImage(r io.Reader) (*imagecodec.Blob, error) {
	if r == nil {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, DefaultMaxImageBytes+1))
	if err != nil {
		return nil, domain.NewEncodingError(fmt.Errorf("read image: %w", err))
	}
	if len(data) > DefaultMaxImageBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", domain.ErrInvalidInput, DefaultMaxImageBytes)
	}
	return &imagecodec.Blob{Data: data, ContentType: imagecodec.Sniff(data)}, nil
}
