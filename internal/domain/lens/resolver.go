// internal/domain/lens/resolver.go
package lens

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/eyewear-backend/internal/config"
	"golang.org/x/sync/singleflight"
)

// ErrConfigUnavailable marks a lens option lookup that failed and was recovered locally
var ErrConfigUnavailable = errors.New("lens configuration unavailable")

// CategoryConfigProvider returns the seller override for the product's store category.
// A nil config with a nil error means the category has no override.
type CategoryConfigProvider interface {
	GetCategoryLensConfig(ctx context.Context, productID uint) (*CategoryLensConfig, error)
}

// GlobalOptionsProvider returns every active option of the product's store
type GlobalOptionsProvider interface {
	GetGlobalLensOptions(ctx context.Context, productID uint) (*Options, error)
}

// PrescriptionOptionsProvider returns allowed prescription values for a product, or nil
type PrescriptionOptionsProvider interface {
	GetPrescriptionOptions(ctx context.Context, productID uint) (*PrescriptionOptions, error)
}

// VariantProvider returns the active variants of a progressive lens type
type VariantProvider interface {
	GetProgressiveVariants(ctx context.Context, lensTypeID uint) ([]ProgressiveVariant, error)
}

// Catalog is everything the resolver and the wizard read from the lens catalog
type Catalog interface {
	CategoryConfigProvider
	GlobalOptionsProvider
	PrescriptionOptionsProvider
	VariantProvider
}

// ConfigResolver resolves the effective lens configuration of a product
type ConfigResolver interface {
	Resolve(ctx context.Context, productID uint) (*ResolvedConfig, error)
}

// Resolver applies the category override / store-wide fallback policy
type Resolver struct {
	catalog       Catalog
	logger        logrus.FieldLogger
	timeout       time.Duration
	fallbackIndex decimal.Decimal
	group         singleflight.Group
}

// NewResolver creates a new resolver
func NewResolver(catalog Catalog, logger logrus.FieldLogger, cfg config.LensConfig) *Resolver {
	return &Resolver{
		catalog:       catalog,
		logger:        logger,
		timeout:       cfg.ResolverTimeout,
		fallbackIndex: cfg.FallbackIndex,
	}
}

// Resolve returns one consistent option tuple for the product.
// Lookup failures degrade to store-wide or built-in options; the only error is ctx cancellation.
// Concurrent calls for the same product share a single resolution.
func (r *Resolver) Resolve(ctx context.Context, productID uint) (*ResolvedConfig, error) {
	key := strconv.FormatUint(uint64(productID), 10)

	ch := r.group.DoChan(key, func() (interface{}, error) {
		resolveCtx := context.WithoutCancel(ctx)
		if r.timeout > 0 {
			var cancel context.CancelFunc
			resolveCtx, cancel = context.WithTimeout(resolveCtx, r.timeout)
			defer cancel()
		}
		return r.resolve(resolveCtx, productID), nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*ResolvedConfig).Clone(), nil
	}
}

func (r *Resolver) resolve(ctx context.Context, productID uint) *ResolvedConfig {
	log := r.logger.WithField("product_id", productID)

	resolved := &ResolvedConfig{
		ProductID: productID,
		Sources:   make(map[OptionKind]Source, len(OptionKinds)),
	}

	categoryCfg, err := r.catalog.GetCategoryLensConfig(ctx, productID)
	if err != nil {
		categoryCfg = nil
		resolved.Degraded = true
		log.WithError(fmt.Errorf("%w: %v", ErrConfigUnavailable, err)).
			WithField("kind", "category").
			Warn("Category lens config lookup failed, falling back to store options")
	}

	var categoryOpts *Options
	if categoryCfg != nil {
		categoryOpts = &categoryCfg.Options
	}

	// Store-wide options are only needed when some kind has no override
	var globalOpts *Options
	for _, kind := range OptionKinds {
		if categoryOpts.Len(kind) > 0 {
			continue
		}
		globalOpts, err = r.catalog.GetGlobalLensOptions(ctx, productID)
		if err != nil {
			globalOpts = nil
			resolved.Degraded = true
			log.WithError(fmt.Errorf("%w: %v", ErrConfigUnavailable, err)).
				WithField("kind", "global").
				Warn("Store lens options lookup failed, using built-in defaults")
		}
		break
	}

	// Each kind comes wholly from the category or wholly from the store
	for _, kind := range OptionKinds {
		switch {
		case categoryOpts.Len(kind) > 0:
			resolved.Options.take(kind, categoryOpts)
			resolved.Sources[kind] = SourceCategory
		case globalOpts != nil:
			resolved.Options.take(kind, globalOpts)
			resolved.Sources[kind] = SourceGlobal
		default:
			resolved.Sources[kind] = SourceDefault
		}
	}

	resolved.LensTypes = activeLensTypes(resolved.LensTypes)
	if len(resolved.LensTypes) == 0 {
		resolved.Sources[KindLensType] = SourceDefault
	}
	resolved.LensTypes = r.padLensTypes(resolved.LensTypes)

	resolved.PrescriptionOptions = r.resolvePrescriptionOptions(ctx, log, productID, categoryCfg, resolved)

	resolved.Source = SourceDefault
	for _, kind := range OptionKinds {
		if resolved.Sources[kind] == SourceCategory {
			resolved.Source = SourceCategory
			break
		}
		if resolved.Sources[kind] == SourceGlobal {
			resolved.Source = SourceGlobal
		}
	}

	return resolved
}

func (r *Resolver) resolvePrescriptionOptions(ctx context.Context, log logrus.FieldLogger, productID uint, categoryCfg *CategoryLensConfig, resolved *ResolvedConfig) PrescriptionOptions {
	defaults := DefaultPrescriptionOptions()

	if categoryCfg != nil && !categoryCfg.PrescriptionOptions.IsEmpty() {
		return categoryCfg.PrescriptionOptions.Clone().withDefaults(defaults)
	}

	opts, err := r.catalog.GetPrescriptionOptions(ctx, productID)
	if err != nil {
		resolved.Degraded = true
		log.WithError(fmt.Errorf("%w: %v", ErrConfigUnavailable, err)).
			WithField("kind", "prescription").
			Warn("Prescription options lookup failed, using default ranges")
		return defaults
	}
	if opts.IsEmpty() {
		return defaults
	}
	return opts.Clone().withDefaults(defaults)
}

// padLensTypes guarantees Distance, Near and Progressive choices when fewer than
// three prescription lens types were found
func (r *Resolver) padLensTypes(types []LensType) []LensType {
	prescriptionTypes := 0
	for i := range types {
		if types[i].Category().NeedsPrescription() {
			prescriptionTypes++
		}
	}
	if prescriptionTypes >= 3 {
		return types
	}

	for _, fallback := range FallbackLensTypes(r.fallbackIndex) {
		if !containsLensType(types, fallback) {
			types = append(types, fallback)
		}
	}
	return types
}

func activeLensTypes(types []LensType) []LensType {
	active := types[:0]
	for _, t := range types {
		if t.IsActive {
			active = append(active, t)
		}
	}
	return active
}

func containsLensType(types []LensType, target LensType) bool {
	for _, t := range types {
		if strings.EqualFold(t.Slug, target.Slug) || strings.EqualFold(t.Name, target.Name) {
			return true
		}
	}
	return false
}
