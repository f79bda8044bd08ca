package orders

import (
	"context"
	"strings"

	"github.com/angelmondragon/orderdesk-backend/internal/taxengine"
	"github.com/angelmondragon/orderdesk-backend/pkg/cache"
	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
	"github.com/angelmondragon/orderdesk-backend/pkg/upstream"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// AddItemInput selects a catalog entry to append to a draft.
type AddItemInput struct {
	ProductID      string          `json:"productId" validate:"required"`
	VariantID      string          `json:"variantId,omitempty"`
	AddonIDs       []string        `json:"addonIds,omitempty"`
	Quantity       int             `json:"quantity"`
	WeightQuantity decimal.Decimal `json:"weightQuantity"`
	WeightUnit     string          `json:"weightUnit,omitempty"`
}

// catalogPrice is the price block shared by products and variants.
type catalogPrice struct {
	Price             decimal.Decimal
	PriceExcludingTax decimal.Decimal
	PriceIncludingTax decimal.Decimal
	TaxPercentage     decimal.Decimal
}

func productPrice(p upstream.Product) catalogPrice {
	return catalogPrice{
		Price:             p.Price.Decimal,
		PriceExcludingTax: p.PriceExcludingTax.Decimal,
		PriceIncludingTax: p.PriceIncludingTax.Decimal,
		TaxPercentage:     p.TaxPercentage.Decimal,
	}
}

func variantPrice(v upstream.Variant, fallback catalogPrice) catalogPrice {
	out := catalogPrice{
		Price:             v.Price.Decimal,
		PriceExcludingTax: v.PriceExcludingTax.Decimal,
		PriceIncludingTax: v.PriceIncludingTax.Decimal,
		TaxPercentage:     v.TaxPercentage.Decimal,
	}
	if out.TaxPercentage.IsZero() {
		out.TaxPercentage = fallback.TaxPercentage
	}
	return out
}

// applyPrice sets the per-unit price fields of item from the catalog. Missing
// members of the tax triangle are derived from the ones present.
func applyPrice(item *taxengine.LineItem, p catalogPrice) {
	item.Price = p.Price
	item.TaxPercentage = p.TaxPercentage
	item.PriceExcludingTax = p.PriceExcludingTax
	item.PriceIncludingTax = p.PriceIncludingTax
	item.TaxAmount = decimal.Zero

	excl, incl, pct := p.PriceExcludingTax, p.PriceIncludingTax, p.TaxPercentage
	switch {
	case excl.IsPositive() && incl.IsPositive():
		item.TaxAmount = taxengine.Round2(incl.Sub(excl))
	case excl.IsPositive() && pct.IsPositive():
		item.TaxAmount = taxengine.Round2(excl.Mul(pct).Div(decimal.NewFromInt(100)))
		item.PriceIncludingTax = taxengine.Round2(excl.Add(item.TaxAmount))
	}
	if item.Price.IsZero() {
		item.Price = lo.Ternary(excl.IsPositive(), excl, incl)
	}
}

// applyWeightPrice prices a weight-based item per gram. The per-gram tax
// triangle stays unrounded; only the line total is rounded.
func applyWeightPrice(item *taxengine.LineItem, product upstream.Product) {
	perUnit := product.PricePerUnit.Decimal
	if perUnit.IsZero() {
		perUnit = product.Price.Decimal
	}
	perGram := taxengine.PricePerGram(perUnit, product.BaseWeightUnit)
	pct := product.TaxPercentage.Decimal
	item.Price = perGram
	item.PriceExcludingTax = perGram
	item.TaxPercentage = pct
	item.TaxAmount = decimal.Zero
	item.PriceIncludingTax = decimal.Zero
	if perGram.IsPositive() && pct.IsPositive() {
		item.TaxAmount = perGram.Mul(pct).Div(decimal.NewFromInt(100))
		item.PriceIncludingTax = perGram.Add(item.TaxAmount)
	}
}

func (s *service) catalog(ctx context.Context) ([]upstream.Product, error) {
	key := s.cacheKey(cache.PrefixCatalog, "all")
	return cache.GetOrLoad(ctx, s.cache, key, s.cfg.CatalogTTL, func(ctx context.Context) ([]upstream.Product, error) {
		return s.upstream.ListProducts(ctx, "")
	})
}

func (s *service) variants(ctx context.Context, productID string) ([]upstream.Variant, error) {
	key := s.cacheKey(cache.PrefixVariants, productID)
	return cache.GetOrLoad(ctx, s.cache, key, s.cfg.CatalogTTL, func(ctx context.Context) ([]upstream.Variant, error) {
		return s.upstream.ListVariants(ctx, productID)
	})
}

func (s *service) addons(ctx context.Context, productID string) ([]upstream.ProductAddon, error) {
	key := s.cacheKey(cache.PrefixAddons, productID)
	return cache.GetOrLoad(ctx, s.cache, key, s.cfg.CatalogTTL, func(ctx context.Context) ([]upstream.ProductAddon, error) {
		return s.upstream.ListAddons(ctx, productID)
	})
}

func (s *service) findProduct(ctx context.Context, productID string) (upstream.Product, error) {
	products, err := s.catalog(ctx)
	if err != nil {
		return upstream.Product{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog")
	}
	product, ok := findProductIn(products, productID)
	if !ok && s.cache != nil {
		// cached catalog may predate the product
		s.cache.Invalidate(ctx, s.cacheKey(cache.PrefixCatalog, "all"))
		if products, err = s.catalog(ctx); err != nil {
			return upstream.Product{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog")
		}
		product, ok = findProductIn(products, productID)
	}
	if !ok {
		return upstream.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) findVariant(ctx context.Context, productID, variantID string) (upstream.Variant, error) {
	variants, err := s.variants(ctx, productID)
	if err != nil {
		return upstream.Variant{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variants")
	}
	variant, ok := lo.Find(variants, func(v upstream.Variant) bool { return v.ID == variantID })
	if !ok {
		return upstream.Variant{}, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}
	return variant, nil
}

// buildItem turns a catalog selection into a priced line item.
func (s *service) buildItem(ctx context.Context, input AddItemInput) (taxengine.LineItem, error) {
	productID := strings.TrimSpace(input.ProductID)
	if productID == "" {
		return taxengine.LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return taxengine.LineItem{}, err
	}

	item := taxengine.LineItem{
		ID:                 taxengine.NewItemID(s.now()),
		ProductID:          product.ID,
		ProductName:        product.Name,
		ProductDescription: product.Description,
		SKU:                product.SKU,
		HSCode:             product.HSCode,
		UOM:                product.UOM,
		SaleType:           product.SaleType,
		Quantity:           max(input.Quantity, 1),
		Addons:             []taxengine.Addon{},
	}

	if bool(product.IsWeightBased) {
		item.IsWeightBased = true
		item.WeightUnit = taxengine.NormalizeWeightUnit(input.WeightUnit)
		item.WeightQuantity = taxengine.ToGrams(input.WeightQuantity, item.WeightUnit)
		if !item.WeightQuantity.IsPositive() {
			return taxengine.LineItem{}, pkgerrors.New(pkgerrors.CodeValidation, "weight must be greater than zero").
				WithDetails(map[string]any{"field": "weightQuantity"})
		}
		item.Quantity = 1
		applyWeightPrice(&item, product)
	} else {
		price := productPrice(product)
		if variantID := strings.TrimSpace(input.VariantID); variantID != "" {
			variant, err := s.findVariant(ctx, product.ID, variantID)
			if err != nil {
				return taxengine.LineItem{}, err
			}
			item.VariantID = variant.ID
			item.VariantTitle = variant.Title
			if variant.SKU != "" {
				item.SKU = variant.SKU
			}
			price = variantPrice(variant, price)
		}
		applyPrice(&item, price)
	}

	if len(input.AddonIDs) > 0 {
		offered, err := s.addons(ctx, product.ID)
		if err != nil {
			return taxengine.LineItem{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load addons")
		}
		for _, id := range lo.Uniq(input.AddonIDs) {
			addon, ok := lo.Find(offered, func(a upstream.ProductAddon) bool { return a.ID == id })
			if !ok {
				return taxengine.LineItem{}, pkgerrors.New(pkgerrors.CodeNotFound, "addon not found").
					WithDetails(map[string]any{"addonId": id})
			}
			item.Addons = append(item.Addons, taxengine.Addon{
				AddonID:    addon.ID,
				AddonTitle: addon.Title,
				Price:      addon.Price.Decimal,
				Quantity:   1,
			})
		}
	}

	return taxengine.RecomputeTotal(item), nil
}

// reprice refreshes the catalog price of an existing item, keeping its
// quantity, weight, addons and descriptive fields.
func (s *service) reprice(ctx context.Context, item taxengine.LineItem, products []upstream.Product) (taxengine.LineItem, error) {
	product, ok := findProductIn(products, item.ProductID)
	if !ok {
		return item, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	out := item.Clone()
	if out.IsWeightBased {
		applyWeightPrice(&out, product)
		return taxengine.RecomputeTotal(out), nil
	}

	price := productPrice(product)
	if out.VariantID != "" {
		variant, err := s.findVariant(ctx, product.ID, out.VariantID)
		if err != nil {
			return item, err
		}
		price = variantPrice(variant, price)
	}
	applyPrice(&out, price)
	return taxengine.RecomputeTotal(out), nil
}

func (s *service) cacheKey(kind string, parts ...string) string {
	if s.cache == nil {
		return ""
	}
	return s.cache.Key(kind, parts...)
}
