package orders

import (
	"context"
	"fmt"

	"github.com/angelmondragon/orderdesk-backend/pkg/cache"
	"github.com/angelmondragon/orderdesk-backend/pkg/upstream"
)

func (s *service) loyaltySettings(ctx context.Context) (*upstream.LoyaltySettings, error) {
	return cache.GetOrLoad(ctx, s.cache, s.cacheKey(cache.PrefixSettings, "loyalty"), s.cfg.SettingsTTL, s.upstream.GetLoyaltySettings)
}

func (s *service) fbrSettings(ctx context.Context) (*upstream.FBRSettings, error) {
	return cache.GetOrLoad(ctx, s.cache, s.cacheKey(cache.PrefixSettings, "fbr"), s.cfg.SettingsTTL, s.upstream.GetFBRSettings)
}

func (s *service) sellerInfo(ctx context.Context) (*upstream.SellerInfo, error) {
	return cache.GetOrLoad(ctx, s.cache, s.cacheKey(cache.PrefixSeller), s.cfg.SettingsTTL, s.upstream.GetSellerInfo)
}

// sellerOrEmpty degrades to an empty seller block when the lookup fails.
func (s *service) sellerOrEmpty(ctx context.Context) upstream.SellerInfo {
	seller, err := s.sellerInfo(ctx)
	if err != nil || seller == nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", fmt.Sprint(err)), "orders.seller_info_unavailable")
		return upstream.SellerInfo{}
	}
	return *seller
}
