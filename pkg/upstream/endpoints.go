package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/angelmondragon/orderdesk-backend/pkg/errors"
)

// Steps reported by the tax-submission service when a submission fails.
const (
	StepValidation = "fbr_validation"
	StepConnection = "fbr_connection"
)

func requireID(kind, id string) (string, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, kind+" is required")
	}
	return trimmed, nil
}

// GetOrder fetches an order with its items.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	id, err := requireID("order id", orderID)
	if err != nil {
		return nil, err
	}
	var order Order
	if err := c.do(ctx, call{endpoint: "get_order", method: http.MethodGet, path: "orders/" + url.PathEscape(id)}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// SaveOrder replaces the order. The ERP may submit the invoice to the tax
// authority as part of the save, so failures can carry a submission step.
func (c *Client) SaveOrder(ctx context.Context, orderID string, req SaveOrderRequest) (*SaveOrderResponse, error) {
	id, err := requireID("order id", orderID)
	if err != nil {
		return nil, err
	}
	var out SaveOrderResponse
	if err := c.do(ctx, call{endpoint: "save_order", method: http.MethodPut, path: "orders/" + url.PathEscape(id), body: req}, &out); err != nil {
		return nil, err
	}
	if out.OrderID == "" {
		out.OrderID = id
	}
	return &out, nil
}

// DuplicateOrder copies an order and returns the new order id.
func (c *Client) DuplicateOrder(ctx context.Context, orderID string) (*DuplicateOrderResponse, error) {
	id, err := requireID("order id", orderID)
	if err != nil {
		return nil, err
	}
	var out DuplicateOrderResponse
	if err := c.do(ctx, call{endpoint: "duplicate_order", method: http.MethodPost, path: "orders/" + url.PathEscape(id) + "/duplicate"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProducts returns the catalog, optionally filtered by SKU.
func (c *Client) ListProducts(ctx context.Context, sku string) ([]Product, error) {
	query := url.Values{}
	if s := strings.TrimSpace(sku); s != "" {
		query.Set("sku", s)
	}
	var out []Product
	if err := c.do(ctx, call{endpoint: "list_products", method: http.MethodGet, path: "products", query: query}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListVariants returns the variants of a product.
func (c *Client) ListVariants(ctx context.Context, productID string) ([]Variant, error) {
	id, err := requireID("product id", productID)
	if err != nil {
		return nil, err
	}
	var out []Variant
	if err := c.do(ctx, call{endpoint: "list_variants", method: http.MethodGet, path: "product-variants", query: url.Values{"productId": {id}}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAddons returns the addons offered with a product.
func (c *Client) ListAddons(ctx context.Context, productID string) ([]ProductAddon, error) {
	id, err := requireID("product id", productID)
	if err != nil {
		return nil, err
	}
	var out []ProductAddon
	if err := c.do(ctx, call{endpoint: "list_addons", method: http.MethodGet, path: "product-addons", query: url.Values{"productId": {id}}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListUsers returns the whole user directory.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	if err := c.do(ctx, call{endpoint: "list_users", method: http.MethodGet, path: "users"}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetLoyaltySettings returns the loyalty programme configuration.
func (c *Client) GetLoyaltySettings(ctx context.Context) (*LoyaltySettings, error) {
	var out LoyaltySettings
	if err := c.do(ctx, call{endpoint: "loyalty_settings", method: http.MethodGet, path: "settings/loyalty"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetFBRSettings returns the digital invoicing configuration.
func (c *Client) GetFBRSettings(ctx context.Context) (*FBRSettings, error) {
	var out FBRSettings
	if err := c.do(ctx, call{endpoint: "fbr_settings", method: http.MethodGet, path: "settings/fbr"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSellerInfo returns the registered seller.
func (c *Client) GetSellerInfo(ctx context.Context) (*SellerInfo, error) {
	var out SellerInfo
	if err := c.do(ctx, call{endpoint: "seller_info", method: http.MethodGet, path: "seller-info"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetLoyaltyPoints returns a customer's point balance.
func (c *Client) GetLoyaltyPoints(ctx context.Context, userID string) (*LoyaltyPoints, error) {
	id, err := requireID("user id", userID)
	if err != nil {
		return nil, err
	}
	var out LoyaltyPoints
	if err := c.do(ctx, call{endpoint: "loyalty_points", method: http.MethodGet, path: "loyalty/points", query: url.Values{"userId": {id}}}, &out); err != nil {
		return nil, err
	}
	if out.UserID == "" {
		out.UserID = id
	}
	return &out, nil
}

// PreviewFBR asks the tax-submission service to compute the invoice without
// submitting it and returns the raw fbrInvoice document. It is never retried.
func (c *Client) PreviewFBR(ctx context.Context, payload any) (json.RawMessage, error) {
	var out struct {
		FBRInvoice json.RawMessage `json:"fbrInvoice"`
	}
	cl := call{
		endpoint: "fbr_preview",
		method:   http.MethodPost,
		path:     "fbr/submit",
		query:    url.Values{"preview": {"true"}},
		body:     payload,
		fbr:      true,
	}
	if err := c.do(ctx, cl, &out); err != nil {
		return nil, err
	}
	if len(out.FBRInvoice) == 0 || string(out.FBRInvoice) == "null" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "fbr preview response missing invoice").
			WithDetails(map[string]any{"step": StepConnection})
	}
	return out.FBRInvoice, nil
}
