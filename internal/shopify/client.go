package shopify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/guonaihong/gout"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Listing is the store view of one product
type Listing struct {
	Title       string
	BodyHTML    string
	Vendor      string
	ProductType string
	Tags        []string
	Sku         string
	Price       string
	Grams       int
	ImageURL    string
}

// Exchange captures the raw request and response of a call for the audit log
type Exchange struct {
	Request  string
	Response string
}

// Client talks to the store
type Client interface {
	// UpsertProduct creates the product when remoteID is empty and returns its id
	UpsertProduct(ctx context.Context, remoteID string, l *Listing) (string, *Exchange, error)
	ArchiveProduct(ctx context.Context, remoteID string) (*Exchange, error)
}

// RESTClient calls the Shopify Admin REST API
type RESTClient struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// NewRESTClient builds a client for https://{shop}/admin/api/{version}
func NewRESTClient(shopDomain, token, apiVersion string) *RESTClient {
	base := shopDomain
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return &RESTClient{
		BaseURL: fmt.Sprintf("%s/admin/api/%s", strings.TrimRight(base, "/"), apiVersion),
		Token:   token,
		Timeout: 15 * time.Second,
	}
}

type remoteProduct struct {
	ID int64 `json:"id"`
}

type productEnvelope struct {
	Product remoteProduct `json:"product"`
}

func listingBody(remoteID string, l *Listing) map[string]interface{} {
	variant := map[string]interface{}{
		"sku":                  l.Sku,
		"price":                l.Price,
		"grams":                l.Grams,
		"inventory_management": "shopify",
	}
	product := map[string]interface{}{
		"title":        l.Title,
		"body_html":    l.BodyHTML,
		"vendor":       l.Vendor,
		"product_type": l.ProductType,
		"tags":         strings.Join(l.Tags, ", "),
		"status":       StatusActive,
		"variants":     []interface{}{variant},
	}
	if l.ImageURL != "" {
		product["images"] = []interface{}{map[string]interface{}{"src": l.ImageURL}}
	}
	if remoteID != "" {
		product["id"] = remoteID
	}
	return map[string]interface{}{"product": product}
}

func (c *RESTClient) call(ctx context.Context, method, path string, body interface{}) (string, *Exchange, error) {
	reqData, _ := json.Marshal(body)
	ex := &Exchange{Request: string(reqData)}
	url := c.BaseURL + path

	newFlow := gout.PUT
	if method == "POST" {
		newFlow = gout.POST
	}
	var code int
	var resp string
	err := newFlow(url).WithContext(ctx).
		SetTimeout(c.Timeout).
		SetHeader(gout.H{
			"X-Shopify-Access-Token": c.Token,
			"Content-Type":           "application/json",
		}).
		SetJSON(body).
		BindBody(&resp).
		Code(&code).
		Do()
	ex.Response = resp
	if err != nil {
		return "", ex, errors.Wrapf(err, "%s %s", method, path)
	}
	if code < 200 || code >= 300 {
		return "", ex, fmt.Errorf("%s %s: status %d", method, path, code)
	}
	var env productEnvelope
	if err := json.Unmarshal([]byte(resp), &env); err != nil {
		return "", ex, errors.Wrap(err, "decode product response")
	}
	if env.Product.ID == 0 {
		return "", ex, fmt.Errorf("%s %s: response without product id", method, path)
	}
	return fmt.Sprintf("%d", env.Product.ID), ex, nil
}

func (c *RESTClient) UpsertProduct(ctx context.Context, remoteID string, l *Listing) (string, *Exchange, error) {
	if remoteID == "" {
		return c.call(ctx, "POST", "/products.json", listingBody("", l))
	}
	return c.call(ctx, "PUT", fmt.Sprintf("/products/%s.json", remoteID), listingBody(remoteID, l))
}

func (c *RESTClient) ArchiveProduct(ctx context.Context, remoteID string) (*Exchange, error) {
	body := map[string]interface{}{"product": map[string]interface{}{"id": remoteID, "status": StatusArchived}}
	_, ex, err := c.call(ctx, "PUT", fmt.Sprintf("/products/%s.json", remoteID), body)
	return ex, err
}
