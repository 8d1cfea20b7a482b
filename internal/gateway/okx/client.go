package okx

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"ethpilot/internal/gateway/exchange"
	"ethpilot/internal/logger"
)

const (
	DefaultBaseURL = "https://www.okx.com"
	defaultTimeout = 10 * time.Second
	timestampFmt   = "2006-01-02T15:04:05.000Z"
)

type Config struct {
	BaseURL    string
	APIKey     string
	SecretKey  string
	Passphrase string
	// Simulated routes requests to the demo-trading account.
	Simulated bool
	Timeout   time.Duration
}

func (c Config) withDefaults() Config {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}

// Client 是 OKX v5 REST 的签名客户端，实现 exchange.Gateway。
type Client struct {
	cfg  Config
	http *resty.Client
	now  func() time.Time

	levMu    sync.Mutex
	leverage map[string]int
}

var _ exchange.Gateway = (*Client)(nil)

func New(cfg Config) *Client {
	cfg = cfg.withDefaults()
	hc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.Simulated {
		hc.SetHeader("x-simulated-trading", "1")
	}
	return &Client{
		cfg:      cfg,
		http:     hc,
		now:      time.Now,
		leverage: make(map[string]int),
	}
}

// Sign computes base64(HMAC-SHA256(secret, timestamp+METHOD+requestPath+body)).
func Sign(secret, timestamp, method, requestPath, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + strings.ToUpper(method) + requestPath + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (gjson.Result, error) {
	requestPath := path
	if len(query) > 0 {
		requestPath = path + "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, requestPath, "")
}

func (c *Client) post(ctx context.Context, path string, payload any) (gjson.Result, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s: encode body: %w", path, err)
	}
	return c.do(ctx, http.MethodPost, path, path, string(raw))
}

// do sends one signed request and unwraps the {code,msg,data} envelope.
func (c *Client) do(ctx context.Context, method, endpoint, requestPath, body string) (gjson.Result, error) {
	ts := c.now().UTC().Format(timestampFmt)
	req := c.http.R().
		SetContext(ctx).
		SetHeader("OK-ACCESS-KEY", c.cfg.APIKey).
		SetHeader("OK-ACCESS-SIGN", Sign(c.cfg.SecretKey, ts, method, requestPath, body)).
		SetHeader("OK-ACCESS-TIMESTAMP", ts).
		SetHeader("OK-ACCESS-PASSPHRASE", c.cfg.Passphrase)
	if body != "" {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, requestPath)
	if err != nil {
		logger.Errorf("okx %s %s failed: %v", method, endpoint, err)
		return gjson.Result{}, &exchange.TransportError{Endpoint: endpoint, Err: err}
	}
	logger.Debugf("okx %s %s -> %d", method, endpoint, resp.StatusCode())
	payload := resp.Body()
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		msg := strings.TrimSpace(gjson.GetBytes(payload, "msg").String())
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return gjson.Result{}, &exchange.TransportError{Endpoint: endpoint, Status: resp.StatusCode(), Err: fmt.Errorf("%s", msg)}
	}
	if !gjson.ValidBytes(payload) {
		return gjson.Result{}, &exchange.TransportError{Endpoint: endpoint, Status: resp.StatusCode(), Err: fmt.Errorf("invalid json body")}
	}
	env := gjson.ParseBytes(payload)
	data := env.Get("data")
	if code := env.Get("code").String(); code != "0" {
		rej := &exchange.RejectionError{Endpoint: endpoint, Code: code, Message: env.Get("msg").String()}
		if item := firstFailedItem(data); item.Exists() {
			rej.Code = item.Get("sCode").String()
			rej.Message = item.Get("sMsg").String()
		}
		logger.Errorf("okx %s %s rejected: code=%s msg=%s body=%s", method, endpoint, rej.Code, rej.Message, body)
		return gjson.Result{}, rej
	}
	if item := firstFailedItem(data); item.Exists() {
		rej := &exchange.RejectionError{Endpoint: endpoint, Code: item.Get("sCode").String(), Message: item.Get("sMsg").String()}
		logger.Errorf("okx %s %s item rejected: code=%s msg=%s body=%s", method, endpoint, rej.Code, rej.Message, body)
		return gjson.Result{}, rej
	}
	return data, nil
}

func firstFailedItem(data gjson.Result) gjson.Result {
	var failed gjson.Result
	data.ForEach(func(_, item gjson.Result) bool {
		code := item.Get("sCode")
		if code.Exists() && code.String() != "" && code.String() != "0" {
			failed = item
			return false
		}
		return true
	})
	return failed
}
