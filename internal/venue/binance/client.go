package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/6ixisgood/tbot/internal/book"
	"github.com/6ixisgood/tbot/internal/config"
	"github.com/6ixisgood/tbot/internal/feed"
	"github.com/6ixisgood/tbot/internal/market"
	"github.com/6ixisgood/tbot/internal/venue"
	"go.uber.org/zap"
)

const (
	defaultRestURL = "https://api.binance.com"
	defaultWsURL   = "wss://stream.binance.com:9443/ws/!bookTicker"
)

// Venue is the live Binance adapter: REST for catalog, balances and
// orders; a websocket bookTicker stream for the price table.
type Venue struct {
	name  string
	opt   config.VenueOptions
	log   *zap.Logger
	http  *http.Client
	table *book.Table
	pub   *feed.Publisher // optional tick mirror
}

func New(name string, opt config.VenueOptions, pub *feed.Publisher, log *zap.Logger) *Venue {
	if opt.RestURL == "" {
		opt.RestURL = defaultRestURL
	}
	if opt.WsURL == "" {
		opt.WsURL = defaultWsURL
	}
	return &Venue{
		name:  name,
		opt:   opt,
		log:   log,
		http:  &http.Client{Timeout: 6 * time.Second},
		table: book.NewTable(),
		pub:   pub,
	}
}

func (v *Venue) Name() string      { return v.name }
func (v *Venue) Book() *book.Table { return v.table }

type exchangeInfoResp struct {
	Symbols []struct {
		Symbol     string `json:"symbol"`
		BaseAsset  string `json:"baseAsset"`
		QuoteAsset string `json:"quoteAsset"`
		Status     string `json:"status"`
		Filters    []struct {
			FilterType  string `json:"filterType"`
			MinQty      string `json:"minQty"`
			MinNotional string `json:"minNotional"`
		} `json:"filters"`
	} `json:"symbols"`
}

func (v *Venue) Markets(ctx context.Context) ([]market.Market, error) {
	var info exchangeInfoResp
	if err := v.get(ctx, "/api/v3/exchangeInfo", nil, &info); err != nil {
		return nil, venue.Classify("markets", err)
	}
	out := make([]market.Market, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		m := market.Market{
			Symbol: s.BaseAsset + "/" + s.QuoteAsset,
			ID:     s.Symbol,
			Base:   s.BaseAsset,
			Quote:  s.QuoteAsset,
			Active: s.Status == "TRADING",
		}
		for _, f := range s.Filters {
			switch f.FilterType {
			case "LOT_SIZE":
				m.MinAmount = parseF(f.MinQty)
			case "NOTIONAL", "MIN_NOTIONAL":
				m.MinCost = parseF(f.MinNotional)
			}
		}
		out = append(out, m)
	}
	return out, nil
}

type accountResp struct {
	Balances []struct {
		Asset string `json:"asset"`
		Free  string `json:"free"`
	} `json:"balances"`
}

func (v *Venue) FreeBalance(ctx context.Context, currency string) (float64, error) {
	params := url.Values{}
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	params.Set("recvWindow", "5000")

	var acct accountResp
	if err := v.signedGet(ctx, "/api/v3/account", v.signQuery(params), &acct); err != nil {
		return 0, venue.Classify("freeBalance", err)
	}
	for _, b := range acct.Balances {
		if b.Asset == currency {
			return parseF(b.Free), nil
		}
	}
	return 0, nil
}

type orderResp struct {
	OrderID      int64  `json:"orderId"`
	Symbol       string `json:"symbol"`
	Status       string `json:"status"`
	ExecutedQty  string `json:"executedQty"`
	CumQuoteQty  string `json:"cummulativeQuoteQty"`
	Fills        []struct {
		Price      string `json:"price"`
		Commission string `json:"commission"`
	} `json:"fills"`
}

func (v *Venue) CreateOrder(ctx context.Context, req venue.OrderRequest) (venue.Order, error) {
	params := url.Values{}
	params.Set("symbol", req.Symbol)
	params.Set("side", strings.ToUpper(req.Side))
	params.Set("type", strings.ToUpper(req.Kind))
	params.Set("quantity", trim(req.Amount))
	if req.Kind == "limit" {
		params.Set("price", trim(req.Price))
		params.Set("timeInForce", "IOC")
	}
	params.Set("newOrderRespType", "FULL")
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	params.Set("recvWindow", "5000")
	payload := v.signQuery(params)

	endpoint := v.opt.RestURL + "/api/v3/order"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload))
	if err != nil {
		return venue.Order{}, venue.Classify("createOrder", err)
	}
	httpReq.Header.Set("X-MBX-APIKEY", v.opt.APIKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.http.Do(httpReq)
	if err != nil {
		return venue.Order{}, venue.E(venue.KindNetwork, "createOrder", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return venue.Order{}, classifyHTTP("createOrder", resp.StatusCode, body)
	}

	var or orderResp
	if err := json.Unmarshal(body, &or); err != nil {
		return venue.Order{}, venue.E(venue.KindExchange, "createOrder", err)
	}

	ord := venue.Order{
		ID:     strconv.FormatInt(or.OrderID, 10),
		Symbol: or.Symbol,
		Side:   req.Side,
		Amount: req.Amount,
		Filled: parseF(or.ExecutedQty),
		Cost:   parseF(or.CumQuoteQty),
		Status: mapStatus(or.Status),
	}
	for _, f := range or.Fills {
		ord.Fee += parseF(f.Commission)
		if ord.Price == 0 {
			ord.Price = parseF(f.Price)
		}
	}
	return ord, nil
}

func mapStatus(s string) string {
	if s == "FILLED" {
		return venue.StatusFilled
	}
	return strings.ToLower(s)
}

type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func classifyHTTP(op string, status int, body []byte) error {
	var ae apiError
	_ = json.Unmarshal(body, &ae)
	err := fmt.Errorf("http %d code %d: %s", status, ae.Code, ae.Msg)
	switch {
	case status == http.StatusTooManyRequests || status == 418:
		return venue.E(venue.KindRateLimited, op, err)
	case ae.Code == -2010:
		return venue.E(venue.KindInsufficientFunds, op, err)
	default:
		return venue.E(venue.KindExchange, op, err)
	}
}

func (v *Venue) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := v.opt.RestURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := v.http.Do(req)
	if err != nil {
		return venue.E(venue.KindNetwork, path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return classifyHTTP(path, resp.StatusCode, body)
	}
	return json.Unmarshal(body, out)
}

func (v *Venue) signedGet(ctx context.Context, path, query string, out interface{}) error {
	endpoint := v.opt.RestURL + path + "?" + query
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-MBX-APIKEY", v.opt.APIKey)
	resp, err := v.http.Do(req)
	if err != nil {
		return venue.E(venue.KindNetwork, path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return classifyHTTP(path, resp.StatusCode, body)
	}
	return json.Unmarshal(body, out)
}

// signQuery encodes params and appends the HMAC signature as the
// trailing parameter, the request shape the API's documented examples
// use.
func (v *Venue) signQuery(params url.Values) string {
	encoded := params.Encode()
	return encoded + "&signature=" + v.sign(encoded)
}

func (v *Venue) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(v.opt.APISecret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func parseF(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func trim(f float64) string {
	s := strconv.FormatFloat(f, 'f', 8, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
