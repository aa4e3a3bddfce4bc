// Package shopify is a client for the Shopify Storefront GraphQL API.
//
// Every operation validates the response against the wire schema, maps it to
// catalog values and normalizes them before returning.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/merch-storefront/internal/normalize"
	"github.com/xenking/merch-storefront/internal/schema"
)

const instrumentationName = "github.com/xenking/merch-storefront/internal/shopify"

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 8 << 20

// Mode selects which access token authenticates requests.
type Mode int

const (
	// ModePublic sends the public storefront token, as a browser would.
	ModePublic Mode = iota
	// ModeServer sends the private token and forwards the buyer IP.
	ModeServer
)

// Config configures a Client.
type Config struct {
	Shop               string
	APIVersion         string
	PublicAccessToken  string
	PrivateAccessToken string
	Mode               Mode
	Timeout            time.Duration

	// Endpoint overrides https://{Shop}/api/{APIVersion}/graphql.json.
	Endpoint string
	// HTTPClient is used as is when set; otherwise an instrumented client is built.
	HTTPClient *http.Client

	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
}

// Client executes storefront queries and mutations.
type Client struct {
	cfg        Config
	endpoint   string
	http       *http.Client
	schema     *schema.Validator
	normalizer *normalize.Normalizer

	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = otel.GetMeterProvider()
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		if cfg.Shop == "" || cfg.APIVersion == "" {
			return nil, errors.New("shop and api version are required")
		}
		endpoint = "https://" + cfg.Shop + "/api/" + cfg.APIVersion + "/graphql.json"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithMeterProvider(cfg.MeterProvider),
				otelhttp.WithTracerProvider(cfg.TracerProvider),
			),
		}
	}

	meter := cfg.MeterProvider.Meter(instrumentationName)
	requests, err := meter.Int64Counter("shopify.requests",
		metric.WithDescription("Storefront API requests by operation and outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create requests counter")
	}
	duration, err := meter.Float64Histogram("shopify.request.duration",
		metric.WithDescription("Storefront API request duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create duration histogram")
	}

	v := schema.New()
	return &Client{
		cfg:        cfg,
		endpoint:   endpoint,
		http:       httpClient,
		schema:     v,
		normalizer: normalize.New(v),
		tracer:     cfg.TracerProvider.Tracer(instrumentationName),
		requests:   requests,
		duration:   duration,
	}, nil
}

type buyerIPKey struct{}

// WithBuyerIP attaches the shopper's IP address to ctx. Server mode clients
// forward it so the API can attribute requests to the buyer.
func WithBuyerIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, buyerIPKey{}, ip)
}

// BuyerIPFromContext returns the address set by WithBuyerIP, or "".
func BuyerIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(buyerIPKey{}).(string)
	return ip
}

// variables writes the GraphQL variables object fields.
type variables func(e *jx.Encoder)

func encodeRequest(query string, vars variables) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("query", func(e *jx.Encoder) {
			e.Str(query)
		})
		e.Field("variables", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				if vars != nil {
					vars(e)
				}
			})
		})
	})
	return e.Bytes()
}

func (c *Client) setHeaders(ctx context.Context, req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	switch c.cfg.Mode {
	case ModeServer:
		req.Header.Set("Shopify-Storefront-Private-Token", c.cfg.PrivateAccessToken)
		if ip := BuyerIPFromContext(ctx); ip != "" {
			req.Header.Set("Shopify-Storefront-Buyer-IP", ip)
		}
	default:
		req.Header.Set("X-Shopify-Storefront-Access-Token", c.cfg.PublicAccessToken)
	}
}

// do executes one GraphQL request and unmarshals its data into out.
// Transport and API errors already read as the API reported them, so
// operations return them unwrapped.
func (c *Client) do(ctx context.Context, op, query string, vars variables, out any) (rerr error) {
	ctx, span := c.tracer.Start(ctx, "shopify."+op, trace.WithSpanKind(trace.SpanKindClient))
	start := time.Now()
	defer func() {
		outcome := "ok"
		if rerr != nil {
			outcome = "error"
			span.RecordError(rerr)
			span.SetStatus(codes.Error, rerr.Error())
		}
		attrs := metric.WithAttributes(
			attribute.String("operation", op),
			attribute.String("outcome", outcome),
		)
		c.requests.Add(ctx, 1, attrs)
		c.duration.Record(ctx, time.Since(start).Seconds(), attrs)
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(encodeRequest(query, vars)))
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	c.setHeaders(ctx, req)

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &TransportError{StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	data, messages, err := decodeEnvelope(body)
	if err != nil {
		return errors.Wrap(err, "decode response")
	}
	if len(messages) > 0 {
		return &APIError{Messages: messages}
	}
	if data == nil {
		return errors.New("response has no data")
	}

	if err := json.Unmarshal(data, out); err != nil {
		return schema.FromDecodeError(op, err)
	}
	return checkKeyCase(op, data, reflect.TypeOf(out))
}

// decodeEnvelope splits a GraphQL response into its raw data and the
// messages of its error entries.
func decodeEnvelope(body []byte) (data jx.Raw, messages []string, err error) {
	d := jx.DecodeBytes(body)
	err = d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "data":
			if d.Next() == jx.Null {
				return d.Null()
			}
			raw, err := d.Raw()
			if err != nil {
				return errors.Wrap(err, "data")
			}
			data = raw
			return nil
		case "errors":
			if d.Next() == jx.Null {
				return d.Null()
			}
			return d.Arr(func(d *jx.Decoder) error {
				var msg string
				if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
					if string(key) != "message" || d.Next() != jx.String {
						return d.Skip()
					}
					s, err := d.Str()
					msg = s
					return err
				}); err != nil {
					return errors.Wrap(err, "errors")
				}
				messages = append(messages, msg)
				return nil
			})
		default:
			return d.Skip()
		}
	})
	return data, messages, err
}
