package webpush

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Error bodies from push services are short diagnostics. Anything beyond this
// is dropped.
const maxErrorBodyLen = 4096

// Config specifies required and optional aspects for sending a Push Notification.
type Config struct {
	Client          *http.Client  // Optional http.Client, defaults to http.DefaultClient.
	VAPIDKeys       *VAPIDKeyPair // Required VAPID key pair.
	Subscriber      string        // Required Subscriber, https URL or mailto: email address.
	TTL             time.Duration // Required TTL on the endpoint POST request (rounded to seconds).
	Topic           string        // Optional Topic to collapse pending messages.
	Urgency         Urgency       // Optional Urgency for message priority.
	RecordSize      int           // Optional custom RecordSize, defaults to 4096 per RFC 8291.
	Padding         int           // Optional zero padding added to every message to hide its length.
	VAPIDExpiration time.Time     // Optional custom expiration for VAPID JWT token (defaults to now + 12 hours, at most now + 24 hours).
	Logger          *slog.Logger  // Optional Logger, defaults to discarding everything.

	now func() time.Time
}

// Sender encrypts and sends messages for one application server identity.
// It holds no per message state and is safe for concurrent use.
type Sender struct {
	client     *http.Client
	keys       *VAPIDKeyPair
	subscriber string
	recordSize int
	padding    int
	expiration time.Time
	opts       requestOptions
	log        *slog.Logger
	now        func() time.Time
}

// NewSender validates the Config. All errors wrap ErrConfig.
func NewSender(conf *Config) (*Sender, error) {
	if conf.VAPIDKeys == nil {
		return nil, fmt.Errorf("%w: missing VAPID keys", ErrConfig)
	}
	if !validSubscriber(conf.Subscriber) {
		return nil, fmt.Errorf("%w: invalid subscriber: %q", ErrConfig, conf.Subscriber)
	}
	if conf.TTL < 0 {
		return nil, fmt.Errorf("%w: negative TTL %v", ErrConfig, conf.TTL)
	}
	if conf.Topic != "" && !validTopic(conf.Topic) {
		return nil, fmt.Errorf("%w: invalid topic %q", ErrConfig, conf.Topic)
	}
	if conf.Urgency != "" && !conf.Urgency.isValid() {
		return nil, fmt.Errorf("%w: invalid urgency %q", ErrConfig, conf.Urgency)
	}
	if conf.RecordSize < 0 || conf.Padding < 0 {
		return nil, fmt.Errorf("%w: negative record size or padding", ErrConfig)
	}

	now := conf.now
	if now == nil {
		now = time.Now
	}
	if !conf.VAPIDExpiration.IsZero() {
		if err := checkExpiration(now(), conf.VAPIDExpiration); err != nil {
			return nil, err
		}
	}

	s := &Sender{
		client:     conf.Client,
		keys:       conf.VAPIDKeys,
		subscriber: conf.Subscriber,
		recordSize: conf.RecordSize,
		padding:    conf.Padding,
		expiration: conf.VAPIDExpiration,
		opts: requestOptions{
			ttl:     conf.TTL,
			topic:   conf.Topic,
			urgency: conf.Urgency,
		},
		log: conf.Logger,
		now: now,
	}
	if s.client == nil {
		s.client = http.DefaultClient
	}
	if s.recordSize == 0 {
		s.recordSize = maxRecordSize
	}
	if s.recordSize < minOverhead {
		return nil, fmt.Errorf("%w: record size %v is below the minimum of %v",
			ErrConfig, s.recordSize, minOverhead)
	}
	if s.padding > s.recordSize-minOverhead {
		return nil, fmt.Errorf("%w: padding of %v leaves no room in record size of %v",
			ErrConfig, s.padding, s.recordSize)
	}
	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}
	return s, nil
}

// NewRequest encrypts message for the Subscription and returns the signed
// request without sending it.
func (s *Sender) NewRequest(ctx context.Context, message []byte, sub *Subscription) (*http.Request, error) {
	ua, err := decodeSubscription(sub)
	if err != nil {
		return nil, err
	}

	if err := checkPayloadSize(len(message), s.padding, s.recordSize); err != nil {
		return nil, err
	}

	salt, err := newSalt()
	if err != nil {
		return nil, err
	}

	// New Key for this Message
	ephemeral, err := generateEphemeralKey()
	if err != nil {
		return nil, err
	}

	keys, err := deriveKeys(ephemeral, ua, salt)
	if err != nil {
		return nil, err
	}

	record, err := encryptRecord(message, s.padding, keys, ephemeral.PublicKey().Bytes())
	if err != nil {
		return nil, err
	}

	now := s.now()
	expiration := s.expiration
	if expiration.IsZero() {
		expiration = now.Add(defaultVAPIDExpiration)
	}

	authHeader, err := makeAuthHeader(ua.endpoint, s.subscriber, s.keys, now, expiration)
	if err != nil {
		return nil, err
	}

	return buildRequest(ctx, ua.endpoint, record, authHeader, s.opts)
}

// Send a Push Notification to a Subscription. The caller owns the response
// and must close its body.
func (s *Sender) Send(ctx context.Context, message []byte, sub *Subscription) (*http.Response, error) {
	req, err := s.NewRequest(ctx, message, sub)
	if err != nil {
		return nil, err
	}
	return s.client.Do(req)
}

// Deliver sends message and consumes the response. A non 2xx answer is
// returned as a *StatusError.
func (s *Sender) Deliver(ctx context.Context, message []byte, sub *Subscription) error {
	resp, err := s.Send(ctx, message, sub)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	log := s.log.With("push_service", origin(sub.Endpoint), "status", resp.StatusCode)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		log.DebugContext(ctx, "push delivered", "bytes", len(message))
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
	statusErr := &StatusError{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}
	log.WarnContext(ctx, "push rejected", "gone", statusErr.Gone(), "body", string(body))
	return statusErr
}

// Subscription URLs are capabilities and are kept out of logs.
func origin(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
