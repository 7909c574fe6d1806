package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"
)

const (
	publishQueueSize = 256
	retryMin         = 500 * time.Millisecond
	retryMax         = 30 * time.Second
)

var errBusClosed = errors.New("notify: bus closed")

// envelope はインスタンス間で流すメッセージ
type envelope struct {
	UserID int64 `json:"userId"`
	Event  Event `json:"event"`
}

// publisher は *amqp.Channel のpublish側
type publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Bus はfanout exchangeで全インスタンスに通知を配る。
// 各インスタンスは自分のRegistryに接続がある分だけ届ける。
// publishはキュー経由でRunのgoroutineが行い、リクエストはブローカーを待たない
type Bus struct {
	url      string
	exchange string
	local    Notifier
	log      *slog.Logger

	queue    chan envelope
	retryMin time.Duration
	retryMax time.Duration

	openPublisher func() (publisher, error)
	subscribe     func(ctx context.Context) (<-chan amqp.Delivery, func(), error)

	mu     sync.Mutex
	conn   *amqp.Connection
	pub    publisher
	closed bool
}

func newBus(exchange string, local Notifier, log *slog.Logger, queueSize int) *Bus {
	if log == nil {
		log = slog.Default()
	}
	if queueSize <= 0 {
		queueSize = publishQueueSize
	}
	return &Bus{
		exchange: exchange,
		local:    local,
		log:      log,
		queue:    make(chan envelope, queueSize),
		retryMin: retryMin,
		retryMax: retryMax,
	}
}

// DialBus はexchangeを宣言して接続する。起動時につながらなければエラー
func DialBus(url, exchange string, local Notifier, log *slog.Logger) (*Bus, error) {
	b := newBus(exchange, local, log, publishQueueSize)
	b.url = url
	b.openPublisher = b.openAMQPPublisher
	b.subscribe = b.subscribeAMQP

	pub, err := b.openAMQPPublisher()
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	b.pub = pub

	b.log.Info("RabbitMQ connected", "exchange", exchange)
	return b, nil
}

// Notify はpublishキューに積むだけ。満杯ならローカルだけに届ける
func (b *Bus) Notify(ctx context.Context, userID int64, ev Event) {
	select {
	case b.queue <- envelope{UserID: userID, Event: ev}:
	default:
		b.log.WarnContext(ctx, "notify: publish queue full, delivering locally", "user_id", userID, "type", ev.Type)
		b.local.Notify(ctx, userID, ev)
	}
}

// Run はpublishと受信をctxが終わるまで回す。ブローカーの切断では終わらない
func (b *Bus) Run(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		b.publishLoop(ctx)
		return nil
	})
	g.Go(func() error {
		b.consumeLoop(ctx)
		return nil
	})
	g.Go(func() error {
		//詰まったPublishを解放する
		<-ctx.Done()
		_ = b.Close()
		return nil
	})
	return g.Wait()
}

func (b *Bus) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			b.flushLocal()
			return
		case env := <-b.queue:
			b.publish(ctx, env)
		}
	}
}

// 停止時に残っている分はローカルに届ける
func (b *Bus) flushLocal() {
	for {
		select {
		case env := <-b.queue:
			b.local.Notify(context.Background(), env.UserID, env.Event)
		default:
			return
		}
	}
}

func (b *Bus) publish(ctx context.Context, env envelope) {
	body, err := json.Marshal(env)
	if err != nil {
		b.log.WarnContext(ctx, "notify: marshal failed", "error", err)
		b.local.Notify(ctx, env.UserID, env.Event)
		return
	}

	pub, err := b.publisher()
	if err == nil {
		err = pub.Publish(b.exchange, "", false, false, amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		})
		if err != nil {
			b.dropPublisher(pub)
		}
	}
	if err != nil {
		b.log.WarnContext(ctx, "notify: publish failed, delivering locally", "user_id", env.UserID, "error", err)
		b.local.Notify(ctx, env.UserID, env.Event)
	}
}

// publisher は今のpublish用チャネルを返す。無ければ開き直す
func (b *Bus) publisher() (publisher, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, errBusClosed
	}
	if b.pub != nil {
		p := b.pub
		b.mu.Unlock()
		return p, nil
	}
	b.mu.Unlock()

	p, err := b.openPublisher()
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		_ = p.Close()
		return nil, errBusClosed
	}
	b.pub = p
	return p, nil
}

func (b *Bus) dropPublisher(p publisher) {
	b.mu.Lock()
	if b.pub == p {
		b.pub = nil
	}
	b.mu.Unlock()
	_ = p.Close()
}

// consumeLoop は配信チャネルが閉じたらbackoffして購読し直す
func (b *Bus) consumeLoop(ctx context.Context) {
	wait := b.retryMin
	for {
		deliveries, cleanup, err := b.subscribe(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.log.WarnContext(ctx, "notify: subscribe failed", "error", err, "retry_in", wait)
		} else {
			received := b.drain(ctx, deliveries)
			cleanup()
			if ctx.Err() != nil {
				return
			}
			if received > 0 {
				wait = b.retryMin
			}
			b.log.WarnContext(ctx, "notify: deliveries closed, resubscribing", "retry_in", wait)
		}

		if !sleepCtx(ctx, wait) {
			return
		}
		wait = min(wait*2, b.retryMax)
	}
}

// drain はチャネルが閉じるかctxが終わるまで受信する
func (b *Bus) drain(ctx context.Context, deliveries <-chan amqp.Delivery) int {
	n := 0
	for {
		select {
		case <-ctx.Done():
			return n
		case d, ok := <-deliveries:
			if !ok {
				return n
			}
			n++
			b.handleDelivery(ctx, d.Body)
		}
	}
}

func (b *Bus) handleDelivery(ctx context.Context, body []byte) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		b.log.WarnContext(ctx, "notify: bad message", "error", err)
		return
	}
	b.local.Notify(ctx, env.UserID, env.Event)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// channel は接続が切れていれば張り直してチャネルを開く
func (b *Bus) channel() (*amqp.Channel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errBusClosed
	}
	if b.conn == nil || b.conn.IsClosed() {
		conn, err := amqp.Dial(b.url)
		if err != nil {
			return nil, fmt.Errorf("amqp dial: %w", err)
		}
		b.conn = conn
	}
	ch, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	return ch, nil
}

func (b *Bus) declaredChannel() (*amqp.Channel, error) {
	ch, err := b.channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(b.exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", b.exchange, err)
	}
	return ch, nil
}

func (b *Bus) openAMQPPublisher() (publisher, error) {
	return b.declaredChannel()
}

// subscribeAMQP は専用の排他キューをexchangeにbindする
func (b *Bus) subscribeAMQP(_ context.Context) (<-chan amqp.Delivery, func(), error) {
	ch, err := b.declaredChannel()
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = ch.Close() }

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", b.exchange, false, nil); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("bind queue: %w", err)
	}
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("consume: %w", err)
	}
	return deliveries, cleanup, nil
}

// Close は何度呼んでもよい
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	if b.pub != nil {
		errs = append(errs, b.pub.Close())
		b.pub = nil
	}
	if b.conn != nil && !b.conn.IsClosed() {
		errs = append(errs, b.conn.Close())
	}
	return errors.Join(errs...)
}

var _ Notifier = (*Bus)(nil)
