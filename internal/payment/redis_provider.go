package payment

import (
    "context"
    "errors"
    "fmt"
    "strconv"
    "time"

    "github.com/google/uuid"
    "github.com/redis/go-redis/v9"
)

// ErrIntentNotFound is returned when an intent id is unknown or expired.
var ErrIntentNotFound = errors.New("payment intent not found")

// intentTTL keeps sandbox intents around long enough for reconciliation of
// old pending reservations without growing Redis forever.
const intentTTL = 90 * 24 * time.Hour

// RedisProvider is the sandbox gateway used in development and testing.
// Intents live as Redis hashes keyed by pay:intent:<uuid>.  It implements
// the full Provider contract so the service layer behaves identically
// against it and against a real processor.
type RedisProvider struct {
    rdb *redis.Client
}

// NewRedisProvider wraps an existing Redis client.  The client may not be nil.
func NewRedisProvider(rdb *redis.Client) *RedisProvider {
    if rdb == nil {
        panic("nil redis client passed to NewRedisProvider")
    }
    return &RedisProvider{rdb: rdb}
}

func intentKey(id string) string { return "pay:intent:" + id }

// CreateIntent stores a new PENDING intent and returns it.
func (p *RedisProvider) CreateIntent(ctx context.Context, amountCents uint32) (Intent, error) {
    in := Intent{
        ID:          uuid.NewString(),
        AmountCents: amountCents,
        Status:      StatusPending,
        CreatedAt:   time.Now().UTC(),
    }
    key := intentKey(in.ID)
    if err := p.rdb.HSet(ctx, key,
        "amount", in.AmountCents,
        "status", string(in.Status),
        "created_at", in.CreatedAt.Format(time.RFC3339),
    ).Err(); err != nil {
        return Intent{}, fmt.Errorf("store intent: %w", err)
    }
    if err := p.rdb.Expire(ctx, key, intentTTL).Err(); err != nil {
        return Intent{}, fmt.Errorf("set intent ttl: %w", err)
    }
    return in, nil
}

// ConfirmIntent moves a pending intent to SUCCESS.  Confirming an intent
// that is not pending fails, mirroring real gateway behaviour.
func (p *RedisProvider) ConfirmIntent(ctx context.Context, id string) (Intent, error) {
    in, err := p.load(ctx, id)
    if err != nil {
        return Intent{}, err
    }
    if in.Status != StatusPending {
        return Intent{}, fmt.Errorf("intent %s is %s, cannot confirm", id, in.Status)
    }
    if err := p.rdb.HSet(ctx, intentKey(id), "status", string(StatusSuccess)).Err(); err != nil {
        return Intent{}, fmt.Errorf("confirm intent: %w", err)
    }
    in.Status = StatusSuccess
    return in, nil
}

// VerifyStatus reports the stored status of an intent.
func (p *RedisProvider) VerifyStatus(ctx context.Context, id string) (Status, error) {
    in, err := p.load(ctx, id)
    if err != nil {
        return "", err
    }
    return in.Status, nil
}

// CancelPayment voids or refunds an intent.  A refund is only meaningful
// for a captured (SUCCESS) intent; the refund flag is recorded so the
// sandbox log distinguishes the two paths.
func (p *RedisProvider) CancelPayment(ctx context.Context, id string, refund bool) error {
    in, err := p.load(ctx, id)
    if err != nil {
        return err
    }
    if in.Status == StatusCanceled {
        return nil // cancelling twice is harmless
    }
    if err := p.rdb.HSet(ctx, intentKey(id),
        "status", string(StatusCanceled),
        "refunded", strconv.FormatBool(refund && in.Status == StatusSuccess),
    ).Err(); err != nil {
        return fmt.Errorf("cancel intent: %w", err)
    }
    return nil
}

func (p *RedisProvider) load(ctx context.Context, id string) (Intent, error) {
    vals, err := p.rdb.HGetAll(ctx, intentKey(id)).Result()
    if err != nil {
        return Intent{}, fmt.Errorf("load intent: %w", err)
    }
    if len(vals) == 0 {
        return Intent{}, ErrIntentNotFound
    }
    amount, _ := strconv.ParseUint(vals["amount"], 10, 32)
    created, _ := time.Parse(time.RFC3339, vals["created_at"])
    return Intent{
        ID:          id,
        AmountCents: uint32(amount),
        Status:      Status(vals["status"]),
        CreatedAt:   created,
    }, nil
}
