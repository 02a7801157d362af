package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/ahumphreys87/ddd-workshop/ports/kv"
)

const defaultMaxBytes = 64 * 1024 * 1024

type KvConfig struct {
	Connect Connector    // Connect creates the connection. If nil, ConnectDefault() is used.
	Log     *slog.Logger // Log for diagnostics (optional)
	Bucket  string       // Bucket is the KeyValue bucket, created if missing. Required.

	// MaxBytes caps the bucket size (default 64 MiB).
	MaxBytes int64
}

// KvStore is a kv.Store on one JetStream KeyValue bucket. Revisions are the
// bucket's stream sequences, which makes Swap a native compare-and-set.
type KvStore struct {
	kv     jetstream.KeyValue
	log    *slog.Logger
	bucket string
	close  closeFunc
}

func NewKvStore(ctx context.Context, cfg KvConfig) (*KvStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}

	doConnect := cfg.Connect
	if doConnect == nil {
		doConnect = ConnectDefault()
	}

	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("store", "nats_kv"), slog.String("bucket", cfg.Bucket))

	maxBytes := cfg.MaxBytes
	if maxBytes == 0 {
		maxBytes = defaultMaxBytes
	}

	nc, closeConn, err := doConnect()
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		closeConn()
		return nil, err
	}

	bucket, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:   cfg.Bucket,
		Storage:  jetstream.FileStorage,
		MaxBytes: maxBytes,
	})
	if err != nil {
		closeConn()
		return nil, fmt.Errorf("failed to ensure bucket %s: %w", cfg.Bucket, err)
	}

	log.Debug("bucket ready")

	return &KvStore{
		kv:     bucket,
		log:    log,
		bucket: cfg.Bucket,
		close:  closeConn,
	}, nil
}

func (k *KvStore) Name() string { return k.bucket }

func (k *KvStore) Put(ctx context.Context, key string, data []byte) (uint64, error) {
	rev, err := k.kv.Put(ctx, key, data)
	if err != nil {
		return 0, fmt.Errorf("failed to put %s: %w", key, err)
	}
	return rev, nil
}

func (k *KvStore) Get(ctx context.Context, key string) (kv.Entry, error) {
	v, err := k.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return kv.Entry{}, kv.ErrNotFound
		}
		return kv.Entry{}, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return kv.Entry{Data: v.Value(), Revision: v.Revision()}, nil
}

func (k *KvStore) Swap(ctx context.Context, key string, data []byte, expectRevision uint64) (uint64, error) {
	var (
		rev uint64
		err error
	)
	if expectRevision == 0 {
		rev, err = k.kv.Create(ctx, key, data)
	} else {
		rev, err = k.kv.Update(ctx, key, data, expectRevision)
	}
	if err == nil {
		return rev, nil
	}
	if isRevisionMismatch(err) {
		k.log.Debug("swap rejected", slog.String("key", key), slog.Uint64("expect_revision", expectRevision))
		return 0, kv.ErrRevisionMismatch
	}
	return 0, fmt.Errorf("failed to swap %s: %w", key, err)
}

func (k *KvStore) Delete(ctx context.Context, key string) error {
	if err := k.kv.Delete(ctx, key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Close releases the NATS connection.
func (k *KvStore) Close() {
	k.close()
	k.log.Debug("closed")
}

func isRevisionMismatch(err error) bool {
	if errors.Is(err, jetstream.ErrKeyExists) {
		return true
	}
	var apiErr *jetstream.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence
}

var _ kv.Store = (*KvStore)(nil)
