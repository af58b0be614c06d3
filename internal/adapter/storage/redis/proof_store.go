package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// proofTTL bounds how long a proof binding survives. Long enough to cover
// any realistic settlement retry, short enough to keep the keyspace small.
const proofTTL = 24 * time.Hour

// ProofStore binds payment proofs to checkouts so a proof presented for one
// checkout cannot be replayed against another.
type ProofStore struct {
	client *goredis.Client
	prefix string
}

// NewProofStore creates a new Redis-backed proof store.
func NewProofStore(client *goredis.Client) *ProofStore {
	return &ProofStore{
		client: client,
		prefix: "proof:",
	}
}

// Bind associates a proof hash with a checkout. The first binding wins;
// re-presenting the same proof for the same checkout is allowed, for a
// different checkout it is not.
func (s *ProofStore) Bind(ctx context.Context, proofHash string, checkoutID uuid.UUID) (bool, error) {
	key := s.prefix + proofHash

	ok, err := s.client.SetNX(ctx, key, checkoutID.String(), proofTTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis proof setnx: %w", err)
	}
	if ok {
		return true, nil
	}

	owner, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis proof get: %w", err)
	}
	return owner == checkoutID.String(), nil
}
