package embedding

import "errors"

var (
	// ErrAuth means the provider rejected our credential. Fatal: an
	// ingestion run aborts instead of retrying.
	ErrAuth = errors.New("embedding provider rejected credentials")

	// ErrRateLimited means the provider returned a throttling signal.
	// The caller must back off through the rate limiter and retry.
	ErrRateLimited = errors.New("embedding provider rate limited")

	// ErrTransient covers network failures and 5xx responses. Retried a
	// bounded number of times before the entity is marked failed.
	ErrTransient = errors.New("transient embedding provider error")
)
