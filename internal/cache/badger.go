// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/syncfleet/internal/logging"
	"github.com/tomtom215/syncfleet/internal/metrics"
	"github.com/tomtom215/syncfleet/internal/models"
)

// BadgerCache is the durable variant: one encrypted blob per UTC day
// under the connector's key prefix. The database handle is shared and
// owned by the caller; Close only clears this connector's keyspace.
type BadgerCache struct {
	db          *badger.DB
	cipher      *blobCipher
	prefix      []byte
	connectorID uuid.UUID
}

// NewBadgerCache builds a durable cache for one connector. Any
// pre-existing keyspace for that connector is cleared best-effort; a
// failed wipe is logged, not fatal.
func NewBadgerCache(db *badger.DB, connector models.Connector, secret string) (*BadgerCache, error) {
	cipher, err := newBlobCipher(secret, connector.ID)
	if err != nil {
		return nil, fmt.Errorf("build blob cipher: %w", err)
	}

	c := &BadgerCache{
		db:          db,
		cipher:      cipher,
		prefix:      []byte("interactions/" + connector.ID.String() + "/"),
		connectorID: connector.ID,
	}
	c.wipe("open")
	return c, nil
}

func (c *BadgerCache) dayKey(day time.Time) []byte {
	return append(append([]byte{}, c.prefix...), dayOf(day).Format("2006-01-02")...)
}

// Push merges records into their encrypted day blobs.
func (c *BadgerCache) Push(_ context.Context, records []models.HashedInteraction) error {
	for day, incoming := range groupByDay(records) {
		err := c.db.Update(func(txn *badger.Txn) error {
			key := c.dayKey(day)

			merged := make(map[string]models.HashedInteraction)
			item, err := txn.Get(key)
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
			case err != nil:
				return fmt.Errorf("read day bucket: %w", err)
			default:
				existing, err := c.decode(item)
				if err != nil {
					return err
				}
				for _, rec := range existing {
					merged[rec.DedupKey()] = rec
				}
			}

			for k, rec := range incoming {
				merged[k] = rec
			}

			blob, err := c.encode(merged)
			if err != nil {
				return err
			}
			return txn.Set(key, blob)
		})
		if err != nil {
			metrics.CacheOps.WithLabelValues("push", "error").Inc()
			return fmt.Errorf("push day %s: %w", day.Format("2006-01-02"), err)
		}
	}
	metrics.CacheOps.WithLabelValues("push", "ok").Inc()
	return nil
}

// Pull returns and removes the blob for the given day.
func (c *BadgerCache) Pull(_ context.Context, day time.Time) ([]models.HashedInteraction, error) {
	var records []models.HashedInteraction

	err := c.db.Update(func(txn *badger.Txn) error {
		key := c.dayKey(day)

		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read day bucket: %w", err)
		}

		records, err = c.decode(item)
		if err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		metrics.CacheOps.WithLabelValues("pull", "error").Inc()
		return nil, fmt.Errorf("pull day %s: %w", dayOf(day).Format("2006-01-02"), err)
	}

	metrics.CacheOps.WithLabelValues("pull", "ok").Inc()
	if records == nil {
		records = []models.HashedInteraction{}
	}
	return records, nil
}

// Close clears the connector's keyspace. The shared database handle
// stays open for other connectors.
func (c *BadgerCache) Close() error {
	c.wipe("close")
	return nil
}

// wipe drops every key under the connector's prefix, best-effort.
func (c *BadgerCache) wipe(stage string) {
	if err := c.db.DropPrefix(c.prefix); err != nil {
		logging.WithComponent("cache").Warn().Err(err).
			Str("connector_id", c.connectorID.String()).
			Str("stage", stage).
			Msg("failed to clear cache keyspace")
	}
}

func (c *BadgerCache) encode(bucket map[string]models.HashedInteraction) ([]byte, error) {
	records := make([]models.HashedInteraction, 0, len(bucket))
	for _, rec := range bucket {
		records = append(records, rec)
	}
	plaintext, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshal day bucket: %w", err)
	}
	blob, err := c.cipher.Seal(plaintext)
	if err != nil {
		return nil, fmt.Errorf("encrypt day bucket: %w", err)
	}
	return blob, nil
}

func (c *BadgerCache) decode(item *badger.Item) ([]models.HashedInteraction, error) {
	var records []models.HashedInteraction
	err := item.Value(func(blob []byte) error {
		plaintext, err := c.cipher.Open(blob)
		if err != nil {
			return err
		}
		return json.Unmarshal(plaintext, &records)
	})
	if err != nil {
		return nil, fmt.Errorf("decode day bucket: %w", err)
	}
	return records, nil
}
