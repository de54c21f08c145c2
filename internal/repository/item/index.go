package item

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/lostfound/internal/db"
	"github.com/kailas-cloud/lostfound/internal/domain"
)

// Indexed field aliases.
const (
	fieldType        = "type"
	fieldCategory    = "category"
	fieldStatus      = "status"
	fieldOwner       = "owner_id"
	fieldHasImage    = "has_image"
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldDateDays    = "date_days"
	fieldCreatedAt   = "created_at"
)

func keyPrefix() string {
	return domain.KeyPrefix + "item:"
}

func itemKey(id string) string {
	return keyPrefix() + id
}

func indexName() string {
	return domain.KeyPrefix + "item:idx"
}

// schemaKey holds the FT.CREATE rendering the live index was built from.
// It sits outside keyPrefix so the index never sees it.
func schemaKey() string {
	return domain.KeyPrefix + "schema:item"
}

// buildIndex describes the FT index over item JSON documents.
func buildIndex() *db.IndexDefinition {
	return db.NewIndex(indexName()).
		OnJSON().
		Prefix(keyPrefix()).
		Tag("$.type").As(fieldType).
		Tag("$.category").As(fieldCategory).
		Tag("$.status").As(fieldStatus).
		Tag("$.owner_id").As(fieldOwner).
		Tag("$.has_image").As(fieldHasImage).
		Text("$.title").As(fieldTitle).
		Text("$.description").As(fieldDescription).
		Numeric("$.date_days").As(fieldDateDays).
		Numeric("$.created_at").As(fieldCreatedAt).Sortable().
		MustBuild()
}

// EnsureIndex creates the item index, or rebuilds it when the schema below
// differs from the one it was created with. Documents survive a rebuild;
// Redis re-indexes them in the background.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def := buildIndex()
	schema := def.String()

	exists, err := r.store.IndexExists(ctx, indexName())
	if err != nil {
		return fmt.Errorf("check item index: %w", err)
	}
	if exists {
		stored, err := r.store.Get(ctx, schemaKey())
		if err != nil && !errors.Is(err, db.ErrKeyNotFound) {
			return fmt.Errorf("read item index schema: %w", err)
		}
		if string(stored) == schema {
			return nil
		}
		if err := r.store.DropIndex(ctx, indexName()); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return fmt.Errorf("drop stale item index: %w", err)
		}
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create item index: %w", err)
	}
	if err := r.store.Set(ctx, schemaKey(), []byte(schema)); err != nil {
		return fmt.Errorf("record item index schema: %w", err)
	}
	return nil
}

// Ping checks that the item index answers queries.
func (r *Repo) Ping(ctx context.Context) error {
	if _, err := r.store.SearchCount(ctx, indexName(), db.Filter{}); err != nil {
		return fmt.Errorf("count items: %w", err)
	}
	return nil
}
