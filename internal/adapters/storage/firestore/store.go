package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultCollection = "composer_kv"

type Store struct {
	client     *firestore.Client
	collection string
	// namespace prefixes every document id so several devices can share a project.
	namespace string
}

// NewStore creates a Firestore store.
// Uses the project passed (VITALITO_GCP_PROJECT).
func NewStore(ctx context.Context, projectID, namespace string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{
		client:     client,
		collection: defaultCollection,
		namespace:  namespace,
	}, nil
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) docID(key string) string {
	if s.namespace == "" {
		return key
	}
	return s.namespace + ":" + key
}

func (s *Store) doc(key string) *firestore.DocumentRef {
	return s.client.Collection(s.collection).Doc(s.docID(key))
}

type kvDoc struct {
	Value     string    `firestore:"value"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

// ─────────────────────────────────────────
// KeyValueStore implementation
// ─────────────────────────────────────────

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	snap, err := s.doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", false, nil
		}
		return "", false, fmt.Errorf("firestore Get: %w", err)
	}

	var doc kvDoc
	if err := snap.DataTo(&doc); err != nil {
		return "", false, fmt.Errorf("firestore Get decode: %w", err)
	}
	return doc.Value, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.doc(key).Set(ctx, kvDoc{
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("firestore Set: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
