// Package firestore stores the collections in Cloud Firestore and turns its
// real-time query listeners into full-collection snapshot pushes.
package firestore

import (
	"context"
	"errors"
	"fmt"

	gcf "cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"ngo-backend/internal/domain"
	"ngo-backend/internal/logger"
	"ngo-backend/internal/repository"
)

type Store struct {
	client       *gcf.Client
	transactions *transactionRepository
	members      *memberRepository
	notices      *noticeRepository
}

// NewClient initialises the Firebase app and returns its Firestore client.
// An empty credentialsFile falls back to application default credentials.
func NewClient(ctx context.Context, projectID, credentialsFile string) (*gcf.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	logger.ExternalServiceCall("firebase", "NewApp", "project_id", projectID)
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		logger.ExternalServiceResult("firebase", "NewApp", err)
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	logger.ExternalServiceResult("firebase", "Firestore", err)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return client, nil
}

func NewStore(client *gcf.Client) *Store {
	return &Store{
		client:       client,
		transactions: &transactionRepository{client: client},
		members:      &memberRepository{client: client},
		notices:      &noticeRepository{client: client},
	}
}

func (s *Store) Transactions() repository.TransactionRepository { return s.transactions }
func (s *Store) Members() repository.MemberRepository           { return s.members }
func (s *Store) Notices() repository.NoticeRepository           { return s.notices }

func (s *Store) Close() error {
	return s.client.Close()
}

// mapError translates Firestore gRPC status codes into domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.NotFound {
		return domain.ErrNotFound
	}
	return err
}

// listen runs a snapshot listener on q, decoding every snapshot in full.
func listen(ctx context.Context, collection string, q gcf.Query, onDocs func([]*gcf.DocumentSnapshot)) error {
	it := q.Snapshots(ctx)
	defer it.Stop()
	logger.Info("Subscribed to collection changes", "collection", collection)

	for {
		snap, err := it.Next()
		if err != nil {
			if ctx.Err() != nil || status.Code(err) == codes.Canceled {
				return ctx.Err()
			}
			return fmt.Errorf("snapshot listener on %s failed: %w", collection, err)
		}
		docs, err := snap.Documents.GetAll()
		if err != nil {
			return fmt.Errorf("failed to read %s snapshot: %w", collection, err)
		}
		onDocs(docs)
	}
}

var errDecode = errors.New("failed to decode document")

// decodeAll decodes n documents in order. A document that cannot be read is
// logged and left out so the rest of the snapshot still reaches subscribers.
func decodeAll[T any](collection string, n int, decode func(i int) (T, error)) []T {
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		v, err := decode(i)
		if err != nil {
			logger.Warn("Skipping undecodable document", "collection", collection, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out
}
