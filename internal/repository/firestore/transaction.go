package firestore

import (
	"context"
	"fmt"

	gcf "cloud.google.com/go/firestore"

	"ngo-backend/internal/domain"
	"ngo-backend/internal/logger"
	"ngo-backend/internal/repository"
)

type transactionRepository struct {
	client *gcf.Client
}

func (r *transactionRepository) col() *gcf.CollectionRef {
	return r.client.Collection(repository.CollectionTransactions)
}

func (r *transactionRepository) query() gcf.Query {
	return r.col().OrderBy("date", gcf.Desc)
}

func (r *transactionRepository) Add(ctx context.Context, tx *domain.Transaction) error {
	logger.StoreCall("ADD", repository.CollectionTransactions, "type", tx.Type)
	ref, _, err := r.col().Add(ctx, toTransactionDoc(tx))
	if ref != nil {
		tx.ID = ref.ID
	}
	logger.StoreResult("ADD", repository.CollectionTransactions, err, "id", tx.ID)
	return err
}

func (r *transactionRepository) List(ctx context.Context) ([]domain.Transaction, error) {
	docs, err := r.query().Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return decodeTransactions(docs), nil
}

// DeleteAll reads and deletes every document inside one Firestore
// transaction so listeners never observe a partially cleared ledger.
func (r *transactionRepository) DeleteAll(ctx context.Context) error {
	logger.StoreCall("DELETE_ALL", repository.CollectionTransactions)
	deleted := 0
	err := r.client.RunTransaction(ctx, func(ctx context.Context, t *gcf.Transaction) error {
		deleted = 0
		docs, err := t.Documents(r.col()).GetAll()
		if err != nil {
			return err
		}
		for _, doc := range docs {
			if err := t.Delete(doc.Ref); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	logger.StoreResult("DELETE_ALL", repository.CollectionTransactions, err, "deleted", deleted)
	if err != nil {
		return fmt.Errorf("failed to clear transactions: %w", err)
	}
	return nil
}

func (r *transactionRepository) Watch(ctx context.Context, fn func([]domain.Transaction)) error {
	return listen(ctx, repository.CollectionTransactions, r.query(), func(docs []*gcf.DocumentSnapshot) {
		fn(decodeTransactions(docs))
	})
}

func decodeTransactions(docs []*gcf.DocumentSnapshot) []domain.Transaction {
	return decodeAll(repository.CollectionTransactions, len(docs), func(i int) (domain.Transaction, error) {
		var d transactionDoc
		if err := docs[i].DataTo(&d); err != nil {
			return domain.Transaction{}, fmt.Errorf("%w %s: %v", errDecode, docs[i].Ref.ID, err)
		}
		return fromTransactionDoc(docs[i].Ref.ID, d)
	})
}
