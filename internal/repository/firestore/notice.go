package firestore

import (
	"context"
	"fmt"

	gcf "cloud.google.com/go/firestore"

	"ngo-backend/internal/domain"
	"ngo-backend/internal/logger"
	"ngo-backend/internal/repository"
)

type noticeRepository struct {
	client *gcf.Client
}

func (r *noticeRepository) col() *gcf.CollectionRef {
	return r.client.Collection(repository.CollectionNotices)
}

func (r *noticeRepository) query() gcf.Query {
	return r.col().OrderBy("date", gcf.Desc)
}

func (r *noticeRepository) Create(ctx context.Context, n *domain.Notice) error {
	logger.StoreCall("ADD", repository.CollectionNotices)
	ref, _, err := r.col().Add(ctx, noticeDoc{Message: n.Message, Date: n.Date})
	if ref != nil {
		n.ID = ref.ID
	}
	logger.StoreResult("ADD", repository.CollectionNotices, err, "id", n.ID)
	return err
}

func (r *noticeRepository) List(ctx context.Context) ([]domain.Notice, error) {
	docs, err := r.query().Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return decodeNotices(docs), nil
}

func (r *noticeRepository) Delete(ctx context.Context, id string) error {
	logger.StoreCall("DELETE", repository.CollectionNotices, "id", id)
	_, err := r.col().Doc(id).Delete(ctx, gcf.Exists)
	logger.StoreResult("DELETE", repository.CollectionNotices, err, "id", id)
	return mapError(err)
}

func (r *noticeRepository) Watch(ctx context.Context, fn func([]domain.Notice)) error {
	return listen(ctx, repository.CollectionNotices, r.query(), func(docs []*gcf.DocumentSnapshot) {
		fn(decodeNotices(docs))
	})
}

func decodeNotices(docs []*gcf.DocumentSnapshot) []domain.Notice {
	return decodeAll(repository.CollectionNotices, len(docs), func(i int) (domain.Notice, error) {
		var d noticeDoc
		if err := docs[i].DataTo(&d); err != nil {
			return domain.Notice{}, fmt.Errorf("%w %s: %v", errDecode, docs[i].Ref.ID, err)
		}
		return domain.Notice{ID: docs[i].Ref.ID, Message: d.Message, Date: d.Date}, nil
	})
}
