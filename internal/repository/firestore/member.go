package firestore

import (
	"context"
	"fmt"

	gcf "cloud.google.com/go/firestore"

	"ngo-backend/internal/domain"
	"ngo-backend/internal/logger"
	"ngo-backend/internal/repository"
)

type memberRepository struct {
	client *gcf.Client
}

func (r *memberRepository) col() *gcf.CollectionRef {
	return r.client.Collection(repository.CollectionMembers)
}

func (r *memberRepository) query() gcf.Query {
	return r.col().OrderBy("joinDate", gcf.Desc)
}

func (r *memberRepository) Create(ctx context.Context, m *domain.Member) error {
	logger.StoreCall("ADD", repository.CollectionMembers, "status", m.Status)
	ref, _, err := r.col().Add(ctx, toMemberDoc(m))
	if ref != nil {
		m.ID = ref.ID
	}
	logger.StoreResult("ADD", repository.CollectionMembers, err, "id", m.ID)
	return err
}

func (r *memberRepository) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	doc, err := r.col().Doc(id).Get(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	var d memberDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, fmt.Errorf("%w %s: %v", errDecode, id, err)
	}
	m := fromMemberDoc(id, d)
	return &m, nil
}

func (r *memberRepository) List(ctx context.Context) ([]domain.Member, error) {
	docs, err := r.query().Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return decodeMembers(docs), nil
}

func (r *memberRepository) UpdateStatus(ctx context.Context, id string, status domain.MemberStatus) error {
	return r.update(ctx, id, []gcf.Update{{Path: "status", Value: string(status)}})
}

func (r *memberRepository) UpdateRole(ctx context.Context, id string, role domain.MemberRole, permissions []domain.Permission) error {
	perms := make([]string, 0, len(permissions))
	for _, p := range permissions {
		perms = append(perms, string(p))
	}
	return r.update(ctx, id, []gcf.Update{
		{Path: "role", Value: string(role)},
		{Path: "permissions", Value: perms},
	})
}

func (r *memberRepository) update(ctx context.Context, id string, updates []gcf.Update) error {
	logger.StoreCall("UPDATE", repository.CollectionMembers, "id", id)
	_, err := r.col().Doc(id).Update(ctx, updates)
	logger.StoreResult("UPDATE", repository.CollectionMembers, err, "id", id)
	return mapError(err)
}

func (r *memberRepository) Delete(ctx context.Context, id string) error {
	logger.StoreCall("DELETE", repository.CollectionMembers, "id", id)
	_, err := r.col().Doc(id).Delete(ctx, gcf.Exists)
	logger.StoreResult("DELETE", repository.CollectionMembers, err, "id", id)
	return mapError(err)
}

func (r *memberRepository) Watch(ctx context.Context, fn func([]domain.Member)) error {
	return listen(ctx, repository.CollectionMembers, r.query(), func(docs []*gcf.DocumentSnapshot) {
		fn(decodeMembers(docs))
	})
}

func decodeMembers(docs []*gcf.DocumentSnapshot) []domain.Member {
	return decodeAll(repository.CollectionMembers, len(docs), func(i int) (domain.Member, error) {
		var d memberDoc
		if err := docs[i].DataTo(&d); err != nil {
			return domain.Member{}, fmt.Errorf("%w %s: %v", errDecode, docs[i].Ref.ID, err)
		}
		return fromMemberDoc(docs[i].Ref.ID, d), nil
	})
}
