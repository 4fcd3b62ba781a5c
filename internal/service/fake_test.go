package service

import (
	"context"
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tazhibayda/townboat/internal/domain"
)

type memStore struct {
	recs    map[string]map[string]*domain.Record
	conns   map[string]*domain.Connection
	users   map[string]*domain.User
	deleted []string
	files   []string
}

func newMem() *memStore {
	return &memStore{
		recs:  map[string]map[string]*domain.Record{},
		conns: map[string]*domain.Connection{},
		users: map[string]*domain.User{},
	}
}

func (m *memStore) put(collection, id string, fields map[string]any) {
	if m.recs[collection] == nil {
		m.recs[collection] = map[string]*domain.Record{}
	}
	m.recs[collection][id] = &domain.Record{ID: id, Collection: collection, Fields: fields}
}

func (m *memStore) Insert(_ context.Context, collection string, doc any) (string, error) {
	id := primitive.NewObjectID().Hex()
	v := reflect.Indirect(reflect.ValueOf(doc))
	fields := map[string]any{}
	for i := 0; i < v.NumField(); i++ {
		fields[v.Type().Field(i).Name] = v.Field(i).Interface()
	}
	m.put(collection, id, fields)
	return id, nil
}

func (m *memStore) GetRecord(_ context.Context, collection, id string) (*domain.Record, error) {
	r, ok := m.recs[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	c := r.Clone()
	return &c, nil
}

func (m *memStore) SetFields(_ context.Context, collection, id string, fields, _ map[string]any) error {
	r, ok := m.recs[collection][id]
	if !ok {
		return domain.ErrNotFound
	}
	for k, v := range fields {
		r.Fields[k] = v
	}
	return nil
}

func (m *memStore) DeleteRecord(_ context.Context, collection, id string) error {
	delete(m.recs[collection], id)
	m.deleted = append(m.deleted, collection+"/"+id)
	return nil
}

func (m *memStore) DeleteFile(_ context.Context, p string) error {
	m.files = append(m.files, p)
	return nil
}

func (m *memStore) CreateConnection(_ context.Context, c *domain.Connection) error {
	for _, x := range m.conns {
		if x.From == c.From && x.To == c.To {
			return domain.ErrConflict
		}
	}
	c.ID = primitive.NewObjectID()
	c.Status = domain.ConnPending
	cp := *c
	m.conns[c.ID.Hex()] = &cp
	return nil
}

func (m *memStore) GetConnection(_ context.Context, id string) (*domain.Connection, error) {
	c, ok := m.conns[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) SetConnectionStatus(_ context.Context, c *domain.Connection, status string) error {
	stored := m.conns[c.ID.Hex()]
	if stored.Status != domain.ConnPending {
		return domain.ErrConflict
	}
	stored.Status = status
	return nil
}

func (m *memStore) FindUserByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}
