// Package service holds the write paths that are not actor-set toggles:
// content creation, deletion, moderation and connection requests.
package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/tazhibayda/townboat/internal/domain"
)

type RecordStore interface {
	Insert(ctx context.Context, collection string, doc any) (string, error)
	GetRecord(ctx context.Context, collection, id string) (*domain.Record, error)
	SetFields(ctx context.Context, collection, id string, fields, guard map[string]any) error
	DeleteRecord(ctx context.Context, collection, id string) error
}

var validate = validator.New()

func check(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}
